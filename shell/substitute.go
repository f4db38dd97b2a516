package shell

import (
	"fmt"
	"strings"

	"github.com/fantajeon/J2Composer/manifest"
	"github.com/fantajeon/J2Composer/value"
)

// inputPlaceholder receives the pipeline value when an extension runs as a
// filter.
const inputPlaceholder = "$(input)"

// Substitute expands every declared parameter's $(name) placeholder in the
// script. Parameters are processed in declaration order: a caller argument
// wins, then the declared default; neither means MissingParamError. When
// hasInput is set (filter invocation) the pipeline value is bound to
// $(input) and a declared parameter named "input" is skipped.
func Substitute(extension, script string, params []manifest.Param, args map[string]value.Value, input value.Value, hasInput bool) (string, error) {
	// Placeholders are collected first and expanded in a single pass over
	// the original script, so substituted text is never rescanned.
	var pairs []string

	if hasInput {
		text, err := value.Stringify(input)
		if err != nil {
			return "", fmt.Errorf("extension %q: %w", extension, err)
		}
		pairs = append(pairs, inputPlaceholder, text)
	}

	for _, p := range params {
		if hasInput && p.Name == "input" {
			continue
		}

		var text string
		if arg, ok := args[p.Name]; ok {
			var err error
			if text, err = value.Stringify(arg); err != nil {
				return "", fmt.Errorf("extension %q: param %q: %w", extension, p.Name, err)
			}
		} else if p.Default != nil {
			text = *p.Default
		} else {
			return "", &MissingParamError{Extension: extension, Param: p.Name}
		}

		pairs = append(pairs, "$("+p.Name+")", text)
	}

	return strings.NewReplacer(pairs...).Replace(script), nil
}
