package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	goccyyaml "github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/fantajeon/J2Composer/engine"
	"github.com/fantajeon/J2Composer/shell"
	"github.com/fantajeon/J2Composer/value"
)

// RegisterBuiltins installs the built-in functions (read_file, shell) and
// filters (to_object, from_json, from_yaml, from_toml). It is idempotent
// within a dispatcher and a no-op when WithoutBuiltins was given.
func (d *Dispatcher) RegisterBuiltins() error {
	if d.noBuiltins || d.builtinsDone {
		return nil
	}
	slog.Debug("extension: register builtins")

	functions := map[string]engine.Function{
		"read_file": readFileFunction,
		"shell":     d.shellFunction,
	}
	for name, fn := range functions {
		if err := d.engine.RegisterFunction(name, fn); err != nil {
			return fmt.Errorf("register builtin %q: %w", name, err)
		}
	}

	filters := map[string]engine.Filter{
		"to_object": toObjectFilter,
		"from_json": fromJSONFilter,
		"from_yaml": fromYAMLFilter,
		"from_toml": fromTOMLFilter,
	}
	for name, fn := range filters {
		if err := d.engine.RegisterFilter(name, fn); err != nil {
			return fmt.Errorf("register builtin %q: %w", name, err)
		}
	}

	d.builtinsDone = true
	return nil
}

// readFileFunction returns the contents of file_path as a string.
func readFileFunction(args map[string]any) (any, error) {
	raw, ok := args["file_path"]
	if !ok {
		return nil, errors.New("read_file: file_path is required")
	}
	path, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("read_file: file_path should be a string, got %T", raw)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read_file: %w", err)
	}
	return string(content), nil
}

// shellFunction runs cmd under interpreter (default sh); every other named
// argument becomes an environment variable of the subprocess.
func (d *Dispatcher) shellFunction(args map[string]any) (any, error) {
	raw, ok := args["cmd"]
	if !ok {
		return nil, errors.New("shell: cmd is required")
	}
	cmd, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("shell: cmd should be a string, got %T", raw)
	}

	interpreter := ""
	if raw, ok := args["interpreter"]; ok {
		if interpreter, ok = raw.(string); !ok {
			return nil, fmt.Errorf("shell: interpreter should be a string, got %T", raw)
		}
	}

	env := make(map[string]string, len(args))
	for key, v := range args {
		if _, reserved := reservedParams[key]; reserved {
			continue
		}
		text, err := value.Stringify(v)
		if err != nil {
			return nil, fmt.Errorf("shell: env %q: %w", key, err)
		}
		env[key] = text
	}

	out, err := shell.RunWithInterpreter(context.Background(), interpreter, cmd, env, d.shellOptions...)
	if err != nil {
		return nil, fmt.Errorf("shell: %w", err)
	}
	return out, nil
}

// toObjectFilter pairs a flat array into an object:
// ["a", 1, "b", 2] | to_object == {"a": 1, "b": 2}.
func toObjectFilter(v any, _ map[string]any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("to_object: value must be an array, got %T", v)
	}
	if len(items)%2 != 0 {
		return nil, fmt.Errorf("to_object: need an even number of elements, got %d", len(items))
	}
	obj := make(map[string]any, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		key, ok := items[i].(string)
		if !ok {
			return nil, fmt.Errorf("to_object: element %d must be a string key, got %T", i, items[i])
		}
		obj[key] = items[i+1]
	}
	return obj, nil
}

func fromJSONFilter(v any, _ map[string]any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("from_json: value must be a string, got %T", v)
	}
	out, err := value.FromJSON([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("from_json: %w", err)
	}
	return out, nil
}

func fromYAMLFilter(v any, _ map[string]any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("from_yaml: value must be a string, got %T", v)
	}
	var out any
	if err := goccyyaml.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("from_yaml: %w", err)
	}
	return out, nil
}

func fromTOMLFilter(v any, _ map[string]any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("from_toml: value must be a string, got %T", v)
	}
	var out map[string]any
	if err := toml.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("from_toml: %w", err)
	}
	return out, nil
}
