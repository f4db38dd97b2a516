// Package j2composer composes text artifacts from Jinja2-style templates,
// extended by user-declared shell and WebAssembly functions and filters.
package j2composer

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/fantajeon/J2Composer/engine"
	"github.com/fantajeon/J2Composer/extension"
	"github.com/fantajeon/J2Composer/manifest"
)

// Version is the composer version checked against a manifest's `requires`
// constraint.
const Version = manifest.HostVersion

// Option configures LoadManifestAndRegister.
type Option func(*loadConfig)

type loadConfig struct {
	dispatcherOptions []extension.DispatcherOption
}

// WithDispatcherOptions forwards options to the extension dispatcher.
func WithDispatcherOptions(opts ...extension.DispatcherOption) Option {
	return func(c *loadConfig) {
		c.dispatcherOptions = append(c.dispatcherOptions, opts...)
	}
}

// LoadManifestAndRegister renders the plugin manifest with the given
// context, then registers the built-ins and every declared extension with
// the engine. Registration order is manifest order.
func LoadManifestAndRegister(manifestPath string, eng engine.Engine, ctx engine.Context, opts ...Option) error {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	loader := manifest.NewLoader(eng)
	m, err := loader.Load(manifestPath, ctx)
	if err != nil {
		return err
	}

	return extension.NewDispatcher(eng, cfg.dispatcherOptions...).Register(m)
}

// RegisterBuiltins installs only the built-in functions and filters, for
// runs without a plugin manifest.
func RegisterBuiltins(eng engine.Engine) error {
	return extension.NewDispatcher(eng).RegisterBuiltins()
}

// RenderVariables renders every variables file matched by the doublestar
// patterns (each file is itself a template), parses the results as YAML
// mappings, and merges them; later files override earlier keys.
func RenderVariables(eng engine.Engine, patterns []string, ctx engine.Context) (map[string]any, error) {
	vars := map[string]any{}
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad variables pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no variables file matches %q", pattern)
		}
		sort.Strings(matches)

		for _, path := range matches {
			rendered, err := eng.RenderFile(path, ctx)
			if err != nil {
				return nil, fmt.Errorf("render variables %s: %w", path, err)
			}
			var parsed map[string]any
			if err := yaml.Unmarshal([]byte(rendered), &parsed); err != nil {
				return nil, fmt.Errorf("parse variables %s: %w", path, err)
			}
			for key, v := range parsed {
				vars[key] = v
			}
			slog.Debug("variables: loaded", "path", path, "keys", len(parsed))
		}
	}
	return vars, nil
}

// ParseEnvAssignments parses repeated key=value flag entries. Malformed
// entries are logged and skipped.
func ParseEnvAssignments(entries []string) map[string]string {
	envs := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, val, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			slog.Warn("ignoring malformed --env entry, expected key=value", "entry", entry)
			continue
		}
		envs[key] = val
	}
	return envs
}
