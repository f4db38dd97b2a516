package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/fantajeon/J2Composer/engine"
)

// HostVersion is the composer version manifests constrain with `requires`.
const HostVersion = "0.4.0"

// ErrBadManifest is returned when the rendered manifest cannot be parsed,
// violates the manifest schema, declares duplicate extension names, or
// rejects the host version.
var ErrBadManifest = errors.New("invalid plugin manifest")

// Loader renders and parses plugin manifests.
type Loader struct {
	engine      engine.Engine
	hostVersion string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHostVersion overrides the version checked against `requires`.
func WithHostVersion(version string) LoaderOption {
	return func(l *Loader) {
		l.hostVersion = version
	}
}

// NewLoader creates a manifest loader rendering through the given engine.
func NewLoader(e engine.Engine, opts ...LoaderOption) *Loader {
	l := &Loader{engine: e, hostVersion: HostVersion}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the manifest file, renders it with the current context, and
// parses the result. Declaration order is preserved.
func (l *Loader) Load(path string, ctx engine.Context) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	rendered, err := l.engine.RenderString(path, string(raw), ctx)
	if err != nil {
		return nil, fmt.Errorf("render manifest %s: %w", path, err)
	}

	if err := validate(rendered); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal([]byte(rendered), &m); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrBadManifest, path, err)
	}

	if err := checkDuplicates(&m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	if err := l.checkRequires(&m); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	slog.Debug("manifest: loaded",
		"path", path,
		"functions", len(m.Functions),
		"filters", len(m.Filters))
	return &m, nil
}

// validate checks the rendered document against the manifest schema. The
// YAML tree is round-tripped through JSON so the validator sees canonical
// types.
func validate(rendered string) error {
	var tree any
	if err := yaml.Unmarshal([]byte(rendered), &tree); err != nil {
		return fmt.Errorf("%w: %v", ErrBadManifest, err)
	}
	if tree == nil {
		return nil
	}

	b, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadManifest, err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrBadManifest, err)
	}

	if err := manifestSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrBadManifest, err)
	}
	return nil
}

func checkDuplicates(m *Manifest) error {
	for kind, decls := range map[string][]Decl{
		"function": m.Functions,
		"filter":   m.Filters,
	} {
		seen := make(map[string]struct{}, len(decls))
		for _, d := range decls {
			if _, dup := seen[d.Name]; dup {
				return fmt.Errorf("%w: duplicate %s %q", ErrBadManifest, kind, d.Name)
			}
			seen[d.Name] = struct{}{}
		}
	}
	return nil
}

func (l *Loader) checkRequires(m *Manifest) error {
	if m.Requires == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(m.Requires)
	if err != nil {
		return fmt.Errorf("%w: bad requires %q: %v", ErrBadManifest, m.Requires, err)
	}
	version, err := semver.NewVersion(l.hostVersion)
	if err != nil {
		return fmt.Errorf("%w: bad host version %q: %v", ErrBadManifest, l.hostVersion, err)
	}
	if !constraint.Check(version) {
		return fmt.Errorf("%w: requires composer %q, this is %s", ErrBadManifest, m.Requires, l.hostVersion)
	}
	return nil
}
