// Package enginetest provides an in-memory Engine double for tests.
package enginetest

import (
	"fmt"
	"os"

	"github.com/fantajeon/J2Composer/engine"
)

// Fake records registrations and renders templates verbatim unless a
// RenderFunc is installed.
type Fake struct {
	Functions map[string]engine.Function
	Filters   map[string]engine.Filter

	// RenderFunc, when set, replaces the verbatim rendering.
	RenderFunc func(name, source string, ctx engine.Context) (string, error)

	// Rendered collects the names of every rendered template in order.
	Rendered []string
}

// New creates an empty fake engine.
func New() *Fake {
	return &Fake{
		Functions: map[string]engine.Function{},
		Filters:   map[string]engine.Filter{},
	}
}

func (f *Fake) RegisterFunction(name string, fn engine.Function) error {
	f.Functions[name] = fn
	return nil
}

func (f *Fake) RegisterFilter(name string, fn engine.Filter) error {
	f.Filters[name] = fn
	return nil
}

func (f *Fake) RenderString(name, source string, ctx engine.Context) (string, error) {
	f.Rendered = append(f.Rendered, name)
	if f.RenderFunc != nil {
		return f.RenderFunc(name, source, ctx)
	}
	return source, nil
}

func (f *Fake) RenderFile(path string, ctx engine.Context) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return f.RenderString(path, string(source), ctx)
}

var _ engine.Engine = (*Fake)(nil)
