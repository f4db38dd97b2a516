package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nikolalohinski/gonja/v2/builtins"
	"github.com/nikolalohinski/gonja/v2/config"
	"github.com/nikolalohinski/gonja/v2/exec"
	"github.com/nikolalohinski/gonja/v2/loaders"
)

// Gonja adapts the gonja Jinja2 engine to the Engine contract. User
// functions live in the environment context; user filters extend a copy of
// the built-in filter set, so the package-level defaults are never mutated.
type Gonja struct {
	context *exec.Context
	filters exec.FilterSet
}

// NewGonja creates an engine seeded with gonja's built-in functions,
// filters, tests and control structures.
func NewGonja() *Gonja {
	filters := exec.FilterSet{}
	filters.Update(*builtins.Filters)

	context := exec.NewContext(map[string]any{})
	context.Update(builtins.GlobalFunctions)

	return &Gonja{context: context, filters: filters}
}

// RegisterFunction exposes fn to templates as a global callable.
func (g *Gonja) RegisterFunction(name string, fn Function) error {
	g.context.Set(name, func(va *exec.VarArgs) *exec.Value {
		args, err := kwargsToMap(name, va)
		if err != nil {
			return exec.AsValue(err)
		}
		out, err := fn(args)
		if err != nil {
			return exec.AsValue(fmt.Errorf("%s: %w", name, err))
		}
		return exec.AsValue(out)
	})
	return nil
}

// RegisterFilter exposes fn to templates as a pipeline filter.
func (g *Gonja) RegisterFilter(name string, fn Filter) error {
	g.filters[name] = func(e *exec.Evaluator, in *exec.Value, params *exec.VarArgs) *exec.Value {
		args, err := kwargsToMap(name, params)
		if err != nil {
			return exec.AsValue(err)
		}
		out, err := fn(in.Interface(), args)
		if err != nil {
			return exec.AsValue(fmt.Errorf("%s: %w", name, err))
		}
		return exec.AsValue(out)
	}
	return nil
}

// RenderString renders an in-memory template source.
func (g *Gonja) RenderString(name, source string, ctx Context) (string, error) {
	loader, err := loaders.NewMemoryLoader(map[string]string{name: source})
	if err != nil {
		return "", fmt.Errorf("load template %q: %w", name, err)
	}
	return g.render(name, loader, ctx)
}

// RenderFile renders the template file at path; includes resolve relative
// to its directory.
func (g *Gonja) RenderFile(path string, ctx Context) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	loader, err := loaders.NewFileSystemLoader(filepath.Dir(path))
	if err != nil {
		return "", fmt.Errorf("load template %q: %w", path, err)
	}
	return g.render(filepath.Base(path), loader, ctx)
}

func (g *Gonja) render(identifier string, loader loaders.Loader, ctx Context) (string, error) {
	environment := &exec.Environment{
		Context:           g.context,
		Filters:           &g.filters,
		Tests:             builtins.Tests,
		ControlStructures: builtins.ControlStructures,
		Methods:           builtins.Methods,
	}
	template, err := exec.NewTemplate(identifier, config.New(), loader, environment)
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", identifier, err)
	}
	out, err := template.ExecuteToString(exec.NewContext(ctx))
	if err != nil {
		return "", fmt.Errorf("render template %q: %w", identifier, err)
	}
	return out, nil
}

// kwargsToMap converts gonja call arguments to the named-argument map the
// extension substrate works with. Extensions take keyword arguments only.
func kwargsToMap(name string, va *exec.VarArgs) (map[string]any, error) {
	if len(va.Args) > 0 {
		return nil, fmt.Errorf("%s: positional arguments are not supported, use name=value", name)
	}
	args := make(map[string]any, len(va.KwArgs))
	for key, v := range va.KwArgs {
		args[key] = v.Interface()
	}
	return args, nil
}
