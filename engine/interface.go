// Package engine defines the contract between J2Composer and the Jinja2
// template engine, and ships the gonja adapter that fulfils it.
package engine

// Context is the variable set a template renders against.
type Context map[string]any

// Function is a callable invoked as name(arg=...) in a template expression.
type Function func(args map[string]any) (any, error)

// Filter is a callable applied as value | name(arg=...).
type Filter func(value any, args map[string]any) (any, error)

// Engine is the template engine collaborator. Registration replaces any
// callable previously registered under the same name, so registering the
// same manifest twice yields the same set of callables.
type Engine interface {
	// RegisterFunction makes fn callable as name(...) from templates.
	RegisterFunction(name string, fn Function) error

	// RegisterFilter makes fn applicable as value | name(...) in templates.
	RegisterFilter(name string, fn Filter) error

	// RenderString renders an in-memory template source under the given
	// name, propagating any callable error.
	RenderString(name, source string, ctx Context) (string, error)

	// RenderFile renders the template file at path. Includes resolve
	// relative to the file's directory.
	RenderFile(path string, ctx Context) (string, error)
}
