// Package extension turns manifest declarations into callables the template
// engine can invoke, and ships the built-in functions and filters.
package extension

import (
	"context"
	"fmt"

	"github.com/fantajeon/J2Composer/host"
	"github.com/fantajeon/J2Composer/manifest"
	"github.com/fantajeon/J2Composer/shell"
	"github.com/fantajeon/J2Composer/value"
)

// Kind tells whether an extension is invoked as a function or applied as a
// filter.
type Kind string

const (
	KindFunction Kind = "function"
	KindFilter   Kind = "filter"
)

// Executable is the capability shared by both backends: one synchronous
// call with named args and, for filters, the pipeline value.
type Executable interface {
	Execute(ctx context.Context, args map[string]value.Value, input value.Value, hasInput bool) (value.Value, error)
}

// ShellBacked substitutes declared params into the script and runs it under
// its interpreter.
type ShellBacked struct {
	name   string
	script string
	params []manifest.Param
	env    map[string]string
	opts   []shell.RunOption
}

func (s *ShellBacked) Execute(ctx context.Context, args map[string]value.Value, input value.Value, hasInput bool) (value.Value, error) {
	cmd, err := shell.Substitute(s.name, s.script, s.params, args, input, hasInput)
	if err != nil {
		return nil, err
	}
	out, err := shell.Run(ctx, cmd, s.env, s.opts...)
	if err != nil {
		return nil, fmt.Errorf("extension %q: %w", s.name, err)
	}
	return out, nil
}

// WasmBacked delegates to the wasm host executor.
type WasmBacked struct {
	executor *host.Executor
}

func (w *WasmBacked) Execute(ctx context.Context, args map[string]value.Value, input value.Value, hasInput bool) (value.Value, error) {
	return w.executor.Execute(ctx, args, input, hasInput)
}
