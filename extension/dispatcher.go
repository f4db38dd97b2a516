package extension

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fantajeon/J2Composer/engine"
	"github.com/fantajeon/J2Composer/host"
	"github.com/fantajeon/J2Composer/manifest"
	"github.com/fantajeon/J2Composer/shell"
)

// reservedParams are claimed by the built-in shell function's environment
// mechanism; user declarations may not use them for params or env keys.
var reservedParams = map[string]struct{}{
	"cmd":         {},
	"interpreter": {},
}

// Dispatcher builds executables from declarations and registers them, plus
// the built-ins, with the template engine.
type Dispatcher struct {
	engine       engine.Engine
	hostOptions  []host.Option
	shellOptions []shell.RunOption
	noBuiltins   bool
	builtinsDone bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHostOptions forwards options to every wasm-backed executable.
func WithHostOptions(opts ...host.Option) DispatcherOption {
	return func(d *Dispatcher) {
		d.hostOptions = append(d.hostOptions, opts...)
	}
}

// WithShellOptions forwards options to every shell-backed call, including
// the built-in shell function.
func WithShellOptions(opts ...shell.RunOption) DispatcherOption {
	return func(d *Dispatcher) {
		d.shellOptions = append(d.shellOptions, opts...)
	}
}

// WithoutBuiltins skips registration of the built-in functions and filters.
func WithoutBuiltins() DispatcherOption {
	return func(d *Dispatcher) {
		d.noBuiltins = true
	}
}

// NewDispatcher creates a dispatcher registering into the given engine.
func NewDispatcher(e engine.Engine, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{engine: e}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register installs the built-ins and then every declared extension, in
// manifest order.
func (d *Dispatcher) Register(m *manifest.Manifest) error {
	if err := d.RegisterBuiltins(); err != nil {
		return err
	}
	for _, decl := range m.Functions {
		if err := d.RegisterFunction(decl); err != nil {
			return err
		}
	}
	for _, decl := range m.Filters {
		if err := d.RegisterFilter(decl); err != nil {
			return err
		}
	}
	return nil
}

// RegisterFunction builds one declaration and registers it as a function.
func (d *Dispatcher) RegisterFunction(decl manifest.Decl) error {
	exe, err := d.Build(decl)
	if err != nil {
		return err
	}
	slog.Debug("extension: register function", "name", decl.Name)
	return d.engine.RegisterFunction(decl.Name, AsFunction(decl.Name, exe))
}

// RegisterFilter builds one declaration and registers it as a filter.
func (d *Dispatcher) RegisterFilter(decl manifest.Decl) error {
	exe, err := d.Build(decl)
	if err != nil {
		return err
	}
	slog.Debug("extension: register filter", "name", decl.Name)
	return d.engine.RegisterFilter(decl.Name, AsFilter(decl.Name, exe))
}

// Build converts a declaration into its backend executable.
func (d *Dispatcher) Build(decl manifest.Decl) (Executable, error) {
	switch {
	case decl.Wasm != nil && decl.Script != nil:
		return nil, &BadDeclarationError{Name: decl.Name, Reason: "wasm and script are mutually exclusive"}
	case decl.Wasm == nil && decl.Script == nil:
		return nil, &BadDeclarationError{Name: decl.Name, Reason: "one of wasm or script is required"}
	}
	if err := checkNames(decl); err != nil {
		return nil, err
	}

	if decl.Wasm != nil {
		return &WasmBacked{
			executor: host.NewExecutor(decl.Name, *decl.Wasm, decl.Params, d.hostOptions...),
		}, nil
	}
	return &ShellBacked{
		name:   decl.Name,
		script: *decl.Script,
		params: decl.Params,
		env:    decl.Env,
		opts:   d.shellOptions,
	}, nil
}

// checkNames rejects duplicate param names and the names reserved by the
// built-in shell function.
func checkNames(decl manifest.Decl) error {
	seen := make(map[string]struct{}, len(decl.Params))
	for _, p := range decl.Params {
		if _, reserved := reservedParams[p.Name]; reserved {
			return &BadDeclarationError{Name: decl.Name, Reason: fmt.Sprintf("param name %q is reserved", p.Name)}
		}
		if _, dup := seen[p.Name]; dup {
			return &BadDeclarationError{Name: decl.Name, Reason: fmt.Sprintf("duplicate param %q", p.Name)}
		}
		seen[p.Name] = struct{}{}
	}
	for key := range decl.Env {
		if _, reserved := reservedParams[key]; reserved {
			return &BadDeclarationError{Name: decl.Name, Reason: fmt.Sprintf("env key %q is reserved", key)}
		}
	}
	return nil
}

// AsFunction wraps an executable as an engine function callable.
func AsFunction(name string, exe Executable) engine.Function {
	return func(args map[string]any) (any, error) {
		slog.Debug("extension: function call", "name", name)
		return exe.Execute(context.Background(), args, nil, false)
	}
}

// AsFilter wraps an executable as an engine filter callable.
func AsFilter(name string, exe Executable) engine.Filter {
	return func(v any, args map[string]any) (any, error) {
		slog.Debug("extension: filter call", "name", name)
		return exe.Execute(context.Background(), args, v, true)
	}
}
