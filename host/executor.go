// Package host executes WebAssembly-backed extensions across a
// JSON-over-linear-memory boundary. A fresh runtime and instance are
// created for every invocation, so calls never observe each other's guest
// state.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/fantajeon/J2Composer/manifest"
	"github.com/fantajeon/J2Composer/value"
)

const (
	// hostModule is the import module the guest links its one host
	// function from.
	hostModule = "env"

	// logImport reads (ptr, len) bytes from guest memory and routes them
	// to the host log sink.
	logImport = "print_log_from_wasm"

	memoryExport    = "memory"
	guestFreeExport = "guest_free"

	wasmPageSize = 65536
)

// Executor runs one wasm-backed extension.
type Executor struct {
	name   string
	ref    manifest.WasmRef
	params []manifest.Param
	cache  wazero.CompilationCache
	logger *slog.Logger
}

// NewExecutor creates an executor for the declared extension.
func NewExecutor(name string, ref manifest.WasmRef, params []manifest.Param, opts ...Option) *Executor {
	e := &Executor{
		name:   name,
		ref:    ref,
		params: params,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute performs one guest call: it instantiates the module, writes the
// input frame into grown linear memory, invokes the declared export, reads
// the return descriptor and payload back, releases the guest allocation via
// guest_free, and decodes the output document.
func (e *Executor) Execute(ctx context.Context, args map[string]value.Value, input value.Value, hasInput bool) (value.Value, error) {
	wasmBytes, err := os.ReadFile(e.ref.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrWasmLoad, e.ref.Path, err)
	}

	frame, err := frameInput(e.params, args, input, hasInput)
	if err != nil {
		return nil, fmt.Errorf("extension %q: %w", e.name, err)
	}

	config := wazero.NewRuntimeConfig()
	if e.cache != nil {
		config = config.WithCompilationCache(e.cache)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, config)
	defer runtime.Close(ctx)

	if err := e.instantiateHostModule(ctx, runtime); err != nil {
		return nil, fmt.Errorf("%w: host module: %v", ErrWasmLoad, err)
	}
	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	mod, err := runtime.Instantiate(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: instantiate %s: %v", ErrWasmLoad, e.ref.Path, err)
	}

	// Reactor-style guests (e.g. Go -buildmode=c-shared) perform their
	// runtime setup in _initialize; modules without the export skip it.
	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			return nil, fmt.Errorf("%w: _initialize: %v", ErrWasmLoad, err)
		}
	}

	memory := mod.ExportedMemory(memoryExport)
	if memory == nil {
		return nil, fmt.Errorf("%w: %s does not export %q", ErrWasmLoad, e.ref.Path, memoryExport)
	}

	inputPtr, err := writeInput(memory, frame)
	if err != nil {
		return nil, fmt.Errorf("extension %q: %w", e.name, err)
	}

	entry := mod.ExportedFunction(e.ref.Import)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s does not export %q", ErrWasmLoad, e.ref.Path, e.ref.Import)
	}

	slog.Debug("wasm: call", "extension", e.name, "import", e.ref.Import, "input_bytes", len(frame))
	results, err := entry.Call(ctx, uint64(inputPtr), uint64(len(frame)))
	if err != nil {
		return nil, fmt.Errorf("%w: call %q: %v", ErrWasmTrap, e.ref.Import, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q returned no value", ErrWasmTrap, e.ref.Import)
	}
	retPtr := uint32(results[0])

	payload, err := readReturn(memory, retPtr)
	if err != nil {
		return nil, fmt.Errorf("extension %q: %w", e.name, err)
	}

	if err := freeReturn(ctx, mod, retPtr); err != nil {
		return nil, fmt.Errorf("extension %q: %w", e.name, err)
	}

	return decodeOutput(e.name, payload)
}

// writeInput places the frame at the current end of linear memory, growing
// it by the page-rounded byte length first, and returns the input address.
func writeInput(memory api.Memory, frame []byte) (uint32, error) {
	inputPtr := memory.Size()
	pages := (uint32(len(frame)) + wasmPageSize - 1) / wasmPageSize
	if _, ok := memory.Grow(pages); !ok {
		return 0, fmt.Errorf("%w: memory grow by %d pages refused", ErrWasmTrap, pages)
	}
	if !memory.Write(inputPtr, frame) {
		return 0, fmt.Errorf("%w: input write at %d out of bounds", ErrWasmTrap, inputPtr)
	}
	return inputPtr, nil
}

// readReturn reads the 8-byte return descriptor at retPtr and then the
// payload it addresses, bounds-checking both against linear memory. The
// payload is copied out because guest_free may release it.
func readReturn(memory api.Memory, retPtr uint32) ([]byte, error) {
	descriptor, ok := memory.Read(retPtr, returnValuesSize)
	if !ok {
		return nil, fmt.Errorf("%w: return descriptor at %d out of bounds", ErrWasmTrap, retPtr)
	}
	ptr, length := decodeReturn(descriptor)

	data, ok := memory.Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("%w: return payload [%d, %d) out of bounds", ErrWasmTrap, ptr, uint64(ptr)+uint64(length))
	}
	payload := make([]byte, length)
	copy(payload, data)
	return payload, nil
}

// freeReturn hands the descriptor back to the guest exactly once.
func freeReturn(ctx context.Context, mod api.Module, retPtr uint32) error {
	free := mod.ExportedFunction(guestFreeExport)
	if free == nil {
		return fmt.Errorf("%w: module does not export %q", ErrWasmLoad, guestFreeExport)
	}
	if _, err := free.Call(ctx, uint64(retPtr)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWasmTrap, guestFreeExport, err)
	}
	return nil
}

// instantiateHostModule registers the single imported capability.
func (e *Executor) instantiateHostModule(ctx context.Context, runtime wazero.Runtime) error {
	_, err := runtime.NewHostModuleBuilder(hostModule).
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(e.printLog),
			[]api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
			[]api.ValueType{}).
		Export(logImport).
		Instantiate(ctx)
	return err
}

// printLog implements print_log_from_wasm: read (ptr, len) from guest
// memory as UTF-8 and log at info level. An out-of-bounds range or invalid
// UTF-8 traps the calling instance; wazero surfaces the panic as an error
// from the guest call.
func (e *Executor) printLog(_ context.Context, mod api.Module, stack []uint64) {
	ptr := uint32(stack[0])
	length := uint32(stack[1])

	data, ok := mod.Memory().Read(ptr, length)
	if !ok {
		panic(fmt.Sprintf("%s: range [%d, %d) out of bounds", logImport, ptr, uint64(ptr)+uint64(length)))
	}
	if !utf8.Valid(data) {
		panic(fmt.Sprintf("%s: message is not valid UTF-8", logImport))
	}
	e.logger.Info(string(data), "extension", e.name)
}
