package host_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"

	"github.com/fantajeon/J2Composer/host"
	"github.com/fantajeon/J2Composer/manifest"
	"github.com/fantajeon/J2Composer/value"
)

// The combine example plugin doubles as the integration fixture. It is
// compiled once per test run with the toolchain's wasip1 port, so these
// tests drive the full instantiate/grow/write/call/read/free path against
// a real guest.
var combineFixture struct {
	once sync.Once
	dir  string
	path string
	err  error
}

func TestMain(m *testing.M) {
	code := m.Run()
	if combineFixture.dir != "" {
		os.RemoveAll(combineFixture.dir)
	}
	os.Exit(code)
}

func combineWasm(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available to build the wasm fixture")
	}

	combineFixture.once.Do(func() {
		dir, err := os.MkdirTemp("", "j2composer-wasm-")
		if err != nil {
			combineFixture.err = err
			return
		}
		combineFixture.dir = dir
		out := filepath.Join(dir, "combine.wasm")

		cmd := exec.Command("go", "build", "-buildmode=c-shared", "-o", out, ".")
		cmd.Dir = filepath.Join("..", "examples", "plugins", "combine")
		cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm")
		if output, err := cmd.CombinedOutput(); err != nil {
			combineFixture.err = fmt.Errorf("build wasm fixture: %v\n%s", err, output)
			return
		}
		combineFixture.path = out
	})

	require.NoError(t, combineFixture.err)
	return combineFixture.path
}

func TestExecuteWasmConcat(t *testing.T) {
	wasmPath := combineWasm(t)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	e := host.NewExecutor("combine",
		manifest.WasmRef{Path: wasmPath, Import: "combine"},
		[]manifest.Param{{Name: "var1"}, {Name: "var2"}},
		host.WithLogger(logger))

	out, err := e.Execute(context.Background(), map[string]value.Value{
		"var1": "Hello",
		"var2": " World",
		// Undeclared args never reach the guest.
		"undeclared": "dropped",
	}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", out)

	// The guest logged through the print_log_from_wasm import.
	assert.Contains(t, logs.String(), "Hello from Wasm!")
	assert.Contains(t, logs.String(), "extension=combine")
}

func TestExecuteWasmFilterWithPipelineValue(t *testing.T) {
	wasmPath := combineWasm(t)

	e := host.NewExecutor("deco",
		manifest.WasmRef{Path: wasmPath, Import: "deco"},
		[]manifest.Param{{Name: "suffix"}})

	out, err := e.Execute(context.Background(),
		map[string]value.Value{"suffix": "!"}, "x", true)
	require.NoError(t, err)
	assert.Equal(t, "x!", out)
}

func TestExecuteWasmGuestException(t *testing.T) {
	wasmPath := combineWasm(t)

	// Invoking the filter entry as a function frames a single parameter,
	// which the guest rejects with an exception.
	e := host.NewExecutor("deco",
		manifest.WasmRef{Path: wasmPath, Import: "deco"},
		[]manifest.Param{{Name: "suffix"}})

	_, err := e.Execute(context.Background(),
		map[string]value.Value{"suffix": "!"}, nil, false)
	require.ErrorIs(t, err, host.ErrGuest)

	var guestErr *host.GuestError
	require.ErrorAs(t, err, &guestErr)
	assert.Equal(t, "deco", guestErr.Extension)
	assert.Contains(t, guestErr.Reason, "deco")
}

func TestExecuteWasmMissingExport(t *testing.T) {
	wasmPath := combineWasm(t)

	e := host.NewExecutor("nope",
		manifest.WasmRef{Path: wasmPath, Import: "nope"}, nil)

	_, err := e.Execute(context.Background(), map[string]value.Value{}, nil, false)
	require.ErrorIs(t, err, host.ErrWasmLoad)
}

func TestExecuteWasmRepeatedCallsAreIndependent(t *testing.T) {
	wasmPath := combineWasm(t)

	cache := wazero.NewCompilationCache()
	defer cache.Close(context.Background())

	e := host.NewExecutor("combine",
		manifest.WasmRef{Path: wasmPath, Import: "combine"},
		[]manifest.Param{{Name: "var1"}, {Name: "var2"}},
		host.WithCompilationCache(cache))

	// Each call gets a fresh instance; the cache only reuses compilation.
	for i := 0; i < 3; i++ {
		out, err := e.Execute(context.Background(), map[string]value.Value{
			"var1": "a",
			"var2": fmt.Sprintf("-%d", i),
		}, nil, false)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("a-%d", i), out)
	}
}
