package extension_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fantajeon/J2Composer/engine/enginetest"
	"github.com/fantajeon/J2Composer/extension"
)

func builtins(t *testing.T) *enginetest.Fake {
	t.Helper()
	fake := enginetest.New()
	require.NoError(t, extension.NewDispatcher(fake).RegisterBuiltins())
	return fake
}

func TestReadFileBuiltin(t *testing.T) {
	t.Parallel()
	fake := builtins(t)

	path := filepath.Join(t.TempDir(), "sample.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hello, World!"), 0o644))

	out, err := fake.Functions["read_file"](map[string]any{"file_path": path})
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", out)

	t.Run("file_path is required", func(t *testing.T) {
		_, err := fake.Functions["read_file"](map[string]any{})
		require.Error(t, err)
	})

	t.Run("file_path must be a string", func(t *testing.T) {
		_, err := fake.Functions["read_file"](map[string]any{"file_path": 1})
		require.Error(t, err)
	})
}

func TestShellBuiltin(t *testing.T) {
	t.Parallel()
	fake := builtins(t)

	t.Run("runs cmd", func(t *testing.T) {
		out, err := fake.Functions["shell"](map[string]any{"cmd": "echo hi"})
		require.NoError(t, err)
		assert.Equal(t, "hi\n", out)
	})

	t.Run("extra args become environment", func(t *testing.T) {
		out, err := fake.Functions["shell"](map[string]any{
			"cmd":  "echo $NAME-$COUNT",
			"NAME": "j2",
			// Values are stringified before export.
			"COUNT": 3,
		})
		require.NoError(t, err)
		assert.Equal(t, "j2-3\n", out)
	})

	t.Run("interpreter override", func(t *testing.T) {
		out, err := fake.Functions["shell"](map[string]any{
			"cmd":         "echo from-sh",
			"interpreter": "/bin/sh",
		})
		require.NoError(t, err)
		assert.Equal(t, "from-sh\n", out)
	})

	t.Run("cmd is required", func(t *testing.T) {
		_, err := fake.Functions["shell"](map[string]any{})
		require.Error(t, err)
	})
}

func TestToObjectFilter(t *testing.T) {
	t.Parallel()
	fake := builtins(t)

	out, err := fake.Filters["to_object"]([]any{"a", 1.0, "b", "x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": "x"}, out)

	t.Run("odd length", func(t *testing.T) {
		_, err := fake.Filters["to_object"]([]any{"a"}, nil)
		require.Error(t, err)
	})

	t.Run("non-string key", func(t *testing.T) {
		_, err := fake.Filters["to_object"]([]any{1.0, "a"}, nil)
		require.Error(t, err)
	})

	t.Run("non-array value", func(t *testing.T) {
		_, err := fake.Filters["to_object"]("scalar", nil)
		require.Error(t, err)
	})
}

func TestFromFormatFilters(t *testing.T) {
	t.Parallel()
	fake := builtins(t)

	t.Run("from_json", func(t *testing.T) {
		out, err := fake.Filters["from_json"](`{"key": "value"}`, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"key": "value"}, out)
	})

	t.Run("from_yaml", func(t *testing.T) {
		out, err := fake.Filters["from_yaml"]("key: value\n", nil)
		require.NoError(t, err)
		obj, ok := out.(map[string]any)
		require.True(t, ok, "expected an object, got %T", out)
		assert.Equal(t, "value", obj["key"])
	})

	t.Run("from_toml", func(t *testing.T) {
		out, err := fake.Filters["from_toml"]("key = \"value\"\n", nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"key": "value"}, out)
	})

	t.Run("non-string input fails", func(t *testing.T) {
		for _, name := range []string{"from_json", "from_yaml", "from_toml"} {
			_, err := fake.Filters[name](42, nil)
			require.Error(t, err, name)
		}
	})

	t.Run("garbage input fails", func(t *testing.T) {
		_, err := fake.Filters["from_json"]("{oops", nil)
		require.Error(t, err)
	})
}
