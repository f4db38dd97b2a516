package host

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fantajeon/J2Composer/manifest"
	"github.com/fantajeon/J2Composer/value"
)

func TestFrameInput(t *testing.T) {
	t.Parallel()

	params := []manifest.Param{{Name: "var1"}, {Name: "var2"}}

	t.Run("function frames args only", func(t *testing.T) {
		frame, err := frameInput(params, map[string]value.Value{
			"var1":       "Hello",
			"var2":       " World",
			"undeclared": true,
		}, nil, false)
		require.NoError(t, err)
		assert.JSONEq(t, `{"params":[{"var1":"Hello","var2":" World"}]}`, string(frame))
	})

	t.Run("filter prepends the pipeline value", func(t *testing.T) {
		frame, err := frameInput([]manifest.Param{{Name: "suffix"}},
			map[string]value.Value{"suffix": "!"}, "x", true)
		require.NoError(t, err)
		assert.JSONEq(t, `{"params":["x",{"suffix":"!"}]}`, string(frame))
	})

	t.Run("declared params without args are absent, not defaulted", func(t *testing.T) {
		def := "fallback"
		frame, err := frameInput([]manifest.Param{{Name: "var1", Default: &def}},
			map[string]value.Value{}, nil, false)
		require.NoError(t, err)
		assert.JSONEq(t, `{"params":[{}]}`, string(frame))
	})
}

func TestDecodeReturn(t *testing.T) {
	t.Parallel()

	// ptr=0x0102_0304, len=0x0000_00ff, little-endian.
	ptr, length := decodeReturn([]byte{0x04, 0x03, 0x02, 0x01, 0xff, 0x00, 0x00, 0x00})
	assert.Equal(t, uint32(0x01020304), ptr)
	assert.Equal(t, uint32(0xff), length)
}

func TestDecodeOutput(t *testing.T) {
	t.Parallel()

	t.Run("result", func(t *testing.T) {
		v, err := decodeOutput("combine", []byte(`{"result":"Hello World"}`))
		require.NoError(t, err)
		assert.Equal(t, "Hello World", v)
	})

	t.Run("structured result", func(t *testing.T) {
		v, err := decodeOutput("combine", []byte(`{"result":{"a":[1,2]}}`))
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": []any{1.0, 2.0}}, v)
	})

	t.Run("exception", func(t *testing.T) {
		_, err := decodeOutput("combine", []byte(`{"result":null,"exception":"boom"}`))
		require.ErrorIs(t, err, ErrGuest)

		var guestErr *GuestError
		require.ErrorAs(t, err, &guestErr)
		assert.Equal(t, "boom", guestErr.Reason)
		assert.Equal(t, "combine", guestErr.Extension)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := decodeOutput("combine", []byte(`{"result":`))
		require.ErrorIs(t, err, value.ErrMarshal)
	})

	t.Run("invalid UTF-8", func(t *testing.T) {
		_, err := decodeOutput("combine", []byte{0xff, 0xfe})
		require.ErrorIs(t, err, value.ErrMarshal)
	})
}

func TestFrameRoundTripsThroughGuestView(t *testing.T) {
	t.Parallel()

	// What a guest decodes must match what the host framed.
	frame, err := frameInput([]manifest.Param{{Name: "suffix"}},
		map[string]value.Value{"suffix": "!"}, map[string]any{"k": "v"}, true)
	require.NoError(t, err)

	var seen struct {
		Params []json.RawMessage `json:"params"`
	}
	require.NoError(t, json.Unmarshal(frame, &seen))
	require.Len(t, seen.Params, 2)
	assert.JSONEq(t, `{"k":"v"}`, string(seen.Params[0]))
	assert.JSONEq(t, `{"suffix":"!"}`, string(seen.Params[1]))
}
