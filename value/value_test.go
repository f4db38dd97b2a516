package value_test

import (
	"testing"

	"github.com/fantajeon/J2Composer/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   value.Value
		want string
	}{
		{"nil", nil, "null"},
		{"true", true, "true"},
		{"false", false, "false"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float", 1.5, "1.5"},
		{"float without fraction", 2.0, "2"},
		{"string passes through unquoted", `a "quoted" string`, `a "quoted" string`},
		{"array", []any{"a", 1.0}, `["a",1]`},
		{"object", map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := value.Stringify(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("unserializable", func(t *testing.T) {
		_, err := value.Stringify(make(chan int))
		require.ErrorIs(t, err, value.ErrMarshal)
	})
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []value.Value{
		nil,
		true,
		float64(3),
		"text",
		[]any{"a", float64(1), nil},
		map[string]any{
			"nested": map[string]any{"list": []any{false, "x"}},
			"n":      float64(2.5),
		},
	}
	for _, v := range cases {
		b, err := value.ToJSON(v)
		require.NoError(t, err)

		got, err := value.FromJSON(b)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestFromJSONRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := value.FromJSON([]byte("{not json"))
	require.ErrorIs(t, err, value.ErrMarshal)
}

func TestToJSONRejectsUnserializable(t *testing.T) {
	t.Parallel()

	_, err := value.ToJSON(func() {})
	require.ErrorIs(t, err, value.ErrMarshal)
}
