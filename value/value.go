// Package value implements the dynamic value codec shared by every extension
// call. A Value is the JSON-shaped tree the template engine carries: nil,
// bool, number, string, []any or map[string]any. The codec stringifies
// scalars for shell placeholder substitution and converts whole trees to and
// from JSON for the wasm ABI.
package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMarshal is returned when a value cannot be serialized to JSON, when a
// JSON document cannot be parsed, or when a byte payload is not valid UTF-8.
var ErrMarshal = errors.New("value marshal failed")

// Value is the template engine's dynamic value type.
type Value = any

// Stringify renders a value as the canonical placeholder text: nil becomes
// "null", booleans "true"/"false", numbers their decimal text, strings pass
// through unquoted, and arrays and objects become their JSON encoding.
func Stringify(v Value) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(t), nil
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case json.Number:
		return t.String(), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("%w: stringify %T: %v", ErrMarshal, v, err)
		}
		return string(b), nil
	}
}

// ToJSON encodes a value tree as JSON.
func ToJSON(v Value) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %T: %v", ErrMarshal, v, err)
	}
	return b, nil
}

// FromJSON decodes a JSON document into a value tree.
func FromJSON(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrMarshal, err)
	}
	return v, nil
}
