package host

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/fantajeon/J2Composer/manifest"
	"github.com/fantajeon/J2Composer/value"
)

// returnValuesSize is the byte size of the guest's return descriptor: two
// little-endian u32 fields {ptr, len}, no padding.
const returnValuesSize = 8

// inputFrame is the single JSON document a call transfers host to guest.
// Params holds [value, args] for a filter and [args] for a function.
type inputFrame struct {
	Params []value.Value `json:"params"`
}

// guestOutput is the single JSON document transferred guest to host.
type guestOutput struct {
	Result    value.Value `json:"result"`
	Exception string      `json:"exception,omitempty"`
}

// frameInput serializes the call frame. Caller args are intersected with
// the declared params first; defaults are not applied on this path, the
// guest does its own defaulting.
func frameInput(params []manifest.Param, args map[string]value.Value, input value.Value, hasInput bool) ([]byte, error) {
	frame := inputFrame{Params: make([]value.Value, 0, 2)}
	if hasInput {
		frame.Params = append(frame.Params, input)
	}
	frame.Params = append(frame.Params, filterArgs(params, args))

	b, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("%w: encode input frame: %v", value.ErrMarshal, err)
	}
	return b, nil
}

// filterArgs keeps only caller args whose names are declared. Undeclared
// args are dropped silently; declared params without a matching arg are
// simply absent.
func filterArgs(params []manifest.Param, args map[string]value.Value) map[string]value.Value {
	filtered := make(map[string]value.Value, len(params))
	for _, p := range params {
		if v, ok := args[p.Name]; ok {
			filtered[p.Name] = v
		}
	}
	return filtered
}

// decodeReturn splits the 8-byte return descriptor into the payload pointer
// and length.
func decodeReturn(descriptor []byte) (ptr, length uint32) {
	return binary.LittleEndian.Uint32(descriptor[0:4]),
		binary.LittleEndian.Uint32(descriptor[4:8])
}

// decodeOutput parses the guest's JSON payload into a result value, or a
// GuestError when the payload carries a non-empty exception.
func decodeOutput(extension string, payload []byte) (value.Value, error) {
	if !utf8.Valid(payload) {
		return nil, fmt.Errorf("%w: guest output is not valid UTF-8", value.ErrMarshal)
	}
	var out guestOutput
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("%w: decode guest output: %v", value.ErrMarshal, err)
	}
	if out.Exception != "" {
		return nil, &GuestError{Extension: extension, Reason: out.Exception}
	}
	return out.Result, nil
}
