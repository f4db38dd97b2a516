// Package guest provides helpers for writing J2Composer wasm extensions in
// Go. A plugin decodes the host's call frame with ReadInput, does its work,
// and hands back Return or Fail from its exported entry point. The module
// must also export guest_free wired to Free so the host can release the
// returned descriptor:
//
//	//go:wasmexport combine
//	func combine(ptr, length uint32) uint32 {
//		in, err := guest.ReadInput(ptr, length)
//		if err != nil {
//			return guest.Fail(err.Error())
//		}
//		...
//		return guest.Return(result)
//	}
//
//	//go:wasmexport guest_free
//	func guestFree(ptr uint32) { guest.Free(ptr) }
package guest

import "encoding/json"

// Input is the host's call frame. Params holds [value, args] for a filter
// and [args] for a function; args carries only caller-provided declared
// arguments, so defaulting is the plugin's job.
type Input struct {
	Params []json.RawMessage `json:"params"`
}

// Value decodes frame position i into out.
func (in *Input) Value(i int, out any) error {
	return json.Unmarshal(in.Params[i], out)
}

// output is the single document returned to the host.
type output struct {
	Result    any    `json:"result"`
	Exception string `json:"exception,omitempty"`
}
