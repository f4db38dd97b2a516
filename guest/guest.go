//go:build wasip1

package guest

import (
	"encoding/binary"
	"encoding/json"
	"unsafe"
)

//go:wasmimport env print_log_from_wasm
func printLogFromWasm(ptr, length uint32)

// pinned keeps returned buffers referenced so the GC cannot collect them
// before the host calls guest_free. The key is the descriptor address.
var pinned = map[uint32][][]byte{}

// Log routes a message to the host's log sink.
func Log(message string) {
	if message == "" {
		return
	}
	b := []byte(message)
	printLogFromWasm(addr(b), uint32(len(b)))
}

// ReadInput decodes the host's call frame at (ptr, length).
func ReadInput(ptr, length uint32) (*Input, error) {
	src := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
	buf := make([]byte, length)
	copy(buf, src)

	var in Input
	if err := json.Unmarshal(buf, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Return encodes a successful result and yields the descriptor pointer the
// entry point returns to the host.
func Return(result any) uint32 {
	return write(output{Result: result})
}

// Fail encodes an exception the host surfaces as a GuestError.
func Fail(reason string) uint32 {
	return write(output{Exception: reason})
}

// Free releases a descriptor and its payload. Wire this to the guest_free
// export.
func Free(ptr uint32) {
	delete(pinned, ptr)
}

func write(out output) uint32 {
	payload, err := json.Marshal(out)
	if err != nil {
		payload = []byte(`{"result":null,"exception":"guest: failed to encode output"}`)
	}

	descriptor := make([]byte, 8)
	binary.LittleEndian.PutUint32(descriptor[0:4], addr(payload))
	binary.LittleEndian.PutUint32(descriptor[4:8], uint32(len(payload)))

	ptr := addr(descriptor)
	pinned[ptr] = [][]byte{descriptor, payload}
	return ptr
}

func addr(b []byte) uint32 {
	return uint32(uintptr(unsafe.Pointer(&b[0])))
}
