package host

import (
	"errors"
	"fmt"
)

// Sentinel errors for the wasm backend.
var (
	// ErrWasmLoad is returned when the module cannot be read, validated,
	// instantiated, or is missing a required export.
	ErrWasmLoad = errors.New("wasm module load failed")

	// ErrWasmTrap is returned when the guest traps or hands back an
	// invalid pointer or length.
	ErrWasmTrap = errors.New("wasm guest trapped")

	// ErrGuest is returned when the guest's output carried a non-empty
	// exception.
	ErrGuest = errors.New("wasm guest reported an exception")
)

// GuestError carries the exception string a guest returned.
type GuestError struct {
	Extension string
	Reason    string
}

func (e *GuestError) Error() string {
	return fmt.Sprintf("extension %q: guest exception: %s", e.Extension, e.Reason)
}

// Is implements error matching for errors.Is() checks.
func (e *GuestError) Is(target error) bool {
	return target == ErrGuest
}
