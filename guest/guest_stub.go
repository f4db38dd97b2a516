//go:build !wasip1

package guest

import "errors"

var errNotWasm = errors.New("guest: only available when compiled for wasip1")

// Log is a no-op outside wasip1.
func Log(string) {}

// ReadInput fails outside wasip1.
func ReadInput(uint32, uint32) (*Input, error) {
	return nil, errNotWasm
}

// Return is unavailable outside wasip1.
func Return(any) uint32 { return 0 }

// Fail is unavailable outside wasip1.
func Fail(string) uint32 { return 0 }

// Free is a no-op outside wasip1.
func Free(uint32) {}
