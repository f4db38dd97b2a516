// Command j2composer composes files from Jinja2 templates, YAML variables
// and a plugin manifest of shell- and wasm-backed extensions.
package main

import (
	"fmt"
	"os"
	"runtime/debug"
)

func main() {
	// Panics become a structured report, not a bare stack dump mid-render.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintln(os.Stderr, "------------------ PANIC -------------------")
			fmt.Fprintln(os.Stderr, r)
			fmt.Fprintln(os.Stderr, string(debug.Stack()))
			os.Exit(2)
		}
	}()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
