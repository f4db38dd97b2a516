// Package manifest loads the plugin manifest: the YAML document declaring
// the user's template extensions. The manifest file is itself a template and
// is rendered with the current context before parsing.
package manifest

// Param declares one named parameter of an extension. A nil Default means
// the caller must provide the argument on the shell path; the wasm path
// forwards only caller-provided arguments and leaves defaulting to the
// guest.
type Param struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Default     *string `yaml:"default,omitempty" json:"default,omitempty"`
}

// WasmRef binds an extension to an exported function of a wasm module on
// disk.
type WasmRef struct {
	Path   string `yaml:"path" json:"path"`
	Import string `yaml:"import" json:"import"`
}

// Decl declares one user extension. Exactly one of Wasm or Script must be
// set; the dispatcher rejects anything else.
type Decl struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Params      []Param           `yaml:"params,omitempty" json:"params,omitempty"`
	Env         map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Wasm        *WasmRef          `yaml:"wasm,omitempty" json:"wasm,omitempty"`
	Script      *string           `yaml:"script,omitempty" json:"script,omitempty"`
}

// Manifest is the parsed plugin document. Declaration order is preserved
// and is the registration order.
type Manifest struct {
	// Requires optionally constrains the host version (semver range).
	Requires  string `yaml:"requires,omitempty" json:"requires,omitempty"`
	Functions []Decl `yaml:"functions,omitempty" json:"functions,omitempty"`
	Filters   []Decl `yaml:"filters,omitempty" json:"filters,omitempty"`
}
