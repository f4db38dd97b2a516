package manifest

import "github.com/santhosh-tekuri/jsonschema/v5"

// schemaJSON is the structural contract every rendered manifest must meet
// before it is decoded. Backend exclusivity (wasm XOR script) is enforced by
// the dispatcher, not here, so that the error can carry the extension name.
const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "requires": { "type": "string" },
    "functions": { "$ref": "#/$defs/decls" },
    "filters": { "$ref": "#/$defs/decls" }
  },
  "$defs": {
    "decls": {
      "type": "array",
      "items": { "$ref": "#/$defs/decl" }
    },
    "decl": {
      "type": "object",
      "additionalProperties": false,
      "required": ["name"],
      "properties": {
        "name": { "type": "string", "minLength": 1 },
        "description": { "type": "string" },
        "params": {
          "type": "array",
          "items": { "$ref": "#/$defs/param" }
        },
        "env": {
          "type": "object",
          "additionalProperties": { "type": "string" }
        },
        "wasm": {
          "type": "object",
          "additionalProperties": false,
          "required": ["path", "import"],
          "properties": {
            "path": { "type": "string", "minLength": 1 },
            "import": { "type": "string", "minLength": 1 }
          }
        },
        "script": { "type": "string" }
      }
    },
    "param": {
      "type": "object",
      "additionalProperties": false,
      "required": ["name"],
      "properties": {
        "name": { "type": "string", "minLength": 1 },
        "description": { "type": "string" },
        "default": { "type": "string" }
      }
    }
  }
}`

var manifestSchema = jsonschema.MustCompileString("manifest.schema.json", schemaJSON)
