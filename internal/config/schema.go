package config

// Schema is the JSON Schema fslice.yaml is validated against before being
// decoded. Kept as a Go string rather than an embedded file: the schema
// is small and changes in lockstep with the Config struct above.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "fslice configuration",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "mem_flag": {
      "type": "boolean",
      "description": "default is_obj value for newly allocated shadow cells"
    },
    "object_cache_hash": {
      "type": "string",
      "enum": ["blake2b-256"]
    },
    "trace_sink": {
      "type": "string",
      "minLength": 1
    },
    "symbol_overrides": {
      "type": "object",
      "additionalProperties": {
        "type": "string",
        "minLength": 1
      }
    }
  }
}`
