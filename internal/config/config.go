// Package config loads and validates the YAML configuration file that
// controls the rewriter's and runtime's open-ended knobs: the object
// cache hash choice, the default is_obj flag for freshly allocated heap
// cells, where the runtime's trace emitter writes, and overrides to the
// known-symbol interception table.
//
// Of these, cmd/fslice applies only SymbolOverrides. The runtime built by
// cmd/fslice-runtime does not read this file: it takes its is_obj default
// and trace destination from the FSLICE_MEM_FLAG and FSLICE_TRACE_FD
// environment variables.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	yaml "go.yaml.in/yaml/v3"
)

// Config is the root of fslice.yaml.
type Config struct {
	// MemFlag is the default is_obj value fslice_malloc/fslice_calloc
	// seed newly allocated shadow cells with. Defaults to true.
	MemFlag bool `yaml:"mem_flag"`

	// ObjectCacheHash names the hash algorithm the object cache uses to
	// key (id,offset) sequences. Only "blake2b-256" is implemented; the
	// field exists so a future conforming implementation can swap it
	// without an API break.
	ObjectCacheHash string `yaml:"object_cache_hash"`

	// TraceSink is a file path the runtime's Emitter writes trace lines
	// to, or "stderr" (the default) to use the process's standard error.
	TraceSink string `yaml:"trace_sink"`

	// SymbolOverrides adds to or replaces entries in rewrite.KnownSymbols.
	SymbolOverrides map[string]string `yaml:"symbol_overrides"`
}

// Default returns the configuration a fresh install runs with absent a
// config file: MemFlag true (heap cells behave as object cells, per
// DESIGN NOTES), blake2b-256 object-cache hashing, stderr tracing, no
// symbol overrides.
func Default() *Config {
	return &Config{
		MemFlag:         true,
		ObjectCacheHash: "blake2b-256",
		TraceSink:       "stderr",
	}
}

// Load reads and validates a YAML config file at path. A missing file is
// not an error: it returns Default(). A present-but-invalid file is.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw YAML bytes against Schema and decodes them into a
// Config seeded from Default(), so a partial file only overrides the
// fields it sets.
func Parse(data []byte) (*Config, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// TraceWriter opens c.TraceSink for appending, or returns os.Stderr for
// the sentinel value "stderr". The caller owns closing the returned
// writer when it is a real file.
func (c *Config) TraceWriter() (io.WriteCloser, error) {
	if c.TraceSink == "" || c.TraceSink == "stderr" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.OpenFile(c.TraceSink, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("config: open trace sink %s: %w", c.TraceSink, err)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Validate checks raw YAML bytes against Schema, going through JSON
// because jsonschema validates decoded `any` document trees, not YAML
// text directly — go.yaml.in/yaml/v3 decodes into the same map[string]any
// shape encoding/json would produce from the equivalent JSON document, so
// no separate YAML-to-JSON conversion pass is needed.
func Validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}
	doc = normalizeMapKeys(doc)

	sch, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("config: compile schema: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("config: schema validation: %w", err)
	}
	return nil
}

// normalizeMapKeys converts the map[any]any nodes yaml.v3 produces for
// mapping types into map[string]any, which is what jsonschema's validator
// expects (the same shape encoding/json's Unmarshal-into-any produces).
func normalizeMapKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeMapKeys(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeMapKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeMapKeys(val)
		}
		return out
	default:
		return v
	}
}

func compiledSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("fslice-config.json", bytes.NewReader([]byte(Schema))); err != nil {
		return nil, err
	}
	return c.Compile("fslice-config.json")
}
