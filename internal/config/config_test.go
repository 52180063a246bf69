package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesDesignNotesResolution(t *testing.T) {
	cfg := Default()
	require.True(t, cfg.MemFlag, "heap cells default to object cells")
	require.Equal(t, "blake2b-256", cfg.ObjectCacheHash)
	require.Equal(t, "stderr", cfg.TraceSink)
	require.Empty(t, cfg.SymbolOverrides)
}

func TestParsePartialFileOverridesOnlySetFields(t *testing.T) {
	cfg, err := Parse([]byte("mem_flag: false\n"))
	require.NoError(t, err)
	require.False(t, cfg.MemFlag)
	require.Equal(t, "blake2b-256", cfg.ObjectCacheHash)
}

func TestParseSymbolOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
symbol_overrides:
  memset: my_memset
  strncpy: my_strncpy
`))
	require.NoError(t, err)
	require.Equal(t, "my_memset", cfg.SymbolOverrides["memset"])
	require.Equal(t, "my_strncpy", cfg.SymbolOverrides["strncpy"])
}

func TestParseRejectsUnknownHash(t *testing.T) {
	_, err := Parse([]byte("object_cache_hash: md5\n"))
	require.Error(t, err)
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("not_a_real_field: 1\n"))
	require.Error(t, err)
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load("/nonexistent/fslice.yaml")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
