package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`
sources:
  - contracts/Token.ts
outDir: out
emit:
  bytecode: true
optimizer:
  runs: 1000
  details:
    inliner: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"contracts/Token.ts"}, cfg.Sources)
	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, "solc", cfg.Solc)
	assert.True(t, cfg.Emit.ABI)
	assert.True(t, cfg.Emit.Bytecode)
	assert.True(t, cfg.Optimizer.Enabled)
	assert.Equal(t, 1000, cfg.Optimizer.Runs)
	assert.False(t, cfg.Optimizer.Details.Inliner)
	assert.True(t, cfg.Optimizer.Details.Peephole)
}

func TestParseRejectsBadValues(t *testing.T) {
	assert.Error(t, Parse([]byte("optimizer:\n  runs: -1\n"), Default()))
	assert.Error(t, Parse([]byte("outDir: ''\n"), Default()))
	assert.Error(t, Parse([]byte("sources: [unclosed"), Default()))
}
