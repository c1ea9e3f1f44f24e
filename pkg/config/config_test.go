package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesHardcodedVMCapacities(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1024, cfg.ObjectStackCapacity)
	assert.Equal(t, 1024, cfg.ConstantStackCapacity)
	assert.Equal(t, 256, cfg.HeapCapacity)
	assert.False(t, cfg.Verbose)
	assert.True(t, cfg.Color)
}

func TestLoadPartialFileOnlyOverridesSetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lumi.toml")
	require.NoError(t, os.WriteFile(path, []byte("verbose = true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	// Untouched fields keep their Default() values.
	assert.Equal(t, 1024, cfg.ObjectStackCapacity)
	assert.True(t, cfg.Color)
}

func TestLoadFullFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lumi.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
object_stack_capacity = 2048
constant_stack_capacity = 512
heap_capacity = 64
verbose = true
color = false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2048, cfg.ObjectStackCapacity)
	assert.Equal(t, 512, cfg.ConstantStackCapacity)
	assert.Equal(t, 64, cfg.HeapCapacity)
	assert.True(t, cfg.Verbose)
	assert.False(t, cfg.Color)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
