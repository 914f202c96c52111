package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsNearestFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	data := []byte("gc:\n  stress: true\n  initial_threshold_bytes: 2048\ntrace_execution: true\nrepl_color: always\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "pebble.yaml"), data, 0o644))

	cfg, err := Load(nested)
	require.NoError(t, err)
	assert.True(t, cfg.GC.Stress)
	assert.Equal(t, int64(2048), cfg.GC.InitialThresholdBytes)
	assert.True(t, cfg.TraceExecution)
	assert.Equal(t, "always", cfg.REPLColor)
}

func TestParse_RejectsInvalidREPLColor(t *testing.T) {
	_, err := Parse([]byte("repl_color: loud\n"), "pebble.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repl_color must be one of")
}

func TestParse_RejectsNegativeThreshold(t *testing.T) {
	_, err := Parse([]byte("gc:\n  initial_threshold_bytes: -1\n"), "pebble.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestParse_DefaultsMissingReplColor(t *testing.T) {
	cfg, err := Parse([]byte("trace_execution: true\n"), "pebble.yaml")
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.REPLColor)
}

func TestParse_MalformedYAMLIsAnError(t *testing.T) {
	_, err := Parse([]byte("not: [valid\n"), "pebble.yaml")
	require.Error(t, err)
}
