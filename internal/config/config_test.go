package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("COMPEND_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "te38", cfg.Digest.Rig)
	assert.Equal(t, "tsv", cfg.Digest.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("COMPEND_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("COMPEND_LOGGING_LEVEL", "debug")
	t.Setenv("COMPEND_DIGEST_FORMAT", "xlsx")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "xlsx", cfg.Digest.Format)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "compend.yaml")
	content := `logging:
  level: warn
  output: both
digest:
  rig: te77
  length_factor: 0.2
paths:
  data_dir: /data/tests
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	t.Setenv("COMPEND_CONFIG_FILE", configFile)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "te77", cfg.Digest.Rig)
	assert.Equal(t, 0.2, cfg.Digest.LengthFactor)
	assert.Equal(t, "/data/tests", cfg.Paths.DataDir)
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "compend.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("logging:\n  level: warn\n"), 0644))
	t.Setenv("COMPEND_CONFIG_FILE", configFile)
	t.Setenv("COMPEND_LOGGING_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("COMPEND_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("COMPEND_DIGEST_FORMAT", "parquet")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetPaths(t *testing.T) {
	p, err := GetPaths(PathsConfig{DataDir: "/abs/in", OutputDir: "out"})
	require.NoError(t, err)

	assert.Equal(t, "/abs/in", p.DataDir)
	assert.Equal(t, filepath.Join(p.BaseDir, "out"), p.OutputDir)
	assert.Equal(t, filepath.Join(p.BaseDir, "rigs"), p.SchemasDir)

	assert.Equal(t, "/abs/in/run1.TSV", p.GetDataPath("run1.TSV"))
	assert.Equal(t, "/elsewhere/x.TSV", p.GetDataPath("/elsewhere/x.TSV"))
	assert.Equal(t, filepath.Join(p.OutputDir, "run1_digest.TSV"), p.GetOutputPath("run1_digest.TSV"))
}

func TestPaths_EnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	p := &Paths{
		OutputDir: filepath.Join(dir, "out"),
		LogsDir:   filepath.Join(dir, "logs"),
	}

	require.NoError(t, p.EnsureDirectories())
	assert.DirExists(t, p.OutputDir)
	assert.DirExists(t, p.LogsDir)
}
