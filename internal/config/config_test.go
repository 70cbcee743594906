package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Store.Endpoint = "s3.example.com"
	cfg.Store.EPOBucket = "epo-archives"
	ApplyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 500, cfg.Pipeline.BatchSize)
	assert.Equal(t, 100, cfg.Pipeline.ProgressInterval)
	assert.Equal(t, 1024, cfg.Embedding.Dim)
	assert.Equal(t, 2000, cfg.Embedding.ChunkTokens)
	assert.Equal(t, 200, cfg.Embedding.OverlapTokens)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, DefaultDownloadTimeout, cfg.Browser.DownloadTimeout)
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Endpoint = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingBuckets(t *testing.T) {
	cfg := validConfig()
	cfg.Store.EPOBucket = ""
	cfg.Store.USPTOBucket = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsOverlapGEChunk(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Enabled = true
	cfg.Embedding.ChunkTokens = 100
	cfg.Embedding.OverlapTokens = 100
	assert.Error(t, cfg.Validate())
}

func TestLoadReadsYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
store:
  endpoint: s3.example.com
  epo_bucket: epo.inventohub
pipeline:
  workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("PATENTETL_DATABASE_HOST", "db.internal")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "epo.inventohub", cfg.Store.EPOBucket)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	// Defaults fill the rest.
	assert.Equal(t, 500, cfg.Pipeline.BatchSize)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
