package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPipelineConfigDefaults(t *testing.T) {
	cfg, err := LoadPipelineConfig("")
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.DPI)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 1, cfg.PageConcurrency)
	assert.Equal(t, 0, cfg.QueueCapacity)
	assert.Equal(t, 2*time.Minute, cfg.AttemptTimeoutDuration())
}

func TestLoadPipelineConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dpi: 150
max_retries: 5
attempt_timeout_seconds: 30
queue_capacity: 10
`), 0644))

	cfg, err := LoadPipelineConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 150, cfg.DPI)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 10, cfg.QueueCapacity)
	assert.Equal(t, 30*time.Second, cfg.AttemptTimeoutDuration())
	// Unset fields keep their defaults.
	assert.Equal(t, "media/uploads", cfg.UploadDir)
}

func TestLoadPipelineConfigErrors(t *testing.T) {
	_, err := LoadPipelineConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dpi: [not a number"), 0644))
	_, err = LoadPipelineConfig(path)
	assert.Error(t, err)
}
