package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PipelineConfig tunes the ingestion pipeline. Values map directly onto
// the queue, splitter, parser and processor knobs.
type PipelineConfig struct {
	UploadDir       string `yaml:"upload_dir"`
	PagesDir        string `yaml:"pages_dir"`
	DPI             int    `yaml:"dpi"`
	MaxRetries      int    `yaml:"max_retries"`
	AttemptTimeout  int    `yaml:"attempt_timeout_seconds"`
	PageConcurrency int    `yaml:"page_concurrency"`
	QueueCapacity   int    `yaml:"queue_capacity"` // 0 = unbounded
	MaxFileSizeMB   int    `yaml:"max_file_size_mb"`
}

func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		UploadDir:       "media/uploads",
		PagesDir:        "media/pages",
		DPI:             200,
		MaxRetries:      3,
		AttemptTimeout:  120,
		PageConcurrency: 1,
		QueueCapacity:   0,
		MaxFileSizeMB:   50,
	}
}

// LoadPipelineConfig reads a YAML tuning file, filling unset fields with
// defaults. An empty path returns the defaults unchanged.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cfg := DefaultPipelineConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config: %w", err)
	}

	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if cfg.PageConcurrency <= 0 {
		cfg.PageConcurrency = 1
	}
	return cfg, nil
}

// AttemptTimeoutDuration returns the per-attempt model timeout.
func (c *PipelineConfig) AttemptTimeoutDuration() time.Duration {
	if c.AttemptTimeout <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(c.AttemptTimeout) * time.Second
}
