package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Document store
	StoreDir string `yaml:"store_dir"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// Rendering
	MaxElementsPerPage int `yaml:"max_elements_per_page"`
	PageHeightPx       int `yaml:"page_height_px"`
	OverflowMarginPx   int `yaml:"overflow_margin_px"`

	// Markup import
	SanitizeMarkup bool `yaml:"sanitize_markup"`
}

// Load reads the environment and, when DOCXEDIT_CONFIG names a file,
// overlays it. Values set in the file win over the environment.
func Load() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCXEDIT_API_KEY"),

		StoreDir: envOr("STORE_DIR", "data/documents"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		MaxElementsPerPage: envInt("MAX_ELEMENTS_PER_PAGE", 40),
		PageHeightPx:       envInt("PAGE_HEIGHT_PX", 1123),
		OverflowMarginPx:   envInt("OVERFLOW_MARGIN_PX", 100),

		SanitizeMarkup: envBool("SANITIZE_MARKUP", true),
	}

	if path := os.Getenv("DOCXEDIT_CONFIG"); path != "" {
		var err error
		if cfg, err = LoadFile(cfg, path); err != nil {
			return cfg, err
		}
	}

	cfg.normalize()
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto base. Keys absent from the
// file keep their base value.
func LoadFile(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 100
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 52428800
	}
	if c.JobTTL <= 0 {
		c.JobTTL = 1 * time.Hour
	}
	if c.MaxElementsPerPage <= 0 {
		c.MaxElementsPerPage = 40
	}
	if c.PageHeightPx <= 0 {
		c.PageHeightPx = 1123
	}
	if c.OverflowMarginPx < 0 {
		c.OverflowMarginPx = 0
	}
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DOCXEDIT_API_KEY is required")
	}
	if c.StoreDir == "" {
		return fmt.Errorf("STORE_DIR is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
