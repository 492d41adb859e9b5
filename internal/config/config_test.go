package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOCXEDIT_CONFIG", "")
	t.Setenv("WORKER_COUNT", "-3")
	t.Setenv("JOB_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected worker count 4, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected job ttl 1h, got %s", cfg.JobTTL)
	}
	if cfg.MaxElementsPerPage != 40 || cfg.PageHeightPx != 1123 {
		t.Errorf("unexpected render defaults %d/%d", cfg.MaxElementsPerPage, cfg.PageHeightPx)
	}
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docxedit.yaml")
	data := "port: \"9000\"\nstore_dir: /srv/docs\njob_ttl: 30m\nsanitize_markup: false\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCXEDIT_CONFIG", path)
	t.Setenv("DOCXEDIT_API_KEY", "secret")
	t.Setenv("MAX_QUEUE_SIZE", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || cfg.StoreDir != "/srv/docs" {
		t.Errorf("expected file values, got port %q dir %q", cfg.Port, cfg.StoreDir)
	}
	if cfg.JobTTL != 30*time.Minute {
		t.Errorf("expected job ttl 30m, got %s", cfg.JobTTL)
	}
	if cfg.SanitizeMarkup {
		t.Error("expected sanitize_markup false from file")
	}
	if cfg.MaxQueueSize != 7 || cfg.APIKey != "secret" {
		t.Errorf("expected env values to survive, got %d %q", cfg.MaxQueueSize, cfg.APIKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(Config{}, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("worker_count: [1, 2"), 0o644)
	base := Config{Port: "1"}
	cfg, err := LoadFile(base, path)
	if err == nil {
		t.Error("expected error for malformed yaml")
	}
	if cfg.Port != "1" {
		t.Errorf("expected base config back on error, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{StoreDir: "x"}).Validate(); err == nil {
		t.Error("expected missing api key to fail")
	}
	if err := (Config{APIKey: "k"}).Validate(); err == nil {
		t.Error("expected missing store dir to fail")
	}
}
