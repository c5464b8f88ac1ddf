package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := DefaultConfig()
	if cfg != want {
		t.Fatalf("cfg = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadConfigOverridesAndBackfills(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte("base_url: mock://replies\ntitle_limit: 10\nreply_timeout_seconds: 0\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BaseURL != "mock://replies" {
		t.Fatalf("base_url = %q", cfg.BaseURL)
	}
	if cfg.TitleLimit != 10 {
		t.Fatalf("title_limit = %d", cfg.TitleLimit)
	}
	// Zero values are backfilled with defaults.
	if cfg.ReplyTimeout != 30 {
		t.Fatalf("reply_timeout = %d", cfg.ReplyTimeout)
	}
	if cfg.StorageBackend != "file" {
		t.Fatalf("storage_backend = %q", cfg.StorageBackend)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	cfg := DefaultConfig()
	cfg.Theme = "midnight"
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Fatalf("round-trip mismatch: %+v != %+v", loaded, cfg)
	}
}

func TestSaveConfigRequiresPath(t *testing.T) {
	if err := SaveConfig(DefaultConfig(), ""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
