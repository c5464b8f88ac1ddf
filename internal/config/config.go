package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BaseURL        string `yaml:"base_url"`
	ReplyTimeout   int    `yaml:"reply_timeout_seconds"`
	TitleLimit     int    `yaml:"title_limit"`
	StorageBackend string `yaml:"storage_backend"` // file|sqlite|memory
	StorageRoot    string `yaml:"storage_root"`
	QuotaBytes     int    `yaml:"quota_bytes"`
	Theme          string `yaml:"theme"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://emoticai-backend.onrender.com/",
		ReplyTimeout:   30,
		TitleLimit:     20,
		StorageBackend: "file",
		QuotaBytes:     5 << 20,
		Theme:          "porcelain",
	}
}

func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://emoticai-backend.onrender.com/"
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = 30
	}
	if cfg.TitleLimit <= 0 {
		cfg.TitleLimit = 20
	}
	if cfg.StorageBackend == "" {
		cfg.StorageBackend = "file"
	}
	if cfg.QuotaBytes <= 0 {
		cfg.QuotaBytes = 5 << 20
	}
	return cfg, nil
}

func SaveConfig(cfg Config, path string) error {
	if path == "" {
		return errors.New("no path provided for config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "emotic", "config.yml")
}
