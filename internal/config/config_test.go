package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Stats.Confidence != nil || cfg.Import.Dir != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[stats]
confidence = 0.99
format = "Omaha"

[sessions]
page-size = 25

[import]
dir = "/tmp/exports"
year = 2023
notify = true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Stats.Confidence == nil || *cfg.Stats.Confidence != 0.99 {
		t.Fatalf("unexpected confidence: %v", cfg.Stats.Confidence)
	}
	if cfg.Stats.Format == nil || *cfg.Stats.Format != "Omaha" {
		t.Fatalf("unexpected format: %v", cfg.Stats.Format)
	}
	if cfg.Sessions.PageSize == nil || *cfg.Sessions.PageSize != 25 {
		t.Fatalf("unexpected page size: %v", cfg.Sessions.PageSize)
	}
	if cfg.Import.Year == nil || *cfg.Import.Year != 2023 || cfg.Import.Notify == nil || !*cfg.Import.Notify {
		t.Fatalf("unexpected import config: %+v", cfg.Import)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[stats]\nconfidnce = 0.9\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "confidnce") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_CONFIG_HOME", "/conf")
	if got := DefaultDBPath(); got != filepath.Join("/data", "potlog", "potlog.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultImportDir(); got != filepath.Join("/data", "potlog", "imports") {
		t.Fatalf("unexpected import dir %q", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join("/conf", "potlog", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
}
