package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLocalConfig(t *testing.T) {
	dir := t.TempDir()
	raw := "db-path: /data/quadra.db\nlisten-addr: \":9999\"\ncron-secret: hunter2\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(raw), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := LoadLocalConfig(dir)
	if cfg.DBPath != "/data/quadra.db" {
		t.Errorf("expected db-path /data/quadra.db, got %q", cfg.DBPath)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("expected listen-addr :9999, got %q", cfg.ListenAddr)
	}
	if cfg.CronSecret != "hunter2" {
		t.Errorf("expected cron-secret hunter2, got %q", cfg.CronSecret)
	}
}

func TestLoadLocalConfigMissingFile(t *testing.T) {
	cfg := LoadLocalConfig(t.TempDir())
	if cfg == nil {
		t.Fatal("expected empty config, got nil")
	}
	if cfg.DBPath != "" || cfg.ListenAddr != "" || cfg.CronSecret != "" {
		t.Errorf("expected zero-value config, got %+v", cfg)
	}
}

func TestLoadLocalConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	cfg := LoadLocalConfig(dir)
	if cfg == nil || cfg.DBPath != "" {
		t.Errorf("expected empty config for malformed yaml, got %+v", cfg)
	}
}
