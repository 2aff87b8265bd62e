package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.Sqlite.Dsn != "netmock.sqlite3" || cfg.Sqlite.Prefix != "netmock_" {
		t.Errorf("sqlite defaults = %+v", cfg.Sqlite)
	}
	if cfg.Log.Level != "info" || len(cfg.Log.Writer) != 1 || cfg.Log.Writer[0] != "console" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("level = %q", cfg.Log.Level)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netmock.yaml")
	data := []byte("log:\n  level: debug\n  writer: [console, file]\nsqlite:\n  dsn: custom.db\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" || len(cfg.Log.Writer) != 2 {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.Sqlite.Dsn != "custom.db" {
		t.Errorf("dsn = %q", cfg.Sqlite.Dsn)
	}
	if cfg.Sqlite.Prefix != "netmock_" {
		t.Errorf("prefix should keep default, got %q", cfg.Sqlite.Prefix)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("log: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
