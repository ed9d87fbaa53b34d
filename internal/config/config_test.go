package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formulate/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &config.Config{
		Server:  config.ServerConfig{Addr: ":8080", ReadHeaderTimeout: 5 * time.Second, MaxUploadBytes: 8 << 20},
		Log:     config.LogConfig{Level: "info", Format: "text"},
		Storage: config.StorageConfig{Type: "memory", Mongo: config.MongoConfig{URI: "mongodb://localhost:27017", Database: "formulate", Collection: "submissions"}},
		Forms:   config.FormsConfig{Dir: "forms"},
		Locales: config.LocalesConfig{Default: "en"},
		Submit:  config.SubmitConfig{Timeout: 30 * time.Second},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formulate.yaml")
	content := []byte(`
server:
  addr: ":9090"
log:
  level: debug
  format: json
storage:
  type: mongo
  mongo:
    database: forms
submit:
  timeout: 5s
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FORMULATE_SERVER_ADDR", ":7070")
	t.Setenv("FORMULATE_STORAGE_MONGO_COLLECTION", "entries")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Fatalf("env should override file, got %q", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	wantMongo := config.MongoConfig{URI: "mongodb://localhost:27017", Database: "forms", Collection: "entries"}
	if diff := cmp.Diff(wantMongo, cfg.Storage.Mongo); diff != "" {
		t.Fatalf("mongo mismatch (-want +got):\n%s", diff)
	}
	if cfg.Submit.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.Submit.Timeout)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("FORMULATE_STORAGE_TYPE", "redis")
	if _, err := config.Load(""); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
