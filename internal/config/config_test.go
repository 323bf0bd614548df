package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
index:
  dimensions: 128
  projections: 20
  search_size: 15
  distance: cosine
  seed: 11
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	want := IndexConfig{Type: "projection", Dimensions: 128, Distance: "cosine", Projections: 20, SearchSize: 15, Seed: 11}
	if cfg.Index != want {
		t.Errorf("index config = %+v, want %+v", cfg.Index, want)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/vectors.db"
ingest:
  directories: ["./dev/incoming"]
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantDB := filepath.Join(dir, "data", "vectors.db")
	if cfg.Storage.DatabasePath != wantDB {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, wantDB)
	}
	if len(cfg.Ingest.Directories) != 1 {
		t.Fatalf("ingest directories: got %d", len(cfg.Ingest.Directories))
	}
	wantIngest := filepath.Join(dir, "dev", "incoming")
	if cfg.Ingest.Directories[0] != wantIngest {
		t.Errorf("ingest directory = %s, want %s", cfg.Ingest.Directories[0], wantIngest)
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_invalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("index: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("default backend: got %s", cfg.Storage.Backend)
	}
	if cfg.Index.Type != "projection" || cfg.Index.Distance != "euclidean" {
		t.Errorf("default index: got %+v", cfg.Index)
	}
	if cfg.Index.Projections != 8 || cfg.Index.SearchSize != 10 || cfg.Index.Dimensions != 3 {
		t.Errorf("default index parameters: got %+v", cfg.Index)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.MaxLimit != 1000 {
		t.Errorf("default limits: got %+v", cfg.Search)
	}
	if len(cfg.Ingest.Extensions) != 2 || cfg.Ingest.Extensions[0] != ".jsonl" {
		t.Errorf("ingest extensions: got %v", cfg.Ingest.Extensions)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"projections 99", func(c *Config) { c.Index.Projections = 99 }, false},
		{"projections 100", func(c *Config) { c.Index.Projections = 100 }, true},
		{"negative projections", func(c *Config) { c.Index.Projections = -1 }, true},
		{"negative dimensions", func(c *Config) { c.Index.Dimensions = -4 }, true},
		{"negative search size", func(c *Config) { c.Index.SearchSize = -1 }, true},
		{"default above max", func(c *Config) { c.Search.DefaultLimit = 5000 }, true},
		{"badger backend", func(c *Config) { c.Storage.Backend = "badger" }, false},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "leveldb" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			ApplyDefaults(cfg)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/vectors.db"},
		Index:   IndexConfig{Projections: 30},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Index.Projections != 30 {
		t.Errorf("loaded projections: got %d", loaded.Index.Projections)
	}
}
