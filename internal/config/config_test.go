package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:    "/home/user/.local/share/ua",
		LogDir:     "/home/user/.local/share/ua/log",
		Repository: RepositoryConfig{Type: "sqlite", DataDir: "/home/user/.local/share/ua/db"},
		Store: StoreConfig{
			Type:        "s3",
			S3Bucket:    "unreal-archive",
			S3Prefix:    "content/",
			S3Region:    "us-east-1",
			S3PublicURL: "https://files.example.org",
		},
		Index: IndexConfig{
			Concurrency:    4,
			ExtractTimeout: "90s",
			MaxDepth:       2,
			StockPackages:  []string{"Engine", "Core"},
		},
		Authors: AuthorsConfig{
			Aliases: map[string][]string{"Cliffy B": {"CliffyB", "Cliff Bleszinski"}},
		},
		Filesystem: FilesystemConfig{
			Ignore: []string{"*.log", ".git"},
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Repository != original.Repository {
		t.Errorf("Repository = %+v, want %+v", got.Repository, original.Repository)
	}
	if got.Store != original.Store {
		t.Errorf("Store = %+v, want %+v", got.Store, original.Store)
	}
	if got.Index.Concurrency != 4 {
		t.Errorf("Index.Concurrency = %d, want %d", got.Index.Concurrency, 4)
	}
	if got.Index.MaxDepth != 2 {
		t.Errorf("Index.MaxDepth = %d, want %d", got.Index.MaxDepth, 2)
	}
	if len(got.Index.StockPackages) != 2 {
		t.Errorf("len(Index.StockPackages) = %d, want 2", len(got.Index.StockPackages))
	}
	timeout, err := got.Index.Timeout()
	if err != nil {
		t.Fatalf("Timeout() error = %v", err)
	}
	if timeout != 90*time.Second {
		t.Errorf("Timeout() = %v, want %v", timeout, 90*time.Second)
	}
	if aliases := got.Authors.Aliases["Cliffy B"]; len(aliases) != 2 {
		t.Errorf("Authors.Aliases[Cliffy B] = %v, want 2 aliases", aliases)
	}
	if len(got.Filesystem.Ignore) != 2 {
		t.Fatalf("len(Filesystem.Ignore) = %d, want 2", len(got.Filesystem.Ignore))
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/ua")

	if cfg.BaseDir != "/data/ua" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/ua")
	}
	if cfg.LogDir != "/data/ua/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/ua/log")
	}
	if cfg.Repository.DataDir != "/data/ua/db" {
		t.Errorf("Repository.DataDir = %q, want %q", cfg.Repository.DataDir, "/data/ua/db")
	}
	if cfg.Store.Type != "nop" {
		t.Errorf("Store.Type = %q, want %q", cfg.Store.Type, "nop")
	}
	if cfg.Index.MaxDepth != DefaultMaxDepth {
		t.Errorf("Index.MaxDepth = %d, want %d", cfg.Index.MaxDepth, DefaultMaxDepth)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"negative concurrency", func(c *Config) { c.Index.Concurrency = -1 }, "concurrency"},
		{"negative depth", func(c *Config) { c.Index.MaxDepth = -1 }, "max_depth"},
		{"bad timeout", func(c *Config) { c.Index.ExtractTimeout = "soon" }, "extract_timeout"},
		{"zero timeout", func(c *Config) { c.Index.ExtractTimeout = "0s" }, "extract_timeout"},
		{"unknown repository", func(c *Config) { c.Repository.Type = "postgres" }, "repository type"},
		{"unknown store", func(c *Config) { c.Store.Type = "ftp" }, "store type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(t.TempDir())
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestIndexConfig_TimeoutDefault(t *testing.T) {
	got, err := IndexConfig{}.Timeout()
	if err != nil {
		t.Fatalf("Timeout() error = %v", err)
	}
	if got != 2*time.Minute {
		t.Errorf("Timeout() = %v, want %v", got, 2*time.Minute)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ua.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ua.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ua.toml")
		cfg := NewConfig(dir)
		cfg.Repository = RepositoryConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Repository.Type != "memory" {
			t.Errorf("Repository.Type = %q, want %q", got.Repository.Type, "memory")
		}
		if got.BaseDir != dir {
			t.Errorf("BaseDir = %q, want %q", got.BaseDir, dir)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/ua.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
