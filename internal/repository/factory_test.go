package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/richardsondev/unreal-archive/internal/config"
)

func TestNewRepositoryFromConfig(t *testing.T) {
	t.Run("memory repository", func(t *testing.T) {
		got, err := NewRepositoryFromConfig(config.RepositoryConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewRepositoryFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if err := got.Status(); err != nil {
			t.Errorf("Status() error = %v", err)
		}
	})

	t.Run("sqlite repository", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "db")
		got, err := NewRepositoryFromConfig(config.RepositoryConfig{Type: "sqlite", DataDir: dir})
		if err != nil {
			t.Fatalf("NewRepositoryFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if _, err := os.Stat(filepath.Join(dir, DatabaseFile)); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("sqlite repository without data_dir", func(t *testing.T) {
		_, err := NewRepositoryFromConfig(config.RepositoryConfig{Type: "sqlite"})
		if err == nil {
			t.Error("NewRepositoryFromConfig() expected error for missing data_dir")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewRepositoryFromConfig(config.RepositoryConfig{Type: "postgres"})
		if err == nil {
			t.Error("NewRepositoryFromConfig() expected error for unknown type")
		}
	})
}
