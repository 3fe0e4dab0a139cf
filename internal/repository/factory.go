package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/richardsondev/unreal-archive/internal/config"
)

// DatabaseFile is the file name of the SQLite database inside data_dir.
const DatabaseFile = "content.db"

// NewRepositoryFromConfig creates a repository based on the repository config type.
func NewRepositoryFromConfig(cfg config.RepositoryConfig) (*SQLiteRepository, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite repository")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteRepository(filepath.Join(cfg.DataDir, DatabaseFile))
	case "memory":
		return NewSQLiteRepository(":memory:")
	default:
		return nil, fmt.Errorf("unknown repository type: %s", cfg.Type)
	}
}
