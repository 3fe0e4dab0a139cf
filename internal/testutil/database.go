package testutil

import (
	"context"
	"testing"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/repository"
)

// NewTestRepository creates a new in-memory SQLite repository with the
// schema applied. The repository is closed when the test completes.
func NewTestRepository(t *testing.T, records ...*content.Record) *repository.SQLiteRepository {
	t.Helper()

	repo, err := repository.NewSQLiteRepository(":memory:")
	if err != nil {
		t.Fatalf("failed to open repository: %v", err)
	}
	t.Cleanup(func() {
		repo.Close()
	})

	for _, r := range records {
		if err := repo.Put(context.Background(), r); err != nil {
			t.Fatalf("failed to seed record %s: %v", r.Hash, err)
		}
	}
	return repo
}
