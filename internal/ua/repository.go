package ua

import (
	"context"

	"github.com/richardsondev/unreal-archive/internal/content"
)

// Repository provides read and merge access to indexed content records.
// Lookups that find nothing return (nil, nil).
type Repository interface {
	// ByHash returns the record whose submission hash matches.
	ByHash(ctx context.Context, hash string) (*content.Record, error)

	// ByFileHash returns all records that contain a file with the given hash.
	ByFileHash(ctx context.Context, fileHash string) ([]*content.Record, error)

	// All returns every stored record, including deleted records and variations.
	All(ctx context.Context) ([]*content.Record, error)

	// Put inserts or replaces the record identified by record.Hash.
	Put(ctx context.Context, record *content.Record) error

	// Close releases the underlying connection.
	Close() error
}
