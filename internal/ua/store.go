package ua

import "context"

// Store is the storage sink for submitted files, repacks and attachments.
// Implementations upload (or copy) the local file and return the public URL
// the file can be downloaded from afterwards.
type Store interface {
	// Store uploads the file at localPath under remoteKey.
	// Storing the same key twice replaces the earlier object.
	Store(ctx context.Context, localPath, remoteKey string) (string, error)

	// Name identifies the backend in logs.
	Name() string
}
