package store

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystemStore copies files into a directory tree:
//
//	<root>/
//	  <remoteKey>   (e.g. maps/unreal-tournament/D/dm-deck16_0a1b2c3d/DM-Deck16.zip)
//
// URLs are baseURL joined with the key, or file URLs when no base is set.
type FileSystemStore struct {
	root    string
	baseURL string
}

// NewFileSystemStore creates a store rooted at the given path.
func NewFileSystemStore(root, baseURL string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &FileSystemStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FileSystemStore) Name() string { return "filesystem" }

// Store copies localPath to <root>/<remoteKey>, replacing any earlier copy.
func (s *FileSystemStore) Store(ctx context.Context, localPath, remoteKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(remoteKey)), "/")
	if key == "" {
		return "", fmt.Errorf("invalid remote key %q", remoteKey)
	}
	destPath := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", localPath, err)
	}
	if err := writeFile(destPath, src, info.Size()); err != nil {
		return "", err
	}

	if s.baseURL != "" {
		return s.baseURL + "/" + escapeKey(key), nil
	}
	abs, err := filepath.Abs(destPath)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// writeFile writes r to destPath through a temp file and rename.
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// escapeKey percent-encodes each path segment of key.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
