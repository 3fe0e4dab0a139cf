package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/richardsondev/unreal-archive/internal/config"
)

func writeLocal(t *testing.T, data string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "DM-Deck16.zip")
	if err := os.WriteFile(p, []byte(data), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return p
}

func TestNewStoreFromConfig(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.StoreConfig
		wantErr  bool
		wantName string
	}{
		{name: "default is nop", cfg: config.StoreConfig{}, wantName: "nop"},
		{name: "nop store", cfg: config.StoreConfig{Type: "nop"}, wantName: "nop"},
		{name: "memory store", cfg: config.StoreConfig{Type: "memory"}, wantName: "memory"},
		{name: "filesystem store", cfg: config.StoreConfig{Type: "filesystem", FSRoot: t.TempDir()}, wantName: "filesystem"},
		{name: "filesystem store without root", cfg: config.StoreConfig{Type: "filesystem"}, wantErr: true},
		{name: "s3 store without bucket", cfg: config.StoreConfig{Type: "s3"}, wantErr: true},
		{name: "unknown store type", cfg: config.StoreConfig{Type: "ftp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewStoreFromConfig(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStoreFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", got.Name(), tt.wantName)
			}
		})
	}
}

func TestNopStore(t *testing.T) {
	got, err := NopStore{}.Store(context.Background(), "/does/not/matter", "key")
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if got != "" {
		t.Errorf("Store() = %q, want empty URL", got)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	local := writeLocal(t, "zip bytes")

	url, err := s.Store(context.Background(), local, "maps/DM-Deck16.zip")
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if url != "memory://maps/DM-Deck16.zip" {
		t.Errorf("Store() = %q, want %q", url, "memory://maps/DM-Deck16.zip")
	}
	data, ok := s.Get("maps/DM-Deck16.zip")
	if !ok || string(data) != "zip bytes" {
		t.Errorf("Get() = %q, %v, want stored bytes", data, ok)
	}
	if keys := s.Keys(); len(keys) != 1 {
		t.Errorf("Keys() = %v, want 1 key", keys)
	}

	if _, err := s.Store(context.Background(), filepath.Join(t.TempDir(), "missing"), "x"); err == nil {
		t.Error("Store() expected error for missing local file")
	}
}

func TestFileSystemStore(t *testing.T) {
	t.Run("copies file under key and returns base URL", func(t *testing.T) {
		root := t.TempDir()
		s, err := NewFileSystemStore(root, "https://files.example.org/")
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}

		url, err := s.Store(context.Background(), writeLocal(t, "zip bytes"), "maps/ut/D/dm deck16/DM-Deck16.zip")
		if err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		if want := "https://files.example.org/maps/ut/D/dm%20deck16/DM-Deck16.zip"; url != want {
			t.Errorf("Store() = %q, want %q", url, want)
		}
		data, err := os.ReadFile(filepath.Join(root, "maps", "ut", "D", "dm deck16", "DM-Deck16.zip"))
		if err != nil {
			t.Fatalf("stored file missing: %v", err)
		}
		if string(data) != "zip bytes" {
			t.Errorf("stored content = %q, want %q", data, "zip bytes")
		}
	})

	t.Run("file URL without base", func(t *testing.T) {
		s, err := NewFileSystemStore(t.TempDir(), "")
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		url, err := s.Store(context.Background(), writeLocal(t, "x"), "a/b.zip")
		if err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		if !strings.HasPrefix(url, "file://") || !strings.HasSuffix(url, "/a/b.zip") {
			t.Errorf("Store() = %q, want file URL ending in /a/b.zip", url)
		}
	})

	t.Run("keys cannot escape root", func(t *testing.T) {
		root := t.TempDir()
		s, err := NewFileSystemStore(root, "")
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		if _, err := s.Store(context.Background(), writeLocal(t, "x"), "../../escape.zip"); err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "escape.zip")); err != nil {
			t.Errorf("file not confined to root: %v", err)
		}
	})

	t.Run("replaces existing file", func(t *testing.T) {
		root := t.TempDir()
		s, err := NewFileSystemStore(root, "")
		if err != nil {
			t.Fatalf("NewFileSystemStore() error = %v", err)
		}
		for _, data := range []string{"first", "second"} {
			if _, err := s.Store(context.Background(), writeLocal(t, data), "k.zip"); err != nil {
				t.Fatalf("Store() error = %v", err)
			}
		}
		data, _ := os.ReadFile(filepath.Join(root, "k.zip"))
		if string(data) != "second" {
			t.Errorf("stored content = %q, want %q", data, "second")
		}
	})
}

type fakeUploader struct {
	bucket, key string
	body        []byte
	err         error
}

func (f *fakeUploader) Upload(ctx context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	return &manager.UploadOutput{Location: "https://" + f.bucket + ".s3.amazonaws.com/" + f.key}, nil
}

func TestS3Store(t *testing.T) {
	t.Run("uploads under prefix", func(t *testing.T) {
		up := &fakeUploader{}
		s := NewS3Store(up, "archive", "content/", "")

		url, err := s.Store(context.Background(), writeLocal(t, "zip bytes"), "/maps/DM-Deck16.zip")
		if err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		if up.bucket != "archive" || up.key != "content/maps/DM-Deck16.zip" {
			t.Errorf("uploaded to %s/%s, want archive/content/maps/DM-Deck16.zip", up.bucket, up.key)
		}
		if string(up.body) != "zip bytes" {
			t.Errorf("uploaded body = %q, want %q", up.body, "zip bytes")
		}
		if url != "https://archive.s3.amazonaws.com/content/maps/DM-Deck16.zip" {
			t.Errorf("Store() = %q, want upload location", url)
		}
	})

	t.Run("public URL overrides location", func(t *testing.T) {
		s := NewS3Store(&fakeUploader{}, "archive", "", "https://cdn.example.org/")
		url, err := s.Store(context.Background(), writeLocal(t, "x"), "maps/DM-Deck16.zip")
		if err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		if url != "https://cdn.example.org/maps/DM-Deck16.zip" {
			t.Errorf("Store() = %q, want public URL", url)
		}
	})

	t.Run("upload failure", func(t *testing.T) {
		boom := errors.New("boom")
		s := NewS3Store(&fakeUploader{err: boom}, "archive", "", "")
		_, err := s.Store(context.Background(), writeLocal(t, "x"), "k")
		if !errors.Is(err, boom) {
			t.Errorf("Store() error = %v, want %v", err, boom)
		}
	})
}
