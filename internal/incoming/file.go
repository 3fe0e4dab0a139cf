package incoming

import (
	"fmt"
	"io"
	"os"
	"path"
	"sync"
	"time"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/umod"
)

// Reader gives random and sequential access to a file's bytes.
type Reader interface {
	io.Reader
	io.ReaderAt
	io.Seeker
	io.Closer
}

// File is a file in a session's merged view of a submission: either a file
// on disk below the extraction root, or an entry inside a container.
type File struct {
	// Path is relative to the extraction root for files on disk, or the
	// entry name for container entries. It always uses forward slashes.
	Path    string
	Size    int64
	ModTime time.Time
	Type    filetype.Type

	disk      string
	container *umod.Reader
	entry     umod.Entry

	hashOnce sync.Once
	hash     string
	hashErr  error
}

// Name is the file's base name.
func (f *File) Name() string { return path.Base(f.Path) }

// InContainer reports whether the file is a container entry.
func (f *File) InContainer() bool { return f.container != nil }

// DiskPath is the file's location on disk, or "" for container entries.
func (f *File) DiskPath() string { return f.disk }

// Open returns a reader over the file's content.
func (f *File) Open() (Reader, error) {
	if f.container != nil {
		return sectionCloser{f.container.Open(f.entry)}, nil
	}
	fh, err := os.Open(f.disk)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Path, err)
	}
	return fh, nil
}

// Hash returns the SHA-1 of the file's content, computed on first use.
func (f *File) Hash() (string, error) {
	f.hashOnce.Do(func() {
		if f.container != nil {
			f.hash, f.hashErr = f.container.Hash(f.entry)
			return
		}
		f.hash, f.hashErr = content.HashFile(f.disk)
	})
	return f.hash, f.hashErr
}

func (f *File) String() string { return f.Path }

type sectionCloser struct {
	*io.SectionReader
}

func (sectionCloser) Close() error { return nil }
