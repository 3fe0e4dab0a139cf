// Package umod reads the self-contained installer containers used to
// distribute game content (.umod, .ut2mod, .ut4mod, .rmod).
//
// A container is a concatenation of file bodies followed by a directory and
// a fixed 20 byte trailer:
//
//	magic      uint32  0x9FE3C5A3
//	dirOffset  uint32  offset of the directory
//	totalSize  uint32  size of the whole container
//	version    uint32
//	crc        uint32
//
// The directory is a compact-index entry count, then for each entry a
// compact-index length prefixed, NUL terminated name followed by the
// entry's offset, size and flags as little-endian uint32s.
package umod

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/unreal"
)

// Magic identifies a container trailer.
const Magic uint32 = 0x9FE3C5A3

const (
	trailerSize = 20
	maxEntries  = 1 << 16
	maxNameLen  = 1 << 10
)

// ErrContainerParse is returned for containers with a bad trailer or
// directory.
var ErrContainerParse = errors.New("malformed umod container")

// manifests are bookkeeping entries the installer reads itself; they are
// never exposed as content.
var manifests = []string{`System\Manifest.int`, `System\Manifest.ini`}

// IsManifest reports whether name is one of the installer's own manifest
// entries. Either path separator is accepted.
func IsManifest(name string) bool {
	name = strings.ReplaceAll(name, "/", `\`)
	for _, m := range manifests {
		if strings.EqualFold(name, m) {
			return true
		}
	}
	return false
}

// Entry is one file stored in a container.
type Entry struct {
	// Name uses forward slashes, e.g. "System/MyMod.u".
	Name   string
	Size   int64
	Offset int64
	Flags  uint32
}

// Reader provides access to a container's entries. Entry data is read on
// demand from the underlying file; nothing is extracted to disk.
type Reader struct {
	Path    string
	Version uint32
	ModTime time.Time

	entries []Entry
	r       io.ReaderAt
	closer  io.Closer
}

// Open opens and parses the container at path. The returned Reader holds
// the file open until Close.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open container: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat container: %w", err)
	}
	r, err := NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.Path = path
	r.ModTime = info.ModTime()
	r.closer = f
	return r, nil
}

// NewReader parses a container of the given size read through r.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	if size < trailerSize {
		return nil, fmt.Errorf("%w: too small", ErrContainerParse)
	}
	var trailer [trailerSize]byte
	if _, err := r.ReadAt(trailer[:], size-trailerSize); err != nil {
		return nil, fmt.Errorf("%w: reading trailer: %v", ErrContainerParse, err)
	}
	if binary.LittleEndian.Uint32(trailer[0:]) != Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrContainerParse)
	}
	dirOffset := int64(binary.LittleEndian.Uint32(trailer[4:]))
	totalSize := int64(binary.LittleEndian.Uint32(trailer[8:]))
	version := binary.LittleEndian.Uint32(trailer[12:])
	if totalSize != size {
		return nil, fmt.Errorf("%w: declared size %d, actual %d", ErrContainerParse, totalSize, size)
	}
	if dirOffset >= size-trailerSize {
		return nil, fmt.Errorf("%w: directory offset %d out of range", ErrContainerParse, dirOffset)
	}

	entries, err := readDirectory(io.NewSectionReader(r, dirOffset, size-trailerSize-dirOffset), dirOffset)
	if err != nil {
		return nil, err
	}
	return &Reader{Version: version, entries: entries, r: r}, nil
}

func readDirectory(sr *io.SectionReader, dataEnd int64) ([]Entry, error) {
	br := bufio.NewReader(sr)
	count, err := unreal.ReadCompactIndex(br)
	if err != nil {
		return nil, fmt.Errorf("%w: entry count: %v", ErrContainerParse, err)
	}
	if count < 0 || count > maxEntries {
		return nil, fmt.Errorf("%w: entry count %d", ErrContainerParse, count)
	}

	entries := make([]Entry, 0, count)
	for i := int32(0); i < count; i++ {
		n, err := unreal.ReadCompactIndex(br)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d name: %v", ErrContainerParse, i, err)
		}
		if n <= 0 || n > maxNameLen {
			return nil, fmt.Errorf("%w: entry %d name length %d", ErrContainerParse, i, n)
		}
		name := make([]byte, n)
		if _, err := io.ReadFull(br, name); err != nil {
			return nil, fmt.Errorf("%w: entry %d name: %v", ErrContainerParse, i, err)
		}
		var fields [12]byte
		if _, err := io.ReadFull(br, fields[:]); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrContainerParse, i, err)
		}
		e := Entry{
			Name:   strings.TrimRight(string(name), "\x00"),
			Offset: int64(binary.LittleEndian.Uint32(fields[0:])),
			Size:   int64(binary.LittleEndian.Uint32(fields[4:])),
			Flags:  binary.LittleEndian.Uint32(fields[8:]),
		}
		if e.Offset+e.Size > dataEnd {
			return nil, fmt.Errorf("%w: entry %q exceeds container data", ErrContainerParse, e.Name)
		}
		if IsManifest(e.Name) {
			continue
		}
		e.Name = strings.ReplaceAll(e.Name, `\`, "/")
		entries = append(entries, e)
	}
	return entries, nil
}

// Entries returns the container's content entries in directory order,
// without the manifest entries.
func (r *Reader) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Open returns a reader over the entry's bytes.
func (r *Reader) Open(e Entry) *io.SectionReader {
	return io.NewSectionReader(r.r, e.Offset, e.Size)
}

// Hash streams the entry's bytes through SHA-1.
func (r *Reader) Hash(e Entry) (string, error) {
	sum, err := content.HashReader(r.Open(e))
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", e.Name, err)
	}
	return sum, nil
}

// Close releases the underlying file. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}

func (r *Reader) String() string {
	return fmt.Sprintf("umod %s (%d entries)", r.Path, len(r.entries))
}
