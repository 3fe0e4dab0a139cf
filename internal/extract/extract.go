// Package extract unpacks submitted archives into a working directory,
// recursing into archives found inside archives.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/ua"
)

const (
	// DefaultTimeout bounds a complete Unpack call, nested archives included.
	DefaultTimeout = 2 * time.Minute
	// DefaultMaxDepth bounds archive nesting below the submission itself.
	DefaultMaxDepth = 4

	// nestedSuffix is appended to a nested archive's file name to form the
	// directory it is extracted into.
	nestedSuffix = ".ex"
)

var (
	// ErrUnsupportedFormat means the file is neither an archive nor a file
	// type worth keeping on its own.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractionTimeout means unpacking did not finish within the
	// engine's timeout.
	ErrExtractionTimeout = errors.New("extraction timed out")
	// ErrBadArchive means an archive could not be read.
	ErrBadArchive = errors.New("bad archive")
)

// Engine unpacks submissions. The zero value is not usable; use NewEngine.
type Engine struct {
	timeout  time.Duration
	maxDepth int
	logger   ua.Logger
}

// NewEngine creates an Engine. Non-positive timeout or negative maxDepth
// select the defaults.
func NewEngine(timeout time.Duration, maxDepth int, logger ua.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxDepth < 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = ua.NewNopLogger()
	}
	return &Engine{timeout: timeout, maxDepth: maxDepth, logger: logger}
}

// Unpack places the contents of src into dest, which must exist. Archives
// are extracted, and archives found inside them are extracted next to
// themselves into "<name>.ex" directories, up to the engine's depth limit.
// A loose file of an important type is copied as-is. The source file is
// never modified.
//
// Nested archives that fail to extract are logged and skipped. The whole
// call fails with ErrExtractionTimeout once the engine's timeout passes.
func (e *Engine) Unpack(ctx context.Context, src, dest string) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var err error
	switch {
	case IsArchive(src):
		err = e.extract(ctx, src, dest, 0)
	case filetype.Important(src):
		err = copyFile(ctx, src, filepath.Join(dest, filepath.Base(src)))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(src))
	}
	return e.checkTimeout(ctx, err)
}

func (e *Engine) checkTimeout(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrExtractionTimeout, e.timeout)
	}
	return err
}

func (e *Engine) extract(ctx context.Context, archive, dest string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := Extract(ctx, archive, dest); err != nil {
		return err
	}

	// Collect first so that directories created by nested extraction are
	// not walked again.
	var nested []string
	err := filepath.WalkDir(dest, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && IsArchive(path) {
			nested = append(nested, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", dest, err)
	}

	for _, path := range nested {
		if depth+1 > e.maxDepth {
			e.logger.Warn("nested archive too deep, not extracting", "path", path, "depth", depth+1)
			continue
		}
		target := path + nestedSuffix
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", target, err)
		}
		if err := e.extract(ctx, path, target, depth+1); err != nil {
			if ctx.Err() != nil {
				return err
			}
			e.logger.Info("skipping unreadable nested archive", "path", path, "error", err)
		}
	}
	return nil
}

func copyFile(ctx context.Context, src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if err := writeFile(ctx, dest, in, 0o644); err != nil {
		return err
	}
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}

// writeFile streams r into a new file at path, creating parent
// directories. Reads stop as soon as ctx is done.
func writeFile(ctx context.Context, path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if mode&0o600 != 0o600 {
		mode |= 0o600
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
