// Package incoming manages an ingestion session: a submitted file unpacked
// into a private working directory, with the contents of any installer
// containers merged into a single view of files.
package incoming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/extract"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/ua"
	"github.com/richardsondev/unreal-archive/internal/umod"
)

// RepackTimeout bounds building a repack archive.
const RepackTimeout = 60 * time.Second

// ErrPrepareFailed wraps failures to read the unpacked submission, such as
// a malformed container.
var ErrPrepareFailed = errors.New("failed to prepare submission")

// Submission is a file offered for indexing, with optional overrides.
type Submission struct {
	Path string
	// Kind forces the content kind instead of detecting it.
	Kind content.Kind
	// Game forces the game instead of detecting it.
	Game string
}

func (s Submission) String() string { return s.Path }

// Incoming is one submission's ingestion session. It exclusively owns its
// working directories and open containers; callers must Close it on every
// path once it has been created. An Incoming is not safe for concurrent use.
type Incoming struct {
	Submission Submission
	// Hash is the SHA-1 of the submitted file, computed once.
	Hash     string
	FileSize int64
	Log      *Log

	engine *extract.Engine
	logger ua.Logger

	contentRoot string
	repackDir   string
	files       map[string]*File
	containers  []io.Closer
	closed      bool
}

// New starts a session for sub, hashing the submitted file. Nothing is
// unpacked until Prepare.
func New(sub Submission, engine *extract.Engine, log *Log, logger ua.Logger) (*Incoming, error) {
	info, err := os.Stat(sub.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat submission: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("submission %s is not a regular file", sub.Path)
	}
	hash, err := content.HashFile(sub.Path)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = NewLog(nil)
	}
	if logger == nil {
		logger = ua.NewNopLogger()
	}
	return &Incoming{
		Submission: sub,
		Hash:       hash,
		FileSize:   info.Size(),
		Log:        log,
		engine:     engine,
		logger:     logger,
	}, nil
}

// Prepare unpacks the submission into a fresh working directory and builds
// the file view. Errors from the extraction engine are returned as-is;
// unreadable containers fail with ErrPrepareFailed. A session is prepared
// at most once.
func (i *Incoming) Prepare(ctx context.Context) error {
	if i.closed {
		return fmt.Errorf("%w: session closed", ErrPrepareFailed)
	}
	if i.contentRoot != "" {
		return fmt.Errorf("%w: already prepared", ErrPrepareFailed)
	}
	root, err := os.MkdirTemp("", "ua-incoming-")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrepareFailed, err)
	}
	i.contentRoot = root

	if err := i.engine.Unpack(ctx, i.Submission.Path, root); err != nil {
		return err
	}
	files, err := i.listFiles()
	if err != nil {
		return err
	}
	i.files = files
	i.Log.Info(fmt.Sprintf("unpacked %d files", len(files)))
	return nil
}

// listFiles walks the extraction root. Container entries override files on
// disk with the same path; between containers the first entry seen wins.
func (i *Incoming) listFiles() (map[string]*File, error) {
	onDisk := make(map[string]*File)
	inContainers := make(map[string]*File)

	err := filepath.WalkDir(i.contentRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(i.contentRoot, p)
		if err != nil {
			return err
		}
		f := &File{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Type:    filetype.ForFile(p),
			disk:    p,
		}
		onDisk[f.Path] = f

		if f.Type == filetype.Container {
			return i.addContainer(p, inContainers)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for k, f := range inContainers {
		onDisk[k] = f
	}
	return onDisk, nil
}

func (i *Incoming) addContainer(p string, into map[string]*File) error {
	r, err := umod.Open(p)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrepareFailed, err)
	}
	i.containers = append(i.containers, r)

	for _, e := range r.Entries() {
		if existing, ok := into[e.Name]; ok {
			i.Log.Info(fmt.Sprintf("ignoring duplicate entry %s in %s, already provided by %s",
				e.Name, filepath.Base(p), filepath.Base(existing.container.Path)))
			continue
		}
		into[e.Name] = &File{
			Path:      e.Name,
			Size:      e.Size,
			ModTime:   r.ModTime,
			Type:      filetype.ForFile(e.Name),
			container: r,
			entry:     e,
		}
	}
	return nil
}

// Files returns the files of the given types, or every file when no type
// is given, sorted by path.
func (i *Incoming) Files(types ...filetype.Type) []*File {
	var out []*File
	for _, f := range i.files {
		if len(types) == 0 || matchesAny(f, types) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Path < out[b].Path })
	return out
}

func matchesAny(f *File, types []filetype.Type) bool {
	for _, t := range types {
		if f.Type == t {
			return true
		}
	}
	return false
}

// ContentRoot is the extraction directory, or "" before Prepare.
func (i *Incoming) ContentRoot() string { return i.contentRoot }

// Repack zips the extraction root into a temporary archive named
// name+".zip" and returns its path. Submissions that already are zip
// archives are not repacked and "" is returned.
func (i *Incoming) Repack(ctx context.Context, name string) (string, error) {
	if strings.EqualFold(filetype.Extension(i.Submission.Path), "zip") || i.contentRoot == "" {
		return "", nil
	}
	if i.repackDir == "" {
		dir, err := os.MkdirTemp("", "ua-repack-")
		if err != nil {
			return "", fmt.Errorf("failed to create repack directory: %w", err)
		}
		i.repackDir = dir
	}
	ctx, cancel := context.WithTimeout(ctx, RepackTimeout)
	defer cancel()

	dest := filepath.Join(i.repackDir, name+".zip")
	if err := extract.CreateZip(ctx, i.contentRoot, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Close releases everything the session holds: open containers, the file
// view, the extraction root and any repack directory, in that order.
// Problems are logged rather than returned. Close may be called more than
// once, and before or after a failed Prepare.
func (i *Incoming) Close() error {
	for _, c := range i.containers {
		if err := c.Close(); err != nil {
			i.Log.Add(Info, fmt.Sprintf("failed to close container %v", c), err)
			i.logger.Warn("failed to close container", "submission", i.Submission.Path, "error", err)
		}
	}
	i.containers = nil
	i.files = nil

	if i.contentRoot != "" {
		if err := os.RemoveAll(i.contentRoot); err != nil {
			i.Log.Add(Info, "failed to remove content path "+i.contentRoot, err)
			i.logger.Warn("failed to remove content path", "path", i.contentRoot, "error", err)
		}
		i.contentRoot = ""
	}
	if i.repackDir != "" {
		if err := os.RemoveAll(i.repackDir); err != nil {
			i.Log.Add(Info, "failed to remove repack path "+i.repackDir, err)
			i.logger.Warn("failed to remove repack path", "path", i.repackDir, "error", err)
		}
		i.repackDir = ""
	}
	i.closed = true
	return nil
}

func (i *Incoming) String() string {
	return fmt.Sprintf("Incoming[submission=%s, hash=%s, root=%s]", i.Submission.Path, i.Hash, i.contentRoot)
}
