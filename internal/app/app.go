package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/richardsondev/unreal-archive/internal/config"
	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/extract"
	"github.com/richardsondev/unreal-archive/internal/fs"
	"github.com/richardsondev/unreal-archive/internal/indexer"
	"github.com/richardsondev/unreal-archive/internal/repository"
	"github.com/richardsondev/unreal-archive/internal/store"
	"github.com/richardsondev/unreal-archive/internal/ua"
)

// ErrNoSubmissions is returned by Index when the arguments expand to no files.
var ErrNoSubmissions = errors.New("no submissions found")

// Options adjust how the app talks to the outside world. Zero values use
// the process's standard streams and the real clock.
type Options struct {
	Stdin   io.Reader
	Console io.Writer
	Verbose bool
	Clock   ua.Clock
	IDGen   ua.IDGenerator
}

// UAApp is the application layer between the CLI and the indexer.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw arguments, and releases resources on Close.
type UAApp struct {
	cfg      *config.Config
	repo     *repository.SQLiteRepository
	expander *fs.Expander
	indexer  *indexer.Indexer
	logger   ua.Logger
	clock    ua.Clock
	op       *Operation
	logFile  *os.File
}

// NewUAApp creates a fully wired UAApp from the given config.
// command identifies the CLI command being run (e.g. "index", "show").
// The caller must call Close when done.
func NewUAApp(ctx context.Context, cfg *config.Config, command string, opts Options) (*UAApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = ua.RealClock{}
	}
	if opts.IDGen == nil {
		opts.IDGen = ua.UUIDGenerator{}
	}

	timeout, err := cfg.Index.Timeout()
	if err != nil {
		return nil, err
	}

	op := NewOperation(command, opts.Clock)
	slogger, logFile, err := newLogger(cfg.LogDir, op.ID, opts.Console, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	repo, err := repository.NewRepositoryFromConfig(cfg.Repository)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating repository: %w", err)
	}
	if err := repo.Status(); err != nil {
		repo.Close()
		logFile.Close()
		return nil, fmt.Errorf("repository schema out of date: %w", err)
	}

	st, err := store.NewStoreFromConfig(ctx, cfg.Store)
	if err != nil {
		repo.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	engine := extract.NewEngine(timeout, cfg.Index.MaxDepth, logger)
	authors := content.NewAuthorNames(cfg.Authors.Aliases)
	ix := indexer.New(repo, st, engine, authors, cfg.Index.StockPackages, logger, opts.Clock, opts.IDGen)

	logger.Info("operation started", "command", command, "repository", repo.Path(), "store", st.Name())

	return &UAApp{
		cfg:      cfg,
		repo:     repo,
		expander: fs.NewExpander(cfg.Filesystem.Ignore, opts.Stdin),
		indexer:  ix,
		logger:   logger,
		clock:    opts.Clock,
		op:       op,
		logFile:  logFile,
	}, nil
}

// Index expands args into submission paths and indexes them as one batch.
// A zero opts.Concurrency uses the configured concurrency. progress may be nil.
func (a *UAApp) Index(ctx context.Context, args []string, opts indexer.Options, progress indexer.ProgressFunc) (*indexer.Summary, error) {
	paths, err := a.expander.Expand(args)
	if err != nil {
		a.op.Fail()
		return nil, fmt.Errorf("expanding paths: %w", err)
	}
	if len(paths) == 0 {
		a.op.Fail()
		return nil, ErrNoSubmissions
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = a.cfg.Index.Concurrency
	}

	a.indexer.Progress = progress
	summary, err := a.indexer.Index(ctx, paths, opts)
	if err != nil || summary.Failed > 0 {
		a.op.Fail()
	}
	return summary, err
}

// Show returns the record with the given submission hash. If no record has
// that hash, the first record containing a file with that hash is returned.
func (a *UAApp) Show(ctx context.Context, hash string) (*content.Record, error) {
	r, err := a.repo.ByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if r != nil {
		return r, nil
	}

	owners, err := a.repo.ByFileHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		a.op.Fail()
		return nil, fmt.Errorf("no record with hash %s", hash)
	}
	return owners[0], nil
}

// Status reports whether the repository schema is current.
func (a *UAApp) Status() error {
	return a.repo.Status()
}

// Close finalizes the operation and closes all resources.
func (a *UAApp) Close() error {
	var firstErr error
	if err := a.repo.Close(); err != nil {
		firstErr = fmt.Errorf("closing repository: %w", err)
		a.op.Fail()
	}

	a.logger.Info("operation finished", "command", a.op.Command, "status", a.op.Status,
		"elapsed", a.op.Elapsed(a.clock))

	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
