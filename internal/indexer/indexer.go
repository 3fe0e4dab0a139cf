// Package indexer runs batches of submissions through extraction,
// classification and the content handlers, merging the results into the
// repository.
package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/deps"
	"github.com/richardsondev/unreal-archive/internal/extract"
	"github.com/richardsondev/unreal-archive/internal/handlers"
	"github.com/richardsondev/unreal-archive/internal/incoming"
	"github.com/richardsondev/unreal-archive/internal/ua"
)

// Options control one batch.
type Options struct {
	// Force re-stores records even when nothing changed.
	Force bool
	// NewOnly skips every submission whose hash is already stored.
	NewOnly bool
	// Concurrency is the number of submissions processed at once.
	Concurrency int
	// Kind forces the content kind of every submission.
	Kind content.Kind
	// Game forces the game of every submission.
	Game string
}

// ProgressFunc is called once per finished submission. Calls are
// serialized; done counts finished submissions including this one.
type ProgressFunc func(done, total int, r Result)

// Indexer coordinates the pipeline components for batch indexing.
type Indexer struct {
	repo    ua.Repository
	store   ua.Store
	engine  *extract.Engine
	authors *content.AuthorNames
	stock   []string
	logger  ua.Logger
	clock   ua.Clock
	idgen   ua.IDGenerator

	overrides map[content.Kind]handlers.Handler

	// Progress, when set, receives each submission's result.
	Progress ProgressFunc
}

// New creates an Indexer. store may be nil, in which case nothing is
// checked in. An empty stock list uses deps.DefaultStockPackages.
func New(repo ua.Repository, store ua.Store, engine *extract.Engine, authors *content.AuthorNames,
	stock []string, logger ua.Logger, clock ua.Clock, idgen ua.IDGenerator) *Indexer {
	if logger == nil {
		logger = ua.NewNopLogger()
	}
	if clock == nil {
		clock = ua.RealClock{}
	}
	if idgen == nil {
		idgen = ua.UUIDGenerator{}
	}
	if len(stock) == 0 {
		stock = deps.DefaultStockPackages
	}
	return &Indexer{
		repo:      repo,
		store:     store,
		engine:    engine,
		authors:   authors,
		stock:     stock,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		overrides: map[content.Kind]handlers.Handler{},
	}
}

// Register replaces the handler used for kind in later batches.
func (ix *Indexer) Register(kind content.Kind, h handlers.Handler) {
	ix.overrides[kind] = h
}

// Summary aggregates a finished batch. Results are in submission order.
type Summary struct {
	BatchID  string
	Results  []Result
	Indexed  int
	Skipped  int
	Failed   int
	Bytes    int64
	Duration time.Duration
}

// batch is the state shared by the workers of one Index call. The
// provider index inside the registry is read-only for the whole batch.
type batch struct {
	opts     Options
	registry *handlers.Registry
	putMu    sync.Mutex
}

// Index processes paths with at most opts.Concurrency submissions in
// flight. A failing submission never stops the batch; the returned error
// is non-nil only if the batch could not start or ctx was cancelled.
func (ix *Indexer) Index(ctx context.Context, paths []string, opts Options) (*Summary, error) {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	start := ix.clock.Now()

	corpus, err := ix.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	providers := deps.NewProviderIndex(corpus)
	registry := handlers.NewRegistry(handlers.Env{
		Resolver: deps.NewResolver(providers, ix.stock),
		Authors:  ix.authors,
		Logger:   ix.logger,
	})
	for kind, h := range ix.overrides {
		registry.Register(kind, h)
	}
	b := &batch{opts: opts, registry: registry}

	summary := &Summary{BatchID: ix.idgen.New(), Results: make([]Result, len(paths))}
	ix.logger.Info("batch started", "batch", summary.BatchID, "submissions", len(paths),
		"concurrency", opts.Concurrency, "corpus", len(corpus), "packages", providers.Len())

	var progressMu sync.Mutex
	done := 0
	report := func(r Result) {
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		if ix.Progress != nil {
			ix.Progress(done, len(paths), r)
		}
	}

	sem := semaphore.NewWeighted(int64(opts.Concurrency))
	g, gctx := errgroup.WithContext(ctx)
	started := 0
	for i, p := range paths {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		started++
		g.Go(func() error {
			defer sem.Release(1)
			r := ix.indexOne(gctx, b, p)
			summary.Results[i] = r
			report(r)
			return nil
		})
	}
	g.Wait()

	for i := started; i < len(paths); i++ {
		log := incoming.NewLog(ix.clock)
		log.Fatal("batch cancelled", ctx.Err())
		summary.Results[i] = Result{
			Submission: incoming.Submission{Path: paths[i]},
			State:      StateFailed,
			Stage:      StateReceived,
			Log:        log,
			Err:        ctx.Err(),
		}
	}

	for _, r := range summary.Results {
		switch r.State {
		case StateIndexed:
			summary.Indexed++
			summary.Bytes += r.FileSize
		case StateSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	summary.Duration = ix.clock.Now().Sub(start)

	ix.logger.Info("batch finished", "batch", summary.BatchID, "indexed", summary.Indexed,
		"skipped", summary.Skipped, "failed", summary.Failed, "duration", summary.Duration)
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("batch %s interrupted: %w", summary.BatchID, err)
	}
	return summary, nil
}
