package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/handlers"
	"github.com/richardsondev/unreal-archive/internal/incoming"
)

// State is a submission's position in the pipeline. A submission moves
// forward through the states in order and ends in Indexed, Skipped or
// Failed.
type State int

const (
	StateReceived State = iota
	StateExtracted
	StateClassified
	StateResolved
	StateIndexed
	StateSkipped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateExtracted:
		return "extracted"
	case StateClassified:
		return "classified"
	case StateResolved:
		return "dependency-resolved"
	case StateIndexed:
		return "indexed"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions happen from s.
func (s State) Terminal() bool {
	return s == StateIndexed || s == StateSkipped || s == StateFailed
}

// Result is the outcome of one submission.
type Result struct {
	Submission incoming.Submission
	Hash       string
	FileSize   int64
	State      State
	// Stage is the last state reached before a failure or skip.
	Stage    State
	Kind     content.Kind
	Record   *content.Record
	Warnings []string
	Log      *incoming.Log
	// Reason explains a skip.
	Reason string
	Err    error
}

// tracker walks one submission through its states.
type tracker struct {
	r *Result
}

func (t tracker) advance(s State) { t.r.State, t.r.Stage = s, s }

func (t tracker) fail(msg string, err error) {
	t.r.Log.Fatal(msg, err)
	t.r.Err = fmt.Errorf("%s: %w", msg, err)
	t.r.State = StateFailed
}

func (t tracker) skip(reason string) {
	t.r.Log.Info("skipped: " + reason)
	t.r.Reason = reason
	t.r.State = StateSkipped
}

// indexOne takes one submission from received to a terminal state. The
// session it opens is closed on every path.
func (ix *Indexer) indexOne(ctx context.Context, b *batch, path string) (res Result) {
	sub := incoming.Submission{Path: path, Kind: b.opts.Kind, Game: b.opts.Game}
	res = Result{Submission: sub, Log: incoming.NewLog(ix.clock)}
	t := tracker{&res}
	t.advance(StateReceived)
	defer func() {
		ix.logResult(res)
	}()

	if err := ctx.Err(); err != nil {
		t.fail("batch cancelled", err)
		return res
	}

	in, err := incoming.New(sub, ix.engine, res.Log, ix.logger)
	if err != nil {
		t.fail("cannot read submission", err)
		return res
	}
	defer in.Close()
	res.Hash, res.FileSize = in.Hash, in.FileSize

	current, err := ix.repo.ByHash(ctx, in.Hash)
	if err != nil {
		t.fail("repository lookup failed", err)
		return res
	}
	if current != nil && b.opts.NewOnly {
		t.skip("already indexed")
		return res
	}

	if err := in.Prepare(ctx); err != nil {
		t.fail("extraction failed", err)
		return res
	}
	t.advance(StateExtracted)

	kind := sub.Kind
	if kind == "" || kind == content.KindUnknown {
		kind, err = handlers.Detect(in)
		if err != nil {
			t.fail("classification failed", err)
			return res
		}
		res.Log.Info("detected content type " + kind.Friendly())
	}
	res.Kind = kind
	t.advance(StateClassified)

	handler, err := b.registry.For(kind)
	if err != nil {
		t.fail("no handler", err)
		return res
	}
	out, err := handler.Index(ctx, in, current)
	if err != nil {
		t.fail("indexing failed", err)
		return res
	}
	if out.Record == nil {
		t.fail("indexing failed", errors.New("handler produced no record"))
		return res
	}
	t.advance(StateResolved)
	res.Warnings = out.Warnings
	for _, w := range out.Warnings {
		res.Log.Continue(w, nil)
	}

	record := ix.merge(out.Record, current)
	if current != nil && !b.opts.Force && record.Equivalent(current) {
		res.Record = current
		t.skip("unchanged")
		return res
	}

	ix.checkIn(ctx, in, record, res.Log)

	b.putMu.Lock()
	err = ix.repo.Put(ctx, record)
	b.putMu.Unlock()
	if err != nil {
		t.fail("storing record failed", err)
		return res
	}
	res.Record = record
	res.Log.Info(fmt.Sprintf("indexed %s %q", kind.Friendly(), record.Name))
	t.advance(StateIndexed)
	return res
}

func (ix *Indexer) logResult(r Result) {
	args := []any{"path", r.Submission.Path, "hash", r.Hash, "state", r.State.String()}
	switch r.State {
	case StateFailed:
		ix.logger.Error("submission failed", append(args, "stage", r.Stage.String(), "error", r.Err)...)
	case StateSkipped:
		ix.logger.Info("submission skipped", append(args, "reason", r.Reason)...)
	default:
		ix.logger.Info("submission indexed", append(args, "kind", string(r.Kind), "warnings", len(r.Warnings))...)
	}
}
