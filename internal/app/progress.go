package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/richardsondev/unreal-archive/internal/incoming"
	"github.com/richardsondev/unreal-archive/internal/indexer"
)

// Printer reports batch progress. On a terminal it redraws a single
// counter line; otherwise it writes one line per finished submission.
type Printer struct {
	w    io.Writer
	live bool
}

// NewPrinter creates a Printer writing to f.
func NewPrinter(f *os.File) *Printer {
	return &Printer{w: f, live: term.IsTerminal(int(f.Fd()))}
}

// NewLinePrinter creates a Printer that always writes whole lines.
func NewLinePrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Progress is an indexer.ProgressFunc.
func (p *Printer) Progress(done, total int, r indexer.Result) {
	name := filepath.Base(r.Submission.Path)
	if p.live {
		fmt.Fprintf(p.w, "\r\033[K[%d/%d] %s: %s", done, total, name, r.State)
		if done == total {
			fmt.Fprintln(p.w)
		}
		return
	}

	switch r.State {
	case indexer.StateFailed:
		fmt.Fprintf(p.w, "[%d/%d] %s: failed at %s: %v\n", done, total, name, r.Stage, r.Err)
	case indexer.StateSkipped:
		fmt.Fprintf(p.w, "[%d/%d] %s: skipped (%s)\n", done, total, name, r.Reason)
	default:
		fmt.Fprintf(p.w, "[%d/%d] %s: %s %s %q\n", done, total, name, r.State, r.Kind, recordName(r))
	}
}

// Summary prints the batch totals followed by the log of every failed
// submission.
func (p *Printer) Summary(s *indexer.Summary) {
	fmt.Fprintf(p.w, "Indexed %d, skipped %d, failed %d (%s in %s)\n",
		s.Indexed, s.Skipped, s.Failed, humanize.Bytes(uint64(s.Bytes)), s.Duration.Round(time.Millisecond))

	for _, r := range s.Results {
		if r.State != indexer.StateFailed {
			continue
		}
		fmt.Fprintf(p.w, "\n%s\n", r.Submission.Path)
		if r.Log == nil {
			continue
		}
		for _, e := range r.Log.Entries() {
			if e.Type == incoming.Info {
				continue
			}
			fmt.Fprintf(p.w, "  %s\n", e)
		}
	}
}

func recordName(r indexer.Result) string {
	if r.Record == nil {
		return ""
	}
	return r.Record.Name
}
