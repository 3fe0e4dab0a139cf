// Package fs turns command line arguments into the list of files to index.
package fs

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stdin is the argument that reads newline separated paths from standard
// input.
const Stdin = "-"

// Expander resolves arguments into absolute paths of regular files.
type Expander struct {
	ignore *IgnoreMatcher
	stdin  io.Reader
}

// NewExpander creates an Expander applying the given ignore patterns when
// walking directories. stdin is read when an argument is "-".
func NewExpander(ignore []string, stdin io.Reader) *Expander {
	return &Expander{ignore: NewIgnoreMatcher(ignore), stdin: stdin}
}

// Expand resolves args in order. Files are taken as given, directories are
// walked recursively in lexical order, and "-" reads further paths from
// stdin. Every path must exist. Duplicates are dropped.
func (e *Expander) Expand(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if arg == Stdin {
			paths, err := e.readStdin()
			if err != nil {
				return nil, err
			}
			for _, p := range paths {
				if err := e.expandOne(p, add); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := e.expandOne(arg, add); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Expander) readStdin() ([]string, error) {
	if e.stdin == nil {
		return nil, fmt.Errorf("no input available for %q", Stdin)
	}
	var paths []string
	sc := bufio.NewScanner(e.stdin)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			paths = append(paths, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading paths from stdin: %w", err)
	}
	return paths, nil
}

func (e *Expander) expandOne(raw string, add func(string)) error {
	abs, err := filepath.Abs(raw)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("stat path: %w", err)
	}
	switch {
	case info.IsDir():
		return e.walk(abs, add)
	case info.Mode().IsRegular():
		add(abs)
		return nil
	default:
		return fmt.Errorf("not a regular file: %s", abs)
	}
}

// walk adds the regular files below root in lexical order. A directory's
// ignore file applies to everything beneath it.
func (e *Expander) walk(root string, add func(string)) error {
	// directories are visited before their contents, so a parent's
	// matcher is always known when a child is reached
	matchers := map[string]*IgnoreMatcher{}
	enter := func(dir string, parent *IgnoreMatcher) error {
		extra, err := ParseIgnoreFile(filepath.Join(dir, IgnoreFile))
		if err != nil {
			return err
		}
		if len(extra) > 0 {
			parent = parent.With(extra)
		}
		matchers[dir] = parent
		return nil
	}

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return enter(root, e.ignore)
		}
		m := matchers[filepath.Dir(p)]
		rel, _ := filepath.Rel(root, p)
		if m.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return enter(p, m)
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)
	for _, f := range files {
		add(f)
	}
	return nil
}
