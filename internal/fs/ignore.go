package fs

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreFile is the per-directory file listing extra patterns to skip when
// a directory is expanded into submissions.
const IgnoreFile = ".uaignore"

// pattern is one glob. Globs containing '/' are matched against the path
// relative to the expanded directory, all others against the base name.
type pattern struct {
	glob     string
	relative bool
}

// IgnoreMatcher decides which files and directories are left out when a
// directory is expanded. The ignore file itself is always skipped.
type IgnoreMatcher struct {
	patterns []pattern
}

// NewIgnoreMatcher compiles raw patterns. Blank lines and '#' comments are
// skipped.
func NewIgnoreMatcher(raw []string) *IgnoreMatcher {
	m := &IgnoreMatcher{patterns: []pattern{{glob: IgnoreFile}}}
	m.add(raw)
	return m
}

// With returns a matcher with the additional raw patterns. m is unchanged.
func (m *IgnoreMatcher) With(raw []string) *IgnoreMatcher {
	out := &IgnoreMatcher{patterns: append([]pattern(nil), m.patterns...)}
	out.add(raw)
	return out
}

func (m *IgnoreMatcher) add(raw []string) {
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" || strings.HasPrefix(r, "#") {
			continue
		}
		m.patterns = append(m.patterns, pattern{glob: r, relative: strings.Contains(r, "/")})
	}
}

// Match reports whether rel, a path relative to the expanded directory,
// is ignored.
func (m *IgnoreMatcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)
	for _, p := range m.patterns {
		subject := base
		if p.relative {
			subject = rel
		}
		// malformed globs never match
		if ok, err := path.Match(p.glob, subject); err == nil && ok {
			return true
		}
	}
	return false
}

// ParseIgnoreFile reads raw patterns from the ignore file at p. A missing
// file yields no patterns.
func ParseIgnoreFile(p string) ([]string, error) {
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
