// Package intfile parses the line-oriented .int, .ini and .ucl metadata
// files that accompany game content. Sections are introduced with
// "[Name]"; lines before the first section belong to the unnamed section.
// A key may repeat, collecting a list of values, and a value written as
// "(A=B,C="D, E")" is additionally decoded into a map.
package intfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Value is one assignment's right hand side.
type Value struct {
	Raw string
	// Map is non-nil when Raw is a parenthesised key=value list.
	Map map[string]string
}

// Get returns a map member, matching key case-insensitively.
func (v Value) Get(key string) string {
	for k, s := range v.Map {
		if strings.EqualFold(k, key) {
			return s
		}
	}
	return ""
}

func (v Value) String() string { return v.Raw }

// Section is a named group of keys, in file order.
type Section struct {
	Name   string
	keys   []string
	values map[string][]Value
}

// Keys returns the section's distinct keys in the order first seen.
func (s *Section) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Value returns the first value assigned to key.
func (s *Section) Value(key string) (Value, bool) {
	vs := s.values[strings.ToLower(key)]
	if len(vs) == 0 {
		return Value{}, false
	}
	return vs[0], true
}

// Values returns every value assigned to key, in file order.
func (s *Section) Values(key string) []Value {
	return s.values[strings.ToLower(key)]
}

func (s *Section) add(key string, v Value) {
	lk := strings.ToLower(key)
	if _, ok := s.values[lk]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[lk] = append(s.values[lk], v)
}

// File is a parsed metadata file.
type File struct {
	sections []*Section
	byName   map[string]*Section
}

// ReadFile parses the file at path.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a metadata file. UTF-8 and BOM-marked UTF-16 input are both
// accepted, since the games wrote localisation files in either.
func Parse(r io.Reader) (*File, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	f := &File{byName: make(map[string]*Section)}
	current := f.section("")

	sc := bufio.NewScanner(decoded)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "", strings.HasPrefix(line, ";"), strings.HasPrefix(line, "//"):
			continue
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			current = f.section(strings.TrimSpace(line[1 : len(line)-1]))
			continue
		}
		key, raw, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		current.add(key, parseValue(strings.TrimSpace(raw)))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	return f, nil
}

func (f *File) section(name string) *Section {
	lk := strings.ToLower(name)
	if s, ok := f.byName[lk]; ok {
		return s
	}
	s := &Section{Name: name, values: make(map[string][]Value)}
	f.sections = append(f.sections, s)
	f.byName[lk] = s
	return s
}

// Section returns the named section, matched case-insensitively, or nil.
// The empty name selects lines that precede any section header.
func (f *File) Section(name string) *Section {
	return f.byName[strings.ToLower(name)]
}

// Sections returns all sections in file order.
func (f *File) Sections() []*Section {
	out := make([]*Section, len(f.sections))
	copy(out, f.sections)
	return out
}

// Values collects the values for key across the named section, or across
// every section when section is "*".
func (f *File) Values(section, key string) []Value {
	if section != "*" {
		if s := f.Section(section); s != nil {
			return s.Values(key)
		}
		return nil
	}
	var out []Value
	for _, s := range f.sections {
		out = append(out, s.Values(key)...)
	}
	return out
}

func parseValue(raw string) Value {
	v := Value{Raw: unquote(raw)}
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		v.Raw = raw
		v.Map = parseMap(raw[1 : len(raw)-1])
	}
	return v
}

// parseMap splits a comma separated key=value list, honouring double
// quotes and nested parentheses.
func parseMap(s string) map[string]string {
	m := make(map[string]string)
	var parts []string
	depth, quoted, start := 0, false, 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	for _, p := range parts {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		m[k] = unquote(strings.TrimSpace(v))
	}
	return m
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
