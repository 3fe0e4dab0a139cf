// Package unreal reads just enough of the engine's binary package format to
// describe a package: its name, import and export tables, and the simple
// properties of selected exported objects.
package unreal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// Signature is the magic number every package starts with.
const Signature uint32 = 0x9E2A83C1

const (
	maxTableEntries = 1 << 20
	maxNameLength   = 1 << 12

	// Packages saved by the third engine generation use a different header.
	firstUE3Version = 249
)

var (
	// ErrNotPackage is returned when the signature does not match.
	ErrNotPackage = errors.New("not an unreal package")
	// ErrMalformed is returned for truncated or inconsistent tables.
	ErrMalformed = errors.New("malformed package")
	// ErrUnsupportedVersion is returned for packages whose tables this
	// reader does not understand.
	ErrUnsupportedVersion = errors.New("unsupported package version")
)

// Import is an object referenced from another package.
type Import struct {
	ClassPackage string
	ClassName    string
	Outer        int32
	Name         string
}

// Export is an object defined by this package.
type Export struct {
	Class        int32
	Super        int32
	Outer        int32
	Name         string
	Flags        uint32
	SerialSize   int64
	SerialOffset int64
}

// Reference is another package this package depends on, and the top-level
// objects it uses from it.
type Reference struct {
	Name    string
	Objects []string
}

// Package is a parsed package header with its name, import and export tables.
type Package struct {
	Version  int
	Licensee int
	Flags    uint32
	Names    []string
	Imports  []Import
	Exports  []Export

	r io.ReaderAt
}

type header struct {
	nameCount, nameOffset     int32
	exportCount, exportOffset int32
	importCount, importOffset int32
}

// ReadHeader reads only the signature and version information.
func ReadHeader(r io.ReaderAt) (version, licensee int, err error) {
	var buf [8]byte
	if _, err := r.ReadAt(buf[:], 0); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotPackage, err)
	}
	if binary.LittleEndian.Uint32(buf[:4]) != Signature {
		return 0, 0, ErrNotPackage
	}
	return int(binary.LittleEndian.Uint16(buf[4:6])), int(binary.LittleEndian.Uint16(buf[6:8])), nil
}

// Read parses the package's header and tables. Object data is read lazily
// through r, which must remain open for as long as the Package is used.
func Read(r io.ReaderAt) (*Package, error) {
	version, licensee, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	p := &Package{Version: version, Licensee: licensee, r: r}
	if version >= firstUE3Version {
		return p, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	var raw [28]byte
	if _, err := r.ReadAt(raw[:], 8); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	p.Flags = binary.LittleEndian.Uint32(raw[0:4])
	h := header{
		nameCount:    int32(binary.LittleEndian.Uint32(raw[4:8])),
		nameOffset:   int32(binary.LittleEndian.Uint32(raw[8:12])),
		exportCount:  int32(binary.LittleEndian.Uint32(raw[12:16])),
		exportOffset: int32(binary.LittleEndian.Uint32(raw[16:20])),
		importCount:  int32(binary.LittleEndian.Uint32(raw[20:24])),
		importOffset: int32(binary.LittleEndian.Uint32(raw[24:28])),
	}
	for _, c := range []int32{h.nameCount, h.exportCount, h.importCount} {
		if c < 0 || c > maxTableEntries {
			return nil, fmt.Errorf("%w: table size %d", ErrMalformed, c)
		}
	}
	for _, o := range []int32{h.nameOffset, h.exportOffset, h.importOffset} {
		if o < 0 {
			return nil, fmt.Errorf("%w: table offset %d", ErrMalformed, o)
		}
	}

	if err := p.readNames(h); err != nil {
		return nil, err
	}
	if err := p.readImports(h); err != nil {
		return nil, err
	}
	if err := p.readExports(h); err != nil {
		return nil, err
	}
	return p, nil
}

// tableReader reads sequential fields from an offset, remembering the first
// error encountered.
type tableReader struct {
	br  *bufio.Reader
	err error
}

func newTableReader(r io.ReaderAt, offset int64) *tableReader {
	return &tableReader{br: bufio.NewReader(io.NewSectionReader(r, offset, math.MaxInt64-offset))}
}

func (t *tableReader) compact() int32 {
	if t.err != nil {
		return 0
	}
	v, err := ReadCompactIndex(t.br)
	if err != nil {
		t.err = err
	}
	return v
}

func (t *tableReader) u32() uint32 {
	if t.err != nil {
		return 0
	}
	var b [4]byte
	if _, err := io.ReadFull(t.br, b[:]); err != nil {
		t.err = err
		return 0
	}
	return binary.LittleEndian.Uint32(b[:])
}

func (t *tableReader) i32() int32 { return int32(t.u32()) }

// cstring reads a NUL terminated string.
func (t *tableReader) cstring() string {
	if t.err != nil {
		return ""
	}
	s, err := t.br.ReadString(0)
	if err != nil {
		t.err = err
		return ""
	}
	if len(s) > maxNameLength {
		t.err = fmt.Errorf("%w: name too long", ErrMalformed)
		return ""
	}
	return strings.TrimSuffix(s, "\x00")
}

// sized reads a compact-length prefixed string; negative lengths denote
// UTF-16 characters.
func (t *tableReader) sized() string {
	n := t.compact()
	if t.err != nil {
		return ""
	}
	wide := n < 0
	if wide {
		n = -n
	}
	if n > maxNameLength {
		t.err = fmt.Errorf("%w: string length %d", ErrMalformed, n)
		return ""
	}
	if !wide {
		b := make([]byte, n)
		if _, err := io.ReadFull(t.br, b); err != nil {
			t.err = err
			return ""
		}
		return strings.TrimRight(string(b), "\x00")
	}
	b := make([]byte, 2*n)
	if _, err := io.ReadFull(t.br, b); err != nil {
		t.err = err
		return ""
	}
	runes := make([]rune, 0, n)
	for i := 0; i+1 < len(b); i += 2 {
		c := binary.LittleEndian.Uint16(b[i:])
		if c == 0 {
			break
		}
		runes = append(runes, rune(c))
	}
	return string(runes)
}

func (p *Package) readNames(h header) error {
	t := newTableReader(p.r, int64(h.nameOffset))
	p.Names = make([]string, 0, h.nameCount)
	for i := int32(0); i < h.nameCount; i++ {
		var name string
		if p.Version < 64 {
			name = t.cstring()
		} else {
			name = t.sized()
		}
		t.u32() // flags
		if t.err != nil {
			return fmt.Errorf("%w: name %d: %v", ErrMalformed, i, t.err)
		}
		p.Names = append(p.Names, name)
	}
	return nil
}

func (p *Package) name(t *tableReader) string {
	idx := t.compact()
	if t.err != nil {
		return ""
	}
	if idx < 0 || int(idx) >= len(p.Names) {
		t.err = fmt.Errorf("%w: name index %d out of range", ErrMalformed, idx)
		return ""
	}
	return p.Names[idx]
}

func (p *Package) readImports(h header) error {
	t := newTableReader(p.r, int64(h.importOffset))
	p.Imports = make([]Import, 0, h.importCount)
	for i := int32(0); i < h.importCount; i++ {
		imp := Import{
			ClassPackage: p.name(t),
			ClassName:    p.name(t),
			Outer:        t.i32(),
			Name:         p.name(t),
		}
		if t.err != nil {
			return fmt.Errorf("%w: import %d: %v", ErrMalformed, i, t.err)
		}
		p.Imports = append(p.Imports, imp)
	}
	return nil
}

func (p *Package) readExports(h header) error {
	t := newTableReader(p.r, int64(h.exportOffset))
	p.Exports = make([]Export, 0, h.exportCount)
	for i := int32(0); i < h.exportCount; i++ {
		exp := Export{
			Class: t.compact(),
			Super: t.compact(),
			Outer: t.i32(),
			Name:  p.name(t),
			Flags: t.u32(),
		}
		exp.SerialSize = int64(t.compact())
		if exp.SerialSize > 0 {
			exp.SerialOffset = int64(t.compact())
		}
		if t.err != nil {
			return fmt.Errorf("%w: export %d: %v", ErrMalformed, i, t.err)
		}
		p.Exports = append(p.Exports, exp)
	}
	return nil
}

// ObjectName resolves an object reference: negative values index imports,
// positive values index exports, zero is none.
func (p *Package) ObjectName(ref int32) string {
	switch {
	case ref < 0 && int(-ref-1) < len(p.Imports):
		return p.Imports[-ref-1].Name
	case ref > 0 && int(ref-1) < len(p.Exports):
		return p.Exports[ref-1].Name
	default:
		return ""
	}
}

// ClassName returns the class name of an exported object. Exports with no
// class are themselves classes.
func (p *Package) ClassName(e Export) string {
	if e.Class == 0 {
		return "Class"
	}
	return p.ObjectName(e.Class)
}

// ExportsOfClass returns all exports whose class name matches, ignoring case.
func (p *Package) ExportsOfClass(class string) []Export {
	var out []Export
	for _, e := range p.Exports {
		if strings.EqualFold(p.ClassName(e), class) {
			out = append(out, e)
		}
	}
	return out
}

// TopLevelExports returns the names of exports with no outer object.
func (p *Package) TopLevelExports() []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range p.Exports {
		if e.Outer == 0 && !seen[strings.ToLower(e.Name)] {
			seen[strings.ToLower(e.Name)] = true
			out = append(out, e.Name)
		}
	}
	return out
}

// References returns the packages this package imports from, each with the
// names of the objects it uses directly from that package. Order follows
// the import table.
func (p *Package) References() []Reference {
	var refs []Reference
	index := make(map[int32]int)
	for i, imp := range p.Imports {
		if imp.Outer == 0 && strings.EqualFold(imp.ClassName, "Package") {
			index[int32(-i-1)] = len(refs)
			refs = append(refs, Reference{Name: imp.Name})
		}
	}
	for _, imp := range p.Imports {
		if imp.Outer == 0 {
			continue
		}
		if ri, ok := index[imp.Outer]; ok {
			refs[ri].Objects = appendUnique(refs[ri].Objects, imp.Name)
		}
	}
	return refs
}

func appendUnique(list []string, s string) []string {
	for _, e := range list {
		if strings.EqualFold(e, s) {
			return list
		}
	}
	return append(list, s)
}
