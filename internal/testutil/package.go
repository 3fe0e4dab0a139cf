package testutil

import (
	"encoding/binary"

	"github.com/richardsondev/unreal-archive/internal/unreal"
)

type builderImport struct {
	classPackage, className int32
	outer                   int32
	name                    int32
}

type builderExport struct {
	class, super, outer int32
	name                int32
	flags               uint32
	data                []byte
}

// PackageBuilder assembles a minimal engine package for tests: a header,
// name table, import and export tables, and raw export data.
type PackageBuilder struct {
	Version int
	names   []string
	imports []builderImport
	exports []builderExport
}

// NewPackageBuilder starts a package saved with the given file version.
func NewPackageBuilder(version int) *PackageBuilder {
	b := &PackageBuilder{Version: version}
	b.Name("None")
	return b
}

// Name returns the index of s in the name table, adding it if needed.
func (b *PackageBuilder) Name(s string) int32 {
	for i, n := range b.names {
		if n == s {
			return int32(i)
		}
	}
	b.names = append(b.names, s)
	return int32(len(b.names) - 1)
}

// ImportPackage adds a top-level package import and returns its reference.
func (b *PackageBuilder) ImportPackage(name string) int32 {
	return b.importObject("Core", "Package", 0, name)
}

// ImportObject adds an import of class className named name, owned by outer.
func (b *PackageBuilder) ImportObject(outer int32, className, name string) int32 {
	return b.importObject("Core", className, outer, name)
}

func (b *PackageBuilder) importObject(classPackage, className string, outer int32, name string) int32 {
	b.imports = append(b.imports, builderImport{
		classPackage: b.Name(classPackage),
		className:    b.Name(className),
		outer:        outer,
		name:         b.Name(name),
	})
	return int32(-len(b.imports))
}

// Export adds an exported object and returns its reference.
func (b *PackageBuilder) Export(class, outer int32, name string, data []byte) int32 {
	b.exports = append(b.exports, builderExport{class: class, outer: outer, name: b.Name(name), data: data})
	return int32(len(b.exports))
}

// Prop is a property to serialise with Properties.
type Prop struct {
	Name string
	Str  string
	Int  int32
	Ref  int32
	Type unreal.PropertyType
}

func StrProp(name, value string) Prop {
	return Prop{Name: name, Str: value, Type: unreal.StrProperty}
}

func IntProp(name string, value int32) Prop {
	return Prop{Name: name, Int: value, Type: unreal.IntProperty}
}

func ObjectProp(name string, ref int32) Prop {
	return Prop{Name: name, Ref: ref, Type: unreal.ObjectProperty}
}

// Properties serialises a property list terminated by "None".
func (b *PackageBuilder) Properties(props ...Prop) []byte {
	var out []byte
	for _, p := range props {
		var value []byte
		switch p.Type {
		case unreal.StrProperty:
			value = unreal.AppendCompactIndex(nil, int32(len(p.Str)+1))
			value = append(value, p.Str...)
			value = append(value, 0)
		case unreal.IntProperty:
			value = binary.LittleEndian.AppendUint32(nil, uint32(p.Int))
		case unreal.ObjectProperty:
			value = unreal.AppendCompactIndex(nil, p.Ref)
		}
		out = unreal.AppendCompactIndex(out, b.Name(p.Name))
		var sizeCode byte
		var sizeBytes []byte
		switch n := len(value); {
		case n == 1:
			sizeCode = 0
		case n == 2:
			sizeCode = 1
		case n == 4:
			sizeCode = 2
		case n == 12:
			sizeCode = 3
		case n == 16:
			sizeCode = 4
		case n <= 0xFF:
			sizeCode, sizeBytes = 5, []byte{byte(n)}
		case n <= 0xFFFF:
			sizeCode, sizeBytes = 6, binary.LittleEndian.AppendUint16(nil, uint16(n))
		default:
			sizeCode, sizeBytes = 7, binary.LittleEndian.AppendUint32(nil, uint32(n))
		}
		out = append(out, byte(p.Type)|sizeCode<<4)
		out = append(out, sizeBytes...)
		out = append(out, value...)
	}
	return unreal.AppendCompactIndex(out, b.Name("None"))
}

// Bytes produces the complete package.
func (b *PackageBuilder) Bytes() []byte {
	const headerSize = 36
	out := make([]byte, headerSize)

	offsets := make([]int, len(b.exports))
	for i, e := range b.exports {
		offsets[i] = len(out)
		out = append(out, e.data...)
	}

	nameOffset := len(out)
	for _, n := range b.names {
		if b.Version < 64 {
			out = append(out, n...)
			out = append(out, 0)
		} else {
			out = unreal.AppendCompactIndex(out, int32(len(n)+1))
			out = append(out, n...)
			out = append(out, 0)
		}
		out = binary.LittleEndian.AppendUint32(out, 0)
	}

	importOffset := len(out)
	for _, imp := range b.imports {
		out = unreal.AppendCompactIndex(out, imp.classPackage)
		out = unreal.AppendCompactIndex(out, imp.className)
		out = binary.LittleEndian.AppendUint32(out, uint32(imp.outer))
		out = unreal.AppendCompactIndex(out, imp.name)
	}

	exportOffset := len(out)
	for i, e := range b.exports {
		out = unreal.AppendCompactIndex(out, e.class)
		out = unreal.AppendCompactIndex(out, e.super)
		out = binary.LittleEndian.AppendUint32(out, uint32(e.outer))
		out = unreal.AppendCompactIndex(out, e.name)
		out = binary.LittleEndian.AppendUint32(out, e.flags)
		out = unreal.AppendCompactIndex(out, int32(len(e.data)))
		if len(e.data) > 0 {
			out = unreal.AppendCompactIndex(out, int32(offsets[i]))
		}
	}

	binary.LittleEndian.PutUint32(out[0:], unreal.Signature)
	binary.LittleEndian.PutUint16(out[4:], uint16(b.Version))
	binary.LittleEndian.PutUint16(out[6:], 0)
	binary.LittleEndian.PutUint32(out[8:], 0)
	binary.LittleEndian.PutUint32(out[12:], uint32(len(b.names)))
	binary.LittleEndian.PutUint32(out[16:], uint32(nameOffset))
	binary.LittleEndian.PutUint32(out[20:], uint32(len(b.exports)))
	binary.LittleEndian.PutUint32(out[24:], uint32(exportOffset))
	binary.LittleEndian.PutUint32(out[28:], uint32(len(b.imports)))
	binary.LittleEndian.PutUint32(out[32:], uint32(importOffset))
	return out
}

// MapPackage builds a map package named after a map, whose LevelInfo
// carries the given title and author, and which imports one object from
// each of the required packages.
func MapPackage(version int, title, author string, requires map[string]string) []byte {
	b := NewPackageBuilder(version)
	engine := b.ImportPackage("Engine")
	levelInfo := b.ImportObject(engine, "Class", "LevelInfo")
	for pkg, obj := range requires {
		ref := b.ImportPackage(pkg)
		b.ImportObject(ref, "Class", obj)
	}
	screenshot := b.Export(0, 0, "Screenshot", nil)
	props := b.Properties(
		StrProp("Title", title),
		StrProp("Author", author),
		StrProp("IdealPlayerCount", "4-8"),
		ObjectProp("Screenshot", screenshot),
	)
	b.Export(levelInfo, 0, "LevelInfo0", props)
	return b.Bytes()
}

// CodePackage builds a package that exports the named top-level objects.
func CodePackage(version int, exports ...string) []byte {
	b := NewPackageBuilder(version)
	for _, e := range exports {
		b.Export(0, 0, e, nil)
	}
	return b.Bytes()
}
