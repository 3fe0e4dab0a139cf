// Package filetype classifies files by extension into the kinds of content
// the archive understands.
package filetype

import (
	"path"
	"strings"
)

// Type is a kind of file, identified by extension.
type Type int

const (
	Unclassified Type = iota
	Code
	Map
	Package
	Texture
	Music
	Sound
	Animation
	StaticMesh
	Prefab
	Physics
	Player
	Int
	Ini
	UCL
	Container
	Text
	Markup
	Image
)

type definition struct {
	name      string
	important bool
	ext       []string
}

// Order matters only for extensions claimed by more than one type; none are
// at present.
var definitions = map[Type]definition{
	Code:       {"code", true, []string{"u"}},
	Map:        {"map", true, []string{"unr", "ut2", "ut3", "un2", "run"}},
	Package:    {"package", true, []string{"upk"}},
	Texture:    {"texture", true, []string{"utx"}},
	Music:      {"music", true, []string{"umx", "ogg"}},
	Sound:      {"sound", true, []string{"uax"}},
	Animation:  {"animation", true, []string{"ukx"}},
	StaticMesh: {"static-mesh", true, []string{"usx", "usm"}},
	Prefab:     {"prefab", true, []string{"upx"}},
	Physics:    {"physics", true, []string{"ka"}},
	Player:     {"player", true, []string{"upl"}},
	Int:        {"metadata-int", false, []string{"int"}},
	Ini:        {"metadata-ini", false, []string{"ini"}},
	UCL:        {"metadata-ucl", false, []string{"ucl"}},
	Container:  {"container", true, []string{"umod", "ut2mod", "ut4mod", "rmod"}},
	Text:       {"text", false, []string{"txt"}},
	Markup:     {"markup", false, []string{"html", "htm"}},
	Image:      {"image", false, []string{"jpg", "jpeg", "bmp", "png", "gif"}},
}

var byExtension = func() map[string]Type {
	m := make(map[string]Type)
	for t := Code; t <= Image; t++ {
		for _, e := range definitions[t].ext {
			m[e] = t
		}
	}
	return m
}()

// Packages are the types whose files are binary engine packages with a
// readable name/import/export table.
var Packages = []Type{Code, Map, Texture, Sound, Animation, StaticMesh, Package, Music}

// All lists every classified type.
var All = []Type{Code, Map, Package, Texture, Music, Sound, Animation, StaticMesh, Prefab,
	Physics, Player, Int, Ini, UCL, Container, Text, Markup, Image}

// Extension returns the lower-cased extension of p without the dot.
// Both '/' and '\' are treated as separators.
func Extension(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	ext := path.Ext(path.Base(p))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ForFile returns the type claiming p's extension, or Unclassified.
func ForFile(p string) Type {
	return byExtension[Extension(p)]
}

// Important reports whether p has an extension of a deliverable content
// type, as opposed to documentation and other ancillary files.
func Important(p string) bool {
	return definitions[ForFile(p)].important
}

// Matches reports whether p has one of t's extensions.
func (t Type) Matches(p string) bool {
	return t != Unclassified && ForFile(p) == t
}

// Important reports whether files of this type count as content.
func (t Type) Important() bool {
	return definitions[t].important
}

// Extensions returns the extensions claimed by t.
func (t Type) Extensions() []string {
	return append([]string(nil), definitions[t].ext...)
}

func (t Type) String() string {
	if d, ok := definitions[t]; ok {
		return d.name
	}
	return "unclassified"
}

// IsPackage reports whether t is one of Packages.
func (t Type) IsPackage() bool {
	for _, p := range Packages {
		if p == t {
			return true
		}
	}
	return false
}
