package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/deps"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/incoming"
	"github.com/richardsondev/unreal-archive/internal/unreal"
)

// base holds the behaviour common to every handler.
type base struct {
	env Env
}

// newRecord starts a record of kind for in, filling everything that does
// not depend on the kind: identity, files, release date and dependencies.
func (b *base) newRecord(kind content.Kind, in *incoming.Incoming) (*content.Record, []string) {
	r := content.NewRecord(kind)
	r.OriginalFilename = filepath.Base(in.Submission.Path)
	r.Hash = in.Hash
	r.FileSize = in.FileSize
	r.Name = nameFromFile(r.OriginalFilename)

	var warnings []string
	var newest time.Time
	for _, f := range in.Files() {
		if !filetype.Important(f.Path) {
			r.OtherFiles++
			continue
		}
		hash, err := f.Hash()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not hash %s: %v", f.Path, err))
			continue
		}
		r.Files = append(r.Files, content.File{
			Name:     f.Name(),
			FileSize: f.Size,
			Hash:     hash,
			Exports:  deps.Exports(f),
		})
		if f.ModTime.After(newest) {
			newest = f.ModTime
		}
	}
	r.Files = content.SortFiles(r.Files)
	if !newest.IsZero() {
		r.ReleaseDate = newest.UTC().Format(content.ReleaseDateFormat)
	}

	if b.env.Resolver != nil {
		found, warn := b.env.Resolver.Resolve(in.Files())
		r.Dependencies = found
		warnings = append(warnings, warn...)
	}
	return r, warnings
}

// finish applies forced and carried-over values and derives the
// description once the kind-specific fields are set.
func (b *base) finish(r *content.Record, in *incoming.Incoming, current *content.Record) {
	switch {
	case in.Submission.Game != "":
		r.Game = forcedGame(in.Submission.Game)
	case r.Game == content.Unknown && current != nil && current.Game != "":
		r.Game = current.Game
	}
	r.Author = b.env.Authors.Normalize(r.AuthorOrUnknown())
	r.Description = r.AutoDescription(b.env.Authors)
}

func forcedGame(name string) string {
	if g := content.GameByName(name); g.Name != content.GameUnknown.Name {
		return g.Name
	}
	return name
}

// nameFromFile derives a display name from a file name by dropping the
// extension, e.g. "DM-Deck16][.zip" -> "DM-Deck16][".
func nameFromFile(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if ext := filepath.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// openPackage reads a package file's tables. The returned close function
// must be called once the package is no longer used.
func openPackage(f *incoming.File) (*unreal.Package, func(), error) {
	r, err := f.Open()
	if err != nil {
		return nil, nil, err
	}
	p, err := unreal.Read(r)
	if err != nil && !(errors.Is(err, unreal.ErrUnsupportedVersion) && p != nil) {
		r.Close()
		return nil, nil, err
	}
	return p, func() { r.Close() }, nil
}

// packageGame guesses the game from the first readable package among
// files.
func packageGame(files []*incoming.File) content.Game {
	for _, f := range files {
		if !f.Type.IsPackage() {
			continue
		}
		r, err := f.Open()
		if err != nil {
			continue
		}
		version, _, err := unreal.ReadHeader(r)
		r.Close()
		if err == nil {
			return content.GameForPackageVersion(version)
		}
	}
	return content.GameUnknown
}

// objectName strips the package qualifier: "Botpack.TMale1" -> "TMale1".
func objectName(qualified string) string {
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

// describe returns the declaration's description, falling back to its
// object name.
func describe(decl map[string]string) string {
	for k, v := range decl {
		if strings.EqualFold(k, "Description") && v != "" {
			return v
		}
	}
	for k, v := range decl {
		if strings.EqualFold(k, "Name") {
			return objectName(v)
		}
	}
	return ""
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, e := range list {
		if strings.EqualFold(e, s) {
			return list
		}
	}
	return append(list, s)
}
