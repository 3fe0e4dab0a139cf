// Package deps works out which packages a submission needs from elsewhere,
// and which already-indexed content provides them.
package deps

import (
	"sort"
	"strings"
	"time"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/filetype"
)

// Provider is an indexed record that ships a package file.
type Provider struct {
	RecordHash string
	RecordName string
	FileName   string
	FirstIndex time.Time
	Deleted    bool
	Variation  bool

	// exports holds the lowercased top-level exports of the file. Empty
	// means the exports are not known.
	exports map[string]bool
}

// Provides reports whether the provider is known to export object. When
// the provider's exports are unknown the answer is true.
func (p Provider) Provides(object string) bool {
	if len(p.exports) == 0 {
		return true
	}
	return p.exports[strings.ToLower(object)]
}

// KnowsExports reports whether the provider's export list is available.
func (p Provider) KnowsExports() bool { return len(p.exports) > 0 }

// better orders providers: live records before deleted ones, originals
// before variations, then most recently indexed, then by hash so the order
// is total.
func better(a, b Provider) bool {
	if a.Deleted != b.Deleted {
		return !a.Deleted
	}
	if a.Variation != b.Variation {
		return !a.Variation
	}
	if !a.FirstIndex.Equal(b.FirstIndex) {
		return a.FirstIndex.After(b.FirstIndex)
	}
	return a.RecordHash < b.RecordHash
}

// ProviderIndex maps package names to the records providing them. It is
// built once per batch and is read-only afterwards, so it may be shared by
// any number of goroutines.
type ProviderIndex struct {
	byName map[string][]Provider
}

// PackageName is the name a package file is referenced by: its base name
// without extension, e.g. "Botpack" for "System/Botpack.u".
func PackageName(fileName string) string {
	base := fileName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if ext := filetype.Extension(base); ext != "" {
		base = base[:len(base)-len(ext)-1]
	}
	return base
}

// NewProviderIndex indexes every package file of records.
func NewProviderIndex(records []*content.Record) *ProviderIndex {
	idx := &ProviderIndex{byName: make(map[string][]Provider)}
	for _, r := range records {
		if r == nil {
			continue
		}
		// One record may ship several files with the same package name,
		// such as a code package and its texture package.
		merged := make(map[string]*Provider)
		var order []string
		for _, f := range r.Files {
			if !filetype.ForFile(f.Name).IsPackage() {
				continue
			}
			key := strings.ToLower(PackageName(f.Name))
			p, ok := merged[key]
			if !ok {
				p = &Provider{
					RecordHash: r.Hash,
					RecordName: r.Name,
					FileName:   f.Name,
					FirstIndex: r.FirstIndex,
					Deleted:    r.Deleted,
					Variation:  r.IsVariation(),
				}
				merged[key] = p
				order = append(order, key)
			}
			for _, e := range f.Exports {
				if p.exports == nil {
					p.exports = make(map[string]bool)
				}
				p.exports[strings.ToLower(e)] = true
			}
		}
		for _, key := range order {
			idx.byName[key] = append(idx.byName[key], *merged[key])
		}
	}
	for key, ps := range idx.byName {
		sort.SliceStable(ps, func(i, j int) bool { return better(ps[i], ps[j]) })
		idx.byName[key] = ps
	}
	return idx
}

// Providers returns every provider of the named package, best first.
func (idx *ProviderIndex) Providers(name string) []Provider {
	ps := idx.byName[strings.ToLower(name)]
	out := make([]Provider, len(ps))
	copy(out, ps)
	return out
}

// Best returns the preferred provider of the named package.
func (idx *ProviderIndex) Best(name string) (Provider, bool) {
	ps := idx.byName[strings.ToLower(name)]
	if len(ps) == 0 {
		return Provider{}, false
	}
	return ps[0], true
}

// Len is the number of distinct package names indexed.
func (idx *ProviderIndex) Len() int { return len(idx.byName) }
