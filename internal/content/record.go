// Package content defines the records produced by indexing a submission and
// the helpers used to place them in the published content tree.
package content

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Unknown is the placeholder used for any descriptive field that could not
// be determined from the submission.
const Unknown = "Unknown"

// ReleaseDateFormat is the layout of Record.ReleaseDate.
const ReleaseDateFormat = "2006-01"

// Record is the structured result of indexing one submission. Exactly one of
// the kind payloads (Map, MapPack, ...) is populated, selected by Kind.
type Record struct {
	Kind       Kind      `yaml:"contentType"`
	FirstIndex time.Time `yaml:"firstIndex"`

	// VariationOf holds the hash of another record this one is an alternate
	// or historical version of. Variations are kept for provenance but not
	// listed on their own.
	VariationOf string `yaml:"variationOf,omitempty"`

	Game        string `yaml:"game"`
	Name        string `yaml:"name"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	ReleaseDate string `yaml:"releaseDate"`

	Attachments []Attachment `yaml:"attachments,omitempty"`

	OriginalFilename string                  `yaml:"originalFilename"`
	Hash             string                  `yaml:"hash"`
	FileSize         int64                   `yaml:"fileSize"`
	Files            []File                  `yaml:"files,omitempty"`
	OtherFiles       int                     `yaml:"otherFiles"`
	Dependencies     map[string][]Dependency `yaml:"dependencies,omitempty"`

	Downloads []Download        `yaml:"downloads,omitempty"`
	Links     map[string]string `yaml:"links,omitempty"`

	// Deleted records are ignored by listings and dependency resolution.
	Deleted bool `yaml:"deleted,omitempty"`

	Map     *Map     `yaml:"map,omitempty"`
	MapPack *MapPack `yaml:"mapPack,omitempty"`
	Skin    *Skin    `yaml:"skin,omitempty"`
	Model   *Model   `yaml:"model,omitempty"`
	Voice   *Voice   `yaml:"voice,omitempty"`
	Mutator *Mutator `yaml:"mutator,omitempty"`
}

// NewRecord creates an empty record of the given kind with its payload
// allocated and descriptive fields set to their defaults.
func NewRecord(kind Kind) *Record {
	r := &Record{
		Kind:         kind,
		Game:         Unknown,
		Author:       Unknown,
		Description:  "None",
		ReleaseDate:  Unknown,
		Dependencies: map[string][]Dependency{},
		Links:        map[string]string{},
	}
	switch kind {
	case KindMap:
		r.Map = &Map{Gametype: Unknown, Title: Unknown, PlayerCount: Unknown}
	case KindMapPack:
		r.MapPack = &MapPack{Gametype: Unknown}
	case KindSkin:
		r.Skin = &Skin{}
	case KindModel:
		r.Model = &Model{}
	case KindVoice:
		r.Voice = &Voice{}
	case KindMutator:
		r.Mutator = &Mutator{}
	}
	return r
}

// File is one deliverable file contained in a submission. Equality and
// ordering are case-insensitive on Name.
type File struct {
	Name     string `yaml:"name"`
	FileSize int64  `yaml:"fileSize"`
	Hash     string `yaml:"hash"`

	// Exports lists the top-level objects a package file declares. It is
	// only populated for package files and lets dependants verify that the
	// objects they import are actually provided.
	Exports []string `yaml:"exports,omitempty"`
}

// Equal reports whether two files have the same name (ignoring case) and hash.
func (f File) Equal(o File) bool {
	return strings.EqualFold(f.Name, o.Name) && f.Hash == o.Hash
}

// SortFiles orders files case-insensitively by name and drops duplicates.
func SortFiles(files []File) []File {
	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})
	out := files[:0]
	for _, f := range files {
		if len(out) > 0 && out[len(out)-1].Equal(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// DependencyStatus classifies whether a referenced package is available.
type DependencyStatus string

const (
	DependencyOK      DependencyStatus = "OK"      // provided, and required objects present where known
	DependencyMissing DependencyStatus = "MISSING" // no known record provides the package
	DependencyPartial DependencyStatus = "PARTIAL" // provided, but required objects were not found in it
)

// Dependency is a value snapshot of one resolved package reference.
type Dependency struct {
	Status     DependencyStatus `yaml:"status"`
	Name       string           `yaml:"name"`
	ProvidedBy string           `yaml:"providedBy,omitempty"`
}

func (d Dependency) String() string {
	return fmt.Sprintf("Dependency [status=%s, name=%s, providedBy=%s]", d.Status, d.Name, d.ProvidedBy)
}

type AttachmentType string

const (
	AttachmentImage    AttachmentType = "IMAGE"
	AttachmentVideo    AttachmentType = "VIDEO"
	AttachmentMarkdown AttachmentType = "MARKDOWN"
	AttachmentOther    AttachmentType = "OTHER"
)

type Attachment struct {
	Type AttachmentType `yaml:"type"`
	Name string         `yaml:"name"`
	URL  string         `yaml:"url"`
}

type DownloadState string

const (
	DownloadOK      DownloadState = "OK"
	DownloadMissing DownloadState = "MISSING"
	DownloadDeleted DownloadState = "DELETED"
)

type Download struct {
	URL    string        `yaml:"url"`
	Main   bool          `yaml:"main"`
	Repack bool          `yaml:"repack"`
	State  DownloadState `yaml:"state"`
}

// IsVariation reports whether this record is an alternate of another record.
func (r *Record) IsVariation() bool {
	return strings.TrimSpace(r.VariationOf) != ""
}

// Listed reports whether the record belongs in primary listings.
func (r *Record) Listed() bool {
	return !r.Deleted && !r.IsVariation()
}

// AuthorOrUnknown returns the author, or Unknown when blank.
func (r *Record) AuthorOrUnknown() string {
	if strings.TrimSpace(r.Author) == "" {
		return Unknown
	}
	return r.Author
}

// HasDownload reports whether url is already a known download location.
func (r *Record) HasDownload(url string) bool {
	for _, d := range r.Downloads {
		if d.URL == url {
			return true
		}
	}
	return false
}

// MainDownload returns the primary download, if one has been recorded.
func (r *Record) MainDownload() (Download, bool) {
	for _, d := range r.Downloads {
		if d.Main {
			return d, true
		}
	}
	return Download{}, false
}

// LeadImage returns the URL of the first image attachment, or "".
func (r *Record) LeadImage() string {
	for _, a := range r.Attachments {
		if a.Type == AttachmentImage {
			return a.URL
		}
	}
	return ""
}

var fullDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Release returns the release date truncated to year and month.
func (r *Record) Release() string {
	if fullDate.MatchString(r.ReleaseDate) {
		return r.ReleaseDate[:7]
	}
	return r.ReleaseDate
}

// SubGrouping is the first letter or digit of the name, used for
// partitioning. Names starting with a digit, or with no usable character,
// group under "0".
func (r *Record) SubGrouping() string {
	for _, c := range strings.ToUpper(r.Name) {
		switch {
		case c >= 'A' && c <= 'Z':
			return string(c)
		case unicode.IsDigit(c):
			return "0"
		}
	}
	return "0"
}

// ContentPath returns the record's location in the published content tree:
//
//	<kind>/<game>/<grouping>/<slug(name)>_<hash[:8]>/
func (r *Record) ContentPath() string {
	hash := r.Hash
	if len(hash) > 8 {
		hash = hash[:8]
	}
	return fmt.Sprintf("%s/%s/%s/%s/",
		r.Kind.PathName(), Slug(r.Game), r.SubGrouping(), Slug(r.Name+"_"+hash))
}

// Equivalent reports whether two records describe the same content,
// ignoring when they were first indexed.
func (r *Record) Equivalent(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	a, b := *r, *o
	a.FirstIndex, b.FirstIndex = time.Time{}, time.Time{}
	ab, errA := yaml.Marshal(&a)
	bb, errB := yaml.Marshal(&b)
	return errA == nil && errB == nil && string(ab) == string(bb)
}

// AutoDescription produces a generated description for listings.
func (r *Record) AutoDescription(names *AuthorNames) string {
	game := GameByName(r.Game).BigName
	by := ""
	if author := names.Normalize(r.AuthorOrUnknown()); !strings.EqualFold(author, Unknown) {
		by = ", created by " + author
	}
	switch r.Kind {
	case KindMap:
		return fmt.Sprintf("%s, a %s map for %s%s", r.Map.Title, r.Map.Gametype, game, by)
	case KindMapPack:
		return fmt.Sprintf("%s, a %s map pack for %s containing %s%s",
			r.Name, r.MapPack.Gametype, game, plural(len(r.MapPack.Maps), "map"), by)
	case KindSkin:
		return fmt.Sprintf("%s, a skin for %s with %s%s", r.Name, game, plural(len(r.Skin.Skins), "skin"), by)
	case KindModel:
		return fmt.Sprintf("%s, a player model for %s with %s%s", r.Name, game, plural(len(r.Model.Models), "model"), by)
	case KindVoice:
		return fmt.Sprintf("%s, a voice pack for %s with %s%s", r.Name, game, plural(len(r.Voice.Voices), "voice"), by)
	case KindMutator:
		return fmt.Sprintf("%s, a mutator for %s with %s%s", r.Name, game, plural(len(r.Mutator.Mutators), "mutator"), by)
	default:
		return r.Description
	}
}

func plural(n int, noun string) string {
	switch n {
	case 0:
		return "no " + noun + "s"
	case 1:
		return "1 " + noun
	default:
		return fmt.Sprintf("%d %ss", n, noun)
	}
}

// NameDescription is a named item with an optional description, such as a
// mutator or weapon declared in a metadata file.
type NameDescription struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type Map struct {
	Gametype    string `yaml:"gametype"`
	Title       string `yaml:"title"`
	PlayerCount string `yaml:"playerCount"`
	Screenshot  string `yaml:"screenshot,omitempty"`
}

type PackMap struct {
	Name   string `yaml:"name"`
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

type MapPack struct {
	Gametype string    `yaml:"gametype"`
	Maps     []PackMap `yaml:"maps,omitempty"`
}

type Skin struct {
	Skins []string `yaml:"skins,omitempty"`
	Faces []string `yaml:"faces,omitempty"`
	Model string   `yaml:"model,omitempty"`
}

type Model struct {
	Models []string `yaml:"models,omitempty"`
	Skins  []string `yaml:"skins,omitempty"`
}

type Voice struct {
	Voices []string `yaml:"voices,omitempty"`
}

type Mutator struct {
	Mutators      []NameDescription `yaml:"mutators,omitempty"`
	Weapons       []NameDescription `yaml:"weapons,omitempty"`
	HasConfigMenu bool              `yaml:"hasConfigMenu,omitempty"`
	HasKeybinds   bool              `yaml:"hasKeybinds,omitempty"`
}
