package content

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestRecord_ContentPath(t *testing.T) {
	tests := []struct {
		name   string
		record *Record
		want   string
	}{
		{
			name:   "map",
			record: &Record{Kind: KindMap, Game: "Unreal Tournament", Name: "DM-Deck16", Hash: "0123456789abcdef"},
			want:   "maps/unreal-tournament/D/dm-deck16_01234567/",
		},
		{
			name:   "map pack with digit name",
			record: &Record{Kind: KindMapPack, Game: "Unreal Tournament 2004", Name: "2Fort Pack", Hash: "ffffffffffff"},
			want:   "mappacks/unreal-tournament-2004/0/2fort-pack_ffffffff/",
		},
		{
			name:   "name without letters",
			record: &Record{Kind: KindSkin, Game: "Unknown", Name: "!!!", Hash: "abcdef0123"},
			want:   "skins/unknown/0/_abcdef01/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.record.ContentPath(); got != tt.want {
				t.Errorf("ContentPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecord_SubGrouping(t *testing.T) {
	tests := map[string]string{
		"CTF-Face":  "C",
		"[xX]Skins": "X",
		"7 Bridges": "0",
		"":          "0",
		"élan":      "L",
	}
	for name, want := range tests {
		r := &Record{Name: name}
		if got := r.SubGrouping(); got != want {
			t.Errorf("SubGrouping(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestSortFiles(t *testing.T) {
	files := []File{
		{Name: "b.utx", Hash: "2"},
		{Name: "A.unr", Hash: "1"},
		{Name: "a.UNR", Hash: "1"},
		{Name: "C.u", Hash: "3"},
	}

	got := SortFiles(files)
	want := []File{
		{Name: "A.unr", Hash: "1"},
		{Name: "b.utx", Hash: "2"},
		{Name: "C.u", Hash: "3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestGametypeForMap(t *testing.T) {
	tests := map[string]string{
		"CTF-GRD-Cake":  "Greed",
		"VCTF-GRD-Cake": "Greed",
		"CTF-Lies":      "Capture The Flag",
		"DM-DeathMatch": "DeathMatch",
		"ONS-Torlan":    "Onslaught",
		"MyMap":         Unknown,
	}
	for name, want := range tests {
		if got := GametypeForMap(name); got != want {
			t.Errorf("GametypeForMap(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "map", want: KindMap},
		{in: "map_pack", want: KindMapPack},
		{in: "Map-Pack", want: KindMapPack},
		{in: "MUTATOR", want: KindMutator},
		{in: "sound", want: KindUnknown, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKind_Names(t *testing.T) {
	if got := KindMapPack.PathName(); got != "mappacks" {
		t.Errorf("PathName() = %q, want %q", got, "mappacks")
	}
	if got := KindMapPack.Friendly(); got != "Map Pack" {
		t.Errorf("Friendly() = %q, want %q", got, "Map Pack")
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Unreal Tournament": "unreal-tournament",
		"Café  Ñoño":        "cafe-nono",
		"DM-Foo_abc":        "dm-foo_abc",
		"  --x--  ":         "x",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAuthorNames_Normalize(t *testing.T) {
	names := NewAuthorNames(map[string][]string{
		"Joe Soap": {"joe", "JSoap"},
	})

	tests := map[string]string{
		"JOE":     "Joe Soap",
		"jsoap":   "Joe Soap",
		"Someone": "Someone",
		"  ":      Unknown,
	}
	for in, want := range tests {
		if got := names.Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}

	var none *AuthorNames
	if got := none.Normalize("joe"); got != "joe" {
		t.Errorf("nil Normalize() = %q, want %q", got, "joe")
	}
}

func TestRecord_Equivalent(t *testing.T) {
	a := NewRecord(KindMap)
	a.Name = "DM-Test"
	a.Hash = "abc"
	a.FirstIndex = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	b := NewRecord(KindMap)
	b.Name = "DM-Test"
	b.Hash = "abc"
	b.FirstIndex = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	if !a.Equivalent(b) {
		t.Error("Equivalent() = false for records differing only by FirstIndex")
	}

	b.Map.Title = "Changed"
	if a.Equivalent(b) {
		t.Error("Equivalent() = true for records with different titles")
	}
}

func TestRecord_AutoDescription(t *testing.T) {
	r := NewRecord(KindVoice)
	r.Name = "Robots"
	r.Game = GameUT.Name
	r.Author = "joe"
	r.Voice.Voices = []string{"Robot A", "Robot B"}

	names := NewAuthorNames(map[string][]string{"Joe Soap": {"joe"}})
	want := "Robots, a voice pack for Unreal Tournament (UT99) with 2 voices, created by Joe Soap"
	if got := r.AutoDescription(names); got != want {
		t.Errorf("AutoDescription() = %q, want %q", got, want)
	}
}

func TestGameDetection(t *testing.T) {
	tests := []struct {
		ext     string
		version int
		want    Game
	}{
		{"unr", 69, GameUT},
		{"unr", 61, GameUnreal},
		{"ut2", 119, GameUT2003},
		{"ut2", 128, GameUT2004},
		{"ut3", 0, GameUT3},
		{"run", 0, GameRune},
		{"u", 69, GameUT},
	}
	for _, tt := range tests {
		if got := GameForMap(tt.ext, tt.version); got.Name != tt.want.Name {
			t.Errorf("GameForMap(%q, %d) = %q, want %q", tt.ext, tt.version, got.Name, tt.want.Name)
		}
	}
	if got := GameByName("ut99"); got.Name != GameUT.Name {
		t.Errorf("GameByName(ut99) = %q, want %q", got.Name, GameUT.Name)
	}
}
