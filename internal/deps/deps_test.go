package deps

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/extract"
	"github.com/richardsondev/unreal-archive/internal/incoming"
	"github.com/richardsondev/unreal-archive/internal/testutil"
	"github.com/richardsondev/unreal-archive/internal/ua"
)

func record(hash, name string, first time.Time, files ...content.File) *content.Record {
	r := content.NewRecord(content.KindMutator)
	r.Hash = hash
	r.Name = name
	r.FirstIndex = first
	r.Files = files
	return r
}

func day(d int) time.Time { return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC) }

func TestPackageName(t *testing.T) {
	tests := map[string]string{
		"System/Botpack.u":    "Botpack",
		`System\Botpack.u`:    "Botpack",
		"Textures/My.Tex.utx": "My.Tex",
		"NoExt":               "NoExt",
	}
	for in, want := range tests {
		if got := PackageName(in); got != want {
			t.Errorf("PackageName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestProviderIndexOrdering(t *testing.T) {
	file := content.File{Name: "Weapons.u"}

	deleted := record("d", "Deleted", day(9), file)
	deleted.Deleted = true
	variation := record("v", "Variation", day(8), file)
	variation.VariationOf = "x"
	older := record("o", "Older", day(1), file)
	newerB := record("b", "Newer B", day(5), file)
	newerA := record("a", "Newer A", day(5), file)
	unrelated := record("u", "Readme only", day(7), content.File{Name: "ReadMe.txt"})

	idx := NewProviderIndex([]*content.Record{deleted, variation, older, newerB, unrelated, newerA})

	var got []string
	for _, p := range idx.Providers("WEAPONS") {
		got = append(got, p.RecordName)
	}
	want := []string{"Newer A", "Newer B", "Older", "Variation", "Deleted"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Providers() order mismatch (-want +got):\n%s", diff)
	}

	best, ok := idx.Best("weapons")
	require.True(t, ok)
	require.Equal(t, "a", best.RecordHash)

	_, ok = idx.Best("ReadMe")
	require.False(t, ok, "text files are not packages")
	require.Equal(t, 1, idx.Len())
}

func TestProviderExports(t *testing.T) {
	idx := NewProviderIndex([]*content.Record{
		record("a", "A", day(1),
			content.File{Name: "System/Pack.u", Exports: []string{"Rocket"}},
			content.File{Name: "Textures/Pack.utx", Exports: []string{"Wall"}},
		),
		record("b", "B", day(1), content.File{Name: "Other.u"}),
	})

	p, ok := idx.Best("pack")
	require.True(t, ok)
	require.True(t, p.KnowsExports())
	require.True(t, p.Provides("rocket"))
	require.True(t, p.Provides("WALL"))
	require.False(t, p.Provides("Flak"))

	o, ok := idx.Best("other")
	require.True(t, ok)
	require.False(t, o.KnowsExports())
	require.True(t, o.Provides("Anything"))
}

func prepare(t *testing.T, files ...testutil.ArchiveFile) *incoming.Incoming {
	t.Helper()
	src := testutil.WriteFile(t, t.TempDir(), "submission.zip", testutil.Zip(files...))
	engine := extract.NewEngine(time.Minute, extract.DefaultMaxDepth, ua.NewNopLogger())
	in, err := incoming.New(incoming.Submission{Path: src}, engine, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { in.Close() })
	require.NoError(t, in.Prepare(context.Background()))
	return in
}

func TestResolve(t *testing.T) {
	b := testutil.NewPackageBuilder(69)
	engine := b.ImportPackage("Engine")
	b.ImportObject(engine, "Class", "Actor")
	weapons := b.ImportPackage("Weapons")
	b.ImportObject(weapons, "Class", "Rocket")
	b.ImportObject(weapons, "Class", "Flak")
	textures := b.ImportPackage("WallTex")
	b.ImportObject(textures, "Texture", "Brick")
	sounds := b.ImportPackage("Sounds")
	b.ImportObject(sounds, "Sound", "Boom")
	local := b.ImportPackage("LocalTex")
	b.ImportObject(local, "Texture", "Floor")
	mapData := b.Bytes()

	in := prepare(t,
		testutil.ArchiveFile{Name: "Maps/DM-Deps.unr", Data: mapData},
		testutil.ArchiveFile{Name: "Textures/LocalTex.utx", Data: testutil.CodePackage(69, "Floor")},
	)

	idx := NewProviderIndex([]*content.Record{
		record("w1", "Old Weapons", day(1), content.File{Name: "System/Weapons.u", Exports: []string{"Rocket", "Flak"}}),
		record("w2", "New Weapons", day(2), content.File{Name: "System/Weapons.u", Exports: []string{"Rocket"}}),
		record("t1", "Wall Textures", day(1), content.File{Name: "Textures/WallTex.utx", Exports: []string{"Stone"}}),
	})
	resolver := NewResolver(idx, DefaultStockPackages)

	got, warnings := resolver.Resolve(in.Files())
	require.Empty(t, warnings)
	want := map[string][]content.Dependency{
		"DM-Deps.unr": {
			{Status: content.DependencyMissing, Name: "Sounds"},
			{Status: content.DependencyPartial, Name: "WallTex", ProvidedBy: "Wall Textures"},
			{Status: content.DependencyOK, Name: "Weapons", ProvidedBy: "Old Weapons"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveSameNamedFiles(t *testing.T) {
	in := prepare(t,
		testutil.ArchiveFile{Name: "v1/Maps/DM-X.unr", Data: testutil.MapPackage(69, "X", "a", map[string]string{"Alpha": "Thing"})},
		testutil.ArchiveFile{Name: "v2/Maps/DM-X.unr", Data: testutil.MapPackage(69, "X", "a", map[string]string{"Beta": "Thing", "Weapons": "Rocket"})},
		testutil.ArchiveFile{Name: "v3/Maps/DM-X.unr", Data: testutil.MapPackage(69, "X", "a", map[string]string{"Weapons": "Flak"})},
	)
	idx := NewProviderIndex([]*content.Record{
		record("w1", "Weapons", day(1), content.File{Name: "System/Weapons.u", Exports: []string{"Rocket"}}),
	})

	got, warnings := NewResolver(idx, DefaultStockPackages).Resolve(in.Files())
	require.Empty(t, warnings)
	want := map[string][]content.Dependency{
		"DM-X.unr": {
			{Status: content.DependencyMissing, Name: "Alpha"},
			{Status: content.DependencyMissing, Name: "Beta"},
			{Status: content.DependencyPartial, Name: "Weapons", ProvidedBy: "Weapons"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultStockPackagesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, p := range DefaultStockPackages {
		key := strings.ToLower(p)
		if seen[key] {
			t.Errorf("DefaultStockPackages lists %q twice", p)
		}
		seen[key] = true
	}
}

func TestResolveUnreadablePackage(t *testing.T) {
	in := prepare(t, testutil.ArchiveFile{Name: "System/Broken.u", Data: []byte("not a package")})
	got, warnings := NewResolver(nil, nil).Resolve(in.Files())
	require.Empty(t, got)
	require.Len(t, warnings, 1)
}

func TestExports(t *testing.T) {
	in := prepare(t,
		testutil.ArchiveFile{Name: "System/Pack.u", Data: testutil.CodePackage(69, "Zed", "Alpha")},
		testutil.ArchiveFile{Name: "ReadMe.txt", Data: []byte("hello")},
	)
	files := in.Files()
	require.Len(t, files, 2)
	require.Nil(t, Exports(files[0]))
	require.Equal(t, []string{"Alpha", "Zed"}, Exports(files[1]))
}
