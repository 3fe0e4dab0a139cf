package umod_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/richardsondev/unreal-archive/internal/testutil"
	"github.com/richardsondev/unreal-archive/internal/umod"
)

func writeUmod(t *testing.T, files ...testutil.ArchiveFile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.umod")
	if err := os.WriteFile(path, testutil.Umod(files...), 0o644); err != nil {
		t.Fatalf("failed to write container: %v", err)
	}
	return path
}

func TestOpen(t *testing.T) {
	path := writeUmod(t,
		testutil.ArchiveFile{Name: `System\MyMod.u`, Data: []byte("code package")},
		testutil.ArchiveFile{Name: `SYSTEM\MANIFEST.INT`, Data: []byte("[Setup]")},
		testutil.ArchiveFile{Name: `Help\ReadMe.txt`, Data: []byte("read me")},
		testutil.ArchiveFile{Name: `System\manifest.ini`, Data: []byte("[Setup]")},
	)

	r, err := umod.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	var names []string
	for _, e := range r.Entries() {
		names = append(names, e.Name)
	}
	want := []string{"System/MyMod.u", "Help/ReadMe.txt"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}

	e := r.Entries()[1]
	got, err := io.ReadAll(r.Open(e))
	if err != nil {
		t.Fatalf("reading entry: %v", err)
	}
	if string(got) != "read me" {
		t.Errorf("entry content = %q, want %q", got, "read me")
	}
	if e.Size != int64(len("read me")) {
		t.Errorf("entry size = %d, want %d", e.Size, len("read me"))
	}

	sum, err := r.Hash(e)
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if want := testutil.SHA1Hex([]byte("read me")); sum != want {
		t.Errorf("Hash() = %s, want %s", sum, want)
	}
}

func TestOpenEmpty(t *testing.T) {
	r, err := umod.Open(writeUmod(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()
	if n := len(r.Entries()); n != 0 {
		t.Errorf("Entries() = %d, want 0", n)
	}
}

func TestNewReaderMalformed(t *testing.T) {
	good := testutil.Umod(testutil.ArchiveFile{Name: "a.u", Data: []byte("x")})

	badMagic := bytes.Clone(good)
	badMagic[len(badMagic)-20] ^= 0xFF

	truncated := good[1:]

	tests := []struct {
		name string
		data []byte
	}{
		{"too small", []byte{1, 2, 3}},
		{"bad magic", badMagic},
		{"size mismatch", truncated},
		{"plain text", []byte("this is definitely not a umod container file")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := umod.NewReader(bytes.NewReader(tt.data), int64(len(tt.data)))
			if !errors.Is(err, umod.ErrContainerParse) {
				t.Errorf("NewReader() error = %v, want ErrContainerParse", err)
			}
		})
	}
}

func TestCloseTwice(t *testing.T) {
	r, err := umod.Open(writeUmod(t, testutil.ArchiveFile{Name: "a.u", Data: []byte("x")}))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestIsManifest(t *testing.T) {
	tests := map[string]bool{
		`System\Manifest.int`: true,
		"system/manifest.INI": true,
		`System\Manifest.u`:   false,
		"Manifest.int":        false,
	}
	for name, want := range tests {
		if got := umod.IsManifest(name); got != want {
			t.Errorf("IsManifest(%q) = %v, want %v", name, got, want)
		}
	}
}
