package fs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, filepath.FromSlash(n))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(p, []byte(n), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
}

func rel(t *testing.T, root string, paths []string) []string {
	t.Helper()
	var out []string
	for _, p := range paths {
		r, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatalf("Rel() error = %v", err)
		}
		out = append(out, filepath.ToSlash(r))
	}
	return out
}

func TestExpander_Expand(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"maps/DM-Deck16.zip",
		"maps/CTF-Face.rar",
		"maps/notes.txt",
		"maps/.git/config",
		"skins/"+IgnoreFile,
		"skins/soldier.zip",
		"skins/draft.zip",
	)
	if err := os.WriteFile(filepath.Join(root, "skins", IgnoreFile), []byte("draft.zip\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Run("walks directories honoring ignores", func(t *testing.T) {
		e := NewExpander([]string{".git", "*.txt"}, nil)
		got, err := e.Expand([]string{root})
		if err != nil {
			t.Fatalf("Expand() error = %v", err)
		}
		want := []string{"maps/CTF-Face.rar", "maps/DM-Deck16.zip", "skins/soldier.zip"}
		if diff := cmp.Diff(want, rel(t, root, got)); diff != "" {
			t.Errorf("Expand() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("files are taken as given and deduplicated", func(t *testing.T) {
		e := NewExpander([]string{"*.txt"}, nil)
		file := filepath.Join(root, "maps", "notes.txt")
		got, err := e.Expand([]string{file, file})
		if err != nil {
			t.Fatalf("Expand() error = %v", err)
		}
		if len(got) != 1 || got[0] != file {
			t.Errorf("Expand() = %v, want [%s]", got, file)
		}
	})

	t.Run("reads paths from stdin", func(t *testing.T) {
		in := strings.NewReader(filepath.Join(root, "maps", "DM-Deck16.zip") + "\n\n" + filepath.Join(root, "skins", "soldier.zip") + "\n")
		e := NewExpander(nil, in)
		got, err := e.Expand([]string{Stdin})
		if err != nil {
			t.Fatalf("Expand() error = %v", err)
		}
		want := []string{"maps/DM-Deck16.zip", "skins/soldier.zip"}
		if diff := cmp.Diff(want, rel(t, root, got)); diff != "" {
			t.Errorf("Expand() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing stdin path fails", func(t *testing.T) {
		e := NewExpander(nil, strings.NewReader(filepath.Join(root, "gone.zip")))
		if _, err := e.Expand([]string{Stdin}); err == nil {
			t.Error("Expand() expected error for missing path")
		}
	})

	t.Run("missing argument fails", func(t *testing.T) {
		e := NewExpander(nil, nil)
		if _, err := e.Expand([]string{filepath.Join(root, "gone.zip")}); err == nil {
			t.Error("Expand() expected error for missing path")
		}
	})
}
