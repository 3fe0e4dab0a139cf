package intfile

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/google/go-cmp/cmp"
)

const playerInt = `; comment
[Public]
Object=(Name=Botpack.TMale1,Class=Class,MetaClass=Botpack.TournamentPlayer,Description="Male Commando")
Object=(Name=SoldierSkins.blkt_Head,Class=Texture,Description="Bloke, the first")
Preferences=(Caption="Misc",Parent="Advanced Options")

[Setup]
Product=My Mod
Version="1.5"
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(playerInt))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	pub := f.Section("public")
	if pub == nil {
		t.Fatal("Section(public) = nil")
	}
	if diff := cmp.Diff([]string{"Object", "Preferences"}, pub.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	objects := pub.Values("object")
	if len(objects) != 2 {
		t.Fatalf("Values(object) = %d, want 2", len(objects))
	}
	want := map[string]string{"Name": "SoldierSkins.blkt_Head", "Class": "Texture", "Description": "Bloke, the first"}
	if diff := cmp.Diff(want, objects[1].Map); diff != "" {
		t.Errorf("object map mismatch (-want +got):\n%s", diff)
	}
	if got := objects[0].Get("metaclass"); got != "Botpack.TournamentPlayer" {
		t.Errorf("Get(metaclass) = %q", got)
	}

	v, ok := f.Section("Setup").Value("Version")
	if !ok || v.Raw != "1.5" || v.Map != nil {
		t.Errorf("Value(Version) = %+v, %v", v, ok)
	}
	if p, _ := f.Section("Setup").Value("Product"); p.String() != "My Mod" {
		t.Errorf("Value(Product) = %q", p)
	}
}

func TestParseUnnamedSection(t *testing.T) {
	ucl := "Mutator=(ClassName=MyMut.MyMut,FriendlyName=\"My Mutator\",Description=\"Does (things)\")\n"
	f, err := Parse(strings.NewReader(ucl))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	muts := f.Values("", "Mutator")
	if len(muts) != 1 {
		t.Fatalf("Values(Mutator) = %d, want 1", len(muts))
	}
	if got := muts[0].Get("Description"); got != "Does (things)" {
		t.Errorf("Description = %q", got)
	}
	if got := len(f.Values("*", "Mutator")); got != 1 {
		t.Errorf("Values(*) = %d, want 1", got)
	}
}

func TestParseUTF16(t *testing.T) {
	text := "[Public]\r\nObject=(Name=Voices.Bob,MetaClass=Botpack.ChallengeVoicePack)\r\n"
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, u := range utf16.Encode([]rune(text)) {
		buf.WriteByte(byte(u))
		buf.WriteByte(byte(u >> 8))
	}
	f, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	objs := f.Values("Public", "Object")
	if len(objs) != 1 || objs[0].Get("Name") != "Voices.Bob" {
		t.Errorf("Values(Public, Object) = %+v", objs)
	}
}

func TestMissing(t *testing.T) {
	f, err := Parse(strings.NewReader("[A]\nx=1\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if f.Section("B") != nil {
		t.Error("Section(B) should be nil")
	}
	if _, ok := f.Section("A").Value("y"); ok {
		t.Error("Value(y) should not be found")
	}
	if f.Values("B", "x") != nil {
		t.Error("Values(B, x) should be nil")
	}
}
