package handlers

import (
	"fmt"
	"strings"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/incoming"
	"github.com/richardsondev/unreal-archive/internal/intfile"
)

// Detect determines the kind of a prepared submission from the files it
// contains and the class declarations in its metadata files.
func Detect(in *incoming.Incoming) (content.Kind, error) {
	switch maps := len(in.Files(filetype.Map)); {
	case maps > 1:
		return content.KindMapPack, nil
	case maps == 1:
		return content.KindMap, nil
	}

	meta, _ := readMetadata(in)
	switch {
	case len(in.Files(filetype.Player)) > 0 || meta.hasMetaClass(isPlayerClass):
		return content.KindModel, nil
	case meta.hasMetaClass(isVoiceClass):
		return content.KindVoice, nil
	case meta.hasMetaClass(isMutatorClass) || len(meta.values("Mutator")) > 0:
		return content.KindMutator, nil
	case len(meta.textures()) > 0:
		return content.KindSkin, nil
	}
	return content.KindUnknown, fmt.Errorf("%w: %d files, none identifying", ErrClassificationAmbiguous, len(in.Files()))
}

func isPlayerClass(c string) bool {
	c = strings.ToLower(c)
	return strings.HasSuffix(c, ".tournamentplayer") || strings.HasSuffix(c, ".xplayer") ||
		strings.HasSuffix(c, ".unrealiplayer") || strings.HasSuffix(c, ".runeplayer")
}

func isVoiceClass(c string) bool {
	return strings.Contains(strings.ToLower(c), "voicepack")
}

func isMutatorClass(c string) bool {
	return strings.EqualFold(c, "Engine.Mutator")
}

func isWeaponClass(c string) bool {
	c = strings.ToLower(c)
	return strings.HasSuffix(c, ".weapon") || strings.HasSuffix(c, ".tournamentweapon")
}

func isMenuClass(c string) bool {
	return strings.Contains(strings.ToLower(c), "modmenuitem")
}

func isKeyBindingClass(c string) bool {
	return strings.Contains(strings.ToLower(c), "keybinding")
}

// metadata is the merged content of a submission's .int, .ucl and .upl
// files.
type metadata []*intfile.File

func (m metadata) values(key string) []intfile.Value {
	var out []intfile.Value
	for _, f := range m {
		out = append(out, f.Values("*", key)...)
	}
	return out
}

// objects returns the "Object=(...)" declarations.
func (m metadata) objects() []intfile.Value {
	var out []intfile.Value
	for _, v := range m.values("Object") {
		if v.Map != nil {
			out = append(out, v)
		}
	}
	return out
}

func (m metadata) hasMetaClass(match func(string) bool) bool {
	return len(m.withMetaClass(match)) > 0
}

func (m metadata) withMetaClass(match func(string) bool) []intfile.Value {
	var out []intfile.Value
	for _, o := range m.objects() {
		if match(o.Get("MetaClass")) {
			out = append(out, o)
		}
	}
	return out
}

func (m metadata) textures() []intfile.Value {
	var out []intfile.Value
	for _, o := range m.objects() {
		if strings.EqualFold(o.Get("Class"), "Texture") {
			out = append(out, o)
		}
	}
	return out
}

func readMetadata(in *incoming.Incoming) (metadata, []string) {
	var meta metadata
	var warnings []string
	for _, f := range in.Files(filetype.Int, filetype.UCL, filetype.Player) {
		parsed, err := parseMetadata(f)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read %s: %v", f.Name(), err))
			continue
		}
		meta = append(meta, parsed)
	}
	return meta, warnings
}

func parseMetadata(f *incoming.File) (*intfile.File, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return intfile.Parse(r)
}
