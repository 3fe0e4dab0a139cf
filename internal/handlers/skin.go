package handlers

import (
	"context"
	"fmt"
	"regexp"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/incoming"
)

// faceName matches face textures, whose object names end in a skin index
// followed by the face's name, e.g. "SoldierSkins.blkt5Malcolm".
var faceName = regexp.MustCompile(`\d[A-Za-z]+$`)

// SkinHandler indexes player skins declared as textures in .int files.
type SkinHandler struct {
	*base
}

func (h *SkinHandler) Index(ctx context.Context, in *incoming.Incoming, current *content.Record) (Result, error) {
	r, warnings := h.newRecord(content.KindSkin, in)
	meta, warn := readMetadata(in)
	warnings = append(warnings, warn...)

	for _, t := range meta.textures() {
		name := objectName(t.Get("Name"))
		switch {
		case faceName.MatchString(name):
			r.Skin.Faces = appendUnique(r.Skin.Faces, describe(t.Map))
		default:
			r.Skin.Skins = appendUnique(r.Skin.Skins, describe(t.Map))
		}
	}
	if len(r.Skin.Skins) == 0 && len(r.Skin.Faces) == 0 {
		return Result{}, fmt.Errorf("%w: no skins declared", ErrClassificationAmbiguous)
	}
	switch {
	case len(r.Skin.Skins) > 0:
		r.Name = r.Skin.Skins[0]
	default:
		r.Name = r.Skin.Faces[0]
	}
	r.Game = packageGame(in.Files(filetype.Texture)).Name

	h.finish(r, in, current)
	return Result{Record: r, Warnings: warnings}, nil
}
