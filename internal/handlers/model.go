package handlers

import (
	"context"
	"fmt"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/incoming"
)

// ModelHandler indexes player models, declared either as player classes
// in .int files or as "Player=" records in .upl files.
type ModelHandler struct {
	*base
}

func (h *ModelHandler) Index(ctx context.Context, in *incoming.Incoming, current *content.Record) (Result, error) {
	r, warnings := h.newRecord(content.KindModel, in)
	meta, warn := readMetadata(in)
	warnings = append(warnings, warn...)

	for _, o := range meta.withMetaClass(isPlayerClass) {
		r.Model.Models = appendUnique(r.Model.Models, describe(o.Map))
	}
	upl := false
	for _, p := range meta.values("Player") {
		if p.Map == nil {
			continue
		}
		upl = true
		r.Model.Models = appendUnique(r.Model.Models, p.Get("DefaultName"))
	}
	for _, t := range meta.textures() {
		if !faceName.MatchString(objectName(t.Get("Name"))) {
			r.Model.Skins = appendUnique(r.Model.Skins, describe(t.Map))
		}
	}
	if len(r.Model.Models) == 0 {
		return Result{}, fmt.Errorf("%w: no player models declared", ErrClassificationAmbiguous)
	}
	r.Name = r.Model.Models[0]

	if upl {
		r.Game = content.GameUT2004.Name
	} else {
		r.Game = packageGame(in.Files(filetype.Packages...)).Name
	}

	h.finish(r, in, current)
	return Result{Record: r, Warnings: warnings}, nil
}
