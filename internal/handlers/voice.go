package handlers

import (
	"context"
	"fmt"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/incoming"
)

// VoiceHandler indexes voice packs.
type VoiceHandler struct {
	*base
}

func (h *VoiceHandler) Index(ctx context.Context, in *incoming.Incoming, current *content.Record) (Result, error) {
	r, warnings := h.newRecord(content.KindVoice, in)
	meta, warn := readMetadata(in)
	warnings = append(warnings, warn...)

	for _, o := range meta.withMetaClass(isVoiceClass) {
		r.Voice.Voices = appendUnique(r.Voice.Voices, describe(o.Map))
	}
	if len(r.Voice.Voices) == 0 {
		return Result{}, fmt.Errorf("%w: no voices declared", ErrClassificationAmbiguous)
	}
	r.Name = r.Voice.Voices[0]
	r.Game = packageGame(in.Files(filetype.Packages...)).Name

	h.finish(r, in, current)
	return Result{Record: r, Warnings: warnings}, nil
}
