package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/incoming"
)

// MixedGametype is the gametype of a map pack whose maps differ.
const MixedGametype = "Mixed"

// MapPackHandler indexes a submission holding several maps.
type MapPackHandler struct {
	*base
}

func (h *MapPackHandler) Index(ctx context.Context, in *incoming.Incoming, current *content.Record) (Result, error) {
	maps := in.Files(filetype.Map)
	if len(maps) == 0 {
		return Result{}, fmt.Errorf("no maps found in %s", in.Submission)
	}
	r, warnings := h.newRecord(content.KindMapPack, in)

	var gametype string
	authors := make(map[string]int)
	var version int
	for _, f := range maps {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		name := nameFromFile(f.Name())
		pm := content.PackMap{Name: name, Title: name, Author: content.Unknown}
		info, err := readLevelInfo(f)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read map properties of %s: %v", f.Name(), err))
		}
		if t := strings.TrimSpace(info.title); t != "" {
			pm.Title = t
		}
		if a := strings.TrimSpace(info.author); a != "" {
			pm.Author = h.env.Authors.Normalize(a)
			authors[pm.Author]++
		}
		if version == 0 {
			version = info.version
		}
		r.MapPack.Maps = append(r.MapPack.Maps, pm)

		switch gt := content.GametypeForMap(name); {
		case gametype == "":
			gametype = gt
		case gametype != gt:
			gametype = MixedGametype
		}
	}
	r.MapPack.Gametype = gametype
	r.Game = content.GameForMap(filetype.Extension(maps[0].Name()), version).Name

	// A pack credited to one author throughout is that author's; anything
	// else is left for a curator.
	if len(authors) == 1 {
		for a := range authors {
			r.Author = a
		}
	} else if len(authors) > 1 {
		r.Author = "Various"
	}

	h.finish(r, in, current)
	return Result{Record: r, Warnings: warnings}, nil
}
