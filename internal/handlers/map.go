package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/incoming"
	"github.com/richardsondev/unreal-archive/internal/unreal"
)

// MapHandler indexes a submission holding a single map.
type MapHandler struct {
	*base
}

// levelInfo is what a map's LevelInfo actor says about the map.
type levelInfo struct {
	version     int
	title       string
	author      string
	playerCount string
	screenshot  string
}

// readLevelInfo reads the properties of the map's LevelInfo. Maps from
// engine versions whose properties cannot be read return only the
// version.
func readLevelInfo(f *incoming.File) (levelInfo, error) {
	p, done, err := openPackage(f)
	if err != nil {
		return levelInfo{}, err
	}
	defer done()

	info := levelInfo{version: p.Version}
	exports := p.ExportsOfClass("LevelInfo")
	if len(exports) == 0 {
		return info, nil
	}
	props, err := p.Properties(exports[0])
	if err != nil {
		return info, err
	}
	info.title, _ = unreal.StringValue(props, "Title")
	info.author, _ = unreal.StringValue(props, "Author")
	info.playerCount, _ = unreal.StringValue(props, "IdealPlayerCount")
	info.screenshot, _ = unreal.StringValue(props, "Screenshot")
	return info, nil
}

func (h *MapHandler) Index(ctx context.Context, in *incoming.Incoming, current *content.Record) (Result, error) {
	maps := in.Files(filetype.Map)
	if len(maps) == 0 {
		return Result{}, fmt.Errorf("no map found in %s", in.Submission)
	}
	r, warnings := h.newRecord(content.KindMap, in)

	f := maps[0]
	if len(maps) > 1 {
		warnings = append(warnings, fmt.Sprintf("%d maps found, indexing %s only", len(maps), f.Name()))
	}
	r.Name = nameFromFile(f.Name())
	r.Map.Gametype = content.GametypeForMap(r.Name)

	info, err := readLevelInfo(f)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("could not read map properties of %s: %v", f.Name(), err))
	}
	r.Game = content.GameForMap(filetype.Extension(f.Name()), info.version).Name

	if t := strings.TrimSpace(info.title); t != "" {
		r.Map.Title = t
	} else {
		warnings = append(warnings, "map has no title, using "+r.Name)
		r.Map.Title = r.Name
	}
	if a := strings.TrimSpace(info.author); a != "" {
		r.Author = a
	} else {
		warnings = append(warnings, "map has no author")
	}
	if pc := strings.TrimSpace(info.playerCount); pc != "" {
		r.Map.PlayerCount = pc
	}
	if info.screenshot != "" {
		r.Map.Screenshot = info.screenshot
	} else {
		warnings = append(warnings, "map has no screenshot")
	}

	h.finish(r, in, current)
	return Result{Record: r, Warnings: warnings}, nil
}
