package content

import (
	"fmt"
	"strings"
)

// Kind is the closed set of content record shapes. The per-kind payload on a
// Record is selected by switching on the Kind, never by inspecting which
// payload pointer happens to be set.
type Kind string

const (
	KindMap     Kind = "MAP"
	KindMapPack Kind = "MAP_PACK"
	KindSkin    Kind = "SKIN"
	KindModel   Kind = "MODEL"
	KindVoice   Kind = "VOICE"
	KindMutator Kind = "MUTATOR"
	KindUnknown Kind = "UNKNOWN"
)

// Kinds lists every indexable kind, in auto-detection priority order.
var Kinds = []Kind{KindMapPack, KindMap, KindModel, KindSkin, KindVoice, KindMutator}

// ParseKind converts user input ("map", "map_pack", "mappack", "Map-Pack")
// into a Kind.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToUpper(strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.TrimSpace(s)))
	for _, k := range append(Kinds, KindUnknown) {
		if strings.ReplaceAll(string(k), "_", "") == norm {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown content type: %q", s)
}

// PathName is the directory name used for this kind in content paths,
// e.g. "MAP_PACK" -> "mappacks".
func (k Kind) PathName() string {
	return strings.ToLower(strings.ReplaceAll(string(k), "_", "")) + "s"
}

// Friendly returns a display name, e.g. "MAP_PACK" -> "Map Pack".
func (k Kind) Friendly() string {
	words := strings.Split(strings.ToLower(string(k)), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
