package content

import "strings"

// Game describes one release of the engine family content is indexed for.
type Game struct {
	Name      string
	ShortName string
	BigName   string
	Tags      []string
}

var (
	GameUnknown = Game{"Unknown", "Unknown", "Unknown", nil}
	GameUnreal  = Game{"Unreal", "Unreal", "Unreal", []string{"unreal", "u1", "gold"}}
	GameUT      = Game{"Unreal Tournament", "UT99", "Unreal Tournament (UT99)", []string{"ut", "ut99", "unreal tournament", "goty"}}
	GameUnreal2 = Game{"Unreal 2", "Unreal 2", "Unreal II", []string{"unreal 2", "u2", "uii", "xmp"}}
	GameUT2003  = Game{"Unreal Tournament 2003", "UT2003", "Unreal Tournament 2003 (UT2003)", []string{"ut2003", "ut2k3", "ut2"}}
	GameUT2004  = Game{"Unreal Tournament 2004", "UT2004", "Unreal Tournament 2004 (UT2004)", []string{"ut2004", "ut2k4", "ut2003", "ut2k3", "ece", "ut2"}}
	GameUT3     = Game{"Unreal Tournament 3", "UT3", "Unreal Tournament 3 (UT3)", []string{"ut3", "black"}}
	GameRune    = Game{"Rune", "Rune", "Rune", []string{"rune"}}
	AllGames    = []Game{GameUnknown, GameUnreal, GameUT, GameUnreal2, GameUT2003, GameUT2004, GameUT3, GameRune}
)

// GameByName finds a game by its full or short name, case-insensitively.
// Unrecognised names return GameUnknown.
func GameByName(name string) Game {
	for _, g := range AllGames {
		if strings.EqualFold(g.Name, name) || strings.EqualFold(g.ShortName, name) {
			return g
		}
	}
	return GameUnknown
}

// GameForPackageVersion guesses the game a package was saved by from its
// file version. The ranges overlap between some releases, so callers with a
// better signal (a map extension) should prefer GameForMap.
func GameForPackageVersion(version int) Game {
	switch {
	case version <= 0:
		return GameUnknown
	case version < 68:
		return GameUnreal
	case version < 100:
		return GameUT
	case version < 126:
		return GameUT2003
	case version < 200:
		return GameUT2004
	case version >= 490:
		return GameUT3
	default:
		return GameUnknown
	}
}

// GameForMap determines the game a map was made for using its file
// extension, and the package version where one extension is shared.
func GameForMap(ext string, version int) Game {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "unr":
		if version > 0 && version < 68 {
			return GameUnreal
		}
		return GameUT
	case "ut2":
		if version > 0 && version < 126 {
			return GameUT2003
		}
		return GameUT2004
	case "ut3":
		return GameUT3
	case "un2":
		return GameUnreal2
	case "run":
		return GameRune
	default:
		return GameForPackageVersion(version)
	}
}
