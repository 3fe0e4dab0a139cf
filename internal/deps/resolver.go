package deps

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/incoming"
	"github.com/richardsondev/unreal-archive/internal/unreal"
)

// DefaultStockPackages are packages shipped with the supported games. They
// are never reported as dependencies.
var DefaultStockPackages = []string{
	// shared engine packages
	"Core", "Engine", "Editor", "Fire", "IpDrv", "UWeb", "UnrealEd",
	// Unreal and Unreal Tournament
	"Botpack", "UnrealShare", "UnrealI", "UBrowser", "UMenu", "UTMenu",
	"UTServerAdmin", "UWindow", "IpServer", "Announcer", "Female1Skins",
	"Female2Skins", "Male1Skins", "Male2Skins", "Male3Skins", "CommandoSkins",
	"SoldierSkins", "FCommandoSkins", "SGirlSkins", "BossSkins",
	"Ancient", "Crypt", "Egypt", "GenFX", "GenEarth", "GenFluid", "GenIn",
	"GenTerra", "GenWarp", "LadderFonts", "LadrArrow", "LadrStatic",
	"UTtech1", "UTtech2", "UTtech3", "UT", "UTbase1", "AmbAncient",
	"AmbCity", "AmbModern", "AmbOutside", "DoorsAnc", "DoorsMod",
	"Extro", "Skybox", "Faces", "Palettes", "Logo", "Female1Sounds",
	"Male1Sounds", "Female2Sounds", "Male2Sounds", "Male3Sounds",
	// Unreal Tournament 2003 and 2004
	"XGame", "XGame_rc", "XInterface", "XAdmin", "XWebAdmin", "XPickups",
	"XWeapons", "XEffects", "UnrealGame", "GamePlay", "Onslaught",
	"OnslaughtFull", "UT2k4Assault", "UT2k4AssaultFull", "GUI2K4",
	"XVoting", "UTV2004c", "UTV2004s", "Vehicles", "BonusPack",
	"SkaarjPack", "SkaarjPack_rc", "ONSBPTextures", "2K4Menus",
	"Engine_rc", "Core_rc", "XWeapons_rc", "XEffects_rc", "XPickups_rc",
	"MapThumbnails",
}

// Resolver classifies the packages a submission references against a
// ProviderIndex. It only reads from the index and may be used concurrently.
type Resolver struct {
	index *ProviderIndex
	stock map[string]bool
}

// NewResolver creates a Resolver. Packages named in stock are never
// reported.
func NewResolver(index *ProviderIndex, stock []string) *Resolver {
	if index == nil {
		index = NewProviderIndex(nil)
	}
	r := &Resolver{index: index, stock: make(map[string]bool, len(stock))}
	for _, s := range stock {
		r.stock[strings.ToLower(s)] = true
	}
	return r
}

// Resolve inspects every package file among files and returns, for each
// file that references packages outside the submission, the dependencies
// keyed by that file's name. Packages that cannot be read produce a
// warning and are otherwise ignored; an unresolvable reference is a
// MISSING dependency, never an error.
func (r *Resolver) Resolve(files []*incoming.File) (map[string][]content.Dependency, []string) {
	provided := make(map[string]bool)
	for _, f := range files {
		if f.Type.IsPackage() {
			provided[strings.ToLower(PackageName(f.Name()))] = true
		}
	}

	result := make(map[string][]content.Dependency)
	var warnings []string
	for _, f := range files {
		if !f.Type.IsPackage() {
			continue
		}
		refs, err := references(f)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("could not read dependencies of %s: %v", f.Name(), err))
			continue
		}
		var found []content.Dependency
		for _, ref := range refs {
			lname := strings.ToLower(ref.Name)
			if provided[lname] || r.stock[lname] {
				continue
			}
			found = append(found, r.resolve(ref))
		}
		if len(found) == 0 {
			continue
		}
		result[f.Name()] = mergeDependencies(result[f.Name()], found)
	}
	return result, warnings
}

// mergeDependencies combines the dependencies of files sharing a name, as
// happens when a nested archive repeats a file. A package listed by both
// keeps its least satisfied status.
func mergeDependencies(a, b []content.Dependency) []content.Dependency {
	byName := make(map[string]content.Dependency, len(a)+len(b))
	for _, d := range append(append([]content.Dependency{}, a...), b...) {
		key := strings.ToLower(d.Name)
		if cur, ok := byName[key]; !ok || severity(d.Status) > severity(cur.Status) {
			byName[key] = d
		}
	}
	out := make([]content.Dependency, 0, len(byName))
	for _, d := range byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func severity(s content.DependencyStatus) int {
	switch s {
	case content.DependencyMissing:
		return 2
	case content.DependencyPartial:
		return 1
	default:
		return 0
	}
}

// resolve picks the best provider that has every required object. When
// none has them all, the best provider is reported as PARTIAL.
func (r *Resolver) resolve(ref unreal.Reference) content.Dependency {
	providers := r.index.Providers(ref.Name)
	if len(providers) == 0 {
		return content.Dependency{Status: content.DependencyMissing, Name: ref.Name}
	}
	for _, p := range providers {
		if providesAll(p, ref.Objects) {
			return content.Dependency{Status: content.DependencyOK, Name: ref.Name, ProvidedBy: p.RecordName}
		}
	}
	return content.Dependency{Status: content.DependencyPartial, Name: ref.Name, ProvidedBy: providers[0].RecordName}
}

func providesAll(p Provider, objects []string) bool {
	for _, o := range objects {
		if !p.Provides(o) {
			return false
		}
	}
	return true
}

func references(f *incoming.File) ([]unreal.Reference, error) {
	rd, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	p, err := unreal.Read(rd)
	if errors.Is(err, unreal.ErrUnsupportedVersion) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.References(), nil
}

// Exports reads the top-level export names of a package file, for
// recording alongside the file so later submissions can verify the objects
// they import. Files that are not readable packages have no exports.
func Exports(f *incoming.File) []string {
	if !f.Type.IsPackage() {
		return nil
	}
	rd, err := f.Open()
	if err != nil {
		return nil
	}
	defer rd.Close()
	p, err := unreal.Read(rd)
	if err != nil {
		return nil
	}
	exports := p.TopLevelExports()
	sort.Strings(exports)
	return exports
}
