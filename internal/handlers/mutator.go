package handlers

import (
	"context"
	"fmt"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/filetype"
	"github.com/richardsondev/unreal-archive/internal/incoming"
	"github.com/richardsondev/unreal-archive/internal/intfile"
)

// MutatorHandler indexes mutators and the weapons they add.
type MutatorHandler struct {
	*base
}

func (h *MutatorHandler) Index(ctx context.Context, in *incoming.Incoming, current *content.Record) (Result, error) {
	r, warnings := h.newRecord(content.KindMutator, in)
	meta, warn := readMetadata(in)
	warnings = append(warnings, warn...)
	m := r.Mutator

	for _, o := range meta.withMetaClass(isMutatorClass) {
		m.Mutators = appendDeclared(m.Mutators, o.Map)
	}
	for _, o := range meta.withMetaClass(isWeaponClass) {
		m.Weapons = appendDeclared(m.Weapons, o.Map)
	}
	// .ucl files declare mutators and weapons as their own keys.
	for _, v := range meta.values("Mutator") {
		m.Mutators = appendUCL(m.Mutators, v)
	}
	for _, v := range meta.values("Weapon") {
		m.Weapons = appendUCL(m.Weapons, v)
	}
	m.HasConfigMenu = meta.hasMetaClass(isMenuClass) || hasConfigMenu(meta)
	m.HasKeybinds = meta.hasMetaClass(isKeyBindingClass)

	if len(m.Mutators) == 0 && len(m.Weapons) == 0 {
		return Result{}, fmt.Errorf("%w: no mutators declared", ErrClassificationAmbiguous)
	}
	switch {
	case len(m.Mutators) > 0:
		r.Name = m.Mutators[0].Name
	default:
		r.Name = m.Weapons[0].Name
	}
	r.Game = packageGame(in.Files(filetype.Code)).Name

	h.finish(r, in, current)
	return Result{Record: r, Warnings: warnings}, nil
}

func hasConfigMenu(meta metadata) bool {
	for _, v := range meta.values("Mutator") {
		if v.Get("ConfigMenuClassName") != "" {
			return true
		}
	}
	return false
}

func appendDeclared(list []content.NameDescription, decl map[string]string) []content.NameDescription {
	nd := content.NameDescription{Name: objectName(declValue(decl, "Name"))}
	if d := declValue(decl, "Description"); d != "" {
		nd.Name = d
	}
	return appendNamed(list, nd)
}

func appendUCL(list []content.NameDescription, v intfile.Value) []content.NameDescription {
	if v.Map == nil {
		return list
	}
	name := v.Get("FriendlyName")
	if name == "" {
		name = objectName(v.Get("ClassName"))
	}
	return appendNamed(list, content.NameDescription{Name: name, Description: v.Get("Description")})
}

func appendNamed(list []content.NameDescription, nd content.NameDescription) []content.NameDescription {
	if nd.Name == "" {
		return list
	}
	for i, e := range list {
		if e.Name == nd.Name {
			if e.Description == "" {
				list[i].Description = nd.Description
			}
			return list
		}
	}
	return append(list, nd)
}

func declValue(decl map[string]string, key string) string {
	return intfile.Value{Map: decl}.Get(key)
}
