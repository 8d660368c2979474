// Package keycodes translates hardware key codes to logical keys under the
// active keyboard layout and back.
package keycodes

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/models"
)

// VirtualKey is a hardware code plus the modifiers needed to type a character.
type VirtualKey struct {
	Code      uint16
	Modifiers []models.Modifier
}

// Store is an immutable lookup table derived from one layout.
type Store struct {
	layoutID    string
	byCode      map[uint16]string
	byDisplay   map[string]uint16
	byCharacter map[string]VirtualKey
	byName      map[string]uint16
}

// NewStore builds the lookup tables for layout.
func NewStore(layout Layout) *Store {
	s := &Store{
		layoutID:    layout.ID,
		byCode:      make(map[uint16]string, len(layout.Keys)+len(namedKeys)),
		byDisplay:   make(map[string]uint16, len(layout.Keys)+len(namedKeys)),
		byCharacter: make(map[string]VirtualKey, 2*len(layout.Keys)+2),
		byName:      make(map[string]uint16, len(namedKeys)+len(aliases)),
	}

	for code, name := range namedKeys {
		s.byCode[code] = name
		s.byDisplay[name] = code
		s.byName[strings.ToLower(name)] = code
	}
	for alias, code := range aliases {
		s.byName[alias] = code
	}

	codes := make([]int, 0, len(layout.Keys))
	for code := range layout.Keys {
		codes = append(codes, int(code))
	}
	sort.Ints(codes)

	for _, c := range codes {
		code := uint16(c)
		ch := layout.Keys[code]
		if ch.Base == "" {
			continue
		}
		display := models.NormalizeKey(ch.Base)
		if _, taken := s.byDisplay[display]; taken {
			display = fmt.Sprintf("Key%d", code)
		}
		s.byCode[code] = display
		s.byDisplay[display] = code

		if _, taken := s.byCharacter[ch.Base]; !taken {
			s.byCharacter[ch.Base] = VirtualKey{Code: code}
		}
		if ch.Shifted != "" && ch.Shifted != ch.Base {
			if _, taken := s.byCharacter[ch.Shifted]; !taken {
				s.byCharacter[ch.Shifted] = VirtualKey{Code: code, Modifiers: []models.Modifier{models.ModifierShift}}
			}
		}
	}
	s.byCharacter[" "] = VirtualKey{Code: CodeSpace}
	s.byCharacter["\t"] = VirtualKey{Code: CodeTab}

	return s
}

// LayoutID returns the identifier of the layout the store was built from.
func (s *Store) LayoutID() string {
	return s.layoutID
}

// Resolve returns the logical key for a hardware code.
func (s *Store) Resolve(code uint16) (string, error) {
	if key, ok := s.byCode[code]; ok {
		return key, nil
	}
	return "", kferrors.UnresolvedKey(fmt.Sprintf("code %d", code)).WithDetail("layout", s.layoutID)
}

// KeyCode returns the hardware code for a logical key. The upper-cased form
// is tried first, then the literal string, then named keys and typed
// characters.
func (s *Store) KeyCode(key string) (uint16, error) {
	vk, ok := s.lookup(key)
	if !ok {
		return 0, kferrors.UnresolvedKey(key).WithDetail("layout", s.layoutID)
	}
	return vk.Code, nil
}

func (s *Store) lookup(key string) (VirtualKey, bool) {
	for _, candidate := range []string{models.NormalizeKey(key), key} {
		if code, ok := s.byDisplay[candidate]; ok {
			return VirtualKey{Code: code}, true
		}
	}
	if code, ok := s.byName[strings.ToLower(key)]; ok {
		return VirtualKey{Code: code}, true
	}
	vk, ok := s.byCharacter[key]
	return vk, ok
}

// Canonical rewrites k to the spelling Shortcut produces for the same
// physical key, so a configured "ctrl+space" and a pressed control+Space
// share an ID. A shifted character such as "!" gains the shift modifier, and
// fn is dropped from keys the OS always reports with it.
func (s *Store) Canonical(k models.KeyShortcut) (models.KeyShortcut, error) {
	vk, ok := s.lookup(k.Key)
	if !ok {
		return k, kferrors.UnresolvedKey(k.Key).WithDetail("layout", s.layoutID)
	}
	out := models.KeyShortcut{Key: s.byCode[vk.Code], LHS: k.LHS}
	mods := append(slices.Clone(k.Modifiers), vk.Modifiers...)
	for _, m := range mods {
		if m == models.ModifierFunction && IsFunctionKey(vk.Code) {
			continue
		}
		if !slices.Contains(out.Modifiers, m) {
			out.Modifiers = append(out.Modifiers, m)
		}
	}
	return out, nil
}

// VirtualKey returns the code and modifiers that type a single character.
func (s *Store) VirtualKey(character string) (VirtualKey, error) {
	if vk, ok := s.byCharacter[character]; ok {
		return vk, nil
	}
	if code, err := s.KeyCode(character); err == nil {
		return VirtualKey{Code: code}, nil
	}
	return VirtualKey{}, kferrors.UnresolvedKey(character).WithDetail("layout", s.layoutID)
}

// Codes returns every code the store can resolve, sorted.
func (s *Store) Codes() []uint16 {
	codes := make([]uint16, 0, len(s.byCode))
	for code := range s.byCode {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// Shortcut builds a KeyShortcut from a hardware code and raw event flags.
// The fn and keypad flags the OS adds to function keys are dropped.
func (s *Store) Shortcut(code uint16, flags models.ModifierFlags) (models.KeyShortcut, error) {
	key, err := s.Resolve(code)
	if err != nil {
		return models.KeyShortcut{}, err
	}
	if IsFunctionKey(code) {
		flags &^= models.FlagFunction | models.FlagNumericPad
	}
	mods, lhs := flags.Modifiers()
	return models.KeyShortcut{Key: key, LHS: lhs, Modifiers: mods}, nil
}

// EventFlags returns the flags to post for a synthesized shortcut. Arrow keys
// carry the numeric-pad flag so receivers treat them like physical arrows.
func EventFlags(code uint16, mods []models.Modifier) models.ModifierFlags {
	flags := models.FlagsFor(mods)
	if IsArrow(code) {
		flags |= models.FlagNumericPad
	}
	return flags
}
