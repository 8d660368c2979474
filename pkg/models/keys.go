package models

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Modifier is a logical modifier key.
type Modifier string

const (
	ModifierShift    Modifier = "shift"
	ModifierControl  Modifier = "control"
	ModifierOption   Modifier = "option"
	ModifierCommand  Modifier = "command"
	ModifierFunction Modifier = "function"
)

// modifierOrder is the canonical order used when normalizing shortcuts.
var modifierOrder = []Modifier{ModifierFunction, ModifierControl, ModifierOption, ModifierShift, ModifierCommand}

var modifierAliases = map[string]Modifier{
	"shift": ModifierShift, "⇧": ModifierShift,
	"ctrl": ModifierControl, "control": ModifierControl, "⌃": ModifierControl,
	"alt": ModifierOption, "opt": ModifierOption, "option": ModifierOption, "⌥": ModifierOption,
	"cmd": ModifierCommand, "command": ModifierCommand, "⌘": ModifierCommand,
	"fn": ModifierFunction, "function": ModifierFunction,
}

// ParseModifier resolves a modifier name or alias.
func ParseModifier(s string) (Modifier, bool) {
	m, ok := modifierAliases[strings.ToLower(strings.TrimSpace(s))]
	return m, ok
}

// ModifierFlags mirrors the CoreGraphics event flag layout so raw event flags
// can be carried through the engine without translation.
type ModifierFlags uint64

const (
	FlagLeftControl  ModifierFlags = 0x00000001
	FlagLeftShift    ModifierFlags = 0x00000002
	FlagRightShift   ModifierFlags = 0x00000004
	FlagLeftCommand  ModifierFlags = 0x00000008
	FlagRightCommand ModifierFlags = 0x00000010
	FlagLeftOption   ModifierFlags = 0x00000020
	FlagRightOption  ModifierFlags = 0x00000040
	FlagRightControl ModifierFlags = 0x00002000

	FlagShift      ModifierFlags = 0x00020000
	FlagControl    ModifierFlags = 0x00040000
	FlagOption     ModifierFlags = 0x00080000
	FlagCommand    ModifierFlags = 0x00100000
	FlagNumericPad ModifierFlags = 0x00200000
	FlagFunction   ModifierFlags = 0x00800000
)

// Flag returns the device-independent flag for the modifier.
func (m Modifier) Flag() ModifierFlags {
	switch m {
	case ModifierShift:
		return FlagShift
	case ModifierControl:
		return FlagControl
	case ModifierOption:
		return FlagOption
	case ModifierCommand:
		return FlagCommand
	case ModifierFunction:
		return FlagFunction
	}
	return 0
}

// rightFlag returns the device-dependent right-hand flag, if any.
func (m Modifier) rightFlag() ModifierFlags {
	switch m {
	case ModifierShift:
		return FlagRightShift
	case ModifierControl:
		return FlagRightControl
	case ModifierOption:
		return FlagRightOption
	case ModifierCommand:
		return FlagRightCommand
	}
	return 0
}

// Has reports whether all bits of other are set.
func (f ModifierFlags) Has(other ModifierFlags) bool {
	return f&other == other
}

// HasStandardModifier reports whether shift, control, option, command or fn is held.
func (f ModifierFlags) HasStandardModifier() bool {
	return f&(FlagShift|FlagControl|FlagOption|FlagCommand|FlagFunction) != 0
}

// Modifiers decodes raw flags into logical modifiers in canonical order and
// reports whether every held modifier is on the left-hand side.
func (f ModifierFlags) Modifiers() ([]Modifier, bool) {
	var mods []Modifier
	lhs := true
	for _, m := range modifierOrder {
		if f&m.Flag() == 0 {
			continue
		}
		mods = append(mods, m)
		if rf := m.rightFlag(); rf != 0 && f&rf != 0 {
			lhs = false
		}
	}
	return mods, lhs
}

// FlagsFor builds device-independent flags for a modifier list.
func FlagsFor(mods []Modifier) ModifierFlags {
	var f ModifierFlags
	for _, m := range mods {
		f |= m.Flag()
	}
	return f
}

var upper = cases.Upper(language.Und)

// NormalizeKey returns the canonical form of a logical key. Single printable
// characters are upper-cased; named keys are returned unchanged.
func NormalizeKey(key string) string {
	if len([]rune(key)) == 1 {
		return upper.String(key)
	}
	return key
}

// KeyShortcut is one element of a trigger sequence.
type KeyShortcut struct {
	Key       string     `yaml:"key" json:"key"`
	LHS       bool       `yaml:"lhs" json:"lhs"`
	Modifiers []Modifier `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
}

// ID returns the normalized identity used by the shortcut index. The modifier
// side only participates when at least one modifier is held.
func (k KeyShortcut) ID() string {
	var b strings.Builder
	for _, m := range modifierOrder {
		if slices.Contains(k.Modifiers, m) {
			b.WriteString(string(m))
			b.WriteByte('+')
		}
	}
	b.WriteString(NormalizeKey(k.Key))
	if len(k.Modifiers) > 0 && !k.LHS {
		b.WriteString(":rhs")
	}
	return b.String()
}

// String renders the shortcut in the same short form ParseKeyShortcut accepts.
func (k KeyShortcut) String() string {
	short := map[Modifier]string{
		ModifierFunction: "fn", ModifierControl: "ctrl", ModifierOption: "alt",
		ModifierShift: "shift", ModifierCommand: "cmd",
	}
	var parts []string
	for _, m := range modifierOrder {
		if slices.Contains(k.Modifiers, m) {
			parts = append(parts, short[m])
		}
	}
	parts = append(parts, NormalizeKey(k.Key))
	s := strings.Join(parts, "+")
	if len(k.Modifiers) > 0 && !k.LHS {
		s += " (right)"
	}
	return s
}

// ParseKeyShortcut parses "cmd+shift+d" style strings. A trailing "+" is the
// plus key itself ("cmd++").
func ParseKeyShortcut(s string) (KeyShortcut, error) {
	s = strings.TrimSpace(s)
	orig := s
	if s == "" {
		return KeyShortcut{}, fmt.Errorf("empty shortcut")
	}
	shortcut := KeyShortcut{LHS: true}
	var key string
	if strings.HasSuffix(s, "++") || s == "+" {
		key = "+"
		s = strings.TrimSuffix(strings.TrimSuffix(s, "+"), "+")
	} else if idx := strings.LastIndex(s, "+"); idx >= 0 {
		key = s[idx+1:]
		s = s[:idx]
	} else {
		key, s = s, ""
	}
	if s != "" {
		for _, part := range strings.Split(s, "+") {
			m, ok := ParseModifier(part)
			if !ok {
				return KeyShortcut{}, fmt.Errorf("unknown modifier %q in shortcut", part)
			}
			if !slices.Contains(shortcut.Modifiers, m) {
				shortcut.Modifiers = append(shortcut.Modifiers, m)
			}
		}
	}
	if key == "" {
		return KeyShortcut{}, fmt.Errorf("shortcut %q has no key", orig)
	}
	shortcut.Key = key
	return shortcut, nil
}

// UnmarshalYAML accepts either a "cmd+shift+d" scalar or a mapping.
func (k *KeyShortcut) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseKeyShortcut(node.Value)
		if err != nil {
			return err
		}
		*k = parsed
		return nil
	}
	raw := struct {
		Key       string   `yaml:"key"`
		LHS       *bool    `yaml:"lhs"`
		Modifiers []string `yaml:"modifiers"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.Key == "" {
		return fmt.Errorf("line %d: shortcut is missing a key", node.Line)
	}
	k.Key = raw.Key
	k.LHS = raw.LHS == nil || *raw.LHS
	k.Modifiers = nil
	for _, name := range raw.Modifiers {
		m, ok := ParseModifier(name)
		if !ok {
			return fmt.Errorf("line %d: unknown modifier %q", node.Line, name)
		}
		k.Modifiers = append(k.Modifiers, m)
	}
	return nil
}

// SequenceID joins the normalized identities of a shortcut sequence.
func SequenceID(seq []KeyShortcut) string {
	ids := make([]string, len(seq))
	for i, k := range seq {
		ids[i] = k.ID()
	}
	return strings.Join(ids, " ")
}
