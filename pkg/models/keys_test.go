package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseKeyShortcut(t *testing.T) {
	tests := []struct {
		in   string
		key  string
		mods []Modifier
	}{
		{"cmd+shift+d", "d", []Modifier{ModifierCommand, ModifierShift}},
		{"D", "D", nil},
		{"⌘+⌥+Return", "Return", []Modifier{ModifierCommand, ModifierOption}},
		{"cmd++", "+", []Modifier{ModifierCommand}},
		{"ctrl+ctrl+x", "x", []Modifier{ModifierControl}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			k, err := ParseKeyShortcut(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.key, k.Key)
			assert.Equal(t, tt.mods, k.Modifiers)
			assert.True(t, k.LHS)
		})
	}

	_, err := ParseKeyShortcut("hyper+x")
	assert.Error(t, err)
	_, err = ParseKeyShortcut("")
	assert.Error(t, err)
}

func TestKeyShortcutIDIsOrderAndCaseInsensitive(t *testing.T) {
	a := KeyShortcut{Key: "d", LHS: true, Modifiers: []Modifier{ModifierShift, ModifierCommand}}
	b := KeyShortcut{Key: "D", LHS: true, Modifiers: []Modifier{ModifierCommand, ModifierShift}}
	assert.Equal(t, a.ID(), b.ID())
	assert.Equal(t, "shift+command+D", a.ID())

	right := b
	right.LHS = false
	assert.NotEqual(t, b.ID(), right.ID())

	// Side is irrelevant without modifiers.
	assert.Equal(t, KeyShortcut{Key: "a", LHS: true}.ID(), KeyShortcut{Key: "A"}.ID())
}

func TestKeyShortcutString(t *testing.T) {
	ks, err := ParseKeyShortcut("alt+ctrl+g")
	require.NoError(t, err)
	assert.Equal(t, "ctrl+alt+G", ks.String())

	ks = KeyShortcut{Key: "Space", Modifiers: []Modifier{ModifierCommand}}
	assert.Equal(t, "cmd+Space (right)", ks.String())
}

func TestModifierFlags(t *testing.T) {
	flags := FlagCommand | FlagLeftCommand | FlagShift | FlagRightShift
	mods, lhs := flags.Modifiers()
	assert.Equal(t, []Modifier{ModifierShift, ModifierCommand}, mods)
	assert.False(t, lhs)

	mods, lhs = (FlagControl | FlagLeftControl).Modifiers()
	assert.Equal(t, []Modifier{ModifierControl}, mods)
	assert.True(t, lhs)

	assert.Equal(t, FlagCommand|FlagOption, FlagsFor([]Modifier{ModifierCommand, ModifierOption}))
	assert.False(t, ModifierFlags(FlagNumericPad).HasStandardModifier())
	assert.True(t, FlagShift.HasStandardModifier())
}

func TestKeyShortcutUnmarshalYAML(t *testing.T) {
	var seq []KeyShortcut
	src := `
- cmd+shift+d
- key: G
  lhs: false
  modifiers: [ctrl]
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &seq))
	require.Len(t, seq, 2)
	assert.Equal(t, "shift+command+D", seq[0].ID())
	assert.Equal(t, KeyShortcut{Key: "G", LHS: false, Modifiers: []Modifier{ModifierControl}}, seq[1])

	var bad []KeyShortcut
	assert.Error(t, yaml.Unmarshal([]byte("- modifiers: [cmd]\n"), &bad))
}

func TestWorkflowIsControl(t *testing.T) {
	wf := Workflow{Commands: []Command{
		TypeCommand{Input: "x"},
		BuiltInCommand{Action: BuiltInToggle},
	}}
	assert.True(t, wf.IsControl())

	wf.Commands = []Command{BuiltInCommand{Action: BuiltInQuickRun}}
	assert.False(t, wf.IsControl())
}

func TestFindWorkflow(t *testing.T) {
	groups := []Group{
		{Name: "A", Workflows: []Workflow{{ID: "1", Name: "open"}}},
		{Name: "B", Workflows: []Workflow{{ID: "open", Name: "other"}}},
	}
	wf, g := FindWorkflow(groups, "open")
	require.NotNil(t, wf)
	assert.Equal(t, "other", wf.Name, "id matches win over names")
	assert.Equal(t, "B", g.Name)

	wf, _ = FindWorkflow(groups, "missing")
	assert.Nil(t, wf)
}
