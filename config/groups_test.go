package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/models"
)

const sampleGroups = `
groups:
  - name: Global
    workflows:
      - name: Open Safari
        trigger:
          keyboard: ["cmd+shift+s"]
        commands:
          - kind: application
            action: open
            application:
              bundle_identifier: com.apple.Safari
              path: /Applications/Safari.app
            modifiers: [onlyIfNotRunning]
      - name: Paste twice
        id: paste-twice
        execution: concurrent
        enabled: false
        trigger:
          keyboard:
            - {key: d, modifiers: [control]}
            - p
        commands:
          - kind: keyboard
            shortcuts: ["cmd+v", {key: v, modifiers: [command]}]
          - kind: type
            input: "hello"
            enabled: false
  - name: Editors
    rule:
      bundle_identifiers: [com.apple.TextEdit]
      when: 'frontmost != ""'
    workflows:
      - name: Resize
        trigger:
          application:
            - bundle_identifier: com.apple.TextEdit
              contexts: [launched]
        commands:
          - kind: window
            action: increaseSize
            by: 20
            direction: trailing
          - kind: builtIn
            action: toggle
`

func TestParseGroups(t *testing.T) {
	groups, err := ParseGroups([]byte(sampleGroups))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	global := groups[0]
	assert.Equal(t, "Global", global.Name)
	assert.NotEmpty(t, global.ID)
	require.Len(t, global.Workflows, 2)

	safari := global.Workflows[0]
	assert.True(t, safari.Enabled)
	assert.Equal(t, models.ExecutionSerial, safari.Execution)
	require.Len(t, safari.KeySequence(), 1)
	assert.Equal(t, "shift+command+S", safari.KeySequence()[0].ID())
	app, ok := safari.Commands[0].(models.ApplicationCommand)
	require.True(t, ok)
	assert.Equal(t, models.ApplicationOpen, app.Action)
	assert.Equal(t, "com.apple.Safari", app.Application.BundleIdentifier)
	assert.True(t, app.Has(models.ModifierOnlyIfNotRunning))
	assert.True(t, app.Enabled)
	assert.NotEmpty(t, app.ID)

	paste := global.Workflows[1]
	assert.Equal(t, "paste-twice", paste.ID)
	assert.False(t, paste.Enabled)
	assert.Equal(t, models.ExecutionConcurrent, paste.Execution)
	assert.Len(t, paste.KeySequence(), 2)
	kb := paste.Commands[0].(models.KeyboardCommand)
	require.Len(t, kb.Shortcuts, 2)
	assert.Equal(t, kb.Shortcuts[0].ID(), kb.Shortcuts[1].ID())
	typ := paste.Commands[1].(models.TypeCommand)
	assert.False(t, typ.Enabled)

	editors := groups[1]
	require.NotNil(t, editors.Rule)
	assert.Equal(t, []string{"com.apple.TextEdit"}, editors.Rule.BundleIdentifiers)
	resize := editors.Workflows[0]
	assert.Nil(t, resize.KeySequence())
	assert.True(t, resize.Trigger.Application[0].Fires(models.ContextLaunched))
	win := resize.Commands[0].(models.WindowCommand)
	assert.Equal(t, 20, win.By)
	assert.Equal(t, models.DirectionTrailing, win.Direction)
	assert.True(t, resize.IsControl())
}

func TestParseGroupsIDsAreStable(t *testing.T) {
	first, err := ParseGroups([]byte(sampleGroups))
	require.NoError(t, err)
	second, err := ParseGroups([]byte(sampleGroups))
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[0].Workflows[0].ID, second[0].Workflows[0].ID)
	assert.Equal(t, first[0].Workflows[0].Commands[0].Meta().ID, second[0].Workflows[0].Commands[0].Meta().ID)
}

func TestParseGroupsErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown kind", `
groups:
  - name: g
    workflows:
      - name: w
        commands:
          - kind: teleport
`},
		{"missing kind", `
groups:
  - name: g
    workflows:
      - name: w
        commands:
          - action: open
`},
		{"unused field", `
groups:
  - name: g
    workflows:
      - name: w
        commands:
          - kind: type
            input: hi
            speed: 3
`},
		{"bad action", `
groups:
  - name: g
    workflows:
      - name: w
        commands:
          - kind: system
            action: explode
`},
		{"bad rule", `
groups:
  - name: g
    rule:
      when: 'frontmost +'
`},
		{"bad execution", `
groups:
  - name: g
    workflows:
      - name: w
        execution: sometimes
`},
		{"both script sources", `
groups:
  - name: g
    workflows:
      - name: w
        commands:
          - kind: script
            script_kind: shellScript
            source: {path: /tmp/a.sh, inline: "echo"}
`},
		{"duplicate ids", `
groups:
  - name: g
    workflows:
      - {name: a, id: same}
      - {name: b, id: same}
`},
		{"bad shortcut", `
groups:
  - name: g
    workflows:
      - name: w
        trigger:
          keyboard: ["hyper+x"]
`},
		{"unknown group field", `
groups:
  - name: g
    colour: red
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGroups([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadGroupsMissingFile(t *testing.T) {
	_, err := LoadGroups(t.TempDir() + "/groups.yml")
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeConfigNotFound))
}

func TestParseGroupsEmpty(t *testing.T) {
	groups, err := ParseGroups(nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
