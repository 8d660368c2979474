package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/schema"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAMLAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "keyflow.yml", `
engine:
  sequence_timeout_ms: 750
  natural_typing: slow
groups_file: ~/groups.yml
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 750, s.Engine.SequenceTimeoutMS)
	assert.Equal(t, "slow", s.Engine.NaturalTyping)
	assert.Equal(t, DefaultSerialDelayMS, s.Engine.SerialDelayMS)
	assert.Equal(t, DefaultPollIntervalMS, s.Engine.PollIntervalMS)
	assert.Equal(t, DefaultIgnore, s.Watch.Ignore)
	assert.Equal(t, "info", s.Logging.Level)
	assert.NotContains(t, s.GroupsFile, "~")
	assert.NotEmpty(t, s.Daemon.Socket)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "keyflow.toml", `
groups_file = "/tmp/groups.yml"

[engine]
serial_delay_ms = 10
start_disabled = true
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, s.Engine.SerialDelayMS)
	assert.True(t, s.Engine.StartDisabled)
	assert.Equal(t, "/tmp/groups.yml", s.GroupsFile)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "keyflow.yml", "engine:\n  bogus: 1\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeConfigInvalid))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"enum", "engine:\n  natural_typing: turbo\n"},
		{"range", "engine:\n  serial_delay_ms: -5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.content), FormatYAML)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "keyflow.yml"))
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeConfigNotFound))
}

func TestOverrideFileIsMerged(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "keyflow.yml", `
engine:
  sequence_timeout_ms: 900
  serial_delay_ms: 40
watch:
  ignore: ["*.bak"]
`)
	writeFile(t, dir, "keyflow.override.yml", `
engine:
  serial_delay_ms: 5
logging:
  level: debug
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 900, s.Engine.SequenceTimeoutMS)
	assert.Equal(t, 5, s.Engine.SerialDelayMS)
	assert.Equal(t, "debug", s.Logging.Level)
	assert.Equal(t, []string{"*.bak"}, s.Watch.Ignore)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("KF_TEST_GROUPS", "/srv/groups.yml")

	assert.Equal(t, "/srv/groups.yml", expandEnvVars("${KF_TEST_GROUPS}"))
	assert.Equal(t, "fallback", expandEnvVars("${KF_TEST_UNSET:-fallback}"))
	assert.Equal(t, "", expandEnvVars("${KF_TEST_UNSET}"))
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	_, err := FindConfigFile(dir)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeConfigNotFound))

	writeFile(t, dir, "keyflow.toml", "")
	yml := writeFile(t, dir, "keyflow.yml", "")
	found, err := FindConfigFile(dir)
	require.NoError(t, err)
	assert.Equal(t, yml, found)
}

func TestGenerateSchema(t *testing.T) {
	data, err := GenerateSchema()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sequence_timeout_ms"`)
	assert.Contains(t, string(data), `"natural_typing"`)

	_, err = NewSchemaValidator()
	assert.NoError(t, err)
}

func TestGenerateGroupsSchema(t *testing.T) {
	data, err := GenerateGroupsSchema()
	require.NoError(t, err)

	v, err := schema.NewValidator("groups.schema.json", data)
	require.NoError(t, err)

	doc := map[string]interface{}{
		"groups": []interface{}{map[string]interface{}{
			"name": "Dev",
			"workflows": []interface{}{map[string]interface{}{
				"name":      "Open terminal",
				"execution": "serial",
				"trigger": map[string]interface{}{
					"keyboard": []interface{}{"cmd+t", map[string]interface{}{"key": "e", "modifiers": []interface{}{"shift"}}},
				},
				"commands": []interface{}{map[string]interface{}{"kind": "application", "bundle_identifier": "com.apple.Terminal"}},
			}},
		}},
	}
	assert.NoError(t, v.Validate(doc))

	workflow := doc["groups"].([]interface{})[0].(map[string]interface{})["workflows"].([]interface{})[0].(map[string]interface{})
	workflow["execution"] = "parallel"
	err = v.Validate(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/execution")
}

func TestDurations(t *testing.T) {
	s := Default()
	assert.Equal(t, "1s", s.Engine.SequenceTimeout().String())
	assert.Equal(t, "50ms", s.Engine.SerialDelay().String())
	assert.Equal(t, "250ms", s.Engine.FrontmostDebounce().String())
	assert.Equal(t, "250ms", s.Engine.WindowIndexDebounce().String())
	assert.Equal(t, "500ms", s.Engine.PollInterval().String())
	assert.NoError(t, s.Validate())
}
