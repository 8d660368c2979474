package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/keyflow/cli"
)

func TestComponentOf(t *testing.T) {
	assert.Equal(t, "keyflowd", componentOf("keyflowd-2026-10-14.log"))
	assert.Equal(t, "config-watcher", componentOf("config-watcher-2026-01-02.log"))
	assert.Equal(t, "custom", componentOf("custom.log"))
}

func TestLatestLogFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"keyflowd-2026-10-12.log",
		"keyflowd-2026-10-14.log",
		"config-watcher-2026-10-13.log",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0644))
	}

	files, err := latestLogFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "config-watcher-2026-10-13.log"),
		filepath.Join(dir, "keyflowd-2026-10-14.log"),
	}, files)

	files, err = latestLogFiles(dir, "keyflowd")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "keyflowd-2026-10-14.log")}, files)
}

func TestLastLines(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.log")
	require.NoError(t, os.WriteFile(file, []byte("one\ntwo\nthree\n"), 0644))

	lines, err := lastLines(file, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"two", "three"}, lines)

	lines, err = lastLines(file, 0)
	require.NoError(t, err)
	assert.Len(t, lines, 3)

	empty := filepath.Join(t.TempDir(), "empty.log")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	lines, err = lastLines(empty, 10)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestFormatLogLine(t *testing.T) {
	assert.Equal(t, "plain text entry", formatLogLine("plain text entry"))

	line := `{"level":"warning","msg":"Reload failed","time":"2026-10-14T10:00:00Z","component":"keyflowd","file":"groups.yml"}`
	out := formatLogLine(line)
	assert.Contains(t, out, "Reload failed")
	assert.Contains(t, out, "WARNING")
	assert.Contains(t, out, "[keyflowd]")
	assert.Contains(t, out, "file=groups.yml")
}

func TestKeysParse(t *testing.T) {
	root := cli.NewStandardCommand("keyflow", "test")
	root.AddCommand(NewKeysCmd())
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"keys", "parse", "--json", "cmd+shift+d", "ctrl+a", "ctrl+space"})
	require.NoError(t, root.Execute())

	var results []struct {
		Input string `json:"input"`
		ID    string `json:"id"`
		Code  uint16 `json:"code"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 3)
	assert.Equal(t, "shift+command+D", results[0].ID)
	assert.Equal(t, uint16(2), results[0].Code)
	assert.Equal(t, uint16(0), results[1].Code)
	assert.Equal(t, "control+Space", results[2].ID)
	assert.Equal(t, uint16(49), results[2].Code)

	root.SetArgs([]string{"keys", "parse", "cmd+nope+d"})
	assert.Error(t, root.Execute())
}
