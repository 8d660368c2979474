package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/keyflow/pkg/models"
)

func TestSummarize(t *testing.T) {
	k, err := models.ParseKeyShortcut("cmd+k")
	require.NoError(t, err)

	groups := []models.Group{
		{Name: "Global", Workflows: []models.Workflow{
			{ID: "a", Name: "Keys", Enabled: true, Execution: models.ExecutionSerial,
				Trigger:  &models.Trigger{Keyboard: []models.KeyShortcut{k, k}},
				Commands: make([]models.Command, 2)},
		}},
		{Name: "Editors", Workflows: []models.Workflow{
			{ID: "b", Name: "Launch", Trigger: &models.Trigger{Application: []models.ApplicationTrigger{{
				BundleIdentifier: "com.example.Editor",
				Contexts:         []models.ApplicationContext{models.ContextLaunched, models.ContextFrontmost},
			}}}},
			{ID: "c", Name: "Manual"},
		}},
	}

	got := Summarize(groups)
	require.Len(t, got, 3)
	assert.Equal(t, "Global", got[0].Group)
	assert.Equal(t, k.String()+", "+k.String(), got[0].Trigger)
	assert.Equal(t, 2, got[0].Commands)
	assert.Equal(t, "com.example.Editor launched/frontmost", got[1].Trigger)
	assert.Empty(t, got[2].Trigger)

	assert.Nil(t, Summarize(nil))
}
