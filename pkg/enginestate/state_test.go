package enginestate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/keyflow/pkg/models"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		name    string
		start   models.EngineState
		signals []Signal
		want    models.EngineState
	}{
		{"enable from disabled", models.StateDisabled, []Signal{SignalEnable}, models.StateEnabled},
		{"disable", models.StateEnabled, []Signal{SignalDisable}, models.StateDisabled},
		{"toggle twice", models.StateEnabled, []Signal{SignalToggle, SignalToggle}, models.StateEnabled},
		{"record returns to disabled", models.StateDisabled, []Signal{SignalStartRecording, SignalStopRecording}, models.StateDisabled},
		{"record returns to enabled", models.StateEnabled, []Signal{SignalStartRecording, SignalStartRecording, SignalStopRecording}, models.StateEnabled},
		{"toggle leaves recording", models.StateDisabled, []Signal{SignalStartRecording, SignalToggle}, models.StateDisabled},
		{"stop without recording", models.StateEnabled, []Signal{SignalStopRecording}, models.StateEnabled},
		{"invalid initial", models.EngineState("bogus"), nil, models.StateEnabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.start)
			for _, sig := range tt.signals {
				m.Apply(sig)
			}
			assert.Equal(t, tt.want, m.Current())
		})
	}
}

func TestApplyReportsNoop(t *testing.T) {
	m := New(models.StateEnabled)
	_, changed := m.Apply(SignalEnable)
	assert.False(t, changed)

	change, changed := m.Apply(SignalDisable)
	assert.True(t, changed)
	assert.Equal(t, Change{From: models.StateEnabled, To: models.StateDisabled}, change)
}

func TestSubscribe(t *testing.T) {
	m := New(models.StateEnabled)
	ch := m.Subscribe()

	m.Set(models.StateRecording)
	got := <-ch
	assert.Equal(t, models.StateRecording, got.To)

	m.Unsubscribe(ch)
	_, open := <-ch
	require.False(t, open)

	m.Set(models.StateEnabled)
	assert.Equal(t, models.StateEnabled, m.Current())
}
