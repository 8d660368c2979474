package runner

import (
	"context"

	"github.com/sirupsen/logrus"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/enginestate"
	"github.com/grovetools/keyflow/pkg/models"
)

// LastKeyboardFunc returns the most recent keyboard command that ran.
type LastKeyboardFunc func() (models.KeyboardCommand, bool)

// BuiltIn handles the engine's own actions.
type BuiltIn struct {
	state        *enginestate.Machine
	keyboard     *Keyboard
	lastKeyboard LastKeyboardFunc
	// OnQuickRun is called for quickRun commands. It must not block.
	OnQuickRun func()
	logger     *logrus.Entry
}

func NewBuiltIn(state *enginestate.Machine, keyboard *Keyboard, last LastKeyboardFunc) *BuiltIn {
	return &BuiltIn{
		state:        state,
		keyboard:     keyboard,
		lastKeyboard: last,
		logger:       logging.NewLogger("runner.builtin"),
	}
}

func (b *BuiltIn) Run(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.BuiltInCommand)
	if !ok {
		return unexpected(models.KindBuiltIn, cmd)
	}
	switch c.Action {
	case models.BuiltInEnable:
		b.apply(enginestate.SignalEnable)
	case models.BuiltInDisable:
		b.apply(enginestate.SignalDisable)
	case models.BuiltInToggle:
		b.apply(enginestate.SignalToggle)
	case models.BuiltInRecordSequence:
		b.apply(enginestate.SignalStartRecording)
	case models.BuiltInQuickRun:
		if b.OnQuickRun != nil {
			b.OnQuickRun()
		}
	case models.BuiltInRepeatLastKeystroke:
		if b.lastKeyboard == nil {
			return nil
		}
		last, ok := b.lastKeyboard()
		if !ok {
			b.logger.Debug("No keystroke to repeat")
			return nil
		}
		return b.keyboard.Post(ctx, last.Shortcuts)
	default:
		return kferrors.New(kferrors.ErrCodeInvalidInput, "unknown built-in action: "+string(c.Action))
	}
	return nil
}

func (b *BuiltIn) apply(sig enginestate.Signal) {
	if change, ok := b.state.Apply(sig); ok {
		b.logger.WithFields(logrus.Fields{"from": change.From, "to": change.To}).Info("Engine state changed")
	}
}
