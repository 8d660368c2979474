package runner

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/keycodes"
	"github.com/grovetools/keyflow/pkg/keytap"
	"github.com/grovetools/keyflow/pkg/models"
)

// KeySettleDelay follows every synthesized shortcut list.
const KeySettleDelay = time.Millisecond

// Keyboard synthesizes shortcuts through a Poster.
type Keyboard struct {
	keys   KeyResolver
	poster keytap.Poster
	sleep  Sleeper
	logger *logrus.Entry
}

func NewKeyboard(keys KeyResolver, poster keytap.Poster) *Keyboard {
	return &Keyboard{
		keys:   keys,
		poster: poster,
		sleep:  sleepContext,
		logger: logging.NewLogger("runner.keyboard"),
	}
}

func (k *Keyboard) Run(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.KeyboardCommand)
	if !ok {
		return unexpected(models.KindKeyboard, cmd)
	}
	return k.Post(ctx, c.Shortcuts)
}

// Post sends a key-down and a key-up for every shortcut. A shortcut whose key
// does not resolve is skipped; the rest are still posted and the resolve
// errors are returned together.
func (k *Keyboard) Post(ctx context.Context, shortcuts []models.KeyShortcut) error {
	var errs []error
	for _, ks := range shortcuts {
		code, err := k.keys.KeyCode(ks.Key)
		if err != nil {
			k.logger.WithField("key", ks.Key).Debug("Skipping unresolved key")
			errs = append(errs, err)
			continue
		}
		if err := k.tap(code, keycodes.EventFlags(code, ks.Modifiers)); err != nil {
			return err
		}
	}
	if err := k.sleep(ctx, KeySettleDelay); err != nil {
		return err
	}
	return stderrors.Join(errs...)
}

func (k *Keyboard) tap(code uint16, flags models.ModifierFlags) error {
	if err := k.poster.PostKey(code, flags, true); err != nil {
		return err
	}
	return k.poster.PostKey(code, flags, false)
}
