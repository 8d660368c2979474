package runner

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rivo/uniseg"
	"github.com/sirupsen/logrus"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/keycodes"
	"github.com/grovetools/keyflow/pkg/keytap"
	"github.com/grovetools/keyflow/pkg/models"
)

// NaturalTyping selects the upper bound of the random per-character delay.
type NaturalTyping string

const (
	TypingDisabled NaturalTyping = "disabled"
	TypingSlow     NaturalTyping = "slow"
	TypingMedium   NaturalTyping = "medium"
	TypingFast     NaturalTyping = "fast"
)

// Bound is the largest delay drawn before a character.
func (n NaturalTyping) Bound() time.Duration {
	switch n {
	case TypingSlow:
		return 27500 * time.Microsecond
	case TypingMedium:
		return 17500 * time.Microsecond
	case TypingFast:
		return 10 * time.Millisecond
	}
	return 0
}

// Valid reports whether n is a known setting.
func (n NaturalTyping) Valid() bool {
	switch n {
	case TypingDisabled, TypingSlow, TypingMedium, TypingFast:
		return true
	}
	return false
}

// Type types literal text one grapheme at a time.
type Type struct {
	keys   KeyResolver
	poster keytap.Poster
	typing NaturalTyping
	sleep  Sleeper
	jitter func(bound time.Duration) time.Duration
	logger *logrus.Entry
}

func NewType(keys KeyResolver, poster keytap.Poster, typing NaturalTyping) *Type {
	return &Type{
		keys:   keys,
		poster: poster,
		typing: typing,
		sleep:  sleepContext,
		jitter: uniformJitter,
		logger: logging.NewLogger("runner.type"),
	}
}

func uniformJitter(bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}
	return rand.N(bound)
}

func (t *Type) Run(ctx context.Context, cmd models.Command) error {
	c, ok := cmd.(models.TypeCommand)
	if !ok {
		return unexpected(models.KindType, cmd)
	}
	bound := t.typing.Bound()
	graphemes := uniseg.NewGraphemes(c.Input)
	for graphemes.Next() {
		if ctx.Err() != nil {
			return kferrors.Cancelled()
		}
		if bound > 0 {
			if err := t.sleep(ctx, t.jitter(bound)); err != nil {
				return err
			}
		}
		if err := t.typeOne(graphemes.Str()); err != nil {
			return err
		}
	}
	return nil
}

func (t *Type) typeOne(char string) error {
	var vk keycodes.VirtualKey
	switch char {
	case "\n", "\r", "\r\n":
		vk = keycodes.VirtualKey{Code: keycodes.CodeReturn}
	default:
		resolved, err := t.keys.VirtualKey(char)
		if err != nil {
			// Characters outside the layout are inserted as text.
			t.logger.WithField("char", char).Debug("No key for character, posting text")
			return t.poster.PostText(char)
		}
		vk = resolved
	}
	flags := keycodes.EventFlags(vk.Code, vk.Modifiers)
	if err := t.poster.PostKey(vk.Code, flags, true); err != nil {
		return err
	}
	return t.poster.PostKey(vk.Code, flags, false)
}
