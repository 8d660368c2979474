//go:build !darwin || !cgo

package keytap

import (
	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/models"
)

type unsupportedTap struct{}

// NewSystemTap returns a tap that cannot be installed on this platform.
func NewSystemTap() Tap {
	return unsupportedTap{}
}

func (unsupportedTap) Start(func(Event) Verdict) error {
	return kferrors.MissingCapability("event tap")
}

func (unsupportedTap) Stop() {}

type unsupportedPoster struct{}

// NewSystemPoster returns a poster that fails on this platform.
func NewSystemPoster() Poster {
	return unsupportedPoster{}
}

func (unsupportedPoster) PostKey(uint16, models.ModifierFlags, bool) error {
	return kferrors.MissingCapability("event posting")
}

func (unsupportedPoster) PostText(string) error {
	return kferrors.MissingCapability("event posting")
}

// Trusted reports whether the process holds the accessibility permission.
func Trusted() bool {
	return false
}
