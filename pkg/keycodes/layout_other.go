//go:build !darwin || !cgo

package keycodes

import kferrors "github.com/grovetools/keyflow/errors"

// CurrentLayout reads the active keyboard layout from the OS.
func CurrentLayout() (Layout, error) {
	return Layout{}, kferrors.MissingCapability("keyboard layout")
}
