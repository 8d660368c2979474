//go:build darwin && cgo

package keytap

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>

static int kf_post_key(uint16_t code, uint64_t flags, int down, int64_t marker) {
	CGEventSourceRef src = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);
	CGEventRef ev = CGEventCreateKeyboardEvent(src, (CGKeyCode)code, down ? true : false);
	if (ev == NULL) {
		if (src != NULL) CFRelease(src);
		return 0;
	}
	CGEventSetFlags(ev, (CGEventFlags)flags);
	CGEventSetIntegerValueField(ev, kCGEventSourceUserData, marker);
	CGEventPost(kCGHIDEventTap, ev);
	CFRelease(ev);
	if (src != NULL) CFRelease(src);
	return 1;
}

static int kf_post_unicode(const UniChar *chars, int n, int64_t marker) {
	for (int down = 1; down >= 0; down--) {
		CGEventRef ev = CGEventCreateKeyboardEvent(NULL, 0, down ? true : false);
		if (ev == NULL) {
			return 0;
		}
		CGEventKeyboardSetUnicodeString(ev, n, chars);
		CGEventSetIntegerValueField(ev, kCGEventSourceUserData, marker);
		CGEventPost(kCGHIDEventTap, ev);
		CFRelease(ev);
	}
	return 1;
}

static int kf_trusted(void) {
	return AXIsProcessTrusted() ? 1 : 0;
}
*/
import "C"

import (
	"fmt"
	"unicode/utf16"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/pkg/models"
)

type systemPoster struct{}

// NewSystemPoster returns a Poster backed by CGEventPost.
func NewSystemPoster() Poster {
	return systemPoster{}
}

func (systemPoster) PostKey(code uint16, flags models.ModifierFlags, down bool) error {
	d := C.int(0)
	if down {
		d = 1
	}
	if C.kf_post_key(C.uint16_t(code), C.uint64_t(flags), d, C.int64_t(SourceMarker)) == 0 {
		return kferrors.MissingCapability("event posting").WithDetail("code", code)
	}
	return nil
}

func (systemPoster) PostText(text string) error {
	units := utf16.Encode([]rune(text))
	if len(units) == 0 {
		return nil
	}
	buf := make([]C.UniChar, len(units))
	for i, u := range units {
		buf[i] = C.UniChar(u)
	}
	if C.kf_post_unicode(&buf[0], C.int(len(buf)), C.int64_t(SourceMarker)) == 0 {
		return kferrors.MissingCapability("event posting").WithDetail("text", fmt.Sprintf("%q", text))
	}
	return nil
}

// Trusted reports whether the process holds the accessibility permission.
func Trusted() bool {
	return C.kf_trusted() != 0
}
