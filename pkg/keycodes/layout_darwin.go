//go:build darwin && cgo

package keycodes

/*
#cgo LDFLAGS: -framework Carbon -framework CoreFoundation
#include <Carbon/Carbon.h>

static int kf_translate(UInt16 code, UInt32 modifiers, UniChar *out, int max) {
	TISInputSourceRef source = TISCopyCurrentKeyboardLayoutInputSource();
	if (source == NULL) {
		return -1;
	}
	CFDataRef data = (CFDataRef)TISGetInputSourceProperty(source, kTISPropertyUnicodeKeyLayoutData);
	if (data == NULL) {
		CFRelease(source);
		return -1;
	}
	const UCKeyboardLayout *layout = (const UCKeyboardLayout *)CFDataGetBytePtr(data);
	UInt32 deadKeyState = 0;
	UniCharCount length = 0;
	OSStatus status = UCKeyTranslate(layout, code, kUCKeyActionDisplay, modifiers,
		LMGetKbdType(), kUCKeyTranslateNoDeadKeysBit, &deadKeyState, max, &length, out);
	CFRelease(source);
	if (status != noErr) {
		return -1;
	}
	return (int)length;
}

static int kf_layout_id(char *buf, int max) {
	TISInputSourceRef source = TISCopyCurrentKeyboardLayoutInputSource();
	if (source == NULL) {
		return 0;
	}
	CFStringRef id = (CFStringRef)TISGetInputSourceProperty(source, kTISPropertyInputSourceID);
	int ok = id != NULL && CFStringGetCString(id, buf, max, kCFStringEncodingUTF8);
	CFRelease(source);
	return ok;
}

// UCKeyTranslate takes Carbon modifier state shifted right by 8.
static UInt32 kf_shift_state(void) {
	return (shiftKey >> 8) & 0xFF;
}
*/
import "C"

import (
	"unicode"
	"unicode/utf16"
	"unsafe"

	kferrors "github.com/grovetools/keyflow/errors"
)

// CurrentLayout reads the active keyboard layout from the OS.
func CurrentLayout() (Layout, error) {
	var idBuf [256]C.char
	if C.kf_layout_id(&idBuf[0], C.int(len(idBuf))) == 0 {
		return Layout{}, kferrors.MissingCapability("keyboard layout")
	}
	layout := Layout{
		ID:   C.GoString(&idBuf[0]),
		Keys: make(map[uint16]Character, len(characterCodes)),
	}

	shift := C.kf_shift_state()
	for _, code := range characterCodes {
		base := translate(code, 0)
		if base == "" {
			continue
		}
		layout.Keys[code] = Character{Base: base, Shifted: translate(code, shift)}
	}
	if len(layout.Keys) == 0 {
		return Layout{}, kferrors.MissingCapability("unicode key layout data")
	}
	return layout, nil
}

func translate(code uint16, modifiers C.UInt32) string {
	var buf [8]C.UniChar
	n := C.kf_translate(C.UInt16(code), modifiers, &buf[0], C.int(len(buf)))
	if n <= 0 {
		return ""
	}
	units := unsafe.Slice((*uint16)(unsafe.Pointer(&buf[0])), int(n))
	s := string(utf16.Decode(units))
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return ""
		}
	}
	return s
}
