//go:build darwin && cgo

package keytap

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <ApplicationServices/ApplicationServices.h>
#include <stdint.h>

extern int kfTapEvent(uintptr_t handle, int type, uint16_t code, uint64_t flags, int64_t source, int repeat);

static CFMachPortRef kf_tap = NULL;
static CFRunLoopRef kf_loop = NULL;

static CGEventRef kf_callback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon) {
	if (type == kCGEventTapDisabledByTimeout || type == kCGEventTapDisabledByUserInput) {
		if (kf_tap != NULL) {
			CGEventTapEnable(kf_tap, true);
		}
		kfTapEvent((uintptr_t)refcon, -1, 0, 0, 0, 0);
		return event;
	}
	uint16_t code = (uint16_t)CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
	int64_t source = CGEventGetIntegerValueField(event, kCGEventSourceUserData);
	int repeat = (int)CGEventGetIntegerValueField(event, kCGKeyboardEventAutorepeat);
	uint64_t flags = (uint64_t)CGEventGetFlags(event);
	if (kfTapEvent((uintptr_t)refcon, (int)type, code, flags, source, repeat)) {
		return NULL;
	}
	return event;
}

static int kf_tap_install(uintptr_t handle) {
	CGEventMask mask = CGEventMaskBit(kCGEventKeyDown) | CGEventMaskBit(kCGEventKeyUp) | CGEventMaskBit(kCGEventFlagsChanged);
	kf_tap = CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap, kCGEventTapOptionDefault,
		mask, kf_callback, (void *)handle);
	if (kf_tap == NULL) {
		return 0;
	}
	CFRunLoopSourceRef src = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, kf_tap, 0);
	kf_loop = CFRunLoopGetCurrent();
	CFRunLoopAddSource(kf_loop, src, kCFRunLoopCommonModes);
	CFRelease(src);
	CGEventTapEnable(kf_tap, true);
	return 1;
}

static void kf_tap_run(void) {
	CFRunLoopRun();
}

static void kf_tap_teardown(void) {
	if (kf_tap != NULL) {
		CGEventTapEnable(kf_tap, false);
		CFMachPortInvalidate(kf_tap);
		CFRelease(kf_tap);
		kf_tap = NULL;
	}
	kf_loop = NULL;
}

static void kf_tap_stop(void) {
	if (kf_loop != NULL) {
		CFRunLoopStop(kf_loop);
	}
}
*/
import "C"

import (
	"runtime"
	"runtime/cgo"
	"sync"

	"github.com/sirupsen/logrus"

	kferrors "github.com/grovetools/keyflow/errors"
	"github.com/grovetools/keyflow/logging"
	"github.com/grovetools/keyflow/pkg/models"
)

// CoreGraphics event type values.
const (
	cgKeyDown      = 10
	cgKeyUp        = 11
	cgFlagsChanged = 12
	tapReenabled   = -1
)

type systemTap struct {
	mu      sync.Mutex
	handler func(Event) Verdict
	handle  cgo.Handle
	done    chan struct{}
	logger  *logrus.Entry
}

// NewSystemTap returns the CoreGraphics session event tap.
func NewSystemTap() Tap {
	return &systemTap{logger: logging.NewLogger("keytap")}
}

func (t *systemTap) Start(handler func(Event) Verdict) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		return nil
	}
	if !Trusted() {
		return kferrors.MissingCapability("accessibility")
	}

	t.handler = handler
	t.handle = cgo.NewHandle(t)
	ready := make(chan bool, 1)
	done := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if C.kf_tap_install(C.uintptr_t(t.handle)) == 0 {
			ready <- false
			return
		}
		ready <- true
		C.kf_tap_run()
		C.kf_tap_teardown()
		close(done)
	}()

	if !<-ready {
		t.handle.Delete()
		return kferrors.MissingCapability("event tap")
	}
	t.done = done
	t.logger.Info("Event tap installed")
	return nil
}

func (t *systemTap) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		return
	}
	C.kf_tap_stop()
	<-t.done
	t.handle.Delete()
	t.done = nil
	t.logger.Info("Event tap removed")
}

func (t *systemTap) dispatch(typ int, code uint16, flags uint64, source int64, repeat bool) bool {
	ev := Event{Code: code, Flags: models.ModifierFlags(flags), Repeat: repeat, Synthetic: source == SourceMarker}
	switch typ {
	case cgKeyDown:
		ev.Type = KeyDown
	case cgKeyUp:
		ev.Type = KeyUp
	case cgFlagsChanged:
		ev.Type = FlagsChanged
	case tapReenabled:
		t.logger.Warn("Event tap was disabled by the OS and has been re-enabled")
		return false
	default:
		return false
	}
	return t.handler(ev) == Consume
}
