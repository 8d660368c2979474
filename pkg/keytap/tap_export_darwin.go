//go:build darwin && cgo

package keytap

/*
#include <stdint.h>
*/
import "C"

import "runtime/cgo"

//export kfTapEvent
func kfTapEvent(handle C.uintptr_t, typ C.int, code C.uint16_t, flags C.uint64_t, source C.int64_t, repeat C.int) C.int {
	t, ok := cgo.Handle(handle).Value().(*systemTap)
	if !ok {
		return 0
	}
	if t.dispatch(int(typ), uint16(code), uint64(flags), int64(source), repeat != 0) {
		return 1
	}
	return 0
}
