//go:build android && cgo

// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package androidlog

/*
#cgo LDFLAGS: -llog

#include <stdlib.h>
#include <android/log.h>
*/
import "C"

import (
	"unsafe"

	"github.com/outrigdev/stdiolog/pkg/ds"
)

type liblogLogger struct{}

// msg must not contain NUL (it would be truncated)
func (liblogLogger) Emit(prio ds.Priority, tag string, msg string) {
	ctag := C.CString(tag)
	defer C.free(unsafe.Pointer(ctag))
	cmsg := C.CString(msg)
	defer C.free(unsafe.Pointer(cmsg))
	C.__android_log_write(C.int(prio), ctag, cmsg)
}

// Default returns the liblog (logcat) writer
func Default() ds.NativeLogger {
	return liblogLogger{}
}
