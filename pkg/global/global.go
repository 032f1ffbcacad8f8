// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package global

import (
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Diagnostic logger for stdiolog internals. It must never write to stdout/stderr
// once they are redirected (the output would loop back into the channel).
var DiagLogger atomic.Pointer[logrus.Entry]

var discardLogger = func() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}()

// GetLogger never returns nil; before init it returns a logger that drops everything
func GetLogger() *logrus.Entry {
	l := DiagLogger.Load()
	if l == nil {
		return discardLogger
	}
	return l
}
