//go:build !(android && cgo)

// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package androidlog

import (
	"os"
	"sync"

	"github.com/outrigdev/stdiolog/pkg/ds"
	"github.com/outrigdev/stdiolog/pkg/redirect"
)

var (
	defaultOnce   sync.Once
	defaultLogger *WriterLogger
)

// Default writes to a duplicate of the original stderr, taken on the first call.
// Call it before redirecting so the duplicate still points at the terminal.
func Default() ds.NativeLogger {
	defaultOnce.Do(func() {
		out, err := redirect.DupFile(os.Stderr, "orig-stderr")
		if err != nil {
			out = os.Stderr
		}
		defaultLogger = MakeWriterLogger(out)
	})
	return defaultLogger
}
