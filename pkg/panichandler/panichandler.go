// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package panichandler

import (
	"fmt"
	"runtime/debug"

	"github.com/outrigdev/stdiolog/pkg/global"
)

// PanicHandler converts a recovered value into an error and logs the stack to
// the diagnostic logger. Returns nil if recoverVal is nil.
// Use as: defer func() { err = PanicHandler("name", recover()) }()
func PanicHandler(debugStr string, recoverVal any) error {
	if recoverVal == nil {
		return nil
	}
	logger := global.GetLogger()
	logger.Errorf("[panic] in %s: %v", debugStr, recoverVal)
	logger.Debugf("[panic] stack trace:\n%s", string(debug.Stack()))
	if err, ok := recoverVal.(error); ok {
		return fmt.Errorf("panic in %s: %w", debugStr, err)
	}
	return fmt.Errorf("panic in %s: %v", debugStr, recoverVal)
}
