// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/outrigdev/stdiolog"
	"github.com/sirupsen/logrus"
)

func main() {
	sess, err := stdiolog.InitNative("testsmall")
	if err != nil {
		fmt.Fprintf(os.Stderr, "stdiolog init failed: %v\n", err)
		os.Exit(1)
	}

	// an application logger that knows nothing about the redirect
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})

	logrus.Info("Hello, world!")

	// blank lines are delivered as empty messages
	fmt.Printf("\n\n")

	debug.PrintStack()

	for i := 1; i <= 10; i++ {
		fmt.Printf("Line %d\n", i)
		time.Sleep(100 * time.Millisecond)
	}

	// a trailing line without a newline stays in the pump's partial buffer
	fmt.Printf("unterminated")
	time.Sleep(50 * time.Millisecond)
	sess.Logger().WithField("lines", sess.LineCount()).Info("testsmall done")
}
