// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package jnibridge implements bridge.Bridge over JNI. It is only built for
// android with cgo enabled.
//
// New must be called from inside a JNI native method (the goroutine is then
// running on an attached Java thread), and so must bridge.Resolve: FindClass on
// a natively attached thread only sees the system class loader.
package jnibridge
