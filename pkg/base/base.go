// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package base

// Native log tag used when the caller does not supply one
const DefaultTag = "AnLogger"

// Tag for stdiolog's own diagnostics in the native log
const DiagTag = "stdiolog"

// Default bridge target: a Kotlin object singleton exposing logInfo(String)
const (
	DefaultBridgeClass       = "com/atstudio/denort/jni/Io"
	DefaultBridgeField       = "INSTANCE"
	DefaultBridgeFieldSig    = "Lcom/atstudio/denort/jni/Io;"
	DefaultBridgeMethod      = "logInfo"
	DefaultBridgeMethodSig   = "(Ljava/lang/String;)V"
	BridgeLocalFrameCapacity = 4
)

// DefaultReadSize is the chunk size for reads from the redirect channel
const DefaultReadSize = 4096

// Environment variables
const (
	ConfigJsonEnvName = "STDIOLOG_CONFIG_JSON"
	ConfigFileEnvName = "STDIOLOG_CONFIG_FILE"
	TagEnvName        = "STDIOLOG_TAG"
)

const StdioLogVersion = "v0.1.0"
