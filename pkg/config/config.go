// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"

	"github.com/outrigdev/stdiolog/pkg/base"
	"github.com/outrigdev/stdiolog/pkg/ds"
)

// DefaultConfig returns native-only logging with the default tag
func DefaultConfig() *ds.Config {
	return &ds.Config{
		Sinks:         ds.NativeOnly,
		Tag:           base.DefaultTag,
		OnBridgeError: ds.OnBridgeErrorIgnore,
		ReadSize:      base.DefaultReadSize,
	}
}

// Normalize fills zero fields with defaults. Returns a copy.
func Normalize(cfg *ds.Config) *ds.Config {
	if cfg == nil {
		return DefaultConfig()
	}
	rtn := *cfg
	if rtn.Tag == "" {
		rtn.Tag = base.DefaultTag
	}
	if rtn.ReadSize <= 0 {
		rtn.ReadSize = base.DefaultReadSize
	}
	return &rtn
}

// ApplyEnv overrides fields from environment variables (STDIOLOG_TAG)
func ApplyEnv(cfg *ds.Config) {
	if cfg == nil {
		return
	}
	if tag := os.Getenv(base.TagEnvName); tag != "" {
		cfg.Tag = tag
	}
}
