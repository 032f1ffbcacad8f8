// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/outrigdev/stdiolog/pkg/base"
	"github.com/outrigdev/stdiolog/pkg/ds"
	"github.com/outrigdev/stdiolog/pkg/utilfn"
)

// LoadConfig builds a config from the environment, starting from DefaultConfig.
//  1. STDIOLOG_CONFIG_JSON (inline JSON object)
//  2. STDIOLOG_CONFIG_FILE (path to a JSON file, must exist when set)
//  3. STDIOLOG_TAG overrides the tag from either source
//
// Fields missing from the JSON keep their defaults.
func LoadConfig() (*ds.Config, error) {
	cfg := DefaultConfig()
	if configJson := os.Getenv(base.ConfigJsonEnvName); configJson != "" {
		if err := json.Unmarshal([]byte(configJson), cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", base.ConfigJsonEnvName, err)
		}
	} else if configFile := os.Getenv(base.ConfigFileEnvName); configFile != "" {
		if err := loadConfigFile(configFile, cfg); err != nil {
			return nil, err
		}
	}
	ApplyEnv(cfg)
	return Normalize(cfg), nil
}

func loadConfigFile(path string, cfg *ds.Config) error {
	data, err := os.ReadFile(utilfn.ExpandHomeDir(path))
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
