// Copyright 2025, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/outrigdev/stdiolog/pkg/base"
	"github.com/outrigdev/stdiolog/pkg/ds"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, ds.NativeOnly, cfg.Sinks)
	require.Equal(t, base.DefaultTag, cfg.Tag)
	require.Equal(t, ds.OnBridgeErrorIgnore, cfg.OnBridgeError)
	require.Equal(t, base.DefaultReadSize, cfg.ReadSize)
}

func TestNormalizeFillsDefaultsWithoutMutating(t *testing.T) {
	in := &ds.Config{Sinks: ds.Both}
	out := Normalize(in)
	require.Equal(t, base.DefaultTag, out.Tag)
	require.Equal(t, base.DefaultReadSize, out.ReadSize)
	require.Equal(t, ds.Both, out.Sinks)
	require.Equal(t, "", in.Tag)
	require.Equal(t, DefaultConfig(), Normalize(nil))
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv(base.ConfigJsonEnvName, "")
	t.Setenv(base.ConfigFileEnvName, "")
	t.Setenv(base.TagEnvName, "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigJsonEnv(t *testing.T) {
	t.Setenv(base.ConfigJsonEnvName, `{"sinks":"both","tag":"DenoRT","onbridgeerror":"terminate","charset":"latin1"}`)
	t.Setenv(base.TagEnvName, "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ds.Both, cfg.Sinks)
	require.Equal(t, "DenoRT", cfg.Tag)
	require.Equal(t, ds.OnBridgeErrorTerminate, cfg.OnBridgeError)
	require.Equal(t, "latin1", cfg.Charset)
	require.Equal(t, base.DefaultReadSize, cfg.ReadSize)
}

func TestLoadConfigTagEnvWins(t *testing.T) {
	t.Setenv(base.ConfigJsonEnvName, `{"tag":"FromJson"}`)
	t.Setenv(base.TagEnvName, "FromEnv")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "FromEnv", cfg.Tag)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stdiolog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sinks":"bridge","readsize":512}`), 0o644))
	t.Setenv(base.ConfigJsonEnvName, "")
	t.Setenv(base.ConfigFileEnvName, path)
	t.Setenv(base.TagEnvName, "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ds.BridgeOnly, cfg.Sinks)
	require.Equal(t, 512, cfg.ReadSize)
	require.Equal(t, base.DefaultTag, cfg.Tag)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Setenv(base.TagEnvName, "")
	t.Setenv(base.ConfigJsonEnvName, `{"sinks":"everywhere"}`)
	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv(base.ConfigJsonEnvName, "")
	t.Setenv(base.ConfigFileEnvName, filepath.Join(t.TempDir(), "missing.json"))
	_, err = LoadConfig()
	require.ErrorIs(t, err, os.ErrNotExist)
}
