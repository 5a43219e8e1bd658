// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Output.Compression != "none" {
		t.Errorf("expected compression=none, got %s", cfg.Output.Compression)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected level=info, got %s", cfg.Log.Level)
	}
	if filepath.Dir(cfg.Paths.Mods) != cfg.Paths.Root {
		t.Errorf("expected mods under root, got %s", cfg.Paths.Mods)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoad_RequiresRomfsConfig(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when ROMFS_CONFIG not set, got nil")
	}

	expectedMsg := "ROMFS_CONFIG environment variable not set"
	if !strings.HasPrefix(err.Error(), expectedMsg) {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithRomfsConfig(t *testing.T) {
	configPath := writeConfig(t, "romfs.yaml", `
paths:
  root: /test/root
  mods: /test/load
`)
	t.Setenv(EnvironmentVariable, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Paths.Root != "/test/root" {
		t.Errorf("expected root=/test/root, got %s", cfg.Paths.Root)
	}
	if cfg.Paths.Mods != "/test/load" {
		t.Errorf("expected mods=/test/load, got %s", cfg.Paths.Mods)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, "romfs.yaml", `
paths:
  root: /custom/root
  mods: ${ROMFS_ROOT}/load
  sdmc: ${ROMFS_ROOT}/sdmc

layering:
  filler: 255
  disabled:
    0004000000055D00: [ "HD Textures", SDMC ]

output:
  compression: zstd

log:
  level: debug
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Paths.Mods != "/custom/root/load" {
		t.Errorf("expected mods=/custom/root/load, got %s", cfg.Paths.Mods)
	}
	if cfg.Paths.SDMC != "/custom/root/sdmc" {
		t.Errorf("expected sdmc=/custom/root/sdmc, got %s", cfg.Paths.SDMC)
	}
	if cfg.Layering.Filler != 0xFF {
		t.Errorf("expected filler=0xff, got %#x", cfg.Layering.Filler)
	}
	if cfg.Output.Compression != "zstd" {
		t.Errorf("expected compression=zstd, got %s", cfg.Output.Compression)
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, %v; want debug", level, err)
	}

	disabled := cfg.DisabledFor("0004000000055d00")
	if len(disabled) != 2 || disabled[0] != "HD Textures" || disabled[1] != SDMCLayer {
		t.Errorf("DisabledFor = %q", disabled)
	}
	if got := cfg.DisabledFor("0004000000000000"); got != nil {
		t.Errorf("DisabledFor(unknown) = %q, want nil", got)
	}
}

func TestLoadFile_JSONC(t *testing.T) {
	configPath := writeConfig(t, "romfs.jsonc", `{
  // Local overrides.
  "paths": {
    "root": "/json/root",
    "mods": "/json/load",
  },
  "output": { "compression": "lz4" },
}`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Paths.Root != "/json/root" || cfg.Paths.Mods != "/json/load" {
		t.Errorf("paths = %+v", cfg.Paths)
	}
	if cfg.Output.Compression != "lz4" {
		t.Errorf("expected compression=lz4, got %s", cfg.Output.Compression)
	}
	// Unset sections keep their defaults.
	if cfg.Log.Level != "info" {
		t.Errorf("expected level=info, got %s", cfg.Log.Level)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestTitlePaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.Mods = "/m"
	cfg.Paths.SDMC = "/s"

	load, sdmc := cfg.TitlePaths("0004000000055d00")
	if load != "/m/0004000000055D00" || sdmc != "/s/0004000000055D00" {
		t.Errorf("TitlePaths = %s, %s", load, sdmc)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("ROMFS_TEST_ENV", "from-env")

	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/romfs",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/romfs",
		},
		{
			input:    "${MISSING_ROMFS_VAR:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "${ROMFS_TEST_ENV}",
			vars:     map[string]string{},
			expected: "from-env",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "empty root path",
			modify: func(c *Config) {
				c.Paths.Root = ""
			},
			wantErr: true,
		},
		{
			name: "empty mods path",
			modify: func(c *Config) {
				c.Paths.Mods = ""
			},
			wantErr: true,
		},
		{
			name: "unknown compression",
			modify: func(c *Config) {
				c.Output.Compression = "brotli"
			},
			wantErr: true,
		},
		{
			name: "unknown log level",
			modify: func(c *Config) {
				c.Log.Level = "loud"
			},
			wantErr: true,
		},
		{
			name: "malformed title id",
			modify: func(c *Config) {
				c.Layering.Disabled["not-a-title"] = []string{"x"}
			},
			wantErr: true,
		},
		{
			name: "valid title id",
			modify: func(c *Config) {
				c.Layering.Disabled["0004000000055D00"] = []string{"x"}
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Root = filepath.Join(tmpDir, "romfs")
	cfg.Paths.Mods = filepath.Join(cfg.Paths.Root, "load")
	cfg.Paths.SDMC = filepath.Join(cfg.Paths.Root, "sdmc")
	cfg.Paths.Dump = filepath.Join(cfg.Paths.Root, "dump")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{cfg.Paths.Root, cfg.Paths.Mods, cfg.Paths.SDMC, cfg.Paths.Dump} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
