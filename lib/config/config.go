// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/romfs/lib/compress"
)

// EnvironmentVariable names the variable [Load] reads the config path from.
const EnvironmentVariable = "ROMFS_CONFIG"

// SDMCLayer is the name that disables the sdmc patch root when listed
// in a title's disabled add-ons.
const SDMCLayer = "SDMC"

// Config is the configuration for the romfs tool.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Layering configures which patch directories apply to a title.
	Layering LayeringConfig `yaml:"layering"`

	// Output configures how images are written.
	Output OutputConfig `yaml:"output"`

	// Log configures the command logger.
	Log LogConfig `yaml:"log"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for romfs data.
	Root string `yaml:"root"`

	// Mods is the load root. Each title's add-ons live under
	// <mods>/<title id>/<add-on name>/.
	Mods string `yaml:"mods"`

	// SDMC is the sdmc patch root. Patches for a title live under
	// <sdmc>/<title id>/.
	SDMC string `yaml:"sdmc"`

	// Dump is where extracted images are written by default.
	Dump string `yaml:"dump"`
}

// LayeringConfig configures patch layering.
type LayeringConfig struct {
	// Disabled maps a title id to add-on names that must not be
	// layered. The name "SDMC" disables the sdmc patch root.
	Disabled map[string][]string `yaml:"disabled"`

	// Filler is the byte used for padding between image segments.
	Filler uint8 `yaml:"filler"`
}

// OutputConfig configures written images.
type OutputConfig struct {
	// Compression is the default algorithm for written images:
	// "none", "lz4" or "zstd".
	Compression string `yaml:"compression"`
}

// LogConfig configures the command logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "romfs")

	return &Config{
		Paths: PathsConfig{
			Root: defaultRoot,
			Mods: filepath.Join(defaultRoot, "load"),
			SDMC: filepath.Join(defaultRoot, "sdmc"),
			Dump: filepath.Join(defaultRoot, "dump"),
		},
		Layering: LayeringConfig{
			Disabled: map[string][]string{},
		},
		Output: OutputConfig{
			Compression: compress.None.String(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the ROMFS_CONFIG environment variable.
// There is no fallback: if the variable is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your romfs.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Files ending
// in .json or .jsonc have comments and trailing commas stripped before
// decoding; everything else is parsed as YAML.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML once comments are gone.
		data = jsonc.ToJSON(data)
	}

	return yaml.Unmarshal(data, c)
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"ROMFS_ROOT": c.Paths.Root,
		"HOME":       os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["ROMFS_ROOT"] = c.Paths.Root

	c.Paths.Mods = expandVars(c.Paths.Mods, vars)
	c.Paths.SDMC = expandVars(c.Paths.SDMC, vars)
	c.Paths.Dump = expandVars(c.Paths.Dump, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Provided vars first, then the process environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.Mods == "" {
		errs = append(errs, fmt.Errorf("paths.mods is required"))
	}

	if _, err := compress.Parse(c.Output.Compression); err != nil {
		errs = append(errs, fmt.Errorf("output.compression: %w", err))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	titles := make([]string, 0, len(c.Layering.Disabled))
	for title := range c.Layering.Disabled {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		if !isTitleID(title) {
			errs = append(errs, fmt.Errorf("layering.disabled: %q is not a 16-digit hex title id", title))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// DisabledFor returns the add-on names disabled for a title. Title ids
// compare case-insensitively.
func (c *Config) DisabledFor(titleID string) []string {
	for title, names := range c.Layering.Disabled {
		if strings.EqualFold(title, titleID) {
			return names
		}
	}
	return nil
}

// TitlePaths returns the mod load root and sdmc root for a title.
func (c *Config) TitlePaths(titleID string) (loadRoot, sdmcRoot string) {
	titleID = strings.ToUpper(titleID)
	return filepath.Join(c.Paths.Mods, titleID), filepath.Join(c.Paths.SDMC, titleID)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, err
	}
	return level, nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Mods,
		c.Paths.SDMC,
		c.Paths.Dump,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

func isTitleID(s string) bool {
	if len(s) != 16 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
