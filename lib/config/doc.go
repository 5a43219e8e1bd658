// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the romfs tool.
//
// Configuration is loaded from a single file specified by either the
// ROMFS_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There is no discovery and no automatic file search.
// YAML is the native format; files named *.json or *.jsonc are accepted
// after comments and trailing commas are stripped.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${ROMFS_ROOT}, and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Layering, Output, Log
//   - [Default] -- returns a Config with defaults under ~/.local/share/romfs
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [Config.DisabledFor] and [Config.TitlePaths] -- per-title layering inputs
package config
