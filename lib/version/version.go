// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Build is the resolved build identity.
type Build struct {
	Version string
	Commit  string
	Dirty   bool
	Time    string
}

// Current returns the build identity. Values not injected with
// -ldflags are taken from the VCS stamp the go command embeds, when
// there is one.
func Current() Build {
	build := Build{
		Version: Version,
		Commit:  GitCommit,
		Dirty:   GitDirty == "true",
		Time:    BuildTime,
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		build.fillFromSettings(info.Settings)
	}
	return build
}

func (b *Build) fillFromSettings(settings []debug.BuildSetting) {
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			if b.Commit == "unknown" && setting.Value != "" {
				b.Commit = setting.Value
				if len(b.Commit) > 12 {
					b.Commit = b.Commit[:12]
				}
			}
		case "vcs.modified":
			if setting.Value == "true" {
				b.Dirty = true
			}
		case "vcs.time":
			if b.Time == "unknown" && setting.Value != "" {
				b.Time = setting.Value
			}
		}
	}
}

// String formats the identity as "0.1.0-dev (abc1234, 2026-...)".
func (b Build) String() string {
	dirty := ""
	if b.Dirty {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", b.Version, b.Commit, dirty, b.Time)
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return Current().String()
}

// Full returns detailed version information including Go version.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number.
func Short() string {
	return Version
}
