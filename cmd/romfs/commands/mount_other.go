// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !darwin && !linux

package commands

import (
	"fmt"
	"runtime"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
)

func mountCommand() *cli.Command {
	return &cli.Command{
		Name:    "mount",
		Summary: "Mount an image read-only with FUSE (unavailable on this platform)",
		Run: func([]string) error {
			return fmt.Errorf("mount: FUSE is not supported on %s", runtime.GOOS)
		},
	}
}
