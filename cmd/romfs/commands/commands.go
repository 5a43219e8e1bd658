// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the romfs command tree.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
	"github.com/bureau-foundation/romfs/lib/version"
)

// Root builds the complete command tree writing results to stdout.
func Root() *cli.Command {
	return newRoot(os.Stdout)
}

func newRoot(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name: "romfs",
		Description: `romfs: build, unpack, patch and inspect RomFS images.

A RomFS image is a read-only filesystem with hash-indexed directory and
file tables. Images may be stored raw or compressed with lz4 or zstd;
compressed images are recognized by their contents.`,
		Subcommands: []*cli.Command{
			packCommand(stdout),
			extractCommand(),
			lsCommand(stdout),
			patchCommand(stdout),
			mountCommand(),
			manifestCommand(stdout),
			verifyCommand(stdout),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Fprintf(stdout, "romfs %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
