// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
	"github.com/bureau-foundation/romfs/lib/romfs"
	"github.com/bureau-foundation/romfs/lib/vfs"
)

type packParams struct {
	globalParams
	Output   string `flag:"output,o" desc:"image to write, or - for stdout (required)"`
	Ext      string `flag:"ext"      desc:"mod directory or zip with .stub and .ips entries"`
	Compress string `flag:"compress" desc:"none, lz4 or zstd (default: from the output suffix, else the config)"`
	Filler   int    `flag:"filler"   desc:"byte used to pad gaps between segments (default: from the config)" default:"-1"`
}

func packCommand(stdout io.Writer) *cli.Command {
	var params packParams

	return &cli.Command{
		Name:    "pack",
		Summary: "Build an image from a directory tree",
		Description: `Build a RomFS image from a directory, zip archive, or existing image.

With --ext, files in the source tree are deleted where the mod tree has
a "<name>.stub" entry at the same path, and patched where it has a
"<name>.ips" entry.`,
		Usage:  "romfs pack <source> -o <image> [flags]",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, 1, "romfs pack <source> -o <image>"); err != nil {
				return err
			}
			if params.Output == "" {
				return fmt.Errorf("--output is required")
			}
			env, err := params.load("pack")
			if err != nil {
				return err
			}
			return runPack(env, args[0], params, stdout)
		},
		Examples: []cli.Example{
			{
				Description: "Pack a directory into a zstd-compressed image",
				Command:     "romfs pack ./romfs -o game.romfs.zst",
			},
			{
				Description: "Apply stubs and IPS patches while packing",
				Command:     "romfs pack ./romfs --ext ./romfs_ext -o patched.romfs",
			},
		},
	}
}

func runPack(env *environment, source string, params packParams, stdout io.Writer) error {
	base, baseCloser, err := openTree(source)
	if err != nil {
		return err
	}
	defer baseCloser.Close()

	var ext vfs.Directory
	if params.Ext != "" {
		extDir, extCloser, err := openTree(params.Ext)
		if err != nil {
			return fmt.Errorf("opening mod directory: %w", err)
		}
		defer extCloser.Close()
		ext = extDir
	}

	algorithm, err := outputAlgorithm(params.Compress, params.Output, env.config)
	if err != nil {
		return err
	}

	filler := env.config.Layering.Filler
	if params.Filler >= 0 {
		if params.Filler > 0xFF {
			return fmt.Errorf("--filler must be a byte value, got %d", params.Filler)
		}
		filler = byte(params.Filler)
	}

	build, err := romfs.NewBuildContext(base, ext, romfs.BuildOptions{Filler: filler})
	if err != nil {
		return err
	}
	image := vfs.ConcatenateWithFiller(base.Name(), filler, build.Build())

	written, err := writeImage(params.Output, stdout, image, algorithm)
	if err != nil {
		return err
	}

	env.logger.Info("image written",
		"output", params.Output,
		"directories", build.DirectoryCount(),
		"files", build.FileCount(),
		"size", written,
		"compression", algorithm,
	)
	return nil
}
