// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
	"github.com/bureau-foundation/romfs/lib/romfs"
	"github.com/bureau-foundation/romfs/lib/vfs"
	"github.com/bureau-foundation/romfs/lib/vfs/aferofs"
)

type extractParams struct {
	globalParams
	Output string `flag:"output,o" desc:"directory to extract into (default: <dump>/<image name> from the config)"`
	Path   string `flag:"path"     desc:"extract only this directory of the image"`
}

func extractCommand() *cli.Command {
	var params extractParams

	return &cli.Command{
		Name:    "extract",
		Summary: "Unpack an image into a host directory",
		Description: `Unpack every file and directory of an image into a host directory.

The output directory is created if needed; existing files with the same
names as extracted ones are an error. Compressed images (.lz4, .zst) are
decompressed first.`,
		Usage:  "romfs extract <image> [-o <dir>] [flags]",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, 1, "romfs extract <image> [-o <dir>]"); err != nil {
				return err
			}
			env, err := params.load("extract")
			if err != nil {
				return err
			}
			return runExtract(env, args[0], params)
		},
		Examples: []cli.Example{
			{
				Description: "Extract an image",
				Command:     "romfs extract game.romfs -o ./game",
			},
			{
				Description: "Extract one directory",
				Command:     "romfs extract game.romfs --path data/levels -o ./levels",
			},
		},
	}
}

func runExtract(env *environment, imagePath string, params extractParams) error {
	image, closer, err := openImage(imagePath)
	if err != nil {
		return err
	}
	defer closer.Close()

	reader, err := romfs.OpenReader(image)
	if err != nil {
		return fmt.Errorf("reading %s: %w", imagePath, err)
	}

	var source vfs.Directory
	if params.Path != "" {
		dir, ok := reader.LookupDirectory(params.Path)
		if !ok {
			return fmt.Errorf("%s: no directory %q in image", imagePath, params.Path)
		}
		source = dir
	} else {
		tree, err := reader.Extract()
		if err != nil {
			return fmt.Errorf("reading %s: %w", imagePath, err)
		}
		source = tree
	}

	output := params.Output
	if output == "" {
		output = defaultDumpPath(env, image.Name())
	}
	if err := os.MkdirAll(output, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", output, err)
	}
	destination, err := aferofs.Open(output)
	if err != nil {
		return err
	}

	if err := vfs.CopyDirectory(source, destination); err != nil {
		return fmt.Errorf("extracting into %s: %w", output, err)
	}

	env.logger.Info("image extracted", "image", imagePath, "output", output)
	return nil
}

// defaultDumpPath names the extraction directory after the image, under
// the configured dump root.
func defaultDumpPath(env *environment, imageName string) string {
	stem := strings.TrimSuffix(imageName, filepath.Ext(imageName))
	if stem == "" {
		stem = imageName
	}
	return filepath.Join(env.config.Paths.Dump, stem)
}
