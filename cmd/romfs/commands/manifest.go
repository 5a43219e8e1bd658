// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
	"github.com/bureau-foundation/romfs/lib/codec"
	"github.com/bureau-foundation/romfs/lib/manifest"
)

type manifestParams struct {
	globalParams
	Output string `flag:"output,o" desc:"write the CBOR manifest to this file"`
	Diag   bool   `flag:"diag"     desc:"print the CBOR manifest in diagnostic notation"`
	JSON   bool   `flag:"json"     desc:"print the manifest as JSON"`
}

func manifestCommand(stdout io.Writer) *cli.Command {
	var params manifestParams

	return &cli.Command{
		Name:    "manifest",
		Summary: "Record the path, size and digest of every file",
		Description: `Hash every file of an image, zip archive, or directory with BLAKE3 and
record the result as a deterministic CBOR manifest. The same tree always
produces byte-identical manifests, so a manifest's own digest identifies
the tree's content.

Without -o, --diag or --json, prints one line per file and the manifest
digest.`,
		Usage:  "romfs manifest <image|dir> [flags]",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, 1, "romfs manifest <image|dir>"); err != nil {
				return err
			}
			env, err := params.load("manifest")
			if err != nil {
				return err
			}

			tree, closer, err := openTree(args[0])
			if err != nil {
				return err
			}
			defer closer.Close()

			generated, err := manifest.Generate(tree)
			if err != nil {
				return err
			}
			return writeManifest(env, stdout, generated, params)
		},
		Examples: []cli.Example{
			{
				Description: "Save a manifest for later verification",
				Command:     "romfs manifest game.romfs -o game.manifest",
			},
			{
				Description: "Inspect a saved manifest's encoding",
				Command:     "romfs manifest ./extracted --diag",
			},
		},
	}
}

func writeManifest(env *environment, stdout io.Writer, generated *manifest.Manifest, params manifestParams) error {
	data, err := manifest.Marshal(generated)
	if err != nil {
		return err
	}
	manifestDigest, err := generated.Digest()
	if err != nil {
		return err
	}

	if params.Output != "" {
		if err := os.WriteFile(params.Output, data, 0o644); err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}
		env.logger.Info("manifest written",
			"output", params.Output,
			"files", len(generated.Entries),
			"digest", manifestDigest.String(),
		)
	}

	switch {
	case params.Diag:
		notation, err := codec.Diagnose(data)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, notation)
	case params.JSON:
		encoder := json.NewEncoder(stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(generated)
	case params.Output == "":
		tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
		for _, entry := range generated.Entries {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", entry.Digest.Short(), entry.Size, entry.Path)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "manifest %s\n", manifestDigest)
	}
	return nil
}
