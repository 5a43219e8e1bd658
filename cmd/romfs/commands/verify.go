// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
	"github.com/bureau-foundation/romfs/lib/manifest"
)

type verifyParams struct {
	globalParams
}

func verifyCommand(stdout io.Writer) *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Check a tree against a saved manifest",
		Description: `Regenerate the manifest of an image, zip archive, or directory and
compare it with a saved one. Differences are printed one per line:
"+ path" for added files, "- path" for removed files, "~ path" for
changed files. Exits 1 when anything differs.`,
		Usage:  "romfs verify <image|dir> <manifest>",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 2, 2, "romfs verify <image|dir> <manifest>"); err != nil {
				return err
			}
			env, err := params.load("verify")
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("reading manifest: %w", err)
			}
			expected, err := manifest.Unmarshal(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			tree, closer, err := openTree(args[0])
			if err != nil {
				return err
			}
			defer closer.Close()

			actual, err := manifest.Generate(tree)
			if err != nil {
				return err
			}

			difference := manifest.Compare(expected, actual)
			if !difference.Empty() {
				fmt.Fprint(stdout, difference.String())
				env.logger.Warn("verification failed",
					"added", len(difference.Added),
					"removed", len(difference.Removed),
					"changed", len(difference.Changed),
				)
				return &cli.ExitError{Code: 1}
			}

			actualDigest, err := actual.Digest()
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "ok %s (%d files)\n", actualDigest, len(actual.Entries))
			return nil
		},
		Examples: []cli.Example{
			{
				Description: "Confirm a patched image still matches",
				Command:     "romfs verify patched.romfs game.manifest",
			},
		},
	}
}
