// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
	"github.com/bureau-foundation/romfs/lib/layeredfs"
	"github.com/bureau-foundation/romfs/lib/romfs"
	"github.com/bureau-foundation/romfs/lib/vfs"
	"github.com/bureau-foundation/romfs/lib/vfs/aferofs"
	"github.com/bureau-foundation/romfs/lib/vfs/zipfs"
)

type patchParams struct {
	globalParams
	Output   string   `flag:"output,o" desc:"image to write, or - for stdout"`
	Title    string   `flag:"title"    desc:"title id; selects <mods>/<title> and <sdmc>/<title> and the disabled list from the config"`
	Mods     string   `flag:"mods"     desc:"add-on load root (overrides the title's)"`
	SDMC     string   `flag:"sdmc"     desc:"sdmc add-on directory (overrides the title's)"`
	Disable  []string `flag:"disable"  desc:"add-on to skip; repeatable, SDMC skips the sdmc directory"`
	Type     string   `flag:"type"     desc:"content type: program, data, html, control, meta or legal" default:"program"`
	Compress string   `flag:"compress" desc:"none, lz4 or zstd (default: from the output suffix, else the config)"`
	List     bool     `flag:"list,l"   desc:"list the add-ons that would apply and exit"`
}

func patchCommand(stdout io.Writer) *cli.Command {
	var params patchParams

	return &cli.Command{
		Name:    "patch",
		Summary: "Layer add-on directories over an image",
		Description: `Rebuild an image with add-ons layered over its contents.

Each subdirectory (or .zip file) of the load root is an add-on. An
add-on's romfs/ directory replaces or adds files, and its romfs_ext/
directory deletes files (<name>.stub) or patches them (<name>.ips).
Add-ons sorted earlier by name win over later ones. The sdmc directory
is one more add-on, named SDMC for --disable.

When no add-on applies, the image is copied unchanged.`,
		Usage:  "romfs patch <image> -o <image> [--title <id> | --mods <dir>] [flags]",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, 1, "romfs patch <image> -o <image>"); err != nil {
				return err
			}
			if params.Output == "" && !params.List {
				return fmt.Errorf("--output is required")
			}
			env, err := params.load("patch")
			if err != nil {
				return err
			}
			return runPatch(env, args[0], params, stdout)
		},
		Examples: []cli.Example{
			{
				Description: "Apply a title's add-ons from the configured load root",
				Command:     "romfs patch game.romfs --title 0004000000055D00 -o patched.romfs",
			},
			{
				Description: "Show which add-ons would apply",
				Command:     "romfs patch game.romfs --mods ./load --list",
			},
		},
	}
}

func runPatch(env *environment, imagePath string, params patchParams, stdout io.Writer) error {
	contentType, err := layeredfs.ParseContentType(params.Type)
	if err != nil {
		return err
	}

	modsPath, sdmcPath := params.Mods, params.SDMC
	disabled := append([]string(nil), params.Disable...)
	if params.Title != "" {
		titleMods, titleSDMC := env.config.TitlePaths(params.Title)
		if modsPath == "" {
			modsPath = titleMods
		}
		if sdmcPath == "" {
			sdmcPath = titleSDMC
		}
		disabled = append(disabled, env.config.DisabledFor(params.Title)...)
	}

	loadRoot, loadCloser, err := openLoadRoot(modsPath)
	if err != nil {
		return err
	}
	defer loadCloser.Close()

	var sdmcRoot vfs.Directory
	if sdmcPath != "" && isDirectory(sdmcPath) {
		sdmcRoot, err = aferofs.Open(sdmcPath)
		if err != nil {
			return err
		}
	}

	options := layeredfs.Options{
		LoadRoot:    loadRoot,
		SDMCRoot:    sdmcRoot,
		Disabled:    disabled,
		ContentType: contentType,
		Build:       romfs.BuildOptions{Filler: env.config.Layering.Filler},
		Logger:      env.logger,
	}

	if params.List {
		return printPatches(stdout, layeredfs.Patches(options))
	}

	image, imageCloser, err := openImage(imagePath)
	if err != nil {
		return err
	}
	defer imageCloser.Close()

	patched, err := layeredfs.Apply(image, options)
	if err != nil {
		return err
	}

	algorithm, err := outputAlgorithm(params.Compress, params.Output, env.config)
	if err != nil {
		return err
	}
	written, err := writeImage(params.Output, stdout, patched, algorithm)
	if err != nil {
		return err
	}
	env.logger.Info("image written", "output", params.Output, "size", written, "patched", patched != image)
	return nil
}

// openLoadRoot gathers the add-ons below path: every subdirectory, and
// every ".zip" file as an add-on named after the file without its
// suffix. A missing path yields no add-ons.
func openLoadRoot(path string) (vfs.Directory, io.Closer, error) {
	if path == "" || !isDirectory(path) {
		return nil, nopCloser{}, nil
	}
	host, err := aferofs.Open(path)
	if err != nil {
		return nil, nil, err
	}

	root := vfs.NewVectorDirectory(host.Name())
	var archives []io.Closer
	for _, dir := range host.Subdirectories() {
		root.AddDirectory(dir)
	}
	for _, file := range host.Files() {
		if !strings.EqualFold(filepath.Ext(file.Name()), ".zip") {
			continue
		}
		archive, err := zipfs.Open(filepath.Join(path, file.Name()))
		if err != nil {
			closeAll(archives...)
			return nil, nil, err
		}
		archives = append(archives, archive)
		root.AddDirectory(&renamedDirectory{
			Directory: archive,
			name:      strings.TrimSuffix(file.Name(), filepath.Ext(file.Name())),
		})
	}
	return root, closerFunc(func() error { return closeAll(archives...) }), nil
}

// renamedDirectory presents a directory under another name.
type renamedDirectory struct {
	vfs.Directory
	name string
}

func (d *renamedDirectory) Name() string { return d.name }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func printPatches(stdout io.Writer, patches []layeredfs.Patch) error {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tENABLED\tCONTRIBUTES")
	for _, patch := range patches {
		var parts []string
		if patch.RomFS {
			parts = append(parts, layeredfs.RomFSDirectory)
		}
		if patch.Ext {
			parts = append(parts, layeredfs.RomFSExtDirectory)
		}
		if patch.Manual {
			parts = append(parts, layeredfs.ManualHTMLDirectory)
		}
		contributes := strings.Join(parts, ",")
		if contributes == "" {
			contributes = "-"
		}
		enabled := "yes"
		if !patch.Enabled {
			enabled = "no"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", patch.Name, enabled, contributes)
	}
	return tw.Flush()
}
