// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
	"github.com/bureau-foundation/romfs/lib/romfs"
	"github.com/bureau-foundation/romfs/lib/vfs"
)

type lsParams struct {
	globalParams
	Tree   bool `flag:"tree,t" desc:"draw the directory tree"`
	Header bool `flag:"header" desc:"print the image header instead of the listing"`
}

func lsCommand(stdout io.Writer) *cli.Command {
	var params lsParams

	return &cli.Command{
		Name:    "ls",
		Summary: "List the contents of an image",
		Description: `List every file of an image with its size and data offset, in path
order. With --tree, draw the hierarchy instead.`,
		Usage:  "romfs ls <image> [flags]",
		Params: func() any { return &params },
		Run: func(args []string) error {
			if err := cli.RequireArgs(args, 1, 1, "romfs ls <image>"); err != nil {
				return err
			}
			if _, err := params.load("ls"); err != nil {
				return err
			}
			image, closer, err := openImage(args[0])
			if err != nil {
				return err
			}
			defer closer.Close()
			return runList(stdout, image, params)
		},
		Examples: []cli.Example{
			{
				Description: "List files with sizes and offsets",
				Command:     "romfs ls game.romfs",
			},
			{
				Description: "Draw the tree of a compressed image",
				Command:     "romfs ls --tree game.romfs.zst",
			},
		},
	}
}

func runList(stdout io.Writer, image vfs.File, params lsParams) error {
	reader, err := romfs.OpenReader(image)
	if err != nil {
		return fmt.Errorf("reading %s: %w", image.Name(), err)
	}

	if params.Header {
		return printHeader(stdout, reader.Header())
	}

	root, err := reader.Extract()
	if err != nil {
		return fmt.Errorf("reading %s: %w", image.Name(), err)
	}

	if params.Tree {
		fmt.Fprintln(stdout, renderTree(image.Name(), root))
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	err = vfs.Walk(root, func(relative string, file vfs.File) error {
		offset := int64(-1)
		if window, ok := file.(*vfs.OffsetFile); ok {
			offset = window.Offset()
		}
		_, err := fmt.Fprintf(tw, "%d\t%#x\t %s\n", file.Size(), offset, relative)
		return err
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}

func printHeader(stdout io.Writer, header romfs.Header) error {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	rows := []struct {
		name  string
		value uint64
	}{
		{"header size", header.HeaderSize},
		{"directory hash table", header.DirectoryHashTableOffset},
		{"directory hash table size", header.DirectoryHashTableSize},
		{"directory table", header.DirectoryTableOffset},
		{"directory table size", header.DirectoryTableSize},
		{"file hash table", header.FileHashTableOffset},
		{"file hash table size", header.FileHashTableSize},
		{"file table", header.FileTableOffset},
		{"file table size", header.FileTableSize},
		{"file data", header.FilePartitionOffset},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%#x\n", row.name, row.value)
	}
	return tw.Flush()
}

var (
	directoryStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sizeStyle       = lipgloss.NewStyle().Faint(true)
	enumeratorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderTree draws dir with directories first, each level sorted as the
// image stores it.
func renderTree(name string, dir vfs.Directory) string {
	return buildTree(directoryStyle.Render(name+"/"), dir).String()
}

func buildTree(label string, dir vfs.Directory) *tree.Tree {
	node := tree.Root(label).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle)
	for _, sub := range dir.Subdirectories() {
		node.Child(buildTree(directoryStyle.Render(sub.Name()+"/"), sub))
	}
	for _, file := range dir.Files() {
		node.Child(file.Name() + " " + sizeStyle.Render(fmt.Sprintf("(%d)", file.Size())))
	}
	return node
}
