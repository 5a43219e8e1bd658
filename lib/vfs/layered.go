// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

// LayeredDirectory stacks directories in priority order: the first
// layer wins. File lookups return the first layer's match. Same-named
// subdirectories are composed into a new LayeredDirectory with the
// same precedence, so an override takes effect at any depth without
// the trees ever being merged physically. Read-only.
type LayeredDirectory struct {
	ReadOnlyDirectory

	name   string
	layers []Directory
}

var _ Directory = (*LayeredDirectory)(nil)

// NewLayeredDirectory composes layers, highest priority first. An empty
// name takes the name of the first layer. Zero layers yield nil and a
// single layer is returned as is.
func NewLayeredDirectory(name string, layers ...Directory) Directory {
	switch len(layers) {
	case 0:
		return nil
	case 1:
		return layers[0]
	}
	return &LayeredDirectory{
		name:   name,
		layers: append([]Directory(nil), layers...),
	}
}

// Layers returns the composed directories in priority order.
func (d *LayeredDirectory) Layers() []Directory {
	return append([]Directory(nil), d.layers...)
}

func (d *LayeredDirectory) Name() string {
	if d.name == "" {
		return d.layers[0].Name()
	}
	return d.name
}

// Parent is nil: the composed view has no single parent, and a
// layer's own parent lies outside the view.
func (d *LayeredDirectory) Parent() Directory {
	return nil
}

func (d *LayeredDirectory) File(name string) (File, bool) {
	for _, layer := range d.layers {
		if file, ok := layer.File(name); ok {
			return file, true
		}
	}
	return nil, false
}

func (d *LayeredDirectory) Subdirectory(name string) (Directory, bool) {
	var matches []Directory
	for _, layer := range d.layers {
		if dir, ok := layer.Subdirectory(name); ok {
			matches = append(matches, dir)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	return NewLayeredDirectory(name, matches...), true
}

// Files lists each name once, taking the file from the highest priority
// layer that has it. Order follows layer order, then each layer's own
// listing order.
func (d *LayeredDirectory) Files() []File {
	seen := make(map[string]struct{})
	var files []File
	for _, layer := range d.layers {
		for _, file := range layer.Files() {
			name := file.Name()
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			files = append(files, file)
		}
	}
	return files
}

// Subdirectories lists each name once, each composed across all layers
// that have it.
func (d *LayeredDirectory) Subdirectories() []Directory {
	seen := make(map[string]struct{})
	var names []string
	for _, layer := range d.layers {
		for _, dir := range layer.Subdirectories() {
			name := dir.Name()
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	dirs := make([]Directory, 0, len(names))
	for _, name := range names {
		if dir, ok := d.Subdirectory(name); ok {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
