// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package zipfs exposes a zip archive as a read-only [vfs.Directory].
// Mod packs are commonly distributed as zip files; mounting one this
// way lets it serve as a layer without unpacking it to disk.
//
// The directory tree is indexed once at open. Entry contents are
// decompressed on first read and kept in memory.
package zipfs

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

// Directory is a directory within an archive.
type Directory struct {
	vfs.ReadOnlyDirectory

	name   string
	parent *Directory

	files map[string]*File
	dirs  map[string]*Directory
}

var _ vfs.Directory = (*Directory)(nil)

// New indexes the archive read by reader. Entries whose names escape
// the archive root ("..") are rejected.
func New(reader *zip.Reader) (*Directory, error) {
	root := newDirectory("", nil)
	for _, entry := range reader.File {
		components := vfs.SplitPath(entry.Name)
		for _, component := range components {
			if component == ".." {
				return nil, fmt.Errorf("zip entry %q escapes the archive root", entry.Name)
			}
		}
		if len(components) == 0 {
			continue
		}

		if entry.FileInfo().IsDir() {
			root.ensure(components)
			continue
		}
		parent := root.ensure(components[:len(components)-1])
		name := components[len(components)-1]
		parent.files[name] = &File{name: name, parent: parent, entry: entry}
	}
	return root, nil
}

// Archive is an open zip file on the host.
type Archive struct {
	*Directory
	closer io.Closer
}

// Open opens and indexes the zip file at path.
func Open(path string) (*Archive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	root, err := New(&reader.Reader)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("indexing %s: %w", path, err)
	}
	return &Archive{Directory: root, closer: reader}, nil
}

// Close closes the archive file. Files not yet read become unreadable.
func (a *Archive) Close() error {
	return a.closer.Close()
}

func newDirectory(name string, parent *Directory) *Directory {
	return &Directory{
		name:   name,
		parent: parent,
		files:  make(map[string]*File),
		dirs:   make(map[string]*Directory),
	}
}

func (d *Directory) ensure(components []string) *Directory {
	current := d
	for _, component := range components {
		next, ok := current.dirs[component]
		if !ok {
			next = newDirectory(component, current)
			current.dirs[component] = next
		}
		current = next
	}
	return current
}

func (d *Directory) Name() string { return d.name }

func (d *Directory) Parent() vfs.Directory {
	if d.parent == nil {
		return nil
	}
	return d.parent
}

func (d *Directory) Files() []vfs.File {
	names := sortedKeys(d.files)
	files := make([]vfs.File, len(names))
	for i, name := range names {
		files[i] = d.files[name]
	}
	return files
}

func (d *Directory) Subdirectories() []vfs.Directory {
	names := sortedKeys(d.dirs)
	dirs := make([]vfs.Directory, len(names))
	for i, name := range names {
		dirs[i] = d.dirs[name]
	}
	return dirs
}

func (d *Directory) File(name string) (vfs.File, bool) {
	file, ok := d.files[name]
	if !ok {
		return nil, false
	}
	return file, true
}

func (d *Directory) Subdirectory(name string) (vfs.Directory, bool) {
	dir, ok := d.dirs[name]
	if !ok {
		return nil, false
	}
	return dir, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// File is a file entry within an archive.
type File struct {
	vfs.ReadOnlyFile

	name   string
	parent *Directory
	entry  *zip.File

	once sync.Once
	data []byte
	err  error
}

var _ vfs.File = (*File)(nil)

func (f *File) Name() string          { return f.name }
func (f *File) Parent() vfs.Directory { return f.parent }
func (f *File) Size() int64           { return int64(f.entry.UncompressedSize64) }

func (f *File) load() {
	reader, err := f.entry.Open()
	if err != nil {
		f.err = fmt.Errorf("opening zip entry %s: %w", f.entry.Name, err)
		return
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		f.err = fmt.Errorf("decompressing zip entry %s: %w", f.entry.Name, err)
		return
	}
	f.data = data
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	f.once.Do(f.load)
	if f.err != nil {
		return 0, f.err
	}
	if off < 0 {
		return 0, fmt.Errorf("zipfs: negative offset %d", off)
	}
	if off >= int64(len(f.data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
