// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package aferofs exposes an [afero.Fs] subtree as a writable
// [vfs.Directory]. It is the host backend: the CLI reads source trees
// and mod packs through it and extracts images into it. Tests use
// [afero.NewMemMapFs] in place of the host filesystem.
//
// Nodes hold a path, not an open handle. Every operation opens, acts,
// and closes, so a tree never pins file descriptors and reflects
// changes made behind its back.
package aferofs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

// Directory is a directory within an afero filesystem.
type Directory struct {
	fs     afero.Fs
	path   string
	parent vfs.Directory
}

var _ vfs.Directory = (*Directory)(nil)

// New returns the directory at dir within filesystem.
func New(filesystem afero.Fs, dir string) *Directory {
	return &Directory{fs: filesystem, path: path.Clean("/" + dir)}
}

// Open returns the host directory at root. Paths below it cannot
// escape root.
func Open(root string) (*Directory, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening %s: not a directory", root)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), root), "/"), nil
}

// ReadOnly wraps filesystem so every mutation fails.
func ReadOnly(filesystem afero.Fs, dir string) *Directory {
	return New(afero.NewReadOnlyFs(filesystem), dir)
}

// Path returns the directory's path within its filesystem.
func (d *Directory) Path() string { return d.path }

func (d *Directory) Name() string {
	if d.path == "/" {
		return ""
	}
	return path.Base(d.path)
}

func (d *Directory) Parent() vfs.Directory { return d.parent }
func (d *Directory) IsReadable() bool      { return true }

func (d *Directory) IsWritable() bool {
	_, readOnly := d.fs.(*afero.ReadOnlyFs)
	return !readOnly
}

// entries lists the directory sorted by name. Errors yield an empty
// listing, matching a missing directory.
func (d *Directory) entries() []os.FileInfo {
	infos, err := afero.ReadDir(d.fs, d.path)
	if err != nil {
		return nil
	}
	sort.Slice(infos, func(a, b int) bool { return infos[a].Name() < infos[b].Name() })
	return infos
}

func (d *Directory) Files() []vfs.File {
	var files []vfs.File
	for _, info := range d.entries() {
		if info.Mode().IsRegular() {
			files = append(files, d.file(info.Name()))
		}
	}
	return files
}

func (d *Directory) Subdirectories() []vfs.Directory {
	var dirs []vfs.Directory
	for _, info := range d.entries() {
		if info.IsDir() {
			dirs = append(dirs, d.subdirectory(info.Name()))
		}
	}
	return dirs
}

func (d *Directory) File(name string) (vfs.File, bool) {
	info, err := d.fs.Stat(d.child(name))
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	return d.file(name), true
}

func (d *Directory) Subdirectory(name string) (vfs.Directory, bool) {
	info, err := d.fs.Stat(d.child(name))
	if err != nil || !info.IsDir() {
		return nil, false
	}
	return d.subdirectory(name), true
}

func (d *Directory) CreateFile(name string) (vfs.File, error) {
	handle, err := d.fs.OpenFile(d.child(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, translate(fmt.Sprintf("creating file %s", d.child(name)), err)
	}
	if err := handle.Close(); err != nil {
		return nil, fmt.Errorf("closing %s: %w", d.child(name), err)
	}
	return d.file(name), nil
}

func (d *Directory) CreateSubdirectory(name string) (vfs.Directory, error) {
	if err := d.fs.Mkdir(d.child(name), 0o755); err != nil {
		return nil, translate(fmt.Sprintf("creating directory %s", d.child(name)), err)
	}
	return d.subdirectory(name), nil
}

func (d *Directory) DeleteFile(name string) error {
	if _, ok := d.File(name); !ok {
		return fmt.Errorf("deleting file %s: %w", d.child(name), vfs.ErrNotFound)
	}
	return translate(fmt.Sprintf("deleting file %s", d.child(name)), d.fs.Remove(d.child(name)))
}

func (d *Directory) DeleteSubdirectoryRecursive(name string) error {
	if _, ok := d.Subdirectory(name); !ok {
		return fmt.Errorf("deleting directory %s: %w", d.child(name), vfs.ErrNotFound)
	}
	return translate(fmt.Sprintf("deleting directory %s", d.child(name)), d.fs.RemoveAll(d.child(name)))
}

func (d *Directory) Rename(name string) error {
	if d.path == "/" {
		return fmt.Errorf("renaming root: %w", vfs.ErrReadOnly)
	}
	target := path.Join(path.Dir(d.path), name)
	if err := d.fs.Rename(d.path, target); err != nil {
		return translate(fmt.Sprintf("renaming %s", d.path), err)
	}
	d.path = target
	return nil
}

func (d *Directory) child(name string) string {
	return path.Join(d.path, name)
}

func (d *Directory) file(name string) *File {
	return &File{fs: d.fs, path: d.child(name), parent: d}
}

func (d *Directory) subdirectory(name string) *Directory {
	return &Directory{fs: d.fs, path: d.child(name), parent: d}
}

// File is a regular file within an afero filesystem.
type File struct {
	fs     afero.Fs
	path   string
	parent *Directory
}

var _ vfs.File = (*File)(nil)

func (f *File) Name() string          { return path.Base(f.path) }
func (f *File) Parent() vfs.Directory { return f.parent }
func (f *File) IsReadable() bool      { return true }
func (f *File) IsWritable() bool      { return f.parent.IsWritable() }

// Size returns the current size, or 0 if the file cannot be stated.
func (f *File) Size() int64 {
	info, err := f.fs.Stat(f.path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	handle, err := f.fs.Open(f.path)
	if err != nil {
		return 0, translate(fmt.Sprintf("opening %s", f.path), err)
	}
	defer handle.Close()

	n, err := handle.ReadAt(p, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("reading %s at %d: %w", f.path, off, err)
	}
	return n, err
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	handle, err := f.fs.OpenFile(f.path, os.O_WRONLY, 0)
	if err != nil {
		return 0, translate(fmt.Sprintf("opening %s for write", f.path), err)
	}
	n, err := handle.WriteAt(p, off)
	if closeErr := handle.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return n, fmt.Errorf("writing %s at %d: %w", f.path, off, err)
	}
	return n, nil
}

func (f *File) Resize(size int64) error {
	handle, err := f.fs.OpenFile(f.path, os.O_WRONLY, 0)
	if err != nil {
		return translate(fmt.Sprintf("opening %s for resize", f.path), err)
	}
	err = handle.Truncate(size)
	if closeErr := handle.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("resizing %s to %d: %w", f.path, size, err)
	}
	return nil
}

func (f *File) Rename(name string) error {
	target := path.Join(path.Dir(f.path), name)
	if err := f.fs.Rename(f.path, target); err != nil {
		return translate(fmt.Sprintf("renaming %s", f.path), err)
	}
	f.path = target
	return nil
}

// translate maps filesystem errors onto the vfs sentinels while
// keeping the original in the chain.
func translate(action string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s: %w: %w", action, vfs.ErrExists, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w: %w", action, vfs.ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w: %w", action, vfs.ErrReadOnly, err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
