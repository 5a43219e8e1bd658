// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io"
	"sync"
)

// parentSetter is implemented by leaves that can be attached to a
// [VectorDirectory] after construction.
type parentSetter interface {
	setParent(Directory)
}

// VectorFile is a writable in-memory file. Writes past the end grow the
// file. Safe for concurrent use.
type VectorFile struct {
	mu     sync.RWMutex
	name   string
	data   []byte
	parent Directory
}

var _ File = (*VectorFile)(nil)

// NewVectorFile returns a file named name holding data. The slice is
// owned by the file afterwards.
func NewVectorFile(name string, data []byte) *VectorFile {
	return &VectorFile{name: name, data: data}
}

func (f *VectorFile) Name() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}

func (f *VectorFile) Size() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.data))
}

func (f *VectorFile) IsReadable() bool { return true }
func (f *VectorFile) IsWritable() bool { return true }

func (f *VectorFile) Parent() Directory {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.parent
}

func (f *VectorFile) setParent(parent Directory) {
	f.mu.Lock()
	f.parent = parent
	f.mu.Unlock()
}

func (f *VectorFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("vfs: negative offset %d", off)
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

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

func (f *VectorFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("vfs: negative offset %d", off)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	end := off + int64(len(p))
	if end > int64(len(f.data)) {
		f.resizeLocked(end)
	}
	return copy(f.data[off:end], p), nil
}

func (f *VectorFile) Resize(size int64) error {
	if size < 0 {
		return fmt.Errorf("vfs: negative size %d", size)
	}
	f.mu.Lock()
	f.resizeLocked(size)
	f.mu.Unlock()
	return nil
}

func (f *VectorFile) resizeLocked(size int64) {
	if size <= int64(cap(f.data)) {
		old := len(f.data)
		f.data = f.data[:size]
		clear(f.data[min(int64(old), size):])
		return
	}
	grown := make([]byte, size)
	copy(grown, f.data)
	f.data = grown
}

func (f *VectorFile) Rename(name string) error {
	f.mu.Lock()
	f.name = name
	f.mu.Unlock()
	return nil
}

// Bytes returns a copy of the file contents.
func (f *VectorFile) Bytes() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]byte(nil), f.data...)
}

// VectorDirectory is a writable in-memory directory. Children are kept
// in insertion order. Safe for concurrent use.
type VectorDirectory struct {
	mu     sync.RWMutex
	name   string
	files  []File
	dirs   []Directory
	parent Directory
}

var _ Directory = (*VectorDirectory)(nil)

// NewVectorDirectory returns an empty directory named name.
func NewVectorDirectory(name string) *VectorDirectory {
	return &VectorDirectory{name: name}
}

// AddFile appends file as a child. Files created by this package are
// re-parented to d; other implementations keep their own parent.
func (d *VectorDirectory) AddFile(file File) {
	if setter, ok := file.(parentSetter); ok {
		setter.setParent(d)
	}
	d.mu.Lock()
	d.files = append(d.files, file)
	d.mu.Unlock()
}

// AddDirectory appends dir as a child subdirectory.
func (d *VectorDirectory) AddDirectory(dir Directory) {
	if setter, ok := dir.(parentSetter); ok {
		setter.setParent(d)
	}
	d.mu.Lock()
	d.dirs = append(d.dirs, dir)
	d.mu.Unlock()
}

func (d *VectorDirectory) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

func (d *VectorDirectory) Parent() Directory {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.parent
}

func (d *VectorDirectory) setParent(parent Directory) {
	d.mu.Lock()
	d.parent = parent
	d.mu.Unlock()
}

func (d *VectorDirectory) IsReadable() bool { return true }
func (d *VectorDirectory) IsWritable() bool { return true }

func (d *VectorDirectory) Files() []File {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]File(nil), d.files...)
}

func (d *VectorDirectory) Subdirectories() []Directory {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Directory(nil), d.dirs...)
}

func (d *VectorDirectory) File(name string) (File, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, file := range d.files {
		if file.Name() == name {
			return file, true
		}
	}
	return nil, false
}

func (d *VectorDirectory) Subdirectory(name string) (Directory, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, dir := range d.dirs {
		if dir.Name() == name {
			return dir, true
		}
	}
	return nil, false
}

func (d *VectorDirectory) CreateFile(name string) (File, error) {
	if _, exists := d.File(name); exists {
		return nil, fmt.Errorf("creating file %q: %w", name, ErrExists)
	}
	file := NewVectorFile(name, nil)
	d.AddFile(file)
	return file, nil
}

func (d *VectorDirectory) CreateSubdirectory(name string) (Directory, error) {
	if _, exists := d.Subdirectory(name); exists {
		return nil, fmt.Errorf("creating directory %q: %w", name, ErrExists)
	}
	dir := NewVectorDirectory(name)
	d.AddDirectory(dir)
	return dir, nil
}

func (d *VectorDirectory) DeleteFile(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, file := range d.files {
		if file.Name() == name {
			d.files = append(d.files[:i], d.files[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("deleting file %q: %w", name, ErrNotFound)
}

func (d *VectorDirectory) DeleteSubdirectoryRecursive(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, dir := range d.dirs {
		if dir.Name() == name {
			d.dirs = append(d.dirs[:i], d.dirs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("deleting directory %q: %w", name, ErrNotFound)
}

func (d *VectorDirectory) Rename(name string) error {
	d.mu.Lock()
	d.name = name
	d.mu.Unlock()
	return nil
}
