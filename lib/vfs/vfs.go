// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"io"
)

var (
	// ErrReadOnly is returned by every mutator of a read-only node.
	ErrReadOnly = errors.New("vfs: read-only")

	// ErrNotFound is returned when a named child does not exist.
	ErrNotFound = errors.New("vfs: not found")

	// ErrExists is returned when creating a child whose name is taken.
	ErrExists = errors.New("vfs: already exists")
)

// File is a named, sized byte range.
//
// ReadAt follows the [io.ReaderAt] contract: a read that delivers fewer
// than len(p) bytes returns a non-nil error, [io.EOF] when the end of
// the file was reached. Callers that only care about the byte count
// can treat io.EOF as a short read.
type File interface {
	io.ReaderAt
	io.WriterAt

	// Name returns the file name without any directory component.
	Name() string

	// Size returns the current size in bytes.
	Size() int64

	// Resize grows or truncates the file.
	Resize(size int64) error

	IsReadable() bool
	IsWritable() bool

	// Parent returns the containing directory, or nil when the file is
	// not attached to a tree.
	Parent() Directory

	Rename(name string) error
}

// Directory is a named node with files and subdirectories.
//
// Files and Subdirectories return a snapshot at call time. Their order
// is implementation defined unless the implementation documents it.
type Directory interface {
	// Name returns the directory name. The root of a tree may have an
	// empty name.
	Name() string

	// Parent returns the containing directory, or nil for a root.
	Parent() Directory

	IsReadable() bool
	IsWritable() bool

	Files() []File
	Subdirectories() []Directory

	// File looks up a direct child file by exact name.
	File(name string) (File, bool)

	// Subdirectory looks up a direct child directory by exact name.
	Subdirectory(name string) (Directory, bool)

	CreateFile(name string) (File, error)
	CreateSubdirectory(name string) (Directory, error)
	DeleteFile(name string) error
	DeleteSubdirectoryRecursive(name string) error
	Rename(name string) error
}

// ReadOnlyFile supplies the mutators of a read-only [File]. Embed it in
// a type that implements the read side.
type ReadOnlyFile struct{}

func (ReadOnlyFile) WriteAt([]byte, int64) (int, error) { return 0, ErrReadOnly }
func (ReadOnlyFile) Resize(int64) error                 { return ErrReadOnly }
func (ReadOnlyFile) Rename(string) error                { return ErrReadOnly }
func (ReadOnlyFile) IsReadable() bool                   { return true }
func (ReadOnlyFile) IsWritable() bool                   { return false }

// ReadOnlyDirectory supplies the mutators of a read-only [Directory].
type ReadOnlyDirectory struct{}

func (ReadOnlyDirectory) CreateFile(string) (File, error)              { return nil, ErrReadOnly }
func (ReadOnlyDirectory) CreateSubdirectory(string) (Directory, error) { return nil, ErrReadOnly }
func (ReadOnlyDirectory) DeleteFile(string) error                      { return ErrReadOnly }
func (ReadOnlyDirectory) DeleteSubdirectoryRecursive(string) error     { return ErrReadOnly }
func (ReadOnlyDirectory) Rename(string) error                          { return ErrReadOnly }
func (ReadOnlyDirectory) IsReadable() bool                             { return true }
func (ReadOnlyDirectory) IsWritable() bool                             { return false }
