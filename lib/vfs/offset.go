// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io"
	"sync"
)

// OffsetFile is a fixed-size window into another file: byte i of the
// window is byte offset+i of the base file. Reads and writes are
// clamped to the window. Resize is not supported.
type OffsetFile struct {
	base   File
	offset int64
	size   int64
	name   string

	mu     sync.RWMutex
	parent Directory
}

var _ File = (*OffsetFile)(nil)

// NewOffsetFile returns the window [offset, offset+size) of base under
// the given name.
func NewOffsetFile(base File, name string, offset, size int64) *OffsetFile {
	if offset < 0 || size < 0 {
		panic(fmt.Sprintf("vfs.NewOffsetFile: invalid window offset=%d size=%d", offset, size))
	}
	return &OffsetFile{base: base, name: name, offset: offset, size: size}
}

func (f *OffsetFile) Name() string { return f.name }
func (f *OffsetFile) Size() int64  { return f.size }

// Offset returns the start of the window within the base file.
func (f *OffsetFile) Offset() int64 { return f.offset }

// Base returns the file the window reads from.
func (f *OffsetFile) Base() File { return f.base }

func (f *OffsetFile) IsReadable() bool { return f.base.IsReadable() }
func (f *OffsetFile) IsWritable() bool { return f.base.IsWritable() }

func (f *OffsetFile) Parent() Directory {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.parent
}

func (f *OffsetFile) setParent(parent Directory) {
	f.mu.Lock()
	f.parent = parent
	f.mu.Unlock()
}

func (f *OffsetFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("vfs: negative offset %d", off)
	}
	if off >= f.size {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	clamped := p
	if remaining := f.size - off; int64(len(clamped)) > remaining {
		clamped = clamped[:remaining]
	}
	n, err := f.base.ReadAt(clamped, f.offset+off)
	if err != nil && err != io.EOF {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *OffsetFile) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("vfs: negative offset %d", off)
	}
	if off >= f.size {
		return 0, io.ErrShortWrite
	}
	clamped := p
	if remaining := f.size - off; int64(len(clamped)) > remaining {
		clamped = clamped[:remaining]
	}
	n, err := f.base.WriteAt(clamped, f.offset+off)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

func (f *OffsetFile) Resize(int64) error  { return ErrReadOnly }
func (f *OffsetFile) Rename(string) error { return ErrReadOnly }
