// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io"
)

// StaticFile is a read-only file of a fixed size whose every byte is
// the same value. The gap-filled concatenation uses it as filler.
type StaticFile struct {
	ReadOnlyFile

	name  string
	value byte
	size  int64
}

var _ File = (*StaticFile)(nil)

// NewStaticFile returns a file of size bytes, all equal to value.
func NewStaticFile(name string, value byte, size int64) *StaticFile {
	if size < 0 {
		panic(fmt.Sprintf("vfs.NewStaticFile: negative size %d", size))
	}
	return &StaticFile{name: name, value: value, size: size}
}

func (f *StaticFile) Name() string      { return f.name }
func (f *StaticFile) Size() int64       { return f.size }
func (f *StaticFile) Parent() Directory { return nil }

func (f *StaticFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("vfs: negative offset %d", off)
	}
	if off >= f.size {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := len(p)
	if remaining := f.size - off; int64(n) > remaining {
		n = int(remaining)
	}
	for i := range p[:n] {
		p[i] = f.value
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
