// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

// Package mmapfile opens a host file as a read-only, memory-mapped
// [vfs.File]. Image extraction and FUSE serving read RomFS images this
// way: ReadAt copies straight out of the mapping with no system call
// and no lock, so any number of readers can share one mapping.
package mmapfile

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime/debug"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

// File is a read-only memory map of a host file. The mapping is fixed
// at open time; later changes to the file's size are not observed.
type File struct {
	vfs.ReadOnlyFile

	name string
	fd   int
	data []byte // mmap'd MAP_SHARED, PROT_READ; nil for empty files
	size int64
}

var _ vfs.File = (*File)(nil)

// Open maps the file at path. Close releases the mapping.
func Open(path string) (*File, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("stating %s: %w", path, err)
	}
	if stat.Mode&unix.S_IFMT != unix.S_IFREG {
		unix.Close(fd)
		return nil, fmt.Errorf("mapping %s: not a regular file", path)
	}

	file := &File{name: filepath.Base(path), fd: fd, size: stat.Size}

	// mmap rejects zero-length mappings; an empty file reads as EOF.
	if stat.Size > 0 {
		data, err := unix.Mmap(fd, 0, int(stat.Size), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("memory-mapping %s: %w", path, err)
		}
		file.data = data
	}
	return file, nil
}

func (f *File) Name() string          { return f.name }
func (f *File) Size() int64           { return f.size }
func (f *File) Parent() vfs.Directory { return nil }

// ReadAt copies from the mapping. A fault from the backing storage
// (for example a file truncated by another process) is returned as an
// error rather than crashing the process.
func (f *File) ReadAt(p []byte, off int64) (readCount int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("mmapfile: negative offset %d", off)
	}
	if off >= f.size {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}

	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			err = fmt.Errorf("page fault reading %s at offset %d: %v", f.name, off, r)
		}
	}()

	readCount = copy(p, f.data[off:])
	if readCount < len(p) {
		return readCount, io.EOF
	}
	return readCount, nil
}

// Close unmaps the file and closes its descriptor. Files returned by
// reads must not be used afterwards.
func (f *File) Close() error {
	var firstErr error
	if f.data != nil {
		if err := unix.Munmap(f.data); err != nil {
			firstErr = fmt.Errorf("unmapping %s: %w", f.name, err)
		}
	}
	if err := unix.Close(f.fd); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing %s: %w", f.name, err)
	}
	f.data = nil
	f.fd = -1
	f.size = 0
	return firstErr
}
