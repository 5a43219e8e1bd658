// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package romfs

import (
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

// Reader holds the parsed metadata of an image. File contents are not
// read until a returned file is read. A Reader is immutable after
// [OpenReader] returns and is safe for concurrent use as long as the
// image's ReadAt is.
type Reader struct {
	image  vfs.File
	header Header

	directoryHash  hashTable
	directoryTable []byte
	fileHash       hashTable
	fileTable      []byte
}

// OpenReader reads and validates the header and the four metadata
// regions of image. Malformed images return an error wrapping
// [ErrMalformed].
func OpenReader(image vfs.File) (*Reader, error) {
	size := image.Size()
	if size < HeaderSize {
		return nil, fmt.Errorf("%w: image is %d bytes", ErrMalformed, size)
	}

	headerData, err := readRegion(image, 0, HeaderSize)
	if err != nil {
		return nil, err
	}
	var header Header
	if err := header.UnmarshalBinary(headerData); err != nil {
		return nil, err
	}
	if err := header.Validate(uint64(size)); err != nil {
		return nil, err
	}

	reader := &Reader{image: image, header: header}

	regions := []struct {
		offset, size uint64
		assign       func([]byte)
	}{
		{header.DirectoryHashTableOffset, header.DirectoryHashTableSize, func(b []byte) { reader.directoryHash = decodeHashTable(b) }},
		{header.DirectoryTableOffset, header.DirectoryTableSize, func(b []byte) { reader.directoryTable = b }},
		{header.FileHashTableOffset, header.FileHashTableSize, func(b []byte) { reader.fileHash = decodeHashTable(b) }},
		{header.FileTableOffset, header.FileTableSize, func(b []byte) { reader.fileTable = b }},
	}
	for _, region := range regions {
		data, err := readRegion(image, region.offset, region.size)
		if err != nil {
			return nil, err
		}
		region.assign(data)
	}
	return reader, nil
}

func readRegion(image vfs.File, offset, size uint64) ([]byte, error) {
	data := make([]byte, size)
	n, err := image.ReadAt(data, int64(offset))
	if n < len(data) {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: region [%#x, +%#x) truncated", ErrMalformed, offset, size)
		}
		return nil, fmt.Errorf("reading region at %#x: %w", offset, err)
	}
	return data, nil
}

// Header returns the parsed image header.
func (r *Reader) Header() Header { return r.header }

// Extract parses image into an in-memory tree. Each returned file is a
// window onto image, so image must stay readable while the tree is in
// use. Malformed images return an error wrapping [ErrMalformed]; the
// caller decides whether to fall back to other content.
func Extract(image vfs.File) (*vfs.VectorDirectory, error) {
	reader, err := OpenReader(image)
	if err != nil {
		return nil, err
	}
	return reader.Extract()
}

// Extract builds the full tree below the root directory entry.
func (r *Reader) Extract() (*vfs.VectorDirectory, error) {
	root, name, err := r.directoryEntry(0)
	if err != nil {
		return nil, err
	}
	out := vfs.NewVectorDirectory(name)
	visited := map[uint32]struct{}{0: {}}
	if err := r.extractDirectory(root, out, visited); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reader) extractDirectory(entry DirectoryEntry, out *vfs.VectorDirectory, visited map[uint32]struct{}) error {
	seenFiles := make(map[uint32]struct{})
	for offset := entry.File; offset != EntryEmpty; {
		if _, loop := seenFiles[offset]; loop {
			return fmt.Errorf("%w: file chain loops at %#x", ErrMalformed, offset)
		}
		seenFiles[offset] = struct{}{}

		file, name, err := r.fileEntry(offset)
		if err != nil {
			return err
		}
		window, err := r.window(file, name)
		if err != nil {
			return err
		}
		out.AddFile(window)
		offset = file.Sibling
	}

	for offset := entry.Child; offset != EntryEmpty; {
		if _, loop := visited[offset]; loop {
			return fmt.Errorf("%w: directory %#x reached twice", ErrMalformed, offset)
		}
		visited[offset] = struct{}{}

		child, name, err := r.directoryEntry(offset)
		if err != nil {
			return err
		}
		sub := vfs.NewVectorDirectory(name)
		out.AddDirectory(sub)
		if err := r.extractDirectory(child, sub, visited); err != nil {
			return err
		}
		offset = child.Sibling
	}
	return nil
}

// window returns the file's data as a view onto the image.
func (r *Reader) window(entry FileEntry, name string) (*vfs.OffsetFile, error) {
	start := r.header.FilePartitionOffset + entry.Offset
	end := start + entry.Size
	if start < entry.Offset || end < start || end > uint64(r.image.Size()) {
		return nil, fmt.Errorf("%w: file %q data [%#x, +%#x) outside image", ErrMalformed, name, start, entry.Size)
	}
	return vfs.NewOffsetFile(r.image, name, int64(start), int64(entry.Size)), nil
}

func (r *Reader) directoryEntry(offset uint32) (DirectoryEntry, string, error) {
	fixed, err := entryBytes(r.directoryTable, offset, DirectoryEntrySize, "directory")
	if err != nil {
		return DirectoryEntry{}, "", err
	}
	entry := decodeDirectoryEntry(fixed)
	name, err := entryName(r.directoryTable, offset+DirectoryEntrySize, entry.NameLength, "directory")
	if err != nil {
		return DirectoryEntry{}, "", err
	}
	return entry, name, nil
}

func (r *Reader) fileEntry(offset uint32) (FileEntry, string, error) {
	fixed, err := entryBytes(r.fileTable, offset, FileEntrySize, "file")
	if err != nil {
		return FileEntry{}, "", err
	}
	entry := decodeFileEntry(fixed)
	name, err := entryName(r.fileTable, offset+FileEntrySize, entry.NameLength, "file")
	if err != nil {
		return FileEntry{}, "", err
	}
	return entry, name, nil
}

func entryBytes(table []byte, offset uint32, size int, kind string) ([]byte, error) {
	if uint64(offset)+uint64(size) > uint64(len(table)) {
		return nil, fmt.Errorf("%w: %s entry at %#x past end of table", ErrMalformed, kind, offset)
	}
	return table[offset : int(offset)+size], nil
}

// entryName reads a name. The declared length is clamped to
// MaxPathLength and to the bytes left in the table, so an overlong
// length truncates the name instead of failing the entry.
func entryName(table []byte, offset, length uint32, kind string) (string, error) {
	if uint64(offset) > uint64(len(table)) {
		return "", fmt.Errorf("%w: %s name at %#x past end of table", ErrMalformed, kind, offset)
	}
	length = min(length, MaxPathLength, uint32(len(table))-offset)
	return string(table[offset : offset+length]), nil
}

// LookupFile resolves a slash-separated path to a file by following
// hash bucket chains rather than walking the tree.
func (r *Reader) LookupFile(path string) (vfs.File, bool) {
	components := vfs.SplitPath(path)
	if len(components) == 0 {
		return nil, false
	}
	parent, ok := r.lookupDirectoryOffset(components[:len(components)-1])
	if !ok {
		return nil, false
	}

	name := components[len(components)-1]
	seen := make(map[uint32]struct{})
	for offset := r.fileHash.head(PathHash(parent, name)); offset != EntryEmpty; {
		if _, loop := seen[offset]; loop {
			return nil, false
		}
		seen[offset] = struct{}{}

		entry, candidate, err := r.fileEntry(offset)
		if err != nil {
			return nil, false
		}
		if entry.Parent == parent && candidate == name {
			window, err := r.window(entry, candidate)
			if err != nil {
				return nil, false
			}
			return window, true
		}
		offset = entry.Hash
	}
	return nil, false
}

// LookupDirectory resolves a slash-separated path to a directory
// through the hash tables and extracts the subtree below it. An empty
// path is the root.
func (r *Reader) LookupDirectory(path string) (*vfs.VectorDirectory, bool) {
	offset, ok := r.lookupDirectoryOffset(vfs.SplitPath(path))
	if !ok {
		return nil, false
	}
	entry, name, err := r.directoryEntry(offset)
	if err != nil {
		return nil, false
	}
	out := vfs.NewVectorDirectory(name)
	if err := r.extractDirectory(entry, out, map[uint32]struct{}{offset: {}}); err != nil {
		return nil, false
	}
	return out, true
}

func (r *Reader) lookupDirectoryOffset(components []string) (uint32, bool) {
	var current uint32
	for _, name := range components {
		next, ok := r.findDirectory(current, name)
		if !ok {
			return 0, false
		}
		current = next
	}
	return current, true
}

func (r *Reader) findDirectory(parent uint32, name string) (uint32, bool) {
	seen := make(map[uint32]struct{})
	for offset := r.directoryHash.head(PathHash(parent, name)); offset != EntryEmpty; {
		if _, loop := seen[offset]; loop {
			return 0, false
		}
		seen[offset] = struct{}{}

		entry, candidate, err := r.directoryEntry(offset)
		if err != nil {
			return 0, false
		}
		// The root's parent field is also 0; its empty name never
		// matches a path component.
		if entry.Parent == parent && candidate == name && offset != 0 {
			return offset, true
		}
		offset = entry.Hash
	}
	return 0, false
}
