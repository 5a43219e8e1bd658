// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package romfs

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Format constants.
const (
	// HeaderSize is the encoded size of [Header], and the only value
	// accepted in its HeaderSize field.
	HeaderSize = 0x50

	// DirectoryEntrySize is the fixed part of a directory table entry.
	// The name follows, zero-padded to a multiple of 4.
	DirectoryEntrySize = 0x18

	// FileEntrySize is the fixed part of a file table entry.
	FileEntrySize = 0x20

	// FilePartitionOffset is where the file data partition starts.
	FilePartitionOffset = 0x200

	// EntryEmpty marks an absent entry in any offset field and an
	// unoccupied hash bucket.
	EntryEmpty = 0xFFFFFFFF

	// MaxPathLength bounds the full path of any entry, in bytes,
	// counting from the leading slash.
	MaxPathLength = 0x301

	// filePartitionAlignment aligns the start of every file's data.
	filePartitionAlignment = 16
)

var (
	// ErrMalformed is returned when an image fails structural
	// validation.
	ErrMalformed = errors.New("romfs: malformed image")

	// ErrPathTooLong is returned when a tree holds a path of
	// MaxPathLength bytes or more.
	ErrPathTooLong = errors.New("romfs: path too long")
)

// Header is the fixed image header. All offsets are absolute within
// the image.
type Header struct {
	HeaderSize               uint64
	DirectoryHashTableOffset uint64
	DirectoryHashTableSize   uint64
	DirectoryTableOffset     uint64
	DirectoryTableSize       uint64
	FileHashTableOffset      uint64
	FileHashTableSize        uint64
	FileTableOffset          uint64
	FileTableSize            uint64
	FilePartitionOffset      uint64
}

func (h *Header) fields() []*uint64 {
	return []*uint64{
		&h.HeaderSize,
		&h.DirectoryHashTableOffset,
		&h.DirectoryHashTableSize,
		&h.DirectoryTableOffset,
		&h.DirectoryTableSize,
		&h.FileHashTableOffset,
		&h.FileHashTableSize,
		&h.FileTableOffset,
		&h.FileTableSize,
		&h.FilePartitionOffset,
	}
}

// MarshalBinary encodes the header as ten little-endian uint64 fields.
func (h Header) MarshalBinary() ([]byte, error) {
	return h.encode(), nil
}

func (h Header) encode() []byte {
	data := make([]byte, 0, HeaderSize)
	for _, field := range h.fields() {
		data = binary.LittleEndian.AppendUint64(data, *field)
	}
	return data
}

// UnmarshalBinary decodes a header. It checks length only; see
// [Header.Validate] for structural checks.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: header is %d bytes, want %d", ErrMalformed, len(data), HeaderSize)
	}
	for i, field := range h.fields() {
		*field = binary.LittleEndian.Uint64(data[i*8:])
	}
	return nil
}

// Validate checks that the header is self-consistent and that every
// region it names lies within an image of imageSize bytes.
func (h *Header) Validate(imageSize uint64) error {
	if h.HeaderSize != HeaderSize {
		return fmt.Errorf("%w: header size %#x, want %#x", ErrMalformed, h.HeaderSize, HeaderSize)
	}
	if h.FilePartitionOffset < HeaderSize {
		return fmt.Errorf("%w: file partition offset %#x overlaps header", ErrMalformed, h.FilePartitionOffset)
	}

	regions := []struct {
		name   string
		offset uint64
		size   uint64
	}{
		{"directory hash table", h.DirectoryHashTableOffset, h.DirectoryHashTableSize},
		{"directory table", h.DirectoryTableOffset, h.DirectoryTableSize},
		{"file hash table", h.FileHashTableOffset, h.FileHashTableSize},
		{"file table", h.FileTableOffset, h.FileTableSize},
	}
	for _, region := range regions {
		end := region.offset + region.size
		if end < region.offset || end > imageSize {
			return fmt.Errorf("%w: %s [%#x, +%#x) exceeds image size %#x",
				ErrMalformed, region.name, region.offset, region.size, imageSize)
		}
	}
	if h.DirectoryHashTableSize%4 != 0 || h.FileHashTableSize%4 != 0 {
		return fmt.Errorf("%w: hash table size is not a multiple of 4", ErrMalformed)
	}
	if h.DirectoryHashTableSize == 0 || h.DirectoryTableSize < DirectoryEntrySize {
		return fmt.Errorf("%w: missing root directory", ErrMalformed)
	}
	return nil
}

// DirectoryEntry is the fixed part of a directory table entry.
type DirectoryEntry struct {
	Parent     uint32
	Sibling    uint32
	Child      uint32
	File       uint32
	Hash       uint32
	NameLength uint32
}

func (e DirectoryEntry) encode(buffer []byte) {
	binary.LittleEndian.PutUint32(buffer[0x00:], e.Parent)
	binary.LittleEndian.PutUint32(buffer[0x04:], e.Sibling)
	binary.LittleEndian.PutUint32(buffer[0x08:], e.Child)
	binary.LittleEndian.PutUint32(buffer[0x0C:], e.File)
	binary.LittleEndian.PutUint32(buffer[0x10:], e.Hash)
	binary.LittleEndian.PutUint32(buffer[0x14:], e.NameLength)
}

func decodeDirectoryEntry(buffer []byte) DirectoryEntry {
	return DirectoryEntry{
		Parent:     binary.LittleEndian.Uint32(buffer[0x00:]),
		Sibling:    binary.LittleEndian.Uint32(buffer[0x04:]),
		Child:      binary.LittleEndian.Uint32(buffer[0x08:]),
		File:       binary.LittleEndian.Uint32(buffer[0x0C:]),
		Hash:       binary.LittleEndian.Uint32(buffer[0x10:]),
		NameLength: binary.LittleEndian.Uint32(buffer[0x14:]),
	}
}

// FileEntry is the fixed part of a file table entry. Offset is
// relative to the file data partition.
type FileEntry struct {
	Parent     uint32
	Sibling    uint32
	Offset     uint64
	Size       uint64
	Hash       uint32
	NameLength uint32
}

func (e FileEntry) encode(buffer []byte) {
	binary.LittleEndian.PutUint32(buffer[0x00:], e.Parent)
	binary.LittleEndian.PutUint32(buffer[0x04:], e.Sibling)
	binary.LittleEndian.PutUint64(buffer[0x08:], e.Offset)
	binary.LittleEndian.PutUint64(buffer[0x10:], e.Size)
	binary.LittleEndian.PutUint32(buffer[0x18:], e.Hash)
	binary.LittleEndian.PutUint32(buffer[0x1C:], e.NameLength)
}

func decodeFileEntry(buffer []byte) FileEntry {
	return FileEntry{
		Parent:     binary.LittleEndian.Uint32(buffer[0x00:]),
		Sibling:    binary.LittleEndian.Uint32(buffer[0x04:]),
		Offset:     binary.LittleEndian.Uint64(buffer[0x08:]),
		Size:       binary.LittleEndian.Uint64(buffer[0x10:]),
		Hash:       binary.LittleEndian.Uint32(buffer[0x18:]),
		NameLength: binary.LittleEndian.Uint32(buffer[0x1C:]),
	}
}

func alignUp(value, alignment uint64) uint64 {
	return (value + alignment - 1) &^ (alignment - 1)
}
