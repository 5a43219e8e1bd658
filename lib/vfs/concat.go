// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"fmt"
	"io"
	"sort"
)

// Segment places a file at an absolute byte offset within a larger
// logical range.
type Segment struct {
	Offset int64
	File   File
}

// ConcatenatedFile presents an ordered, gap-free list of segments as
// one read-only file. The segment list never changes after
// construction; reads are offset-addressed and take no locks, so
// concurrent reads are safe whenever the segment files allow them.
type ConcatenatedFile struct {
	ReadOnlyFile

	name     string
	segments []Segment
}

var _ File = (*ConcatenatedFile)(nil)

// Concatenate places files back to back with no gaps. Zero files yield
// nil and a single file is returned as is.
func Concatenate(name string, files ...File) File {
	switch len(files) {
	case 0:
		return nil
	case 1:
		return files[0]
	}

	segments := make([]Segment, 0, len(files))
	var offset int64
	for _, file := range files {
		size := file.Size()
		if size == 0 {
			continue
		}
		segments = append(segments, Segment{Offset: offset, File: file})
		offset += size
	}
	return newConcatenatedFile(name, segments)
}

// ConcatenateWithFiller places each segment at its offset and fills
// every uncovered span before it with filler bytes. Segments must be
// sorted by offset and must not overlap; violating that is a caller
// bug and panics. Zero segments yield nil and a single segment at
// offset zero is returned as is.
func ConcatenateWithFiller(name string, filler byte, segments []Segment) File {
	switch {
	case len(segments) == 0:
		return nil
	case len(segments) == 1 && segments[0].Offset == 0:
		return segments[0].File
	}

	filled := make([]Segment, 0, 2*len(segments))
	var end int64
	for i, segment := range segments {
		if segment.Offset < end {
			panic(fmt.Sprintf("vfs.ConcatenateWithFiller: segment %d at offset %#x overlaps or precedes previous end %#x",
				i, segment.Offset, end))
		}
		if segment.Offset > end {
			filled = append(filled, Segment{
				Offset: end,
				File:   NewStaticFile("", filler, segment.Offset-end),
			})
		}
		size := segment.File.Size()
		if size > 0 {
			filled = append(filled, segment)
		}
		end = segment.Offset + size
	}
	return newConcatenatedFile(name, filled)
}

func newConcatenatedFile(name string, segments []Segment) *ConcatenatedFile {
	for i := 1; i < len(segments); i++ {
		previous := segments[i-1]
		if segments[i].Offset != previous.Offset+previous.File.Size() {
			panic(fmt.Sprintf("vfs: concatenation segment %d at %#x is not contiguous with previous end %#x",
				i, segments[i].Offset, previous.Offset+previous.File.Size()))
		}
	}
	return &ConcatenatedFile{name: name, segments: segments}
}

func (f *ConcatenatedFile) Name() string      { return f.name }
func (f *ConcatenatedFile) Parent() Directory { return nil }

// Size returns the end offset of the last segment.
func (f *ConcatenatedFile) Size() int64 {
	if len(f.segments) == 0 {
		return 0
	}
	last := f.segments[len(f.segments)-1]
	return last.Offset + last.File.Size()
}

// Segments returns a copy of the placed segments, fillers included.
func (f *ConcatenatedFile) Segments() []Segment {
	return append([]Segment(nil), f.segments...)
}

// findSegment returns the index of the last segment whose offset is at
// or before offset, or -1.
func (f *ConcatenatedFile) findSegment(offset int64) int {
	return sort.Search(len(f.segments), func(i int) bool {
		return f.segments[i].Offset > offset
	}) - 1
}

// ReadAt copies forward across consecutive segments starting at off.
// It stops at the first short read of a segment or when p is full.
func (f *ConcatenatedFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("vfs: negative offset %d", off)
	}
	if len(p) == 0 {
		return 0, nil
	}

	index := f.findSegment(off)
	if index < 0 {
		return 0, io.EOF
	}

	var total int
	current := off
	for total < len(p) && index < len(f.segments) {
		segment := f.segments[index]
		size := segment.File.Size()
		if current >= segment.Offset+size {
			break
		}

		seek := current - segment.Offset
		want := len(p) - total
		if available := size - seek; int64(want) > available {
			want = int(available)
		}

		n, err := segment.File.ReadAt(p[total:total+want], seek)
		total += n
		current += int64(n)
		if n < want {
			if err != nil && err != io.EOF {
				return total, err
			}
			break
		}
		index++
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}
