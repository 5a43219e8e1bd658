// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package romfs

import (
	"fmt"
	"sort"

	"github.com/bureau-foundation/romfs/lib/ips"
	"github.com/bureau-foundation/romfs/lib/vfs"
)

// Mod directory suffixes recognized by the builder.
const (
	// StubSuffix deletes the same-named entry from the image.
	StubSuffix = ".stub"

	// PatchSuffix patches the same-named file before packaging.
	PatchSuffix = ".ips"
)

// Patcher applies a binary patch file to a source file.
type Patcher interface {
	Patch(source, patch vfs.File) (vfs.File, error)
}

// PatcherFunc adapts a function to [Patcher].
type PatcherFunc func(source, patch vfs.File) (vfs.File, error)

func (f PatcherFunc) Patch(source, patch vfs.File) (vfs.File, error) {
	return f(source, patch)
}

// BuildOptions configures [NewBuildContext].
type BuildOptions struct {
	// Patcher applies ".ips" patches found in the mod directory. Nil
	// uses [ips.Apply]. A patch that fails to apply leaves the source
	// file unchanged.
	Patcher Patcher

	// Filler is the byte [Create] pads gaps between segments with.
	Filler byte
}

// noNode marks an absent index link.
const noNode = -1

// directoryNode and fileNode hold what the tree walk learns about each
// entry. Nodes refer to their parent by index into the context's
// directory slice; the root is index 0 and has no parent.
type directoryNode struct {
	path       string
	nameOffset int
	parent     int
}

type fileNode struct {
	path       string
	nameOffset int
	parent     int
	size       uint64
	source     vfs.File
}

func (n *directoryNode) name() string { return n.path[n.nameOffset:] }
func (n *fileNode) name() string      { return n.path[n.nameOffset:] }

// BuildContext is the result of walking a source tree. It holds every
// directory and file in walk order; [BuildContext.Build] sorts and
// serializes them. A context is not safe for concurrent use.
type BuildContext struct {
	directories []directoryNode
	files       []fileNode

	directoryTableSize uint64
	fileTableSize      uint64

	patcher Patcher
}

// NewBuildContext walks base depth-first, visiting each directory's
// files before its subdirectories. ext, which may be nil, is walked in
// parallel: an entry named "<name>.stub" in ext removes <name> from
// the image, and "<name>.ips" patches file <name>.
//
// Returns [ErrPathTooLong] if any kept entry's path reaches
// [MaxPathLength] bytes.
func NewBuildContext(base, ext vfs.Directory, options BuildOptions) (*BuildContext, error) {
	if base == nil {
		return nil, fmt.Errorf("romfs: nil base directory")
	}
	patcher := options.Patcher
	if patcher == nil {
		patcher = PatcherFunc(ips.Apply)
	}

	c := &BuildContext{
		directories:        []directoryNode{{parent: noNode}},
		directoryTableSize: DirectoryEntrySize,
		patcher:            patcher,
	}
	if err := c.visit(base, ext, 0); err != nil {
		return nil, err
	}
	return c, nil
}

// DirectoryCount returns the number of directories, root included.
func (c *BuildContext) DirectoryCount() int { return len(c.directories) }

// FileCount returns the number of files.
func (c *BuildContext) FileCount() int { return len(c.files) }

func (c *BuildContext) visit(source, ext vfs.Directory, parent int) error {
	parentPath := c.directories[parent].path

	for _, file := range source.Files() {
		name := file.Name()
		if hasModFile(ext, name+StubSuffix) {
			continue
		}
		node := fileNode{
			path:       parentPath + "/" + name,
			nameOffset: len(parentPath) + 1,
			parent:     parent,
			source:     file,
		}
		if len(node.path) >= MaxPathLength {
			return fmt.Errorf("%w: %q", ErrPathTooLong, node.path)
		}

		if ext != nil {
			if patch, ok := ext.File(name + PatchSuffix); ok {
				if patched, err := c.patcher.Patch(node.source, patch); err == nil && patched != nil {
					node.source = patched
				}
			}
		}
		node.size = uint64(node.source.Size())

		c.fileTableSize += FileEntrySize + alignUp(uint64(len(name)), 4)
		c.files = append(c.files, node)
	}

	for _, dir := range source.Subdirectories() {
		name := dir.Name()
		if hasModFile(ext, name+StubSuffix) {
			continue
		}
		node := directoryNode{
			path:       parentPath + "/" + name,
			nameOffset: len(parentPath) + 1,
			parent:     parent,
		}
		if len(node.path) >= MaxPathLength {
			return fmt.Errorf("%w: %q", ErrPathTooLong, node.path)
		}

		c.directoryTableSize += DirectoryEntrySize + alignUp(uint64(len(name)), 4)
		c.directories = append(c.directories, node)

		var childExt vfs.Directory
		if ext != nil {
			if sub, ok := ext.Subdirectory(name); ok {
				childExt = sub
			}
		}
		if err := c.visit(dir, childExt, len(c.directories)-1); err != nil {
			return err
		}
	}
	return nil
}

func hasModFile(ext vfs.Directory, name string) bool {
	if ext == nil {
		return false
	}
	_, ok := ext.File(name)
	return ok
}

// layout is the per-Build placement state. Slices are indexed like the
// context's node slices.
type layout struct {
	directoryOrder []int
	fileOrder      []int

	directoryOffsets []uint32
	fileOffsets      []uint32
	dataOffsets      []uint64
	partitionSize    uint64

	firstChild       []int
	firstFile        []int
	directorySibling []int
	fileSibling      []int
}

// Build serializes the context into image segments sorted by offset:
// the header at 0, each file's source at its data offset, and the
// metadata tables at the directory hash table offset. Gaps between
// segments are alignment padding. Build may be called repeatedly and
// yields identical output each time.
func (c *BuildContext) Build() []vfs.Segment {
	l := c.place()

	directoryHash := newHashTable(BucketCount(uint64(len(c.directories))))
	fileHash := newHashTable(BucketCount(uint64(len(c.files))))

	header := Header{
		HeaderSize:             HeaderSize,
		DirectoryHashTableSize: directoryHash.byteSize(),
		DirectoryTableSize:     c.directoryTableSize,
		FileHashTableSize:      fileHash.byteSize(),
		FileTableSize:          c.fileTableSize,
		FilePartitionOffset:    FilePartitionOffset,
	}
	header.DirectoryHashTableOffset = alignUp(header.FilePartitionOffset+l.partitionSize, 4)
	header.DirectoryTableOffset = header.DirectoryHashTableOffset + header.DirectoryHashTableSize
	header.FileHashTableOffset = header.DirectoryTableOffset + header.DirectoryTableSize
	header.FileTableOffset = header.FileHashTableOffset + header.FileHashTableSize

	metadata := make([]byte, header.DirectoryHashTableSize+header.DirectoryTableSize+
		header.FileHashTableSize+header.FileTableSize)
	directoryTable := metadata[header.DirectoryHashTableSize:][:header.DirectoryTableSize]
	fileTable := metadata[header.DirectoryHashTableSize+header.DirectoryTableSize+header.FileHashTableSize:]

	segments := make([]vfs.Segment, 0, len(c.files)+2)
	segments = append(segments, vfs.Segment{Offset: 0, File: vfs.NewVectorFile("header", header.encode())})

	for _, i := range l.fileOrder {
		node := &c.files[i]
		name := node.name()
		parentOffset := l.directoryOffsets[node.parent]
		entry := FileEntry{
			Parent:     parentOffset,
			Sibling:    l.offsetOf(l.fileSibling[i], l.fileOffsets),
			Offset:     l.dataOffsets[i],
			Size:       node.size,
			NameLength: uint32(len(name)),
		}
		entry.Hash = fileHash.insert(PathHash(parentOffset, name), l.fileOffsets[i])

		position := l.fileOffsets[i]
		entry.encode(fileTable[position:])
		copy(fileTable[position+FileEntrySize:], name)

		segments = append(segments, vfs.Segment{
			Offset: int64(FilePartitionOffset + l.dataOffsets[i]),
			File:   node.source,
		})
	}

	for _, i := range l.directoryOrder {
		node := &c.directories[i]
		name := node.name()
		var parentOffset uint32
		if node.parent != noNode {
			parentOffset = l.directoryOffsets[node.parent]
		}
		entry := DirectoryEntry{
			Parent:     parentOffset,
			Sibling:    l.offsetOf(l.directorySibling[i], l.directoryOffsets),
			Child:      l.offsetOf(l.firstChild[i], l.directoryOffsets),
			File:       l.offsetOf(l.firstFile[i], l.fileOffsets),
			NameLength: uint32(len(name)),
		}
		entry.Hash = directoryHash.insert(PathHash(parentOffset, name), l.directoryOffsets[i])

		position := l.directoryOffsets[i]
		entry.encode(directoryTable[position:])
		copy(directoryTable[position+DirectoryEntrySize:], name)
	}

	directoryHash.encode(metadata)
	fileHash.encode(metadata[header.DirectoryHashTableSize+header.DirectoryTableSize:])

	segments = append(segments, vfs.Segment{
		Offset: int64(header.DirectoryHashTableOffset),
		File:   vfs.NewVectorFile("metadata", metadata),
	})

	sort.SliceStable(segments, func(a, b int) bool {
		return segments[a].Offset < segments[b].Offset
	})
	return segments
}

// place sorts the nodes by full path, assigns table and data offsets in
// that order, and links every directory to its first child directory
// and first file. Walking each sorted list in reverse and prepending
// to the parent leaves every sibling chain in ascending path order.
func (c *BuildContext) place() *layout {
	l := &layout{
		directoryOrder:   sortedByPath(len(c.directories), func(i int) string { return c.directories[i].path }),
		fileOrder:        sortedByPath(len(c.files), func(i int) string { return c.files[i].path }),
		directoryOffsets: make([]uint32, len(c.directories)),
		fileOffsets:      make([]uint32, len(c.files)),
		dataOffsets:      make([]uint64, len(c.files)),
		firstChild:       filledIndices(len(c.directories)),
		firstFile:        filledIndices(len(c.directories)),
		directorySibling: filledIndices(len(c.directories)),
		fileSibling:      filledIndices(len(c.files)),
	}

	var entryOffset uint64
	for _, i := range l.fileOrder {
		node := &c.files[i]
		l.partitionSize = alignUp(l.partitionSize, filePartitionAlignment)
		l.dataOffsets[i] = l.partitionSize
		l.partitionSize += node.size

		l.fileOffsets[i] = uint32(entryOffset)
		entryOffset += FileEntrySize + alignUp(uint64(len(node.name())), 4)
	}
	for k := len(l.fileOrder) - 1; k >= 0; k-- {
		i := l.fileOrder[k]
		parent := c.files[i].parent
		l.fileSibling[i] = l.firstFile[parent]
		l.firstFile[parent] = i
	}

	entryOffset = 0
	for _, i := range l.directoryOrder {
		l.directoryOffsets[i] = uint32(entryOffset)
		entryOffset += DirectoryEntrySize + alignUp(uint64(len(c.directories[i].name())), 4)
	}
	// The root sorts first; stop before it.
	for k := len(l.directoryOrder) - 1; k > 0; k-- {
		i := l.directoryOrder[k]
		parent := c.directories[i].parent
		l.directorySibling[i] = l.firstChild[parent]
		l.firstChild[parent] = i
	}
	return l
}

func (l *layout) offsetOf(index int, offsets []uint32) uint32 {
	if index == noNode {
		return EntryEmpty
	}
	return offsets[index]
}

func sortedByPath(count int, path func(int) string) []int {
	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return path(order[a]) < path(order[b])
	})
	return order
}

func filledIndices(count int) []int {
	indices := make([]int, count)
	for i := range indices {
		indices[i] = noNode
	}
	return indices
}
