// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfs defines the capability interfaces every node of a virtual
// file tree implements, and the read-only composition primitives used
// to assemble layered "base + patches" trees before they are re-encoded
// as a RomFS image.
//
// The package is organized in three groups:
//
//   - Capabilities: [File] and [Directory]. Reads and writes are
//     offset-addressed ([io.ReaderAt], [io.WriterAt]); no node keeps a
//     cursor, so non-overlapping reads against one File may run
//     concurrently when the leaves allow it.
//
//   - Leaves: [VectorFile] and [VectorDirectory] hold bytes and children
//     in memory, [OffsetFile] is a window into another file, and
//     [StaticFile] repeats one byte. Host-backed leaves live in the
//     aferofs, mmapfile and zipfs subpackages.
//
//   - Composition: [Concatenate] and [ConcatenateWithFiller] join
//     files into one logical byte range, [NewCachedDirectory] snapshots
//     a subtree once, and [NewLayeredDirectory] stacks directories in
//     priority order (first layer wins).
//
// Composed views hold forward references to the nodes they compose and
// never register themselves with those nodes, so one backing object may
// be a leaf of any number of independent views.
package vfs
