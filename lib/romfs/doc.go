// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package romfs builds and parses RomFS images, the console's read-only
// archive format.
//
// An image is laid out as:
//
//	[header 0x50][padding to 0x200][file data partition]
//	[padding to 4][dir hash table][dir table][file hash table][file table]
//
// The directory and file tables are flat arrays of variable-length
// entries. Entries refer to each other (parent, next sibling, first
// child directory, first file) by their byte offset within their own
// table; 0xFFFFFFFF means none. Each hash table is an array of bucket
// heads indexed by [PathHash] of an entry's parent offset and name.
// A bucket holds the most recently inserted entry and each entry's hash
// field holds the previous occupant, forming a LIFO chain.
//
// [NewBuildContext] walks a [vfs.Directory] (optionally with a mod
// directory carrying ".stub" deletions and ".ips" patches) and
// [BuildContext.Build] places every piece of the image as a list of
// [vfs.Segment]s. [Create] concatenates them into one read-only
// [vfs.File] without copying file contents.
//
// [Extract] parses an image back into an in-memory tree whose files are
// windows onto the image. [OpenReader] exposes the parsed tables and
// resolves paths through the hash tables the way the console does.
package romfs
