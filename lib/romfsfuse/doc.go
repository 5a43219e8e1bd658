// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package romfsfuse mounts any vfs.Directory as a read-only FUSE
// filesystem. It is used to browse extracted or layered images
// without writing them to disk.
//
// Directories support lookup and listing; files support stat, open
// and positional reads, which go straight to the file's ReadAt. Every
// mutating operation fails with EROFS.
package romfsfuse
