// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package layeredfs rebuilds an image with add-on directories layered
// over its contents.
//
// An add-on is a directory holding any of:
//
//   - romfs/ -- files that replace or extend the image's files
//   - romfs_ext/ -- ".stub" and ".ips" entries that delete or patch
//     the image's files (see [romfs.NewBuildContext])
//   - manual_html/ -- like romfs/, applied to HTML document images only
//
// Add-ons are taken from the subdirectories of a load root plus an
// optional sdmc root, ordered by directory name; the earliest wins.
// Each contributing directory is snapshotted before layering so that
// changes on the host during the rebuild are not observed.
package layeredfs
