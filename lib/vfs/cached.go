// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import "sort"

// CachedDirectory is an immutable snapshot of a directory subtree.
// Construction enumerates the source once, recursively; afterwards
// every lookup and listing is served from the snapshot and the source
// backend is never consulted again. Listings are sorted by name.
//
// There is no invalidation: a snapshot taken while the backend is being
// mutated concurrently may capture a mix of old and new children.
type CachedDirectory struct {
	ReadOnlyDirectory

	name   string
	parent Directory

	fileNames []string
	files     map[string]File
	dirNames  []string
	dirs      map[string]*CachedDirectory
}

var _ Directory = (*CachedDirectory)(nil)

// NewCachedDirectory snapshots source and every subdirectory below it.
// File handles are captured by reference; their contents are not
// copied.
func NewCachedDirectory(source Directory) *CachedDirectory {
	cached := &CachedDirectory{
		name:   source.Name(),
		parent: source.Parent(),
		files:  make(map[string]File),
		dirs:   make(map[string]*CachedDirectory),
	}

	for _, dir := range source.Subdirectories() {
		name := dir.Name()
		if _, duplicate := cached.dirs[name]; duplicate {
			continue
		}
		cached.dirs[name] = NewCachedDirectory(dir)
		cached.dirNames = append(cached.dirNames, name)
	}
	for _, file := range source.Files() {
		name := file.Name()
		if _, duplicate := cached.files[name]; duplicate {
			continue
		}
		cached.files[name] = file
		cached.fileNames = append(cached.fileNames, name)
	}

	sort.Strings(cached.dirNames)
	sort.Strings(cached.fileNames)
	return cached
}

func (d *CachedDirectory) Name() string      { return d.name }
func (d *CachedDirectory) Parent() Directory { return d.parent }

func (d *CachedDirectory) Files() []File {
	files := make([]File, len(d.fileNames))
	for i, name := range d.fileNames {
		files[i] = d.files[name]
	}
	return files
}

func (d *CachedDirectory) Subdirectories() []Directory {
	dirs := make([]Directory, len(d.dirNames))
	for i, name := range d.dirNames {
		dirs[i] = d.dirs[name]
	}
	return dirs
}

func (d *CachedDirectory) File(name string) (File, bool) {
	file, ok := d.files[name]
	return file, ok
}

func (d *CachedDirectory) Subdirectory(name string) (Directory, bool) {
	dir, ok := d.dirs[name]
	if !ok {
		return nil, false
	}
	return dir, true
}
