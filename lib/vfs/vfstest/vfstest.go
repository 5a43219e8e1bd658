// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vfstest provides fixtures for tests that operate on vfs
// trees: building in-memory trees from path maps, generating random
// trees, and comparing trees by path and content.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since fixture failures are not recoverable.
package vfstest

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/valyala/fastrand"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
}

// FromMap builds an in-memory tree. Keys are slash-separated file paths
// relative to the root; a key ending in "/" creates an empty directory.
func FromMap(t TB, files map[string]string) *vfs.VectorDirectory {
	t.Helper()
	root := vfs.NewVectorDirectory("")

	keys := make([]string, 0, len(files))
	for key := range files {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		components := vfs.SplitPath(key)
		if len(components) == 0 {
			t.Fatalf("vfstest.FromMap: empty path %q", key)
		}
		if strings.HasSuffix(key, "/") {
			ensureDirectory(root, components)
			continue
		}
		parent := ensureDirectory(root, components[:len(components)-1])
		parent.AddFile(vfs.NewVectorFile(components[len(components)-1], []byte(files[key])))
	}
	return root
}

func ensureDirectory(root *vfs.VectorDirectory, components []string) *vfs.VectorDirectory {
	current := root
	for _, component := range components {
		next, ok := current.Subdirectory(component)
		if !ok {
			created := vfs.NewVectorDirectory(component)
			current.AddDirectory(created)
			current = created
			continue
		}
		current = next.(*vfs.VectorDirectory)
	}
	return current
}

// Contents flattens a tree into a map of relative file path to content.
func Contents(t TB, dir vfs.Directory) map[string]string {
	t.Helper()
	contents := make(map[string]string)
	err := vfs.Walk(dir, func(relative string, file vfs.File) error {
		data, err := vfs.ReadAll(file)
		if err != nil {
			return err
		}
		contents[relative] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("vfstest.Contents: %v", err)
	}
	return contents
}

// Directories lists the relative paths of every directory below dir,
// sorted.
func Directories(dir vfs.Directory) []string {
	var paths []string
	var collect func(vfs.Directory, string)
	collect = func(current vfs.Directory, prefix string) {
		for _, sub := range current.Subdirectories() {
			relative := path.Join(prefix, sub.Name())
			paths = append(paths, relative)
			collect(sub, relative)
		}
	}
	collect(dir, "")
	sort.Strings(paths)
	return paths
}

// AssertTreesEqual fails the test unless both trees hold the same
// directories and the same file paths with the same contents.
func AssertTreesEqual(t TB, want, got vfs.Directory) {
	t.Helper()
	wantDirs := strings.Join(Directories(want), "\n")
	gotDirs := strings.Join(Directories(got), "\n")
	if wantDirs != gotDirs {
		t.Errorf("directories differ:\ngot:\n%s\nwant:\n%s", gotDirs, wantDirs)
	}

	wantContents := Contents(t, want)
	gotContents := Contents(t, got)

	for path, wantData := range wantContents {
		gotData, ok := gotContents[path]
		if !ok {
			t.Errorf("missing file %q", path)
			continue
		}
		if gotData != wantData {
			t.Errorf("file %q: got %d bytes %q, want %d bytes %q",
				path, len(gotData), truncate(gotData), len(wantData), truncate(wantData))
		}
	}
	for path := range gotContents {
		if _, ok := wantContents[path]; !ok {
			t.Errorf("unexpected file %q", path)
		}
	}
}

func truncate(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}

// RandomOptions bounds the shape of a generated tree.
type RandomOptions struct {
	// Seed makes generation deterministic.
	Seed uint32

	// MaxDepth is the deepest directory level generated below the root.
	MaxDepth int

	// MaxChildren bounds the files and subdirectories per directory.
	MaxChildren int

	// MaxFileSize bounds the size of each generated file.
	MaxFileSize int
}

// nameAlphabet is restricted to characters every host filesystem
// accepts, with '.', '-' and '_' included so sorted order differs from
// naive component order.
const nameAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789._-"

// Random generates an in-memory tree. Names are unique per directory
// and never collide between a file and a subdirectory.
func Random(options RandomOptions) *vfs.VectorDirectory {
	if options.MaxChildren <= 0 {
		options.MaxChildren = 6
	}
	if options.MaxFileSize <= 0 {
		options.MaxFileSize = 256
	}

	var rng fastrand.RNG
	rng.Seed(options.Seed)

	root := vfs.NewVectorDirectory("")
	populate(&rng, root, options, 0)
	return root
}

func populate(rng *fastrand.RNG, dir *vfs.VectorDirectory, options RandomOptions, depth int) {
	used := make(map[string]struct{})
	uniqueName := func() string {
		for {
			length := 1 + int(rng.Uint32n(12))
			var builder strings.Builder
			for range length {
				builder.WriteByte(nameAlphabet[rng.Uint32n(uint32(len(nameAlphabet)))])
			}
			name := builder.String()
			if name == "." || name == ".." {
				continue
			}
			if _, taken := used[name]; taken {
				continue
			}
			used[name] = struct{}{}
			return name
		}
	}

	fileCount := int(rng.Uint32n(uint32(options.MaxChildren) + 1))
	for range fileCount {
		data := make([]byte, rng.Uint32n(uint32(options.MaxFileSize)+1))
		for i := range data {
			data[i] = byte(rng.Uint32())
		}
		dir.AddFile(vfs.NewVectorFile(uniqueName(), data))
	}

	if depth >= options.MaxDepth {
		return
	}
	dirCount := int(rng.Uint32n(uint32(options.MaxChildren)/2 + 1))
	for range dirCount {
		sub := vfs.NewVectorDirectory(uniqueName())
		dir.AddDirectory(sub)
		populate(rng, sub, options, depth+1)
	}
}

// Describe renders a tree as one "path (size)" line per file, for test
// failure messages.
func Describe(dir vfs.Directory) string {
	var lines []string
	_ = vfs.Walk(dir, func(relative string, file vfs.File) error {
		lines = append(lines, fmt.Sprintf("%s (%d)", relative, file.Size()))
		return nil
	})
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
