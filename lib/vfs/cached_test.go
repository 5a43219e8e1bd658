// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import "testing"

func names[T interface{ Name() string }](nodes []T) []string {
	result := make([]string, len(nodes))
	for i, node := range nodes {
		result[i] = node.Name()
	}
	return result
}

func TestCachedDirectorySortsListings(t *testing.T) {
	source := NewVectorDirectory("root")
	source.AddFile(NewVectorFile("zeta", nil))
	source.AddFile(NewVectorFile("alpha", nil))
	source.AddFile(NewVectorFile("Mid", nil))
	source.AddDirectory(NewVectorDirectory("sub_b"))
	source.AddDirectory(NewVectorDirectory("sub_a"))

	cached := NewCachedDirectory(source)

	gotFiles := names(cached.Files())
	wantFiles := []string{"Mid", "alpha", "zeta"}
	if len(gotFiles) != len(wantFiles) {
		t.Fatalf("Files = %v, want %v", gotFiles, wantFiles)
	}
	for i := range wantFiles {
		if gotFiles[i] != wantFiles[i] {
			t.Errorf("Files = %v, want %v", gotFiles, wantFiles)
			break
		}
	}

	gotDirs := names(cached.Subdirectories())
	if len(gotDirs) != 2 || gotDirs[0] != "sub_a" || gotDirs[1] != "sub_b" {
		t.Errorf("Subdirectories = %v, want [sub_a sub_b]", gotDirs)
	}
	if cached.Name() != "root" {
		t.Errorf("Name = %q, want root", cached.Name())
	}
}

func TestCachedDirectoryIsolatedFromSource(t *testing.T) {
	source := NewVectorDirectory("")
	nested := NewVectorDirectory("nested")
	source.AddDirectory(nested)
	source.AddFile(NewVectorFile("kept", []byte("1")))
	nested.AddFile(NewVectorFile("deep", []byte("2")))

	cached := NewCachedDirectory(source)

	if err := source.DeleteFile("kept"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	source.AddFile(NewVectorFile("added", nil))
	if _, err := nested.CreateSubdirectory("late"); err != nil {
		t.Fatalf("CreateSubdirectory: %v", err)
	}
	if err := nested.DeleteFile("deep"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	if _, ok := cached.File("kept"); !ok {
		t.Error("snapshot lost a file deleted from the source afterwards")
	}
	if _, ok := cached.File("added"); ok {
		t.Error("snapshot reports a file added to the source afterwards")
	}

	cachedNested, ok := cached.Subdirectory("nested")
	if !ok {
		t.Fatal("snapshot is missing subdirectory nested")
	}
	if _, ok := cachedNested.File("deep"); !ok {
		t.Error("nested snapshot lost a file deleted afterwards")
	}
	if len(cachedNested.Subdirectories()) != 0 {
		t.Error("nested snapshot reports a directory created afterwards")
	}
}

func TestCachedDirectoryIsReadOnly(t *testing.T) {
	cached := NewCachedDirectory(NewVectorDirectory(""))
	if cached.IsWritable() {
		t.Error("cached directory should not be writable")
	}
	if _, err := cached.CreateFile("x"); err != ErrReadOnly {
		t.Errorf("CreateFile error = %v, want ErrReadOnly", err)
	}
	if err := cached.DeleteSubdirectoryRecursive("x"); err != ErrReadOnly {
		t.Errorf("DeleteSubdirectoryRecursive error = %v, want ErrReadOnly", err)
	}
	if _, ok := cached.Subdirectory("missing"); ok {
		t.Error("lookup of a missing subdirectory succeeded")
	}
}
