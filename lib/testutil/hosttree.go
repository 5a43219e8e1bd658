// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"archive/zip"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// WriteTree creates every file in files below root, making parent
// directories as needed. Keys are slash-separated relative paths.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("creating parent of %s: %v", path, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", path, err)
		}
	}
}

// ReadTree returns the contents of every regular file below root keyed
// by slash-separated relative path. Directories are not recorded.
func ReadTree(t testing.TB, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		relative, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(relative)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("reading tree %s: %v", root, err)
	}
	return files
}

// WriteZip writes files as a zip archive at path, entries sorted by
// name.
func WriteZip(t testing.TB, path string, files map[string]string) {
	t.Helper()
	output, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	writer := zip.NewWriter(output)
	for _, name := range SortedKeys(files) {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("adding %s to %s: %v", name, path, err)
		}
		if _, err := entry.Write([]byte(files[name])); err != nil {
			t.Fatalf("writing %s to %s: %v", name, path, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("finishing %s: %v", path, err)
	}
	if err := output.Close(); err != nil {
		t.Fatalf("closing %s: %v", path, err)
	}
}

// SortedKeys returns the keys of files in lexical order.
func SortedKeys(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for key := range files {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
