// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package mmapfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadAt(t *testing.T) {
	file, err := Open(writeTemp(t, "image.romfs", []byte("0123456789")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()

	if file.Name() != "image.romfs" || file.Size() != 10 {
		t.Errorf("Name/Size = %q/%d", file.Name(), file.Size())
	}

	buffer := make([]byte, 4)
	if n, err := file.ReadAt(buffer, 3); n != 4 || err != nil || string(buffer) != "3456" {
		t.Errorf("ReadAt(3) = (%d, %v, %q)", n, err, buffer)
	}
	if n, err := file.ReadAt(buffer, 8); n != 2 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadAt(8) = (%d, %v), want (2, EOF)", n, err)
	}
	if _, err := file.ReadAt(buffer, 10); !errors.Is(err, io.EOF) {
		t.Errorf("ReadAt(10) error = %v, want EOF", err)
	}
	if _, err := file.WriteAt([]byte("x"), 0); !errors.Is(err, vfs.ErrReadOnly) {
		t.Errorf("WriteAt error = %v, want ErrReadOnly", err)
	}
}

func TestEmptyFile(t *testing.T) {
	file, err := Open(writeTemp(t, "empty", nil))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer file.Close()

	data, err := vfs.ReadAll(file)
	if err != nil || len(data) != 0 {
		t.Errorf("ReadAll = (%q, %v), want empty", data, err)
	}
}

func TestOpenRejectsDirectories(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("Open of a directory succeeded")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Open of a missing file succeeded")
	}
}
