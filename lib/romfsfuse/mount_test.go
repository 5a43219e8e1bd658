// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package romfsfuse

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/romfs/lib/romfs"
	"github.com/bureau-foundation/romfs/lib/vfs"
	"github.com/bureau-foundation/romfs/lib/vfs/vfstest"
)

// fuseAvailable checks whether /dev/fuse is accessible. Tests that
// need a real FUSE mount call this and skip if the device is absent.
func fuseAvailable(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

func testOptions() *Options {
	return &Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestMountRequiresOptions(t *testing.T) {
	if _, err := Mount(Options{Root: vfs.NewVectorDirectory("")}); err == nil {
		t.Error("expected error without mountpoint")
	}
	if _, err := Mount(Options{Mountpoint: t.TempDir()}); err == nil {
		t.Error("expected error without root")
	}
}

func TestListEntries(t *testing.T) {
	dir := vfstest.FromMap(t, map[string]string{
		"b.txt":     "b",
		"a.txt":     "a",
		"sub/c.txt": "c",
	})
	// A file hidden behind a same-named directory.
	dir.AddFile(vfs.NewVectorFile("sub", []byte("shadowed")))

	entries := listEntries(dir)
	want := []fuse.DirEntry{
		{Name: "a.txt", Mode: syscall.S_IFREG},
		{Name: "b.txt", Mode: syscall.S_IFREG},
		{Name: "sub", Mode: syscall.S_IFDIR},
	}
	if len(entries) != len(want) {
		t.Fatalf("entries = %+v, want %+v", entries, want)
	}
	for i := range want {
		if entries[i].Name != want[i].Name || entries[i].Mode != want[i].Mode {
			t.Errorf("entries[%d] = %+v, want %+v", i, entries[i], want[i])
		}
	}
}

func TestFileNodeRead(t *testing.T) {
	node := &fileNode{options: testOptions(), file: vfs.NewVectorFile("f", []byte("0123456789"))}

	tests := []struct {
		name   string
		offset int64
		length int
		want   string
	}{
		{"whole file", 0, 10, "0123456789"},
		{"middle", 3, 4, "3456"},
		{"past end clamps", 7, 100, "789"},
		{"at end", 10, 4, ""},
		{"beyond end", 20, 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, errno := node.Read(context.Background(), nil, make([]byte, tt.length), tt.offset)
			if errno != 0 {
				t.Fatalf("Read errno = %v", errno)
			}
			data, status := result.Bytes(make([]byte, tt.length))
			if !status.Ok() {
				t.Fatalf("Bytes status = %v", status)
			}
			if string(data) != tt.want {
				t.Errorf("Read = %q, want %q", data, tt.want)
			}
		})
	}
}

func TestFileNodeRejectsWrites(t *testing.T) {
	node := &fileNode{options: testOptions(), file: vfs.NewVectorFile("f", []byte("x"))}

	for _, flags := range []uint32{syscall.O_WRONLY, syscall.O_RDWR, syscall.O_TRUNC} {
		if _, _, errno := node.Open(context.Background(), flags); errno != syscall.EROFS {
			t.Errorf("Open(%#x) errno = %v, want EROFS", flags, errno)
		}
	}
	if _, _, errno := node.Open(context.Background(), syscall.O_RDONLY); errno != 0 {
		t.Errorf("Open(O_RDONLY) errno = %v", errno)
	}

	var out fuse.AttrOut
	if errno := node.Getattr(context.Background(), nil, &out); errno != 0 {
		t.Fatalf("Getattr errno = %v", errno)
	}
	if out.Size != 1 || out.Mode != syscall.S_IFREG|0o444 {
		t.Errorf("attr = size %d mode %o", out.Size, out.Mode)
	}
}

func TestMountImage(t *testing.T) {
	fuseAvailable(t)

	base := vfstest.FromMap(t, map[string]string{
		"readme.txt":          "hello",
		"data/level1.bin":     strings.Repeat("L", 5000),
		"data/empty.bin":      "",
		"data/deep/inner.txt": "inner",
	})
	image, err := romfs.Create(base, nil, romfs.BuildOptions{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tree, err := romfs.Extract(image)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	mountpoint := filepath.Join(t.TempDir(), "mount")
	server, err := Mount(Options{
		Mountpoint: mountpoint,
		Root:       tree,
		Logger:     testOptions().Logger,
	})
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() {
		if err := server.Unmount(); err != nil {
			t.Errorf("Unmount: %v", err)
		}
	})

	for path, want := range vfstest.Contents(t, base) {
		got, err := os.ReadFile(filepath.Join(mountpoint, filepath.FromSlash(path)))
		if err != nil {
			t.Errorf("ReadFile(%s): %v", path, err)
			continue
		}
		if string(got) != want {
			t.Errorf("%s: got %d bytes, want %d", path, len(got), len(want))
		}
	}

	entries, err := os.ReadDir(filepath.Join(mountpoint, "data"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	if got := strings.Join(names, ","); got != "deep,empty.bin,level1.bin" {
		t.Errorf("ReadDir(data) = %s", got)
	}

	err = os.WriteFile(filepath.Join(mountpoint, "new.txt"), []byte("x"), 0o644)
	if !errors.Is(err, syscall.EROFS) {
		t.Errorf("WriteFile error = %v, want EROFS", err)
	}
	if err := os.Mkdir(filepath.Join(mountpoint, "newdir"), 0o755); !errors.Is(err, syscall.EROFS) {
		t.Errorf("Mkdir error = %v, want EROFS", err)
	}
}
