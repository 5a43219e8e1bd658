// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package romfsfuse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is the directory where the filesystem is mounted.
	Mountpoint string

	// Root is the tree to expose.
	Root vfs.Directory

	// FsName is shown as the mount source. Defaults to "romfs".
	FsName string

	// AllowOther permits other users (including root) to access
	// the mount. Requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. If nil, errors go to
	// stderr and everything else is dropped.
	Logger *slog.Logger
}

// Mount mounts root read-only at the configured mountpoint. The
// caller must call Unmount on the returned Server when done. The
// mountpoint directory is created if it does not exist.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Root == nil {
		return nil, fmt.Errorf("root directory is required")
	}
	if options.FsName == "" {
		options.FsName = "romfs"
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &directoryNode{options: &options, dir: options.Root}

	// The tree never changes under the mount, so the kernel may cache
	// entries and attributes for as long as it likes.
	entryTimeout := time.Hour
	attrTimeout := time.Hour
	negativeTimeout := time.Hour

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     options.FsName,
			Name:       "romfs",
			AllowOther: options.AllowOther,
			Options:    []string{"ro"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("romfs FUSE filesystem mounted", "mountpoint", options.Mountpoint, "source", options.FsName)
	return server, nil
}

// directoryNode exposes a vfs.Directory. Subdirectories shadow files of
// the same name.
type directoryNode struct {
	gofuse.Inode
	options *Options
	dir     vfs.Directory
}

var _ gofuse.InodeEmbedder = (*directoryNode)(nil)
var _ gofuse.NodeLookuper = (*directoryNode)(nil)
var _ gofuse.NodeReaddirer = (*directoryNode)(nil)
var _ gofuse.NodeGetattrer = (*directoryNode)(nil)
var _ gofuse.NodeCreater = (*directoryNode)(nil)
var _ gofuse.NodeMkdirer = (*directoryNode)(nil)
var _ gofuse.NodeUnlinker = (*directoryNode)(nil)
var _ gofuse.NodeRmdirer = (*directoryNode)(nil)
var _ gofuse.NodeRenamer = (*directoryNode)(nil)

func (d *directoryNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0o555
	return 0
}

func (d *directoryNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	if sub, ok := d.dir.Subdirectory(name); ok {
		child := d.NewInode(ctx, &directoryNode{options: d.options, dir: sub}, gofuse.StableAttr{Mode: syscall.S_IFDIR})
		out.Mode = syscall.S_IFDIR | 0o555
		return child, 0
	}

	if file, ok := d.dir.File(name); ok {
		node := &fileNode{options: d.options, file: file}
		child := d.NewInode(ctx, node, gofuse.StableAttr{Mode: syscall.S_IFREG})
		node.fillAttr(&out.Attr)
		return child, 0
	}

	return nil, syscall.ENOENT
}

func (d *directoryNode) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	return &sliceDirStream{entries: listEntries(d.dir)}, 0
}

// listEntries returns the directory's children sorted by name, with
// files hidden behind same-named subdirectories.
func listEntries(dir vfs.Directory) []fuse.DirEntry {
	seen := make(map[string]bool)
	var entries []fuse.DirEntry

	for _, sub := range dir.Subdirectories() {
		if seen[sub.Name()] {
			continue
		}
		seen[sub.Name()] = true
		entries = append(entries, fuse.DirEntry{Name: sub.Name(), Mode: syscall.S_IFDIR})
	}
	for _, file := range dir.Files() {
		if seen[file.Name()] {
			continue
		}
		seen[file.Name()] = true
		entries = append(entries, fuse.DirEntry{Name: file.Name(), Mode: syscall.S_IFREG})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

func (d *directoryNode) Create(ctx context.Context, name string, flags, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	return nil, nil, 0, syscall.EROFS
}

func (d *directoryNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return nil, syscall.EROFS
}

func (d *directoryNode) Unlink(ctx context.Context, name string) syscall.Errno {
	return syscall.EROFS
}

func (d *directoryNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	return syscall.EROFS
}

func (d *directoryNode) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	return syscall.EROFS
}

// fileNode exposes a vfs.File. Reads go straight to the file's ReadAt.
type fileNode struct {
	gofuse.Inode
	options *Options
	file    vfs.File
}

var _ gofuse.InodeEmbedder = (*fileNode)(nil)
var _ gofuse.NodeGetattrer = (*fileNode)(nil)
var _ gofuse.NodeSetattrer = (*fileNode)(nil)
var _ gofuse.NodeOpener = (*fileNode)(nil)
var _ gofuse.NodeReader = (*fileNode)(nil)

func (n *fileNode) fillAttr(out *fuse.Attr) {
	out.Mode = syscall.S_IFREG | 0o444
	out.Size = uint64(n.file.Size())
	out.Blocks = (out.Size + 511) / 512
	out.Blksize = 65536
}

func (n *fileNode) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	n.fillAttr(&out.Attr)
	return 0
}

func (n *fileNode) Setattr(ctx context.Context, f gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	return syscall.EROFS
}

func (n *fileNode) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR|syscall.O_TRUNC) != 0 {
		return nil, 0, syscall.EROFS
	}
	// Contents are immutable for the life of the mount.
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *fileNode) Read(ctx context.Context, f gofuse.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	size := n.file.Size()
	if off >= size {
		return fuse.ReadResultData(nil), 0
	}
	if remaining := size - off; int64(len(dest)) > remaining {
		dest = dest[:remaining]
	}

	bytesRead, err := n.file.ReadAt(dest, off)
	if err != nil && !errors.Is(err, io.EOF) {
		n.options.Logger.Error("read failed",
			"file", n.file.Name(),
			"offset", off,
			"error", err,
		)
		return nil, syscall.EIO
	}

	return fuse.ReadResultData(dest[:bytesRead]), 0
}

// sliceDirStream implements fs.DirStream from a slice of entries.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool {
	return s.index < len(s.entries)
}

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	entry := s.entries[s.index]
	s.index++
	return entry, 0
}

func (s *sliceDirStream) Close() {}
