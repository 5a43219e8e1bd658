// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !darwin && !linux

package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/bureau-foundation/romfs/lib/vfs"
	"github.com/bureau-foundation/romfs/lib/vfs/aferofs"
)

// openHostFile opens the image at path through the host filesystem.
// Without mmap every read is a positional read on the file.
func openHostFile(path string) (vfs.File, io.Closer, error) {
	dir := aferofs.ReadOnly(afero.NewBasePathFs(afero.NewOsFs(), filepath.Dir(path)), "/")
	file, ok := dir.File(filepath.Base(path))
	if !ok {
		return nil, nil, fmt.Errorf("opening %s: %w", path, vfs.ErrNotFound)
	}
	return file, nopCloser{}, nil
}
