// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package commands

import (
	"io"

	"github.com/bureau-foundation/romfs/lib/vfs"
	"github.com/bureau-foundation/romfs/lib/vfs/mmapfile"
)

// openHostFile maps the image at path read-only.
func openHostFile(path string) (vfs.File, io.Closer, error) {
	file, err := mmapfile.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}
