// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package romfs

import "github.com/bureau-foundation/romfs/lib/vfs"

// Create builds an image from base and the optional mod directory ext.
// The result is a read-only concatenation of the build segments with
// padding filled with options.Filler; file contents are read from their
// sources on demand. The returned file is named after base.
func Create(base, ext vfs.Directory, options BuildOptions) (vfs.File, error) {
	build, err := NewBuildContext(base, ext, options)
	if err != nil {
		return nil, err
	}
	return vfs.ConcatenateWithFiller(base.Name(), options.Filler, build.Build()), nil
}
