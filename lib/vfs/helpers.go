// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vfs

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// copyBufferSize bounds the memory used by [CopyFile].
const copyBufferSize = 1 << 20

// ReadAll returns the full contents of file.
func ReadAll(file File) ([]byte, error) {
	data := make([]byte, file.Size())
	n, err := file.ReadAt(data, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(data)) {
		return data[:n], fmt.Errorf("reading %q: %w", file.Name(), err)
	}
	return data, nil
}

// SplitPath splits a slash-separated relative path into its non-empty,
// non-"." components. Backslashes are treated as separators.
func SplitPath(relative string) []string {
	relative = strings.ReplaceAll(relative, "\\", "/")
	var components []string
	for _, component := range strings.Split(relative, "/") {
		if component == "" || component == "." {
			continue
		}
		components = append(components, component)
	}
	return components
}

// SubdirectoryRelative resolves a slash path below dir. An empty path
// resolves to dir itself.
func SubdirectoryRelative(dir Directory, relative string) (Directory, bool) {
	current := dir
	for _, component := range SplitPath(relative) {
		next, ok := current.Subdirectory(component)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// FileRelative resolves a slash path to a file below dir.
func FileRelative(dir Directory, relative string) (File, bool) {
	components := SplitPath(relative)
	if len(components) == 0 {
		return nil, false
	}
	parent, ok := SubdirectoryRelative(dir, path.Join(components[:len(components)-1]...))
	if !ok {
		return nil, false
	}
	return parent.File(components[len(components)-1])
}

// FindSubdirectoryCaseless returns the first subdirectory of dir whose
// name matches name ignoring case. Mod packs authored on
// case-insensitive hosts rely on this.
func FindSubdirectoryCaseless(dir Directory, name string) (Directory, bool) {
	if dir == nil {
		return nil, false
	}
	if exact, ok := dir.Subdirectory(name); ok {
		return exact, true
	}
	for _, candidate := range dir.Subdirectories() {
		if strings.EqualFold(candidate.Name(), name) {
			return candidate, true
		}
	}
	return nil, false
}

// IsValidAndNonEmpty reports whether dir is non-nil and has at least one
// child.
func IsValidAndNonEmpty(dir Directory) bool {
	return dir != nil && (len(dir.Files()) > 0 || len(dir.Subdirectories()) > 0)
}

// WalkFunc is called for every file below the walked root with its
// slash-separated path relative to the root.
type WalkFunc func(relative string, file File) error

// Walk visits every file below dir depth-first: files of a directory
// before its subdirectories, each in listing order.
func Walk(dir Directory, fn WalkFunc) error {
	return walk(dir, "", fn)
}

func walk(dir Directory, prefix string, fn WalkFunc) error {
	for _, file := range dir.Files() {
		if err := fn(path.Join(prefix, file.Name()), file); err != nil {
			return err
		}
	}
	for _, sub := range dir.Subdirectories() {
		if err := walk(sub, path.Join(prefix, sub.Name()), fn); err != nil {
			return err
		}
	}
	return nil
}

// CopyFile copies the contents of source into a new file named name in
// destination.
func CopyFile(source File, destination Directory, name string) (File, error) {
	target, err := destination.CreateFile(name)
	if err != nil {
		return nil, err
	}
	if err := target.Resize(source.Size()); err != nil {
		return nil, fmt.Errorf("sizing %q: %w", name, err)
	}

	buffer := make([]byte, min(copyBufferSize, max(source.Size(), 1)))
	var offset int64
	for offset < source.Size() {
		n, err := source.ReadAt(buffer, offset)
		if n > 0 {
			if _, writeErr := target.WriteAt(buffer[:n], offset); writeErr != nil {
				return nil, fmt.Errorf("writing %q at %d: %w", name, offset, writeErr)
			}
			offset += int64(n)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading %q at %d: %w", source.Name(), offset, err)
		}
	}
	return target, nil
}

// CopyDirectory recursively copies the contents of source into
// destination, which must be writable. Existing children of
// destination with colliding names cause an error.
func CopyDirectory(source, destination Directory) error {
	for _, file := range source.Files() {
		if _, err := CopyFile(file, destination, file.Name()); err != nil {
			return err
		}
	}
	for _, sub := range source.Subdirectories() {
		target, err := destination.CreateSubdirectory(sub.Name())
		if err != nil {
			return fmt.Errorf("creating directory %q: %w", sub.Name(), err)
		}
		if err := CopyDirectory(sub, target); err != nil {
			return err
		}
	}
	return nil
}
