// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest records the content of a tree as a sorted list of
// (path, size, digest) entries. A manifest generated from a source
// directory can later verify that an image, or its extraction, holds
// exactly the same files.
package manifest

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bureau-foundation/romfs/lib/codec"
	"github.com/bureau-foundation/romfs/lib/digest"
	"github.com/bureau-foundation/romfs/lib/vfs"
)

// CurrentVersion is written into new manifests.
const CurrentVersion = 1

// Entry describes one file.
type Entry struct {
	Path   string      `json:"path"`
	Size   int64       `json:"size"`
	Digest digest.Hash `json:"digest"`
}

// Manifest is the content record of a tree. Entries are sorted by path
// and paths are unique.
type Manifest struct {
	Version     int      `json:"version"`
	Directories []string `json:"directories,omitempty"`
	Entries     []Entry  `json:"entries"`
}

// Generate walks dir and hashes every file.
func Generate(dir vfs.Directory) (*Manifest, error) {
	manifest := &Manifest{Version: CurrentVersion}
	err := vfs.Walk(dir, func(relative string, file vfs.File) error {
		hash, err := digest.File(digest.FileDomain, file)
		if err != nil {
			return err
		}
		manifest.Entries = append(manifest.Entries, Entry{Path: relative, Size: file.Size(), Digest: hash})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generating manifest: %w", err)
	}

	var collect func(vfs.Directory, string)
	collect = func(current vfs.Directory, prefix string) {
		for _, sub := range current.Subdirectories() {
			relative := sub.Name()
			if prefix != "" {
				relative = prefix + "/" + relative
			}
			manifest.Directories = append(manifest.Directories, relative)
			collect(sub, relative)
		}
	}
	collect(dir, "")

	sort.Strings(manifest.Directories)
	sort.Slice(manifest.Entries, func(a, b int) bool {
		return manifest.Entries[a].Path < manifest.Entries[b].Path
	})
	return manifest, nil
}

// Validate checks version, ordering, and path hygiene.
func (m *Manifest) Validate() error {
	if m.Version != CurrentVersion {
		return fmt.Errorf("manifest version %d is not supported (want %d)", m.Version, CurrentVersion)
	}
	var problems []error
	for i, entry := range m.Entries {
		if err := validatePath(entry.Path); err != nil {
			problems = append(problems, fmt.Errorf("entry %d: %w", i, err))
		}
		if entry.Size < 0 {
			problems = append(problems, fmt.Errorf("entry %d (%s): negative size %d", i, entry.Path, entry.Size))
		}
		if i > 0 && m.Entries[i-1].Path >= entry.Path {
			problems = append(problems, fmt.Errorf("entry %d (%s): not sorted after %s", i, entry.Path, m.Entries[i-1].Path))
		}
	}
	for i, dir := range m.Directories {
		if err := validatePath(dir); err != nil {
			problems = append(problems, fmt.Errorf("directory %d: %w", i, err))
		}
	}
	return errors.Join(problems...)
}

func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}
	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("path %q is absolute", path)
	}
	for _, component := range strings.Split(path, "/") {
		if component == "" || component == "." || component == ".." {
			return fmt.Errorf("path %q has an invalid component %q", path, component)
		}
	}
	return nil
}

// Digest returns the manifest-domain digest of the manifest's
// canonical encoding. Two manifests with the same content always share
// a digest.
func (m *Manifest) Digest() (digest.Hash, error) {
	data, err := Marshal(m)
	if err != nil {
		return digest.Hash{}, err
	}
	return digest.Bytes(digest.ManifestDomain, data), nil
}

// Marshal encodes m as deterministic CBOR.
func Marshal(m *Manifest) ([]byte, error) {
	data, err := codec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return data, nil
}

// Unmarshal decodes and validates a manifest.
func Unmarshal(data []byte) (*Manifest, error) {
	var m Manifest
	if err := codec.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// Difference lists the paths that differ between two manifests.
type Difference struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
	Changed []string `json:"changed,omitempty"`
}

// Empty reports whether the manifests matched.
func (d Difference) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func (d Difference) String() string {
	var builder strings.Builder
	for _, path := range d.Added {
		fmt.Fprintf(&builder, "+ %s\n", path)
	}
	for _, path := range d.Removed {
		fmt.Fprintf(&builder, "- %s\n", path)
	}
	for _, path := range d.Changed {
		fmt.Fprintf(&builder, "~ %s\n", path)
	}
	return builder.String()
}

// Compare reports files present in actual but not expected (Added),
// present in expected but not actual (Removed), and present in both
// with different size or digest (Changed). Both manifests must be
// sorted; the comparison is a single merge pass.
func Compare(expected, actual *Manifest) Difference {
	var difference Difference
	i, j := 0, 0
	for i < len(expected.Entries) || j < len(actual.Entries) {
		switch {
		case j == len(actual.Entries) || (i < len(expected.Entries) && expected.Entries[i].Path < actual.Entries[j].Path):
			difference.Removed = append(difference.Removed, expected.Entries[i].Path)
			i++
		case i == len(expected.Entries) || actual.Entries[j].Path < expected.Entries[i].Path:
			difference.Added = append(difference.Added, actual.Entries[j].Path)
			j++
		default:
			if expected.Entries[i].Size != actual.Entries[j].Size || expected.Entries[i].Digest != actual.Entries[j].Digest {
				difference.Changed = append(difference.Changed, expected.Entries[i].Path)
			}
			i++
			j++
		}
	}
	return difference
}
