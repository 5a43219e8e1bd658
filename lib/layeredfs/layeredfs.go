// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package layeredfs

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/bureau-foundation/romfs/lib/romfs"
	"github.com/bureau-foundation/romfs/lib/vfs"
)

// SDMCLayer is the add-on name that refers to the sdmc patch root in
// Options.Disabled.
const SDMCLayer = "SDMC"

// Subdirectory names looked up, case-insensitively, inside each add-on.
const (
	RomFSDirectory      = "romfs"
	RomFSExtDirectory   = "romfs_ext"
	ManualHTMLDirectory = "manual_html"
)

// ContentType identifies what an image holds. Only program, data and
// HTML document images are patched.
type ContentType uint8

const (
	Meta ContentType = iota
	Program
	Data
	Control
	HTMLDocument
	LegalInformation
)

var contentTypeNames = [...]string{
	Meta:             "meta",
	Program:          "program",
	Data:             "data",
	Control:          "control",
	HTMLDocument:     "html",
	LegalInformation: "legal",
}

func (c ContentType) String() string {
	if int(c) < len(contentTypeNames) {
		return contentTypeNames[c]
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// ParseContentType parses a name as printed by String.
func ParseContentType(name string) (ContentType, error) {
	for value, candidate := range contentTypeNames {
		if strings.EqualFold(candidate, name) {
			return ContentType(value), nil
		}
	}
	return 0, fmt.Errorf("unknown content type %q (want one of %s)", name, strings.Join(contentTypeNames[:], ", "))
}

// Patchable reports whether images of this type take layered patches.
func (c ContentType) Patchable() bool {
	return c == Program || c == Data || c == HTMLDocument
}

// Options configures [Apply] and [Patches].
type Options struct {
	// LoadRoot holds one subdirectory per add-on. Nil means no add-ons.
	LoadRoot vfs.Directory

	// SDMCRoot is an extra add-on directory, disabled by listing
	// SDMCLayer in Disabled. Nil means none.
	SDMCRoot vfs.Directory

	// Disabled lists add-on names to skip.
	Disabled []string

	// ContentType of the image. HTML documents also take manual_html
	// directories as layers.
	ContentType ContentType

	// Build is passed through to [romfs.Create].
	Build romfs.BuildOptions

	// Logger receives progress messages. If nil, errors go to stderr
	// and everything else is dropped.
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// Patch describes one add-on directory and what it contributes.
type Patch struct {
	Name    string
	Enabled bool

	// RomFS, Ext and Manual report which of the romfs, romfs_ext and
	// manual_html subdirectories the add-on carries.
	RomFS  bool
	Ext    bool
	Manual bool
}

// Patches lists the candidate add-on directories in the order [Apply]
// layers them, disabled ones included. The sdmc root is reported under
// the name SDMCLayer.
func Patches(options Options) []Patch {
	var patches []Patch
	for _, candidate := range candidates(options, true) {
		patch := Patch{
			Name:    candidate.name,
			Enabled: !slices.Contains(options.Disabled, candidate.name),
		}
		_, patch.RomFS = vfs.FindSubdirectoryCaseless(candidate.dir, RomFSDirectory)
		_, patch.Ext = vfs.FindSubdirectoryCaseless(candidate.dir, RomFSExtDirectory)
		_, patch.Manual = vfs.FindSubdirectoryCaseless(candidate.dir, ManualHTMLDirectory)
		patches = append(patches, patch)
	}
	return patches
}

// addOn pairs a patch directory with the name it is disabled by.
type addOn struct {
	dir  vfs.Directory
	name string
}

// candidates returns the add-on directories sorted by directory name.
// The sdmc root is left out when disabled unless includeDisabled is set.
func candidates(options Options, includeDisabled bool) []addOn {
	var addOns []addOn
	if options.LoadRoot != nil {
		for _, dir := range options.LoadRoot.Subdirectories() {
			addOns = append(addOns, addOn{dir: dir, name: dir.Name()})
		}
	}
	if options.SDMCRoot != nil && (includeDisabled || !slices.Contains(options.Disabled, SDMCLayer)) {
		addOns = append(addOns, addOn{dir: options.SDMCRoot, name: SDMCLayer})
	}
	sort.SliceStable(addOns, func(i, j int) bool { return addOns[i].dir.Name() < addOns[j].dir.Name() })
	return addOns
}

// Apply layers the enabled add-ons over image and returns the rebuilt
// image. Add-ons sorted earlier by name take precedence over later ones
// and all of them over the image's own files.
//
// The original image is returned unchanged when the content type is
// not patchable, no add-on contributes a layer, or the image cannot be
// extracted. A rebuild failure returns the original image together
// with the error.
func Apply(image vfs.File, options Options) (vfs.File, error) {
	logger := options.logger()

	if !options.ContentType.Patchable() {
		logger.Debug("content type not patchable", "type", options.ContentType)
		return image, nil
	}

	var layers, extLayers []vfs.Directory
	for _, candidate := range candidates(options, false) {
		if slices.Contains(options.Disabled, candidate.name) {
			logger.Debug("add-on disabled", "name", candidate.name)
			continue
		}
		dir := candidate.dir

		if romfsDir, ok := vfs.FindSubdirectoryCaseless(dir, RomFSDirectory); ok {
			layers = append(layers, vfs.NewCachedDirectory(romfsDir))
		}
		if extDir, ok := vfs.FindSubdirectoryCaseless(dir, RomFSExtDirectory); ok {
			extLayers = append(extLayers, vfs.NewCachedDirectory(extDir))
		}
		if options.ContentType == HTMLDocument {
			if manualDir, ok := vfs.FindSubdirectoryCaseless(dir, ManualHTMLDirectory); ok {
				layers = append(layers, vfs.NewCachedDirectory(manualDir))
			}
		}
	}

	if len(layers) == 0 && len(extLayers) == 0 {
		return image, nil
	}

	extracted, err := romfs.Extract(image)
	if err != nil {
		logger.Warn("image not extractable, skipping add-ons", "image", image.Name(), "error", err)
		return image, nil
	}
	layers = append(layers, extracted)

	layered := vfs.NewLayeredDirectory(image.Name(), layers...)
	ext := vfs.NewLayeredDirectory("", extLayers...)

	packed, err := romfs.Create(layered, ext, options.Build)
	if err != nil {
		return image, fmt.Errorf("rebuilding %s with add-ons: %w", image.Name(), err)
	}

	logger.Info("add-ons applied",
		"image", image.Name(),
		"layers", len(layers)-1,
		"ext_layers", len(extLayers),
		"size", packed.Size(),
	)
	return packed, nil
}
