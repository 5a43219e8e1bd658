// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
	"github.com/bureau-foundation/romfs/lib/config"
	"github.com/bureau-foundation/romfs/lib/testutil"
)

// run executes the command tree with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := t.TempDir()
	configPath := filepath.Join(root, "romfs.yaml")
	configYAML := "paths:\n  root: " + root + "\n  mods: " + filepath.Join(root, "load") +
		"\nlog:\n  level: error\n"
	if err := os.WriteFile(configPath, []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvironmentVariable, configPath)

	var stdout bytes.Buffer
	command := newRoot(&stdout)
	command.Output = &stdout
	err := command.Execute(args)
	return stdout.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("romfs %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func assertFiles(t *testing.T, got, want map[string]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("got %d files, want %d: %v", len(got), len(want), testutil.SortedKeys(got))
	}
	for path, content := range want {
		if got[path] != content {
			t.Errorf("%s = %q, want %q", path, got[path], content)
		}
	}
}

var sourceFiles = map[string]string{
	"readme.txt":            "hello",
	"data/levels/one.bin":   "level one",
	"data/levels/two.bin":   "level two",
	"data/empty.bin":        "",
	"sound/music/theme.bgm": strings.Repeat("la", 1000),
}

func TestPackExtractRoundTrip(t *testing.T) {
	for _, suffix := range []string{".romfs", ".romfs.lz4", ".romfs.zst"} {
		t.Run(suffix, func(t *testing.T) {
			work := t.TempDir()
			source := filepath.Join(work, "source")
			testutil.WriteTree(t, source, sourceFiles)

			image := filepath.Join(work, "game"+suffix)
			mustRun(t, "pack", source, "-o", image)

			output := filepath.Join(work, "out")
			mustRun(t, "extract", image, "-o", output)
			assertFiles(t, testutil.ReadTree(t, output), sourceFiles)
		})
	}
}

func TestExtractSubdirectory(t *testing.T) {
	work := t.TempDir()
	source := filepath.Join(work, "source")
	testutil.WriteTree(t, source, sourceFiles)
	image := filepath.Join(work, "game.romfs")
	mustRun(t, "pack", source, "-o", image)

	output := filepath.Join(work, "levels")
	mustRun(t, "extract", image, "--path", "data/levels", "-o", output)
	assertFiles(t, testutil.ReadTree(t, output), map[string]string{
		"one.bin": "level one",
		"two.bin": "level two",
	})

	if _, err := run(t, "extract", image, "--path", "missing", "-o", output); err == nil {
		t.Error("expected error for a directory not in the image")
	}
}

func TestPackWithExt(t *testing.T) {
	work := t.TempDir()
	source := filepath.Join(work, "source")
	testutil.WriteTree(t, source, sourceFiles)
	ext := filepath.Join(work, "ext")
	testutil.WriteTree(t, ext, map[string]string{"data/levels/two.bin.stub": ""})

	image := filepath.Join(work, "game.romfs")
	mustRun(t, "pack", source, "--ext", ext, "-o", image)

	output := filepath.Join(work, "out")
	mustRun(t, "extract", image, "-o", output)
	got := testutil.ReadTree(t, output)
	if _, ok := got["data/levels/two.bin"]; ok {
		t.Error("stubbed file survived packing")
	}
	if got["data/levels/one.bin"] != "level one" {
		t.Errorf("data/levels/one.bin = %q", got["data/levels/one.bin"])
	}
}

func TestPackRequiresOutput(t *testing.T) {
	source := t.TempDir()
	testutil.WriteTree(t, source, sourceFiles)
	if _, err := run(t, "pack", source); err == nil || !strings.Contains(err.Error(), "--output") {
		t.Errorf("error = %v, want --output is required", err)
	}
}

func TestList(t *testing.T) {
	work := t.TempDir()
	source := filepath.Join(work, "source")
	testutil.WriteTree(t, source, sourceFiles)
	image := filepath.Join(work, "game.romfs")
	mustRun(t, "pack", source, "-o", image)

	out := mustRun(t, "ls", image)
	for path := range sourceFiles {
		if !strings.Contains(out, path) {
			t.Errorf("listing missing %s:\n%s", path, out)
		}
	}

	tree := mustRun(t, "ls", "--tree", image)
	for _, name := range []string{"levels/", "one.bin", "theme.bgm"} {
		if !strings.Contains(tree, name) {
			t.Errorf("tree missing %s:\n%s", name, tree)
		}
	}

	header := mustRun(t, "ls", "--header", image)
	if !strings.Contains(header, "file data") || !strings.Contains(header, "0x200") {
		t.Errorf("header output:\n%s", header)
	}
}

func TestPatch(t *testing.T) {
	work := t.TempDir()
	source := filepath.Join(work, "source")
	testutil.WriteTree(t, source, sourceFiles)
	image := filepath.Join(work, "game.romfs")
	mustRun(t, "pack", source, "-o", image)

	mods := filepath.Join(work, "mods")
	testutil.WriteTree(t, mods, map[string]string{
		"a-mod/romfs/readme.txt":              "patched",
		"b-mod/romfs_ext/data/empty.bin.stub": "",
	})
	testutil.WriteZip(t, filepath.Join(mods, "c-mod.zip"), map[string]string{
		"romfs/readme.txt":    "from zip",
		"romfs/extra/new.txt": "added",
	})

	list := mustRun(t, "patch", image, "--mods", mods, "--list")
	for _, name := range []string{"a-mod", "b-mod", "c-mod"} {
		if !strings.Contains(list, name) {
			t.Errorf("list missing %s:\n%s", name, list)
		}
	}

	patched := filepath.Join(work, "patched.romfs")
	mustRun(t, "patch", image, "--mods", mods, "-o", patched)

	output := filepath.Join(work, "out")
	mustRun(t, "extract", patched, "-o", output)
	assertFiles(t, testutil.ReadTree(t, output), map[string]string{
		"readme.txt":            "patched",
		"data/levels/one.bin":   "level one",
		"data/levels/two.bin":   "level two",
		"sound/music/theme.bgm": sourceFiles["sound/music/theme.bgm"],
		"extra/new.txt":         "added",
	})

	disabled := filepath.Join(work, "disabled.romfs")
	mustRun(t, "patch", image, "--mods", mods, "--disable", "a-mod", "--disable", "b-mod", "-o", disabled)
	output = filepath.Join(work, "out-disabled")
	mustRun(t, "extract", disabled, "-o", output)
	got := testutil.ReadTree(t, output)
	if got["readme.txt"] != "from zip" {
		t.Errorf("readme.txt = %q, want from zip", got["readme.txt"])
	}
	if _, ok := got["data/empty.bin"]; !ok {
		t.Error("data/empty.bin deleted by a disabled add-on")
	}
}

func TestPatchWithoutAddOnsCopiesImage(t *testing.T) {
	work := t.TempDir()
	source := filepath.Join(work, "source")
	testutil.WriteTree(t, source, sourceFiles)
	image := filepath.Join(work, "game.romfs")
	mustRun(t, "pack", source, "-o", image)

	patched := filepath.Join(work, "patched.romfs")
	mustRun(t, "patch", image, "--mods", filepath.Join(work, "no-mods"), "-o", patched)

	original, err := os.ReadFile(image)
	if err != nil {
		t.Fatal(err)
	}
	copied, err := os.ReadFile(patched)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(original, copied) {
		t.Error("image changed with no add-ons")
	}
}

func TestManifestVerify(t *testing.T) {
	work := t.TempDir()
	source := filepath.Join(work, "source")
	testutil.WriteTree(t, source, sourceFiles)
	image := filepath.Join(work, "game.romfs.zst")
	mustRun(t, "pack", source, "-o", image)

	saved := filepath.Join(work, "game.manifest")
	mustRun(t, "manifest", source, "-o", saved)

	listing := mustRun(t, "manifest", source)
	if !strings.Contains(listing, "data/levels/one.bin") || !strings.Contains(listing, "manifest ") {
		t.Errorf("manifest listing:\n%s", listing)
	}
	out := mustRun(t, "verify", image, saved)
	if !strings.HasPrefix(out, "ok ") {
		t.Errorf("verify output = %q, want ok", out)
	}

	testutil.WriteTree(t, source, map[string]string{"readme.txt": "changed", "added.txt": "new"})
	out, err := run(t, "verify", source, saved)
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("verify error = %v, want exit code 1", err)
	}
	if !strings.Contains(out, "~ readme.txt") || !strings.Contains(out, "+ added.txt") {
		t.Errorf("verify output:\n%s", out)
	}
}

func TestManifestFormats(t *testing.T) {
	source := t.TempDir()
	testutil.WriteTree(t, source, map[string]string{"a.txt": "a"})

	jsonOut := mustRun(t, "manifest", source, "--json")
	if !strings.Contains(jsonOut, `"path": "a.txt"`) {
		t.Errorf("json output:\n%s", jsonOut)
	}

	diag := mustRun(t, "manifest", source, "--diag")
	if !strings.Contains(diag, `"a.txt"`) {
		t.Errorf("diagnostic output:\n%s", diag)
	}
}

func TestVerifyRejectsInvalidManifest(t *testing.T) {
	work := t.TempDir()
	testutil.WriteTree(t, work, map[string]string{"tree/a.txt": "a", "bad.manifest": "not cbor"})
	if _, err := run(t, "verify", filepath.Join(work, "tree"), filepath.Join(work, "bad.manifest")); err == nil {
		t.Error("expected error for a malformed manifest")
	}
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "version")
	if !strings.HasPrefix(out, "romfs ") {
		t.Errorf("version output = %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "pakc")
	if err == nil || !strings.Contains(err.Error(), `did you mean "pack"`) {
		t.Errorf("error = %v, want a pack suggestion", err)
	}
}
