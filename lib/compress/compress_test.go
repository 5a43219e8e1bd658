// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"testing"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("romfs image payload "), 4096)

	for _, algorithm := range []Algorithm{None, LZ4, Zstd} {
		t.Run(algorithm.String(), func(t *testing.T) {
			var compressed bytes.Buffer
			written, err := WriteFile(&compressed, vfs.NewVectorFile("image", payload), algorithm)
			if err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if written != int64(len(payload)) {
				t.Errorf("WriteFile reported %d bytes, want %d", written, len(payload))
			}
			if algorithm != None && compressed.Len() >= len(payload) {
				t.Errorf("%s output is %d bytes, not smaller than %d", algorithm, compressed.Len(), len(payload))
			}

			if got := Detect(compressed.Bytes()); got != algorithm {
				t.Errorf("Detect = %s, want %s", got, algorithm)
			}

			opened, detected, err := Open(vfs.NewVectorFile("image"+algorithm.Extension(), compressed.Bytes()))
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if detected != algorithm {
				t.Errorf("Open detected %s, want %s", detected, algorithm)
			}
			if opened.Name() != "image" {
				t.Errorf("Name = %q, want suffix stripped", opened.Name())
			}
			data, err := vfs.ReadAll(opened)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(data, payload) {
				t.Error("roundtrip changed the payload")
			}
		})
	}
}

func TestOpenRawReturnsSameFile(t *testing.T) {
	raw := vfs.NewVectorFile("image.romfs", []byte("plain bytes"))
	opened, algorithm, err := Open(raw)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if algorithm != None || opened != vfs.File(raw) {
		t.Errorf("Open(raw) = (%T, %s), want the original file", opened, algorithm)
	}

	tiny := vfs.NewVectorFile("tiny", []byte{1})
	if opened, _, err := Open(tiny); err != nil || opened != vfs.File(tiny) {
		t.Errorf("Open(tiny) = (%v, %v)", opened, err)
	}
}

func TestOpenCorruptFrame(t *testing.T) {
	corrupt := []byte{0x28, 0xB5, 0x2F, 0xFD, 0xFF, 0xFF, 0xFF}
	if _, _, err := Open(vfs.NewVectorFile("bad.zst", corrupt)); err == nil {
		t.Error("Open accepted a corrupt zstd frame")
	}
}

func TestParseAndExtension(t *testing.T) {
	tests := []struct {
		name string
		want Algorithm
	}{
		{"", None},
		{"none", None},
		{"LZ4", LZ4},
		{"zstd", Zstd},
		{"zst", Zstd},
	}
	for _, test := range tests {
		got, err := Parse(test.name)
		if err != nil || got != test.want {
			t.Errorf("Parse(%q) = (%s, %v), want %s", test.name, got, err, test.want)
		}
	}
	if _, err := Parse("brotli"); err == nil {
		t.Error("Parse(brotli) succeeded")
	}

	if FromExtension("out/game.romfs.zst") != Zstd || FromExtension("x.LZ4") != LZ4 || FromExtension("x.romfs") != None {
		t.Error("FromExtension misclassified a path")
	}
}
