// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ips

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func TestApplyBytes(t *testing.T) {
	tests := []struct {
		name  string
		base  []byte
		patch []byte
		want  []byte
	}{
		{
			name:  "replace in place",
			base:  []byte("hello world"),
			patch: join([]byte("PATCH"), []byte{0, 0, 6, 0, 5}, []byte("there"), []byte("EOF")),
			want:  []byte("hello there"),
		},
		{
			name:  "rle run",
			base:  []byte("abcdefgh"),
			patch: join([]byte("PATCH"), []byte{0, 0, 2, 0, 0, 0, 3, 'z'}, []byte("EOF")),
			want:  []byte("abzzzfgh"),
		},
		{
			name:  "grow past end",
			base:  []byte("ab"),
			patch: join([]byte("PATCH"), []byte{0, 0, 4, 0, 1, 'x'}, []byte("EOF")),
			want:  []byte("ab\x00\x00x"),
		},
		{
			name:  "truncation trailer",
			base:  []byte("abcdefgh"),
			patch: join([]byte("PATCH"), []byte("EOF"), []byte{0, 0, 3}),
			want:  []byte("abc"),
		},
		{
			name:  "multiple records",
			base:  []byte("0000000000"),
			patch: join([]byte("PATCH"), []byte{0, 0, 0, 0, 1, 'a'}, []byte{0, 0, 9, 0, 1, 'b'}, []byte("EOF")),
			want:  []byte("a00000000b"),
		},
		{
			name:  "ips32 four byte offsets",
			base:  []byte("abcdef"),
			patch: join([]byte("IPS32"), []byte{0, 0, 0, 1, 0, 2}, []byte("XY"), []byte("EEOF")),
			want:  []byte("aXYdef"),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ApplyBytes(test.base, test.patch)
			if err != nil {
				t.Fatalf("ApplyBytes: %v", err)
			}
			if !bytes.Equal(got, test.want) {
				t.Errorf("ApplyBytes = %q, want %q", got, test.want)
			}
		})
	}
}

func TestApplyBytesDoesNotModifyBase(t *testing.T) {
	base := []byte("abc")
	if _, err := ApplyBytes(base, join([]byte("PATCH"), []byte{0, 0, 0, 0, 1, 'z'}, []byte("EOF"))); err != nil {
		t.Fatalf("ApplyBytes: %v", err)
	}
	if string(base) != "abc" {
		t.Errorf("base was modified: %q", base)
	}
}

func TestApplyBytesInvalid(t *testing.T) {
	tests := []struct {
		name  string
		patch []byte
	}{
		{"empty", nil},
		{"wrong magic", []byte("BPS1xxxx")},
		{"missing terminator", []byte("PATCH")},
		{"truncated header", join([]byte("PATCH"), []byte{0, 0})},
		{"truncated data", join([]byte("PATCH"), []byte{0, 0, 0, 0, 4, 'a'})},
		{"truncated rle", join([]byte("PATCH"), []byte{0, 0, 0, 0, 0, 0, 4})},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ApplyBytes([]byte("base"), test.patch)
			if !errors.Is(err, ErrInvalidPatch) {
				t.Errorf("error = %v, want ErrInvalidPatch", err)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		input []byte
		want  Format
	}{
		{[]byte("PATCHEOF"), FormatIPS},
		{[]byte("IPS32EEOF"), FormatIPS32},
		{[]byte("PATC"), FormatUnknown},
		{nil, FormatUnknown},
	}
	for _, test := range tests {
		if got := Detect(test.input); got != test.want {
			t.Errorf("Detect(%q) = %v, want %v", test.input, got, test.want)
		}
	}
}

func TestApplyFiles(t *testing.T) {
	base := vfs.NewVectorFile("main.bin", []byte("abcd"))
	patch := vfs.NewVectorFile("main.bin.ips", join([]byte("PATCH"), []byte{0, 0, 1, 0, 1, 'Z'}, []byte("EOF")))

	patched, err := Apply(base, patch)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if patched.Name() != "main.bin" {
		t.Errorf("Name = %q, want main.bin", patched.Name())
	}
	data, err := vfs.ReadAll(patched)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "aZcd" {
		t.Errorf("contents = %q, want aZcd", data)
	}
	if string(base.Bytes()) != "abcd" {
		t.Error("Apply modified the base file")
	}
}
