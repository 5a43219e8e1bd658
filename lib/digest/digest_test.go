// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

func TestDomainSeparation(t *testing.T) {
	data := []byte("level data")
	file := Bytes(FileDomain, data)
	image := Bytes(ImageDomain, data)
	manifest := Bytes(ManifestDomain, data)
	if file == image || file == manifest || image == manifest {
		t.Error("identical input hashed to the same digest in different domains")
	}
	if Bytes(FileDomain, data) != file {
		t.Error("digest is not deterministic")
	}
}

func TestStreamingMatchesBuffered(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), streamBufferSize/8)

	streamed, err := Reader(FileDomain, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	if streamed != Bytes(FileDomain, data) {
		t.Error("streamed digest differs from buffered digest")
	}

	fromFile, err := File(FileDomain, vfs.NewVectorFile("f", data))
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if fromFile != streamed {
		t.Error("file digest differs from buffered digest")
	}
}

func TestTextRoundTrip(t *testing.T) {
	hash := Bytes(ImageDomain, []byte("x"))
	text, err := hash.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if len(text) != 64 {
		t.Errorf("text length = %d, want 64", len(text))
	}
	if !strings.HasPrefix(hash.String(), hash.Short()) || len(hash.Short()) != 12 {
		t.Errorf("Short = %q, not a 12-character prefix of %q", hash.Short(), hash.String())
	}

	var parsed Hash
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if parsed != hash {
		t.Error("text roundtrip changed the digest")
	}
	if hash.IsZero() || !(Hash{}).IsZero() {
		t.Error("IsZero is wrong")
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "zz", strings.Repeat("ab", 31), strings.Repeat("ab", 33)} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) succeeded", input)
		}
	}
}
