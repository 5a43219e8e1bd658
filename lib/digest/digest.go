// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes domain-separated BLAKE3 digests of file
// contents and manifests.
//
// Each domain uses its own 32-byte key for BLAKE3 keyed hashing, so
// identical bytes hashed as a file and as a manifest never produce the
// same digest.
package digest

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// Domain selects the key a digest is computed under.
type Domain [32]byte

// Domain keys are the ASCII domain name zero-padded to 32 bytes.
// Changing one invalidates every digest in that domain.
var (
	FileDomain = Domain{
		'r', 'o', 'm', 'f', 's', '.', 'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	ImageDomain = Domain{
		'r', 'o', 'm', 'f', 's', '.', 'i', 'm', 'a', 'g', 'e', 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	ManifestDomain = Domain{
		'r', 'o', 'm', 'f', 's', '.', 'm', 'a', 'n', 'i', 'f', 'e', 's', 't', 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// streamBufferSize is the read size for streaming a vfs.File into the
// hasher.
const streamBufferSize = 256 << 10

func newHasher(domain Domain) *blake3.Hasher {
	// NewKeyed only fails for a key that is not 32 bytes.
	hasher, err := blake3.NewKeyed(domain[:])
	if err != nil {
		panic("digest: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func sum(hasher *blake3.Hasher) Hash {
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// Bytes returns the digest of data under domain.
func Bytes(domain Domain, data []byte) Hash {
	hasher := newHasher(domain)
	hasher.Write(data)
	return sum(hasher)
}

// Reader returns the digest of everything read from r under domain.
func Reader(domain Domain, r io.Reader) (Hash, error) {
	hasher := newHasher(domain)
	if _, err := io.CopyBuffer(hasher, r, make([]byte, streamBufferSize)); err != nil {
		return Hash{}, err
	}
	return sum(hasher), nil
}

// File returns the digest of file's contents under domain, reading it
// through ReadAt so the file's own offset state is never touched.
func File(domain Domain, file vfs.File) (Hash, error) {
	hash, err := Reader(domain, io.NewSectionReader(file, 0, file.Size()))
	if err != nil {
		return Hash{}, fmt.Errorf("hashing %s: %w", file.Name(), err)
	}
	return hash, nil
}

// String returns the hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex characters of h, for display.
func (h Hash) Short() string {
	return hex.EncodeToString(h[:6])
}

// IsZero reports whether h is the zero value.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// MarshalText encodes h as hex, so hashes appear as strings in JSON
// and CBOR.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText parses a 64-character hex string.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Parse parses a 64-character hex string into a Hash.
func Parse(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != len(hash) {
		return hash, fmt.Errorf("digest is %d bytes, want %d", len(decoded), len(hash))
	}
	copy(hash[:], decoded)
	return hash, nil
}
