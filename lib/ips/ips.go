// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ips applies IPS and IPS32 binary patches.
//
// An IPS patch is the magic "PATCH" followed by records and the
// terminator "EOF". Each record is a big-endian 3-byte target offset
// and a 2-byte length followed by that many bytes of replacement data.
// A zero length marks an RLE record: a 2-byte run length and a single
// fill byte. A 3-byte size may follow the terminator, truncating the
// output to that length.
//
// IPS32 uses the magic "IPS32", 4-byte offsets, and the terminator
// "EEOF". It has no truncation trailer.
//
// Records may write past the end of the input; the output grows to fit
// and any gap is zero-filled.
package ips

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

// ErrInvalidPatch is returned for patches that are truncated or carry
// an unknown magic.
var ErrInvalidPatch = errors.New("ips: invalid patch")

// Format identifies the patch dialect.
type Format int

const (
	FormatUnknown Format = iota
	FormatIPS
	FormatIPS32
)

func (f Format) String() string {
	switch f {
	case FormatIPS:
		return "IPS"
	case FormatIPS32:
		return "IPS32"
	default:
		return "unknown"
	}
}

type dialect struct {
	magic      []byte
	terminator []byte
	offsetSize int
}

var dialects = map[Format]dialect{
	FormatIPS:   {magic: []byte("PATCH"), terminator: []byte("EOF"), offsetSize: 3},
	FormatIPS32: {magic: []byte("IPS32"), terminator: []byte("EEOF"), offsetSize: 4},
}

// Detect returns the dialect of patch from its magic.
func Detect(patch []byte) Format {
	switch {
	case bytes.HasPrefix(patch, dialects[FormatIPS32].magic):
		return FormatIPS32
	case bytes.HasPrefix(patch, dialects[FormatIPS].magic):
		return FormatIPS
	default:
		return FormatUnknown
	}
}

// Apply reads base and patch in full and returns the patched contents
// as a new in-memory file carrying base's name. Neither input is
// modified.
func Apply(base, patch vfs.File) (vfs.File, error) {
	baseData, err := vfs.ReadAll(base)
	if err != nil {
		return nil, fmt.Errorf("reading patch target: %w", err)
	}
	patchData, err := vfs.ReadAll(patch)
	if err != nil {
		return nil, fmt.Errorf("reading patch: %w", err)
	}
	patched, err := ApplyBytes(baseData, patchData)
	if err != nil {
		return nil, fmt.Errorf("applying %s to %s: %w", patch.Name(), base.Name(), err)
	}
	return vfs.NewVectorFile(base.Name(), patched), nil
}

// ApplyBytes returns a patched copy of base.
func ApplyBytes(base, patch []byte) ([]byte, error) {
	format := Detect(patch)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: unrecognized magic", ErrInvalidPatch)
	}
	d := dialects[format]

	output := append([]byte(nil), base...)
	r := reader{data: patch, position: len(d.magic)}

	for {
		if r.hasPrefix(d.terminator) {
			r.position += len(d.terminator)
			break
		}

		offset, err := r.uint(d.offsetSize)
		if err != nil {
			return nil, err
		}
		length, err := r.uint(2)
		if err != nil {
			return nil, err
		}

		var chunk []byte
		if length == 0 {
			run, err := r.uint(2)
			if err != nil {
				return nil, err
			}
			value, err := r.bytes(1)
			if err != nil {
				return nil, err
			}
			chunk = bytes.Repeat(value, int(run))
		} else {
			chunk, err = r.bytes(int(length))
			if err != nil {
				return nil, err
			}
		}

		end := int(offset) + len(chunk)
		if end > len(output) {
			output = append(output, make([]byte, end-len(output))...)
		}
		copy(output[offset:], chunk)
	}

	if format == FormatIPS && r.remaining() >= 3 {
		size, _ := r.uint(3)
		if int(size) < len(output) {
			output = output[:size]
		}
	}
	return output, nil
}

type reader struct {
	data     []byte
	position int
}

func (r *reader) remaining() int { return len(r.data) - r.position }

func (r *reader) hasPrefix(prefix []byte) bool {
	return bytes.HasPrefix(r.data[r.position:], prefix)
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("%w: record truncated at offset %#x", ErrInvalidPatch, r.position)
	}
	out := r.data[r.position : r.position+n]
	r.position += n
	return out, nil
}

// uint reads an n-byte big-endian unsigned integer, n <= 4.
func (r *reader) uint(n int) (uint32, error) {
	raw, err := r.bytes(n)
	if err != nil {
		return 0, err
	}
	var padded [4]byte
	copy(padded[4-n:], raw)
	return binary.BigEndian.Uint32(padded[:]), nil
}
