// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress reads and writes compressed image streams. Images
// may be stored raw, as an LZ4 frame, or as a zstd frame; the format
// of an existing image is detected from its leading magic bytes, not
// its file name.
package compress

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/romfs/lib/vfs"
)

// Algorithm identifies a stream compression format.
type Algorithm uint8

const (
	None Algorithm = iota
	LZ4
	Zstd
)

// Frame magic numbers, little-endian on the wire.
const (
	lz4FrameMagic  = 0x184D2204
	zstdFrameMagic = 0xFD2FB528
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Extension returns the conventional file suffix, including the dot.
func (a Algorithm) Extension() string {
	switch a {
	case LZ4:
		return ".lz4"
	case Zstd:
		return ".zst"
	default:
		return ""
	}
}

// Parse parses an algorithm name as printed by String.
func Parse(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd", "zst":
		return Zstd, nil
	default:
		return None, fmt.Errorf("unknown compression algorithm %q (want none, lz4, or zstd)", name)
	}
}

// FromExtension picks an algorithm from an output path's suffix.
func FromExtension(path string) Algorithm {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lz4":
		return LZ4
	case ".zst", ".zstd":
		return Zstd
	default:
		return None
	}
}

// Detect identifies the stream format from its first four bytes.
func Detect(header []byte) Algorithm {
	if len(header) < 4 {
		return None
	}
	switch binary.LittleEndian.Uint32(header) {
	case lz4FrameMagic:
		return LZ4
	case zstdFrameMagic:
		return Zstd
	default:
		return None
	}
}

// zstdDecoder serves buffered decodes. zstd.Decoder is safe for
// concurrent DecodeAll calls.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// NewWriter returns a writer that compresses into w. Close flushes the
// final frame; it does not close w.
func NewWriter(w io.Writer, algorithm Algorithm) (io.WriteCloser, error) {
	switch algorithm {
	case None:
		return nopCloser{w}, nil
	case LZ4:
		writer := lz4.NewWriter(w)
		if err := writer.Apply(lz4.ChecksumOption(true), lz4.CompressionLevelOption(lz4.Fast)); err != nil {
			return nil, fmt.Errorf("configuring lz4 writer: %w", err)
		}
		return writer, nil
	case Zstd:
		writer, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		return writer, nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm %s", algorithm)
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// WriteFile streams file through the compressor into w and returns the
// number of uncompressed bytes written.
func WriteFile(w io.Writer, file vfs.File, algorithm Algorithm) (int64, error) {
	writer, err := NewWriter(w, algorithm)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(writer, io.NewSectionReader(file, 0, file.Size()))
	if err != nil {
		writer.Close()
		return written, fmt.Errorf("compressing %s: %w", file.Name(), err)
	}
	if err := writer.Close(); err != nil {
		return written, fmt.Errorf("finishing %s stream: %w", algorithm, err)
	}
	return written, nil
}

// Open returns file's decompressed contents and the detected format.
// Raw files are returned unchanged, so a memory-mapped image keeps its
// zero-copy reads. Compressed files are decoded into memory.
func Open(file vfs.File) (vfs.File, Algorithm, error) {
	var magic [4]byte
	if n, _ := file.ReadAt(magic[:], 0); n < len(magic) {
		return file, None, nil
	}

	algorithm := Detect(magic[:])
	source := io.NewSectionReader(file, 0, file.Size())
	name := strings.TrimSuffix(file.Name(), algorithm.Extension())

	switch algorithm {
	case LZ4:
		var buffer bytes.Buffer
		if _, err := io.Copy(&buffer, lz4.NewReader(source)); err != nil {
			return nil, algorithm, fmt.Errorf("decompressing lz4 %s: %w", file.Name(), err)
		}
		return vfs.NewVectorFile(name, buffer.Bytes()), algorithm, nil
	case Zstd:
		compressed, err := vfs.ReadAll(file)
		if err != nil {
			return nil, algorithm, err
		}
		data, err := zstdDecoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, algorithm, fmt.Errorf("decompressing zstd %s: %w", file.Name(), err)
		}
		return vfs.NewVectorFile(name, data), algorithm, nil
	default:
		return file, None, nil
	}
}
