// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/romfs/cmd/romfs/cli"
	"github.com/bureau-foundation/romfs/lib/compress"
	"github.com/bureau-foundation/romfs/lib/config"
	"github.com/bureau-foundation/romfs/lib/romfs"
	"github.com/bureau-foundation/romfs/lib/vfs"
	"github.com/bureau-foundation/romfs/lib/vfs/aferofs"
	"github.com/bureau-foundation/romfs/lib/vfs/zipfs"
)

// globalParams are the flags every command accepts.
type globalParams struct {
	Config   string `flag:"config"    desc:"config file (default: $ROMFS_CONFIG, else built-in defaults)"`
	LogLevel string `flag:"log-level" desc:"debug, info, warn or error (overrides the config file)"`
}

// environment is what a command needs beyond its own flags.
type environment struct {
	config *config.Config
	logger *slog.Logger
}

// load resolves the configuration and builds the command logger.
func (g globalParams) load(command string) (*environment, error) {
	var cfg *config.Config
	var err error
	switch {
	case g.Config != "":
		cfg, err = config.LoadFile(g.Config)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.Log.SlogLevel()
	return &environment{
		config: cfg,
		logger: cli.NewCommandLogger(level).With("command", command),
	}, nil
}

// openImage opens an image file, decompressing it when it is an lz4 or
// zstd stream. Raw images stay memory-mapped.
func openImage(path string) (vfs.File, io.Closer, error) {
	file, closer, err := openHostFile(path)
	if err != nil {
		return nil, nil, err
	}
	decoded, _, err := compress.Open(file)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return decoded, closer, nil
}

// openTree opens path as a directory tree. Host directories are read
// in place, ".zip" files are indexed as archives, and anything else is
// treated as an image and extracted.
func openTree(path string) (vfs.Directory, io.Closer, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}

	if info.IsDir() {
		dir, err := aferofs.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return dir, nopCloser{}, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".zip") {
		archive, err := zipfs.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return archive, archive, nil
	}

	image, closer, err := openImage(path)
	if err != nil {
		return nil, nil, err
	}
	tree, err := romfs.Extract(image)
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return tree, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// outputAlgorithm picks the compression for an output path: the
// explicit flag, else the path's suffix, else the configured default.
func outputAlgorithm(flag, path string, cfg *config.Config) (compress.Algorithm, error) {
	if flag != "" {
		return compress.Parse(flag)
	}
	if algorithm := compress.FromExtension(path); algorithm != compress.None {
		return algorithm, nil
	}
	return compress.Parse(cfg.Output.Compression)
}

// writeImage writes image to path ("-" for stdout) through the chosen
// compressor. A partially written file is removed on error.
func writeImage(path string, stdout io.Writer, image vfs.File, algorithm compress.Algorithm) (written int64, err error) {
	if path == "-" {
		buffered := bufio.NewWriterSize(stdout, 1<<20)
		written, err = compress.WriteFile(buffered, image, algorithm)
		if err != nil {
			return written, err
		}
		return written, buffered.Flush()
	}

	output, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	buffered := bufio.NewWriterSize(output, 1<<20)
	written, err = compress.WriteFile(buffered, image, algorithm)
	if err != nil {
		return written, fmt.Errorf("writing %s: %w", path, err)
	}
	if err := buffered.Flush(); err != nil {
		return written, fmt.Errorf("writing %s: %w", path, err)
	}
	return written, nil
}

// closeAll closes every closer and joins the errors.
func closeAll(closers ...io.Closer) error {
	var errs []error
	for _, closer := range closers {
		if closer == nil {
			continue
		}
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
