// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for tests that work on
// the host filesystem.
//
// [WriteTree] materializes a map of slash-separated paths to contents
// below a directory, and [ReadTree] reads one back into the same shape,
// so tests can compare whole trees with a single map comparison.
// [WriteZip] writes the same map as a zip archive, the way mod packs
// are usually distributed.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no internal dependencies.
package testutil
