// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the shared CBOR configuration for on-disk
// metadata such as image manifests.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): sorted map
// keys, smallest integer encoding, no indefinite-length items. The same
// manifest always encodes to the same bytes, so a manifest's digest is
// stable across runs and machines.
//
//	data, err := codec.Marshal(manifest)
//	err = codec.Unmarshal(data, &manifest)
//
// Types serialized only as CBOR use `cbor` struct tags. Types that are
// also printed as JSON by the CLI use `json` tags, which the CBOR
// library reads as a fallback. A field never carries both.
package codec
