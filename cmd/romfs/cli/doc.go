// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the romfs binary: a tree
// of [Command] values dispatched by the first positional argument,
// flags declared as tagged struct fields (see [BindFlags]), typo
// suggestions for unknown commands and flags, and [ExitError] for
// commands that report failure through their own output.
package cli
