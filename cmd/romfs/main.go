// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command romfs builds, unpacks, patches and inspects RomFS images.
package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/romfs/cmd/romfs/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that report failure through their own output (like
		// verify) return an error carrying an exit code.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
