// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command tango is a client for Tango control system devices. It
// calls commands, reads and writes attributes, manages properties,
// queries the database, records attribute snapshots, and benchmarks
// command round trips, against either the in-process simulated
// control library or the native one.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output return an error with an
		// exit code. Don't print a redundant "error:" line for those.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root(os.Stdout).Execute(ctx, os.Args[1:])
}
