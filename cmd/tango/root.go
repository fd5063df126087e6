// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"

	"github.com/bureau-foundation/tango/cmd/tango/cli"
)

// root builds the command tree. Command output goes to stdout.
func root(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name: "tango",
		Description: `tango: a client for Tango control system devices.

Calls device commands, reads and writes attributes, manages device and
free-object properties, and queries the Tango database. By default it
talks to the in-process simulated control library, which hosts the
sys/tg_test/1 test device and the test/benchmark/echo device; set
"library: native" in the configuration file to use the installed
c_tango library instead.`,
		Subcommands: []*cli.Command{
			typesCommand(stdout),
			infoCommand(stdout),
			commandCommand(stdout),
			commandsCommand(stdout),
			readCommand(stdout),
			writeCommand(stdout),
			attributesCommand(stdout),
			propertyCommand(stdout),
			databaseCommand(stdout),
			snapshotCommand(stdout),
			benchCommand(stdout),
			configCommand(stdout),
		},
		Examples: []cli.Example{
			{
				Description: "Echo a long array through the test device",
				Command:     "tango command sys/tg_test/1 DevVarLongArray 1 2 3",
			},
			{
				Description: "Read a spectrum with its set point",
				Command:     "tango read sys/tg_test/1 double_spectrum",
			},
			{
				Description: "Write a negative scalar (values after -- are never flags)",
				Command:     "tango write sys/tg_test/1 long_scalar -- -42",
			},
			{
				Description: "Record ten polls into a compressed snapshot",
				Command:     "tango snapshot record --count 10 --output run.tgsnap sys/tg_test/1 double_scalar long_spectrum",
			},
		},
	}
}
