// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the tango CLI.
//
// The central type is [Command], a named subcommand with optional
// nested [Command.Subcommands], a parameter struct and a Run function.
// Commands are assembled into a tree in cmd/tango and dispatched via
// [Command.Execute], which handles flag parsing, subcommand routing and
// help output with examples.
//
// Flags are declared as struct tags on a params struct and bound by
// [BindFlags]:
//
//	type readParams struct {
//	    cli.JSONOutput
//	    Source string `flag:"source" desc:"read source" default:"CACHE_DEV"`
//	}
//
// When a user types an unknown subcommand or flag, the framework
// computes the Levenshtein edit distance against all known names and
// suggests the closest match (distance <= 3).
package cli
