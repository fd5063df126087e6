// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/bureau-foundation/tango/cmd/tango/cli"
	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
)

func databaseCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "db",
		Summary: "Query the Tango database",
		Description: `Query the Tango database for exported devices, free objects and their
property names. Filters accept "*" as a wildcard.`,
		Subcommands: []*cli.Command{
			exportedCommand(stdout),
			objectsCommand(stdout),
			objectPropertiesCommand(stdout),
		},
	}
}

type exportedParams struct {
	connectionParams
	cli.JSONOutput
	Class string `json:"class" flag:"class" desc:"list the exported devices of this class instead"`
}

func exportedCommand(stdout io.Writer) *cli.Command {
	var params exportedParams
	return &cli.Command{
		Name:    "exported",
		Summary: "List exported devices",
		Usage:   "tango db exported [filter] [flags]",
		Params:  func() any { return &params },
		Examples: []cli.Example{
			{Command: "tango db exported 'sys/*'"},
			{Command: "tango db exported --class TangoTest"},
		},
		Run: func(ctx context.Context, args []string) error {
			filter, err := optionalFilter(args)
			if err != nil {
				return err
			}
			if params.Class != "" && len(args) > 0 {
				return fmt.Errorf("--class and a filter are exclusive")
			}
			return params.withDatabase(ctx, "db/exported", func(_ *environment, database *client.DatabaseProxy) error {
				var datum tango.DbDatum
				if params.Class != "" {
					datum, err = database.DeviceExportedForClass(ctx, params.Class)
				} else {
					datum, err = database.DeviceExported(ctx, filter)
				}
				if err != nil {
					return err
				}
				return printNames(stdout, &params.JSONOutput, datum)
			})
		},
	}
}

type objectsParams struct {
	connectionParams
	cli.JSONOutput
}

func objectsCommand(stdout io.Writer) *cli.Command {
	var params objectsParams
	return &cli.Command{
		Name:    "objects",
		Summary: "List free objects",
		Usage:   "tango db objects [filter] [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			filter, err := optionalFilter(args)
			if err != nil {
				return err
			}
			return params.withDatabase(ctx, "db/objects", func(_ *environment, database *client.DatabaseProxy) error {
				datum, err := database.ObjectList(ctx, filter)
				if err != nil {
					return err
				}
				return printNames(stdout, &params.JSONOutput, datum)
			})
		},
	}
}

func objectPropertiesCommand(stdout io.Writer) *cli.Command {
	var params objectsParams
	return &cli.Command{
		Name:    "properties",
		Summary: "List the property names of a free object",
		Usage:   "tango db properties <object> [filter] [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("usage: tango db properties <object> [filter]")
			}
			filter, err := optionalFilter(args[1:])
			if err != nil {
				return err
			}
			return params.withDatabase(ctx, "db/properties", func(_ *environment, database *client.DatabaseProxy) error {
				datum, err := database.ObjectPropertyList(ctx, args[0], filter)
				if err != nil {
					return err
				}
				return printNames(stdout, &params.JSONOutput, datum)
			})
		},
	}
}

// optionalFilter returns the single filter argument, or "*".
func optionalFilter(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "*", nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("expected at most one filter, got %d arguments", len(args))
	}
}

// printNames prints a name-list result one name per line.
func printNames(stdout io.Writer, output *cli.JSONOutput, datum tango.DbDatum) error {
	var names []string
	if !datum.IsEmpty() {
		names = tango.FormatPropertyStrings(datum.Data)
	}
	if done, err := output.EmitJSON(stdout, names); done {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(stdout, name); err != nil {
			return err
		}
	}
	return nil
}
