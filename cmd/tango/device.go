// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bureau-foundation/tango/cmd/tango/cli"
	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
)

// valueOutput is the JSON form of a single value.
type valueOutput struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func newValueOutput(value tango.Value) valueOutput {
	return valueOutput{Type: value.Kind().String(), Value: tango.Format(value)}
}

type infoParams struct {
	connectionParams
	cli.JSONOutput
}

type infoOutput struct {
	Device   string `json:"device"`
	State    string `json:"state"`
	Status   string `json:"status"`
	Timeout  string `json:"timeout"`
	Source   string `json:"source"`
	Locked   bool   `json:"locked"`
	LockedBy string `json:"locking_status,omitempty"`
}

func infoCommand(stdout io.Writer) *cli.Command {
	var params infoParams
	return &cli.Command{
		Name:    "info",
		Summary: "Show a device's state, status and session settings",
		Usage:   "tango info <device> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: tango info <device>")
			}
			return params.withDevice(ctx, "info", args[0], func(_ *environment, proxy *client.DeviceProxy) error {
				info := infoOutput{Device: proxy.Name()}
				state, err := proxy.CommandInout(ctx, "State", tango.Void{})
				if err != nil {
					return err
				}
				info.State = tango.Format(state)
				status, err := proxy.CommandInout(ctx, "Status", tango.Void{})
				if err != nil {
					return err
				}
				if text, ok := tango.AsText(status); ok {
					info.Status = text
				}
				timeout, err := proxy.Timeout(ctx)
				if err != nil {
					return err
				}
				info.Timeout = timeout.String()
				source, err := proxy.Source(ctx)
				if err != nil {
					return err
				}
				info.Source = source.String()
				if info.Locked, err = proxy.IsLocked(ctx); err != nil {
					return err
				}
				if info.Locked {
					if info.LockedBy, err = proxy.LockingStatus(ctx); err != nil {
						return err
					}
				}

				if done, err := params.EmitJSON(stdout, info); done {
					return err
				}
				writer := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
				fmt.Fprintf(writer, "device:\t%s\n", info.Device)
				fmt.Fprintf(writer, "state:\t%s\n", info.State)
				fmt.Fprintf(writer, "status:\t%s\n", info.Status)
				fmt.Fprintf(writer, "timeout:\t%s\n", info.Timeout)
				fmt.Fprintf(writer, "source:\t%s\n", info.Source)
				if info.Locked {
					fmt.Fprintf(writer, "locked:\t%s\n", info.LockedBy)
				} else {
					fmt.Fprintf(writer, "locked:\tno\n")
				}
				return writer.Flush()
			})
		},
	}
}

type commandParams struct {
	connectionParams
	cli.JSONOutput
	Type string `json:"type" flag:"type,t" desc:"argument type, e.g. DevVarLongArray (default: queried from the device)"`
}

func commandCommand(stdout io.Writer) *cli.Command {
	var params commandParams
	return &cli.Command{
		Name:    "command",
		Summary: "Execute a device command",
		Description: `Execute a command on a device and print its result.

The argument is built from the remaining words according to the
command's input type: one word for a scalar, one per element for an
array, a format and a data word for DevEncoded, and for the composite
types the numbers, then "|", then the strings. Put arguments that
start with "-" after "--".`,
		Usage:  "tango command <device> <command> [argument...] [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{Description: "Query the device state", Command: "tango command sys/tg_test/1 State"},
			{Description: "Echo a composite value", Command: "tango command sys/tg_test/1 DevVarLongStringArray 1 2 '|' a b"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: tango command <device> <command> [argument...]")
			}
			device, name, words := args[0], args[1], args[2:]
			return params.withDevice(ctx, "command", device, func(_ *environment, proxy *client.DeviceProxy) error {
				kind, err := commandInputKind(ctx, proxy, name, params.Type)
				if err != nil {
					return err
				}
				argin, err := tango.ParseCommandValue(kind, words)
				if err != nil {
					return fmt.Errorf("%s argument: %w", name, err)
				}
				result, err := proxy.CommandInout(ctx, name, argin)
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(stdout, newValueOutput(result)); done {
					return err
				}
				_, err = fmt.Fprintln(stdout, tango.Format(result))
				return err
			})
		},
	}
}

// commandInputKind parses typeName, or asks the device when it is
// empty.
func commandInputKind(ctx context.Context, proxy *client.DeviceProxy, command, typeName string) (tango.Kind, error) {
	if typeName != "" {
		return tango.ParseKind(typeName)
	}
	info, err := proxy.CommandQuery(ctx, command)
	if err != nil {
		return 0, err
	}
	return info.InType, nil
}

type commandsParams struct {
	connectionParams
	cli.JSONOutput
}

type commandEntry struct {
	Name   string `json:"name"`
	In     string `json:"in"`
	Out    string `json:"out"`
	InDesc string `json:"in_description,omitempty"`
}

func commandsCommand(stdout io.Writer) *cli.Command {
	var params commandsParams
	return &cli.Command{
		Name:    "commands",
		Summary: "List a device's commands",
		Usage:   "tango commands <device> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: tango commands <device>")
			}
			return params.withDevice(ctx, "commands", args[0], func(_ *environment, proxy *client.DeviceProxy) error {
				infos, err := proxy.CommandListQuery(ctx)
				if err != nil {
					return err
				}
				entries := make([]commandEntry, len(infos))
				for index, info := range infos {
					entries[index] = commandEntry{
						Name:   info.Name,
						In:     info.InType.String(),
						Out:    info.OutType.String(),
						InDesc: info.InTypeDesc,
					}
				}
				if done, err := params.EmitJSON(stdout, entries); done {
					return err
				}
				writer := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
				fmt.Fprintln(writer, "NAME\tIN\tOUT")
				for _, entry := range entries {
					fmt.Fprintf(writer, "%s\t%s\t%s\n", entry.Name, entry.In, entry.Out)
				}
				return writer.Flush()
			})
		},
	}
}
