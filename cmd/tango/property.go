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

// propertyParams select between a device's properties and those of a
// free database object.
type propertyParams struct {
	connectionParams
	Free bool `json:"free" flag:"free" desc:"the object is a free database object, not a device"`
}

// properties runs fn with get/put/delete bound to the device or free
// object named object.
func (params *propertyParams) properties(ctx context.Context, command, object string, fn func(propertyAccess) error) error {
	if params.Free {
		return params.withDatabase(ctx, command, func(_ *environment, database *client.DatabaseProxy) error {
			return fn(propertyAccess{
				get: func(request []tango.DbDatum) ([]tango.DbDatum, error) {
					return database.GetProperty(ctx, object, request)
				},
				put: func(data []tango.DbDatum) error {
					return database.PutProperty(ctx, object, data)
				},
				remove: func(names []string) error {
					return database.DeleteProperty(ctx, object, names...)
				},
			})
		})
	}
	return params.withDevice(ctx, command, object, func(_ *environment, proxy *client.DeviceProxy) error {
		return fn(propertyAccess{
			get: func(request []tango.DbDatum) ([]tango.DbDatum, error) {
				return proxy.GetDeviceProperty(ctx, request)
			},
			put: func(data []tango.DbDatum) error {
				return proxy.PutDeviceProperty(ctx, data)
			},
			remove: func(names []string) error {
				return proxy.DeleteDeviceProperty(ctx, names...)
			},
		})
	})
}

type propertyAccess struct {
	get    func([]tango.DbDatum) ([]tango.DbDatum, error)
	put    func([]tango.DbDatum) error
	remove func([]string) error
}

type propertyOutput struct {
	Name          string       `json:"name"`
	Value         *valueOutput `json:"value,omitempty"`
	Strings       []string     `json:"strings,omitempty"`
	WrongDataType bool         `json:"wrong_data_type,omitempty"`
}

func propertyCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "property",
		Summary: "Get, put and delete properties",
		Description: `Manage the properties of a device, or with --free, of a free
database object.

Properties are stored as lists of strings. "get" converts them to the
type given with --type; without it the stored strings are returned.
A property that does not exist is shown as <empty>, and one that does
not convert as <wrong data type>.`,
		Subcommands: []*cli.Command{
			propertyGetCommand(stdout),
			propertyPutCommand(stdout),
			propertyDeleteCommand(),
		},
	}
}

type propertyGetParams struct {
	propertyParams
	cli.JSONOutput
	Type string `json:"type" flag:"type,t" desc:"convert the values to this type, e.g. DevDouble"`
}

func propertyGetCommand(stdout io.Writer) *cli.Command {
	var params propertyGetParams
	return &cli.Command{
		Name:    "get",
		Summary: "Read properties",
		Usage:   "tango property get <object> <name>... [flags]",
		Params:  func() any { return &params },
		Examples: []cli.Example{
			{Command: "tango property get --type DevVarLongArray sys/tg_test/1 limits"},
			{Command: "tango property get --free Beamline energy"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: tango property get <object> <name>...")
			}
			kind := tango.KindVoid
			if params.Type != "" {
				var err error
				if kind, err = tango.ParseKind(params.Type); err != nil {
					return err
				}
			}
			object, names := args[0], args[1:]
			request := make([]tango.DbDatum, len(names))
			for index, name := range names {
				request[index] = tango.RequestDbDatum(name, kind)
			}
			return params.properties(ctx, "property/get", object, func(access propertyAccess) error {
				result, err := access.get(request)
				if err != nil {
					return err
				}
				if params.OutputJSON {
					entries := make([]propertyOutput, len(result))
					for index, datum := range result {
						entries[index] = propertyOutput{Name: datum.Name, WrongDataType: datum.WrongDataType}
						if !datum.IsEmpty() {
							value := newValueOutput(datum.Data)
							entries[index].Value = &value
							entries[index].Strings = tango.FormatPropertyStrings(datum.Data)
						}
					}
					_, err := params.EmitJSON(stdout, entries)
					return err
				}
				for _, datum := range result {
					if _, err := fmt.Fprintln(stdout, tango.FormatDbDatum(datum)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

type propertyPutParams struct {
	propertyParams
	Type string `json:"type" flag:"type,t" desc:"value type (default DevString for one value, DevVarStringArray for several)"`
}

func propertyPutCommand(stdout io.Writer) *cli.Command {
	var params propertyPutParams
	return &cli.Command{
		Name:    "put",
		Summary: "Write a property",
		Usage:   "tango property put <object> <name> <value>... [flags]",
		Params:  func() any { return &params },
		Examples: []cli.Example{
			{Command: "tango property put --type DevVarLongArray sys/tg_test/1 limits -- -10 10"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 3 {
				return fmt.Errorf("usage: tango property put <object> <name> <value>...")
			}
			object, name, texts := args[0], args[1], args[2:]
			kind := tango.KindString
			if len(texts) > 1 {
				kind = tango.KindStringArray
			}
			if params.Type != "" {
				var err error
				if kind, err = tango.ParseKind(params.Type); err != nil {
					return err
				}
			}
			value, err := tango.ParsePropertyValue(kind, texts)
			if err != nil {
				return fmt.Errorf("%s value: %w", name, err)
			}
			return params.properties(ctx, "property/put", object, func(access propertyAccess) error {
				if err := access.put([]tango.DbDatum{tango.NewDbDatum(name, value)}); err != nil {
					return err
				}
				_, err := fmt.Fprintln(stdout, tango.FormatDbDatum(tango.NewDbDatum(name, value)))
				return err
			})
		},
	}
}

func propertyDeleteCommand() *cli.Command {
	var params propertyParams
	return &cli.Command{
		Name:    "delete",
		Summary: "Delete properties",
		Usage:   "tango property delete <object> <name>... [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: tango property delete <object> <name>...")
			}
			return params.properties(ctx, "property/delete", args[0], func(access propertyAccess) error {
				return access.remove(args[1:])
			})
		},
	}
}
