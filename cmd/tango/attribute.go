// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/bureau-foundation/tango/cmd/tango/cli"
	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
)

// attributeOutput is the JSON form of a reading.
type attributeOutput struct {
	Name    string       `json:"name"`
	Value   valueOutput  `json:"value"`
	Written *valueOutput `json:"written,omitempty"`
	Format  string       `json:"format"`
	Quality string       `json:"quality"`
	DimX    int          `json:"dim_x"`
	DimY    int          `json:"dim_y"`
	Time    time.Time    `json:"time"`
}

func newAttributeOutput(data tango.AttributeData) attributeOutput {
	output := attributeOutput{
		Name:    data.Name,
		Value:   newValueOutput(data.Data),
		Format:  data.Format.String(),
		Quality: data.Quality.String(),
		DimX:    data.DimX,
		DimY:    data.DimY,
		Time:    data.TimeStamp,
	}
	if data.WrittenData != nil {
		written := newValueOutput(data.WrittenData)
		output.Written = &written
	}
	return output
}

type readParams struct {
	connectionParams
	cli.JSONOutput
}

func readCommand(stdout io.Writer) *cli.Command {
	var params readParams
	return &cli.Command{
		Name:    "read",
		Summary: "Read device attributes",
		Description: `Read one or more attributes of a device.

Every attribute is read with its set point. Several attributes are
read in one call. The exit code is
2 when every read succeeded but some attribute has INVALID quality.`,
		Usage:  "tango read <device> <attribute>... [flags]",
		Params: func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: tango read <device> <attribute>...")
			}
			device, names := args[0], args[1:]
			return params.withDevice(ctx, "read", device, func(_ *environment, proxy *client.DeviceProxy) error {
				var readings []tango.AttributeData
				if len(names) == 1 {
					data, err := proxy.ReadAttribute(ctx, names[0])
					if err != nil {
						return err
					}
					readings = []tango.AttributeData{data}
				} else {
					var err error
					if readings, err = proxy.ReadAttributes(ctx, names...); err != nil {
						return err
					}
				}

				if err := printReadings(stdout, &params.JSONOutput, readings); err != nil {
					return err
				}
				for _, data := range readings {
					if data.Quality == tango.QualityInvalid {
						return &cli.ExitError{Code: 2}
					}
				}
				return nil
			})
		},
	}
}

func printReadings(stdout io.Writer, output *cli.JSONOutput, readings []tango.AttributeData) error {
	if output.OutputJSON {
		entries := make([]attributeOutput, len(readings))
		for index, data := range readings {
			entries[index] = newAttributeOutput(data)
		}
		_, err := output.EmitJSON(stdout, entries)
		return err
	}
	for _, data := range readings {
		if _, err := fmt.Fprintln(stdout, tango.FormatAttribute(data)); err != nil {
			return err
		}
	}
	return nil
}

type writeParams struct {
	connectionParams
}

func writeCommand(stdout io.Writer) *cli.Command {
	var params writeParams
	return &cli.Command{
		Name:    "write",
		Summary: "Write a device attribute",
		Description: `Write an attribute. The value is built from the remaining words
according to the attribute's configured type and format: one word for
a scalar, one per element for a spectrum, a format and a data word
for DevEncoded. The attribute is read back after the write.`,
		Usage:  "tango write <device> <attribute> <value>... [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{Command: "tango write sys/tg_test/1 double_spectrum 1.5 2.5 3.5"},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 3 {
				return fmt.Errorf("usage: tango write <device> <attribute> <value>...")
			}
			device, name, words := args[0], args[1], args[2:]
			return params.withDevice(ctx, "write", device, func(env *environment, proxy *client.DeviceProxy) error {
				infos, err := proxy.AttributeConfig(ctx, name)
				if err != nil {
					return err
				}
				if len(infos) != 1 {
					return fmt.Errorf("attribute config of %s: got %d entries", name, len(infos))
				}
				info := infos[0]
				if !info.Writable.Writable() {
					return fmt.Errorf("attribute %s is %s", name, info.Writable)
				}
				value, err := tango.ParseAttrValue(info.DataType, info.DataFormat != tango.Scalar, words)
				if err != nil {
					return fmt.Errorf("%s value: %w", name, err)
				}
				if err := proxy.WriteAttribute(ctx, tango.SimpleAttribute(name, value, env.clock.Now())); err != nil {
					return err
				}
				env.logger.Debug("attribute written", "device", proxy.Name(), "attribute", name)

				data, err := proxy.ReadAttribute(ctx, name)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(stdout, tango.FormatAttribute(data))
				return err
			})
		},
	}
}

type attributesParams struct {
	connectionParams
	cli.JSONOutput
}

type attributeEntry struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Format   string `json:"format"`
	Writable string `json:"writable"`
	Unit     string `json:"unit,omitempty"`
	Label    string `json:"label,omitempty"`
}

func attributesCommand(stdout io.Writer) *cli.Command {
	var params attributesParams
	return &cli.Command{
		Name:    "attributes",
		Summary: "List a device's attributes",
		Usage:   "tango attributes <device> [flags]",
		Params:  func() any { return &params },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: tango attributes <device>")
			}
			return params.withDevice(ctx, "attributes", args[0], func(_ *environment, proxy *client.DeviceProxy) error {
				infos, err := proxy.AttributeListQuery(ctx)
				if err != nil {
					return err
				}
				entries := make([]attributeEntry, len(infos))
				for index, info := range infos {
					entries[index] = attributeEntry{
						Name:     info.Name,
						Type:     info.DataType.String(),
						Format:   info.DataFormat.String(),
						Writable: info.Writable.String(),
						Unit:     info.Unit,
						Label:    info.Label,
					}
				}
				if done, err := params.EmitJSON(stdout, entries); done {
					return err
				}
				writer := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
				fmt.Fprintln(writer, "NAME\tTYPE\tFORMAT\tWRITABLE\tUNIT")
				for _, entry := range entries {
					fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", entry.Name, entry.Type, entry.Format, entry.Writable, entry.Unit)
				}
				return writer.Flush()
			})
		},
	}
}
