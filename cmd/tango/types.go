// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bureau-foundation/tango/cmd/tango/cli"
	"github.com/bureau-foundation/tango/lib/tango/marshal"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

type typesParams struct {
	cli.JSONOutput
}

type typeEntry struct {
	Code        uint32 `json:"code"`
	Tag         string `json:"tag"`
	Kind        string `json:"kind"`
	Array       bool   `json:"array"`
	ElementSize uint64 `json:"element_size,omitempty"`
}

func typesCommand(stdout io.Writer) *cli.Command {
	var params typesParams
	return &cli.Command{
		Name:    "types",
		Summary: "List the type tag registry",
		Description: `List every foreign type code with the kind it decodes to.

The element size is the width of one sequence element in the foreign
record, for tags that have one.`,
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("types takes no arguments")
			}
			mappings := marshal.Mappings()
			entries := make([]typeEntry, len(mappings))
			for index, mapping := range mappings {
				entries[index] = typeEntry{
					Code:        uint32(mapping.Tag),
					Tag:         mapping.Tag.String(),
					Kind:        mapping.Kind.String(),
					Array:       mapping.Kind.IsArray(),
					ElementSize: wire.ElementSize(mapping.Tag),
				}
			}
			if done, err := params.EmitJSON(stdout, entries); done {
				return err
			}

			writer := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "CODE\tTAG\tKIND\tELEMENT")
			for _, entry := range entries {
				element := "-"
				if entry.ElementSize > 0 {
					element = fmt.Sprintf("%d", entry.ElementSize)
				}
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n", entry.Code, entry.Tag, entry.Kind, element)
			}
			return writer.Flush()
		},
	}
}
