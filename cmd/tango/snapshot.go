// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/bureau-foundation/tango/cmd/tango/cli"
	"github.com/bureau-foundation/tango/lib/snapshot"
	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
)

func snapshotCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Summary: "Record and inspect attribute snapshots",
		Description: `Record attribute readings into a snapshot file, and print the
readings of one.

A snapshot is a sequence of CBOR records in lz4 or zstd compressed
blocks, closed by a BLAKE3 digest of the records. Reading a snapshot
verifies the digest.`,
		Subcommands: []*cli.Command{
			snapshotRecordCommand(stdout),
			snapshotShowCommand(stdout),
		},
	}
}

type snapshotRecordParams struct {
	connectionParams
	cli.JSONOutput
	Output      string `json:"output" flag:"output,o" desc:"snapshot file to create"`
	Count       int    `json:"count" flag:"count,n" desc:"stop after this many polls (0 polls until interrupted)"`
	Interval    string `json:"interval" flag:"interval" desc:"poll interval (default from the configuration)"`
	Compression string `json:"compression" flag:"compression" desc:"none, lz4 or zstd (default from the configuration)"`
}

type recordOutput struct {
	Output   string `json:"output"`
	Readings int    `json:"readings"`
	Polls    int    `json:"polls"`
	Failed   int    `json:"failed"`
	Digest   string `json:"digest"`
}

func snapshotRecordCommand(stdout io.Writer) *cli.Command {
	var params snapshotRecordParams
	return &cli.Command{
		Name:    "record",
		Summary: "Poll attributes into a snapshot file",
		Usage:   "tango snapshot record --output <file> <device> <attribute>... [flags]",
		Params:  func() any { return &params },
		Examples: []cli.Example{
			{
				Description: "Poll two attributes every 100ms until interrupted",
				Command:     "tango snapshot record -o run.tgsnap --interval 100ms sys/tg_test/1 double_scalar long_spectrum",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: tango snapshot record --output <file> <device> <attribute>...")
			}
			if params.Output == "" {
				return fmt.Errorf("--output is required")
			}
			device, names := args[0], args[1:]
			return params.withDevice(ctx, "snapshot/record", device, func(env *environment, proxy *client.DeviceProxy) error {
				return recordSnapshot(ctx, stdout, &params, env, proxy, names)
			})
		},
	}
}

func recordSnapshot(ctx context.Context, stdout io.Writer, params *snapshotRecordParams, env *environment, proxy *client.DeviceProxy, names []string) error {
	interval := env.config.SnapshotInterval()
	if params.Interval != "" {
		parsed, err := parseDuration("--interval", params.Interval)
		if err != nil {
			return err
		}
		interval = parsed
	}
	compressionName := env.config.Snapshot.Compression
	if params.Compression != "" {
		compressionName = params.Compression
	}
	compression, err := snapshot.ParseCompression(compressionName)
	if err != nil {
		return err
	}

	file, err := os.Create(params.Output)
	if err != nil {
		return err
	}
	defer file.Close()

	writer, err := snapshot.NewWriter(file, compression)
	if err != nil {
		return err
	}
	recorder, err := snapshot.NewRecorder(snapshot.RecorderConfig{
		Device:     proxy,
		Attributes: names,
		Interval:   interval,
		Count:      params.Count,
		Writer:     writer,
		Clock:      env.clock,
		Logger:     env.logger,
	})
	if err != nil {
		return err
	}

	env.logger.Info("recording snapshot",
		"device", proxy.Name(),
		"attributes", names,
		"interval", interval,
		"compression", compression,
		"output", params.Output,
	)
	runErr := recorder.Run(ctx)
	// The trailer is written even after a failure so the readings so
	// far stay verifiable.
	digest, err := writer.Close()
	if runErr != nil {
		return runErr
	}
	if err != nil {
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	polls, failed := recorder.Polls()
	result := recordOutput{
		Output:   params.Output,
		Readings: writer.Count(),
		Polls:    polls,
		Failed:   failed,
		Digest:   digest.String(),
	}
	if done, err := params.EmitJSON(stdout, result); done {
		return err
	}
	_, err = fmt.Fprintf(stdout, "%s: %d readings from %d polls (%d failed), blake3:%s\n",
		result.Output, result.Readings, result.Polls, result.Failed, result.Digest)
	return err
}

type snapshotShowParams struct {
	cli.JSONOutput
}

type readingOutput struct {
	Device string `json:"device"`
	attributeOutput
}

func snapshotShowCommand(stdout io.Writer) *cli.Command {
	var params snapshotShowParams
	return &cli.Command{
		Name:    "show",
		Summary: "Print the readings of a snapshot file",
		Usage:   "tango snapshot show <file> [flags]",
		Params:  func() any { return &params },
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: tango snapshot show <file>")
			}
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			readings, digest, err := snapshot.ReadAll(file)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if params.OutputJSON {
				entries := make([]readingOutput, len(readings))
				for index, reading := range readings {
					entries[index] = readingOutput{Device: reading.Device, attributeOutput: newAttributeOutput(reading.Data)}
				}
				_, err := params.EmitJSON(stdout, entries)
				return err
			}
			for _, reading := range readings {
				if _, err := fmt.Fprintf(stdout, "%s/%s\n", reading.Device, tango.FormatAttribute(reading.Data)); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(stdout, "%d readings, blake3:%s\n", len(readings), digest)
			return err
		},
	}
}
