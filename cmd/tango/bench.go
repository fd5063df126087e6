// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bureau-foundation/tango/cmd/tango/cli"
	"github.com/bureau-foundation/tango/lib/clock"
	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
)

type benchParams struct {
	connectionParams
	cli.JSONOutput
	Device   string `json:"device" flag:"device" desc:"device to call" default:"test/benchmark/echo"`
	Command  string `json:"command" flag:"command" desc:"command to call" default:"Echo"`
	Type     string `json:"type" flag:"type,t" desc:"argument type (default: queried from the device)"`
	Calls    int    `json:"calls" flag:"calls,n" desc:"stop after this many calls (0 runs for --duration)"`
	Duration string `json:"duration" flag:"duration" desc:"how long to run when --calls is 0" default:"1s"`
}

type benchOutput struct {
	Device      string  `json:"device"`
	Command     string  `json:"command"`
	Calls       int     `json:"calls"`
	Elapsed     string  `json:"elapsed"`
	CallsPerSec float64 `json:"calls_per_second"`
}

func benchCommand(stdout io.Writer) *cli.Command {
	var params benchParams
	return &cli.Command{
		Name:    "bench",
		Summary: "Measure command round trips per second",
		Description: `Call a command in a loop and report the call rate. Each call encodes
the argument, crosses the library boundary, decodes the result and
releases both records. The remaining words are the argument; the
default is the string "ping".`,
		Usage:  "tango bench [argument...] [flags]",
		Params: func() any { return &params },
		Examples: []cli.Example{
			{Command: "tango bench --calls 100000"},
			{Command: "tango bench --device sys/tg_test/1 --command DevVarDoubleArray --duration 5s 1 2 3 4"},
		},
		Run: func(ctx context.Context, args []string) error {
			duration, err := parseDuration("--duration", params.Duration)
			if err != nil {
				return err
			}
			if params.Calls < 0 {
				return fmt.Errorf("--calls must not be negative")
			}
			return params.withDevice(ctx, "bench", params.Device, func(env *environment, proxy *client.DeviceProxy) error {
				kind, err := commandInputKind(ctx, proxy, params.Command, params.Type)
				if err != nil {
					return err
				}
				words := args
				if len(words) == 0 && kind != tango.KindVoid {
					words = []string{"ping"}
				}
				argin, err := tango.ParseCommandValue(kind, words)
				if err != nil {
					return fmt.Errorf("%s argument: %w", params.Command, err)
				}

				calls, elapsed, err := runBench(ctx, env.clock, proxy, params.Command, argin, params.Calls, duration)
				if err != nil {
					return err
				}
				result := benchOutput{
					Device:      proxy.Name(),
					Command:     params.Command,
					Calls:       calls,
					Elapsed:     elapsed.String(),
					CallsPerSec: rate(calls, elapsed),
				}
				if done, err := params.EmitJSON(stdout, result); done {
					return err
				}
				_, err = fmt.Fprintf(stdout, "%s %s: %d calls in %s, %.0f calls/s\n",
					result.Device, result.Command, result.Calls, result.Elapsed, result.CallsPerSec)
				return err
			})
		},
	}
}

// runBench calls command until calls calls have been made, or when
// calls is zero until duration has passed.
func runBench(ctx context.Context, c clock.Clock, proxy *client.DeviceProxy, command string, argin tango.CommandValue, calls int, duration time.Duration) (int, time.Duration, error) {
	start := c.Now()
	made := 0
	for {
		if calls > 0 && made >= calls {
			break
		}
		if calls == 0 && clock.Since(c, start) >= duration {
			break
		}
		if _, err := proxy.CommandInout(ctx, command, argin); err != nil {
			return made, clock.Since(c, start), err
		}
		made++
	}
	return made, clock.Since(c, start), nil
}

func rate(calls int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(calls) / elapsed.Seconds()
}

func parseDuration(flag, text string) (time.Duration, error) {
	duration, err := time.ParseDuration(text)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", flag, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", flag, text)
	}
	return duration, nil
}
