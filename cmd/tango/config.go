// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/tango/cmd/tango/cli"
	"github.com/bureau-foundation/tango/lib/config"
)

type configParams struct {
	Config string `json:"-" flag:"config" desc:"configuration file (default $TANGO_CLIENT_CONFIG)"`
}

func configCommand(stdout io.Writer) *cli.Command {
	var params configParams
	return &cli.Command{
		Name:    "config",
		Summary: "Print the resolved configuration",
		Description: `Print the configuration commands run with, after defaults are
applied and ${VAR:-default} references are expanded.

The file is the one named by --config, else the one named by the
` + config.EnvironmentVariable + ` environment variable. Without either the
defaults are used.`,
		Params: func() any { return &params },
		Run: func(_ context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("config takes no arguments")
			}
			cfg, err := config.Resolve(params.Config)
			if err != nil {
				return err
			}
			encoder := yaml.NewEncoder(stdout)
			encoder.SetIndent(2)
			if err := encoder.Encode(cfg); err != nil {
				return err
			}
			return encoder.Close()
		},
	}
}
