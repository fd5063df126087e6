// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !ctango

package main

import (
	"errors"
	"log/slog"

	"github.com/bureau-foundation/tango/lib/config"
	"github.com/bureau-foundation/tango/lib/tango/client"
)

func openNative(*config.Config, *slog.Logger) (client.Library, func() error, error) {
	return nil, nil, errors.New("library: native requires a build with -tags ctango")
}
