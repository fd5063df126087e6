// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build ctango

package main

import (
	"log/slog"

	"github.com/bureau-foundation/tango/lib/config"
	"github.com/bureau-foundation/tango/lib/tango/client"
	"github.com/bureau-foundation/tango/lib/tango/ctango"
)

func openNative(cfg *config.Config, logger *slog.Logger) (client.Library, func() error, error) {
	library, err := ctango.Open(ctango.Config{HeapSize: cfg.HeapSize, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	return library, library.Close, nil
}
