// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !ctango

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/tango/lib/config"
)

func TestNativeLibraryUnavailable(t *testing.T) {
	t.Setenv(config.EnvironmentVariable, "")
	path := filepath.Join(t.TempDir(), "native.yaml")
	if err := os.WriteFile(path, []byte("library: native\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "info", "--config", path, "sys/tg_test/1"); err == nil || !strings.Contains(err.Error(), "ctango") {
		t.Errorf("got %v, want the ctango build requirement", err)
	}
}
