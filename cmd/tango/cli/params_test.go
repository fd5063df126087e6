// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlags_BasicTypes(t *testing.T) {
	type params struct {
		Device   string        `flag:"device" desc:"device name"`
		Verbose  bool          `flag:"verbose,v" desc:"enable verbose output"`
		Count    int           `flag:"count" desc:"number of polls"`
		HeapSize int64         `flag:"heap-size" desc:"heap size"`
		Rate     float64       `flag:"rate" desc:"sampling rate"`
		Interval time.Duration `flag:"interval" desc:"poll interval"`
		Names    []string      `flag:"names" desc:"attribute names"`
		Untagged string
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}

	err := flagSet.Parse([]string{
		"--device", "sys/tg_test/1",
		"-v",
		"--count", "42",
		"--heap-size", "1099511627776",
		"--rate", "0.95",
		"--interval", "250ms",
		"--names", "a,b,c",
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Device != "sys/tg_test/1" {
		t.Errorf("Device = %q, want sys/tg_test/1", p.Device)
	}
	if !p.Verbose {
		t.Error("Verbose = false, want true")
	}
	if p.Count != 42 || p.HeapSize != 1099511627776 || p.Rate != 0.95 {
		t.Errorf("got count %d heap %d rate %f", p.Count, p.HeapSize, p.Rate)
	}
	if p.Interval != 250*time.Millisecond {
		t.Errorf("Interval = %v, want 250ms", p.Interval)
	}
	if len(p.Names) != 3 || p.Names[2] != "c" {
		t.Errorf("Names = %v, want [a b c]", p.Names)
	}
	if flagSet.Lookup("untagged") != nil {
		t.Error("untagged field bound as a flag")
	}
}

func TestBindFlags_Defaults(t *testing.T) {
	type params struct {
		Source   string        `flag:"source" default:"CACHE_DEV"`
		Count    int           `flag:"count" default:"10"`
		Heap     int64         `flag:"heap" default:"4096"`
		Rate     float64       `flag:"rate" default:"0.5"`
		Interval time.Duration `flag:"interval" default:"1s"`
		Debug    bool          `flag:"debug" default:"true"`
		Names    []string      `flag:"names" default:"x,y"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if p.Source != "CACHE_DEV" || p.Count != 10 || p.Heap != 4096 || p.Rate != 0.5 {
		t.Errorf("got %+v", p)
	}
	if p.Interval != time.Second || !p.Debug {
		t.Errorf("interval %v debug %v, want 1s and true", p.Interval, p.Debug)
	}
	if len(p.Names) != 2 || p.Names[0] != "x" {
		t.Errorf("Names = %v, want [x y]", p.Names)
	}
}

func TestBindFlags_Embedded(t *testing.T) {
	type common struct {
		Config string `flag:"config" desc:"configuration file"`
	}
	type params struct {
		common
		JSONOutput
		Type string `flag:"type"`
	}

	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--config", "tango.yaml", "--json", "--type", "DevDouble"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Config != "tango.yaml" || !p.OutputJSON || p.Type != "DevDouble" {
		t.Errorf("got %+v", p)
	}
}

type levelBinder struct {
	level string
}

func (binder *levelBinder) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&binder.level, "level", "info", "log level")
}

func TestBindFlags_FlagBinder(t *testing.T) {
	type params struct {
		Logging levelBinder
	}
	var p params
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if err := BindFlags(&p, flagSet); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	if err := flagSet.Parse([]string{"--level", "debug"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Logging.level != "debug" {
		t.Errorf("level = %q, want debug", p.Logging.level)
	}
}

func TestBindFlags_Errors(t *testing.T) {
	tests := []struct {
		name   string
		params any
		want   string
	}{
		{"not a pointer", struct{}{}, "pointer to a struct"},
		{"unsupported type", &struct {
			Ratio float32 `flag:"ratio"`
		}{}, "unsupported type"},
		{"bad default", &struct {
			Count int `flag:"count" default:"many"`
		}{}, "default for --count"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := BindFlags(test.params, pflag.NewFlagSet("test", pflag.ContinueOnError))
			if err == nil || !strings.Contains(err.Error(), test.want) {
				t.Errorf("got %v, want an error mentioning %q", err, test.want)
			}
		})
	}
}

func TestFlagsFromParams_PanicsOnInvalid(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FlagsFromParams did not panic")
		}
	}()
	FlagsFromParams("test", 42)
}

func TestJSONOutput(t *testing.T) {
	var output JSONOutput
	var buffer bytes.Buffer
	if done, err := output.EmitJSON(&buffer, []string{"a"}); done || err != nil {
		t.Errorf("without --json: got done=%v err=%v, want false, nil", done, err)
	}

	output.OutputJSON = true
	var empty []string
	if done, err := output.EmitJSON(&buffer, empty); !done || err != nil {
		t.Fatalf("with --json: got done=%v err=%v", done, err)
	}
	var decoded []string
	if err := json.Unmarshal(buffer.Bytes(), &decoded); err != nil || decoded == nil {
		t.Errorf("nil slice: got %q, want []", buffer.String())
	}
}

func TestNewLogger(t *testing.T) {
	var buffer bytes.Buffer
	logger := newLogger(&buffer, false, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("read", "device", "sys/tg_test/1")
	var record map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
		t.Fatalf("piped output is not one JSON record: %q", buffer.String())
	}
	if record["device"] != "sys/tg_test/1" {
		t.Errorf("device = %v, want sys/tg_test/1", record["device"])
	}

	buffer.Reset()
	newLogger(&buffer, true, slog.LevelDebug).Debug("shown")
	if !strings.Contains(buffer.String(), "msg=shown") {
		t.Errorf("terminal output = %q, want text format", buffer.String())
	}
}
