// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable holding the config path when
// no --config flag is given.
const EnvironmentVariable = "TANGO_CLIENT_CONFIG"

const (
	// LibrarySimulated runs against the in-process simulated library.
	LibrarySimulated = "simulated"
	// LibraryNative runs against the c_tango C library. It needs a
	// binary built with the ctango tag.
	LibraryNative = "native"
)

// Config is the CLI configuration.
type Config struct {
	// Library selects the control library: simulated or native.
	Library string `yaml:"library"`

	// Fixtures is a JSONC file of extra simulated devices and
	// properties. Simulated library only.
	Fixtures string `yaml:"fixtures"`

	// Database is a SQLite file holding the simulated property
	// database. Empty keeps properties in memory for the run.
	Database string `yaml:"database"`

	// Timeout is the device call timeout set on every proxy, as a Go
	// duration. Default: 3s.
	Timeout string `yaml:"timeout"`

	// Source is the read source set on every proxy: DEV, CACHE or
	// CACHE_DEV. Default: CACHE_DEV.
	Source string `yaml:"source"`

	// HeapSize is the size in bytes of each proxy's argument heap.
	// Zero selects the library default.
	HeapSize int `yaml:"heap_size"`

	Snapshot SnapshotConfig `yaml:"snapshot"`
	Log      LogConfig      `yaml:"log"`
}

// SnapshotConfig holds the defaults of "tango snapshot record".
type SnapshotConfig struct {
	// Compression is none, lz4 or zstd. Default: lz4.
	Compression string `yaml:"compression"`

	// Interval is the polling period. Default: 1s.
	Interval string `yaml:"interval"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	// Level is debug, info, warn or error. Default: info.
	Level string `yaml:"level"`
}

var (
	libraries    = []string{LibrarySimulated, LibraryNative}
	sources      = []string{"DEV", "CACHE", "CACHE_DEV"}
	compressions = []string{"none", "lz4", "zstd"}
)

// Default returns the configuration used without a file. Loaded files
// are decoded on top of it, so omitted fields keep these values.
func Default() *Config {
	return &Config{
		Library: LibrarySimulated,
		Timeout: "3s",
		Source:  "CACHE_DEV",
		Snapshot: SnapshotConfig{
			Compression: "lz4",
			Interval:    "1s",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Resolve loads the file at path, or the file named by
// TANGO_CLIENT_CONFIG when path is empty. With neither, it returns
// Default().
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default(), expands variables and validates.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandVariables() {
	c.Fixtures = expandVars(c.Fixtures)
	c.Database = expandVars(c.Database)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(libraries, c.Library) {
		errs = append(errs, fmt.Errorf("library must be one of %v, got %q", libraries, c.Library))
	}
	if c.Fixtures != "" && c.Library != LibrarySimulated {
		errs = append(errs, fmt.Errorf("fixtures only apply to the %s library", LibrarySimulated))
	}
	if timeout, err := time.ParseDuration(c.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	} else if timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if !slices.Contains(sources, c.Source) {
		errs = append(errs, fmt.Errorf("source must be one of %v, got %q", sources, c.Source))
	}
	if c.HeapSize < 0 {
		errs = append(errs, fmt.Errorf("heap_size must not be negative, got %d", c.HeapSize))
	}
	if !slices.Contains(compressions, c.Snapshot.Compression) {
		errs = append(errs, fmt.Errorf("snapshot.compression must be one of %v, got %q", compressions, c.Snapshot.Compression))
	}
	if interval, err := time.ParseDuration(c.Snapshot.Interval); err != nil {
		errs = append(errs, fmt.Errorf("snapshot.interval: %w", err))
	} else if interval <= 0 {
		errs = append(errs, fmt.Errorf("snapshot.interval must be positive, got %s", c.Snapshot.Interval))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TimeoutDuration returns Timeout parsed. Call Validate first.
func (c *Config) TimeoutDuration() time.Duration {
	timeout, _ := time.ParseDuration(c.Timeout)
	return timeout
}

// SnapshotInterval returns Snapshot.Interval parsed. Call Validate
// first.
func (c *Config) SnapshotInterval() time.Duration {
	interval, _ := time.ParseDuration(c.Snapshot.Interval)
	return interval
}

// LogLevel returns Log.Level as a slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
