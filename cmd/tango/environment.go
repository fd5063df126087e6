// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/tango/cmd/tango/cli"
	"github.com/bureau-foundation/tango/lib/clock"
	"github.com/bureau-foundation/tango/lib/config"
	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
	"github.com/bureau-foundation/tango/lib/tango/tangotest"
)

// connectionParams are the flags every command that talks to a
// control library accepts.
type connectionParams struct {
	Config  string `json:"-" flag:"config" desc:"configuration file (default $TANGO_CLIENT_CONFIG)"`
	Verbose bool   `json:"-" flag:"verbose,v" desc:"log every foreign call"`
}

// environment is an opened control library and the configuration it
// was opened with.
type environment struct {
	config  *config.Config
	logger  *slog.Logger
	clock   clock.Clock
	library client.Library
	closers []func() error
}

// open resolves the configuration and opens the library it selects.
func (params *connectionParams) open(ctx context.Context, command string) (*environment, error) {
	cfg, err := config.Resolve(params.Config)
	if err != nil {
		return nil, err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if params.Verbose {
		level = slog.LevelDebug
	}

	env := &environment{
		config: cfg,
		logger: cli.NewCommandLogger(level).With("command", command),
		clock:  clock.Real(),
	}
	switch cfg.Library {
	case config.LibrarySimulated:
		err = env.openSimulated(ctx)
	case config.LibraryNative:
		var closeNative func() error
		env.library, closeNative, err = openNative(cfg, env.logger)
		if err == nil {
			env.closers = append(env.closers, closeNative)
		}
	default:
		err = fmt.Errorf("unknown library %q", cfg.Library)
	}
	if err != nil {
		env.Close()
		return nil, err
	}
	env.logger.Debug("library opened", "library", cfg.Library)
	return env, nil
}

func (env *environment) openSimulated(ctx context.Context) error {
	cfg := env.config
	options := []tangotest.Option{
		tangotest.WithLogger(env.logger),
		tangotest.WithClock(env.clock),
	}
	if cfg.HeapSize > 0 {
		options = append(options, tangotest.WithHeapSize(cfg.HeapSize))
	}
	if cfg.Database != "" {
		store, err := tangotest.OpenSQLiteStore(cfg.Database, env.logger)
		if err != nil {
			return err
		}
		env.closers = append(env.closers, store.Close)
		options = append(options, tangotest.WithStore(store))
	}

	library, err := tangotest.New(options...)
	if err != nil {
		return err
	}
	env.closers = append(env.closers, library.Close)
	env.library = library

	if cfg.Fixtures != "" {
		fixtures, err := tangotest.LoadFixtures(cfg.Fixtures)
		if err != nil {
			return err
		}
		if err := library.Load(ctx, fixtures); err != nil {
			return fmt.Errorf("loading %s: %w", cfg.Fixtures, err)
		}
	}
	return nil
}

// Close releases the library and everything opened with it, newest
// first.
func (env *environment) Close() error {
	var errs []error
	for index := len(env.closers) - 1; index >= 0; index-- {
		if err := env.closers[index](); err != nil {
			errs = append(errs, err)
		}
	}
	env.closers = nil
	return errors.Join(errs...)
}

// dial opens a device and applies the configured timeout and source.
func (env *environment) dial(ctx context.Context, address string) (*client.DeviceProxy, error) {
	proxy, err := client.Dial(ctx, env.library, address, client.WithLogger(env.logger))
	if err != nil {
		return nil, err
	}
	if timeout := env.config.TimeoutDuration(); timeout > 0 {
		if err := proxy.SetTimeout(ctx, timeout); err != nil {
			proxy.Close()
			return nil, err
		}
	}
	source, err := tango.ParseDevSource(env.config.Source)
	if err == nil {
		err = proxy.SetSource(ctx, source)
	}
	if err != nil {
		proxy.Close()
		return nil, err
	}
	return proxy, nil
}

func (env *environment) database(ctx context.Context) (*client.DatabaseProxy, error) {
	return client.OpenDatabase(ctx, env.library, client.WithLogger(env.logger))
}

// withDevice opens the environment and a device, runs fn, and closes
// both.
func (params *connectionParams) withDevice(ctx context.Context, command, address string, fn func(*environment, *client.DeviceProxy) error) error {
	env, err := params.open(ctx, command)
	if err != nil {
		return err
	}
	defer env.Close()
	proxy, err := env.dial(ctx, address)
	if err != nil {
		return err
	}
	defer proxy.Close()
	return fn(env, proxy)
}

// withDatabase opens the environment and the database, runs fn, and
// closes both.
func (params *connectionParams) withDatabase(ctx context.Context, command string, fn func(*environment, *client.DatabaseProxy) error) error {
	env, err := params.open(ctx, command)
	if err != nil {
		return err
	}
	defer env.Close()
	database, err := env.database(ctx)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(env, database)
}
