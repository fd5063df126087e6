// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/tango/lib/clock"
	"github.com/bureau-foundation/tango/lib/tango"
)

// AttributeReader reads several attributes of one device in a single
// call. *client.DeviceProxy implements it.
type AttributeReader interface {
	Name() string
	ReadAttributes(ctx context.Context, names ...string) ([]tango.AttributeData, error)
}

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	// Device is polled for Attributes every Interval.
	Device     AttributeReader
	Attributes []string
	Interval   time.Duration

	// Count stops the recorder after that many polls. Zero polls
	// until the context is cancelled.
	Count int

	Writer *Writer
	Clock  clock.Clock
	Logger *slog.Logger
}

// Recorder polls a device and writes every reading to a snapshot.
type Recorder struct {
	config RecorderConfig
	polls  int
	failed int
}

// NewRecorder validates config and fills in its defaults.
func NewRecorder(config RecorderConfig) (*Recorder, error) {
	if config.Device == nil {
		return nil, errors.New("snapshot: recorder has no device")
	}
	if len(config.Attributes) == 0 {
		return nil, errors.New("snapshot: recorder has no attributes")
	}
	if config.Interval <= 0 {
		return nil, fmt.Errorf("snapshot: recorder interval %v is not positive", config.Interval)
	}
	if config.Writer == nil {
		return nil, errors.New("snapshot: recorder has no writer")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{config: config}, nil
}

// Run polls once immediately and then on every tick, until Count
// polls have been made or ctx is done. A failed read is logged and
// skipped; a failed write ends the run. Run returns nil when it stops
// because of Count or ctx.
func (recorder *Recorder) Run(ctx context.Context) error {
	config := recorder.config
	ticker := config.Clock.NewTicker(config.Interval)
	defer ticker.Stop()

	for {
		if err := recorder.poll(ctx); err != nil {
			return err
		}
		if config.Count > 0 && recorder.polls >= config.Count {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Polls returns how many polls have run and how many of them failed
// to read.
func (recorder *Recorder) Polls() (total, failed int) {
	return recorder.polls, recorder.failed
}

func (recorder *Recorder) poll(ctx context.Context) error {
	config := recorder.config
	recorder.polls++
	readings, err := config.Device.ReadAttributes(ctx, config.Attributes...)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		recorder.failed++
		config.Logger.Warn("snapshot poll failed",
			"device", config.Device.Name(),
			"poll", recorder.polls,
			"error", err,
		)
		return nil
	}
	for _, data := range readings {
		if err := config.Writer.Write(Reading{Device: config.Device.Name(), Data: data}); err != nil {
			return err
		}
	}
	config.Logger.Debug("snapshot poll",
		"device", config.Device.Name(),
		"poll", recorder.polls,
		"readings", len(readings),
	)
	return nil
}
