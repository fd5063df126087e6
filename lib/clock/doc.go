// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that stamps readings or waits between snapshots takes a Clock
// instead of calling the time package. Real() is the wall clock.
// Fake() is a clock that moves only when a test calls Advance:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go recorder.Run(ctx)
//	fake.WaitForWaiters(1)     // the recorder's ticker is registered
//	fake.Advance(time.Second) // deliver one tick
package clock
