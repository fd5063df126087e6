// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only on Advance. It is safe
// for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	changed *sync.Cond
	now     time.Time
	waiters []*waiter
}

// waiter is a pending After or ticker registration.
type waiter struct {
	deadline time.Time
	channel  chan time.Time

	// period is non-zero for tickers, which are rescheduled after
	// each tick.
	period  time.Duration
	stopped bool
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	fake := &FakeClock{now: initial}
	fake.changed = sync.NewCond(&fake.mu)
	return fake
}

func (fake *FakeClock) Now() time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.now
}

func (fake *FakeClock) After(d time.Duration) <-chan time.Time {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- fake.now
		return channel
	}
	fake.register(&waiter{deadline: fake.now.Add(d), channel: channel})
	return channel
}

func (fake *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker period")
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	entry := &waiter{deadline: fake.now.Add(d), channel: make(chan time.Time, 1), period: d}
	fake.register(entry)
	return &Ticker{
		C: entry.channel,
		stop: func() {
			fake.mu.Lock()
			defer fake.mu.Unlock()
			entry.stopped = true
			fake.changed.Broadcast()
		},
	}
}

// register adds a waiter. The caller holds mu.
func (fake *FakeClock) register(entry *waiter) {
	fake.waiters = append(fake.waiters, entry)
	fake.changed.Broadcast()
}

// Advance moves the clock forward by d, delivering every deadline that
// falls within it in deadline order. A ticker spanning several periods
// fires once per period, and ticks that find its channel full are
// dropped.
func (fake *FakeClock) Advance(d time.Duration) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	target := fake.now.Add(d)
	for {
		next := fake.earliest(target)
		if next == nil {
			break
		}
		fake.now = next.deadline
		select {
		case next.channel <- next.deadline:
		default:
		}
		if next.period > 0 {
			next.deadline = next.deadline.Add(next.period)
		} else {
			next.stopped = true
		}
	}
	fake.now = target
	fake.waiters = slices.DeleteFunc(fake.waiters, func(entry *waiter) bool { return entry.stopped })
	fake.changed.Broadcast()
}

// earliest returns the live waiter with the earliest deadline not
// after target, or nil. The caller holds mu.
func (fake *FakeClock) earliest(target time.Time) *waiter {
	var found *waiter
	for _, entry := range fake.waiters {
		if entry.stopped || entry.deadline.After(target) {
			continue
		}
		if found == nil || entry.deadline.Before(found.deadline) {
			found = entry
		}
	}
	return found
}

// WaitForWaiters blocks until at least n After calls or tickers are
// pending. Tests call it before Advance so that a goroutine's
// registration cannot race the advance.
func (fake *FakeClock) WaitForWaiters(n int) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	for fake.pending() < n {
		fake.changed.Wait()
	}
}

// Pending returns the number of live waiters.
func (fake *FakeClock) Pending() int {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	return fake.pending()
}

func (fake *FakeClock) pending() int {
	count := 0
	for _, entry := range fake.waiters {
		if !entry.stopped {
			count++
		}
	}
	return count
}
