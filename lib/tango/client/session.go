// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// ErrClosed is returned by calls on a proxy after Close.
var ErrClosed = errors.New("client: proxy closed")

// Option configures a DeviceProxy or DatabaseProxy.
type Option func(*session)

// WithLogger sets the logger for per-call debug messages and release
// warnings. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *session) {
		s.logger = logger
	}
}

// WithAllocator sets the allocator for argument records. The default
// is a private wire.Heap of wire.DefaultHeapSize bytes, unmapped when
// the proxy is closed. A caller-supplied allocator is not closed.
func WithAllocator(allocator wire.Allocator) Option {
	return func(s *session) {
		s.allocator = allocator
	}
}

// session is the state shared by both proxy kinds: the library, the
// handle it issued, the argument allocator, and the mutex that
// serializes calls on the connection.
type session struct {
	mu        sync.Mutex
	library   Library
	handle    Handle
	name      string
	allocator wire.Allocator
	ownedHeap *wire.Heap
	logger    *slog.Logger
	closed    bool
}

func newSession(library Library, name string, options []Option) (*session, error) {
	s := &session{library: library, name: name}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.allocator == nil {
		heap, err := wire.NewHeap(wire.DefaultHeapSize)
		if err != nil {
			return nil, fmt.Errorf("creating argument heap: %w", err)
		}
		s.allocator = heap
		s.ownedHeap = heap
	}
	return s, nil
}

// discard undoes newSession when opening the connection fails.
func (s *session) discard() {
	if s.ownedHeap != nil {
		s.ownedHeap.Close()
	}
}

// enter locks the session for one call, failing if ctx is done or the
// proxy is closed. The foreign call itself cannot be interrupted.
func (s *session) enter(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	return nil
}

func (s *session) leave() {
	s.mu.Unlock()
}

// close marks the session closed and runs closeHandle under the lock.
func (s *session) close(closeHandle func(Handle) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := closeHandle(s.handle)
	if s.ownedHeap != nil {
		err = errors.Join(err, s.ownedHeap.Close())
	}
	return err
}

// releaseLocal releases an argument record. The call has already
// happened, so a release failure is logged rather than returned.
func (s *session) releaseLocal(operation string, local *wire.Local) {
	if err := local.Release(); err != nil {
		s.logger.Warn("releasing argument record failed",
			"target", s.name,
			"operation", operation,
			"error", err,
		)
	}
}

// releaseResult releases a record the library returned that will not
// be decoded.
func (s *session) releaseResult(operation string, result *wire.Foreign) {
	if err := result.Release(); err != nil {
		s.logger.Warn("releasing unexpected result failed",
			"target", s.name,
			"operation", operation,
			"error", err,
		)
	}
}

// scalar runs a call with no tagged-union input or output.
func scalar[T any](ctx context.Context, s *session, operation string, call func(Handle) (T, error)) (T, error) {
	var zero T
	if err := s.enter(ctx); err != nil {
		return zero, err
	}
	defer s.leave()

	s.logger.Debug("tango call", "target", s.name, "operation", operation)
	value, err := call(s.handle)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", operation, s.name, err)
	}
	return value, nil
}

// exchange runs one tagged-union call: encode the argument (when
// encode is non-nil), call, release the argument whatever the call
// returned, then decode the result (when decode is non-nil).
func exchange[T any](
	ctx context.Context,
	s *session,
	operation string,
	attrs []any,
	encode func(wire.Allocator) (*wire.Local, error),
	call func(Handle, wire.View) (*wire.Foreign, error),
	decode func(*wire.Foreign) (T, error),
) (T, error) {
	var zero T
	if err := s.enter(ctx); err != nil {
		return zero, err
	}
	defer s.leave()

	var argument wire.View
	var local *wire.Local
	if encode != nil {
		var err error
		local, err = encode(s.allocator)
		if err != nil {
			return zero, fmt.Errorf("%s %s: %w", operation, s.name, err)
		}
		argument = local.View()
	}

	s.logger.Debug("tango call", append([]any{"target", s.name, "operation", operation}, attrs...)...)
	result, err := call(s.handle, argument)
	if local != nil {
		s.releaseLocal(operation, local)
	}
	if err != nil {
		if result != nil {
			s.releaseResult(operation, result)
		}
		return zero, fmt.Errorf("%s %s: %w", operation, s.name, err)
	}
	if decode == nil {
		if result != nil {
			s.releaseResult(operation, result)
		}
		return zero, nil
	}
	if result == nil {
		return zero, fmt.Errorf("%s %s: library returned no result", operation, s.name)
	}
	value, err := decode(result)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", operation, s.name, err)
	}
	return value, nil
}

// noResult adapts a library call without output to exchange.
func noResult(call func(Handle, wire.View) error) func(Handle, wire.View) (*wire.Foreign, error) {
	return func(handle Handle, argument wire.View) (*wire.Foreign, error) {
		return nil, call(handle, argument)
	}
}

// noArgument adapts a library call without tagged-union input.
func noArgument(call func(Handle) (*wire.Foreign, error)) func(Handle, wire.View) (*wire.Foreign, error) {
	return func(handle Handle, _ wire.View) (*wire.Foreign, error) {
		return call(handle)
	}
}

// none is the result type of calls that return nothing.
type none struct{}
