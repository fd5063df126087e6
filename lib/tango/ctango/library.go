// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build ctango

package ctango

/*
#cgo pkg-config: tango
#cgo LDFLAGS: -lc_tango
#include <stdlib.h>
#include <string.h>
#include <c_tango.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/bureau-foundation/tango/lib/tango/client"
	"github.com/bureau-foundation/tango/lib/tango/marshal"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

var _ client.Library = (*Library)(nil)

// Config configures a Library.
type Config struct {
	// HeapSize is the size of the heap output shells and error stacks
	// are allocated from. Zero selects wire.DefaultHeapSize.
	HeapSize int

	Logger *slog.Logger
}

// Library is the native control library. It is safe for concurrent
// use; calls on one handle are serialized by the proxies.
type Library struct {
	heap   *wire.Heap
	logger *slog.Logger

	returned atomic.Int64
	released atomic.Int64

	mu      sync.Mutex
	handles map[client.Handle]handleKind
	closed  bool
}

type handleKind uint8

const (
	deviceHandle handleKind = iota + 1
	databaseHandle
)

// Open checks that the C record layouts match package wire and
// returns a Library.
func Open(config Config) (*Library, error) {
	if err := checkLayout(); err != nil {
		return nil, err
	}
	heap, err := wire.NewHeap(config.HeapSize)
	if err != nil {
		return nil, fmt.Errorf("ctango: creating shell heap: %w", err)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Library{
		heap:    heap,
		logger:  logger,
		handles: make(map[client.Handle]handleKind),
	}, nil
}

// Close deletes every proxy still open and unmaps the shell heap.
// Foreign records not yet released become unreadable.
func (library *Library) Close() error {
	library.mu.Lock()
	if library.closed {
		library.mu.Unlock()
		return nil
	}
	library.closed = true
	handles := library.handles
	library.handles = nil
	library.mu.Unlock()

	var errs []error
	for handle, kind := range handles {
		library.logger.Warn("closing proxy left open", "handle", handle)
		if kind == deviceHandle {
			errs = append(errs, library.deleteDevice(handle))
		} else {
			errs = append(errs, library.deleteDatabase(handle))
		}
	}
	if outstanding := library.returned.Load() - library.released.Load(); outstanding > 0 {
		library.logger.Warn("records not released before close", "outstanding", outstanding)
	}
	errs = append(errs, library.heap.Close())
	return errors.Join(errs...)
}

// checkLayout compares the compiled C record sizes against the
// layouts the codecs use.
func checkLayout() error {
	sizes := []struct {
		name      string
		c, layout uint64
	}{
		{"TangoDevEncoded", uint64(C.sizeof_TangoDevEncoded), wire.EncodedSize},
		{"VarStringArray", uint64(C.sizeof_VarStringArray), wire.ArraySize},
		{"VarLongStringArray", uint64(C.sizeof_VarLongStringArray), wire.CompositeSize},
		{"CommandData", uint64(C.sizeof_CommandData), wire.CommandSize},
		{"AttributeData", uint64(C.sizeof_AttributeData), wire.AttributeSize},
		{"DbDatum", uint64(C.sizeof_DbDatum), wire.DatumSize},
		{"DbData", uint64(C.sizeof_DbData), wire.ArraySize},
		{"CommandInfo", uint64(C.sizeof_CommandInfo), wire.CommandInfoSize},
		{"AttributeInfo", uint64(C.sizeof_AttributeInfo), wire.AttributeInfoSize},
		{"DevFailed", uint64(C.sizeof_DevFailed), wire.FailureSize},
		{"ErrorStack", uint64(C.sizeof_ErrorStack), wire.ArraySize},
	}
	var errs []error
	for _, size := range sizes {
		if size.c != size.layout {
			errs = append(errs, fmt.Errorf("ctango: %s is %d bytes in C, %d in package wire", size.name, size.c, size.layout))
		}
	}
	return errors.Join(errs...)
}

// register records a handle the C library issued.
func (library *Library) register(handle client.Handle, kind handleKind) error {
	library.mu.Lock()
	defer library.mu.Unlock()
	if library.closed {
		return errors.New("ctango: library closed")
	}
	library.handles[handle] = kind
	return nil
}

// lookup returns the proxy pointer behind handle.
func (library *Library) lookup(handle client.Handle, want handleKind) (unsafe.Pointer, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	if library.closed {
		return nil, errors.New("ctango: library closed")
	}
	kind, ok := library.handles[handle]
	if !ok || kind != want {
		return nil, fmt.Errorf("ctango: unknown handle %#x", uintptr(handle))
	}
	return unsafe.Pointer(uintptr(handle)), nil
}

// forget drops handle so that it is not deleted again on Close.
func (library *Library) forget(handle client.Handle) {
	library.mu.Lock()
	defer library.mu.Unlock()
	delete(library.handles, handle)
}

// call runs fn with a zeroed ErrorStack. When fn reports failure the
// stack is copied into a *tango.Error and freed.
func (library *Library) call(name string, fn func(stack *C.ErrorStack) C.bool) error {
	stack, err := library.heap.Alloc(wire.ArraySize, wire.RecordAlign)
	if err != nil {
		return fmt.Errorf("ctango: %s: allocating error stack: %w", name, err)
	}
	defer library.heap.Free(stack)

	if fn(cast[C.ErrorStack](stack)) {
		return nil
	}
	failure, err := marshal.ReadErrorStack(wire.View{Memory: native{}, Addr: stack})
	C.tango_free_ErrorStack(cast[C.ErrorStack](stack))
	if err != nil {
		return fmt.Errorf("ctango: %s failed with an unreadable error stack: %w", name, err)
	}
	library.logger.Debug("native call failed", "call", name, "error", failure)
	return failure
}

// output allocates a zeroed shell of size bytes, lets fn fill it, and
// hands it back as a Foreign record whose release runs free and then
// returns the shell to the heap.
func (library *Library) output(name string, size uint64, free func(shell wire.Ptr), fn func(shell wire.Ptr, stack *C.ErrorStack) C.bool) (*wire.Foreign, error) {
	shell, err := library.heap.Alloc(size, wire.RecordAlign)
	if err != nil {
		return nil, fmt.Errorf("ctango: %s: allocating output: %w", name, err)
	}
	err = library.call(name, func(stack *C.ErrorStack) C.bool {
		return fn(shell, stack)
	})
	if err != nil {
		library.heap.Free(shell)
		return nil, err
	}
	library.returned.Add(1)
	return wire.NewForeign(native{}, shell, func() error {
		library.released.Add(1)
		free(shell)
		return library.heap.Free(shell)
	}), nil
}

// withString passes a C copy of text to fn.
func withString(text string, fn func(*C.char) error) error {
	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))
	return fn(ctext)
}
