// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "sync/atomic"

// View locates a record: the memory it lives in and its address.
type View struct {
	Memory Memory
	Addr   Ptr
}

// At returns a view of the record at addr in the same memory.
func (view View) At(addr Ptr) View {
	return View{Memory: view.Memory, Addr: addr}
}

// Foreign owns a record that the control library allocated and handed
// back as a call output. The only way to free it is Release, which
// invokes the library's own free routine for that record type.
//
// Decoders copy everything they need out of the record and then call
// Release. After Release, View fails with ErrAlreadyReleased.
type Foreign struct {
	view     View
	release  func() error
	released atomic.Bool
}

// NewForeign wraps the record at addr in memory. release is the
// library's free routine, bound to this record; it is called at most
// once.
func NewForeign(memory Memory, addr Ptr, release func() error) *Foreign {
	return &Foreign{
		view:    View{Memory: memory, Addr: addr},
		release: release,
	}
}

// View returns the record's location, or ErrAlreadyReleased once the
// record has been released.
func (foreign *Foreign) View() (View, error) {
	if foreign.released.Load() {
		return View{}, ErrAlreadyReleased
	}
	return foreign.view, nil
}

// Release frees the record through the library. Only the first call
// does anything; later calls return ErrAlreadyReleased.
func (foreign *Foreign) Release() error {
	if !foreign.released.CompareAndSwap(false, true) {
		return ErrAlreadyReleased
	}
	if foreign.release == nil {
		return nil
	}
	return foreign.release()
}

// Released reports whether Release has been called.
func (foreign *Foreign) Released() bool {
	return foreign.released.Load()
}

// Local owns a record this side built in one of its own allocators for
// an outbound call. The record's free routine comes from the codec
// that built it and walks exactly the allocations that encoding made.
//
// The dispatcher passes View to the library, then calls Release once
// the call returns, whether or not the call succeeded.
type Local struct {
	view      View
	allocator Allocator
	release   func(Allocator, Ptr) error
	released  atomic.Bool
}

// NewLocal wraps the record at addr in allocator. release frees the
// record and everything it points to.
func NewLocal(allocator Allocator, addr Ptr, release func(Allocator, Ptr) error) *Local {
	return &Local{
		view:      View{Memory: allocator, Addr: addr},
		allocator: allocator,
		release:   release,
	}
}

// View returns the record's location for passing to the library.
func (local *Local) View() View {
	return local.view
}

// Release frees the record and its payload. Only the first call does
// anything; later calls return ErrAlreadyReleased.
func (local *Local) Release() error {
	if !local.released.CompareAndSwap(false, true) {
		return ErrAlreadyReleased
	}
	return local.release(local.allocator, local.view.Addr)
}

// Released reports whether Release has been called.
func (local *Local) Released() bool {
	return local.released.Load()
}
