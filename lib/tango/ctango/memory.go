// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build ctango

package ctango

/*
#include <string.h>
*/
import "C"

import (
	"unsafe"

	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// native reads process memory directly. Records the C library returns
// point into its own allocations, which no Go allocator can bounds
// check, so native trusts every non-NULL address.
type native struct{}

func (native) Slice(ptr wire.Ptr, n uint64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if ptr == 0 {
		return nil, wire.ErrNullPointer
	}
	return unsafe.Slice((*byte)(pointer(ptr)), n), nil
}

func (native) CString(ptr wire.Ptr) ([]byte, error) {
	if ptr == 0 {
		return nil, wire.ErrNullPointer
	}
	text := (*C.char)(pointer(ptr))
	return unsafe.Slice((*byte)(pointer(ptr)), C.strlen(text)), nil
}

// pointer converts an address outside the Go heap to a pointer C can
// be handed.
func pointer(ptr wire.Ptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(ptr))
}

func cast[T any](ptr wire.Ptr) *T {
	return (*T)(pointer(ptr))
}
