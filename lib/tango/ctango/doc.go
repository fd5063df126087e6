// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build ctango

// Package ctango binds client.Library to the C control library
// (libc_tango on top of the Tango C++ client). It is only compiled with
// the ctango build tag, since it needs cgo and an installed Tango.
//
// Argument records are passed to C at the addresses the client built
// them at, so the proxies must allocate from memory C can read: the
// default wire.Heap of a client session qualifies. Output records are
// shells the binding allocates from its own heap and the C library
// fills; their nested buffers belong to the C library and are freed by
// the matching tango_free_* routine when the Foreign record is
// released.
package ctango
