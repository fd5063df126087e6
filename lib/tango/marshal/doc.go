// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package marshal converts between the control library's tagged-union
// records and the owned values of package tango.
//
// Every record type has three halves:
//
//   - Encode* builds the record in a caller-supplied [wire.Allocator]
//     and returns a [*wire.Local] whose Release walks the record by
//     its tag and frees exactly what encoding allocated. If encoding
//     fails partway, everything allocated so far is freed before the
//     error is returned.
//   - Read* copies a record out of a [wire.View] into owned values and
//     touches nothing else. It never returns a partial value.
//   - Decode* reads a [*wire.Foreign] record and then releases it
//     through the library's own free routine, on success and on
//     failure alike.
//
// The tag registry ([KindOf], [TagOf]) is the only place foreign type
// codes meet logical kinds. An unknown code is rejected before any
// payload byte is read.
//
// Representation differs by category, as the ABI does: command and
// property scalars sit inline in their union, while attribute unions
// hold only arrays, so attribute scalars travel as one-element
// sequences (two elements when a reading carries its set point).
//
// The package is stateless and safe for concurrent use to the extent
// the allocator is.
package marshal
