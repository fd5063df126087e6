// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire mirrors the C ABI of the Tango client library: the
// integer type tags and enumerant codes, the byte layout of every
// tagged-union record, and the memory those records live in.
//
// Nothing in this package knows what a value means. It answers three
// questions only: which integer codes exist ([Tag] and the enumerant
// constants), where each field sits inside a record (the layout
// constants in layout.go, computed for LP64 platforms), and who owns a
// given record.
//
// # Memory
//
// Records are addressed by [Ptr], a plain 64-bit address. A [Memory]
// resolves addresses to byte slices; an [Allocator] additionally hands
// out and takes back blocks. [Heap] is the allocator used for records
// this side builds: an mmap region outside the Go heap, so addresses
// are stable and valid for C code, with a first-fit free list that
// rejects double frees and accesses to released blocks.
//
// # Ownership
//
// Every record handed across the boundary is wrapped in exactly one of
// two handle types, and the two are not interchangeable:
//
//   - [Foreign] wraps a record the control library allocated. Its
//     Release calls the library's own free routine.
//   - [Local] wraps a record this side allocated for an outbound call.
//     Its Release calls the codec's matching free routine.
//
// Both handles release at most once; a second Release returns
// [ErrAlreadyReleased] without touching memory.
package wire
