// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// releaser walks a record this package encoded and frees what the
// encoder allocated for it. It keeps going after a failed free so
// that one bad pointer does not leak the rest of the record.
type releaser struct {
	allocator wire.Allocator
	reader    *wire.Reader
	errs      []error
}

func newReleaser(allocator wire.Allocator) *releaser {
	return &releaser{allocator: allocator, reader: wire.NewReader(allocator)}
}

func (rel *releaser) free(ptr wire.Ptr) {
	if err := rel.allocator.Free(ptr); err != nil {
		rel.errs = append(rel.errs, fmt.Errorf("freeing %#x: %w", uint64(ptr), err))
	}
}

func (rel *releaser) pointer(at wire.Ptr) wire.Ptr {
	return rel.reader.Pointer(at)
}

// sequence frees the sequence of a {length, sequence} pair.
func (rel *releaser) sequence(at wire.Ptr) {
	rel.free(rel.pointer(at.Add(wire.ArraySequence)))
}

func (rel *releaser) strings(at wire.Ptr) {
	for _, pointer := range readNumbers(rel.reader, at, uint64Element) {
		rel.free(wire.Ptr(pointer))
	}
	rel.sequence(at)
}

func (rel *releaser) encoded(at wire.Ptr) {
	rel.free(rel.pointer(at.Add(wire.EncodedFormat)))
	rel.free(rel.pointer(at.Add(wire.EncodedData)))
}

// records frees each size-byte record of a {length, sequence} pair
// with release, then the sequence.
func (rel *releaser) records(at wire.Ptr, size uint64, release func(*releaser, wire.Ptr)) {
	length := uint64(rel.reader.Uint32(at.Add(wire.ArrayLength)))
	sequence := rel.pointer(at.Add(wire.ArraySequence))
	if !rel.reader.Span(sequence, length*size) {
		return
	}
	for index := range length {
		release(rel, sequence.Add(index*size))
	}
	rel.free(sequence)
}

// inlinePayload frees the payload of a command or property union,
// which holds scalars inline.
func (rel *releaser) inlinePayload(tag wire.Tag, at wire.Ptr) {
	switch tag {
	case wire.DevString, wire.ConstDevString:
		rel.free(rel.pointer(at))
	case wire.DevEncoded:
		rel.encoded(at)
	case wire.DevVarStringArray:
		rel.strings(at)
	case wire.DevVarLongStringArray, wire.DevVarDoubleStringArray:
		rel.sequence(at.Add(wire.CompositeNumberLength))
		rel.strings(at.Add(wire.CompositeStringLength))
	case wire.DevVarBooleanArray, wire.DevVarCharArray,
		wire.DevVarShortArray, wire.DevVarUShortArray,
		wire.DevVarLongArray, wire.DevVarULongArray,
		wire.DevVarLong64Array, wire.DevVarULong64Array,
		wire.DevVarFloatArray, wire.DevVarDoubleArray:
		rel.sequence(at)
	}
}

// arrayPayload frees the payload of an attribute union, which is
// always a sequence of the element type.
func (rel *releaser) arrayPayload(element wire.Tag, at wire.Ptr) {
	switch element {
	case wire.DevString, wire.ConstDevString:
		rel.strings(at)
	case wire.DevEncoded:
		rel.records(at, wire.EncodedSize, (*releaser).encoded)
	default:
		rel.sequence(at)
	}
}

func (rel *releaser) err() error {
	if err := rel.reader.Err(); err != nil {
		rel.errs = append([]error{fmt.Errorf("walking record: %w", err)}, rel.errs...)
	}
	return errors.Join(rel.errs...)
}

// releaseWith returns a Local release routine that frees the record
// at addr after fields has freed its contents.
func releaseWith(fields func(*releaser, wire.Ptr)) func(wire.Allocator, wire.Ptr) error {
	return func(allocator wire.Allocator, addr wire.Ptr) error {
		rel := newReleaser(allocator)
		fields(rel, addr)
		rel.free(addr)
		return rel.err()
	}
}

// decodeAndRelease reads a foreign record and releases it whether or
// not the read succeeded: the buffer belongs to the library either
// way.
func decodeAndRelease[T any](foreign *wire.Foreign, read func(wire.View) (T, error)) (T, error) {
	var zero T
	view, err := foreign.View()
	if err != nil {
		return zero, err
	}
	value, readErr := read(view)
	releaseErr := foreign.Release()
	if readErr != nil {
		return zero, errors.Join(readErr, releaseErr)
	}
	if releaseErr != nil {
		return zero, fmt.Errorf("releasing foreign record: %w", releaseErr)
	}
	return value, nil
}
