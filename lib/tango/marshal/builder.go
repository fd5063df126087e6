// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// builder is the arena an encoder writes one record into. It records
// every allocation so that a failed encode can free all of them, and
// keeps the first failure sticky so encoders can write a whole record
// and check once.
type builder struct {
	allocator   wire.Allocator
	writer      *wire.Writer
	allocations []wire.Ptr
	err         error
}

func newBuilder(allocator wire.Allocator) *builder {
	return &builder{allocator: allocator, writer: wire.NewWriter(allocator)}
}

func (b *builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *builder) failed() error {
	if b.err != nil {
		return b.err
	}
	return b.writer.Err()
}

// alloc returns a zeroed block, or 0 once the builder has failed.
func (b *builder) alloc(size, align uint64) wire.Ptr {
	if b.failed() != nil {
		return 0
	}
	ptr, err := b.allocator.Alloc(size, align)
	if err != nil {
		b.fail(fmt.Errorf("allocating %d bytes: %w", size, err))
		return 0
	}
	b.allocations = append(b.allocations, ptr)
	return ptr
}

func (b *builder) record(size uint64) wire.Ptr {
	return b.alloc(size, wire.RecordAlign)
}

// cstring copies data into a new NUL-terminated buffer. Data past an
// embedded NUL is dropped: the foreign side would never see it.
func (b *builder) cstring(data []byte) wire.Ptr {
	if end := bytes.IndexByte(data, 0); end >= 0 {
		data = data[:end]
	}
	ptr := b.alloc(uint64(len(data))+1, 1)
	if ptr != 0 {
		b.writer.PutBytes(ptr, data)
	}
	return ptr
}

func (b *builder) putString(at wire.Ptr, data []byte) {
	if ptr := b.cstring(data); ptr != 0 {
		b.writer.PutPointer(at, ptr)
	}
}

func (b *builder) putEnum(at wire.Ptr, code uint32, err error) {
	if err != nil {
		b.fail(err)
		return
	}
	b.writer.PutUint32(at, code)
}

// finish hands the record to a Local, or frees every allocation and
// returns the failure.
func (b *builder) finish(addr wire.Ptr, release func(wire.Allocator, wire.Ptr) error) (*wire.Local, error) {
	if err := b.failed(); err != nil {
		return nil, errors.Join(err, b.rollback())
	}
	return wire.NewLocal(b.allocator, addr, release), nil
}

func (b *builder) rollback() error {
	var errs []error
	for index := len(b.allocations) - 1; index >= 0; index-- {
		if err := b.allocator.Free(b.allocations[index]); err != nil {
			errs = append(errs, fmt.Errorf("rolling back allocation %#x: %w", uint64(b.allocations[index]), err))
		}
	}
	b.allocations = nil
	return errors.Join(errs...)
}

var nativeEndian = binary.NativeEndian

// element describes how one sequence element of type T is laid out.
type element[T any] struct {
	size  uint64
	load  func([]byte) T
	store func([]byte, T)
}

var (
	boolElement = element[bool]{
		size: 1,
		load: func(data []byte) bool { return data[0] != 0 },
		store: func(data []byte, value bool) {
			data[0] = 0
			if value {
				data[0] = 1
			}
		},
	}
	uint8Element = element[uint8]{
		size:  1,
		load:  func(data []byte) uint8 { return data[0] },
		store: func(data []byte, value uint8) { data[0] = value },
	}
	int16Element = element[int16]{
		size:  2,
		load:  func(data []byte) int16 { return int16(nativeEndian.Uint16(data)) },
		store: func(data []byte, value int16) { nativeEndian.PutUint16(data, uint16(value)) },
	}
	uint16Element = element[uint16]{
		size:  2,
		load:  nativeEndian.Uint16,
		store: nativeEndian.PutUint16,
	}
	int32Element = element[int32]{
		size:  4,
		load:  func(data []byte) int32 { return int32(nativeEndian.Uint32(data)) },
		store: func(data []byte, value int32) { nativeEndian.PutUint32(data, uint32(value)) },
	}
	uint32Element = element[uint32]{
		size:  4,
		load:  nativeEndian.Uint32,
		store: nativeEndian.PutUint32,
	}
	int64Element = element[int64]{
		size:  8,
		load:  func(data []byte) int64 { return int64(nativeEndian.Uint64(data)) },
		store: func(data []byte, value int64) { nativeEndian.PutUint64(data, uint64(value)) },
	}
	uint64Element = element[uint64]{
		size:  8,
		load:  nativeEndian.Uint64,
		store: nativeEndian.PutUint64,
	}
	float32Element = element[float32]{
		size:  4,
		load:  func(data []byte) float32 { return math.Float32frombits(nativeEndian.Uint32(data)) },
		store: func(data []byte, value float32) { nativeEndian.PutUint32(data, math.Float32bits(value)) },
	}
	float64Element = element[float64]{
		size:  8,
		load:  func(data []byte) float64 { return math.Float64frombits(nativeEndian.Uint64(data)) },
		store: func(data []byte, value float64) { nativeEndian.PutUint64(data, math.Float64bits(value)) },
	}
)

func sequenceAlign(size uint64) uint64 {
	if size >= 8 {
		return 8
	}
	return size
}

// writeNumbers stores values as a {length, sequence} pair at at. An
// empty slice is stored as length 0 with a NULL sequence.
func writeNumbers[T any](b *builder, at wire.Ptr, values []T, codec element[T]) {
	if uint64(len(values)) > math.MaxUint32 {
		b.fail(fmt.Errorf("sequence of %d elements: %w", len(values), tango.ErrMalformed))
		return
	}
	b.writer.PutUint32(at.Add(wire.ArrayLength), uint32(len(values)))
	if len(values) == 0 {
		return
	}
	data := make([]byte, uint64(len(values))*codec.size)
	for index, value := range values {
		codec.store(data[uint64(index)*codec.size:], value)
	}
	sequence := b.alloc(uint64(len(data)), sequenceAlign(codec.size))
	if sequence == 0 {
		return
	}
	b.writer.PutBytes(sequence, data)
	b.writer.PutPointer(at.Add(wire.ArraySequence), sequence)
}

// readNumbers copies the {length, sequence} pair at at. The result is
// non-nil on success, even when empty.
func readNumbers[T any](r *wire.Reader, at wire.Ptr, codec element[T]) []T {
	length := uint64(r.Uint32(at.Add(wire.ArrayLength)))
	sequence := r.Pointer(at.Add(wire.ArraySequence))
	data := r.Bytes(sequence, length*codec.size)
	if data == nil {
		return nil
	}
	values := make([]T, length)
	for index := range values {
		values[index] = codec.load(data[uint64(index)*codec.size:])
	}
	return values
}

func writeStrings(b *builder, at wire.Ptr, values [][]byte) {
	pointers := make([]uint64, len(values))
	for index, value := range values {
		pointers[index] = uint64(b.cstring(value))
	}
	writeNumbers(b, at, pointers, uint64Element)
}

func readStrings(r *wire.Reader, at wire.Ptr) [][]byte {
	pointers := readNumbers(r, at, uint64Element)
	if pointers == nil {
		return nil
	}
	values := make([][]byte, len(pointers))
	for index, pointer := range pointers {
		values[index] = r.CString(wire.Ptr(pointer))
	}
	if r.Err() != nil {
		return nil
	}
	return values
}

func writeEncoded(b *builder, at wire.Ptr, value tango.Encoded) {
	if uint64(len(value.Data)) > math.MaxUint32 {
		b.fail(fmt.Errorf("encoded blob of %d bytes: %w", len(value.Data), tango.ErrMalformed))
		return
	}
	b.putString(at.Add(wire.EncodedFormat), []byte(value.Format))
	b.writer.PutUint32(at.Add(wire.EncodedLength), uint32(len(value.Data)))
	if len(value.Data) == 0 {
		return
	}
	data := b.alloc(uint64(len(value.Data)), 1)
	if data == 0 {
		return
	}
	b.writer.PutBytes(data, value.Data)
	b.writer.PutPointer(at.Add(wire.EncodedData), data)
}

func readEncoded(r *wire.Reader, at wire.Ptr) tango.Encoded {
	format := r.CString(r.Pointer(at.Add(wire.EncodedFormat)))
	length := uint64(r.Uint32(at.Add(wire.EncodedLength)))
	data := r.Bytes(r.Pointer(at.Add(wire.EncodedData)), length)
	return tango.Encoded{Format: string(format), Data: data}
}

// writeRecords stores values as a {length, sequence} pair whose
// sequence is an array of size-byte records written by write.
func writeRecords[T any](b *builder, at wire.Ptr, values []T, size uint64, write func(*builder, wire.Ptr, T)) {
	if uint64(len(values)) > math.MaxUint32 {
		b.fail(fmt.Errorf("sequence of %d records: %w", len(values), tango.ErrMalformed))
		return
	}
	b.writer.PutUint32(at.Add(wire.ArrayLength), uint32(len(values)))
	if len(values) == 0 {
		return
	}
	sequence := b.alloc(uint64(len(values))*size, wire.RecordAlign)
	if sequence == 0 {
		return
	}
	b.writer.PutPointer(at.Add(wire.ArraySequence), sequence)
	for index, value := range values {
		write(b, sequence.Add(uint64(index)*size), value)
	}
}

func readRecords[T any](r *wire.Reader, at wire.Ptr, size uint64, read func(*wire.Reader, wire.Ptr) T) []T {
	length := uint64(r.Uint32(at.Add(wire.ArrayLength)))
	sequence := r.Pointer(at.Add(wire.ArraySequence))
	if !r.Span(sequence, length*size) {
		return nil
	}
	values := make([]T, length)
	for index := range values {
		values[index] = read(r, sequence.Add(uint64(index)*size))
	}
	if r.Err() != nil {
		return nil
	}
	return values
}

func writeEncodedArray(b *builder, at wire.Ptr, values []tango.Encoded) {
	writeRecords(b, at, values, wire.EncodedSize, writeEncoded)
}

func readEncodedArray(r *wire.Reader, at wire.Ptr) []tango.Encoded {
	return readRecords(r, at, wire.EncodedSize, readEncoded)
}

func writeStates(b *builder, at wire.Ptr, values []tango.DevState) {
	codes := make([]uint32, len(values))
	for index, state := range values {
		code, err := StateCode(state)
		if err != nil {
			b.fail(err)
			return
		}
		codes[index] = code
	}
	writeNumbers(b, at, codes, uint32Element)
}

func readStates(r *wire.Reader, at wire.Ptr) []tango.DevState {
	codes := readNumbers(r, at, uint32Element)
	if codes == nil {
		return nil
	}
	states := make([]tango.DevState, len(codes))
	for index, code := range codes {
		states[index] = readState(r, code)
	}
	if r.Err() != nil {
		return nil
	}
	return states
}

func readState(r *wire.Reader, code uint32) tango.DevState {
	state, err := StateOf(code)
	if err != nil {
		r.Fail(err)
	}
	return state
}
