// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Ptr is a C address. Zero is NULL.
type Ptr uint64

// Add returns ptr advanced by offset bytes.
func (ptr Ptr) Add(offset uint64) Ptr {
	return ptr + Ptr(offset)
}

var (
	// ErrNullPointer is returned when a record field that must point
	// somewhere is NULL.
	ErrNullPointer = errors.New("null pointer")

	// ErrOutOfBounds is returned for any access that does not lie
	// entirely inside one live allocation, including accesses to
	// blocks that have already been freed.
	ErrOutOfBounds = errors.New("access outside live allocation")

	// ErrInvalidFree is returned when Free is called with an address
	// that is not the start of a live allocation. A double free is
	// the common case.
	ErrInvalidFree = errors.New("free of address that is not a live allocation")

	// ErrOutOfMemory is returned when an allocator cannot satisfy a
	// request.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrClosed is returned by a Heap after Close.
	ErrClosed = errors.New("heap closed")

	// ErrAlreadyReleased is returned by the second and later Release
	// of a Foreign or Local handle, and by Foreign.View after Release.
	ErrAlreadyReleased = errors.New("record already released")
)

// Memory resolves addresses to bytes. Slices returned by Memory alias
// the underlying storage: writes through them are visible to the
// other side, and they must not be retained past the owning record's
// release.
type Memory interface {
	// Slice returns the n bytes starting at ptr. A zero-length request
	// succeeds for any address, including NULL.
	Slice(ptr Ptr, n uint64) ([]byte, error)

	// CString returns the bytes from ptr up to, but not including, the
	// first NUL byte.
	CString(ptr Ptr) ([]byte, error)
}

// Allocator is a Memory that can also hand out and reclaim blocks.
// Alloc returns zeroed memory. Free(0) is a no-op, matching C free.
type Allocator interface {
	Memory
	Alloc(size, align uint64) (Ptr, error)
	Free(ptr Ptr) error
}

// Reader decodes fixed-width fields from a Memory in native byte
// order. The first failed access is remembered; later accesses return
// zero values and Err reports the original failure. This lets a
// decoder read a whole record and check for failure once, before it
// builds any value.
type Reader struct {
	memory Memory
	err    error
	copied uint64
}

// NewReader returns a Reader over memory.
func NewReader(memory Memory) *Reader {
	return &Reader{memory: memory}
}

// Err returns the first failure seen by the reader, or nil.
func (r *Reader) Err() error {
	return r.err
}

// Fail records err as the reader's failure unless one is already
// recorded. Decoders use it for semantic failures (bad lengths,
// unknown enumerants) so that every failure flows through Err.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Copied returns the number of bytes the reader has copied out of
// memory into owned buffers via Bytes and CString.
func (r *Reader) Copied() uint64 {
	return r.copied
}

func (r *Reader) view(ptr Ptr, n uint64) []byte {
	if r.err != nil {
		return nil
	}
	data, err := r.memory.Slice(ptr, n)
	if err != nil {
		r.err = fmt.Errorf("reading %d bytes at %#x: %w", n, uint64(ptr), err)
		return nil
	}
	return data
}

// Span checks that the n bytes at ptr are readable without copying
// them. Decoders call it before sizing a slice from a length field, so
// a corrupt length fails instead of allocating.
func (r *Reader) Span(ptr Ptr, n uint64) bool {
	if n == 0 {
		return r.err == nil
	}
	return r.view(ptr, n) != nil
}

func (r *Reader) Uint8(ptr Ptr) uint8 {
	data := r.view(ptr, 1)
	if data == nil {
		return 0
	}
	return data[0]
}

func (r *Reader) Bool(ptr Ptr) bool {
	return r.Uint8(ptr) != 0
}

func (r *Reader) Uint16(ptr Ptr) uint16 {
	data := r.view(ptr, 2)
	if data == nil {
		return 0
	}
	return binary.NativeEndian.Uint16(data)
}

func (r *Reader) Int16(ptr Ptr) int16 {
	return int16(r.Uint16(ptr))
}

func (r *Reader) Uint32(ptr Ptr) uint32 {
	data := r.view(ptr, 4)
	if data == nil {
		return 0
	}
	return binary.NativeEndian.Uint32(data)
}

func (r *Reader) Int32(ptr Ptr) int32 {
	return int32(r.Uint32(ptr))
}

func (r *Reader) Uint64(ptr Ptr) uint64 {
	data := r.view(ptr, 8)
	if data == nil {
		return 0
	}
	return binary.NativeEndian.Uint64(data)
}

func (r *Reader) Int64(ptr Ptr) int64 {
	return int64(r.Uint64(ptr))
}

func (r *Reader) Float32(ptr Ptr) float32 {
	return math.Float32frombits(r.Uint32(ptr))
}

func (r *Reader) Float64(ptr Ptr) float64 {
	return math.Float64frombits(r.Uint64(ptr))
}

func (r *Reader) Pointer(ptr Ptr) Ptr {
	return Ptr(r.Uint64(ptr))
}

// Bytes returns an owned copy of the n bytes at ptr.
func (r *Reader) Bytes(ptr Ptr, n uint64) []byte {
	if n == 0 {
		if r.err != nil {
			return nil
		}
		return []byte{}
	}
	data := r.view(ptr, n)
	if data == nil {
		return nil
	}
	r.copied += n
	return append([]byte(nil), data...)
}

// CString returns an owned copy of the NUL-terminated string at ptr.
// A NULL pointer is a failure: the ABI never uses NULL for an empty
// string.
func (r *Reader) CString(ptr Ptr) []byte {
	if r.err != nil {
		return nil
	}
	if ptr == 0 {
		r.err = fmt.Errorf("reading string: %w", ErrNullPointer)
		return nil
	}
	data, err := r.memory.CString(ptr)
	if err != nil {
		r.err = fmt.Errorf("reading string at %#x: %w", uint64(ptr), err)
		return nil
	}
	r.copied += uint64(len(data))
	return append([]byte{}, data...)
}

// Writer stores fixed-width fields into a Memory in native byte
// order, with the same sticky-error behavior as Reader.
type Writer struct {
	memory Memory
	err    error
}

// NewWriter returns a Writer over memory.
func NewWriter(memory Memory) *Writer {
	return &Writer{memory: memory}
}

// Err returns the first failure seen by the writer, or nil.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) view(ptr Ptr, n uint64) []byte {
	if w.err != nil {
		return nil
	}
	data, err := w.memory.Slice(ptr, n)
	if err != nil {
		w.err = fmt.Errorf("writing %d bytes at %#x: %w", n, uint64(ptr), err)
		return nil
	}
	return data
}

func (w *Writer) PutUint8(ptr Ptr, value uint8) {
	if data := w.view(ptr, 1); data != nil {
		data[0] = value
	}
}

func (w *Writer) PutBool(ptr Ptr, value bool) {
	var b uint8
	if value {
		b = 1
	}
	w.PutUint8(ptr, b)
}

func (w *Writer) PutUint16(ptr Ptr, value uint16) {
	if data := w.view(ptr, 2); data != nil {
		binary.NativeEndian.PutUint16(data, value)
	}
}

func (w *Writer) PutInt16(ptr Ptr, value int16) {
	w.PutUint16(ptr, uint16(value))
}

func (w *Writer) PutUint32(ptr Ptr, value uint32) {
	if data := w.view(ptr, 4); data != nil {
		binary.NativeEndian.PutUint32(data, value)
	}
}

func (w *Writer) PutInt32(ptr Ptr, value int32) {
	w.PutUint32(ptr, uint32(value))
}

func (w *Writer) PutUint64(ptr Ptr, value uint64) {
	if data := w.view(ptr, 8); data != nil {
		binary.NativeEndian.PutUint64(data, value)
	}
}

func (w *Writer) PutInt64(ptr Ptr, value int64) {
	w.PutUint64(ptr, uint64(value))
}

func (w *Writer) PutFloat32(ptr Ptr, value float32) {
	w.PutUint32(ptr, math.Float32bits(value))
}

func (w *Writer) PutFloat64(ptr Ptr, value float64) {
	w.PutUint64(ptr, math.Float64bits(value))
}

func (w *Writer) PutPointer(ptr Ptr, value Ptr) {
	w.PutUint64(ptr, uint64(value))
}

// PutBytes copies data to ptr.
func (w *Writer) PutBytes(ptr Ptr, data []byte) {
	if len(data) == 0 {
		return
	}
	if target := w.view(ptr, uint64(len(data))); target != nil {
		copy(target, data)
	}
}
