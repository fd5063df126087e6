// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"math"
	"strconv"
	"testing"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

func newTestHeap(t testing.TB) *wire.Heap {
	t.Helper()
	heap, err := wire.NewHeap(0)
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}
	t.Cleanup(func() {
		if err := heap.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return heap
}

// asForeign hands an encoded record over as if the library had
// returned it: decoding it releases it through the encoder's own
// release routine.
func asForeign(heap *wire.Heap, local *wire.Local) *wire.Foreign {
	return wire.NewForeign(heap, local.View().Addr, local.Release)
}

// requireBalanced fails the test if anything is still allocated or if
// any free was rejected.
func requireBalanced(t testing.TB, heap *wire.Heap) {
	t.Helper()
	stats := heap.Stats()
	if stats.Live != 0 || stats.InvalidFrees != 0 {
		t.Fatalf("heap not balanced: %d live blocks (%d bytes), %d invalid frees",
			stats.Live, stats.LiveBytes, stats.InvalidFrees)
	}
	if stats.Allocs != stats.Frees {
		t.Fatalf("heap allocs = %d, frees = %d", stats.Allocs, stats.Frees)
	}
}

// rawRecord allocates a zeroed record for hand-building inputs the
// encoders would never produce.
func rawRecord(t *testing.T, heap *wire.Heap, size uint64) (wire.Ptr, *wire.Writer) {
	t.Helper()
	ptr, err := heap.Alloc(size, wire.RecordAlign)
	if err != nil {
		t.Fatalf("Alloc(%d): %v", size, err)
	}
	t.Cleanup(func() { heap.Free(ptr) })
	return ptr, wire.NewWriter(heap)
}

// rawString allocates a NUL-terminated copy of text.
func rawString(t *testing.T, heap *wire.Heap, text string) wire.Ptr {
	t.Helper()
	ptr, err := heap.Alloc(uint64(len(text))+1, 1)
	if err != nil {
		t.Fatalf("Alloc string: %v", err)
	}
	t.Cleanup(func() { heap.Free(ptr) })
	writer := wire.NewWriter(heap)
	writer.PutBytes(ptr, []byte(text))
	if err := writer.Err(); err != nil {
		t.Fatalf("writing string: %v", err)
	}
	return ptr
}

func sequence[T any](n int, at func(index int) T) []T {
	values := make([]T, n)
	for index := range values {
		values[index] = at(index)
	}
	return values
}

// sizedArrays returns one array of every kind, each holding n elements
// derived from their index, so that a truncated or reordered sequence
// fails a comparison.
func sizedArrays(n int) []tango.Value {
	text := func(index int) []byte { return []byte("e" + strconv.Itoa(index)) }
	return []tango.Value{
		tango.BooleanArray(sequence(n, func(index int) bool { return index%3 == 0 })),
		tango.UCharArray(sequence(n, func(index int) uint8 { return uint8(index + 1) })),
		tango.ShortArray(sequence(n, func(index int) int16 { return int16(-index - 1) })),
		tango.UShortArray(sequence(n, func(index int) uint16 { return uint16(index + 1) })),
		tango.LongArray(sequence(n, func(index int) int32 { return int32(index*1000 - 1) })),
		tango.ULongArray(sequence(n, func(index int) uint32 { return math.MaxUint16 + uint32(index) })),
		tango.Long64Array(sequence(n, func(index int) int64 { return int64(index) << 33 })),
		tango.ULong64Array(sequence(n, func(index int) uint64 { return 1<<63 + uint64(index) })),
		tango.FloatArray(sequence(n, func(index int) float32 { return float32(index) + 0.5 })),
		tango.DoubleArray(sequence(n, func(index int) float64 { return float64(index) * 1.25 })),
		tango.StringArray(sequence(n, text)),
		tango.StateArray(sequence(n, func(index int) tango.DevState { return tango.DevState(index % 14) })),
		tango.EncodedArray(sequence(n, func(index int) tango.Encoded {
			return tango.Encoded{Format: strconv.Itoa(index), Data: []byte{byte(index)}}
		})),
		tango.LongStringArray{
			Longs:   sequence(n, func(index int) int32 { return int32(-index) }),
			Strings: sequence(n, text),
		},
		tango.DoubleStringArray{
			Doubles: sequence(n, func(index int) float64 { return float64(index) / 4 }),
			Strings: sequence(n, text),
		},
	}
}

// arrayLengths are the element counts every array codec is tested at.
var arrayLengths = []int{0, 1, 37}
