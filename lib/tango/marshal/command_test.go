// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// commandValues covers every command variant with zero, one and many
// elements where the variant has a length.
var commandValues = []tango.CommandValue{
	tango.Void{},
	tango.Boolean(true),
	tango.Boolean(false),
	tango.Short(math.MinInt16),
	tango.UShort(math.MaxUint16),
	tango.Long(-123456),
	tango.ULong(math.MaxUint32),
	tango.Long64(math.MinInt64),
	tango.ULong64(math.MaxUint64),
	tango.Float(1.5),
	tango.Double(-2.25e-300),
	tango.String{},
	tango.NewString("hello, device"),
	tango.String([]byte{0xff, 0xfe, 'x'}),
	tango.Encoded{Format: "jpeg", Data: []byte{1, 2, 3}},
	tango.Encoded{Format: "", Data: []byte{}},
	tango.BooleanArray{},
	tango.BooleanArray{true, false, true},
	tango.UCharArray{},
	tango.UCharArray{0, 255},
	tango.ShortArray{-1},
	tango.UShortArray{1, 2, 3},
	tango.LongArray{},
	tango.LongArray{math.MinInt32, 0, math.MaxInt32},
	tango.ULongArray{7},
	tango.Long64Array{-5, 5},
	tango.ULong64Array{math.MaxUint64},
	tango.FloatArray{0.5, -0.5},
	tango.DoubleArray{},
	tango.DoubleArray{math.Pi, math.E},
	tango.StringArray{},
	tango.NewStringArray("a"),
	tango.NewStringArray("", "two", "three"),
	tango.LongStringArray{Longs: []int32{}, Strings: [][]byte{}},
	tango.LongStringArray{Longs: []int32{1, 2}, Strings: [][]byte{[]byte("x")}},
	tango.DoubleStringArray{Doubles: []float64{1.25}, Strings: [][]byte{}},
	tango.DoubleStringArray{Doubles: []float64{}, Strings: [][]byte{[]byte("p"), []byte("q")}},
}

func TestCommand_RoundTrip(t *testing.T) {
	heap := newTestHeap(t)

	for _, value := range commandValues {
		t.Run(value.Kind().String(), func(t *testing.T) {
			local, err := EncodeCommand(heap, value)
			if err != nil {
				t.Fatalf("EncodeCommand(%#v): %v", value, err)
			}
			decoded, err := DecodeCommand(asForeign(heap, local))
			if err != nil {
				t.Fatalf("DecodeCommand: %v", err)
			}
			if !reflect.DeepEqual(decoded, value) {
				t.Errorf("round trip: got %#v, want %#v", decoded, value)
			}
		})
	}
	requireBalanced(t, heap)
}

func TestCommand_ReadLeavesRecordOwned(t *testing.T) {
	heap := newTestHeap(t)
	local, err := EncodeCommand(heap, tango.NewStringArray("a", "b"))
	if err != nil {
		t.Fatalf("EncodeCommand: %v", err)
	}

	first, err := ReadCommand(local.View())
	if err != nil {
		t.Fatalf("ReadCommand: %v", err)
	}
	second, err := ReadCommand(local.View())
	if err != nil {
		t.Fatalf("second ReadCommand: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reads differ: %#v vs %#v", first, second)
	}

	// The decoded copy must survive the record.
	if err := local.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := tango.Format(first); got != `["a" "b"]` {
		t.Errorf("copy after release = %s", got)
	}
	requireBalanced(t, heap)
}

func TestEncodeCommand_RejectsState(t *testing.T) {
	heap := newTestHeap(t)
	_, err := EncodeCommand(heap, tango.Running)
	if !errors.Is(err, tango.ErrUnsupportedDirection) {
		t.Fatalf("EncodeCommand(DevState) error = %v, want ErrUnsupportedDirection", err)
	}
	requireBalanced(t, heap)
}

func TestCommandResult_State(t *testing.T) {
	heap := newTestHeap(t)
	local, err := EncodeCommandResult(heap, tango.Alarm)
	if err != nil {
		t.Fatalf("EncodeCommandResult: %v", err)
	}
	decoded, err := DecodeCommand(asForeign(heap, local))
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if decoded != tango.Alarm {
		t.Errorf("decoded %v, want ALARM", decoded)
	}
	requireBalanced(t, heap)
}

func TestEncodeCommand_NilValue(t *testing.T) {
	heap := newTestHeap(t)
	if _, err := EncodeCommand(heap, nil); err == nil {
		t.Fatal("EncodeCommand(nil) succeeded")
	}
}

func TestEncodeCommand_TruncatesAtNUL(t *testing.T) {
	heap := newTestHeap(t)
	local, err := EncodeCommand(heap, tango.String("before\x00after"))
	if err != nil {
		t.Fatalf("EncodeCommand: %v", err)
	}
	decoded, err := DecodeCommand(asForeign(heap, local))
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if got := string(decoded.(tango.String)); got != "before" {
		t.Errorf("decoded %q, want %q", got, "before")
	}
	requireBalanced(t, heap)
}

func TestReadCommand_AliasTags(t *testing.T) {
	heap := newTestHeap(t)

	t.Run("DevInt", func(t *testing.T) {
		record, writer := rawRecord(t, heap, wire.CommandSize)
		writer.PutUint32(record.Add(wire.CommandTag), uint32(wire.DevInt))
		writer.PutInt32(record.Add(wire.CommandPayload), -42)
		value, err := ReadCommand(wire.View{Memory: heap, Addr: record})
		if err != nil {
			t.Fatalf("ReadCommand: %v", err)
		}
		if value != tango.Long(-42) {
			t.Errorf("got %#v, want Long(-42)", value)
		}
	})

	t.Run("ConstDevString", func(t *testing.T) {
		record, writer := rawRecord(t, heap, wire.CommandSize)
		writer.PutUint32(record.Add(wire.CommandTag), uint32(wire.ConstDevString))
		writer.PutPointer(record.Add(wire.CommandPayload), rawString(t, heap, "const"))
		value, err := ReadCommand(wire.View{Memory: heap, Addr: record})
		if err != nil {
			t.Fatalf("ReadCommand: %v", err)
		}
		if !reflect.DeepEqual(value, tango.NewString("const")) {
			t.Errorf("got %#v, want String(const)", value)
		}
	})

	t.Run("DevUChar", func(t *testing.T) {
		record, writer := rawRecord(t, heap, wire.CommandSize)
		writer.PutUint32(record.Add(wire.CommandTag), uint32(wire.DevUChar))
		_, err := ReadCommand(wire.View{Memory: heap, Addr: record})
		if !errors.Is(err, tango.ErrUnsupportedKind) {
			t.Errorf("error = %v, want ErrUnsupportedKind", err)
		}
	})
}

func TestReadCommand_UnknownTagCopiesNothing(t *testing.T) {
	heap := newTestHeap(t)
	record, writer := rawRecord(t, heap, wire.CommandSize)
	writer.PutUint32(record.Add(wire.CommandTag), 9999)
	writer.PutPointer(record.Add(wire.CommandPayload), rawString(t, heap, "never read"))

	before := heap.Stats()
	_, err := ReadCommand(wire.View{Memory: heap, Addr: record})
	if !errors.Is(err, tango.ErrUnknownTag) {
		t.Fatalf("error = %v, want ErrUnknownTag", err)
	}
	after := heap.Stats()
	if read := after.BytesAccessed - before.BytesAccessed; read != 4 {
		t.Errorf("read %d bytes, want only the 4-byte tag", read)
	}
}

func TestDecodeCommand_ReleasesOnFailure(t *testing.T) {
	heap := newTestHeap(t)
	record, err := heap.Alloc(wire.CommandSize, wire.RecordAlign)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	writer := wire.NewWriter(heap)
	writer.PutUint32(record.Add(wire.CommandTag), 9999)

	released := 0
	foreign := wire.NewForeign(heap, record, func() error {
		released++
		return heap.Free(record)
	})
	if _, err := DecodeCommand(foreign); !errors.Is(err, tango.ErrUnknownTag) {
		t.Fatalf("DecodeCommand error = %v, want ErrUnknownTag", err)
	}
	if released != 1 {
		t.Errorf("release called %d times, want 1", released)
	}
	if _, err := DecodeCommand(foreign); !errors.Is(err, wire.ErrAlreadyReleased) {
		t.Errorf("second DecodeCommand error = %v, want ErrAlreadyReleased", err)
	}
	requireBalanced(t, heap)
}

func TestReadCommand_CorruptLength(t *testing.T) {
	heap := newTestHeap(t)
	local, err := EncodeCommand(heap, tango.LongArray{1, 2, 3})
	if err != nil {
		t.Fatalf("EncodeCommand: %v", err)
	}
	defer local.Release()

	// Claim far more elements than the sequence holds.
	writer := wire.NewWriter(heap)
	writer.PutUint32(local.View().Addr.Add(wire.CommandPayload+wire.ArrayLength), 1<<30)
	if _, err := ReadCommand(local.View()); !errors.Is(err, wire.ErrOutOfBounds) {
		t.Errorf("error = %v, want ErrOutOfBounds", err)
	}
	writer.PutUint32(local.View().Addr.Add(wire.CommandPayload+wire.ArrayLength), 3)
}

func TestEncodeCommand_RollsBackOnAllocationFailure(t *testing.T) {
	heap := newTestHeap(t)
	// Each string costs one allocation; fail part-way through.
	allocator := &failingAllocator{Heap: heap, remaining: 3}
	_, err := EncodeCommand(allocator, tango.NewStringArray("a", "b", "c", "d"))
	if !errors.Is(err, wire.ErrOutOfMemory) {
		t.Fatalf("error = %v, want ErrOutOfMemory", err)
	}
	requireBalanced(t, heap)
}

// failingAllocator fails every allocation after the first remaining.
type failingAllocator struct {
	*wire.Heap
	remaining int
}

func (allocator *failingAllocator) Alloc(size, align uint64) (wire.Ptr, error) {
	if allocator.remaining == 0 {
		return 0, wire.ErrOutOfMemory
	}
	allocator.remaining--
	return allocator.Heap.Alloc(size, align)
}

func TestCommand_ArrayLengths(t *testing.T) {
	heap := newTestHeap(t)
	for _, n := range arrayLengths {
		for _, value := range sizedArrays(n) {
			command, ok := value.(tango.CommandValue)
			if !ok {
				continue
			}
			t.Run(fmt.Sprintf("%T/%d", value, n), func(t *testing.T) {
				local, err := EncodeCommand(heap, command)
				if err != nil {
					t.Fatalf("EncodeCommand: %v", err)
				}
				decoded, err := DecodeCommand(asForeign(heap, local))
				if err != nil {
					t.Fatalf("DecodeCommand: %v", err)
				}
				if got := tango.Len(decoded); got != n {
					t.Errorf("length: got %d, want %d", got, n)
				}
				if !reflect.DeepEqual(decoded, command) {
					t.Errorf("got %s, want %s", tango.Format(decoded), tango.Format(command))
				}
			})
		}
	}
	requireBalanced(t, heap)
}
