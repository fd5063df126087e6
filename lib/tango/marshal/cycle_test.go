// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/bureau-foundation/tango/lib/tango"
)

// randomValues generates values of every shape from a seeded source so
// failures reproduce.
type randomValues struct {
	rng *rand.Rand
}

func (g randomValues) length() int {
	// Mostly short, sometimes empty, occasionally long.
	switch n := g.rng.IntN(10); {
	case n == 0:
		return 0
	case n == 9:
		return 200 + g.rng.IntN(800)
	default:
		return 1 + g.rng.IntN(8)
	}
}

func (g randomValues) bytes() []byte {
	data := make([]byte, g.rng.IntN(24))
	for index := range data {
		data[index] = byte(1 + g.rng.IntN(255))
	}
	return data
}

func (g randomValues) strings() [][]byte {
	values := make([][]byte, g.length())
	for index := range values {
		values[index] = g.bytes()
	}
	return values
}

func randomSlice[T any](g randomValues, next func() T) []T {
	values := make([]T, g.length())
	for index := range values {
		values[index] = next()
	}
	return values
}

func (g randomValues) command() tango.CommandValue {
	r := g.rng
	switch r.IntN(26) {
	case 0:
		return tango.Void{}
	case 1:
		return tango.Boolean(r.IntN(2) == 1)
	case 2:
		return tango.Short(r.Int32())
	case 3:
		return tango.UShort(r.Uint32())
	case 4:
		return tango.Long(r.Int32())
	case 5:
		return tango.ULong(r.Uint32())
	case 6:
		return tango.Long64(r.Int64())
	case 7:
		return tango.ULong64(r.Uint64())
	case 8:
		return tango.Float(r.Float32())
	case 9:
		return tango.Double(r.NormFloat64())
	case 10:
		return tango.String(g.bytes())
	case 11:
		return tango.Encoded{Format: string(g.bytes()), Data: g.bytes()}
	case 12:
		return tango.DevState(r.IntN(14))
	case 13:
		return tango.BooleanArray(randomSlice(g, func() bool { return r.IntN(2) == 1 }))
	case 14:
		return tango.UCharArray(randomSlice(g, func() uint8 { return uint8(r.Uint32()) }))
	case 15:
		return tango.ShortArray(randomSlice(g, func() int16 { return int16(r.Int32()) }))
	case 16:
		return tango.UShortArray(randomSlice(g, func() uint16 { return uint16(r.Uint32()) }))
	case 17:
		return tango.LongArray(randomSlice(g, r.Int32))
	case 18:
		return tango.ULongArray(randomSlice(g, r.Uint32))
	case 19:
		return tango.Long64Array(randomSlice(g, r.Int64))
	case 20:
		return tango.ULong64Array(randomSlice(g, r.Uint64))
	case 21:
		return tango.FloatArray(randomSlice(g, r.Float32))
	case 22:
		return tango.DoubleArray(randomSlice(g, r.NormFloat64))
	case 23:
		return tango.StringArray(g.strings())
	case 24:
		return tango.LongStringArray{Longs: randomSlice(g, r.Int32), Strings: g.strings()}
	default:
		return tango.DoubleStringArray{Doubles: randomSlice(g, r.NormFloat64), Strings: g.strings()}
	}
}

// attrValue returns a generator for one attribute kind, so that a
// reading and its set point share a shape.
func (g randomValues) attrValue() func() tango.AttrValue {
	r := g.rng
	makers := []func() tango.AttrValue{
		func() tango.AttrValue { return tango.Boolean(r.IntN(2) == 1) },
		func() tango.AttrValue { return tango.UChar(r.Uint32()) },
		func() tango.AttrValue { return tango.Short(r.Int32()) },
		func() tango.AttrValue { return tango.UShort(r.Uint32()) },
		func() tango.AttrValue { return tango.Long(r.Int32()) },
		func() tango.AttrValue { return tango.ULong(r.Uint32()) },
		func() tango.AttrValue { return tango.Long64(r.Int64()) },
		func() tango.AttrValue { return tango.ULong64(r.Uint64()) },
		func() tango.AttrValue { return tango.Float(r.Float32()) },
		func() tango.AttrValue { return tango.Double(r.NormFloat64()) },
		func() tango.AttrValue { return tango.String(g.bytes()) },
		func() tango.AttrValue { return tango.DevState(r.IntN(14)) },
		func() tango.AttrValue { return tango.Encoded{Format: string(g.bytes()), Data: g.bytes()} },
		func() tango.AttrValue {
			return tango.BooleanArray(randomSlice(g, func() bool { return r.IntN(2) == 1 }))
		},
		func() tango.AttrValue {
			return tango.UCharArray(randomSlice(g, func() uint8 { return uint8(r.Uint32()) }))
		},
		func() tango.AttrValue {
			return tango.ShortArray(randomSlice(g, func() int16 { return int16(r.Int32()) }))
		},
		func() tango.AttrValue {
			return tango.UShortArray(randomSlice(g, func() uint16 { return uint16(r.Uint32()) }))
		},
		func() tango.AttrValue { return tango.LongArray(randomSlice(g, r.Int32)) },
		func() tango.AttrValue { return tango.ULongArray(randomSlice(g, r.Uint32)) },
		func() tango.AttrValue { return tango.Long64Array(randomSlice(g, r.Int64)) },
		func() tango.AttrValue { return tango.ULong64Array(randomSlice(g, r.Uint64)) },
		func() tango.AttrValue { return tango.FloatArray(randomSlice(g, r.Float32)) },
		func() tango.AttrValue { return tango.DoubleArray(randomSlice(g, r.NormFloat64)) },
		func() tango.AttrValue { return tango.StringArray(g.strings()) },
		func() tango.AttrValue {
			return tango.StateArray(randomSlice(g, func() tango.DevState { return tango.DevState(r.IntN(14)) }))
		},
		func() tango.AttrValue {
			return tango.EncodedArray(randomSlice(g, func() tango.Encoded {
				return tango.Encoded{Format: "f", Data: g.bytes()}
			}))
		},
	}
	return makers[r.IntN(len(makers))]
}

func (g randomValues) attribute() tango.AttributeData {
	next := g.attrValue()
	data := tango.SimpleAttribute("attr", next(), testTime)
	if g.rng.IntN(2) == 1 {
		data.WrittenData = next()
	}
	return data
}

var requestKinds = []tango.Kind{
	tango.KindBoolean, tango.KindShort, tango.KindLong, tango.KindDouble,
	tango.KindString, tango.KindLongArray, tango.KindDoubleArray, tango.KindStringArray,
}

func (g randomValues) datum() tango.DbDatum {
	r := g.rng
	var value tango.PropertyValue
	switch r.IntN(19) {
	case 0:
		return tango.RequestDbDatum("p", requestKinds[r.IntN(len(requestKinds))])
	case 1:
		value = tango.Boolean(r.IntN(2) == 1)
	case 2:
		value = tango.UChar(r.Uint32())
	case 3:
		value = tango.Short(r.Int32())
	case 4:
		value = tango.UShort(r.Uint32())
	case 5:
		value = tango.Long(r.Int32())
	case 6:
		value = tango.ULong(r.Uint32())
	case 7:
		value = tango.Long64(r.Int64())
	case 8:
		value = tango.ULong64(r.Uint64())
	case 9:
		value = tango.Float(r.Float32())
	case 10:
		value = tango.Double(r.NormFloat64())
	case 11:
		value = tango.String(g.bytes())
	case 12:
		value = tango.ShortArray(randomSlice(g, func() int16 { return int16(r.Int32()) }))
	case 13:
		value = tango.UShortArray(randomSlice(g, func() uint16 { return uint16(r.Uint32()) }))
	case 14:
		value = tango.LongArray(randomSlice(g, r.Int32))
	case 15:
		value = tango.ULongArray(randomSlice(g, r.Uint32))
	case 16:
		value = tango.FloatArray(randomSlice(g, r.Float32))
	case 17:
		value = tango.DoubleArray(randomSlice(g, r.NormFloat64))
	default:
		value = tango.StringArray(g.strings())
	}
	return tango.NewDbDatum("p", value)
}

func TestRandomizedCycles(t *testing.T) {
	heap := newTestHeap(t)
	g := randomValues{rng: rand.New(rand.NewPCG(1, 2))}

	const cycles = 10_000
	for cycle := range cycles {
		switch cycle % 3 {
		case 0:
			value := g.command()
			local, err := EncodeCommandResult(heap, value)
			if err != nil {
				t.Fatalf("cycle %d: EncodeCommandResult(%s): %v", cycle, value.Kind(), err)
			}
			decoded, err := DecodeCommand(asForeign(heap, local))
			if err != nil {
				t.Fatalf("cycle %d: DecodeCommand: %v", cycle, err)
			}
			if !reflect.DeepEqual(decoded, value) {
				t.Fatalf("cycle %d: got %s, want %s", cycle, tango.Format(decoded), tango.Format(value))
			}
		case 1:
			data := g.attribute()
			local, err := EncodeAttributeReading(heap, data)
			if err != nil {
				t.Fatalf("cycle %d: EncodeAttributeReading: %v", cycle, err)
			}
			decoded, err := DecodeAttribute(asForeign(heap, local))
			if err != nil {
				t.Fatalf("cycle %d: DecodeAttribute: %v", cycle, err)
			}
			if !reflect.DeepEqual(decoded.Data, data.Data) {
				t.Fatalf("cycle %d: read value %s, want %s", cycle, tango.Format(decoded.Data), tango.Format(data.Data))
			}
			if data.WrittenData != nil && !reflect.DeepEqual(decoded.WrittenData, data.WrittenData) {
				t.Fatalf("cycle %d: written value %s, want %s", cycle, tango.Format(decoded.WrittenData), tango.Format(data.WrittenData))
			}
		default:
			datum := g.datum()
			local, err := EncodeDbDatum(heap, datum)
			if err != nil {
				t.Fatalf("cycle %d: EncodeDbDatum: %v", cycle, err)
			}
			decoded, err := DecodeDbDatum(asForeign(heap, local))
			if err != nil {
				t.Fatalf("cycle %d: DecodeDbDatum: %v", cycle, err)
			}
			if !reflect.DeepEqual(decoded, datum) {
				t.Fatalf("cycle %d: got %s, want %s", cycle, tango.FormatDbDatum(decoded), tango.FormatDbDatum(datum))
			}
		}
	}

	stats := heap.Stats()
	if stats.Allocs == 0 {
		t.Fatal("no allocations recorded")
	}
	requireBalanced(t, heap)
}
