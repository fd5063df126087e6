// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// EncodeCommand builds a CommandData record carrying a command_inout
// argument. DevState is rejected with tango.ErrUnsupportedDirection:
// devices return states but never accept them.
func EncodeCommand(allocator wire.Allocator, value tango.CommandValue) (*wire.Local, error) {
	if _, ok := value.(tango.DevState); ok {
		return nil, fmt.Errorf("encoding %s command argument: %w", tango.KindState, tango.ErrUnsupportedDirection)
	}
	return encodeCommand(allocator, value)
}

// EncodeCommandResult builds a CommandData record as a device returns
// it. Unlike EncodeCommand it accepts DevState.
func EncodeCommandResult(allocator wire.Allocator, value tango.CommandValue) (*wire.Local, error) {
	return encodeCommand(allocator, value)
}

func encodeCommand(allocator wire.Allocator, value tango.CommandValue) (*wire.Local, error) {
	if value == nil {
		return nil, errors.New("encoding command data: nil value")
	}
	b := newBuilder(allocator)
	record := b.record(wire.CommandSize)
	if record != 0 {
		b.writer.PutUint32(record.Add(wire.CommandTag), uint32(TagOf(value.Kind())))
		writeCommandPayload(b, record.Add(wire.CommandPayload), value)
	}
	local, err := b.finish(record, releaseCommand)
	if err != nil {
		return nil, fmt.Errorf("encoding %s command data: %w", value.Kind(), err)
	}
	return local, nil
}

func writeCommandPayload(b *builder, at wire.Ptr, value tango.CommandValue) {
	w := b.writer
	switch v := value.(type) {
	case tango.Void:
	case tango.Boolean:
		w.PutBool(at, bool(v))
	case tango.Short:
		w.PutInt16(at, int16(v))
	case tango.UShort:
		w.PutUint16(at, uint16(v))
	case tango.Long:
		w.PutInt32(at, int32(v))
	case tango.ULong:
		w.PutUint32(at, uint32(v))
	case tango.Long64:
		w.PutInt64(at, int64(v))
	case tango.ULong64:
		w.PutUint64(at, uint64(v))
	case tango.Float:
		w.PutFloat32(at, float32(v))
	case tango.Double:
		w.PutFloat64(at, float64(v))
	case tango.String:
		b.putString(at, v)
	case tango.DevState:
		code, err := StateCode(v)
		b.putEnum(at, code, err)
	case tango.Encoded:
		writeEncoded(b, at, v)
	case tango.BooleanArray:
		writeNumbers(b, at, v, boolElement)
	case tango.UCharArray:
		writeNumbers(b, at, v, uint8Element)
	case tango.ShortArray:
		writeNumbers(b, at, v, int16Element)
	case tango.UShortArray:
		writeNumbers(b, at, v, uint16Element)
	case tango.LongArray:
		writeNumbers(b, at, v, int32Element)
	case tango.ULongArray:
		writeNumbers(b, at, v, uint32Element)
	case tango.Long64Array:
		writeNumbers(b, at, v, int64Element)
	case tango.ULong64Array:
		writeNumbers(b, at, v, uint64Element)
	case tango.FloatArray:
		writeNumbers(b, at, v, float32Element)
	case tango.DoubleArray:
		writeNumbers(b, at, v, float64Element)
	case tango.StringArray:
		writeStrings(b, at, v)
	case tango.LongStringArray:
		writeNumbers(b, at.Add(wire.CompositeNumberLength), v.Longs, int32Element)
		writeStrings(b, at.Add(wire.CompositeStringLength), v.Strings)
	case tango.DoubleStringArray:
		writeNumbers(b, at.Add(wire.CompositeNumberLength), v.Doubles, float64Element)
		writeStrings(b, at.Add(wire.CompositeStringLength), v.Strings)
	default:
		b.fail(fmt.Errorf("%T as command data: %w", value, tango.ErrUnsupportedKind))
	}
}

// ReadCommand copies a CommandData record.
func ReadCommand(view wire.View) (tango.CommandValue, error) {
	r := wire.NewReader(view.Memory)
	tag := wire.Tag(r.Uint32(view.Addr.Add(wire.CommandTag)))
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading command data: %w", err)
	}
	kind, err := KindOf(tag)
	if err != nil {
		return nil, fmt.Errorf("reading command data: %w", err)
	}
	value := readCommandPayload(r, kind, view.Addr.Add(wire.CommandPayload))
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading %s command data: %w", kind, err)
	}
	return value, nil
}

// DecodeCommand copies a CommandData record returned by the library
// and releases it.
func DecodeCommand(foreign *wire.Foreign) (tango.CommandValue, error) {
	return decodeAndRelease(foreign, ReadCommand)
}

func readCommandPayload(r *wire.Reader, kind tango.Kind, at wire.Ptr) tango.CommandValue {
	switch kind {
	case tango.KindVoid:
		return tango.Void{}
	case tango.KindBoolean:
		return tango.Boolean(r.Bool(at))
	case tango.KindShort:
		return tango.Short(r.Int16(at))
	case tango.KindUShort:
		return tango.UShort(r.Uint16(at))
	case tango.KindLong, tango.KindInt:
		return tango.Long(r.Int32(at))
	case tango.KindULong:
		return tango.ULong(r.Uint32(at))
	case tango.KindLong64:
		return tango.Long64(r.Int64(at))
	case tango.KindULong64:
		return tango.ULong64(r.Uint64(at))
	case tango.KindFloat:
		return tango.Float(r.Float32(at))
	case tango.KindDouble:
		return tango.Double(r.Float64(at))
	case tango.KindString, tango.KindConstString:
		return tango.String(r.CString(r.Pointer(at)))
	case tango.KindState:
		return readState(r, r.Uint32(at))
	case tango.KindEncoded:
		return readEncoded(r, at)
	case tango.KindBooleanArray:
		return tango.BooleanArray(readNumbers(r, at, boolElement))
	case tango.KindCharArray:
		return tango.UCharArray(readNumbers(r, at, uint8Element))
	case tango.KindShortArray:
		return tango.ShortArray(readNumbers(r, at, int16Element))
	case tango.KindUShortArray:
		return tango.UShortArray(readNumbers(r, at, uint16Element))
	case tango.KindLongArray:
		return tango.LongArray(readNumbers(r, at, int32Element))
	case tango.KindULongArray:
		return tango.ULongArray(readNumbers(r, at, uint32Element))
	case tango.KindLong64Array:
		return tango.Long64Array(readNumbers(r, at, int64Element))
	case tango.KindULong64Array:
		return tango.ULong64Array(readNumbers(r, at, uint64Element))
	case tango.KindFloatArray:
		return tango.FloatArray(readNumbers(r, at, float32Element))
	case tango.KindDoubleArray:
		return tango.DoubleArray(readNumbers(r, at, float64Element))
	case tango.KindStringArray:
		return tango.StringArray(readStrings(r, at))
	case tango.KindLongStringArray:
		return tango.LongStringArray{
			Longs:   readNumbers(r, at.Add(wire.CompositeNumberLength), int32Element),
			Strings: readStrings(r, at.Add(wire.CompositeStringLength)),
		}
	case tango.KindDoubleStringArray:
		return tango.DoubleStringArray{
			Doubles: readNumbers(r, at.Add(wire.CompositeNumberLength), float64Element),
			Strings: readStrings(r, at.Add(wire.CompositeStringLength)),
		}
	default:
		// DevUChar: the command union has no unsigned char arm.
		r.Fail(fmt.Errorf("%s as command data: %w", kind, tango.ErrUnsupportedKind))
		return nil
	}
}

var releaseCommand = releaseWith(func(rel *releaser, addr wire.Ptr) {
	tag := wire.Tag(rel.reader.Uint32(addr.Add(wire.CommandTag)))
	rel.inlinePayload(tag, addr.Add(wire.CommandPayload))
})
