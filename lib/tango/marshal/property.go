// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"fmt"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// EncodeDbDatum builds a DbDatum record. A datum with Empty data is
// written with is_empty set and its RequestType, if any, in the type
// field: that is how a get request names the kind it wants back. A
// datum flagged WrongDataType is written with is_empty clear so that
// the flag survives decoding.
func EncodeDbDatum(allocator wire.Allocator, datum tango.DbDatum) (*wire.Local, error) {
	b := newBuilder(allocator)
	record := b.record(wire.DatumSize)
	if record != 0 {
		writeDbDatum(b, record, datum)
	}
	local, err := b.finish(record, releaseDbDatum)
	if err != nil {
		return nil, fmt.Errorf("encoding property %q: %w", datum.Name, err)
	}
	return local, nil
}

// EncodeDbData builds a DbData list of datums.
func EncodeDbData(allocator wire.Allocator, data []tango.DbDatum) (*wire.Local, error) {
	b := newBuilder(allocator)
	record := b.record(wire.ArraySize)
	if record != 0 {
		writeRecords(b, record, data, wire.DatumSize, writeDbDatum)
	}
	local, err := b.finish(record, releaseDbData)
	if err != nil {
		return nil, fmt.Errorf("encoding %d properties: %w", len(data), err)
	}
	return local, nil
}

func writeDbDatum(b *builder, at wire.Ptr, datum tango.DbDatum) {
	if err := datum.Validate(); err != nil {
		b.fail(err)
		return
	}
	w := b.writer
	b.putString(at.Add(wire.DatumName), []byte(datum.Name))
	w.PutBool(at.Add(wire.DatumWrongType), datum.WrongDataType)
	if datum.IsEmpty() {
		w.PutUint32(at.Add(wire.DatumTag), uint32(TagOf(datum.RequestType)))
		w.PutBool(at.Add(wire.DatumIsEmpty), !datum.WrongDataType)
		return
	}
	w.PutUint32(at.Add(wire.DatumTag), uint32(TagOf(datum.Data.Kind())))
	writePropertyPayload(b, at.Add(wire.DatumPayload), datum.Data)
}

func writePropertyPayload(b *builder, at wire.Ptr, value tango.PropertyValue) {
	w := b.writer
	switch v := value.(type) {
	case tango.Boolean:
		w.PutBool(at, bool(v))
	case tango.UChar:
		w.PutUint8(at, uint8(v))
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
	case tango.ShortArray:
		writeNumbers(b, at, v, int16Element)
	case tango.UShortArray:
		writeNumbers(b, at, v, uint16Element)
	case tango.LongArray:
		writeNumbers(b, at, v, int32Element)
	case tango.ULongArray:
		writeNumbers(b, at, v, uint32Element)
	case tango.FloatArray:
		writeNumbers(b, at, v, float32Element)
	case tango.DoubleArray:
		writeNumbers(b, at, v, float64Element)
	case tango.StringArray:
		writeStrings(b, at, v)
	default:
		b.fail(fmt.Errorf("%T as property data: %w", value, tango.ErrUnsupportedKind))
	}
}

// ReadDbDatum copies a DbDatum record.
//
// is_empty wins over everything else, including an unknown type code:
// the result has Empty data, with RequestType set to the kind the
// code names when it is known. wrong_data_type yields Empty data with
// WrongDataType set. Otherwise the type code selects the payload arm.
func ReadDbDatum(view wire.View) (tango.DbDatum, error) {
	r := wire.NewReader(view.Memory)
	datum := readDbDatum(r, view.Addr)
	if err := r.Err(); err != nil {
		return tango.DbDatum{}, fmt.Errorf("reading property %q: %w", datum.Name, err)
	}
	return datum, nil
}

// DecodeDbDatum copies a DbDatum record returned by the library and
// releases it.
func DecodeDbDatum(foreign *wire.Foreign) (tango.DbDatum, error) {
	return decodeAndRelease(foreign, ReadDbDatum)
}

// ReadDbData copies a DbData list.
func ReadDbData(view wire.View) ([]tango.DbDatum, error) {
	r := wire.NewReader(view.Memory)
	data := readRecords(r, view.Addr, wire.DatumSize, readDbDatum)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading property list: %w", err)
	}
	return data, nil
}

// DecodeDbData copies a DbData list returned by the library and
// releases it.
func DecodeDbData(foreign *wire.Foreign) ([]tango.DbDatum, error) {
	return decodeAndRelease(foreign, ReadDbData)
}

func readDbDatum(r *wire.Reader, at wire.Ptr) tango.DbDatum {
	name := r.CString(r.Pointer(at.Add(wire.DatumName)))
	tag := wire.Tag(r.Uint32(at.Add(wire.DatumTag)))
	empty := r.Bool(at.Add(wire.DatumIsEmpty))
	wrongType := r.Bool(at.Add(wire.DatumWrongType))
	datum := tango.DbDatum{Name: string(name), Data: tango.Empty{}}
	if r.Err() != nil {
		return datum
	}

	if empty || wrongType {
		datum.WrongDataType = wrongType && !empty
		if kind, err := KindOf(tag); err == nil {
			datum.RequestType = kind
		}
		return datum
	}

	kind, err := KindOf(tag)
	if err != nil {
		r.Fail(err)
		return datum
	}
	value := readPropertyPayload(r, kind, at.Add(wire.DatumPayload))
	if r.Err() == nil {
		datum.Data = value
	}
	return datum
}

func readPropertyPayload(r *wire.Reader, kind tango.Kind, at wire.Ptr) tango.PropertyValue {
	switch kind {
	case tango.KindVoid:
		return tango.Empty{}
	case tango.KindBoolean:
		return tango.Boolean(r.Bool(at))
	case tango.KindUChar:
		return tango.UChar(r.Uint8(at))
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
	case tango.KindShortArray:
		return tango.ShortArray(readNumbers(r, at, int16Element))
	case tango.KindUShortArray:
		return tango.UShortArray(readNumbers(r, at, uint16Element))
	case tango.KindLongArray:
		return tango.LongArray(readNumbers(r, at, int32Element))
	case tango.KindULongArray:
		return tango.ULongArray(readNumbers(r, at, uint32Element))
	case tango.KindFloatArray:
		return tango.FloatArray(readNumbers(r, at, float32Element))
	case tango.KindDoubleArray:
		return tango.DoubleArray(readNumbers(r, at, float64Element))
	case tango.KindStringArray:
		return tango.StringArray(readStrings(r, at))
	default:
		r.Fail(fmt.Errorf("%s as property data: %w", kind, tango.ErrUnsupportedKind))
		return nil
	}
}

var releaseDbDatum = releaseWith(releaseDbDatumFields)

var releaseDbData = releaseWith(func(rel *releaser, at wire.Ptr) {
	rel.records(at, wire.DatumSize, releaseDbDatumFields)
})

func releaseDbDatumFields(rel *releaser, at wire.Ptr) {
	rel.free(rel.pointer(at.Add(wire.DatumName)))
	if rel.reader.Bool(at.Add(wire.DatumIsEmpty)) {
		return
	}
	tag := wire.Tag(rel.reader.Uint32(at.Add(wire.DatumTag)))
	rel.inlinePayload(tag, at.Add(wire.DatumPayload))
}
