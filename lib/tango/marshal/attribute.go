// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// EncodeAttribute builds an AttributeData record for write_attribute.
// Only Data is sent; WrittenData is ignored. A scalar travels as a
// one-element sequence.
func EncodeAttribute(allocator wire.Allocator, data tango.AttributeData) (*wire.Local, error) {
	return encodeAttribute(allocator, data, false)
}

// EncodeAttributeReading builds the record a device returns from
// read_attribute: the read value followed by WrittenData in one
// sequence, with the read count marking the split.
func EncodeAttributeReading(allocator wire.Allocator, data tango.AttributeData) (*wire.Local, error) {
	return encodeAttribute(allocator, data, true)
}

func encodeAttribute(allocator wire.Allocator, data tango.AttributeData, withWritten bool) (*wire.Local, error) {
	b := newBuilder(allocator)
	record := b.record(wire.AttributeSize)
	if record != 0 {
		writeAttribute(b, record, data, withWritten)
	}
	local, err := b.finish(record, releaseAttribute)
	if err != nil {
		return nil, fmt.Errorf("encoding attribute %q: %w", data.Name, err)
	}
	return local, nil
}

func writeAttribute(b *builder, at wire.Ptr, data tango.AttributeData, withWritten bool) {
	if data.Data == nil {
		b.fail(errors.New("attribute has no value"))
		return
	}
	element, _ := tango.Shape(data.Data)
	flat := flatten(data.Data)
	readCount := tango.Len(flat)
	if withWritten && data.WrittenData != nil {
		joined, err := joinAttr(flat, flatten(data.WrittenData))
		if err != nil {
			b.fail(err)
			return
		}
		flat = joined
	}

	w := b.writer
	w.PutUint32(at.Add(wire.AttributeTag), uint32(TagOf(element)))
	writeAttrArray(b, at.Add(wire.AttributePayload), flat)
	format, err := formatCode(data.Format)
	b.putEnum(at.Add(wire.AttributeFormat), format, err)
	quality, err := qualityCode(data.Quality)
	b.putEnum(at.Add(wire.AttributeQuality), quality, err)
	w.PutInt64(at.Add(wire.AttributeReadCount), int64(readCount))
	b.putString(at.Add(wire.AttributeName), []byte(data.Name))
	if data.DimX > math.MaxInt32 || data.DimY > math.MaxInt32 || data.DimX < 0 || data.DimY < 0 {
		b.fail(fmt.Errorf("dimensions %dx%d: %w", data.DimX, data.DimY, tango.ErrMalformed))
		return
	}
	w.PutInt32(at.Add(wire.AttributeDimX), int32(data.DimX))
	w.PutInt32(at.Add(wire.AttributeDimY), int32(data.DimY))
	if !data.TimeStamp.IsZero() {
		w.PutInt64(at.Add(wire.AttributeTimeSec), data.TimeStamp.Unix())
		w.PutInt64(at.Add(wire.AttributeTimeUsec), int64(data.TimeStamp.Nanosecond()/1000))
	}
}

func writeAttrArray(b *builder, at wire.Ptr, flat tango.AttrValue) {
	switch v := flat.(type) {
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
	case tango.StateArray:
		writeStates(b, at, v)
	case tango.EncodedArray:
		writeEncodedArray(b, at, v)
	default:
		b.fail(fmt.Errorf("%T as attribute data: %w", flat, tango.ErrUnsupportedKind))
	}
}

// ReadAttribute copies an AttributeData record. With split set, the
// sequence is divided into the read value and the written set point
// (see [SplitReading]); without it, as for write_attribute arguments,
// Data holds the whole value and WrittenData is nil.
func ReadAttribute(view wire.View, split bool) (tango.AttributeData, error) {
	r := wire.NewReader(view.Memory)
	data, err := readAttribute(r, view.Addr, split)
	if err != nil {
		return tango.AttributeData{}, err
	}
	return data, nil
}

// DecodeAttribute copies a read_attribute result, splitting it into
// read and written values, and releases it.
func DecodeAttribute(foreign *wire.Foreign) (tango.AttributeData, error) {
	return decodeAndRelease(foreign, func(view wire.View) (tango.AttributeData, error) {
		return ReadAttribute(view, true)
	})
}

func readAttribute(r *wire.Reader, at wire.Ptr, split bool) (tango.AttributeData, error) {
	tag := wire.Tag(r.Uint32(at.Add(wire.AttributeTag)))
	if err := r.Err(); err != nil {
		return tango.AttributeData{}, fmt.Errorf("reading attribute data: %w", err)
	}
	kind, err := KindOf(tag)
	if err != nil {
		return tango.AttributeData{}, fmt.Errorf("reading attribute data: %w", err)
	}
	element, ok := attributeElement(kind)
	if !ok {
		return tango.AttributeData{}, fmt.Errorf("%s as attribute element: %w", kind, tango.ErrUnsupportedKind)
	}

	format, err := formatOf(r.Uint32(at.Add(wire.AttributeFormat)))
	if err != nil {
		return tango.AttributeData{}, fmt.Errorf("reading attribute data: %w", err)
	}
	quality, err := qualityOf(r.Uint32(at.Add(wire.AttributeQuality)))
	if err != nil {
		return tango.AttributeData{}, fmt.Errorf("reading attribute data: %w", err)
	}
	readCount := r.Int64(at.Add(wire.AttributeReadCount))
	name := r.CString(r.Pointer(at.Add(wire.AttributeName)))
	dimX := r.Int32(at.Add(wire.AttributeDimX))
	dimY := r.Int32(at.Add(wire.AttributeDimY))
	seconds := r.Int64(at.Add(wire.AttributeTimeSec))
	microseconds := r.Int64(at.Add(wire.AttributeTimeUsec))
	flat := readAttrArray(r, element, at.Add(wire.AttributePayload))
	if err := r.Err(); err != nil {
		return tango.AttributeData{}, fmt.Errorf("reading %s attribute %q: %w", element, name, err)
	}

	data := tango.AttributeData{
		Name:    string(name),
		Format:  format,
		Quality: quality,
		DimX:    int(dimX),
		DimY:    int(dimY),
	}
	if seconds != 0 || microseconds != 0 {
		data.TimeStamp = time.Unix(seconds, microseconds*1000)
	}
	if split {
		data.Data, data.WrittenData, err = SplitReading(flat, element, format, quality, readCount)
	} else {
		data.Data, err = currentValue(flat, element, format, quality)
	}
	if err != nil {
		return tango.AttributeData{}, fmt.Errorf("attribute %q: %w", data.Name, err)
	}
	return data, nil
}

// attributeElement maps the record's type field to the element kind
// its sequence holds.
func attributeElement(kind tango.Kind) (tango.Kind, bool) {
	switch kind {
	case tango.KindBoolean, tango.KindUChar, tango.KindShort, tango.KindUShort,
		tango.KindLong, tango.KindULong, tango.KindLong64, tango.KindULong64,
		tango.KindFloat, tango.KindDouble, tango.KindString, tango.KindState,
		tango.KindEncoded:
		return kind, true
	case tango.KindInt:
		return tango.KindLong, true
	case tango.KindConstString:
		return tango.KindString, true
	default:
		return 0, false
	}
}

func readAttrArray(r *wire.Reader, element tango.Kind, at wire.Ptr) tango.AttrValue {
	switch element {
	case tango.KindBoolean:
		return tango.BooleanArray(readNumbers(r, at, boolElement))
	case tango.KindUChar:
		return tango.UCharArray(readNumbers(r, at, uint8Element))
	case tango.KindShort:
		return tango.ShortArray(readNumbers(r, at, int16Element))
	case tango.KindUShort:
		return tango.UShortArray(readNumbers(r, at, uint16Element))
	case tango.KindLong:
		return tango.LongArray(readNumbers(r, at, int32Element))
	case tango.KindULong:
		return tango.ULongArray(readNumbers(r, at, uint32Element))
	case tango.KindLong64:
		return tango.Long64Array(readNumbers(r, at, int64Element))
	case tango.KindULong64:
		return tango.ULong64Array(readNumbers(r, at, uint64Element))
	case tango.KindFloat:
		return tango.FloatArray(readNumbers(r, at, float32Element))
	case tango.KindDouble:
		return tango.DoubleArray(readNumbers(r, at, float64Element))
	case tango.KindString:
		return tango.StringArray(readStrings(r, at))
	case tango.KindState:
		return tango.StateArray(readStates(r, at))
	default:
		return tango.EncodedArray(readEncodedArray(r, at))
	}
}

// SplitReading divides the flat sequence of a reading into the read
// value and the written set point.
//
// For SCALAR attributes the first element is the read value and the
// second, when present, the set point; a lone element gets the
// default set point for its kind. An empty scalar sequence is only
// valid with quality INVALID, and yields defaults for both.
//
// For SPECTRUM and IMAGE attributes the first readCount elements are
// the read value and the rest are the set point. A readCount outside
// [0, len] is tango.ErrMalformed.
func SplitReading(flat tango.AttrValue, element tango.Kind, format tango.AttrDataFormat, quality tango.AttrQuality, readCount int64) (read, written tango.AttrValue, err error) {
	count := tango.Len(flat)
	if format == tango.Scalar {
		if count == 0 {
			return emptyScalar(element, quality, true)
		}
		read = scalarAt(flat, 0)
		if count >= 2 {
			return read, scalarAt(flat, 1), nil
		}
		written, err = tango.DefaultAttrValue(element, false)
		if err != nil {
			return nil, nil, err
		}
		return read, written, nil
	}
	if readCount < 0 || readCount > int64(count) {
		return nil, nil, fmt.Errorf("read count %d outside sequence of %d: %w", readCount, count, tango.ErrMalformed)
	}
	read, written = splitAttr(flat, int(readCount))
	return read, written, nil
}

func currentValue(flat tango.AttrValue, element tango.Kind, format tango.AttrDataFormat, quality tango.AttrQuality) (tango.AttrValue, error) {
	if format != tango.Scalar {
		return flat, nil
	}
	if tango.Len(flat) == 0 {
		read, _, err := emptyScalar(element, quality, false)
		return read, err
	}
	return scalarAt(flat, 0), nil
}

func emptyScalar(element tango.Kind, quality tango.AttrQuality, withWritten bool) (read, written tango.AttrValue, err error) {
	if quality != tango.QualityInvalid {
		return nil, nil, fmt.Errorf("scalar reading with no value and quality %s: %w", quality, tango.ErrMalformed)
	}
	read, err = tango.DefaultAttrValue(element, false)
	if err != nil {
		return nil, nil, err
	}
	if withWritten {
		written = read
	}
	return read, written, nil
}

// flatten turns a scalar into the one-element sequence the attribute
// union carries. Arrays are returned unchanged.
func flatten(value tango.AttrValue) tango.AttrValue {
	switch v := value.(type) {
	case tango.Boolean:
		return tango.BooleanArray{bool(v)}
	case tango.UChar:
		return tango.UCharArray{uint8(v)}
	case tango.Short:
		return tango.ShortArray{int16(v)}
	case tango.UShort:
		return tango.UShortArray{uint16(v)}
	case tango.Long:
		return tango.LongArray{int32(v)}
	case tango.ULong:
		return tango.ULongArray{uint32(v)}
	case tango.Long64:
		return tango.Long64Array{int64(v)}
	case tango.ULong64:
		return tango.ULong64Array{uint64(v)}
	case tango.Float:
		return tango.FloatArray{float32(v)}
	case tango.Double:
		return tango.DoubleArray{float64(v)}
	case tango.String:
		return tango.StringArray{[]byte(v)}
	case tango.DevState:
		return tango.StateArray{v}
	case tango.Encoded:
		return tango.EncodedArray{v}
	default:
		return value
	}
}

func scalarAt(flat tango.AttrValue, index int) tango.AttrValue {
	switch v := flat.(type) {
	case tango.BooleanArray:
		return tango.Boolean(v[index])
	case tango.UCharArray:
		return tango.UChar(v[index])
	case tango.ShortArray:
		return tango.Short(v[index])
	case tango.UShortArray:
		return tango.UShort(v[index])
	case tango.LongArray:
		return tango.Long(v[index])
	case tango.ULongArray:
		return tango.ULong(v[index])
	case tango.Long64Array:
		return tango.Long64(v[index])
	case tango.ULong64Array:
		return tango.ULong64(v[index])
	case tango.FloatArray:
		return tango.Float(v[index])
	case tango.DoubleArray:
		return tango.Double(v[index])
	case tango.StringArray:
		return tango.String(v[index])
	case tango.StateArray:
		return v[index]
	case tango.EncodedArray:
		return v[index]
	default:
		panic(fmt.Sprintf("marshal: scalarAt on %T", flat))
	}
}

type attrArray[E any] interface {
	~[]E
	tango.AttrValue
}

// splitAt divides a sequence with capacity-limited halves, so growing
// the read half can never overwrite the written half.
func splitAt[T attrArray[E], E any](flat T, index int) (tango.AttrValue, tango.AttrValue) {
	return flat[:index:index], flat[index:]
}

func splitAttr(flat tango.AttrValue, index int) (tango.AttrValue, tango.AttrValue) {
	switch v := flat.(type) {
	case tango.BooleanArray:
		return splitAt(v, index)
	case tango.UCharArray:
		return splitAt(v, index)
	case tango.ShortArray:
		return splitAt(v, index)
	case tango.UShortArray:
		return splitAt(v, index)
	case tango.LongArray:
		return splitAt(v, index)
	case tango.ULongArray:
		return splitAt(v, index)
	case tango.Long64Array:
		return splitAt(v, index)
	case tango.ULong64Array:
		return splitAt(v, index)
	case tango.FloatArray:
		return splitAt(v, index)
	case tango.DoubleArray:
		return splitAt(v, index)
	case tango.StringArray:
		return splitAt(v, index)
	case tango.StateArray:
		return splitAt(v, index)
	case tango.EncodedArray:
		return splitAt(v, index)
	default:
		panic(fmt.Sprintf("marshal: splitAttr on %T", flat))
	}
}

func joinSlices[T attrArray[E], E any](read T, written tango.AttrValue) (tango.AttrValue, error) {
	tail, ok := written.(T)
	if !ok {
		return nil, fmt.Errorf("written value %T does not match read value %T", written, read)
	}
	joined := make(T, 0, len(read)+len(tail))
	joined = append(joined, read...)
	joined = append(joined, tail...)
	return joined, nil
}

func joinAttr(read, written tango.AttrValue) (tango.AttrValue, error) {
	switch v := read.(type) {
	case tango.BooleanArray:
		return joinSlices(v, written)
	case tango.UCharArray:
		return joinSlices(v, written)
	case tango.ShortArray:
		return joinSlices(v, written)
	case tango.UShortArray:
		return joinSlices(v, written)
	case tango.LongArray:
		return joinSlices(v, written)
	case tango.ULongArray:
		return joinSlices(v, written)
	case tango.Long64Array:
		return joinSlices(v, written)
	case tango.ULong64Array:
		return joinSlices(v, written)
	case tango.FloatArray:
		return joinSlices(v, written)
	case tango.DoubleArray:
		return joinSlices(v, written)
	case tango.StringArray:
		return joinSlices(v, written)
	case tango.StateArray:
		return joinSlices(v, written)
	case tango.EncodedArray:
		return joinSlices(v, written)
	default:
		return nil, fmt.Errorf("%T as attribute data: %w", read, tango.ErrUnsupportedKind)
	}
}

var releaseAttribute = releaseWith(releaseAttributeFields)

func releaseAttributeFields(rel *releaser, at wire.Ptr) {
	tag := wire.Tag(rel.reader.Uint32(at.Add(wire.AttributeTag)))
	rel.arrayPayload(tag, at.Add(wire.AttributePayload))
	rel.free(rel.pointer(at.Add(wire.AttributeName)))
}
