// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"fmt"
	"math"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// encodeList builds a {length, sequence} list record whose sequence
// holds one size-byte record per value.
func encodeList[T any](allocator wire.Allocator, values []T, size uint64, write func(*builder, wire.Ptr, T), release func(wire.Allocator, wire.Ptr) error) (*wire.Local, error) {
	b := newBuilder(allocator)
	record := b.record(wire.ArraySize)
	if record != 0 {
		writeRecords(b, record, values, size, write)
	}
	return b.finish(record, release)
}

// readList copies a list record built like encodeList's.
func readList[T any](view wire.View, size uint64, read func(*wire.Reader, wire.Ptr) T) ([]T, error) {
	r := wire.NewReader(view.Memory)
	values := readRecords(r, view.Addr, size, read)
	if err := r.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// readEnum maps a code with of, failing r on an unknown code.
func readEnum[T any](r *wire.Reader, at wire.Ptr, of func(uint32) (T, error)) T {
	value, err := of(r.Uint32(at))
	if err != nil && r.Err() == nil {
		r.Fail(err)
	}
	return value
}

func readTag(r *wire.Reader, at wire.Ptr) tango.Kind {
	return readEnum(r, at, func(code uint32) (tango.Kind, error) {
		return KindOf(wire.Tag(code))
	})
}

func readText(r *wire.Reader, at wire.Ptr) string {
	return string(r.CString(r.Pointer(at)))
}

func putDim(b *builder, at wire.Ptr, dim int) {
	if dim < 0 || dim > math.MaxInt32 {
		b.fail(fmt.Errorf("dimension %d: %w", dim, tango.ErrMalformed))
		return
	}
	b.writer.PutInt32(at, int32(dim))
}

// EncodeCommandInfo builds a CommandInfo record.
func EncodeCommandInfo(allocator wire.Allocator, info tango.CommandInfo) (*wire.Local, error) {
	b := newBuilder(allocator)
	record := b.record(wire.CommandInfoSize)
	if record != 0 {
		writeCommandInfo(b, record, info)
	}
	local, err := b.finish(record, releaseCommandInfo)
	if err != nil {
		return nil, fmt.Errorf("encoding command info %q: %w", info.Name, err)
	}
	return local, nil
}

// EncodeCommandInfoList builds a CommandInfoList.
func EncodeCommandInfoList(allocator wire.Allocator, infos []tango.CommandInfo) (*wire.Local, error) {
	local, err := encodeList(allocator, infos, wire.CommandInfoSize, writeCommandInfo, releaseCommandInfoList)
	if err != nil {
		return nil, fmt.Errorf("encoding command list: %w", err)
	}
	return local, nil
}

func writeCommandInfo(b *builder, at wire.Ptr, info tango.CommandInfo) {
	w := b.writer
	b.putString(at.Add(wire.CommandInfoName), []byte(info.Name))
	w.PutUint32(at.Add(wire.CommandInfoInType), uint32(TagOf(info.InType)))
	w.PutUint32(at.Add(wire.CommandInfoOutType), uint32(TagOf(info.OutType)))
	b.putString(at.Add(wire.CommandInfoInDesc), []byte(info.InTypeDesc))
	b.putString(at.Add(wire.CommandInfoOutDesc), []byte(info.OutTypeDesc))
	level, err := dispLevelCode(info.DispLevel)
	b.putEnum(at.Add(wire.CommandInfoDispLevel), level, err)
}

// ReadCommandInfo copies a CommandInfo record.
func ReadCommandInfo(view wire.View) (tango.CommandInfo, error) {
	r := wire.NewReader(view.Memory)
	info := readCommandInfo(r, view.Addr)
	if err := r.Err(); err != nil {
		return tango.CommandInfo{}, fmt.Errorf("reading command info: %w", err)
	}
	return info, nil
}

// DecodeCommandInfo copies a CommandInfo returned by the library and
// releases it.
func DecodeCommandInfo(foreign *wire.Foreign) (tango.CommandInfo, error) {
	return decodeAndRelease(foreign, ReadCommandInfo)
}

// ReadCommandInfoList copies a CommandInfoList.
func ReadCommandInfoList(view wire.View) ([]tango.CommandInfo, error) {
	infos, err := readList(view, wire.CommandInfoSize, readCommandInfo)
	if err != nil {
		return nil, fmt.Errorf("reading command list: %w", err)
	}
	return infos, nil
}

// DecodeCommandInfoList copies a CommandInfoList returned by the
// library and releases it.
func DecodeCommandInfoList(foreign *wire.Foreign) ([]tango.CommandInfo, error) {
	return decodeAndRelease(foreign, ReadCommandInfoList)
}

// The cmd_tag field is not carried: no supported device sets it.
func readCommandInfo(r *wire.Reader, at wire.Ptr) tango.CommandInfo {
	return tango.CommandInfo{
		Name:        readText(r, at.Add(wire.CommandInfoName)),
		InType:      readTag(r, at.Add(wire.CommandInfoInType)),
		OutType:     readTag(r, at.Add(wire.CommandInfoOutType)),
		InTypeDesc:  readText(r, at.Add(wire.CommandInfoInDesc)),
		OutTypeDesc: readText(r, at.Add(wire.CommandInfoOutDesc)),
		DispLevel:   readEnum(r, at.Add(wire.CommandInfoDispLevel), dispLevelOf),
	}
}

var releaseCommandInfo = releaseWith(releaseCommandInfoFields)

var releaseCommandInfoList = releaseWith(func(rel *releaser, at wire.Ptr) {
	rel.records(at, wire.CommandInfoSize, releaseCommandInfoFields)
})

func releaseCommandInfoFields(rel *releaser, at wire.Ptr) {
	rel.free(rel.pointer(at.Add(wire.CommandInfoName)))
	rel.free(rel.pointer(at.Add(wire.CommandInfoInDesc)))
	rel.free(rel.pointer(at.Add(wire.CommandInfoOutDesc)))
}

// attributeInfoStrings lists the string fields of an AttributeInfo
// record with accessors into the Go struct.
var attributeInfoStrings = []struct {
	offset uint64
	field  func(*tango.AttributeInfo) *string
}{
	{wire.AttributeInfoName, func(info *tango.AttributeInfo) *string { return &info.Name }},
	{wire.AttributeInfoDescription, func(info *tango.AttributeInfo) *string { return &info.Description }},
	{wire.AttributeInfoLabel, func(info *tango.AttributeInfo) *string { return &info.Label }},
	{wire.AttributeInfoUnit, func(info *tango.AttributeInfo) *string { return &info.Unit }},
	{wire.AttributeInfoStandardUnit, func(info *tango.AttributeInfo) *string { return &info.StandardUnit }},
	{wire.AttributeInfoDisplayUnit, func(info *tango.AttributeInfo) *string { return &info.DisplayUnit }},
	{wire.AttributeInfoFormat, func(info *tango.AttributeInfo) *string { return &info.Format }},
	{wire.AttributeInfoMinValue, func(info *tango.AttributeInfo) *string { return &info.MinValue }},
	{wire.AttributeInfoMaxValue, func(info *tango.AttributeInfo) *string { return &info.MaxValue }},
	{wire.AttributeInfoMinAlarm, func(info *tango.AttributeInfo) *string { return &info.MinAlarm }},
	{wire.AttributeInfoMaxAlarm, func(info *tango.AttributeInfo) *string { return &info.MaxAlarm }},
	{wire.AttributeInfoWritableAttrName, func(info *tango.AttributeInfo) *string { return &info.WritableAttrName }},
}

// EncodeAttributeInfoList builds an AttributeInfoList.
func EncodeAttributeInfoList(allocator wire.Allocator, infos []tango.AttributeInfo) (*wire.Local, error) {
	local, err := encodeList(allocator, infos, wire.AttributeInfoSize, writeAttributeInfo, releaseAttributeInfoList)
	if err != nil {
		return nil, fmt.Errorf("encoding attribute configuration list: %w", err)
	}
	return local, nil
}

func writeAttributeInfo(b *builder, at wire.Ptr, info tango.AttributeInfo) {
	for _, text := range attributeInfoStrings {
		b.putString(at.Add(text.offset), []byte(*text.field(&info)))
	}
	writable, err := writeTypeCode(info.Writable)
	b.putEnum(at.Add(wire.AttributeInfoWritable), writable, err)
	format, err := formatCode(info.DataFormat)
	b.putEnum(at.Add(wire.AttributeInfoDataFormat), format, err)
	b.writer.PutUint32(at.Add(wire.AttributeInfoDataType), uint32(TagOf(info.DataType)))
	putDim(b, at.Add(wire.AttributeInfoMaxDimX), info.MaxDimX)
	putDim(b, at.Add(wire.AttributeInfoMaxDimY), info.MaxDimY)
	level, err := dispLevelCode(info.DispLevel)
	b.putEnum(at.Add(wire.AttributeInfoDispLevel), level, err)
}

// ReadAttributeInfoList copies an AttributeInfoList.
func ReadAttributeInfoList(view wire.View) ([]tango.AttributeInfo, error) {
	infos, err := readList(view, wire.AttributeInfoSize, readAttributeInfo)
	if err != nil {
		return nil, fmt.Errorf("reading attribute configuration list: %w", err)
	}
	return infos, nil
}

// DecodeAttributeInfoList copies an AttributeInfoList returned by the
// library and releases it.
func DecodeAttributeInfoList(foreign *wire.Foreign) ([]tango.AttributeInfo, error) {
	return decodeAndRelease(foreign, ReadAttributeInfoList)
}

func readAttributeInfo(r *wire.Reader, at wire.Ptr) tango.AttributeInfo {
	var info tango.AttributeInfo
	for _, text := range attributeInfoStrings {
		*text.field(&info) = readText(r, at.Add(text.offset))
	}
	info.Writable = readEnum(r, at.Add(wire.AttributeInfoWritable), writeTypeOf)
	info.DataFormat = readEnum(r, at.Add(wire.AttributeInfoDataFormat), formatOf)
	info.DataType = readTag(r, at.Add(wire.AttributeInfoDataType))
	info.MaxDimX = int(r.Int32(at.Add(wire.AttributeInfoMaxDimX)))
	info.MaxDimY = int(r.Int32(at.Add(wire.AttributeInfoMaxDimY)))
	info.DispLevel = readEnum(r, at.Add(wire.AttributeInfoDispLevel), dispLevelOf)
	return info
}

var releaseAttributeInfoList = releaseWith(func(rel *releaser, at wire.Ptr) {
	rel.records(at, wire.AttributeInfoSize, func(rel *releaser, at wire.Ptr) {
		for _, text := range attributeInfoStrings {
			rel.free(rel.pointer(at.Add(text.offset)))
		}
	})
})

// EncodeErrorStack builds an ErrorStack from a DevFailed error.
func EncodeErrorStack(allocator wire.Allocator, failure *tango.Error) (*wire.Local, error) {
	if failure == nil {
		failure = &tango.Error{}
	}
	local, err := encodeList(allocator, failure.Failures, wire.FailureSize, writeFailure, releaseErrorStack)
	if err != nil {
		return nil, fmt.Errorf("encoding error stack: %w", err)
	}
	return local, nil
}

func writeFailure(b *builder, at wire.Ptr, failure tango.Failure) {
	b.putString(at.Add(wire.FailureDesc), []byte(failure.Desc))
	b.putString(at.Add(wire.FailureReason), []byte(failure.Reason))
	b.putString(at.Add(wire.FailureOrigin), []byte(failure.Origin))
	severity, err := severityCode(failure.Severity)
	b.putEnum(at.Add(wire.FailureSeverity), severity, err)
}

// ReadErrorStack copies an ErrorStack into a *tango.Error.
func ReadErrorStack(view wire.View) (*tango.Error, error) {
	failures, err := readList(view, wire.FailureSize, readFailure)
	if err != nil {
		return nil, fmt.Errorf("reading error stack: %w", err)
	}
	return &tango.Error{Failures: failures}, nil
}

// DecodeErrorStack copies an ErrorStack returned by the library and
// releases it.
func DecodeErrorStack(foreign *wire.Foreign) (*tango.Error, error) {
	return decodeAndRelease(foreign, ReadErrorStack)
}

func readFailure(r *wire.Reader, at wire.Ptr) tango.Failure {
	return tango.Failure{
		Desc:     readText(r, at.Add(wire.FailureDesc)),
		Reason:   readText(r, at.Add(wire.FailureReason)),
		Origin:   readText(r, at.Add(wire.FailureOrigin)),
		Severity: readEnum(r, at.Add(wire.FailureSeverity), severityOf),
	}
}

var releaseErrorStack = releaseWith(func(rel *releaser, at wire.Ptr) {
	rel.records(at, wire.FailureSize, func(rel *releaser, at wire.Ptr) {
		rel.free(rel.pointer(at.Add(wire.FailureDesc)))
		rel.free(rel.pointer(at.Add(wire.FailureReason)))
		rel.free(rel.pointer(at.Add(wire.FailureOrigin)))
	})
})

// EncodeStringList builds a VarStringArray record, the shape of name
// lists such as get_attribute_list and get_device_exported results.
func EncodeStringList(allocator wire.Allocator, names []string) (*wire.Local, error) {
	b := newBuilder(allocator)
	record := b.record(wire.ArraySize)
	if record != 0 {
		values := make([][]byte, len(names))
		for index, name := range names {
			values[index] = []byte(name)
		}
		writeStrings(b, record, values)
	}
	local, err := b.finish(record, releaseStringList)
	if err != nil {
		return nil, fmt.Errorf("encoding %d names: %w", len(names), err)
	}
	return local, nil
}

// ReadStringList copies a VarStringArray record.
func ReadStringList(view wire.View) ([]string, error) {
	r := wire.NewReader(view.Memory)
	values := readStrings(r, view.Addr)
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("reading name list: %w", err)
	}
	names := make([]string, len(values))
	for index, value := range values {
		names[index] = string(value)
	}
	return names, nil
}

// DecodeStringList copies a VarStringArray returned by the library
// and releases it.
func DecodeStringList(foreign *wire.Foreign) ([]string, error) {
	return decodeAndRelease(foreign, ReadStringList)
}

var releaseStringList = releaseWith((*releaser).strings)

// EncodeAttributeDataList builds an AttributeDataList for
// write_attributes. Each entry carries only its Data.
func EncodeAttributeDataList(allocator wire.Allocator, data []tango.AttributeData) (*wire.Local, error) {
	return encodeAttributeList(allocator, data, false)
}

// EncodeAttributeReadingList builds an AttributeDataList as
// read_attributes returns it: every entry is laid out like a
// read_attribute result, with its WrittenData after the read value.
func EncodeAttributeReadingList(allocator wire.Allocator, data []tango.AttributeData) (*wire.Local, error) {
	return encodeAttributeList(allocator, data, true)
}

func encodeAttributeList(allocator wire.Allocator, data []tango.AttributeData, withWritten bool) (*wire.Local, error) {
	write := func(b *builder, at wire.Ptr, entry tango.AttributeData) {
		writeAttribute(b, at, entry, withWritten)
	}
	local, err := encodeList(allocator, data, wire.AttributeSize, write, releaseAttributeDataList)
	if err != nil {
		return nil, fmt.Errorf("encoding %d attribute readings: %w", len(data), err)
	}
	return local, nil
}

// ReadAttributeDataList copies an AttributeDataList. split has the
// meaning it has for [ReadAttribute]: readings are split, written
// values passed to write_attributes are not.
func ReadAttributeDataList(view wire.View, split bool) ([]tango.AttributeData, error) {
	data, err := readList(view, wire.AttributeSize, func(r *wire.Reader, at wire.Ptr) tango.AttributeData {
		return readAttributeEntry(r, at, split)
	})
	if err != nil {
		return nil, fmt.Errorf("reading attribute readings: %w", err)
	}
	return data, nil
}

// DecodeAttributeDataList copies a read_attributes result, splitting
// every entry into read and written values, and releases it.
func DecodeAttributeDataList(foreign *wire.Foreign) ([]tango.AttributeData, error) {
	return decodeAndRelease(foreign, func(view wire.View) ([]tango.AttributeData, error) {
		return ReadAttributeDataList(view, true)
	})
}

func readAttributeEntry(r *wire.Reader, at wire.Ptr, split bool) tango.AttributeData {
	if r.Err() != nil {
		return tango.AttributeData{}
	}
	data, err := readAttribute(r, at, split)
	if err != nil {
		r.Fail(err)
	}
	return data
}

var releaseAttributeDataList = releaseWith(func(rel *releaser, at wire.Ptr) {
	rel.records(at, wire.AttributeSize, releaseAttributeFields)
})
