// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package marshal

import (
	"fmt"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

var kindByTag = [wire.TagCount]tango.Kind{
	wire.DevVoid:                 tango.KindVoid,
	wire.DevBoolean:              tango.KindBoolean,
	wire.DevShort:                tango.KindShort,
	wire.DevLong:                 tango.KindLong,
	wire.DevFloat:                tango.KindFloat,
	wire.DevDouble:               tango.KindDouble,
	wire.DevUShort:               tango.KindUShort,
	wire.DevULong:                tango.KindULong,
	wire.DevString:               tango.KindString,
	wire.DevVarCharArray:         tango.KindCharArray,
	wire.DevVarShortArray:        tango.KindShortArray,
	wire.DevVarLongArray:         tango.KindLongArray,
	wire.DevVarFloatArray:        tango.KindFloatArray,
	wire.DevVarDoubleArray:       tango.KindDoubleArray,
	wire.DevVarUShortArray:       tango.KindUShortArray,
	wire.DevVarULongArray:        tango.KindULongArray,
	wire.DevVarStringArray:       tango.KindStringArray,
	wire.DevVarLongStringArray:   tango.KindLongStringArray,
	wire.DevVarDoubleStringArray: tango.KindDoubleStringArray,
	wire.DevState:                tango.KindState,
	wire.ConstDevString:          tango.KindConstString,
	wire.DevVarBooleanArray:      tango.KindBooleanArray,
	wire.DevUChar:                tango.KindUChar,
	wire.DevLong64:               tango.KindLong64,
	wire.DevULong64:              tango.KindULong64,
	wire.DevVarLong64Array:       tango.KindLong64Array,
	wire.DevVarULong64Array:      tango.KindULong64Array,
	wire.DevInt:                  tango.KindInt,
	wire.DevEncoded:              tango.KindEncoded,
}

var tagByKind = func() [tango.KindCount]wire.Tag {
	var tags [tango.KindCount]wire.Tag
	for tag, kind := range kindByTag {
		tags[kind] = wire.Tag(tag)
	}
	return tags
}()

// KindOf maps a foreign type code to its logical kind. Codes outside
// the ABI return an error wrapping tango.ErrUnknownTag that names the
// code.
func KindOf(tag wire.Tag) (tango.Kind, error) {
	if !tag.Known() {
		return 0, fmt.Errorf("type code %d: %w", uint32(tag), tango.ErrUnknownTag)
	}
	return kindByTag[tag], nil
}

// TagOf maps a kind to its foreign type code. It is the exact inverse
// of KindOf. Panics on a kind outside tango.Kinds, which no value in
// package tango can produce.
func TagOf(kind tango.Kind) wire.Tag {
	if !kind.Valid() {
		panic(fmt.Sprintf("marshal.TagOf: invalid kind %d", uint8(kind)))
	}
	return tagByKind[kind]
}

// Mapping is one registry entry.
type Mapping struct {
	Tag  wire.Tag
	Kind tango.Kind
}

// Mappings returns the registry in foreign code order.
func Mappings() []Mapping {
	mappings := make([]Mapping, 0, wire.TagCount)
	for tag, kind := range kindByTag {
		mappings = append(mappings, Mapping{Tag: wire.Tag(tag), Kind: kind})
	}
	return mappings
}

// The enum codes of the ABI are dense from zero and share their order
// with the tango enums, so mapping is a range check.

func enumerant[T ~uint8](code, last uint32, what string) (T, error) {
	if code > last {
		return 0, fmt.Errorf("%s code %d: %w", what, code, tango.ErrUnknownEnumerant)
	}
	return T(code), nil
}

func enumerantCode[T ~uint8](value T, last uint32, what string) (uint32, error) {
	if uint32(value) > last {
		return 0, fmt.Errorf("%s %d: %w", what, uint8(value), tango.ErrUnknownEnumerant)
	}
	return uint32(value), nil
}

// StateOf maps a foreign device state code.
func StateOf(code uint32) (tango.DevState, error) {
	return enumerant[tango.DevState](code, wire.StateUnknown, "device state")
}

// StateCode maps a device state to its foreign code.
func StateCode(state tango.DevState) (uint32, error) {
	return enumerantCode(state, wire.StateUnknown, "device state")
}

// SourceOf maps a foreign data source code.
func SourceOf(code uint32) (tango.DevSource, error) {
	return enumerant[tango.DevSource](code, wire.SourceCacheDev, "data source")
}

// SourceCode maps a data source to its foreign code.
func SourceCode(source tango.DevSource) (uint32, error) {
	return enumerantCode(source, wire.SourceCacheDev, "data source")
}

func qualityOf(code uint32) (tango.AttrQuality, error) {
	return enumerant[tango.AttrQuality](code, wire.QualityWarning, "attribute quality")
}

func qualityCode(quality tango.AttrQuality) (uint32, error) {
	return enumerantCode(quality, wire.QualityWarning, "attribute quality")
}

func formatOf(code uint32) (tango.AttrDataFormat, error) {
	return enumerant[tango.AttrDataFormat](code, wire.FormatImage, "attribute format")
}

func formatCode(format tango.AttrDataFormat) (uint32, error) {
	return enumerantCode(format, wire.FormatImage, "attribute format")
}

func writeTypeOf(code uint32) (tango.AttrWriteType, error) {
	return enumerant[tango.AttrWriteType](code, wire.WriteReadWrite, "attribute write type")
}

func writeTypeCode(writeType tango.AttrWriteType) (uint32, error) {
	return enumerantCode(writeType, wire.WriteReadWrite, "attribute write type")
}

func dispLevelOf(code uint32) (tango.DispLevel, error) {
	return enumerant[tango.DispLevel](code, wire.DispExpert, "display level")
}

func dispLevelCode(level tango.DispLevel) (uint32, error) {
	return enumerantCode(level, wire.DispExpert, "display level")
}

func severityOf(code uint32) (tango.ErrSeverity, error) {
	return enumerant[tango.ErrSeverity](code, wire.SeverityPanic, "error severity")
}

func severityCode(severity tango.ErrSeverity) (uint32, error) {
	return enumerantCode(severity, wire.SeverityPanic, "error severity")
}
