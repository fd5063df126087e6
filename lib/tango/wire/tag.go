// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "fmt"

// Tag is the foreign TangoDataType code carried in every tagged-union
// record. The numeric values are fixed by the C library; changing any
// of them breaks interoperability.
type Tag uint32

const (
	DevVoid                 Tag = 0
	DevBoolean              Tag = 1
	DevShort                Tag = 2
	DevLong                 Tag = 3
	DevFloat                Tag = 4
	DevDouble               Tag = 5
	DevUShort               Tag = 6
	DevULong                Tag = 7
	DevString               Tag = 8
	DevVarCharArray         Tag = 9
	DevVarShortArray        Tag = 10
	DevVarLongArray         Tag = 11
	DevVarFloatArray        Tag = 12
	DevVarDoubleArray       Tag = 13
	DevVarUShortArray       Tag = 14
	DevVarULongArray        Tag = 15
	DevVarStringArray       Tag = 16
	DevVarLongStringArray   Tag = 17
	DevVarDoubleStringArray Tag = 18
	DevState                Tag = 19
	ConstDevString          Tag = 20
	DevVarBooleanArray      Tag = 21
	DevUChar                Tag = 22
	DevLong64               Tag = 23
	DevULong64              Tag = 24
	DevVarLong64Array       Tag = 25
	DevVarULong64Array      Tag = 26
	DevInt                  Tag = 27
	DevEncoded              Tag = 28
)

// TagCount is the number of codes the ABI defines. Codes are dense
// from zero, so any Tag >= TagCount is unknown.
const TagCount = 29

var tagNames = [TagCount]string{
	"DEV_VOID",
	"DEV_BOOLEAN",
	"DEV_SHORT",
	"DEV_LONG",
	"DEV_FLOAT",
	"DEV_DOUBLE",
	"DEV_USHORT",
	"DEV_ULONG",
	"DEV_STRING",
	"DEVVAR_CHARARRAY",
	"DEVVAR_SHORTARRAY",
	"DEVVAR_LONGARRAY",
	"DEVVAR_FLOATARRAY",
	"DEVVAR_DOUBLEARRAY",
	"DEVVAR_USHORTARRAY",
	"DEVVAR_ULONGARRAY",
	"DEVVAR_STRINGARRAY",
	"DEVVAR_LONGSTRINGARRAY",
	"DEVVAR_DOUBLESTRINGARRAY",
	"DEV_STATE",
	"CONST_DEV_STRING",
	"DEVVAR_BOOLEANARRAY",
	"DEV_UCHAR",
	"DEV_LONG64",
	"DEV_ULONG64",
	"DEVVAR_LONG64ARRAY",
	"DEVVAR_ULONG64ARRAY",
	"DEV_INT",
	"DEV_ENCODED",
}

// Known reports whether tag is one of the codes the ABI defines.
func (tag Tag) Known() bool {
	return tag < TagCount
}

// String returns the C enumerator name (e.g., "DEVVAR_LONGARRAY").
func (tag Tag) String() string {
	if !tag.Known() {
		return fmt.Sprintf("unknown(%d)", uint32(tag))
	}
	return tagNames[tag]
}

// ElementSize returns the size in bytes of one sequence element for
// tags that can appear as an attribute element type or as an array
// tag. Returns 0 for tags with no fixed element (void, composites).
func ElementSize(tag Tag) uint64 {
	switch tag {
	case DevBoolean, DevUChar, DevVarBooleanArray, DevVarCharArray:
		return 1
	case DevShort, DevUShort, DevVarShortArray, DevVarUShortArray:
		return 2
	case DevLong, DevULong, DevFloat, DevState, DevInt,
		DevVarLongArray, DevVarULongArray, DevVarFloatArray:
		return 4
	case DevLong64, DevULong64, DevDouble,
		DevVarLong64Array, DevVarULong64Array, DevVarDoubleArray:
		return 8
	case DevString, ConstDevString, DevVarStringArray:
		return PointerSize
	case DevEncoded:
		return EncodedSize
	default:
		return 0
	}
}

// Enumerant codes of the small C enums that travel inside records.
// Each group is dense from zero.
const (
	StateOn      uint32 = 0
	StateOff     uint32 = 1
	StateClose   uint32 = 2
	StateOpen    uint32 = 3
	StateInsert  uint32 = 4
	StateExtract uint32 = 5
	StateMoving  uint32 = 6
	StateStandby uint32 = 7
	StateFault   uint32 = 8
	StateInit    uint32 = 9
	StateRunning uint32 = 10
	StateAlarm   uint32 = 11
	StateDisable uint32 = 12
	StateUnknown uint32 = 13

	QualityValid    uint32 = 0
	QualityInvalid  uint32 = 1
	QualityAlarm    uint32 = 2
	QualityChanging uint32 = 3
	QualityWarning  uint32 = 4

	WriteRead          uint32 = 0
	WriteReadWithWrite uint32 = 1
	WriteWrite         uint32 = 2
	WriteReadWrite     uint32 = 3

	FormatScalar   uint32 = 0
	FormatSpectrum uint32 = 1
	FormatImage    uint32 = 2

	DispOperator uint32 = 0
	DispExpert   uint32 = 1

	SeverityWarn  uint32 = 0
	SeverityErr   uint32 = 1
	SeverityPanic uint32 = 2

	SourceDev      uint32 = 0
	SourceCache    uint32 = 1
	SourceCacheDev uint32 = 2
)
