// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

// Record layouts for LP64 (x86_64, aarch64 Linux). Offsets are byte
// offsets from the start of the record; Size constants include
// trailing padding so records can be packed into sequences.
//
// C enums are 4 bytes, bool and unsigned char are 1, long and pointers
// are 8. TangoDevLong is a 32-bit int.

// PointerSize is the size of a C pointer.
const PointerSize = 8

// Var*Array: { unsigned int length; T *sequence; }. Also the shape of
// every *List and of ErrorStack and DbData.
const (
	ArrayLength   = 0
	ArraySequence = 8
	ArraySize     = 16
)

// TangoDevEncoded: { char *encoded_format; unsigned int encoded_length;
// unsigned char *encoded_data; }.
const (
	EncodedFormat = 0
	EncodedLength = 8
	EncodedData   = 16
	EncodedSize   = 24
)

// VarLongStringArray and VarDoubleStringArray share one shape: a
// numeric (length, sequence) pair followed by a string pair.
const (
	CompositeNumberLength   = 0
	CompositeNumberSequence = 8
	CompositeStringLength   = 16
	CompositeStringSequence = 24
	CompositeSize           = 32
)

// CommandData: { TangoDataType arg_type; TangoCommandData cmd_data; }.
// The union's largest arm is a composite array.
const (
	CommandTag     = 0
	CommandPayload = 8
	CommandSize    = CommandPayload + CompositeSize
)

// AttributeData. The union holds only array arms; scalars travel as
// one-element (or read/written two-element) sequences.
const (
	AttributeTag       = 0
	AttributePayload   = 8
	AttributeFormat    = 24
	AttributeQuality   = 28
	AttributeReadCount = 32
	AttributeName      = 40
	AttributeDimX      = 48
	AttributeDimY      = 52
	AttributeTimeSec   = 56
	AttributeTimeUsec  = 64
	AttributeSize      = 72
)

// DbDatum: { char *property_name; TangoDataType data_type;
// TangoPropertyData prop_data; bool is_empty; bool wrong_data_type; }.
const (
	DatumName      = 0
	DatumTag       = 8
	DatumPayload   = 16
	DatumIsEmpty   = 32
	DatumWrongType = 33
	DatumSize      = 40
)

// CommandInfo.
const (
	CommandInfoName      = 0
	CommandInfoCmdTag    = 8
	CommandInfoInType    = 12
	CommandInfoOutType   = 16
	CommandInfoInDesc    = 24
	CommandInfoOutDesc   = 32
	CommandInfoDispLevel = 40
	CommandInfoSize      = 48
)

// AttributeInfo.
const (
	AttributeInfoName             = 0
	AttributeInfoWritable         = 8
	AttributeInfoDataFormat       = 12
	AttributeInfoDataType         = 16
	AttributeInfoMaxDimX          = 20
	AttributeInfoMaxDimY          = 24
	AttributeInfoDescription      = 32
	AttributeInfoLabel            = 40
	AttributeInfoUnit             = 48
	AttributeInfoStandardUnit     = 56
	AttributeInfoDisplayUnit      = 64
	AttributeInfoFormat           = 72
	AttributeInfoMinValue         = 80
	AttributeInfoMaxValue         = 88
	AttributeInfoMinAlarm         = 96
	AttributeInfoMaxAlarm         = 104
	AttributeInfoWritableAttrName = 112
	AttributeInfoDispLevel        = 120
	AttributeInfoSize             = 128
)

// DevFailed: { char *desc; char *reason; char *origin; ErrSeverity
// severity; }.
const (
	FailureDesc     = 0
	FailureReason   = 8
	FailureOrigin   = 16
	FailureSeverity = 24
	FailureSize     = 32
)

// RecordAlign is the alignment of every record above: each contains a
// pointer or a 64-bit field.
const RecordAlign = 8
