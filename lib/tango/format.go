// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tango

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/blake3"
)

// encodedDomainKey separates digests of encoded blobs from every other
// BLAKE3 use in the module. ASCII, zero-padded to 32 bytes.
var encodedDomainKey = [32]byte{
	't', 'a', 'n', 'g', 'o', '.', 'e', 'n', 'c', 'o', 'd', 'e', 'd', 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// EncodedDigest returns the keyed BLAKE3 digest of an encoded blob's
// data. Display code shows a prefix of it instead of the raw bytes.
func EncodedDigest(data []byte) [32]byte {
	hasher, err := blake3.NewKeyed(encodedDomainKey[:])
	if err != nil {
		panic("tango: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest
}

// Format renders a value for display. Strings that are valid UTF-8 are
// quoted; other byte strings are shown as hex. Encoded blobs show
// their format, size, and a digest prefix.
func Format(value Value) string {
	switch v := value.(type) {
	case nil:
		return "<nil>"
	case Void:
		return "void"
	case Empty:
		return "empty"
	case Boolean:
		return strconv.FormatBool(bool(v))
	case UChar:
		return strconv.FormatUint(uint64(v), 10)
	case Short:
		return strconv.FormatInt(int64(v), 10)
	case UShort:
		return strconv.FormatUint(uint64(v), 10)
	case Long:
		return strconv.FormatInt(int64(v), 10)
	case ULong:
		return strconv.FormatUint(uint64(v), 10)
	case Long64:
		return strconv.FormatInt(int64(v), 10)
	case ULong64:
		return strconv.FormatUint(uint64(v), 10)
	case Float:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case Double:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case String:
		return formatBytes(v)
	case DevState:
		return v.String()
	case Encoded:
		return formatEncoded(v)
	case BooleanArray:
		return formatList(v, func(b bool) string { return strconv.FormatBool(b) })
	case UCharArray:
		return formatList(v, func(n uint8) string { return strconv.FormatUint(uint64(n), 10) })
	case ShortArray:
		return formatList(v, func(n int16) string { return strconv.FormatInt(int64(n), 10) })
	case UShortArray:
		return formatList(v, func(n uint16) string { return strconv.FormatUint(uint64(n), 10) })
	case LongArray:
		return formatList(v, func(n int32) string { return strconv.FormatInt(int64(n), 10) })
	case ULongArray:
		return formatList(v, func(n uint32) string { return strconv.FormatUint(uint64(n), 10) })
	case Long64Array:
		return formatList(v, func(n int64) string { return strconv.FormatInt(n, 10) })
	case ULong64Array:
		return formatList(v, func(n uint64) string { return strconv.FormatUint(n, 10) })
	case FloatArray:
		return formatList(v, func(f float32) string { return strconv.FormatFloat(float64(f), 'g', -1, 32) })
	case DoubleArray:
		return formatList(v, func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) })
	case StringArray:
		return formatList(v, formatBytes)
	case StateArray:
		return formatList(v, DevState.String)
	case EncodedArray:
		return formatList(v, formatEncoded)
	case LongStringArray:
		return fmt.Sprintf("%s %s",
			formatList(v.Longs, func(n int32) string { return strconv.FormatInt(int64(n), 10) }),
			formatList(v.Strings, formatBytes))
	case DoubleStringArray:
		return fmt.Sprintf("%s %s",
			formatList(v.Doubles, func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }),
			formatList(v.Strings, formatBytes))
	default:
		return fmt.Sprintf("%v", value)
	}
}

// FormatAttribute renders a reading on one line: name, value, the
// written value when present, quality, and timestamp.
func FormatAttribute(data AttributeData) string {
	var builder strings.Builder
	builder.WriteString(data.Name)
	builder.WriteString(" = ")
	builder.WriteString(Format(data.Data))
	if data.WrittenData != nil {
		builder.WriteString(" (set ")
		builder.WriteString(Format(data.WrittenData))
		builder.WriteString(")")
	}
	fmt.Fprintf(&builder, " [%s %s %dx%d]", data.Format, data.Quality, data.DimX, data.DimY)
	if !data.TimeStamp.IsZero() {
		builder.WriteString(" @ ")
		builder.WriteString(data.TimeStamp.UTC().Format("2006-01-02T15:04:05.000000Z"))
	}
	return builder.String()
}

// FormatDbDatum renders a property for display.
func FormatDbDatum(datum DbDatum) string {
	switch {
	case datum.WrongDataType:
		return datum.Name + ": <wrong data type>"
	case datum.IsEmpty():
		return datum.Name + ": <empty>"
	default:
		return datum.Name + ": " + Format(datum.Data)
	}
}

func formatBytes(data []byte) string {
	if utf8.Valid(data) {
		return strconv.Quote(string(data))
	}
	return "0x" + hex.EncodeToString(data)
}

func formatEncoded(encoded Encoded) string {
	digest := EncodedDigest(encoded.Data)
	return fmt.Sprintf("encoded(%q, %d bytes, blake3:%s)",
		encoded.Format, len(encoded.Data), hex.EncodeToString(digest[:6]))
}

func formatList[T any](values []T, format func(T) string) string {
	parts := make([]string, len(values))
	for index, value := range values {
		parts[index] = format(value)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
