// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tango

import (
	"fmt"
	"strings"
)

// Kind is a logical value category. There is exactly one Kind per
// foreign type tag; the mapping between the two lives in the marshal
// package's registry. Kind values are ordered for readability and do
// not match the foreign codes.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBoolean
	KindUChar
	KindShort
	KindUShort
	KindLong
	KindULong
	KindLong64
	KindULong64
	KindInt
	KindFloat
	KindDouble
	KindString
	KindConstString
	KindState
	KindEncoded
	KindBooleanArray
	KindCharArray
	KindShortArray
	KindUShortArray
	KindLongArray
	KindULongArray
	KindLong64Array
	KindULong64Array
	KindFloatArray
	KindDoubleArray
	KindStringArray
	KindLongStringArray
	KindDoubleStringArray

	kindCount
)

// KindCount is the number of kinds.
const KindCount = int(kindCount)

var kindNames = [kindCount]string{
	KindVoid:              "DevVoid",
	KindBoolean:           "DevBoolean",
	KindUChar:             "DevUChar",
	KindShort:             "DevShort",
	KindUShort:            "DevUShort",
	KindLong:              "DevLong",
	KindULong:             "DevULong",
	KindLong64:            "DevLong64",
	KindULong64:           "DevULong64",
	KindInt:               "DevInt",
	KindFloat:             "DevFloat",
	KindDouble:            "DevDouble",
	KindString:            "DevString",
	KindConstString:       "ConstDevString",
	KindState:             "DevState",
	KindEncoded:           "DevEncoded",
	KindBooleanArray:      "DevVarBooleanArray",
	KindCharArray:         "DevVarCharArray",
	KindShortArray:        "DevVarShortArray",
	KindUShortArray:       "DevVarUShortArray",
	KindLongArray:         "DevVarLongArray",
	KindULongArray:        "DevVarULongArray",
	KindLong64Array:       "DevVarLong64Array",
	KindULong64Array:      "DevVarULong64Array",
	KindFloatArray:        "DevVarFloatArray",
	KindDoubleArray:       "DevVarDoubleArray",
	KindStringArray:       "DevVarStringArray",
	KindLongStringArray:   "DevVarLongStringArray",
	KindDoubleStringArray: "DevVarDoubleStringArray",
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for kind := range kindCount {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Valid reports whether kind is one of the declared kinds.
func (kind Kind) Valid() bool {
	return kind < kindCount
}

// String returns the Tango type name, e.g. "DevVarLongArray".
func (kind Kind) String() string {
	if !kind.Valid() {
		return fmt.Sprintf("Kind(%d)", uint8(kind))
	}
	return kindNames[kind]
}

// ParseKind accepts a Tango type name with or without its "Dev" or
// "DevVar" prefix, case-insensitively: "DevVarLongArray",
// "LongArray" and "longarray" all parse to KindLongArray.
func ParseKind(name string) (Kind, error) {
	lowered := strings.ToLower(name)
	for kind, known := range kindNames {
		candidate := strings.ToLower(known)
		if lowered == candidate ||
			lowered == strings.TrimPrefix(candidate, "devvar") ||
			lowered == strings.TrimPrefix(candidate, "dev") {
			return Kind(kind), nil
		}
	}
	return 0, fmt.Errorf("unknown Tango type %q", name)
}

// IsArray reports whether kind is an array or composite kind.
func (kind Kind) IsArray() bool {
	return kind >= KindBooleanArray && kind < kindCount
}

// IsComposite reports whether kind pairs a numeric array with a string
// array.
func (kind Kind) IsComposite() bool {
	return kind == KindLongStringArray || kind == KindDoubleStringArray
}

// Element returns the scalar kind of an array kind's elements, and
// kind itself for scalars. Composite kinds report their numeric half.
func (kind Kind) Element() Kind {
	switch kind {
	case KindBooleanArray:
		return KindBoolean
	case KindCharArray:
		return KindUChar
	case KindShortArray:
		return KindShort
	case KindUShortArray:
		return KindUShort
	case KindLongArray, KindLongStringArray:
		return KindLong
	case KindULongArray:
		return KindULong
	case KindLong64Array:
		return KindLong64
	case KindULong64Array:
		return KindULong64
	case KindFloatArray:
		return KindFloat
	case KindDoubleArray, KindDoubleStringArray:
		return KindDouble
	case KindStringArray:
		return KindString
	default:
		return kind
	}
}

// ArrayOf returns the array kind whose elements are element. The
// second result is false when no array kind exists for it (State and
// Encoded have attribute arrays but no array tag).
func ArrayOf(element Kind) (Kind, bool) {
	switch element {
	case KindBoolean:
		return KindBooleanArray, true
	case KindUChar:
		return KindCharArray, true
	case KindShort:
		return KindShortArray, true
	case KindUShort:
		return KindUShortArray, true
	case KindLong:
		return KindLongArray, true
	case KindULong:
		return KindULongArray, true
	case KindLong64:
		return KindLong64Array, true
	case KindULong64:
		return KindULong64Array, true
	case KindFloat:
		return KindFloatArray, true
	case KindDouble:
		return KindDoubleArray, true
	case KindString:
		return KindStringArray, true
	default:
		return 0, false
	}
}
