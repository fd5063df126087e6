// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tango

import (
	"math"
	"unicode/utf8"
)

// AsBool returns the value of a Boolean. The second result is false
// for every other variant.
func AsBool(value Value) (bool, bool) {
	v, ok := value.(Boolean)
	return bool(v), ok
}

// AsInt64 widens Boolean and every integer variant that fits in an
// int64. ULong64 values above math.MaxInt64 do not convert.
func AsInt64(value Value) (int64, bool) {
	switch v := value.(type) {
	case Boolean:
		if v {
			return 1, true
		}
		return 0, true
	case UChar:
		return int64(v), true
	case Short:
		return int64(v), true
	case UShort:
		return int64(v), true
	case Long:
		return int64(v), true
	case ULong:
		return int64(v), true
	case Long64:
		return int64(v), true
	case ULong64:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// AsUint64 widens Boolean and every integer variant whose value is not
// negative.
func AsUint64(value Value) (uint64, bool) {
	switch v := value.(type) {
	case ULong64:
		return uint64(v), true
	default:
		signed, ok := AsInt64(value)
		if !ok || signed < 0 {
			return 0, false
		}
		return uint64(signed), true
	}
}

// AsFloat64 widens Float, Double, and every integer variant.
func AsFloat64(value Value) (float64, bool) {
	switch v := value.(type) {
	case Float:
		return float64(v), true
	case Double:
		return float64(v), true
	case ULong64:
		return float64(v), true
	default:
		signed, ok := AsInt64(value)
		return float64(signed), ok
	}
}

// AsBytes returns the bytes of a String or a UCharArray. The result
// aliases the value.
func AsBytes(value Value) ([]byte, bool) {
	switch v := value.(type) {
	case String:
		return []byte(v), true
	case UCharArray:
		return []byte(v), true
	default:
		return nil, false
	}
}

// AsText returns the bytes of a String or UCharArray as a string when
// they are valid UTF-8.
func AsText(value Value) (string, bool) {
	data, ok := AsBytes(value)
	if !ok || !utf8.Valid(data) {
		return "", false
	}
	return string(data), true
}
