// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tango

import (
	"fmt"
	"strconv"
)

// CompositeSeparator divides the numeric half of a composite value
// from its string half in argument lists: "1 2 3 | a b".
const CompositeSeparator = "|"

// ParseCommandValue builds a command argument of kind from text
// arguments. Scalars take exactly one argument, arrays take one per
// element, Void takes none, Encoded takes a format and a data string,
// and composites take numbers, then CompositeSeparator, then strings.
func ParseCommandValue(kind Kind, args []string) (CommandValue, error) {
	switch kind {
	case KindVoid:
		if len(args) != 0 {
			return nil, fmt.Errorf("%s takes no arguments, got %d", kind, len(args))
		}
		return Void{}, nil
	case KindEncoded:
		if len(args) != 2 {
			return nil, fmt.Errorf("%s takes a format and a data argument, got %d arguments", kind, len(args))
		}
		return Encoded{Format: args[0], Data: []byte(args[1])}, nil
	case KindLongStringArray, KindDoubleStringArray:
		return parseComposite(kind, args)
	}

	var value Value
	var err error
	if kind.IsArray() {
		value, err = parseArray(kind.Element(), args)
	} else {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s takes one argument, got %d", kind, len(args))
		}
		value, err = parseScalar(kind, args[0])
	}
	if err != nil {
		return nil, err
	}
	command, ok := value.(CommandValue)
	if !ok {
		return nil, fmt.Errorf("%s as a command value: %w", kind, ErrUnsupportedKind)
	}
	return command, nil
}

// ParseAttrValue builds an attribute value with the given element kind
// from text arguments. array selects a spectrum.
func ParseAttrValue(element Kind, array bool, args []string) (AttrValue, error) {
	var value Value
	var err error
	switch {
	case element == KindEncoded && array:
		return nil, fmt.Errorf("encoded spectrum from text: %w", ErrUnsupportedKind)
	case element == KindEncoded:
		if len(args) != 2 {
			return nil, fmt.Errorf("%s takes a format and a data argument, got %d arguments", element, len(args))
		}
		return Encoded{Format: args[0], Data: []byte(args[1])}, nil
	case array:
		value, err = parseArray(element, args)
	default:
		if len(args) != 1 {
			return nil, fmt.Errorf("scalar %s takes one argument, got %d", element, len(args))
		}
		value, err = parseScalar(element, args[0])
	}
	if err != nil {
		return nil, err
	}
	attr, ok := value.(AttrValue)
	if !ok {
		return nil, fmt.Errorf("%s as an attribute value: %w", element, ErrUnsupportedKind)
	}
	return attr, nil
}

// ParsePropertyValue converts a stored property, held as a list of
// strings, to kind. Scalar kinds need exactly one string.
func ParsePropertyValue(kind Kind, texts []string) (PropertyValue, error) {
	var value Value
	var err error
	if kind.IsArray() {
		value, err = parseArray(kind.Element(), texts)
	} else {
		if len(texts) != 1 {
			return nil, fmt.Errorf("scalar %s from %d strings", kind, len(texts))
		}
		value, err = parseScalar(kind, texts[0])
	}
	if err != nil {
		return nil, err
	}
	property, ok := value.(PropertyValue)
	if !ok {
		return nil, fmt.Errorf("%s as a property value: %w", kind, ErrUnsupportedKind)
	}
	return property, nil
}

// FormatPropertyStrings returns the string list a property value is
// stored as. Empty stores as no strings.
func FormatPropertyStrings(value PropertyValue) []string {
	switch v := value.(type) {
	case Empty:
		return []string{}
	case String:
		return []string{string(v)}
	case StringArray:
		texts := make([]string, len(v))
		for index, element := range v {
			texts[index] = string(element)
		}
		return texts
	case ShortArray:
		return formatEach(v, func(n int16) string { return strconv.FormatInt(int64(n), 10) })
	case UShortArray:
		return formatEach(v, func(n uint16) string { return strconv.FormatUint(uint64(n), 10) })
	case LongArray:
		return formatEach(v, func(n int32) string { return strconv.FormatInt(int64(n), 10) })
	case ULongArray:
		return formatEach(v, func(n uint32) string { return strconv.FormatUint(uint64(n), 10) })
	case FloatArray:
		return formatEach(v, func(f float32) string { return strconv.FormatFloat(float64(f), 'g', -1, 32) })
	case DoubleArray:
		return formatEach(v, func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) })
	default:
		// Remaining variants are scalars whose display form parses back.
		return []string{Format(value)}
	}
}

func formatEach[T any](values []T, format func(T) string) []string {
	texts := make([]string, len(values))
	for index, value := range values {
		texts[index] = format(value)
	}
	return texts
}

func parseScalar(kind Kind, text string) (Value, error) {
	switch kind {
	case KindBoolean:
		v, err := strconv.ParseBool(text)
		return Boolean(v), wrapParse(kind, text, err)
	case KindUChar:
		v, err := strconv.ParseUint(text, 0, 8)
		return UChar(v), wrapParse(kind, text, err)
	case KindShort:
		v, err := strconv.ParseInt(text, 0, 16)
		return Short(v), wrapParse(kind, text, err)
	case KindUShort:
		v, err := strconv.ParseUint(text, 0, 16)
		return UShort(v), wrapParse(kind, text, err)
	case KindLong, KindInt:
		v, err := strconv.ParseInt(text, 0, 32)
		return Long(v), wrapParse(kind, text, err)
	case KindULong:
		v, err := strconv.ParseUint(text, 0, 32)
		return ULong(v), wrapParse(kind, text, err)
	case KindLong64:
		v, err := strconv.ParseInt(text, 0, 64)
		return Long64(v), wrapParse(kind, text, err)
	case KindULong64:
		v, err := strconv.ParseUint(text, 0, 64)
		return ULong64(v), wrapParse(kind, text, err)
	case KindFloat:
		v, err := strconv.ParseFloat(text, 32)
		return Float(v), wrapParse(kind, text, err)
	case KindDouble:
		v, err := strconv.ParseFloat(text, 64)
		return Double(v), wrapParse(kind, text, err)
	case KindString, KindConstString:
		return String(text), nil
	case KindState:
		return ParseDevState(text)
	default:
		return nil, fmt.Errorf("parsing %s from text: %w", kind, ErrUnsupportedKind)
	}
}

func parseArray(element Kind, texts []string) (Value, error) {
	switch element {
	case KindBoolean:
		values, err := parseEach(element, texts, func(v Value) bool { return bool(v.(Boolean)) })
		return BooleanArray(values), err
	case KindUChar:
		values, err := parseEach(element, texts, func(v Value) uint8 { return uint8(v.(UChar)) })
		return UCharArray(values), err
	case KindShort:
		values, err := parseEach(element, texts, func(v Value) int16 { return int16(v.(Short)) })
		return ShortArray(values), err
	case KindUShort:
		values, err := parseEach(element, texts, func(v Value) uint16 { return uint16(v.(UShort)) })
		return UShortArray(values), err
	case KindLong:
		values, err := parseEach(element, texts, func(v Value) int32 { return int32(v.(Long)) })
		return LongArray(values), err
	case KindULong:
		values, err := parseEach(element, texts, func(v Value) uint32 { return uint32(v.(ULong)) })
		return ULongArray(values), err
	case KindLong64:
		values, err := parseEach(element, texts, func(v Value) int64 { return int64(v.(Long64)) })
		return Long64Array(values), err
	case KindULong64:
		values, err := parseEach(element, texts, func(v Value) uint64 { return uint64(v.(ULong64)) })
		return ULong64Array(values), err
	case KindFloat:
		values, err := parseEach(element, texts, func(v Value) float32 { return float32(v.(Float)) })
		return FloatArray(values), err
	case KindDouble:
		values, err := parseEach(element, texts, func(v Value) float64 { return float64(v.(Double)) })
		return DoubleArray(values), err
	case KindString:
		return NewStringArray(texts...), nil
	case KindState:
		values, err := parseEach(element, texts, func(v Value) DevState { return v.(DevState) })
		return StateArray(values), err
	default:
		return nil, fmt.Errorf("parsing %s array from text: %w", element, ErrUnsupportedKind)
	}
}

func parseEach[T any](element Kind, texts []string, unwrap func(Value) T) ([]T, error) {
	values := make([]T, 0, len(texts))
	for index, text := range texts {
		value, err := parseScalar(element, text)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", index, err)
		}
		values = append(values, unwrap(value))
	}
	return values, nil
}

func parseComposite(kind Kind, args []string) (CommandValue, error) {
	split := -1
	for index, arg := range args {
		if arg == CompositeSeparator {
			split = index
			break
		}
	}
	if split < 0 {
		return nil, fmt.Errorf("%s needs numbers, %q, then strings", kind, CompositeSeparator)
	}
	numbers, strings := args[:split], args[split+1:]
	if kind == KindLongStringArray {
		longs, err := parseEach(KindLong, numbers, func(v Value) int32 { return int32(v.(Long)) })
		if err != nil {
			return nil, err
		}
		return LongStringArray{Longs: longs, Strings: NewStringArray(strings...)}, nil
	}
	doubles, err := parseEach(KindDouble, numbers, func(v Value) float64 { return float64(v.(Double)) })
	if err != nil {
		return nil, err
	}
	return DoubleStringArray{Doubles: doubles, Strings: NewStringArray(strings...)}, nil
}

func wrapParse(kind Kind, text string, err error) error {
	if err != nil {
		return fmt.Errorf("parsing %q as %s: %w", text, kind, err)
	}
	return nil
}
