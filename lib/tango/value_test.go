// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tango

import (
	"errors"
	"testing"
	"time"
)

func TestKind_ParseRoundTrip(t *testing.T) {
	for _, kind := range Kinds() {
		parsed, err := ParseKind(kind.String())
		if err != nil {
			t.Errorf("ParseKind(%q): %v", kind, err)
			continue
		}
		if parsed != kind {
			t.Errorf("ParseKind(%q) = %s, want %s", kind, parsed, kind)
		}
	}
	if len(Kinds()) != KindCount {
		t.Errorf("Kinds() has %d entries, want %d", len(Kinds()), KindCount)
	}
}

func TestParseKind_ShortForms(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"long", KindLong},
		{"DevLong", KindLong},
		{"LongArray", KindLongArray},
		{"varlongarray", KindLongArray},
		{"string", KindString},
		{"ConstDevString", KindConstString},
		{"state", KindState},
		{"void", KindVoid},
		{"doublestringarray", KindDoubleStringArray},
	}
	for _, test := range tests {
		got, err := ParseKind(test.name)
		if err != nil {
			t.Errorf("ParseKind(%q): %v", test.name, err)
			continue
		}
		if got != test.want {
			t.Errorf("ParseKind(%q) = %s, want %s", test.name, got, test.want)
		}
	}
	if _, err := ParseKind("quaternion"); err == nil {
		t.Error("ParseKind(quaternion) succeeded, want error")
	}
}

func TestKind_ElementAndArrayOf(t *testing.T) {
	for _, kind := range Kinds() {
		if !kind.IsArray() || kind.IsComposite() {
			continue
		}
		element := kind.Element()
		array, ok := ArrayOf(element)
		if !ok {
			t.Errorf("ArrayOf(%s) has no array kind, want %s", element, kind)
			continue
		}
		if array != kind {
			t.Errorf("ArrayOf(%s) = %s, want %s", element, array, kind)
		}
	}
	if _, ok := ArrayOf(KindState); ok {
		t.Error("ArrayOf(DevState) reported an array kind")
	}
	if got := KindLongStringArray.Element(); got != KindLong {
		t.Errorf("KindLongStringArray.Element() = %s, want DevLong", got)
	}
}

func TestShape(t *testing.T) {
	tests := []struct {
		value   AttrValue
		element Kind
		array   bool
	}{
		{Double(1), KindDouble, false},
		{DoubleArray{1, 2}, KindDouble, true},
		{Running, KindState, false},
		{StateArray{On, Off}, KindState, true},
		{Encoded{Format: "raw"}, KindEncoded, false},
		{EncodedArray{}, KindEncoded, true},
		{UCharArray{1}, KindUChar, true},
		{NewStringArray("a"), KindString, true},
	}
	for _, test := range tests {
		element, array := Shape(test.value)
		if element != test.element || array != test.array {
			t.Errorf("Shape(%T) = (%s, %t), want (%s, %t)", test.value, element, array, test.element, test.array)
		}
	}
}

func TestLen(t *testing.T) {
	tests := []struct {
		value Value
		want  int
	}{
		{Void{}, 0},
		{Empty{}, 0},
		{Long(4), 1},
		{String("abc"), 1},
		{LongArray{}, 0},
		{ULong64Array{1, 2, 3}, 3},
		{LongStringArray{Longs: []int32{1, 2}, Strings: [][]byte{[]byte("a")}}, 2},
	}
	for _, test := range tests {
		if got := Len(test.value); got != test.want {
			t.Errorf("Len(%T) = %d, want %d", test.value, got, test.want)
		}
	}
}

func TestDefaultAttrValue(t *testing.T) {
	for _, element := range []Kind{
		KindBoolean, KindUChar, KindShort, KindUShort, KindLong, KindULong,
		KindLong64, KindULong64, KindFloat, KindDouble, KindString, KindState, KindEncoded,
	} {
		for _, array := range []bool{false, true} {
			value, err := DefaultAttrValue(element, array)
			if err != nil {
				t.Errorf("DefaultAttrValue(%s, %t): %v", element, array, err)
				continue
			}
			gotElement, gotArray := Shape(value)
			if gotElement != element || gotArray != array {
				t.Errorf("DefaultAttrValue(%s, %t) has shape (%s, %t)", element, array, gotElement, gotArray)
			}
			if array && Len(value) != 0 {
				t.Errorf("DefaultAttrValue(%s, true) has %d elements, want 0", element, Len(value))
			}
		}
	}
	if state, _ := DefaultAttrValue(KindState, false); state != Unknown {
		t.Errorf("default state = %v, want UNKNOWN", state)
	}
	if _, err := DefaultAttrValue(KindVoid, false); !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("DefaultAttrValue(DevVoid) error = %v, want ErrUnsupportedKind", err)
	}
}

func TestSimpleAttribute(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	scalar := SimpleAttribute("double_scalar", Double(2.5), now)
	if scalar.Format != Scalar || scalar.DimX != 1 || scalar.DimY != 0 {
		t.Errorf("scalar format/dims = %s %dx%d, want SCALAR 1x0", scalar.Format, scalar.DimX, scalar.DimY)
	}
	if scalar.Quality != QualityValid || !scalar.TimeStamp.Equal(now) {
		t.Errorf("scalar quality/time = %s %v", scalar.Quality, scalar.TimeStamp)
	}
	if err := scalar.Validate(); err != nil {
		t.Errorf("Validate(scalar): %v", err)
	}

	spectrum := SimpleAttribute("long_spectrum", LongArray{1, 2, 3}, now)
	if spectrum.Format != Spectrum || spectrum.DimX != 3 || spectrum.DimY != 0 {
		t.Errorf("spectrum format/dims = %s %dx%d, want SPECTRUM 3x0", spectrum.Format, spectrum.DimX, spectrum.DimY)
	}
	if err := spectrum.Validate(); err != nil {
		t.Errorf("Validate(spectrum): %v", err)
	}
}

func TestAttributeData_Validate(t *testing.T) {
	tests := []struct {
		name string
		data AttributeData
	}{
		{"no name", AttributeData{Data: Long(1)}},
		{"no value", AttributeData{Name: "x"}},
		{"scalar format with array", AttributeData{Name: "x", Data: LongArray{1}, Format: Scalar}},
		{"spectrum format with scalar", AttributeData{Name: "x", Data: Long(1), Format: Spectrum}},
		{"mismatched written", AttributeData{Name: "x", Data: Long(1), WrittenData: Double(1)}},
		{"unknown format", AttributeData{Name: "x", Data: Long(1), Format: AttrDataFormat(9)}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := test.data.Validate(); err == nil {
				t.Error("Validate succeeded, want error")
			}
		})
	}
}

func TestDbDatum_Validate(t *testing.T) {
	if err := NewDbDatum("speed", Double(3)).Validate(); err != nil {
		t.Errorf("put datum: %v", err)
	}
	if err := RequestDbDatum("speed", KindDouble).Validate(); err != nil {
		t.Errorf("request datum: %v", err)
	}
	if err := NameOnlyDbDatum("speed").Validate(); err != nil {
		t.Errorf("name-only datum: %v", err)
	}
	both := DbDatum{Name: "speed", Data: Double(3), RequestType: KindDouble}
	if err := both.Validate(); err == nil {
		t.Error("datum with value and request type validated")
	}
	flagged := DbDatum{Name: "speed", Data: Double(3), WrongDataType: true}
	if err := flagged.Validate(); err == nil {
		t.Error("datum flagged wrong data type with a value validated")
	}
	if !NameOnlyDbDatum("x").IsEmpty() || NewDbDatum("x", Long(0)).IsEmpty() {
		t.Error("IsEmpty does not distinguish Empty from a zero value")
	}
}

func TestError(t *testing.T) {
	err := &Error{Failures: []Failure{
		{Reason: ReasonIncompatibleCmdArgumentType, Desc: "wrong argin", Origin: "Command::check", Severity: SeverityErr},
		{Reason: "API_Outer", Severity: SeverityPanic},
	}}
	if err.Reason() != ReasonIncompatibleCmdArgumentType {
		t.Errorf("Reason() = %q", err.Reason())
	}
	want := "DevFailed: ERR API_IncompatibleCmdArgumentType: wrong argin (Command::check); PANIC API_Outer"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	var wrapped error = errors.Join(errors.New("context"), err)
	if !IsTypeMismatch(wrapped) {
		t.Error("IsTypeMismatch(wrapped) = false")
	}
	if IsTypeMismatch(NewError(ReasonCommandNotFound, "", "")) {
		t.Error("IsTypeMismatch(CommandNotFound) = true")
	}
	if (&Error{}).Reason() != "" {
		t.Error("empty stack has a reason")
	}
}
