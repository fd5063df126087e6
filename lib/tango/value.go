// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tango

import "fmt"

// Value is implemented by every variant of the three variant sets.
type Value interface {
	// Kind returns the variant's logical kind. StateArray and
	// EncodedArray, which exist only as attribute spectrums and have
	// no array tag, report their element kind; use [Shape] to tell
	// them apart from the scalars.
	Kind() Kind
}

// CommandValue is the closed set of values a command accepts or
// returns. The set is sealed: only types in this package implement it.
type CommandValue interface {
	Value
	commandValue()
}

// AttrValue is the closed set of attribute payloads.
type AttrValue interface {
	Value
	attrValue()
}

// PropertyValue is the closed set of database property payloads.
type PropertyValue interface {
	Value
	propertyValue()
}

// Void is the empty command argument or result.
type Void struct{}

// Empty marks a property that has no value. It is distinct from every
// zero value: a property holding Long(0) is not Empty.
type Empty struct{}

type (
	Boolean bool
	UChar   uint8
	Short   int16
	UShort  uint16
	Long    int32
	ULong   uint32
	Long64  int64
	ULong64 uint64
	Float   float32
	Double  float64

	// String is an owned byte buffer. Tango strings are not required
	// to be valid UTF-8 and never contain NUL.
	String []byte
)

// Encoded is an opaque blob tagged with a format name.
type Encoded struct {
	Format string
	Data   []byte
}

type (
	BooleanArray []bool
	UCharArray   []uint8
	ShortArray   []int16
	UShortArray  []uint16
	LongArray    []int32
	ULongArray   []uint32
	Long64Array  []int64
	ULong64Array []uint64
	FloatArray   []float32
	DoubleArray  []float64
	StringArray  [][]byte
	StateArray   []DevState
	EncodedArray []Encoded
)

// LongStringArray pairs a Long array with a string array. The two
// halves have independent lengths.
type LongStringArray struct {
	Longs   []int32
	Strings [][]byte
}

// DoubleStringArray pairs a Double array with a string array.
type DoubleStringArray struct {
	Doubles []float64
	Strings [][]byte
}

// NewString returns s as a String value.
func NewString(s string) String {
	return String(s)
}

// NewStringArray returns the strings as a StringArray value.
func NewStringArray(values ...string) StringArray {
	array := make(StringArray, len(values))
	for index, value := range values {
		array[index] = []byte(value)
	}
	return array
}

func (Void) Kind() Kind              { return KindVoid }
func (Empty) Kind() Kind             { return KindVoid }
func (Boolean) Kind() Kind           { return KindBoolean }
func (UChar) Kind() Kind             { return KindUChar }
func (Short) Kind() Kind             { return KindShort }
func (UShort) Kind() Kind            { return KindUShort }
func (Long) Kind() Kind              { return KindLong }
func (ULong) Kind() Kind             { return KindULong }
func (Long64) Kind() Kind            { return KindLong64 }
func (ULong64) Kind() Kind           { return KindULong64 }
func (Float) Kind() Kind             { return KindFloat }
func (Double) Kind() Kind            { return KindDouble }
func (String) Kind() Kind            { return KindString }
func (DevState) Kind() Kind          { return KindState }
func (Encoded) Kind() Kind           { return KindEncoded }
func (BooleanArray) Kind() Kind      { return KindBooleanArray }
func (UCharArray) Kind() Kind        { return KindCharArray }
func (ShortArray) Kind() Kind        { return KindShortArray }
func (UShortArray) Kind() Kind       { return KindUShortArray }
func (LongArray) Kind() Kind         { return KindLongArray }
func (ULongArray) Kind() Kind        { return KindULongArray }
func (Long64Array) Kind() Kind       { return KindLong64Array }
func (ULong64Array) Kind() Kind      { return KindULong64Array }
func (FloatArray) Kind() Kind        { return KindFloatArray }
func (DoubleArray) Kind() Kind       { return KindDoubleArray }
func (StringArray) Kind() Kind       { return KindStringArray }
func (StateArray) Kind() Kind        { return KindState }
func (EncodedArray) Kind() Kind      { return KindEncoded }
func (LongStringArray) Kind() Kind   { return KindLongStringArray }
func (DoubleStringArray) Kind() Kind { return KindDoubleStringArray }

func (Void) commandValue()              {}
func (Boolean) commandValue()           {}
func (Short) commandValue()             {}
func (UShort) commandValue()            {}
func (Long) commandValue()              {}
func (ULong) commandValue()             {}
func (Long64) commandValue()            {}
func (ULong64) commandValue()           {}
func (Float) commandValue()             {}
func (Double) commandValue()            {}
func (String) commandValue()            {}
func (DevState) commandValue()          {}
func (Encoded) commandValue()           {}
func (BooleanArray) commandValue()      {}
func (UCharArray) commandValue()        {}
func (ShortArray) commandValue()        {}
func (UShortArray) commandValue()       {}
func (LongArray) commandValue()         {}
func (ULongArray) commandValue()        {}
func (Long64Array) commandValue()       {}
func (ULong64Array) commandValue()      {}
func (FloatArray) commandValue()        {}
func (DoubleArray) commandValue()       {}
func (StringArray) commandValue()       {}
func (LongStringArray) commandValue()   {}
func (DoubleStringArray) commandValue() {}

func (Boolean) attrValue()      {}
func (UChar) attrValue()        {}
func (Short) attrValue()        {}
func (UShort) attrValue()       {}
func (Long) attrValue()         {}
func (ULong) attrValue()        {}
func (Long64) attrValue()       {}
func (ULong64) attrValue()      {}
func (Float) attrValue()        {}
func (Double) attrValue()       {}
func (String) attrValue()       {}
func (DevState) attrValue()     {}
func (Encoded) attrValue()      {}
func (BooleanArray) attrValue() {}
func (UCharArray) attrValue()   {}
func (ShortArray) attrValue()   {}
func (UShortArray) attrValue()  {}
func (LongArray) attrValue()    {}
func (ULongArray) attrValue()   {}
func (Long64Array) attrValue()  {}
func (ULong64Array) attrValue() {}
func (FloatArray) attrValue()   {}
func (DoubleArray) attrValue()  {}
func (StringArray) attrValue()  {}
func (StateArray) attrValue()   {}
func (EncodedArray) attrValue() {}

func (Empty) propertyValue()       {}
func (Boolean) propertyValue()     {}
func (UChar) propertyValue()       {}
func (Short) propertyValue()       {}
func (UShort) propertyValue()      {}
func (Long) propertyValue()        {}
func (ULong) propertyValue()       {}
func (Long64) propertyValue()      {}
func (ULong64) propertyValue()     {}
func (Float) propertyValue()       {}
func (Double) propertyValue()      {}
func (String) propertyValue()      {}
func (ShortArray) propertyValue()  {}
func (UShortArray) propertyValue() {}
func (LongArray) propertyValue()   {}
func (ULongArray) propertyValue()  {}
func (FloatArray) propertyValue()  {}
func (DoubleArray) propertyValue() {}
func (StringArray) propertyValue() {}

// Shape returns the element kind of an attribute value and whether it
// is a spectrum/image array. The element kind is what travels in the
// attribute record's type field.
func Shape(value AttrValue) (element Kind, array bool) {
	switch value.(type) {
	case StateArray:
		return KindState, true
	case EncodedArray:
		return KindEncoded, true
	}
	kind := value.Kind()
	return kind.Element(), kind.IsArray()
}

// Len returns the element count of an array value, 1 for scalars, and
// 0 for Void and Empty. For composites it is the numeric half's count.
func Len(value Value) int {
	switch v := value.(type) {
	case Void, Empty:
		return 0
	case BooleanArray:
		return len(v)
	case UCharArray:
		return len(v)
	case ShortArray:
		return len(v)
	case UShortArray:
		return len(v)
	case LongArray:
		return len(v)
	case ULongArray:
		return len(v)
	case Long64Array:
		return len(v)
	case ULong64Array:
		return len(v)
	case FloatArray:
		return len(v)
	case DoubleArray:
		return len(v)
	case StringArray:
		return len(v)
	case StateArray:
		return len(v)
	case EncodedArray:
		return len(v)
	case LongStringArray:
		return len(v.Longs)
	case DoubleStringArray:
		return len(v.Doubles)
	default:
		return 1
	}
}

// DefaultAttrValue returns the placeholder used for the written half
// of an attribute reading that carries none: the zero value for
// numeric scalars, an empty buffer for strings and blobs, Unknown for
// states, and an empty array for spectrums.
func DefaultAttrValue(element Kind, array bool) (AttrValue, error) {
	if array {
		switch element {
		case KindBoolean:
			return BooleanArray{}, nil
		case KindUChar:
			return UCharArray{}, nil
		case KindShort:
			return ShortArray{}, nil
		case KindUShort:
			return UShortArray{}, nil
		case KindLong:
			return LongArray{}, nil
		case KindULong:
			return ULongArray{}, nil
		case KindLong64:
			return Long64Array{}, nil
		case KindULong64:
			return ULong64Array{}, nil
		case KindFloat:
			return FloatArray{}, nil
		case KindDouble:
			return DoubleArray{}, nil
		case KindString:
			return StringArray{}, nil
		case KindState:
			return StateArray{}, nil
		case KindEncoded:
			return EncodedArray{}, nil
		}
	} else {
		switch element {
		case KindBoolean:
			return Boolean(false), nil
		case KindUChar:
			return UChar(0), nil
		case KindShort:
			return Short(0), nil
		case KindUShort:
			return UShort(0), nil
		case KindLong:
			return Long(0), nil
		case KindULong:
			return ULong(0), nil
		case KindLong64:
			return Long64(0), nil
		case KindULong64:
			return ULong64(0), nil
		case KindFloat:
			return Float(0), nil
		case KindDouble:
			return Double(0), nil
		case KindString:
			return String{}, nil
		case KindState:
			return Unknown, nil
		case KindEncoded:
			return Encoded{Data: []byte{}}, nil
		}
	}
	return nil, fmt.Errorf("no attribute value of element kind %s (array %t): %w", element, array, ErrUnsupportedKind)
}
