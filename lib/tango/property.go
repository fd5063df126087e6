// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tango

import "fmt"

// DbDatum is a named database property.
//
// The same type serves three purposes. A put carries Data. A get
// carries RequestType, the kind the caller wants the stored value
// converted to, and Data is Empty. A delete carries only the name.
// Data and RequestType are never both set.
//
// On a get result, Data is Empty when the property does not exist,
// and WrongDataType is set (with Data Empty) when the stored value
// could not be converted to the requested kind. WrongDataType is a
// flag, not an error.
type DbDatum struct {
	Name          string
	Data          PropertyValue
	WrongDataType bool
	RequestType   Kind
}

// NewDbDatum returns a datum for writing value under name.
func NewDbDatum(name string, value PropertyValue) DbDatum {
	return DbDatum{Name: name, Data: value}
}

// RequestDbDatum returns a placeholder asking for property name as
// kind.
func RequestDbDatum(name string, kind Kind) DbDatum {
	return DbDatum{Name: name, Data: Empty{}, RequestType: kind}
}

// NameOnlyDbDatum returns a datum naming a property to delete.
func NameOnlyDbDatum(name string) DbDatum {
	return DbDatum{Name: name, Data: Empty{}}
}

// IsEmpty reports whether the datum carries no value.
func (datum DbDatum) IsEmpty() bool {
	if datum.Data == nil {
		return true
	}
	_, empty := datum.Data.(Empty)
	return empty
}

// Validate rejects a datum that carries both a value and a request
// type, and one flagged WrongDataType that still carries a value.
func (datum DbDatum) Validate() error {
	if datum.Name == "" {
		return fmt.Errorf("property datum has no name")
	}
	if !datum.IsEmpty() && datum.RequestType != KindVoid {
		return fmt.Errorf("property %q carries both a %s value and request type %s",
			datum.Name, datum.Data.Kind(), datum.RequestType)
	}
	if !datum.IsEmpty() && datum.WrongDataType {
		return fmt.Errorf("property %q is flagged wrong data type but carries a %s value",
			datum.Name, datum.Data.Kind())
	}
	if !datum.RequestType.Valid() {
		return fmt.Errorf("property %q: invalid request type %s", datum.Name, datum.RequestType)
	}
	return nil
}
