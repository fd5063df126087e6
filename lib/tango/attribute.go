// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tango

import (
	"fmt"
	"time"
)

// AttributeData is one attribute reading or one value to write.
//
// Data is the current (read) value. WrittenData is the last set point
// for writable attributes. It is nil on values built for writing.
type AttributeData struct {
	Name        string
	Data        AttrValue
	WrittenData AttrValue
	Format      AttrDataFormat
	Quality     AttrQuality
	DimX        int
	DimY        int
	TimeStamp   time.Time
}

// SimpleAttribute builds a value to write: scalars get format SCALAR
// and dimensions (1, 0), arrays get SPECTRUM and (len, 0). Quality is
// VALID and the timestamp is now.
func SimpleAttribute(name string, value AttrValue, now time.Time) AttributeData {
	data := AttributeData{
		Name:      name,
		Data:      value,
		Format:    Scalar,
		Quality:   QualityValid,
		DimX:      1,
		TimeStamp: now,
	}
	if _, array := Shape(value); array {
		data.Format = Spectrum
		data.DimX = Len(value)
	}
	return data
}

// Validate checks that the value is consistent with its format: a
// SCALAR attribute holds a scalar value, SPECTRUM and IMAGE hold
// arrays, and WrittenData, when present, has the same shape as Data.
func (data AttributeData) Validate() error {
	if data.Name == "" {
		return fmt.Errorf("attribute data has no name")
	}
	if data.Data == nil {
		return fmt.Errorf("attribute %q has no value", data.Name)
	}
	element, array := Shape(data.Data)
	switch data.Format {
	case Scalar:
		if array {
			return fmt.Errorf("attribute %q: SCALAR format with array value %s", data.Name, data.Data.Kind())
		}
	case Spectrum, Image:
		if !array {
			return fmt.Errorf("attribute %q: %s format with scalar value %s", data.Name, data.Format, data.Data.Kind())
		}
	default:
		return fmt.Errorf("attribute %q: %w: format %d", data.Name, ErrUnknownEnumerant, data.Format)
	}
	if data.DimX < 0 || data.DimY < 0 {
		return fmt.Errorf("attribute %q: negative dimensions (%d, %d)", data.Name, data.DimX, data.DimY)
	}
	if data.WrittenData != nil {
		writtenElement, writtenArray := Shape(data.WrittenData)
		if writtenElement != element || writtenArray != array {
			return fmt.Errorf("attribute %q: written value %s does not match read value %s",
				data.Name, data.WrittenData.Kind(), data.Data.Kind())
		}
	}
	return nil
}

// AttributeInfo is an attribute's static configuration.
type AttributeInfo struct {
	Name             string
	Writable         AttrWriteType
	DataFormat       AttrDataFormat
	DataType         Kind
	MaxDimX          int
	MaxDimY          int
	Description      string
	Label            string
	Unit             string
	StandardUnit     string
	DisplayUnit      string
	Format           string
	MinValue         string
	MaxValue         string
	MinAlarm         string
	MaxAlarm         string
	WritableAttrName string
	DispLevel        DispLevel
}

// CommandInfo describes one device command.
type CommandInfo struct {
	Name        string
	InType      Kind
	OutType     Kind
	InTypeDesc  string
	OutTypeDesc string
	DispLevel   DispLevel
}
