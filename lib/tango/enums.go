// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tango

import (
	"fmt"
	"strings"
)

// DevState is a device state. It is also the State variant of
// CommandValue and AttrValue: a command returning DevState decodes to
// one of these constants directly.
type DevState uint8

const (
	On DevState = iota
	Off
	Close
	Open
	Insert
	Extract
	Moving
	Standby
	Fault
	Init
	Running
	Alarm
	Disable
	Unknown
)

var stateNames = []string{
	"ON", "OFF", "CLOSE", "OPEN", "INSERT", "EXTRACT", "MOVING",
	"STANDBY", "FAULT", "INIT", "RUNNING", "ALARM", "DISABLE", "UNKNOWN",
}

func (state DevState) String() string {
	return enumName(stateNames, int(state), "DevState")
}

// ParseDevState parses a state name case-insensitively.
func ParseDevState(name string) (DevState, error) {
	index, err := parseEnum(stateNames, name, "device state")
	return DevState(index), err
}

// AttrQuality qualifies an attribute reading.
type AttrQuality uint8

const (
	QualityValid AttrQuality = iota
	QualityInvalid
	QualityAlarm
	QualityChanging
	QualityWarning
)

var qualityNames = []string{"VALID", "INVALID", "ALARM", "CHANGING", "WARNING"}

func (quality AttrQuality) String() string {
	return enumName(qualityNames, int(quality), "AttrQuality")
}

// ParseAttrQuality parses a quality name case-insensitively.
func ParseAttrQuality(name string) (AttrQuality, error) {
	index, err := parseEnum(qualityNames, name, "attribute quality")
	return AttrQuality(index), err
}

// AttrWriteType says whether an attribute can be read, written, or
// both.
type AttrWriteType uint8

const (
	Read AttrWriteType = iota
	ReadWithWrite
	Write
	ReadWrite
)

var writeTypeNames = []string{"READ", "READ_WITH_WRITE", "WRITE", "READ_WRITE"}

func (writeType AttrWriteType) String() string {
	return enumName(writeTypeNames, int(writeType), "AttrWriteType")
}

// Writable reports whether clients may write the attribute.
func (writeType AttrWriteType) Writable() bool {
	return writeType != Read
}

// AttrDataFormat is the shape of an attribute value.
type AttrDataFormat uint8

const (
	Scalar AttrDataFormat = iota
	Spectrum
	Image
)

var formatNames = []string{"SCALAR", "SPECTRUM", "IMAGE"}

func (format AttrDataFormat) String() string {
	return enumName(formatNames, int(format), "AttrDataFormat")
}

// ParseAttrDataFormat parses a format name case-insensitively.
func ParseAttrDataFormat(name string) (AttrDataFormat, error) {
	index, err := parseEnum(formatNames, name, "attribute format")
	return AttrDataFormat(index), err
}

// DispLevel is the GUI display level of a command or attribute.
type DispLevel uint8

const (
	Operator DispLevel = iota
	Expert
)

var dispLevelNames = []string{"OPERATOR", "EXPERT"}

func (level DispLevel) String() string {
	return enumName(dispLevelNames, int(level), "DispLevel")
}

// DevSource selects where a device proxy reads from.
type DevSource uint8

const (
	SourceDev DevSource = iota
	SourceCache
	SourceCacheDev
)

var sourceNames = []string{"DEV", "CACHE", "CACHE_DEV"}

func (source DevSource) String() string {
	return enumName(sourceNames, int(source), "DevSource")
}

// ParseDevSource parses a source name case-insensitively.
func ParseDevSource(name string) (DevSource, error) {
	index, err := parseEnum(sourceNames, name, "device source")
	return DevSource(index), err
}

// ErrSeverity grades a failure in a DevFailed stack.
type ErrSeverity uint8

const (
	SeverityWarn ErrSeverity = iota
	SeverityErr
	SeverityPanic
)

var severityNames = []string{"WARN", "ERR", "PANIC"}

func (severity ErrSeverity) String() string {
	return enumName(severityNames, int(severity), "ErrSeverity")
}

func enumName(names []string, index int, typeName string) string {
	if index < 0 || index >= len(names) {
		return fmt.Sprintf("%s(%d)", typeName, index)
	}
	return names[index]
}

func parseEnum(names []string, name, description string) (int, error) {
	for index, known := range names {
		if strings.EqualFold(known, name) {
			return index, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q (valid: %s)", description, name, strings.Join(names, ", "))
}
