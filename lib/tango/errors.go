// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tango

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownTag is returned when a record carries a type tag that
	// the ABI does not define. The decoder stops before copying any
	// payload.
	ErrUnknownTag = errors.New("unknown type tag")

	// ErrUnknownEnumerant is returned for a state, quality, format, or
	// other enum code outside the defined range.
	ErrUnknownEnumerant = errors.New("unknown enumerant")

	// ErrUnsupportedDirection is returned when a value can be decoded
	// in a category but not encoded, such as DevState as a command
	// input.
	ErrUnsupportedDirection = errors.New("kind not supported in this direction")

	// ErrUnsupportedKind is returned when a kind has no arm in the
	// target union.
	ErrUnsupportedKind = errors.New("kind not supported in this category")

	// ErrMalformed is returned for records whose lengths or counts are
	// inconsistent, such as an attribute read count larger than the
	// sequence it splits.
	ErrMalformed = errors.New("malformed record")
)

// Failure is one entry of a DevFailed stack.
type Failure struct {
	Desc     string
	Reason   string
	Origin   string
	Severity ErrSeverity
}

// Error is a failure reported by the control library: the DevFailed
// stack, outermost first. Callers distinguish failure classes by
// Reason, e.g. "API_CommandNotFound".
type Error struct {
	Failures []Failure
}

// NewError returns an Error with a single failure of severity ERR.
func NewError(reason, desc, origin string) *Error {
	return &Error{Failures: []Failure{{
		Desc:     desc,
		Reason:   reason,
		Origin:   origin,
		Severity: SeverityErr,
	}}}
}

// Reason returns the reason of the first failure, or "" for an empty
// stack.
func (err *Error) Reason() string {
	if len(err.Failures) == 0 {
		return ""
	}
	return err.Failures[0].Reason
}

// HasReason reports whether any failure in the stack carries reason.
func (err *Error) HasReason(reason string) bool {
	for _, failure := range err.Failures {
		if failure.Reason == reason {
			return true
		}
	}
	return false
}

func (err *Error) Error() string {
	if len(err.Failures) == 0 {
		return "DevFailed (empty stack)"
	}
	var builder strings.Builder
	builder.WriteString("DevFailed: ")
	for index, failure := range err.Failures {
		if index > 0 {
			builder.WriteString("; ")
		}
		builder.WriteString(failure.Severity.String())
		builder.WriteString(" ")
		builder.WriteString(failure.Reason)
		if failure.Desc != "" {
			builder.WriteString(": ")
			builder.WriteString(failure.Desc)
		}
		if failure.Origin != "" {
			builder.WriteString(" (")
			builder.WriteString(failure.Origin)
			builder.WriteString(")")
		}
	}
	return builder.String()
}

// Well-known failure reasons raised by devices and the database.
const (
	ReasonCommandNotFound             = "API_CommandNotFound"
	ReasonIncompatibleCmdArgumentType = "API_IncompatibleCmdArgumentType"
	ReasonAttrNotFound                = "API_AttrNotFound"
	ReasonIncompatibleAttrDataType    = "API_IncompatibleAttrDataType"
	ReasonAttrNotWritable             = "API_AttrNotWritable"
	ReasonDeviceNotExported           = "API_DeviceNotExported"
	ReasonDeviceLocked                = "API_DeviceLocked"
	ReasonDeviceNotLocked             = "API_DeviceNotLocked"
)

// IsTypeMismatch reports whether err is a control library failure
// raised because a command or attribute was given the wrong kind.
func IsTypeMismatch(err error) bool {
	var failure *Error
	if !errors.As(err, &failure) {
		return false
	}
	return failure.HasReason(ReasonIncompatibleCmdArgumentType) ||
		failure.HasReason(ReasonIncompatibleAttrDataType)
}
