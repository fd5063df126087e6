// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tango is the logical data model of the Tango device-control
// client: the values that commands, attributes, and database
// properties carry, and the records that wrap them.
//
// Each call category has its own closed set of value variants,
// expressed as a sealed interface:
//
//   - [CommandValue]: arguments and results of command_inout
//   - [AttrValue]: attribute readings and values to write
//   - [PropertyValue]: database property payloads, including [Empty]
//
// Concrete variants are small named types ([Long], [DoubleArray],
// [Encoded], ...). A type belongs to a set only if the control library
// can carry it in that category, so a value that compiles as a
// CommandValue always has a command arm on the wire. The one exception
// is [DevState], which a command can return but not accept.
//
// Every variant owns its memory. Values never alias buffers belonging
// to the control library; the marshal package copies into and out of
// foreign records and manages their release.
//
// Failures raised by the control library arrive as [*Error], the
// DevFailed stack. Codec failures wrap one of the sentinel errors
// ([ErrUnknownTag], [ErrUnsupportedKind], ...), tested with errors.Is.
package tango
