// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the caller-facing Tango surface: DeviceProxy for
// commands, attributes and device properties, and DatabaseProxy for
// database queries and free-object properties.
//
// Both proxies sit on a [Library], the foreign control library. Every
// call that carries a tagged-union value follows the same sequence:
// the argument is encoded into a record the proxy owns, the library is
// called with a view of it, the argument is released exactly once
// whatever the call returned, and a returned record is decoded into Go
// values and handed back to the library for release.
//
// Failures reported by the control system are *tango.Error values,
// wrapped with the operation and target:
//
//	_, err := device.CommandInout(ctx, "DevLong", tango.Long(5))
//	var failure *tango.Error
//	if errors.As(err, &failure) && failure.HasReason(tango.ReasonCommandNotFound) {
//	    ...
//	}
//
// Library implementations live in tangotest (an in-process simulator)
// and ctango (the native binding, built with the ctango tag).
package client
