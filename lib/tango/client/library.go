// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"time"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// Handle identifies a device or database connection inside a Library.
// Its meaning is private to the library that issued it.
type Handle uintptr

// Library is the foreign control library: one method per C entry
// point. Tagged-union inputs are passed as views of records the caller
// owns and keeps owning; the library only reads them. Tagged-union
// outputs come back as Foreign records that the caller must decode or
// release.
//
// Failures reported by the control system are *tango.Error values.
// Implementations are not required to be safe for concurrent calls on
// one handle; the proxies serialize them.
type Library interface {
	DeviceLibrary
	DatabaseLibrary
}

// DeviceLibrary is the device proxy half of Library.
type DeviceLibrary interface {
	OpenDevice(address string) (Handle, error)
	CloseDevice(device Handle) error

	Timeout(device Handle) (time.Duration, error)
	SetTimeout(device Handle, timeout time.Duration) error
	Source(device Handle) (tango.DevSource, error)
	SetSource(device Handle, source tango.DevSource) error

	Lock(device Handle) error
	Unlock(device Handle) error
	IsLocked(device Handle) (bool, error)
	IsLockedByMe(device Handle) (bool, error)
	LockingStatus(device Handle) (string, error)

	// CommandQuery returns a CommandInfo record.
	CommandQuery(device Handle, command string) (*wire.Foreign, error)
	// CommandListQuery returns a CommandInfoList.
	CommandListQuery(device Handle) (*wire.Foreign, error)
	// CommandInout runs a command with a CommandData argument and
	// returns its CommandData result.
	CommandInout(device Handle, command string, argin wire.View) (*wire.Foreign, error)

	// AttributeList returns a VarStringArray of attribute names.
	AttributeList(device Handle) (*wire.Foreign, error)
	// AttributeConfig takes a VarStringArray of names and returns an
	// AttributeInfoList.
	AttributeConfig(device Handle, names wire.View) (*wire.Foreign, error)
	// AttributeListQuery returns an AttributeInfoList for every
	// attribute.
	AttributeListQuery(device Handle) (*wire.Foreign, error)

	// ReadAttribute returns an AttributeData record holding the read
	// and written values in one sequence.
	ReadAttribute(device Handle, attribute string) (*wire.Foreign, error)
	// ReadAttributes takes a VarStringArray of names and returns an
	// AttributeDataList.
	ReadAttributes(device Handle, names wire.View) (*wire.Foreign, error)
	WriteAttribute(device Handle, data wire.View) error
	WriteAttributes(device Handle, data wire.View) error

	// GetDeviceProperty takes a DbData of requests and returns a DbData
	// of results.
	GetDeviceProperty(device Handle, request wire.View) (*wire.Foreign, error)
	PutDeviceProperty(device Handle, data wire.View) error
	DeleteDeviceProperty(device Handle, names wire.View) error
}

// DatabaseLibrary is the database proxy half of Library.
type DatabaseLibrary interface {
	OpenDatabase() (Handle, error)
	CloseDatabase(database Handle) error

	// DeviceExported, DeviceExportedForClass, ObjectList and
	// ObjectPropertyList return a DbDatum holding a string array.
	DeviceExported(database Handle, filter string) (*wire.Foreign, error)
	DeviceExportedForClass(database Handle, class string) (*wire.Foreign, error)
	ObjectList(database Handle, filter string) (*wire.Foreign, error)
	ObjectPropertyList(database Handle, object, filter string) (*wire.Foreign, error)

	GetProperty(database Handle, object string, request wire.View) (*wire.Foreign, error)
	PutProperty(database Handle, object string, data wire.View) error
	DeleteProperty(database Handle, object string, names wire.View) error
}
