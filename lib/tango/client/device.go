// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/marshal"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// DeviceProxy is a connection to one device. Calls on a proxy are
// serialized; a proxy may be shared between goroutines.
type DeviceProxy struct {
	session *session
}

// Dial connects to the device at address, e.g. "sys/tg_test/1".
func Dial(ctx context.Context, library Library, address string, options ...Option) (*DeviceProxy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := newSession(library, address, options)
	if err != nil {
		return nil, err
	}
	handle, err := library.OpenDevice(address)
	if err != nil {
		s.discard()
		return nil, fmt.Errorf("connecting to %s: %w", address, err)
	}
	s.handle = handle
	s.logger.Debug("device proxy opened", "target", address)
	return &DeviceProxy{session: s}, nil
}

// Name returns the address the proxy was dialed with.
func (proxy *DeviceProxy) Name() string {
	return proxy.session.name
}

// Close disconnects from the device. Later calls return ErrClosed.
// Close is idempotent.
func (proxy *DeviceProxy) Close() error {
	return proxy.session.close(proxy.session.library.CloseDevice)
}

func (proxy *DeviceProxy) Timeout(ctx context.Context) (time.Duration, error) {
	return scalar(ctx, proxy.session, "get_timeout", proxy.session.library.Timeout)
}

func (proxy *DeviceProxy) SetTimeout(ctx context.Context, timeout time.Duration) error {
	_, err := scalar(ctx, proxy.session, "set_timeout", func(device Handle) (none, error) {
		return none{}, proxy.session.library.SetTimeout(device, timeout)
	})
	return err
}

func (proxy *DeviceProxy) Source(ctx context.Context) (tango.DevSource, error) {
	return scalar(ctx, proxy.session, "get_source", proxy.session.library.Source)
}

func (proxy *DeviceProxy) SetSource(ctx context.Context, source tango.DevSource) error {
	_, err := scalar(ctx, proxy.session, "set_source", func(device Handle) (none, error) {
		return none{}, proxy.session.library.SetSource(device, source)
	})
	return err
}

// Lock takes the device lock for this client.
func (proxy *DeviceProxy) Lock(ctx context.Context) error {
	_, err := scalar(ctx, proxy.session, "lock", func(device Handle) (none, error) {
		return none{}, proxy.session.library.Lock(device)
	})
	return err
}

func (proxy *DeviceProxy) Unlock(ctx context.Context) error {
	_, err := scalar(ctx, proxy.session, "unlock", func(device Handle) (none, error) {
		return none{}, proxy.session.library.Unlock(device)
	})
	return err
}

func (proxy *DeviceProxy) IsLocked(ctx context.Context) (bool, error) {
	return scalar(ctx, proxy.session, "is_locked", proxy.session.library.IsLocked)
}

func (proxy *DeviceProxy) IsLockedByMe(ctx context.Context) (bool, error) {
	return scalar(ctx, proxy.session, "is_locked_by_me", proxy.session.library.IsLockedByMe)
}

// LockingStatus returns the device's human-readable lock description.
func (proxy *DeviceProxy) LockingStatus(ctx context.Context) (string, error) {
	return scalar(ctx, proxy.session, "locking_status", proxy.session.library.LockingStatus)
}

// CommandQuery describes one command.
func (proxy *DeviceProxy) CommandQuery(ctx context.Context, command string) (tango.CommandInfo, error) {
	return exchange(ctx, proxy.session, "command_query", []any{"command", command},
		nil,
		func(device Handle, _ wire.View) (*wire.Foreign, error) {
			return proxy.session.library.CommandQuery(device, command)
		},
		marshal.DecodeCommandInfo)
}

// CommandListQuery describes every command of the device.
func (proxy *DeviceProxy) CommandListQuery(ctx context.Context) ([]tango.CommandInfo, error) {
	return exchange(ctx, proxy.session, "command_list_query", nil,
		nil,
		noArgument(proxy.session.library.CommandListQuery),
		marshal.DecodeCommandInfoList)
}

// CommandInout runs a command. Pass tango.Void{} for commands without
// an argument. A command returning nothing yields tango.Void{}.
func (proxy *DeviceProxy) CommandInout(ctx context.Context, command string, argin tango.CommandValue) (tango.CommandValue, error) {
	if argin == nil {
		argin = tango.Void{}
	}
	return exchange(ctx, proxy.session, "command_inout", []any{"command", command, "tag", argin.Kind()},
		func(allocator wire.Allocator) (*wire.Local, error) {
			return marshal.EncodeCommand(allocator, argin)
		},
		func(device Handle, argument wire.View) (*wire.Foreign, error) {
			return proxy.session.library.CommandInout(device, command, argument)
		},
		marshal.DecodeCommand)
}

// AttributeList returns the names of the device's attributes.
func (proxy *DeviceProxy) AttributeList(ctx context.Context) ([]string, error) {
	return exchange(ctx, proxy.session, "get_attribute_list", nil,
		nil,
		noArgument(proxy.session.library.AttributeList),
		marshal.DecodeStringList)
}

// AttributeConfig returns the configuration of the named attributes.
func (proxy *DeviceProxy) AttributeConfig(ctx context.Context, names ...string) ([]tango.AttributeInfo, error) {
	return exchange(ctx, proxy.session, "get_attribute_config", []any{"attributes", names},
		encodeNames(names),
		proxy.session.library.AttributeConfig,
		marshal.DecodeAttributeInfoList)
}

// AttributeListQuery returns the configuration of every attribute.
func (proxy *DeviceProxy) AttributeListQuery(ctx context.Context) ([]tango.AttributeInfo, error) {
	return exchange(ctx, proxy.session, "attribute_list_query", nil,
		nil,
		noArgument(proxy.session.library.AttributeListQuery),
		marshal.DecodeAttributeInfoList)
}

// ReadAttribute reads one attribute. For writable attributes
// WrittenData holds the current set point.
func (proxy *DeviceProxy) ReadAttribute(ctx context.Context, attribute string) (tango.AttributeData, error) {
	return exchange(ctx, proxy.session, "read_attribute", []any{"attribute", attribute},
		nil,
		func(device Handle, _ wire.View) (*wire.Foreign, error) {
			return proxy.session.library.ReadAttribute(device, attribute)
		},
		marshal.DecodeAttribute)
}

// ReadAttributes reads several attributes in one call. Each reading
// is split into its read value and set point as ReadAttribute does.
func (proxy *DeviceProxy) ReadAttributes(ctx context.Context, names ...string) ([]tango.AttributeData, error) {
	return exchange(ctx, proxy.session, "read_attributes", []any{"attributes", names},
		encodeNames(names),
		proxy.session.library.ReadAttributes,
		marshal.DecodeAttributeDataList)
}

// WriteAttribute writes data.Data to the attribute data.Name.
func (proxy *DeviceProxy) WriteAttribute(ctx context.Context, data tango.AttributeData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("write_attribute %s: %w", proxy.session.name, err)
	}
	element, _ := tango.Shape(data.Data)
	_, err := exchange[none](ctx, proxy.session, "write_attribute", []any{"attribute", data.Name, "tag", element},
		func(allocator wire.Allocator) (*wire.Local, error) {
			return marshal.EncodeAttribute(allocator, data)
		},
		noResult(proxy.session.library.WriteAttribute),
		nil)
	return err
}

// WriteAttributes writes several attributes in one call.
func (proxy *DeviceProxy) WriteAttributes(ctx context.Context, data []tango.AttributeData) error {
	for _, entry := range data {
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("write_attributes %s: %w", proxy.session.name, err)
		}
	}
	_, err := exchange[none](ctx, proxy.session, "write_attributes", []any{"count", len(data)},
		func(allocator wire.Allocator) (*wire.Local, error) {
			return marshal.EncodeAttributeDataList(allocator, data)
		},
		noResult(proxy.session.library.WriteAttributes),
		nil)
	return err
}

// GetDeviceProperty fetches device properties. Each request is a
// tango.RequestDbDatum naming the property and the kind to convert it
// to. Missing properties come back Empty; unconvertible ones come back
// with WrongDataType set.
func (proxy *DeviceProxy) GetDeviceProperty(ctx context.Context, request []tango.DbDatum) ([]tango.DbDatum, error) {
	return exchange(ctx, proxy.session, "get_device_property", []any{"count", len(request)},
		encodeDbData(request),
		proxy.session.library.GetDeviceProperty,
		marshal.DecodeDbData)
}

// PutDeviceProperty stores device properties.
func (proxy *DeviceProxy) PutDeviceProperty(ctx context.Context, data []tango.DbDatum) error {
	_, err := exchange[none](ctx, proxy.session, "put_device_property", []any{"count", len(data)},
		encodeDbData(data),
		noResult(proxy.session.library.PutDeviceProperty),
		nil)
	return err
}

// DeleteDeviceProperty removes device properties by name.
func (proxy *DeviceProxy) DeleteDeviceProperty(ctx context.Context, names ...string) error {
	_, err := exchange[none](ctx, proxy.session, "delete_device_property", []any{"properties", names},
		encodeDbData(nameOnly(names)),
		noResult(proxy.session.library.DeleteDeviceProperty),
		nil)
	return err
}

func encodeNames(names []string) func(wire.Allocator) (*wire.Local, error) {
	return func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeStringList(allocator, names)
	}
}

func encodeDbData(data []tango.DbDatum) func(wire.Allocator) (*wire.Local, error) {
	return func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeDbData(allocator, data)
	}
}

func nameOnly(names []string) []tango.DbDatum {
	data := make([]tango.DbDatum, len(names))
	for index, name := range names {
		data[index] = tango.NameOnlyDbDatum(name)
	}
	return data
}
