// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tangotest

import (
	"context"
	"fmt"
	"time"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
	"github.com/bureau-foundation/tango/lib/tango/marshal"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

func (library *Library) OpenDevice(address string) (client.Handle, error) {
	name := deviceName(address)
	library.mu.Lock()
	dev, ok := library.devices[name]
	library.mu.Unlock()
	if !ok {
		return 0, failure(tango.ReasonDeviceNotExported, "DeviceProxy::DeviceProxy",
			"device %s is not defined in the database", address)
	}
	handle, err := library.open(&connection{
		device:  dev,
		timeout: DefaultTimeout,
		source:  tango.SourceCacheDev,
	})
	if err != nil {
		return 0, err
	}
	library.logger.Debug("device opened", "device", dev.name, "handle", handle)
	return handle, nil
}

// CloseDevice forgets the handle and drops any lock it held.
func (library *Library) CloseDevice(handle client.Handle) error {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return err
	}
	if conn.device.lockOwner == handle {
		conn.device.lockOwner = 0
	}
	delete(library.connections, handle)
	return nil
}

func (library *Library) Timeout(handle client.Handle) (time.Duration, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return 0, err
	}
	return conn.timeout, nil
}

func (library *Library) SetTimeout(handle client.Handle, timeout time.Duration) error {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return err
	}
	if timeout < 0 {
		return fmt.Errorf("tangotest: negative timeout %s", timeout)
	}
	conn.timeout = timeout
	return nil
}

func (library *Library) Source(handle client.Handle) (tango.DevSource, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return 0, err
	}
	return conn.source, nil
}

func (library *Library) SetSource(handle client.Handle, source tango.DevSource) error {
	if _, err := marshal.SourceCode(source); err != nil {
		return err
	}
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return err
	}
	conn.source = source
	return nil
}

func (library *Library) Lock(handle client.Handle) error {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return err
	}
	if err := conn.device.lockedAgainst(handle, "lock"); err != nil {
		return err
	}
	conn.device.lockOwner = handle
	return nil
}

func (library *Library) Unlock(handle client.Handle) error {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return err
	}
	if conn.device.lockOwner != handle {
		return failure(tango.ReasonDeviceNotLocked, conn.device.name+"::unlock",
			"device %s is not locked by this client", conn.device.name)
	}
	conn.device.lockOwner = 0
	return nil
}

func (library *Library) IsLocked(handle client.Handle) (bool, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return false, err
	}
	return conn.device.lockOwner != 0, nil
}

func (library *Library) IsLockedByMe(handle client.Handle) (bool, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return false, err
	}
	return conn.device.lockOwner == handle, nil
}

func (library *Library) LockingStatus(handle client.Handle) (string, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return "", err
	}
	switch conn.device.lockOwner {
	case 0:
		return fmt.Sprintf("Device %s is not locked", conn.device.name), nil
	case handle:
		return fmt.Sprintf("Device %s is locked by this client", conn.device.name), nil
	default:
		return fmt.Sprintf("Device %s is locked by another client", conn.device.name), nil
	}
}

func (library *Library) CommandQuery(handle client.Handle, name string) (*wire.Foreign, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return nil, err
	}
	cmd, err := conn.device.command(name)
	if err != nil {
		return nil, err
	}
	return library.foreign(func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeCommandInfo(allocator, cmd.info)
	})
}

func (library *Library) CommandListQuery(handle client.Handle) (*wire.Foreign, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return nil, err
	}
	infos := conn.device.commandInfos()
	return library.foreign(func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeCommandInfoList(allocator, infos)
	})
}

// CommandInout decodes the argument, runs the command, and returns its
// result as a record in the foreign heap.
func (library *Library) CommandInout(handle client.Handle, name string, argin wire.View) (*wire.Foreign, error) {
	argument, err := marshal.ReadCommand(argin)
	if err != nil {
		return nil, fmt.Errorf("tangotest: command %s argument: %w", name, err)
	}

	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return nil, err
	}
	if err := conn.device.lockedAgainst(handle, "command_inout"); err != nil {
		return nil, err
	}
	library.logger.Debug("command_inout", "device", conn.device.name, "command", name, "argin", argument.Kind())
	result, err := conn.device.run(name, argument)
	if err != nil {
		return nil, err
	}
	return library.foreign(func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeCommandResult(allocator, result)
	})
}

func (library *Library) AttributeList(handle client.Handle) (*wire.Foreign, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return nil, err
	}
	infos := conn.device.attributeInfos()
	names := make([]string, len(infos))
	for index, info := range infos {
		names[index] = info.Name
	}
	return library.foreign(func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeStringList(allocator, names)
	})
}

func (library *Library) AttributeConfig(handle client.Handle, names wire.View) (*wire.Foreign, error) {
	requested, err := marshal.ReadStringList(names)
	if err != nil {
		return nil, fmt.Errorf("tangotest: attribute names: %w", err)
	}

	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return nil, err
	}
	infos := make([]tango.AttributeInfo, 0, len(requested))
	for _, name := range requested {
		attr, err := conn.device.attribute(name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, attr.info)
	}
	return library.foreign(func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeAttributeInfoList(allocator, infos)
	})
}

func (library *Library) AttributeListQuery(handle client.Handle) (*wire.Foreign, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return nil, err
	}
	infos := conn.device.attributeInfos()
	return library.foreign(func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeAttributeInfoList(allocator, infos)
	})
}

// ReadAttribute returns the reading with the set point appended to the
// read value, as a device server does.
func (library *Library) ReadAttribute(handle client.Handle, name string) (*wire.Foreign, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return nil, err
	}
	attr, err := conn.device.attribute(name)
	if err != nil {
		return nil, err
	}
	reading := conn.device.reading(attr, library.clock.Now())
	return library.foreign(func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeAttributeReading(allocator, reading)
	})
}

// ReadAttributes returns each reading laid out as ReadAttribute does.
func (library *Library) ReadAttributes(handle client.Handle, names wire.View) (*wire.Foreign, error) {
	requested, err := marshal.ReadStringList(names)
	if err != nil {
		return nil, fmt.Errorf("tangotest: attribute names: %w", err)
	}

	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return nil, err
	}
	now := library.clock.Now()
	readings := make([]tango.AttributeData, 0, len(requested))
	for _, name := range requested {
		attr, err := conn.device.attribute(name)
		if err != nil {
			return nil, err
		}
		readings = append(readings, conn.device.reading(attr, now))
	}
	return library.foreign(func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeAttributeReadingList(allocator, readings)
	})
}

func (library *Library) WriteAttribute(handle client.Handle, data wire.View) error {
	value, err := marshal.ReadAttribute(data, false)
	if err != nil {
		return fmt.Errorf("tangotest: attribute value: %w", err)
	}

	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return err
	}
	if err := conn.device.lockedAgainst(handle, "write_attribute"); err != nil {
		return err
	}
	return conn.device.write(value)
}

// WriteAttributes checks every value before storing any of them.
func (library *Library) WriteAttributes(handle client.Handle, data wire.View) error {
	values, err := marshal.ReadAttributeDataList(data, false)
	if err != nil {
		return fmt.Errorf("tangotest: attribute values: %w", err)
	}

	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return err
	}
	if err := conn.device.lockedAgainst(handle, "write_attributes"); err != nil {
		return err
	}
	attrs := make([]*attribute, len(values))
	for index, value := range values {
		attr, err := conn.device.checkWrite(value)
		if err != nil {
			return err
		}
		attrs[index] = attr
	}
	for index, value := range values {
		attrs[index].store(value.Data)
	}
	return nil
}

func (library *Library) GetDeviceProperty(handle client.Handle, request wire.View) (*wire.Foreign, error) {
	requests, err := marshal.ReadDbData(request)
	if err != nil {
		return nil, fmt.Errorf("tangotest: property request: %w", err)
	}
	name, err := library.deviceOf(handle)
	if err != nil {
		return nil, err
	}
	return library.getProperties(Object{Device: true, Name: name}, requests)
}

func (library *Library) PutDeviceProperty(handle client.Handle, data wire.View) error {
	values, err := marshal.ReadDbData(data)
	if err != nil {
		return fmt.Errorf("tangotest: property values: %w", err)
	}
	name, err := library.lockedDeviceOf(handle, "put_property")
	if err != nil {
		return err
	}
	return library.putProperties(Object{Device: true, Name: name}, values)
}

func (library *Library) DeleteDeviceProperty(handle client.Handle, names wire.View) error {
	values, err := marshal.ReadDbData(names)
	if err != nil {
		return fmt.Errorf("tangotest: property names: %w", err)
	}
	name, err := library.lockedDeviceOf(handle, "delete_property")
	if err != nil {
		return err
	}
	return library.deleteProperties(Object{Device: true, Name: name}, values)
}

// deviceOf returns the name of the device behind handle.
func (library *Library) deviceOf(handle client.Handle) (string, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return "", err
	}
	return conn.device.name, nil
}

// lockedDeviceOf is deviceOf for operations that modify the device.
func (library *Library) lockedDeviceOf(handle client.Handle, operation string) (string, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	conn, err := library.deviceConnection(handle)
	if err != nil {
		return "", err
	}
	if err := conn.device.lockedAgainst(handle, operation); err != nil {
		return "", err
	}
	return conn.device.name, nil
}

// getProperties answers a batch of property requests. A missing
// property comes back empty. A stored value that does not convert to
// the requested kind comes back flagged WrongDataType. A request with
// no kind gets the raw string list.
func (library *Library) getProperties(object Object, requests []tango.DbDatum) (*wire.Foreign, error) {
	ctx := context.Background()
	results := make([]tango.DbDatum, 0, len(requests))
	for _, request := range requests {
		texts, found, err := library.store.Get(ctx, object, request.Name)
		if err != nil {
			return nil, fmt.Errorf("tangotest: reading property %q of %s: %w", request.Name, object, err)
		}
		if !found {
			results = append(results, tango.RequestDbDatum(request.Name, request.RequestType))
			continue
		}
		if request.RequestType == tango.KindVoid {
			results = append(results, tango.NewDbDatum(request.Name, tango.NewStringArray(texts...)))
			continue
		}
		value, err := tango.ParsePropertyValue(request.RequestType, texts)
		if err != nil {
			library.logger.Debug("property conversion failed",
				"object", object.String(), "property", request.Name, "kind", request.RequestType, "error", err)
			wrong := tango.RequestDbDatum(request.Name, request.RequestType)
			wrong.WrongDataType = true
			results = append(results, wrong)
			continue
		}
		results = append(results, tango.NewDbDatum(request.Name, value))
	}
	return library.foreign(func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeDbData(allocator, results)
	})
}

func (library *Library) putProperties(object Object, values []tango.DbDatum) error {
	ctx := context.Background()
	for _, value := range values {
		var texts []string
		if !value.IsEmpty() {
			texts = tango.FormatPropertyStrings(value.Data)
		}
		if err := library.store.Put(ctx, object, value.Name, texts); err != nil {
			return fmt.Errorf("tangotest: storing property %q of %s: %w", value.Name, object, err)
		}
	}
	return nil
}

func (library *Library) deleteProperties(object Object, names []tango.DbDatum) error {
	ctx := context.Background()
	for _, name := range names {
		if err := library.store.Delete(ctx, object, name.Name); err != nil {
			return fmt.Errorf("tangotest: deleting property %q of %s: %w", name.Name, object, err)
		}
	}
	return nil
}
