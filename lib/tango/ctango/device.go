// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build ctango

package ctango

/*
#include <stdlib.h>
#include <c_tango.h>
*/
import "C"

import (
	"fmt"
	"time"
	"unsafe"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

func (library *Library) OpenDevice(address string) (client.Handle, error) {
	var proxy unsafe.Pointer
	err := withString(address, func(name *C.char) error {
		return library.call("tango_create_device_proxy", func(stack *C.ErrorStack) C.bool {
			return C.tango_create_device_proxy(name, &proxy, stack)
		})
	})
	if err != nil {
		return 0, err
	}
	handle := client.Handle(uintptr(proxy))
	if err := library.register(handle, deviceHandle); err != nil {
		library.deleteDevice(handle)
		return 0, err
	}
	library.logger.Debug("device opened", "device", address, "handle", handle)
	return handle, nil
}

func (library *Library) CloseDevice(handle client.Handle) error {
	if _, err := library.lookup(handle, deviceHandle); err != nil {
		return err
	}
	library.forget(handle)
	return library.deleteDevice(handle)
}

func (library *Library) deleteDevice(handle client.Handle) error {
	proxy := unsafe.Pointer(uintptr(handle))
	return library.call("tango_delete_device_proxy", func(stack *C.ErrorStack) C.bool {
		return C.tango_delete_device_proxy(&proxy, stack)
	})
}

// device runs fn on the proxy behind handle.
func (library *Library) device(handle client.Handle, name string, fn func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool) error {
	proxy, err := library.lookup(handle, deviceHandle)
	if err != nil {
		return err
	}
	return library.call(name, func(stack *C.ErrorStack) C.bool {
		return fn(proxy, stack)
	})
}

// deviceOutput is output on the proxy behind handle.
func (library *Library) deviceOutput(handle client.Handle, name string, size uint64, free func(wire.Ptr), fn func(proxy unsafe.Pointer, shell wire.Ptr, stack *C.ErrorStack) C.bool) (*wire.Foreign, error) {
	proxy, err := library.lookup(handle, deviceHandle)
	if err != nil {
		return nil, err
	}
	return library.output(name, size, free, func(shell wire.Ptr, stack *C.ErrorStack) C.bool {
		return fn(proxy, shell, stack)
	})
}

func (library *Library) Timeout(handle client.Handle) (time.Duration, error) {
	var millis C.int
	err := library.device(handle, "tango_get_timeout_millis", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_get_timeout_millis(proxy, &millis, stack)
	})
	return time.Duration(millis) * time.Millisecond, err
}

func (library *Library) SetTimeout(handle client.Handle, timeout time.Duration) error {
	if timeout < 0 {
		return fmt.Errorf("ctango: negative timeout %s", timeout)
	}
	millis := C.int(timeout.Milliseconds())
	return library.device(handle, "tango_set_timeout_millis", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_set_timeout_millis(proxy, millis, stack)
	})
}

func (library *Library) Source(handle client.Handle) (tango.DevSource, error) {
	var source C.DevSource
	err := library.device(handle, "tango_get_source", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_get_source(proxy, &source, stack)
	})
	if err != nil {
		return 0, err
	}
	if source > C.CACHE_DEV {
		return 0, fmt.Errorf("ctango: unknown device source %d", source)
	}
	return tango.DevSource(source), nil
}

func (library *Library) SetSource(handle client.Handle, source tango.DevSource) error {
	if source > tango.SourceCacheDev {
		return fmt.Errorf("ctango: unknown device source %d", source)
	}
	return library.device(handle, "tango_set_source", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_set_source(proxy, C.DevSource(source), stack)
	})
}

func (library *Library) Lock(handle client.Handle) error {
	return library.device(handle, "tango_lock", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_lock(proxy, stack)
	})
}

func (library *Library) Unlock(handle client.Handle) error {
	return library.device(handle, "tango_unlock", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_unlock(proxy, stack)
	})
}

func (library *Library) IsLocked(handle client.Handle) (bool, error) {
	var locked C.bool
	err := library.device(handle, "tango_is_locked", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_is_locked(proxy, &locked, stack)
	})
	return bool(locked), err
}

func (library *Library) IsLockedByMe(handle client.Handle) (bool, error) {
	var locked C.bool
	err := library.device(handle, "tango_is_locked_by_me", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_is_locked_by_me(proxy, &locked, stack)
	})
	return bool(locked), err
}

func (library *Library) LockingStatus(handle client.Handle) (string, error) {
	var status *C.char
	err := library.device(handle, "tango_locking_status", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_locking_status(proxy, &status, stack)
	})
	if err != nil {
		return "", err
	}
	defer C.free(unsafe.Pointer(status))
	return C.GoString(status), nil
}

func (library *Library) CommandQuery(handle client.Handle, command string) (*wire.Foreign, error) {
	var foreign *wire.Foreign
	err := withString(command, func(name *C.char) error {
		var err error
		foreign, err = library.deviceOutput(handle, "tango_command_query", wire.CommandInfoSize,
			func(shell wire.Ptr) { C.tango_free_CommandInfo(cast[C.CommandInfo](shell)) },
			func(proxy unsafe.Pointer, shell wire.Ptr, stack *C.ErrorStack) C.bool {
				return C.tango_command_query(proxy, name, cast[C.CommandInfo](shell), stack)
			})
		return err
	})
	return foreign, err
}

func (library *Library) CommandListQuery(handle client.Handle) (*wire.Foreign, error) {
	return library.deviceOutput(handle, "tango_command_list_query", wire.ArraySize,
		func(shell wire.Ptr) { C.tango_free_CommandInfoList(cast[C.CommandInfoList](shell)) },
		func(proxy unsafe.Pointer, shell wire.Ptr, stack *C.ErrorStack) C.bool {
			return C.tango_command_list_query(proxy, cast[C.CommandInfoList](shell), stack)
		})
}

func (library *Library) CommandInout(handle client.Handle, command string, argin wire.View) (*wire.Foreign, error) {
	var foreign *wire.Foreign
	err := withString(command, func(name *C.char) error {
		var err error
		foreign, err = library.deviceOutput(handle, "tango_command_inout", wire.CommandSize,
			func(shell wire.Ptr) { C.tango_free_CommandData(cast[C.CommandData](shell)) },
			func(proxy unsafe.Pointer, shell wire.Ptr, stack *C.ErrorStack) C.bool {
				return C.tango_command_inout(proxy, name, cast[C.CommandData](argin.Addr), cast[C.CommandData](shell), stack)
			})
		return err
	})
	return foreign, err
}

func (library *Library) AttributeList(handle client.Handle) (*wire.Foreign, error) {
	return library.deviceOutput(handle, "tango_get_attribute_list", wire.ArraySize,
		func(shell wire.Ptr) { C.tango_free_VarStringArray(cast[C.VarStringArray](shell)) },
		func(proxy unsafe.Pointer, shell wire.Ptr, stack *C.ErrorStack) C.bool {
			return C.tango_get_attribute_list(proxy, cast[C.VarStringArray](shell), stack)
		})
}

func (library *Library) AttributeConfig(handle client.Handle, names wire.View) (*wire.Foreign, error) {
	return library.deviceOutput(handle, "tango_get_attribute_config", wire.ArraySize,
		func(shell wire.Ptr) { C.tango_free_AttributeInfoList(cast[C.AttributeInfoList](shell)) },
		func(proxy unsafe.Pointer, shell wire.Ptr, stack *C.ErrorStack) C.bool {
			return C.tango_get_attribute_config(proxy, cast[C.VarStringArray](names.Addr), cast[C.AttributeInfoList](shell), stack)
		})
}

func (library *Library) AttributeListQuery(handle client.Handle) (*wire.Foreign, error) {
	return library.deviceOutput(handle, "tango_attribute_list_query", wire.ArraySize,
		func(shell wire.Ptr) { C.tango_free_AttributeInfoList(cast[C.AttributeInfoList](shell)) },
		func(proxy unsafe.Pointer, shell wire.Ptr, stack *C.ErrorStack) C.bool {
			return C.tango_attribute_list_query(proxy, cast[C.AttributeInfoList](shell), stack)
		})
}

func (library *Library) ReadAttribute(handle client.Handle, attribute string) (*wire.Foreign, error) {
	var foreign *wire.Foreign
	err := withString(attribute, func(name *C.char) error {
		var err error
		foreign, err = library.deviceOutput(handle, "tango_read_attribute", wire.AttributeSize,
			func(shell wire.Ptr) { C.tango_free_AttributeData(cast[C.AttributeData](shell)) },
			func(proxy unsafe.Pointer, shell wire.Ptr, stack *C.ErrorStack) C.bool {
				return C.tango_read_attribute(proxy, name, cast[C.AttributeData](shell), stack)
			})
		return err
	})
	return foreign, err
}

func (library *Library) ReadAttributes(handle client.Handle, names wire.View) (*wire.Foreign, error) {
	return library.deviceOutput(handle, "tango_read_attributes", wire.ArraySize,
		func(shell wire.Ptr) { C.tango_free_AttributeDataList(cast[C.AttributeDataList](shell)) },
		func(proxy unsafe.Pointer, shell wire.Ptr, stack *C.ErrorStack) C.bool {
			return C.tango_read_attributes(proxy, cast[C.VarStringArray](names.Addr), cast[C.AttributeDataList](shell), stack)
		})
}

func (library *Library) WriteAttribute(handle client.Handle, data wire.View) error {
	return library.device(handle, "tango_write_attribute", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_write_attribute(proxy, cast[C.AttributeData](data.Addr), stack)
	})
}

func (library *Library) WriteAttributes(handle client.Handle, data wire.View) error {
	return library.device(handle, "tango_write_attributes", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_write_attributes(proxy, cast[C.AttributeDataList](data.Addr), stack)
	})
}

// GetDeviceProperty fills a copy of request, since the C library
// writes the results into the records it was given.
func (library *Library) GetDeviceProperty(handle client.Handle, request wire.View) (*wire.Foreign, error) {
	proxy, err := library.lookup(handle, deviceHandle)
	if err != nil {
		return nil, err
	}
	return library.fillProperties("tango_get_device_property", request, func(data *C.DbData, stack *C.ErrorStack) C.bool {
		return C.tango_get_device_property(proxy, data, stack)
	})
}

func (library *Library) PutDeviceProperty(handle client.Handle, data wire.View) error {
	return library.device(handle, "tango_put_device_property", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_put_device_property(proxy, cast[C.DbData](data.Addr), stack)
	})
}

func (library *Library) DeleteDeviceProperty(handle client.Handle, names wire.View) error {
	return library.device(handle, "tango_delete_device_property", func(proxy unsafe.Pointer, stack *C.ErrorStack) C.bool {
		return C.tango_delete_device_property(proxy, cast[C.DbData](names.Addr), stack)
	})
}
