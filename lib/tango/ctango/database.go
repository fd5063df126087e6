// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build ctango

package ctango

/*
#include <c_tango.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/bureau-foundation/tango/lib/tango/client"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

func (library *Library) OpenDatabase() (client.Handle, error) {
	var proxy unsafe.Pointer
	err := library.call("tango_create_database_proxy", func(stack *C.ErrorStack) C.bool {
		return C.tango_create_database_proxy(&proxy, stack)
	})
	if err != nil {
		return 0, err
	}
	handle := client.Handle(uintptr(proxy))
	if err := library.register(handle, databaseHandle); err != nil {
		library.deleteDatabase(handle)
		return 0, err
	}
	library.logger.Debug("database opened", "handle", handle)
	return handle, nil
}

func (library *Library) CloseDatabase(handle client.Handle) error {
	if _, err := library.lookup(handle, databaseHandle); err != nil {
		return err
	}
	library.forget(handle)
	return library.deleteDatabase(handle)
}

func (library *Library) deleteDatabase(handle client.Handle) error {
	proxy := unsafe.Pointer(uintptr(handle))
	return library.call("tango_delete_database_proxy", func(stack *C.ErrorStack) C.bool {
		return C.tango_delete_database_proxy(&proxy, stack)
	})
}

func freeDatum(shell wire.Ptr) {
	C.tango_free_DbDatum(cast[C.DbDatum](shell))
}

// datum runs a database query that fills a DbDatum, passing text as
// its string argument.
func (library *Library) datum(handle client.Handle, name, text string, fn func(database unsafe.Pointer, text *C.char, shell *C.DbDatum, stack *C.ErrorStack) C.bool) (*wire.Foreign, error) {
	database, err := library.lookup(handle, databaseHandle)
	if err != nil {
		return nil, err
	}
	var foreign *wire.Foreign
	err = withString(text, func(ctext *C.char) error {
		var err error
		foreign, err = library.output(name, wire.DatumSize, freeDatum, func(shell wire.Ptr, stack *C.ErrorStack) C.bool {
			return fn(database, ctext, cast[C.DbDatum](shell), stack)
		})
		return err
	})
	return foreign, err
}

func (library *Library) DeviceExported(handle client.Handle, filter string) (*wire.Foreign, error) {
	return library.datum(handle, "tango_get_device_exported", filter,
		func(database unsafe.Pointer, filter *C.char, shell *C.DbDatum, stack *C.ErrorStack) C.bool {
			return C.tango_get_device_exported(database, filter, shell, stack)
		})
}

func (library *Library) DeviceExportedForClass(handle client.Handle, class string) (*wire.Foreign, error) {
	return library.datum(handle, "tango_get_device_exported_for_class", class,
		func(database unsafe.Pointer, class *C.char, shell *C.DbDatum, stack *C.ErrorStack) C.bool {
			return C.tango_get_device_exported_for_class(database, class, shell, stack)
		})
}

func (library *Library) ObjectList(handle client.Handle, filter string) (*wire.Foreign, error) {
	return library.datum(handle, "tango_get_object_list", filter,
		func(database unsafe.Pointer, filter *C.char, shell *C.DbDatum, stack *C.ErrorStack) C.bool {
			return C.tango_get_object_list(database, filter, shell, stack)
		})
}

func (library *Library) ObjectPropertyList(handle client.Handle, object, filter string) (*wire.Foreign, error) {
	var foreign *wire.Foreign
	err := withString(object, func(cobject *C.char) error {
		var err error
		foreign, err = library.datum(handle, "tango_get_object_property_list", filter,
			func(database unsafe.Pointer, filter *C.char, shell *C.DbDatum, stack *C.ErrorStack) C.bool {
				return C.tango_get_object_property_list(database, cobject, filter, shell, stack)
			})
		return err
	})
	return foreign, err
}

// GetProperty fills a copy of request, since the C library writes the
// results into the records it was given.
func (library *Library) GetProperty(handle client.Handle, object string, request wire.View) (*wire.Foreign, error) {
	database, err := library.lookup(handle, databaseHandle)
	if err != nil {
		return nil, err
	}
	var foreign *wire.Foreign
	err = withString(object, func(cobject *C.char) error {
		var err error
		foreign, err = library.fillProperties("tango_get_property", request, func(data *C.DbData, stack *C.ErrorStack) C.bool {
			return C.tango_get_property(database, cobject, data, stack)
		})
		return err
	})
	return foreign, err
}

func (library *Library) PutProperty(handle client.Handle, object string, data wire.View) error {
	return library.onObject(handle, "tango_put_property", object, func(database unsafe.Pointer, cobject *C.char, stack *C.ErrorStack) C.bool {
		return C.tango_put_property(database, cobject, cast[C.DbData](data.Addr), stack)
	})
}

func (library *Library) DeleteProperty(handle client.Handle, object string, names wire.View) error {
	return library.onObject(handle, "tango_delete_property", object, func(database unsafe.Pointer, cobject *C.char, stack *C.ErrorStack) C.bool {
		return C.tango_delete_property(database, cobject, cast[C.DbData](names.Addr), stack)
	})
}

func (library *Library) onObject(handle client.Handle, name, object string, fn func(database unsafe.Pointer, object *C.char, stack *C.ErrorStack) C.bool) error {
	database, err := library.lookup(handle, databaseHandle)
	if err != nil {
		return err
	}
	return withString(object, func(cobject *C.char) error {
		return library.call(name, func(stack *C.ErrorStack) C.bool {
			return fn(database, cobject, stack)
		})
	})
}

// fillProperties copies the DbData request into the shell heap, lets
// fn fill the copy in place, and returns the copy. The C library
// replaces each property name with its own, so the request's names
// stay owned by the caller.
func (library *Library) fillProperties(name string, request wire.View, fn func(data *C.DbData, stack *C.ErrorStack) C.bool) (*wire.Foreign, error) {
	r := wire.NewReader(request.Memory)
	length := uint64(r.Uint32(request.Addr.Add(wire.ArrayLength)))
	sequence := r.Pointer(request.Addr.Add(wire.ArraySequence))
	if !r.Span(sequence, length*wire.DatumSize) {
		return nil, fmt.Errorf("ctango: %s: reading request: %w", name, r.Err())
	}
	records, err := request.Memory.Slice(sequence, length*wire.DatumSize)
	if err != nil {
		return nil, fmt.Errorf("ctango: %s: reading request: %w", name, err)
	}

	var copied wire.Ptr
	if length > 0 {
		copied, err = library.heap.Alloc(length*wire.DatumSize, wire.RecordAlign)
		if err != nil {
			return nil, fmt.Errorf("ctango: %s: copying request: %w", name, err)
		}
		w := wire.NewWriter(library.heap)
		w.PutBytes(copied, records)
		if err := w.Err(); err != nil {
			library.heap.Free(copied)
			return nil, fmt.Errorf("ctango: %s: copying request: %w", name, err)
		}
	}

	foreign, err := library.output(name, wire.ArraySize,
		func(shell wire.Ptr) {
			C.tango_free_DbData(cast[C.DbData](shell))
			library.heap.Free(copied)
		},
		func(shell wire.Ptr, stack *C.ErrorStack) C.bool {
			w := wire.NewWriter(library.heap)
			w.PutUint32(shell.Add(wire.ArrayLength), uint32(length))
			w.PutPointer(shell.Add(wire.ArraySequence), copied)
			return fn(cast[C.DbData](shell), stack)
		})
	if err != nil {
		library.heap.Free(copied)
		return nil, err
	}
	return foreign, nil
}
