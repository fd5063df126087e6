// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tangotest

import (
	"context"
	"fmt"
	"slices"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
	"github.com/bureau-foundation/tango/lib/tango/marshal"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

func (library *Library) OpenDatabase() (client.Handle, error) {
	return library.open(&connection{timeout: DefaultTimeout, source: tango.SourceDev})
}

func (library *Library) CloseDatabase(handle client.Handle) error {
	library.mu.Lock()
	defer library.mu.Unlock()
	if err := library.databaseConnection(handle); err != nil {
		return err
	}
	delete(library.connections, handle)
	return nil
}

// DeviceExported lists the devices whose names match filter.
func (library *Library) DeviceExported(handle client.Handle, filter string) (*wire.Foreign, error) {
	pattern := wildcard(filter)
	return library.deviceNames(handle, func(dev *device) bool {
		return pattern.MatchString(dev.name)
	})
}

// DeviceExportedForClass lists the devices of a class. The class name
// is matched case-insensitively and may contain "*".
func (library *Library) DeviceExportedForClass(handle client.Handle, class string) (*wire.Foreign, error) {
	pattern := wildcard(class)
	return library.deviceNames(handle, func(dev *device) bool {
		return pattern.MatchString(dev.class)
	})
}

func (library *Library) deviceNames(handle client.Handle, match func(*device) bool) (*wire.Foreign, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	if err := library.databaseConnection(handle); err != nil {
		return nil, err
	}
	var names []string
	for _, dev := range library.devices {
		if match(dev) {
			names = append(names, dev.name)
		}
	}
	slices.Sort(names)
	return library.stringDatum("device", names)
}

// ObjectList lists free property objects whose names match filter.
func (library *Library) ObjectList(handle client.Handle, filter string) (*wire.Foreign, error) {
	if err := library.checkDatabase(handle); err != nil {
		return nil, err
	}
	objects, err := library.store.Objects(context.Background())
	if err != nil {
		return nil, fmt.Errorf("tangotest: listing objects: %w", err)
	}
	return library.stringDatum("object", matching(objects, filter))
}

// ObjectPropertyList lists the properties of a free object whose names
// match filter.
func (library *Library) ObjectPropertyList(handle client.Handle, object, filter string) (*wire.Foreign, error) {
	if err := library.checkDatabase(handle); err != nil {
		return nil, err
	}
	names, err := library.store.Names(context.Background(), Object{Name: object})
	if err != nil {
		return nil, fmt.Errorf("tangotest: listing properties of %s: %w", object, err)
	}
	return library.stringDatum("property", matching(names, filter))
}

func (library *Library) GetProperty(handle client.Handle, object string, request wire.View) (*wire.Foreign, error) {
	requests, err := marshal.ReadDbData(request)
	if err != nil {
		return nil, fmt.Errorf("tangotest: property request: %w", err)
	}
	if err := library.checkDatabase(handle); err != nil {
		return nil, err
	}
	return library.getProperties(Object{Name: object}, requests)
}

func (library *Library) PutProperty(handle client.Handle, object string, data wire.View) error {
	values, err := marshal.ReadDbData(data)
	if err != nil {
		return fmt.Errorf("tangotest: property values: %w", err)
	}
	if err := library.checkDatabase(handle); err != nil {
		return err
	}
	return library.putProperties(Object{Name: object}, values)
}

func (library *Library) DeleteProperty(handle client.Handle, object string, names wire.View) error {
	values, err := marshal.ReadDbData(names)
	if err != nil {
		return fmt.Errorf("tangotest: property names: %w", err)
	}
	if err := library.checkDatabase(handle); err != nil {
		return err
	}
	return library.deleteProperties(Object{Name: object}, values)
}

// checkDatabase takes the lock to validate a database handle.
func (library *Library) checkDatabase(handle client.Handle) error {
	library.mu.Lock()
	defer library.mu.Unlock()
	return library.databaseConnection(handle)
}

// databaseConnection validates a database handle. The caller holds mu.
func (library *Library) databaseConnection(handle client.Handle) error {
	conn, err := library.connection(handle)
	if err != nil {
		return err
	}
	if conn.device != nil {
		return fmt.Errorf("tangotest: handle %d is not a database connection", handle)
	}
	return nil
}

// stringDatum returns a DbDatum holding names as a string array.
func (library *Library) stringDatum(name string, values []string) (*wire.Foreign, error) {
	datum := tango.NewDbDatum(name, tango.NewStringArray(values...))
	return library.foreign(func(allocator wire.Allocator) (*wire.Local, error) {
		return marshal.EncodeDbDatum(allocator, datum)
	})
}

func matching(names []string, filter string) []string {
	pattern := wildcard(filter)
	matched := make([]string, 0, len(names))
	for _, name := range names {
		if pattern.MatchString(name) {
			matched = append(matched, name)
		}
	}
	slices.Sort(matched)
	return matched
}
