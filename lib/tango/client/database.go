// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/marshal"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// DatabaseProxy is a connection to the Tango database.
type DatabaseProxy struct {
	session *session
}

// OpenDatabase connects to the database the library is configured
// for.
func OpenDatabase(ctx context.Context, library Library, options ...Option) (*DatabaseProxy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := newSession(library, "database", options)
	if err != nil {
		return nil, err
	}
	handle, err := library.OpenDatabase()
	if err != nil {
		s.discard()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	s.handle = handle
	return &DatabaseProxy{session: s}, nil
}

// Close disconnects from the database. Close is idempotent.
func (proxy *DatabaseProxy) Close() error {
	return proxy.session.close(proxy.session.library.CloseDatabase)
}

// DeviceExported lists exported devices whose names match filter, in
// which "*" matches any run of characters. The names are a string
// array in the returned datum.
func (proxy *DatabaseProxy) DeviceExported(ctx context.Context, filter string) (tango.DbDatum, error) {
	return exchange(ctx, proxy.session, "get_device_exported", []any{"filter", filter},
		nil,
		func(database Handle, _ wire.View) (*wire.Foreign, error) {
			return proxy.session.library.DeviceExported(database, filter)
		},
		marshal.DecodeDbDatum)
}

// DeviceExportedForClass lists exported devices of one class.
func (proxy *DatabaseProxy) DeviceExportedForClass(ctx context.Context, class string) (tango.DbDatum, error) {
	return exchange(ctx, proxy.session, "get_device_exported_for_class", []any{"class", class},
		nil,
		func(database Handle, _ wire.View) (*wire.Foreign, error) {
			return proxy.session.library.DeviceExportedForClass(database, class)
		},
		marshal.DecodeDbDatum)
}

// ObjectList lists free property objects matching filter.
func (proxy *DatabaseProxy) ObjectList(ctx context.Context, filter string) (tango.DbDatum, error) {
	return exchange(ctx, proxy.session, "get_object_list", []any{"filter", filter},
		nil,
		func(database Handle, _ wire.View) (*wire.Foreign, error) {
			return proxy.session.library.ObjectList(database, filter)
		},
		marshal.DecodeDbDatum)
}

// ObjectPropertyList lists the properties of a free object matching
// filter.
func (proxy *DatabaseProxy) ObjectPropertyList(ctx context.Context, object, filter string) (tango.DbDatum, error) {
	return exchange(ctx, proxy.session, "get_object_property_list", []any{"object", object, "filter", filter},
		nil,
		func(database Handle, _ wire.View) (*wire.Foreign, error) {
			return proxy.session.library.ObjectPropertyList(database, object, filter)
		},
		marshal.DecodeDbDatum)
}

// GetProperty fetches properties of a free object, as
// DeviceProxy.GetDeviceProperty does for devices.
func (proxy *DatabaseProxy) GetProperty(ctx context.Context, object string, request []tango.DbDatum) ([]tango.DbDatum, error) {
	return exchange(ctx, proxy.session, "get_property", []any{"object", object, "count", len(request)},
		encodeDbData(request),
		func(database Handle, argument wire.View) (*wire.Foreign, error) {
			return proxy.session.library.GetProperty(database, object, argument)
		},
		marshal.DecodeDbData)
}

// PutProperty stores properties of a free object.
func (proxy *DatabaseProxy) PutProperty(ctx context.Context, object string, data []tango.DbDatum) error {
	_, err := exchange[none](ctx, proxy.session, "put_property", []any{"object", object, "count", len(data)},
		encodeDbData(data),
		noResult(func(database Handle, argument wire.View) error {
			return proxy.session.library.PutProperty(database, object, argument)
		}),
		nil)
	return err
}

// DeleteProperty removes properties of a free object by name.
func (proxy *DatabaseProxy) DeleteProperty(ctx context.Context, object string, names ...string) error {
	_, err := exchange[none](ctx, proxy.session, "delete_property", []any{"object", object, "properties", names},
		encodeDbData(nameOnly(names)),
		noResult(func(database Handle, argument wire.View) error {
			return proxy.session.library.DeleteProperty(database, object, argument)
		}),
		nil)
	return err
}
