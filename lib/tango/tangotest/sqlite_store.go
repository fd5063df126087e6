// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tangotest

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/tango/lib/codec"
	"github.com/bureau-foundation/tango/lib/sqlitepool"
)

// propertySchema keeps one row per property. The string list is a
// CBOR array so that a property with no strings stays distinct from a
// missing one.
const propertySchema = `
CREATE TABLE IF NOT EXISTS property (
	device INTEGER NOT NULL,
	object TEXT NOT NULL COLLATE NOCASE,
	name   TEXT NOT NULL COLLATE NOCASE,
	value  BLOB NOT NULL,
	PRIMARY KEY (device, object, name)
);
`

// SQLiteStore is a PropertyStore kept in a SQLite database file.
type SQLiteStore struct {
	pool *sqlitepool.Pool
}

var _ PropertyStore = (*SQLiteStore)(nil)

// OpenSQLiteStore opens or creates the property database at path.
func OpenSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Schema: propertySchema,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("property store: %w", err)
	}
	return &SQLiteStore{pool: pool}, nil
}

// Close closes the database.
func (store *SQLiteStore) Close() error {
	return store.pool.Close()
}

func (store *SQLiteStore) Get(ctx context.Context, object Object, name string) ([]string, bool, error) {
	var encoded []byte
	found := false
	err := store.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"SELECT value FROM property WHERE device = ? AND object = ? AND name = ?",
			&sqlitex.ExecOptions{
				Args: []any{deviceFlag(object), object.Name, name},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					encoded = make([]byte, stmt.ColumnLen(0))
					stmt.ColumnBytes(0, encoded)
					found = true
					return nil
				},
			})
	})
	if err != nil {
		return nil, false, fmt.Errorf("property store: get %q of %s: %w", name, object, err)
	}
	if !found {
		return nil, false, nil
	}
	var values []string
	if err := codec.Unmarshal(encoded, &values); err != nil {
		return nil, false, fmt.Errorf("property store: decoding %q of %s: %w", name, object, err)
	}
	return values, true, nil
}

func (store *SQLiteStore) Put(ctx context.Context, object Object, name string, values []string) error {
	if values == nil {
		values = []string{}
	}
	encoded, err := codec.Marshal(values)
	if err != nil {
		return fmt.Errorf("property store: encoding %q of %s: %w", name, object, err)
	}
	err = store.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			`INSERT INTO property (device, object, name, value) VALUES (?, ?, ?, ?)
			ON CONFLICT (device, object, name) DO UPDATE SET value = excluded.value`,
			&sqlitex.ExecOptions{Args: []any{deviceFlag(object), object.Name, name, encoded}})
	})
	if err != nil {
		return fmt.Errorf("property store: put %q of %s: %w", name, object, err)
	}
	return nil
}

func (store *SQLiteStore) Delete(ctx context.Context, object Object, name string) error {
	err := store.pool.Write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"DELETE FROM property WHERE device = ? AND object = ? AND name = ?",
			&sqlitex.ExecOptions{Args: []any{deviceFlag(object), object.Name, name}})
	})
	if err != nil {
		return fmt.Errorf("property store: delete %q of %s: %w", name, object, err)
	}
	return nil
}

func (store *SQLiteStore) Objects(ctx context.Context) ([]string, error) {
	objects := []string{}
	err := store.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"SELECT DISTINCT object FROM property WHERE device = 0 ORDER BY object",
			&sqlitex.ExecOptions{
				ResultFunc: func(stmt *sqlite.Stmt) error {
					objects = append(objects, stmt.ColumnText(0))
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("property store: listing objects: %w", err)
	}
	return objects, nil
}

func (store *SQLiteStore) Names(ctx context.Context, object Object) ([]string, error) {
	names := []string{}
	err := store.pool.Read(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn,
			"SELECT name FROM property WHERE device = ? AND object = ? ORDER BY name",
			&sqlitex.ExecOptions{
				Args: []any{deviceFlag(object), object.Name},
				ResultFunc: func(stmt *sqlite.Stmt) error {
					names = append(names, stmt.ColumnText(0))
					return nil
				},
			})
	})
	if err != nil {
		return nil, fmt.Errorf("property store: listing properties of %s: %w", object, err)
	}
	return names, nil
}

func deviceFlag(object Object) int {
	if object.Device {
		return 1
	}
	return 0
}
