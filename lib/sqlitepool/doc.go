// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool is a small SQLite connection pool over
// zombiezen.com/go/sqlite, used by the simulated control library to
// keep its property database on disk.
//
// Every connection runs with WAL journaling, synchronous=NORMAL, a
// five second busy timeout, foreign keys on and in-memory temporary
// storage. A schema script given in [Config] is applied once when the
// pool opens.
//
// Callers either borrow a connection directly:
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
//
// or let [Pool.Read] and [Pool.Write] do the borrowing, the latter
// inside an IMMEDIATE transaction that commits when the callback
// returns nil. Statements are run with sqlitex.Execute; there is no
// query builder.
package sqlitepool
