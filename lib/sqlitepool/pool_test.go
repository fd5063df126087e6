// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/tango/lib/sqlitepool"
)

const numbersSchema = `CREATE TABLE IF NOT EXISTS numbers (value INTEGER NOT NULL);`

func TestOpen_Pragmas(t *testing.T) {
	pool := openTestPool(t, "")

	err := pool.Read(context.Background(), func(conn *sqlite.Conn) error {
		var journalMode string
		var foreignKeys int
		err := sqlitex.Execute(conn, "PRAGMA journal_mode", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				journalMode = stmt.ColumnText(0)
				return nil
			},
		})
		if err != nil {
			return err
		}
		err = sqlitex.Execute(conn, "PRAGMA foreign_keys", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				foreignKeys = stmt.ColumnInt(0)
				return nil
			},
		})
		if err != nil {
			return err
		}
		if journalMode != "wal" {
			t.Errorf("journal_mode: got %q, want %q", journalMode, "wal")
		}
		if foreignKeys != 1 {
			t.Errorf("foreign_keys: got %d, want 1", foreignKeys)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestOpen_SchemaIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	for range 2 {
		pool, err := sqlitepool.Open(sqlitepool.Config{Path: path, Schema: numbersSchema})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if err := insert(pool, 1); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if err := pool.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
}

func TestOpen_BadSchema(t *testing.T) {
	_, err := sqlitepool.Open(sqlitepool.Config{
		Path:   filepath.Join(t.TempDir(), "bad.db"),
		Schema: "CREATE TABLET nonsense;",
	})
	if err == nil {
		t.Fatal("Open succeeded with an invalid schema")
	}
}

func TestOpen_Rejects(t *testing.T) {
	if _, err := sqlitepool.Open(sqlitepool.Config{}); err == nil {
		t.Error("empty Path accepted")
	}
	if _, err := sqlitepool.Open(sqlitepool.Config{Path: ":memory:", PoolSize: 2}); err == nil {
		t.Error("in-memory database with two connections accepted")
	}
}

func TestWrite_RollsBackOnError(t *testing.T) {
	pool := openTestPool(t, numbersSchema)
	failure := errors.New("abandon")

	err := pool.Write(context.Background(), func(conn *sqlite.Conn) error {
		if err := sqlitex.Execute(conn, "INSERT INTO numbers (value) VALUES (?)", &sqlitex.ExecOptions{
			Args: []any{42},
		}); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Write: got %v, want %v", err, failure)
	}
	if count := countRows(t, pool); count != 0 {
		t.Errorf("rows after rollback: got %d, want 0", count)
	}

	if err := insert(pool, 7); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if count := countRows(t, pool); count != 1 {
		t.Errorf("rows after commit: got %d, want 1", count)
	}
}

func TestConcurrentReads(t *testing.T) {
	pool := openTestPool(t, numbersSchema)
	for value := 1; value <= 5; value++ {
		if err := insert(pool, value); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	const goroutineCount = 8
	var waitGroup sync.WaitGroup
	failures := make(chan error, goroutineCount)
	for range goroutineCount {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			var sum int64
			err := pool.Read(context.Background(), func(conn *sqlite.Conn) error {
				return sqlitex.Execute(conn, "SELECT value FROM numbers", &sqlitex.ExecOptions{
					ResultFunc: func(stmt *sqlite.Stmt) error {
						sum += stmt.ColumnInt64(0)
						return nil
					},
				})
			})
			if err != nil {
				failures <- err
				return
			}
			if sum != 15 {
				failures <- fmt.Errorf("sum: got %d, want 15", sum)
			}
		}()
	}
	waitGroup.Wait()
	close(failures)
	for err := range failures {
		t.Error(err)
	}
}

func TestTake_ContextCancelled(t *testing.T) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(t.TempDir(), "cancel.db"),
		PoolSize: 1,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()

	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer pool.Put(conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Take(ctx); err == nil {
		t.Fatal("Take succeeded with a cancelled context and no free connection")
	}
}

func openTestPool(t *testing.T, schema string) *sqlitepool.Pool {
	t.Helper()
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   filepath.Join(t.TempDir(), "test.db"),
		Schema: schema,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return pool
}

func insert(pool *sqlitepool.Pool, value int) error {
	return pool.Write(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "INSERT INTO numbers (value) VALUES (?)", &sqlitex.ExecOptions{
			Args: []any{value},
		})
	})
}

func countRows(t *testing.T, pool *sqlitepool.Pool) int {
	t.Helper()
	var count int
	err := pool.Read(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT count(*) FROM numbers", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	})
	if err != nil {
		t.Fatalf("counting rows: %v", err)
	}
	return count
}
