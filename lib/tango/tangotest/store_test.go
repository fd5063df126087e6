// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tangotest

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
)

// storeContract runs the PropertyStore behaviour every implementation
// must share.
func storeContract(t *testing.T, store PropertyStore) {
	ctx := context.Background()
	motor := Object{Device: true, Name: "sys/motor/1"}
	beamline := Object{Name: "Beamline"}

	if _, found, err := store.Get(ctx, motor, "velocity"); err != nil || found {
		t.Fatalf("Get on empty store: found=%v err=%v", found, err)
	}

	if err := store.Put(ctx, motor, "velocity", []string{"2.5"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, motor, "aliases", []string{"m1", "motor-one"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, beamline, "energy", []string{"12.4"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(ctx, beamline, "blank", nil); err != nil {
		t.Fatalf("Put: %v", err)
	}

	values, found, err := store.Get(ctx, Object{Device: true, Name: "SYS/Motor/1"}, "VELOCITY")
	if err != nil || !found {
		t.Fatalf("case-insensitive Get: found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(values, []string{"2.5"}) {
		t.Errorf("velocity: got %q, want [2.5]", values)
	}

	values, found, err = store.Get(ctx, beamline, "blank")
	if err != nil || !found {
		t.Fatalf("Get blank: found=%v err=%v", found, err)
	}
	if len(values) != 0 {
		t.Errorf("blank: got %q, want no strings", values)
	}

	if _, found, _ := store.Get(ctx, Object{Name: "sys/motor/1"}, "velocity"); found {
		t.Error("device property visible as a free-object property")
	}

	if err := store.Put(ctx, motor, "velocity", []string{"3"}); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	values, _, _ = store.Get(ctx, motor, "velocity")
	if !reflect.DeepEqual(values, []string{"3"}) {
		t.Errorf("replaced velocity: got %q, want [3]", values)
	}

	objects, err := store.Objects(ctx)
	if err != nil {
		t.Fatalf("Objects: %v", err)
	}
	if !reflect.DeepEqual(objects, []string{"Beamline"}) {
		t.Errorf("Objects: got %q, want [Beamline]", objects)
	}

	names, err := store.Names(ctx, motor)
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"aliases", "velocity"}) {
		t.Errorf("Names: got %q, want [aliases velocity]", names)
	}

	if err := store.Delete(ctx, motor, "velocity"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, motor, "never-existed"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
	if _, found, _ := store.Get(ctx, motor, "velocity"); found {
		t.Error("velocity still present after Delete")
	}

	names, err = store.Names(ctx, Object{Name: "nobody"})
	if err != nil {
		t.Fatalf("Names of unknown object: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Names of unknown object: got %q, want none", names)
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "properties.db"), nil)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	storeContract(t, store)
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "properties.db")
	ctx := context.Background()
	object := Object{Name: "Beamline"}

	store, err := OpenSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("OpenSQLiteStore: %v", err)
	}
	if err := store.Put(ctx, object, "energy", []string{"12.4"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenSQLiteStore(path, nil)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer reopened.Close()
	values, found, err := reopened.Get(ctx, object, "energy")
	if err != nil || !found {
		t.Fatalf("Get after reopen: found=%v err=%v", found, err)
	}
	if !reflect.DeepEqual(values, []string{"12.4"}) {
		t.Errorf("got %q, want [12.4]", values)
	}
}
