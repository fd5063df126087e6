// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tangotest

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// Object names the owner of a property: a device, or a free object
// such as "Beamline".
type Object struct {
	Device bool
	Name   string
}

func (object Object) String() string {
	if object.Device {
		return "device " + object.Name
	}
	return "object " + object.Name
}

// PropertyStore holds properties as lists of strings, which is how the
// Tango database stores them regardless of the kind a client reads
// them as. Object and property names are case-insensitive.
type PropertyStore interface {
	// Get returns a property's strings. found is false when the
	// property does not exist.
	Get(ctx context.Context, object Object, name string) (values []string, found bool, err error)

	// Put creates or replaces a property.
	Put(ctx context.Context, object Object, name string, values []string) error

	// Delete removes a property. Deleting a missing property is not
	// an error.
	Delete(ctx context.Context, object Object, name string) error

	// Objects returns the names of free objects that have at least one
	// property, sorted.
	Objects(ctx context.Context) ([]string, error)

	// Names returns the property names of an object, sorted.
	Names(ctx context.Context, object Object) ([]string, error)
}

// MemoryStore is a PropertyStore held in memory.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[memoryKey]*storedObject
}

type storedObject struct {
	name       string
	properties map[string]storedProperty
}

type memoryKey struct {
	device bool
	name   string
}

type storedProperty struct {
	name   string
	values []string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[memoryKey]*storedObject)}
}

func keyOf(object Object) memoryKey {
	return memoryKey{device: object.Device, name: strings.ToLower(object.Name)}
}

func (store *MemoryStore) Get(_ context.Context, object Object, name string) ([]string, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	stored, ok := store.objects[keyOf(object)]
	if !ok {
		return nil, false, nil
	}
	property, ok := stored.properties[strings.ToLower(name)]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(property.values), true, nil
}

func (store *MemoryStore) Put(_ context.Context, object Object, name string, values []string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	key := keyOf(object)
	stored, ok := store.objects[key]
	if !ok {
		stored = &storedObject{name: object.Name, properties: make(map[string]storedProperty)}
		store.objects[key] = stored
	}
	stored.properties[strings.ToLower(name)] = storedProperty{name: name, values: slices.Clone(values)}
	return nil
}

func (store *MemoryStore) Delete(_ context.Context, object Object, name string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	key := keyOf(object)
	stored, ok := store.objects[key]
	if !ok {
		return nil
	}
	delete(stored.properties, strings.ToLower(name))
	if len(stored.properties) == 0 {
		delete(store.objects, key)
	}
	return nil
}

func (store *MemoryStore) Objects(context.Context) ([]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	objects := make([]string, 0, len(store.objects))
	for key, stored := range store.objects {
		if !key.device {
			objects = append(objects, stored.name)
		}
	}
	slices.Sort(objects)
	return objects, nil
}

func (store *MemoryStore) Names(_ context.Context, object Object) ([]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	stored, ok := store.objects[keyOf(object)]
	if !ok {
		return []string{}, nil
	}
	names := make([]string, 0, len(stored.properties))
	for _, property := range stored.properties {
		names = append(names, property.name)
	}
	slices.Sort(names)
	return names, nil
}
