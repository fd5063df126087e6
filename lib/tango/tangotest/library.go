// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tangotest

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/tango/lib/clock"
	"github.com/bureau-foundation/tango/lib/tango"
	"github.com/bureau-foundation/tango/lib/tango/client"
	"github.com/bureau-foundation/tango/lib/tango/wire"
)

// DefaultTimeout is the client timeout a new connection reports.
const DefaultTimeout = 3 * time.Second

var _ client.Library = (*Library)(nil)

// Option configures a Library.
type Option func(*Library)

// WithClock sets the clock used for attribute timestamps. The default
// is clock.Real().
func WithClock(c clock.Clock) Option {
	return func(library *Library) {
		library.clock = c
	}
}

// WithLogger sets the logger for per-call debug messages.
func WithLogger(logger *slog.Logger) Option {
	return func(library *Library) {
		library.logger = logger
	}
}

// WithStore sets the property store. The default is a fresh
// MemoryStore. The library does not close a store it was given.
func WithStore(store PropertyStore) Option {
	return func(library *Library) {
		library.store = store
	}
}

// WithHeapSize sets the size of the foreign heap in bytes. Zero
// selects wire.DefaultHeapSize.
func WithHeapSize(size int) Option {
	return func(library *Library) {
		library.heapSize = size
	}
}

// Stats counts records the library returned and releases of them.
type Stats struct {
	// Returned is the number of Foreign records handed to callers.
	Returned int64

	// Released is the number of those records released through the
	// library's release routine.
	Released int64

	// Heap is the foreign heap's bookkeeping.
	Heap wire.HeapStats
}

// Outstanding is the number of returned records not yet released.
func (stats Stats) Outstanding() int64 {
	return stats.Returned - stats.Released
}

// Library is the simulated control library. It is safe for concurrent
// use.
type Library struct {
	clock    clock.Clock
	logger   *slog.Logger
	store    PropertyStore
	heapSize int
	heap     *wire.Heap

	returned atomic.Int64
	released atomic.Int64

	mu          sync.Mutex
	devices     map[string]*device
	connections map[client.Handle]*connection
	nextHandle  client.Handle
	closed      bool
}

// connection is one open handle: a device proxy's or the database's.
type connection struct {
	device  *device
	timeout time.Duration
	source  tango.DevSource
}

// New returns a Library hosting the built-in devices.
func New(options ...Option) (*Library, error) {
	library := &Library{
		devices:     make(map[string]*device),
		connections: make(map[client.Handle]*connection),
	}
	for _, option := range options {
		option(library)
	}
	if library.clock == nil {
		library.clock = clock.Real()
	}
	if library.logger == nil {
		library.logger = slog.New(slog.DiscardHandler)
	}
	if library.store == nil {
		library.store = NewMemoryStore()
	}

	heap, err := wire.NewHeap(library.heapSize)
	if err != nil {
		return nil, fmt.Errorf("tangotest: creating foreign heap: %w", err)
	}
	library.heap = heap

	library.addDevice(newTestDevice())
	library.addDevice(newEchoDevice())
	return library, nil
}

// Close unmaps the foreign heap. Records still outstanding become
// unreadable.
func (library *Library) Close() error {
	library.mu.Lock()
	defer library.mu.Unlock()
	if library.closed {
		return nil
	}
	library.closed = true
	return library.heap.Close()
}

// Stats returns the record counters.
func (library *Library) Stats() Stats {
	return Stats{
		Returned: library.returned.Load(),
		Released: library.released.Load(),
		Heap:     library.heap.Stats(),
	}
}

// Store returns the property store.
func (library *Library) Store() PropertyStore {
	return library.store
}

func (library *Library) addDevice(dev *device) {
	library.mu.Lock()
	defer library.mu.Unlock()
	library.devices[strings.ToLower(dev.name)] = dev
}

// foreign builds a record in the foreign heap and wraps it so that its
// release is counted.
func (library *Library) foreign(encode func(wire.Allocator) (*wire.Local, error)) (*wire.Foreign, error) {
	local, err := encode(library.heap)
	if err != nil {
		return nil, err
	}
	library.returned.Add(1)
	return wire.NewForeign(library.heap, local.View().Addr, func() error {
		library.released.Add(1)
		return local.Release()
	}), nil
}

// open registers a connection and returns its handle.
func (library *Library) open(conn *connection) (client.Handle, error) {
	library.mu.Lock()
	defer library.mu.Unlock()
	if library.closed {
		return 0, errors.New("tangotest: library closed")
	}
	library.nextHandle++
	library.connections[library.nextHandle] = conn
	return library.nextHandle, nil
}

// connection looks up an open handle. The caller holds mu.
func (library *Library) connection(handle client.Handle) (*connection, error) {
	if library.closed {
		return nil, errors.New("tangotest: library closed")
	}
	conn, ok := library.connections[handle]
	if !ok {
		return nil, fmt.Errorf("tangotest: unknown handle %d", handle)
	}
	return conn, nil
}

// deviceConnection looks up a device handle. The caller holds mu.
func (library *Library) deviceConnection(handle client.Handle) (*connection, error) {
	conn, err := library.connection(handle)
	if err != nil {
		return nil, err
	}
	if conn.device == nil {
		return nil, fmt.Errorf("tangotest: handle %d is not a device connection", handle)
	}
	return conn, nil
}

// deviceName reduces a device address to the lower-case domain/family/
// member name: "tango://host:10000/Sys/TG_Test/1#dbase=no" becomes
// "sys/tg_test/1".
func deviceName(address string) string {
	name := address
	if rest, ok := strings.CutPrefix(name, "tango://"); ok {
		if _, path, found := strings.Cut(rest, "/"); found {
			name = path
		} else {
			name = rest
		}
	}
	name, _, _ = strings.Cut(name, "#")
	return strings.ToLower(name)
}

// wildcard compiles a Tango name filter, in which "*" matches any run
// of characters, into a case-insensitive regular expression.
func wildcard(filter string) *regexp.Regexp {
	if filter == "" {
		filter = "*"
	}
	quoted := regexp.QuoteMeta(filter)
	return regexp.MustCompile("(?i)^" + strings.ReplaceAll(quoted, `\*`, ".*") + "$")
}

// failure returns a DevFailed error with one entry.
func failure(reason, origin, format string, args ...any) *tango.Error {
	return tango.NewError(reason, fmt.Sprintf(format, args...), origin)
}
