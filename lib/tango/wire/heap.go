// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultHeapSize is the region size used when NewHeap is given zero.
const DefaultHeapSize = 4 << 20

// poison is written over freed blocks so stale native readers see
// garbage rather than plausible data.
const poison = 0xdd

// Heap is an Allocator backed by an anonymous mmap region outside the
// Go heap. The garbage collector never moves or frees it, so addresses
// handed out by Alloc are real process addresses that C code can read
// and write for as long as the block is live.
//
// Allocation is first-fit over an offset-sorted free list with
// coalescing on free. Every access through Slice or CString is checked
// against the live blocks: reading a freed block, straddling two
// blocks, or running off the end of one returns ErrOutOfBounds.
// Freeing anything other than the start of a live block returns
// ErrInvalidFree, which is how double frees surface.
//
// Heap is safe for concurrent use.
type Heap struct {
	mu     sync.Mutex
	region []byte
	base   Ptr
	live   []span // sorted by offset
	free   []span // sorted by offset, coalesced
	stats  HeapStats
	closed bool
}

type span struct {
	offset uint64
	size   uint64
}

func (s span) end() uint64 { return s.offset + s.size }

// HeapStats is a snapshot of a heap's bookkeeping.
type HeapStats struct {
	// Allocs and Frees count successful calls.
	Allocs uint64
	Frees  uint64

	// InvalidFrees counts Free calls rejected with ErrInvalidFree.
	InvalidFrees uint64

	// Live is the number of blocks currently allocated, and LiveBytes
	// their total requested size.
	Live      int
	LiveBytes uint64

	// Accesses counts Slice and CString calls that succeeded, and
	// BytesAccessed the bytes they covered.
	Accesses      uint64
	BytesAccessed uint64
}

// NewHeap maps a region of at least size bytes (rounded up to the page
// size). A size of zero selects DefaultHeapSize. The caller must call
// Close when the heap is no longer needed.
func NewHeap(size int) (*Heap, error) {
	if size < 0 {
		return nil, fmt.Errorf("wire: heap size must not be negative, got %d", size)
	}
	if size == 0 {
		size = DefaultHeapSize
	}
	pageSize := os.Getpagesize()
	size = (size + pageSize - 1) / pageSize * pageSize

	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("wire: mmap %d bytes: %w", size, err)
	}

	return &Heap{
		region: region,
		base:   Ptr(uintptr(unsafe.Pointer(&region[0]))),
		free:   []span{{offset: 0, size: uint64(size)}},
	}, nil
}

// Base returns the address of the first byte of the region.
func (heap *Heap) Base() Ptr {
	return heap.base
}

// Size returns the region size in bytes.
func (heap *Heap) Size() uint64 {
	return uint64(len(heap.region))
}

// Alloc returns a zeroed block of size bytes aligned to align, which
// must be a power of two. A zero size is allocated as one byte so that
// every live block has a distinct address.
func (heap *Heap) Alloc(size, align uint64) (Ptr, error) {
	if align == 0 || align&(align-1) != 0 {
		return 0, fmt.Errorf("wire: alignment %d is not a power of two", align)
	}
	if size == 0 {
		size = 1
	}

	heap.mu.Lock()
	defer heap.mu.Unlock()

	if heap.closed {
		return 0, ErrClosed
	}

	for index, hole := range heap.free {
		start := alignUp(uint64(heap.base)+hole.offset, align) - uint64(heap.base)
		if start+size > hole.end() || start+size < start {
			continue
		}

		// Carve [start, start+size) out of the hole, keeping whatever
		// remains on either side.
		var remaining []span
		if start > hole.offset {
			remaining = append(remaining, span{offset: hole.offset, size: start - hole.offset})
		}
		if start+size < hole.end() {
			remaining = append(remaining, span{offset: start + size, size: hole.end() - (start + size)})
		}
		heap.free = append(heap.free[:index], append(remaining, heap.free[index+1:]...)...)

		block := span{offset: start, size: size}
		clear(heap.region[block.offset:block.end()])
		heap.insertLive(block)

		heap.stats.Allocs++
		heap.stats.Live++
		heap.stats.LiveBytes += size
		return heap.base.Add(start), nil
	}

	return 0, fmt.Errorf("wire: allocating %d bytes (align %d) from %d-byte heap with %d live blocks: %w",
		size, align, len(heap.region), len(heap.live), ErrOutOfMemory)
}

// Free releases the block starting at ptr. Free(0) does nothing.
func (heap *Heap) Free(ptr Ptr) error {
	if ptr == 0 {
		return nil
	}

	heap.mu.Lock()
	defer heap.mu.Unlock()

	if heap.closed {
		return ErrClosed
	}

	index, ok := heap.findLiveStart(ptr)
	if !ok {
		heap.stats.InvalidFrees++
		return fmt.Errorf("wire: free %#x: %w", uint64(ptr), ErrInvalidFree)
	}

	block := heap.live[index]
	heap.live = append(heap.live[:index], heap.live[index+1:]...)
	for i := range heap.region[block.offset:block.end()] {
		heap.region[block.offset+uint64(i)] = poison
	}
	heap.insertFree(block)

	heap.stats.Frees++
	heap.stats.Live--
	heap.stats.LiveBytes -= block.size
	return nil
}

// Slice implements Memory.
func (heap *Heap) Slice(ptr Ptr, n uint64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}

	heap.mu.Lock()
	defer heap.mu.Unlock()

	if heap.closed {
		return nil, ErrClosed
	}

	block, ok := heap.containing(ptr)
	if !ok {
		return nil, ErrOutOfBounds
	}
	offset := uint64(ptr - heap.base)
	if offset+n > block.end() || offset+n < offset {
		return nil, ErrOutOfBounds
	}

	heap.stats.Accesses++
	heap.stats.BytesAccessed += n
	return heap.region[offset : offset+n : offset+n], nil
}

// CString implements Memory. The terminator must lie inside the same
// live block as ptr.
func (heap *Heap) CString(ptr Ptr) ([]byte, error) {
	heap.mu.Lock()
	defer heap.mu.Unlock()

	if heap.closed {
		return nil, ErrClosed
	}

	block, ok := heap.containing(ptr)
	if !ok {
		return nil, ErrOutOfBounds
	}
	offset := uint64(ptr - heap.base)
	tail := heap.region[offset:block.end()]
	length := bytes.IndexByte(tail, 0)
	if length < 0 {
		return nil, fmt.Errorf("unterminated string: %w", ErrOutOfBounds)
	}

	heap.stats.Accesses++
	heap.stats.BytesAccessed += uint64(length) + 1
	return tail[:length:length], nil
}

// Owns reports whether ptr lies inside a live block of this heap.
func (heap *Heap) Owns(ptr Ptr) bool {
	heap.mu.Lock()
	defer heap.mu.Unlock()
	_, ok := heap.containing(ptr)
	return ok
}

// Stats returns a snapshot of the heap's counters.
func (heap *Heap) Stats() HeapStats {
	heap.mu.Lock()
	defer heap.mu.Unlock()
	return heap.stats
}

// Close unmaps the region. Live blocks are discarded. Close is
// idempotent.
func (heap *Heap) Close() error {
	heap.mu.Lock()
	defer heap.mu.Unlock()

	if heap.closed {
		return nil
	}
	heap.closed = true
	heap.live = nil
	heap.free = nil

	if err := unix.Munmap(heap.region); err != nil {
		return fmt.Errorf("wire: munmap: %w", err)
	}
	heap.region = nil
	return nil
}

// containing returns the live block that contains ptr. Caller holds mu.
func (heap *Heap) containing(ptr Ptr) (span, bool) {
	if ptr < heap.base || uint64(ptr-heap.base) >= uint64(len(heap.region)) {
		return span{}, false
	}
	offset := uint64(ptr - heap.base)
	// First block starting after offset; the candidate is just before.
	index := sort.Search(len(heap.live), func(i int) bool {
		return heap.live[i].offset > offset
	})
	if index == 0 {
		return span{}, false
	}
	block := heap.live[index-1]
	if offset >= block.end() {
		return span{}, false
	}
	return block, true
}

// findLiveStart returns the index of the live block that starts
// exactly at ptr. Caller holds mu.
func (heap *Heap) findLiveStart(ptr Ptr) (int, bool) {
	if ptr < heap.base {
		return 0, false
	}
	offset := uint64(ptr - heap.base)
	index := sort.Search(len(heap.live), func(i int) bool {
		return heap.live[i].offset >= offset
	})
	if index < len(heap.live) && heap.live[index].offset == offset {
		return index, true
	}
	return 0, false
}

func (heap *Heap) insertLive(block span) {
	index := sort.Search(len(heap.live), func(i int) bool {
		return heap.live[i].offset > block.offset
	})
	heap.live = append(heap.live, span{})
	copy(heap.live[index+1:], heap.live[index:])
	heap.live[index] = block
}

// insertFree adds block to the free list and merges it with adjacent
// holes.
func (heap *Heap) insertFree(block span) {
	index := sort.Search(len(heap.free), func(i int) bool {
		return heap.free[i].offset > block.offset
	})
	heap.free = append(heap.free, span{})
	copy(heap.free[index+1:], heap.free[index:])
	heap.free[index] = block

	if index+1 < len(heap.free) && heap.free[index].end() == heap.free[index+1].offset {
		heap.free[index].size += heap.free[index+1].size
		heap.free = append(heap.free[:index+1], heap.free[index+2:]...)
	}
	if index > 0 && heap.free[index-1].end() == heap.free[index].offset {
		heap.free[index-1].size += heap.free[index].size
		heap.free = append(heap.free[:index], heap.free[index+1:]...)
	}
}

func alignUp(value, align uint64) uint64 {
	return (value + align - 1) &^ (align - 1)
}
