// Package fieldstore implements the append-only, block-allocated field
// descriptor store described by the tokenizer/chunk design: the worker
// goroutine appends field descriptors monotonically while a consumer
// goroutine (delivered a row through the reader's queue) may read
// previously-appended descriptors concurrently, without taking a lock on
// the hot path.
package fieldstore

import "sync/atomic"

// RawField is a single field descriptor. Start and Length are byte
// offsets relative to the owning row's start, not the chunk's start.
// Length excludes the surrounding quotes (if any) but counts escaped
// quote bytes; the unescape pass contracts them later.
type RawField struct {
	Start           uint32
	Length          uint32
	HasEscapedQuote bool
}

// blockCapacity is the number of RawField entries per block; with a
// 12-byte RawField a block occupies about 2 KiB. Fields of the same row usually
// land in the same block, which keeps sequential field scans cache-local.
const blockCapacity = 170

type block struct {
	fields [blockCapacity]RawField
}

// Store is an append-only sequence of RawField. Its block table is
// pre-sized by New to the worst case for one chunk (chunk_bytes+1
// fields), so no resize of the block table happens during a chunk parse;
// append never invalidates a reference obtained via Index.
type Store struct {
	blocks []atomic.Pointer[block]
	length atomic.Uint64

	// writeCursor is the producer's private append position. It is only
	// ever touched by the single goroutine that calls Append, so it
	// needs no synchronization of its own.
	writeCursor int
}

// New allocates a Store whose block table can hold at least maxFields
// descriptors without growing.
func New(maxFields int) *Store {
	s := &Store{}
	s.Reset(maxFields)
	return s
}

func blockCount(maxFields int) int {
	n := (maxFields + blockCapacity - 1) / blockCapacity
	if n < 1 {
		n = 1
	}
	return n
}

// Reset recycles the Store for a new chunk. It must only be called once
// no reader can still observe the previous chunk's contents; New uses it
// to initialize a fresh Store, and the driver allocates a new Store per
// chunk rather than recycling one. The historical defect this guards against: after a move/reuse, the
// "next free" position must be recomputed against the new block table,
// never left pointing at the old owner's blocks.
func (s *Store) Reset(maxFields int) {
	n := blockCount(maxFields)
	if cap(s.blocks) >= n {
		s.blocks = s.blocks[:n]
		for i := range s.blocks {
			s.blocks[i].Store(nil)
		}
	} else {
		s.blocks = make([]atomic.Pointer[block], n)
	}
	s.writeCursor = 0
	s.length.Store(0)
}

// blockFor returns the block containing descriptor index idx, allocating
// it on first touch. Only the producer calls this (via Append), so the
// allocate-if-nil check has no concurrent writer to race with; the
// release store through atomic.Pointer is what lets a concurrent reader
// (via Index) safely observe the block once it is published.
func (s *Store) blockFor(idx int) *block {
	bi := idx / blockCapacity
	if bi >= len(s.blocks) {
		s.grow(bi + 1)
	}
	b := s.blocks[bi].Load()
	if b == nil {
		b = &block{}
		s.blocks[bi].Store(b)
	}
	return b
}

// grow extends the block table. The driver sizes Store to the worst case
// up front, so this is a defensive fallback rather than a hot path.
func (s *Store) grow(minBlocks int) {
	if minBlocks <= len(s.blocks) {
		return
	}
	next := make([]atomic.Pointer[block], minBlocks)
	copy(next, s.blocks)
	s.blocks = next
}

// Append adds a descriptor and returns its index. Append is O(1)
// amortized and is only ever called from the single producer goroutine.
func (s *Store) Append(start, length uint32, hasEscapedQuote bool) int {
	idx := s.writeCursor
	b := s.blockFor(idx)
	b.fields[idx%blockCapacity] = RawField{Start: start, Length: length, HasEscapedQuote: hasEscapedQuote}
	s.writeCursor++
	// Release: publishes idx+1 fields to any goroutine that acquire-loads Len().
	s.length.Store(uint64(s.writeCursor))
	return idx
}

// Len returns the number of published descriptors. A consumer observing
// Len() > i via this acquire load is guaranteed to see a fully-written
// descriptor at Index(i).
func (s *Store) Len() int { return int(s.length.Load()) }

// Index returns the descriptor at position i. Valid for any i the caller
// has observed via a prior Len() > i.
func (s *Store) Index(i int) RawField {
	b := s.blocks[i/blockCapacity].Load()
	return b.fields[i%blockCapacity]
}
