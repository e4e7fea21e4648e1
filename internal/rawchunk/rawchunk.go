// Package rawchunk implements RawCSVData: a single parsed chunk's owned
// bytes, its field descriptor store, and a lazily-populated per-field
// unescape cache shared by every row built from this chunk.
package rawchunk

import (
	"sync"
	"sync/atomic"

	"github.com/csvquery/csvcore/internal/colnames"
	"github.com/csvquery/csvcore/internal/fieldstore"
	"github.com/csvquery/csvcore/internal/parseflags"
)

// Chunk owns one chunk's bytes (a mapped window or a heap buffer), the
// tokenizer's parse-flag table, a reference to the reader-wide column
// table, the chunk's field store, and its unescape cache. A Row keeps a
// Chunk reachable for as long as the caller holds that Row; Go's GC
// supersedes the source project's manual reference counting for the
// common heap-buffer case, so Chunk carries no refcount of its own. For
// a chunk backed by a mapped window, the driver additionally registers a
// GC cleanup (see internal/driver.Tick and internal/source.Releasable)
// that unmaps the window once this Chunk becomes unreachable — so the
// mapping, too, survives exactly as long as a Row pinning it does.
type Chunk struct {
	Bytes []byte
	Flags *parseflags.Table
	Cols  *colnames.Table
	Index int64 // monotonically increasing chunk sequence number

	fields *fieldstore.Store

	// unescapeMu guards the slow path of the double-checked unescape
	// cache; cache holds the current published snapshot and is read
	// lock-free by callers that find their field index already present.
	unescapeMu sync.Mutex
	cache      atomic.Pointer[map[int]string]
}

// New wraps bytes with a fresh field store sized for maxFields
// descriptors (the driver sizes this to chunk_bytes+1, the worst case).
func New(bytes []byte, flags *parseflags.Table, cols *colnames.Table, maxFields int, chunkIndex int64) *Chunk {
	return &Chunk{
		Bytes: bytes,
		Flags: flags,
		Cols:  cols,
		Index: chunkIndex,
		fields: fieldstore.New(maxFields),
	}
}

// Fields returns the chunk's field descriptor store.
func (c *Chunk) Fields() *fieldstore.Store { return c.fields }

// FieldBytes returns the raw (still-escaped) bytes of a field, given the
// byte offset of the owning row's start within this chunk.
func (c *Chunk) FieldBytes(rowDataStart int, f fieldstore.RawField) []byte {
	start := rowDataStart + int(f.Start)
	return c.Bytes[start : start+int(f.Length)]
}

// Unescape returns the unescaped (doubled-quote-contracted) string for
// the field at globalFieldIndex, computing and caching it on first call.
// Readers that find a populated entry proceed without taking the mutex.
func (c *Chunk) Unescape(globalFieldIndex int, raw []byte) string {
	if m := c.cache.Load(); m != nil {
		if s, ok := (*m)[globalFieldIndex]; ok {
			return s
		}
	}

	c.unescapeMu.Lock()
	defer c.unescapeMu.Unlock()

	var prev map[int]string
	if p := c.cache.Load(); p != nil {
		prev = *p
		if s, ok := prev[globalFieldIndex]; ok {
			return s
		}
	}

	s := unescapeDoubledQuotes(raw)
	next := make(map[int]string, len(prev)+1)
	for k, v := range prev {
		next[k] = v
	}
	next[globalFieldIndex] = s
	c.cache.Store(&next)
	return s
}

// unescapeDoubledQuotes contracts every "" pair into a single ".
func unescapeDoubledQuotes(raw []byte) string {
	hasDouble := false
	for i := 0; i+1 < len(raw); i++ {
		if raw[i] == '"' && raw[i+1] == '"' {
			hasDouble = true
			break
		}
	}
	if !hasDouble {
		return string(raw)
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		out = append(out, raw[i])
		if raw[i] == '"' && i+1 < len(raw) && raw[i+1] == '"' {
			i++
		}
	}
	return string(out)
}
