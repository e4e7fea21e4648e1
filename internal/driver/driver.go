// Package driver implements the chunk driver: one tick
// pulls a chunk from a source, tokenizes it, and decides whether to
// rewind the source by the trailing partial row's length or declare the
// source exhausted.
package driver

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/csvquery/csvcore/internal/colnames"
	"github.com/csvquery/csvcore/internal/parseflags"
	"github.com/csvquery/csvcore/internal/rawchunk"
	"github.com/csvquery/csvcore/internal/source"
	"github.com/csvquery/csvcore/internal/tokenizer"
)

// RowLargerThanChunkError is raised when two consecutive ticks produce
// zero complete rows: the row at the current source position does not
// fit in a single chunk, and rewinding forever would live-lock. The
// caller's remedy is to raise the chunk size.
type RowLargerThanChunkError struct {
	ChunkSize int
}

func (e *RowLargerThanChunkError) Error() string {
	return fmt.Sprintf("csvcore: row larger than chunk size (%d bytes); raise the chunk size", e.ChunkSize)
}

// ErrRowLargerThanChunk is the sentinel callers match against with
// errors.Is; RowLargerThanChunkError implements Is so the chunk size
// detail doesn't get in the way of that comparison.
var ErrRowLargerThanChunk = errors.New("csvcore: row larger than chunk size")

func (e *RowLargerThanChunkError) Is(target error) bool {
	return target == ErrRowLargerThanChunk
}

// RowRef locates one tokenized row: which chunk it belongs to, where its
// data starts within that chunk's bytes, and which span of the chunk's
// field store holds its fields. Reader wraps these into the public Row
// view.
type RowRef struct {
	Chunk      *rawchunk.Chunk
	DataStart  int
	FieldStart int
	FieldCount int
}

// chunkSink adapts one chunk's field store + row boundaries to the
// tokenizer.Sink interface.
type chunkSink struct {
	chunk               *rawchunk.Chunk
	rows                []RowRef
	fieldCountSinceEmit int
}

func (s *chunkSink) EmitField(start, length uint32, hasEscapedQuote bool) {
	s.chunk.Fields().Append(start, length, hasEscapedQuote)
	s.fieldCountSinceEmit++
}

func (s *chunkSink) EmitRow(dataStart int) {
	fieldsLen := s.chunk.Fields().Len()
	s.rows = append(s.rows, RowRef{
		Chunk:      s.chunk,
		DataStart:  dataStart,
		FieldStart: fieldsLen - s.fieldCountSinceEmit,
		FieldCount: s.fieldCountSinceEmit,
	})
	s.fieldCountSinceEmit = 0
}

// Driver pulls chunks from a Source and tokenizes each into rows. It is
// driven by a single caller (the reader's worker goroutine); it holds no
// goroutines of its own.
type Driver struct {
	src       source.Source
	flags     *parseflags.Table
	cols      *colnames.Table
	chunkSize int

	chunkIndex             int64
	eof                    bool
	consecutiveZeroRowTick bool
}

// New returns a Driver. cols is the column table attached to every
// rawchunk.Chunk it builds; the reader passes the table it resolved from
// the detection window.
func New(src source.Source, flags *parseflags.Table, cols *colnames.Table, chunkSize int) *Driver {
	return &Driver{src: src, flags: flags, cols: cols, chunkSize: chunkSize}
}

// SetColNames updates the column table shared with chunks produced from
// here on.
func (d *Driver) SetColNames(cols *colnames.Table) { d.cols = cols }

// EOF reports whether the source has been fully consumed.
func (d *Driver) EOF() bool { return d.eof }

// Tick requests one chunk from the source, tokenizes it, and returns the
// complete rows it contains. A nil, nil return with d.EOF() now true
// means the source is exhausted and no more rows will ever come.
func (d *Driver) Tick() ([]RowRef, error) {
	if d.eof {
		return nil, nil
	}

	data, err := d.src.Next(d.chunkSize)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		d.eof = true
		return nil, nil
	}

	// A short read (fewer bytes than requested) is the only
	// source-agnostic way to know no more bytes will ever arrive: it
	// holds for a known-size mmap window (remaining < chunkSize) and for
	// an io.Reader-backed stream of unknown size alike (io.ReadFull
	// returns fewer than requested only at true EOF).
	final := len(data) < d.chunkSize

	chunk := rawchunk.New(data, d.flags, d.cols, len(data)+1, d.chunkIndex)
	d.chunkIndex++

	// Mapped sources alias OS memory that must be explicitly unmapped;
	// tie that teardown to the chunk's own GC lifetime rather than to
	// "the next Tick happened to run" so a Row a caller is still holding
	// never reads freed memory. release is captured as a plain func
	// argument, not a closure over chunk, so this registration itself
	// doesn't keep chunk reachable.
	if rel, ok := d.src.(source.Releasable); ok {
		runtime.AddCleanup(chunk, func(release func()) { release() }, rel.ReleaseFunc())
	}

	sink := &chunkSink{chunk: chunk}
	tok := tokenizer.New(d.flags)
	lastComplete := tok.Process(data, sink, final)

	if final {
		d.eof = true
		return sink.rows, nil
	}

	remainder := len(data) - lastComplete
	if len(sink.rows) == 0 {
		if d.consecutiveZeroRowTick {
			return nil, &RowLargerThanChunkError{ChunkSize: d.chunkSize}
		}
		d.consecutiveZeroRowTick = true
	} else {
		d.consecutiveZeroRowTick = false
	}

	if remainder > 0 {
		if err := d.src.Rewind(remainder); err != nil {
			return nil, err
		}
	}
	return sink.rows, nil
}
