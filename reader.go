// Package csvcore is a streaming, chunked CSV/DSV reader and writer: a
// character-class tokenizer runs on a worker goroutine over bounded
// memory windows (memory-mapped files or generic byte streams), handing
// parsed rows to the calling goroutine through a thread-safe queue.
package csvcore

import (
	"io"
	"sync"

	"github.com/csvquery/csvcore/internal/colnames"
	"github.com/csvquery/csvcore/internal/detect"
	"github.com/csvquery/csvcore/internal/driver"
	"github.com/csvquery/csvcore/internal/parseflags"
	"github.com/csvquery/csvcore/internal/source"
)

// Reader is a single-pass, input-only reader over delimited text. One
// worker goroutine runs the chunk driver; ReadRow is the only consumer
// entry point and must not be called concurrently from multiple
// goroutines (single-producer/single-consumer).
type Reader struct {
	format Format
	src    source.Source
	path   string

	mu         sync.Mutex
	cond       *sync.Cond
	queue      []driver.RowRef
	waitable   bool
	workerErr  error
	readReq    bool
	workerDone bool

	drv        *driver.Driver
	flags      *parseflags.Table
	cols       *colnames.Table
	nCols      int
	nColsFixed bool
	utf8BOM    bool
	nRows      int64
	eof        bool
	closed     bool
}

// Open opens path and returns a Reader configured per format.
func Open(path string, format Format) (*Reader, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	chunkSize := format.chunkSize()
	src, err := source.NewMmapSource(path, chunkSize)
	if err != nil {
		return nil, err
	}
	r, err := newReader(src, format, chunkSize)
	if err != nil {
		return nil, err
	}
	r.path = path
	return r, nil
}

// OpenReader wraps an already-open byte stream and returns a Reader
// configured per format. The stream is read to exhaustion and closed
// (if it implements io.Closer) when the Reader is closed.
func OpenReader(rd io.Reader, format Format) (*Reader, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	chunkSize := format.chunkSize()
	src := source.NewStreamSource(rd, -1)
	return newReader(src, format, chunkSize)
}

func newReader(src source.Source, format Format, chunkSize int) (*Reader, error) {
	window, err := src.Next(detect.WindowSize)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	if err := src.Rewind(len(window)); err != nil {
		_ = src.Close()
		return nil, err
	}

	utf8BOM := false
	if format.DetectBOM && len(window) >= 3 && window[0] == 0xEF && window[1] == 0xBB && window[2] == 0xBF {
		utf8BOM = true
		window = window[3:]
	}

	delimiter, headerRow, colNames, err := resolveFormat(window, format)
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	flags, err := parseflags.New([]byte{delimiter}, format.QuoteByte, format.QuoteEnabled, format.TrimBytes)
	if err != nil {
		_ = src.Close()
		return nil, &ConfigError{Reason: "overlapping parse-class bytes", Err: err}
	}

	if utf8BOM {
		src = &bomStrippingSource{Source: src}
	}

	var cols *colnames.Table
	nCols := 0
	nColsFixed := false
	if len(colNames) > 0 {
		cols = colnames.New(colNames)
		nCols = len(colNames)
		nColsFixed = true
	} else {
		cols = colnames.New(nil)
	}

	r := &Reader{
		format:     format,
		src:        src,
		drv:        driver.New(src, flags, cols, chunkSize),
		flags:      flags,
		cols:       cols,
		nCols:      nCols,
		nColsFixed: nColsFixed,
		utf8BOM:    utf8BOM,
	}
	r.cond = sync.NewCond(&r.mu)

	if headerRow >= 0 {
		if err := r.skipHeaderRows(headerRow + 1); err != nil {
			_ = src.Close()
			return nil, err
		}
	}
	return r, nil
}

// resolveFormat decides the effective delimiter, header row index, and
// column names from the format and the leading window: a single
// configured delimiter pins it outright; more than one
// candidate triggers auto-detection; explicit ColumnNames bypass header
// row inference entirely (already validated mutually exclusive with a
// configured HeaderRow).
func resolveFormat(window []byte, format Format) (delimiter byte, headerRow int, colNames []string, err error) {
	if len(format.ColumnNames) > 0 {
		delimiter = format.Delimiters[0]
		if len(format.Delimiters) != 1 {
			res, derr := detect.Detect(window, format.QuoteByte, format.QuoteEnabled, format.Delimiters, format.TrimBytes)
			if derr != nil {
				return 0, 0, nil, &ConfigError{Reason: "format auto-detection failed", Err: derr}
			}
			delimiter = res.Delimiter
		}
		return delimiter, -1, format.ColumnNames, nil
	}

	if len(format.Delimiters) == 1 {
		delimiter = format.Delimiters[0]
		if format.HeaderRow < 0 {
			return delimiter, -1, nil, nil
		}
		names, rerr := detect.ExtractRow(window, delimiter, format.QuoteByte, format.QuoteEnabled, format.TrimBytes, format.HeaderRow)
		if rerr != nil {
			return 0, 0, nil, &ConfigError{Reason: "header row extraction failed", Err: rerr}
		}
		return delimiter, format.HeaderRow, names, nil
	}

	res, derr := detect.Detect(window, format.QuoteByte, format.QuoteEnabled, format.Delimiters, format.TrimBytes)
	if derr != nil {
		return 0, 0, nil, &ConfigError{Reason: "format auto-detection failed", Err: derr}
	}
	if format.HeaderRow >= 0 && format.HeaderRow != res.HeaderRow {
		names, rerr := detect.ExtractRow(window, res.Delimiter, format.QuoteByte, format.QuoteEnabled, format.TrimBytes, format.HeaderRow)
		if rerr != nil {
			return 0, 0, nil, &ConfigError{Reason: "header row extraction failed", Err: rerr}
		}
		return res.Delimiter, format.HeaderRow, names, nil
	}
	return res.Delimiter, res.HeaderRow, res.ColumnNames, nil
}

// bomStrippingSource removes a leading UTF-8 BOM from the first chunk a
// Source produces. newReader already determined the BOM is present (and
// re-wound past the detection peek), so this unconditionally strips the
// first 3 bytes once.
type bomStrippingSource struct {
	source.Source
	stripped bool
}

func (b *bomStrippingSource) Next(maxBytes int) ([]byte, error) {
	if b.stripped {
		return b.Source.Next(maxBytes)
	}
	// Request 3 extra bytes so the stripped chunk is still maxBytes long
	// unless the source is exhausted: the driver reads a short chunk as
	// end of input.
	data, err := b.Source.Next(maxBytes + 3)
	if err != nil || len(data) < 3 {
		return data, err
	}
	b.stripped = true
	return data[3:], nil
}

// ReleaseFunc forwards to the wrapped source when it's Releasable (an
// MmapSource, notably): embedding source.Source only promotes that
// interface's own method set, not ReleaseFunc, so without this override
// a BOM-stripped mmap source would silently stop participating in the
// driver's per-chunk GC-cleanup registration and leak mapped windows.
func (b *bomStrippingSource) ReleaseFunc() func() {
	if rel, ok := b.Source.(source.Releasable); ok {
		return rel.ReleaseFunc()
	}
	return func() {}
}

// skipHeaderRows pops and discards n rows (the comment/blank lines
// before the header, plus the header row itself) without exposing them
// to the caller.
func (r *Reader) skipHeaderRows(n int) error {
	for i := 0; i < n; i++ {
		if ok, err := r.nextRow(); err != nil {
			return err
		} else if !ok {
			return nil
		}
	}
	return nil
}

// nextRow pulls one row from the driver's queue, running the producer
// loop inline, since header-skipping and ReadRow share the same queue
// machinery; see runWorker for the full async path used once iteration
// starts.
func (r *Reader) nextRow() (bool, error) {
	for {
		if len(r.queue) > 0 {
			r.queue = r.queue[1:]
			return true, nil
		}
		if r.eof {
			return false, nil
		}
		rows, err := r.drv.Tick()
		if err != nil {
			return false, err
		}
		r.queue = rows
		if r.drv.EOF() {
			r.eof = true
		}
		if len(r.queue) == 0 && r.eof {
			return false, nil
		}
	}
}

// runWorker is the producer routine: it runs one driver
// tick, capturing any error into workerErr rather than letting it escape
// the goroutine, and toggles waitable around the call so a concurrent
// ReadRow knows whether to block or conclude exhaustion.
func (r *Reader) runWorker() {
	r.mu.Lock()
	r.waitable = true
	r.cond.Broadcast()
	r.mu.Unlock()

	rows, err := r.drv.Tick()

	r.mu.Lock()
	if err != nil {
		r.workerErr = err
	} else {
		r.queue = append(r.queue, rows...)
		if r.drv.EOF() {
			r.eof = true
		}
	}
	r.waitable = false
	r.workerDone = true
	r.cond.Broadcast()
	r.mu.Unlock()
}

// ReadRow returns the next row, or (Row{}, false, nil) at end of input.
// A non-nil error means the worker observed an unrecoverable failure
// (I/O, an oversized row) or the current row violates the configured
// VariableColumns policy under Throw.
func (r *Reader) ReadRow() (Row, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		if r.closed {
			return Row{}, false, nil
		}
		if len(r.queue) > 0 {
			ref := r.queue[0]
			r.queue = r.queue[1:]
			r.readReq = false
			row, ok, err := r.acceptRowLocked(ref)
			if !ok && err == nil {
				// IgnoreRow policy dropped this row; loop for the next one.
				continue
			}
			return row, ok, err
		}

		if r.waitable {
			r.cond.Wait()
			continue
		}

		// Queue empty, no worker in flight.
		if r.workerErr != nil {
			err := r.workerErr
			r.workerErr = nil
			return Row{}, false, err
		}
		if r.eof {
			return Row{}, false, nil
		}
		if r.readReq {
			return Row{}, false, &RowLargerThanChunkError{ChunkSize: r.format.chunkSize()}
		}

		r.readReq = true
		r.workerDone = false
		r.mu.Unlock()
		go r.runWorker()
		r.mu.Lock()
		for !r.workerDone && len(r.queue) == 0 {
			r.cond.Wait()
		}
	}
}

// acceptRowLocked applies the variable-column policy and, for a
// column-less reader, lazily fixes the column count from the first row
// observed. Called with r.mu held. A (Row{}, false, nil) return means
// the row was silently dropped under the IgnoreRow policy, distinct
// from (Row{}, false, nil)-at-EOF only in that the caller's loop
// continues rather than returning.
func (r *Reader) acceptRowLocked(ref driver.RowRef) (Row, bool, error) {
	if !r.nColsFixed {
		r.nCols = ref.FieldCount
		r.nColsFixed = true
	} else if ref.FieldCount != r.nCols {
		switch r.format.VariableColumns {
		case IgnoreRow:
			return Row{}, false, nil
		case Keep:
			// fall through, row returned as-is
		default:
			return Row{}, false, &VariableColumnsError{Expected: r.nCols, Got: ref.FieldCount}
		}
	}
	r.nRows++
	return Row{ref: ref, cols: r.cols, decimalSep: r.format.decimalSeparator()}, true, nil
}

// ColNames returns the reader's column-name table. Its Len() is 0 if the
// format has neither a header row nor explicit column names; reading
// rows does not fill it in.
func (r *Reader) ColNames() *colnames.Table { return r.cols }

// IndexOf returns the column index for name, or -1 if absent.
func (r *Reader) IndexOf(name string) int { return r.cols.IndexOf(name) }

// NRows returns the number of rows returned by ReadRow so far.
func (r *Reader) NRows() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nRows
}

// UTF8BOM reports whether a leading UTF-8 BOM was detected and stripped.
func (r *Reader) UTF8BOM() bool { return r.utf8BOM }

// EOF reports whether the source has been fully consumed.
func (r *Reader) EOF() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.eof && len(r.queue) == 0
}

// Format returns the configuration the Reader was constructed with.
func (r *Reader) Format() Format { return r.format }

// Path returns the file path passed to Open, or "" for a Reader built
// with OpenReader.
func (r *Reader) Path() string { return r.path }

// SetChunkSize updates the driver's per-tick read size. It takes effect
// on the next Tick; size below the 10 MiB floor is a *ConfigError.
func (r *Reader) SetChunkSize(size int) error {
	if size < minChunkSize {
		return &ConfigError{Reason: "chunk size below the minimum", Err: ErrChunkTooSmall}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.format.ChunkSize = size
	r.drv = driver.New(r.src, r.flags, r.cols, size)
	return nil
}

// Close releases the underlying source's resources (file handle or
// mapping). Further ReadRow calls return (Row{}, false, nil).
func (r *Reader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return r.src.Close()
}
