package csvcore

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/csvquery/csvcore/internal/simd"
)

// QuoteMode controls when Writer wraps a field in quotes.
type QuoteMode int

const (
	// QuoteMinimal quotes a field only when it contains the quote byte,
	// the delimiter, CR, or LF.
	QuoteMinimal QuoteMode = iota
	// QuoteAll wraps every field in quotes regardless of content.
	QuoteAll
)

// WriterConfig is the opaque configuration object Writer is built from,
// mirroring Format's role on the read side.
type WriterConfig struct {
	// Delimiter separates fields within a record.
	Delimiter byte
	// QuoteByte is the character used to wrap and escape fields.
	QuoteByte byte
	// Mode selects QuoteMinimal or QuoteAll.
	Mode QuoteMode
	// Buffered enables buffered output; when false, every WriteRecord
	// call flushes immediately, appropriate for small appends.
	Buffered bool
	// Precision is the number of digits after the decimal point used by
	// WriteRow's float formatting. Zero means "shortest
	// representation that round-trips" (strconv's -1 precision).
	Precision int
}

// NewWriterConfig returns a WriterConfig for plain comma-delimited,
// quote-minimal, unbuffered output — the common case most callers start
// from.
func NewWriterConfig() WriterConfig {
	return WriterConfig{Delimiter: ',', QuoteByte: '"', Mode: QuoteMinimal, Precision: -1}
}

// Writer emits delimiter-separated records with RFC 4180 escaping. One
// record at a time; the record terminator is always '\n'.
type Writer struct {
	cfg     WriterConfig
	w       *bufio.Writer
	closer  io.Closer
	special [256]bool
	err     error
}

// NewWriter wraps w, applying cfg. Callers that opened their own sink
// (not via CreateFile) are responsible for closing it.
func NewWriter(w io.Writer, cfg WriterConfig) *Writer {
	wr := &Writer{cfg: cfg, w: bufio.NewWriter(w)}
	wr.special[cfg.Delimiter] = true
	wr.special[cfg.QuoteByte] = true
	wr.special['\r'] = true
	wr.special['\n'] = true
	return wr
}

// CreateFile creates (truncating if present) the file at path and
// returns a Writer over it. Close releases the file handle.
func CreateFile(path string, cfg WriterConfig) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, &IOError{Op: "create", Path: path, Err: err}
	}
	w := NewWriter(f, cfg)
	w.closer = f
	return w, nil
}

// fieldNeedsQuotes reports whether s contains a byte RFC 4180 forces
// quoting for: the quote byte, the delimiter, CR, or LF. Delegates to
// internal/simd's wide-scan-gated byte search, the same dispatch the
// tokenizer's NOT_SPECIAL run uses.
func (w *Writer) fieldNeedsQuotes(s string) bool {
	return simd.FindNextSpecial([]byte(s), &w.special, 0) < len(s)
}

// WriteRecord appends one record: each field is escaped per RFC 4180
// and joined by the configured delimiter, terminated by '\n'. In
// unbuffered mode the underlying writer is flushed before return.
func (w *Writer) WriteRecord(fields []string) error {
	if w.err != nil {
		return w.err
	}
	for i, f := range fields {
		if i > 0 {
			if _, err := w.w.Write([]byte{w.cfg.Delimiter}); err != nil {
				return w.fail(err)
			}
		}
		if err := w.writeField(f); err != nil {
			return w.fail(err)
		}
	}
	if _, err := w.w.Write([]byte{'\n'}); err != nil {
		return w.fail(err)
	}
	if !w.cfg.Buffered {
		return w.Flush()
	}
	return nil
}

func (w *Writer) writeField(s string) error {
	quote := w.cfg.Mode == QuoteAll || w.fieldNeedsQuotes(s)
	if !quote {
		_, err := io.WriteString(w.w, s)
		return err
	}
	if err := w.w.WriteByte(w.cfg.QuoteByte); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == w.cfg.QuoteByte {
			if err := w.w.WriteByte(c); err != nil {
				return err
			}
		}
		if err := w.w.WriteByte(c); err != nil {
			return err
		}
	}
	return w.w.WriteByte(w.cfg.QuoteByte)
}

// WriteRow is WriteRecord for values of heterogeneous type, formatting
// each per its Go kind: floats use the configured Precision, integers
// and strings their natural representation, via a type switch rather
// than reflection. nil and any type the switch does not list (unsigned
// types other than uint64, structs, pointers, ...) are written as an
// empty field — callers wanting full control should build the []string
// themselves and call WriteRecord.
func (w *Writer) WriteRow(values ...any) error {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = w.formatValue(v)
	}
	return w.WriteRecord(fields)
}

func (w *Writer) formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8:
		return strconv.FormatInt(int64(x), 10)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float32:
		return w.formatFloat(float64(x))
	case float64:
		return w.formatFloat(x)
	case nil:
		return ""
	default:
		return ""
	}
}

func (w *Writer) formatFloat(f float64) string {
	prec := w.cfg.Precision
	if prec == 0 {
		prec = -1
	}
	return strconv.FormatFloat(f, 'f', prec, 64)
}

// SetPrecision changes the decimal places used by subsequent
// WriteRow/formatFloat calls. A negative value means "shortest
// round-tripping representation".
func (w *Writer) SetPrecision(digits int) { w.cfg.Precision = digits }

// Flush pushes any buffered bytes to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return w.fail(err)
	}
	return nil
}

func (w *Writer) fail(err error) error {
	wrapped := &WriterIOError{Err: err}
	w.err = wrapped
	return wrapped
}

// Close flushes and, for a Writer opened via CreateFile, closes the
// underlying file.
func (w *Writer) Close() error {
	ferr := w.Flush()
	if w.closer == nil {
		return ferr
	}
	if cerr := w.closer.Close(); cerr != nil && ferr == nil {
		return cerr
	}
	return ferr
}

// WriterIOError wraps an underlying write failure from the sink.
type WriterIOError struct {
	Err error
}

func (e *WriterIOError) Error() string { return "csvcore: writer: " + e.Err.Error() }
func (e *WriterIOError) Unwrap() error { return e.Err }
