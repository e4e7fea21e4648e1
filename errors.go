package csvcore

import (
	"errors"
	"fmt"

	"github.com/csvquery/csvcore/internal/driver"
	"github.com/csvquery/csvcore/internal/source"
)

// minChunkSize is the driver's enforced floor: a chunk must be able to
// hold at least one maximum-sized row plus carryover.
const minChunkSize = source.MinChunkSize

// Sentinel errors. Use errors.Is against these; the wrapper types below
// (*ConfigError, *IOError, *VariableColumnsError, *RowLargerThanChunkError)
// carry the diagnostic context. *ConfigError and *IOError implement
// Unwrap, *RowLargerThanChunkError implements Is against
// ErrRowLargerThanChunk, and *VariableColumnsError wraps no sentinel.
var (
	ErrChunkTooSmall                = errors.New("csvcore: chunk size below the minimum")
	ErrExplicitColumnsWithHeaderRow = errors.New("csvcore: explicit column names and header-row detection are mutually exclusive")
	ErrQuoteDisabledWithQuoteByte   = errors.New("csvcore: quoting enabled requires a nonzero quote byte")
	ErrNotFound                     = errors.New("csvcore: column not found")
	ErrIndexOutOfRange              = errors.New("csvcore: field index out of range")
	ErrNotANumber                   = errors.New("csvcore: field is not numeric")
	ErrFloatToInt                   = errors.New("csvcore: cannot convert a floating-point field to an integer")
	ErrNegativeToUnsigned           = errors.New("csvcore: cannot convert a negative field to an unsigned type")
	ErrOverflow                     = errors.New("csvcore: value overflows the requested type")
)

// ConfigError reports an invalid Format at construction time: an
// overlapping quote/delimiter/trim byte, a chunk size below the floor,
// or one of the ad-hoc-precedence combinations this module's open
// questions decided to reject outright rather than silently prioritize.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("csvcore: config error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("csvcore: config error: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IOError wraps an underlying OS error with the diagnostic context
// a caller needs: which operation, which path, and the byte range
// involved. It's the same type internal/source reports, re-exported
// here so callers never need to import an internal package to match on
// I/O failures.
type IOError = source.IOError

// RowLargerThanChunkError is raised when a row's length exceeds the
// configured chunk size: the driver cannot make progress without
// either truncating or live-locking, so it surfaces this instead. The
// remedy is SetChunkSize with a larger value.
type RowLargerThanChunkError = driver.RowLargerThanChunkError

// ErrRowLargerThanChunk is the sentinel errors.Is matches against;
// *RowLargerThanChunkError implements Is so callers don't need to know
// the chunk size to detect the condition.
var ErrRowLargerThanChunk = driver.ErrRowLargerThanChunk

// VariableColumnsError is raised (ColumnPolicy Throw only) when a row's
// field count doesn't match the reader's column count.
type VariableColumnsError struct {
	Expected int
	Got      int
}

func (e *VariableColumnsError) Error() string {
	return fmt.Sprintf("csvcore: row has %d fields, want %d", e.Got, e.Expected)
}
