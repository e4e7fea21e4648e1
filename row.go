package csvcore

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/csvquery/csvcore/internal/colnames"
	"github.com/csvquery/csvcore/internal/driver"
	"github.com/csvquery/csvcore/internal/rawchunk"
	"github.com/csvquery/csvcore/internal/typeclass"
)

// Row is a lightweight handle into the chunk that produced it: {chunk,
// data start, field span}. It's valid only as long as the caller keeps
// the Reader alive and doesn't read past the point where this row's
// chunk is released — the streaming architecture's single-pass
// constraint: clone out anything you need to retain.
type Row struct {
	ref        driver.RowRef
	cols       *colnames.Table
	decimalSep byte
}

// Len returns the row's field count.
func (r Row) Len() int { return r.ref.FieldCount }

// ColNames returns the reader's shared column-name table.
func (r Row) ColNames() *colnames.Table { return r.cols }

// Field returns the i'th field view, or an error wrapping
// ErrIndexOutOfRange if i is out of bounds.
func (r Row) Field(i int) (Field, error) {
	if i < 0 || i >= r.ref.FieldCount {
		return Field{}, fmt.Errorf("csvcore: field %d: %w", i, ErrIndexOutOfRange)
	}
	globalIdx := r.ref.FieldStart + i
	rf := r.ref.Chunk.Fields().Index(globalIdx)
	raw := r.ref.Chunk.FieldBytes(r.ref.DataStart, rf)
	return Field{
		chunk:       r.ref.Chunk,
		globalIndex: globalIdx,
		raw:         raw,
		hasEscape:   rf.HasEscapedQuote,
		decimalSep:  r.decimalSep,
	}, nil
}

// Named resolves name through the shared column table and returns that
// field, or an error wrapping ErrNotFound if the name is absent.
func (r Row) Named(name string) (Field, error) {
	idx := r.cols.IndexOf(name)
	if idx < 0 {
		return Field{}, fmt.Errorf("csvcore: column %q: %w", name, ErrNotFound)
	}
	return r.Field(idx)
}

// Strings materializes every field in the row as a string, in row
// order. Useful for callers that don't need typed access.
func (r Row) Strings() []string {
	out := make([]string, r.ref.FieldCount)
	for i := range out {
		f, _ := r.Field(i)
		out[i] = f.String()
	}
	return out
}

// AppendJSON appends this row's JSON encoding to dst and returns the
// extended slice: `{"col":value,...}` when named is true (and the
// reader has column names), `[value,...]` otherwise. Numeric fields are
// unquoted; every other field is quoted with control bytes escaped.
func (r Row) AppendJSON(dst []byte, named bool) []byte {
	useNames := named && r.cols.Len() == r.ref.FieldCount
	if useNames {
		dst = append(dst, '{')
	} else {
		dst = append(dst, '[')
	}
	for i := 0; i < r.ref.FieldCount; i++ {
		if i > 0 {
			dst = append(dst, ',')
		}
		if useNames {
			dst = appendJSONString(dst, r.cols.Names[i])
			dst = append(dst, ':')
		}
		f, _ := r.Field(i)
		dst = f.appendJSONValue(dst)
	}
	if useNames {
		dst = append(dst, '}')
	} else {
		dst = append(dst, ']')
	}
	return dst
}

// Field is a zero-copy view over one field's bytes (unless the field
// needed doubled-quote unescaping, in which case it's a view over the
// chunk's lazily materialized, per-field cached string).
type Field struct {
	chunk       *rawchunk.Chunk
	globalIndex int
	raw         []byte
	hasEscape   bool
	decimalSep  byte
}

// String returns the field's value, unescaping doubled quotes if
// needed. This accessor always succeeds.
func (f Field) String() string {
	if f.hasEscape {
		return f.unescape()
	}
	return string(f.raw)
}

// Bytes returns the field's raw bytes when no unescaping is needed, or
// the bytes of the materialized unescaped string otherwise. The
// returned slice must not be retained past the owning chunk's lifetime.
func (f Field) Bytes() []byte {
	if !f.hasEscape {
		return f.raw
	}
	return []byte(f.unescape())
}

// Type classifies the field as one of Null, String, or one of
// Int8/16/32/64/BigInt/Double.
func (f Field) Type() typeclass.Type { return f.classify().Type }

func (f Field) classify() typeclass.Value {
	sep := f.decimalSep
	if sep == 0 {
		sep = DefaultDecimalSeparator
	}
	if !f.hasEscape {
		return typeclass.Classify(f.raw, sep)
	}
	return typeclass.Classify([]byte(f.unescape()), sep)
}

// classifyNumeric classifies the field and maps Null/String to
// NotANumber and Double to FloatToInt, leaving every integral Type
// (Int8..Int64, BigInt) for the caller's width check.
func (f Field) classifyNumeric() (typeclass.Value, error) {
	v := f.classify()
	switch v.Type {
	case typeclass.Null, typeclass.String:
		return typeclass.Value{}, fmt.Errorf("csvcore: %w", ErrNotANumber)
	case typeclass.Double:
		return typeclass.Value{}, fmt.Errorf("csvcore: %w", ErrFloatToInt)
	default:
		return v, nil
	}
}

// Int64 returns the field as an int64. Fails with NotANumber for
// Null/String fields, FloatToInt for Double fields, and Overflow for
// values classified as BigInt.
func (f Field) Int64() (int64, error) {
	v, err := f.classifyNumeric()
	if err != nil {
		return 0, err
	}
	if v.Type == typeclass.BigInt {
		return 0, fmt.Errorf("csvcore: %w", ErrOverflow)
	}
	return v.Int, nil
}

// Int32 returns the field as an int32, failing with Overflow if the
// classified width is wider than 32 bits.
func (f Field) Int32() (int32, error) { return narrowInt[int32](f, typeclass.Int32) }

// Int16 returns the field as an int16, failing with Overflow if the
// classified width is wider than 16 bits.
func (f Field) Int16() (int16, error) { return narrowInt[int16](f, typeclass.Int16) }

// Int8 returns the field as an int8, failing with Overflow if the
// classified width is wider than 8 bits.
func (f Field) Int8() (int8, error) { return narrowInt[int8](f, typeclass.Int8) }

type signedInt interface{ ~int8 | ~int16 | ~int32 | ~int64 }

func narrowInt[T signedInt](f Field, bound typeclass.Type) (T, error) {
	v, err := f.classifyNumeric()
	if err != nil {
		return 0, err
	}
	if v.Type > bound {
		return 0, fmt.Errorf("csvcore: %w", ErrOverflow)
	}
	return T(v.Int), nil
}

// Uint64 returns the field as a uint64. Fails with NegativeToUnsigned
// for a negative value, NotANumber/FloatToInt the same as Int64, and
// Overflow if a BigInt value doesn't fit in 64 bits.
func (f Field) Uint64() (uint64, error) {
	v, err := f.classifyNumeric()
	if err != nil {
		return 0, err
	}
	if v.Type == typeclass.BigInt {
		if v.Big.Sign() < 0 {
			return 0, fmt.Errorf("csvcore: %w", ErrNegativeToUnsigned)
		}
		if !v.Big.IsUint64() {
			return 0, fmt.Errorf("csvcore: %w", ErrOverflow)
		}
		return v.Big.Uint64(), nil
	}
	if v.Int < 0 {
		return 0, fmt.Errorf("csvcore: %w", ErrNegativeToUnsigned)
	}
	return uint64(v.Int), nil
}

// Float64 returns the field as a float64. Fails only with NotANumber
// for Null/String fields; every numeric Type (including BigInt)
// converts.
func (f Field) Float64() (float64, error) {
	v := f.classify()
	switch v.Type {
	case typeclass.Null, typeclass.String:
		return 0, fmt.Errorf("csvcore: %w", ErrNotANumber)
	case typeclass.Double:
		return v.Float, nil
	case typeclass.BigInt:
		bf, _ := new(big.Float).SetInt(v.Big).Float64()
		return bf, nil
	default:
		return float64(v.Int), nil
	}
}

// BigInt returns the field as an arbitrary-precision integer. Fails
// with NotANumber for Null/String and FloatToInt for Double.
func (f Field) BigInt() (*big.Int, error) {
	v := f.classify()
	switch v.Type {
	case typeclass.Null, typeclass.String:
		return nil, fmt.Errorf("csvcore: %w", ErrNotANumber)
	case typeclass.Double:
		return nil, fmt.Errorf("csvcore: %w", ErrFloatToInt)
	case typeclass.BigInt:
		return v.Big, nil
	default:
		return big.NewInt(v.Int), nil
	}
}

// TryInt64 is the non-raising variant of Int64.
func (f Field) TryInt64() (int64, bool) {
	v, err := f.Int64()
	return v, err == nil
}

// TryFloat64 is the non-raising variant of Float64.
func (f Field) TryFloat64() (float64, bool) {
	v, err := f.Float64()
	return v, err == nil
}

// TryUint64 is the non-raising variant of Uint64.
func (f Field) TryUint64() (uint64, bool) {
	v, err := f.Uint64()
	return v, err == nil
}

func (f Field) unescape() string {
	return f.chunk.Unescape(f.globalIndex, f.raw)
}

func (f Field) appendJSONValue(dst []byte) []byte {
	v := f.classify()
	switch v.Type {
	case typeclass.Null, typeclass.String:
		return appendJSONString(dst, f.String())
	case typeclass.Double:
		return strconv.AppendFloat(dst, v.Float, 'g', -1, 64)
	case typeclass.BigInt:
		return append(dst, v.Big.String()...)
	default:
		return strconv.AppendInt(dst, v.Int, 10)
	}
}

// appendJSONString appends s as a double-quoted JSON string literal,
// escaping control bytes.
func appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, fmt.Sprintf(`\u%04x`, c)...)
			} else {
				dst = append(dst, c)
			}
		}
	}
	return append(dst, '"')
}
