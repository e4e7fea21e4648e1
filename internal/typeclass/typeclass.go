// Package typeclass implements the one-pass field type classification of
// Null/String or one of Int8/16/32/64/BigInt/Double, grounded
// on original_source's data_type.h (_determine_integral_type,
// _process_potential_exponential) with the BigInt and scientific-notation
// handling a minimal distillation would otherwise gloss over.
package typeclass

import (
	"math"
	"math/big"
)

// Type is the classified shape of a field's bytes.
type Type uint8

const (
	Null Type = iota
	String
	Int8
	Int16
	Int32
	Int64
	BigInt
	Double
)

func (t Type) String() string {
	switch t {
	case Null:
		return "Null"
	case String:
		return "String"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case BigInt:
		return "BigInt"
	case Double:
		return "Double"
	default:
		return "Unknown"
	}
}

// Value is the outcome of classifying one field: the Type plus whichever
// of Int/Big/Float actually holds the parsed magnitude.
type Value struct {
	Type  Type
	Int   int64    // valid for Int8..Int64
	Big   *big.Int // valid for BigInt
	Float float64  // valid for Double
}

// DefaultDecimalSeparator is '.', the default decimal point byte.
const DefaultDecimalSeparator = '.'

// Classify walks raw once and classifies it. decimalSep is the
// configured decimal separator byte (DefaultDecimalSeparator if the
// caller has not overridden it). Leading/trailing padding is expected to
// have already been trimmed by the tokenizer's whitespace handling;
// Classify additionally tolerates the single-interior-space digit-group
// pattern the original project allows (e.g. phone-number-shaped text
// still correctly falls through to String).
func Classify(raw []byte, decimalSep byte) Value {
	if len(raw) == 0 {
		return Value{Type: Null}
	}

	t, mag, decimalPart, float, negative, probFloat, hasDigit := classifyDigits(raw, decimalSep)
	switch t {
	case stringResult:
		return Value{Type: String}
	case nullResult:
		return Value{Type: Null}
	case doubleResult:
		return Value{Type: Double, Float: float}
	}

	if !hasDigit {
		return Value{Type: Null}
	}
	if probFloat {
		f, _ := new(big.Float).SetInt(mag).Float64()
		f += decimalPart
		if negative {
			f = -f
		}
		return Value{Type: Double, Float: f}
	}

	sizeType := sizeFor(mag, negative)
	if sizeType == BigInt {
		b := new(big.Int).Set(mag)
		if negative {
			b.Neg(b)
		}
		return Value{Type: BigInt, Big: b}
	}
	signed := new(big.Int).Set(mag)
	if negative {
		signed.Neg(signed)
	}
	return Value{Type: sizeType, Int: signed.Int64()}
}

// classification result tags used internally while walking raw, distinct
// from the public Type so the exponent recursion can report "String" or
// "Null" without the caller mistaking it for a real field classification.
type internalResult uint8

const (
	numericResult internalResult = iota
	stringResult
	nullResult
	doubleResult // already-finished Double value (the scientific-notation path)
)

// classifyDigits implements the original's data_type() state machine.
// The '-' sign is accepted only as the first byte ("a single
// optional leading sign"), which is stricter than the original's
// tolerance for a stray interior '-' flipping the whole number's sign —
// the distilled spec names only a leading sign, so that's what this
// follows.
func classifyDigits(in []byte, decimalSep byte) (result internalResult, mag *big.Int, decimalPart float64, float float64, negative bool, probFloat bool, hasDigit bool) {
	mag = new(big.Int)

	wsAllowed := true
	negAllowed := true
	dotAllowed := true
	digitAllowed := true
	placesAfterDecimal := 0

	for i := 0; i < len(in); i++ {
		c := in[i]
		switch {
		case c == ' ':
			if !wsAllowed {
				if i > 0 && isDigit(in[i-1]) {
					digitAllowed = false
					wsAllowed = true
				} else {
					return stringResult, nil, 0, 0, false, false, false
				}
			}

		case c == '-':
			if !negAllowed || i != 0 {
				return stringResult, nil, 0, 0, false, false, false
			}
			negAllowed = false
			negative = true

		case c == decimalSep:
			if !dotAllowed {
				return stringResult, nil, 0, 0, false, false, false
			}
			dotAllowed = false
			probFloat = true

		case c == 'e' || c == 'E':
			if !probFloat {
				return stringResult, nil, 0, 0, false, false, false
			}
			start := i + 1
			if start < len(in) && in[start] == '+' {
				start++
			}
			coeff, _ := new(big.Float).SetInt(mag).Float64()
			coeff += decimalPart
			if negative {
				coeff = -coeff
			}
			exp := Classify(in[start:], decimalSep)
			if exp.Type == Null || exp.Type == String {
				return stringResult, nil, 0, 0, false, false, false
			}
			return doubleResult, nil, 0, coeff * math.Pow(10, asFloat(exp)), false, false, false

		case c >= '0' && c <= '9':
			hasDigit = true
			if !digitAllowed {
				return stringResult, nil, 0, 0, false, false, false
			}
			if wsAllowed {
				wsAllowed = false
			}
			digit := int64(c - '0')
			if probFloat {
				placesAfterDecimal++
				decimalPart += float64(digit) / math.Pow10(placesAfterDecimal)
			} else {
				mag.Mul(mag, big.NewInt(10))
				mag.Add(mag, big.NewInt(digit))
			}

		default:
			return stringResult, nil, 0, 0, false, false, false
		}
	}

	if !hasDigit {
		return nullResult, nil, 0, 0, false, false, false
	}
	return numericResult, mag, decimalPart, 0, negative, probFloat, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// asFloat converts a classified numeric Value back to float64, for use
// as the exponent magnitude in scientific-notation classification.
func asFloat(v Value) float64 {
	switch v.Type {
	case BigInt:
		f, _ := new(big.Float).SetInt(v.Big).Float64()
		return f
	case Double:
		return v.Float
	default:
		return float64(v.Int)
	}
}

// sizeFor buckets a magnitude into the narrowest signed integer width it
// fits, accounting for two's-complement asymmetry (e.g. -128 fits Int8
// even though +128 does not). This replaces _determine_integral_type's
// sign-blind bucketing (which compares the bare magnitude against only
// the positive bound for every width) with the bound each sign actually
// has room for.
func sizeFor(mag *big.Int, negative bool) Type {
	bound := func(positiveMax int64) *big.Int {
		b := big.NewInt(positiveMax)
		if negative {
			b.Add(b, big.NewInt(1))
		}
		return b
	}
	switch {
	case mag.Cmp(bound(math.MaxInt8)) <= 0:
		return Int8
	case mag.Cmp(bound(math.MaxInt16)) <= 0:
		return Int16
	case mag.Cmp(bound(math.MaxInt32)) <= 0:
		return Int32
	case mag.Cmp(bound(math.MaxInt64)) <= 0:
		return Int64
	default:
		return BigInt
	}
}
