// Package tokenizer implements the character-class state machine that
// turns a chunk's bytes into fields and rows under RFC 4180 semantics
// with quoting, escape-doubling, whitespace trimming, and tolerant
// newline/quote handling.
package tokenizer

import (
	"github.com/csvquery/csvcore/internal/parseflags"
	"github.com/csvquery/csvcore/internal/simd"
)

// Sink receives the fields and row boundaries a State discovers. The
// caller (the chunk driver) tracks how many fields belong to the current
// row; EmitRow is only called once that row is complete.
type Sink interface {
	// EmitField appends one field descriptor. start/length are relative
	// to the current row's start.
	EmitField(start, length uint32, hasEscapedQuote bool)
	// EmitRow finalizes the row that owns the fields emitted since the
	// previous EmitRow call. dataStart is the byte offset, within the
	// slice passed to Process, where the row began.
	EmitRow(dataStart int)
}

const uninitializedField = -1

// State is the tokenizer's per-chunk-call state. It holds no
// cross-chunk carryover: the chunk driver re-delivers an unfinished
// trailing row's bytes at the head of the next chunk (via source
// rewind), so every Process call starts clean at data[0].
type State struct {
	flags *parseflags.Table
}

// New returns a tokenizer bound to the given parse-flag table.
func New(flags *parseflags.Table) *State {
	return &State{flags: flags}
}

// Process scans data and emits complete fields/rows into sink. final
// indicates the source is exhausted after this call: a dangling
// trailing field/row is flushed per the end-of-feed rules. It returns
// the byte offset, within data, up through which complete rows were
// emitted — the driver rewinds the source by len(data)-result bytes so
// the remaining partial row is re-read at the head of the next chunk.
func (s *State) Process(data []byte, sink Sink, final bool) int {
	var (
		pos            int
		rowStart       int
		fieldStart     = uninitializedField
		fieldLength    int
		fieldHasEscape bool
		fieldWasQuoted bool
		inQuote        bool
		rowFieldCount  int
		lastRowEnd     int
	)

	emitField := func() {
		start := fieldStart
		if start == uninitializedField {
			start = 0
		}
		sink.EmitField(uint32(start), uint32(fieldLength), fieldHasEscape)
		rowFieldCount++
		fieldStart = uninitializedField
		fieldLength = 0
		fieldHasEscape = false
		fieldWasQuoted = false
	}

	emitRow := func(end int) {
		if rowFieldCount > 0 {
			sink.EmitRow(rowStart)
		}
		rowFieldCount = 0
		rowStart = end
		lastRowEnd = end
	}

	for pos < len(data) {
		raw := s.flags.Classify(data[pos])
		f := s.flags.Demote(raw, inQuote)

		switch f {
		case parseflags.NotSpecial:
			if fieldStart == uninitializedField {
				for pos < len(data) && s.flags.IsWhitespace(data[pos]) {
					pos++
				}
				fieldStart = pos - rowStart
			}
			if inQuote {
				// Demotion widens NotSpecial in-quote (delimiter and
				// newline bytes become ordinary content), so the raw
				// special mask alone isn't a safe stopping point here;
				// fall back to the per-byte demoted classification.
				for pos < len(data) {
					df := s.flags.Demote(s.flags.Classify(data[pos]), inQuote)
					if df != parseflags.NotSpecial {
						break
					}
					pos++
				}
			} else {
				// Outside a quoted field Demote is the identity, so the
				// raw special mask matches the demoted one exactly: scan
				// ahead in bulk instead of reclassifying byte by byte.
				pos = simd.FindNextSpecial(data, s.flags.Special(), pos)
			}
			fieldLength = pos - (rowStart + fieldStart)
			for fieldLength > 0 && s.flags.IsWhitespace(data[rowStart+fieldStart+fieldLength-1]) {
				fieldLength--
			}

		case parseflags.Delimiter:
			emitField()
			pos++

		case parseflags.Newline:
			emitField()
			pos++
			for pos < len(data) && s.flags.Classify(data[pos]) == parseflags.Newline {
				pos++
			}
			emitRow(pos)

		case parseflags.QuoteEscapeQuote:
			if pos+1 >= len(data) {
				if !final {
					return lastRowEnd
				}
				// No more bytes will ever arrive: this is the closing quote.
				inQuote = false
				pos++
				continue
			}
			switch next := s.flags.Classify(data[pos+1]); {
			case next == parseflags.Delimiter || next == parseflags.Newline:
				inQuote = false
				pos++
			case next == parseflags.Quote:
				fieldLength += 2
				fieldHasEscape = true
				pos += 2
			default:
				// Tolerant: a lone quote inside a quoted field is literal.
				fieldLength++
				pos++
			}

		default: // parseflags.Quote, not currently escaping
			if fieldLength == 0 {
				inQuote = true
				fieldWasQuoted = true
				pos++
			} else {
				// Tolerant: an interior quote in a non-empty field is literal.
				fieldLength++
				pos++
			}
		}
	}

	if final {
		lastFlagDelimiter := len(data) > 0 && s.flags.Classify(data[len(data)-1]) == parseflags.Delimiter
		if fieldLength > 0 || fieldStart != uninitializedField || lastFlagDelimiter || fieldWasQuoted {
			emitField()
		}
		if rowFieldCount > 0 {
			sink.EmitRow(rowStart)
		}
		lastRowEnd = len(data)
	}

	return lastRowEnd
}
