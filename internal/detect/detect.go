// Package detect implements format auto-detection:
// scoring candidate delimiters against a header window, inferring the
// header row index, and extracting column names.
package detect

import (
	"errors"

	"github.com/csvquery/csvcore/internal/parseflags"
	"github.com/csvquery/csvcore/internal/tokenizer"
)

// DefaultDelimiters is the candidate list Detect uses when it is given
// an empty candidate list.
var DefaultDelimiters = []byte{',', '|', '\t', ';', '^', '~'}

// WindowSize is the amount of leading source bytes fed to Detect.
const WindowSize = 500 * 1024

// ErrNoCandidateDelimiter means every candidate delimiter collided with
// the quote byte or a trim byte, so none could build a valid Table.
var ErrNoCandidateDelimiter = errors.New("csvcore: no candidate delimiter produced a valid parse table")

// Result is what Detect infers from the header window.
type Result struct {
	Delimiter   byte
	HeaderRow   int
	ColumnNames []string
}

// Detect scores each candidate delimiter by row-width histogram over
// window, picks the best, infers the header row, and extracts column
// names from it.
func Detect(window []byte, quoteByte byte, quoteEnabled bool, candidates []byte, trimBytes []byte) (Result, error) {
	if len(candidates) == 0 {
		candidates = DefaultDelimiters
	}

	var (
		bestDelim    byte
		bestScore    = -1
		bestRows     [][]string
		bestWidths   []int
		foundAnyGood bool
	)

	for _, d := range candidates {
		flags, err := parseflags.New([]byte{d}, quoteByte, quoteEnabled, trimBytes)
		if err != nil {
			continue // this candidate collides with the quote/trim bytes
		}
		foundAnyGood = true

		rows := tokenizeRows(window, flags)
		widths := make([]int, len(rows))
		for i, r := range rows {
			widths[i] = len(r)
		}

		score, _ := scoreAndMode(widths)
		if score > bestScore {
			bestScore = score
			bestDelim = d
			bestRows = rows
			bestWidths = widths
		}
	}

	if !foundAnyGood {
		return Result{}, ErrNoCandidateDelimiter
	}

	_, mode := scoreAndMode(bestWidths)
	header := 0
	if !(len(bestWidths) > 0 && bestWidths[0] >= mode && bestWidths[0] > 0) {
		if idx := indexOfWidth(bestWidths, mode); idx >= 0 {
			header = idx
		}
	}

	var names []string
	if header < len(bestRows) {
		names = bestRows[header]
	}

	return Result{Delimiter: bestDelim, HeaderRow: header, ColumnNames: names}, nil
}

// scoreAndMode computes the delimiter score (max over w of
// w*count(w)) and the mode row width (the most frequent width, ties
// broken toward the wider width).
func scoreAndMode(widths []int) (score int, mode int) {
	counts := make(map[int]int, len(widths))
	for _, w := range widths {
		counts[w]++
	}
	bestModeCount := -1
	for w, c := range counts {
		if s := w * c; s > score {
			score = s
		}
		if c > bestModeCount || (c == bestModeCount && w > mode) {
			bestModeCount = c
			mode = w
		}
	}
	return score, mode
}

// ExtractRow tokenizes window with a known delimiter and returns the
// fields of the row at rowIndex, for when the caller supplies an
// explicit header row index rather than asking Detect to infer one.
func ExtractRow(window []byte, delimiter byte, quoteByte byte, quoteEnabled bool, trimBytes []byte, rowIndex int) ([]string, error) {
	flags, err := parseflags.New([]byte{delimiter}, quoteByte, quoteEnabled, trimBytes)
	if err != nil {
		return nil, err
	}
	rows := tokenizeRows(window, flags)
	if rowIndex < 0 || rowIndex >= len(rows) {
		return nil, nil
	}
	return rows[rowIndex], nil
}

func indexOfWidth(widths []int, w int) int {
	for i, width := range widths {
		if width == w {
			return i
		}
	}
	return -1
}

// detectSink collects tokenizer output as plain string rows, unescaping
// doubled quotes as it goes, for use against the (necessarily truncated)
// detection window.
type detectSink struct {
	data    []byte
	pending []pendingField
	rows    [][]string
}

type pendingField struct {
	start, length uint32
	hasEscape     bool
}

func (s *detectSink) EmitField(start, length uint32, hasEscape bool) {
	s.pending = append(s.pending, pendingField{start, length, hasEscape})
}

func (s *detectSink) EmitRow(dataStart int) {
	row := make([]string, len(s.pending))
	for i, f := range s.pending {
		raw := s.data[dataStart+int(f.start) : dataStart+int(f.start)+int(f.length)]
		if f.hasEscape {
			row[i] = unescapeDoubledQuotes(raw)
		} else {
			row[i] = string(raw)
		}
	}
	s.rows = append(s.rows, row)
	s.pending = s.pending[:0]
}

func unescapeDoubledQuotes(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		out = append(out, raw[i])
		if raw[i] == '"' && i+1 < len(raw) && raw[i+1] == '"' {
			i++
		}
	}
	return string(out)
}

func tokenizeRows(window []byte, flags *parseflags.Table) [][]string {
	sink := &detectSink{data: window}
	tokenizer.New(flags).Process(window, sink, false)
	return sink.rows
}
