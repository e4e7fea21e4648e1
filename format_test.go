package csvcore

import (
	"errors"
	"testing"
)

func TestNewFormatValidates(t *testing.T) {
	f := NewFormat()
	if err := f.validate(); err != nil {
		t.Fatalf("NewFormat() should validate cleanly: %v", err)
	}
}

func TestValidateChunkTooSmall(t *testing.T) {
	f := NewFormat()
	f.ChunkSize = 1024
	err := f.validate()
	if !errors.Is(err, ErrChunkTooSmall) {
		t.Fatalf("got %v, want ErrChunkTooSmall", err)
	}
}

func TestValidateExplicitColumnsWithHeaderRow(t *testing.T) {
	f := NewFormat()
	f.ColumnNames = []string{"a", "b"}
	f.HeaderRow = 0
	err := f.validate()
	if !errors.Is(err, ErrExplicitColumnsWithHeaderRow) {
		t.Fatalf("got %v, want ErrExplicitColumnsWithHeaderRow", err)
	}
}

func TestValidateExplicitColumnsWithNegativeHeaderRowOK(t *testing.T) {
	f := NewFormat()
	f.ColumnNames = []string{"a", "b"}
	f.HeaderRow = -1
	if err := f.validate(); err != nil {
		t.Fatalf("explicit columns with HeaderRow -1 should validate: %v", err)
	}
}

func TestValidateQuoteDisabledWithQuoteByte(t *testing.T) {
	f := Format{Delimiters: []byte{','}, QuoteEnabled: true, QuoteByte: 0, HeaderRow: -1}
	err := f.validate()
	if !errors.Is(err, ErrQuoteDisabledWithQuoteByte) {
		t.Fatalf("got %v, want ErrQuoteDisabledWithQuoteByte", err)
	}
}

func TestValidateNoDelimiters(t *testing.T) {
	f := Format{HeaderRow: -1}
	if err := f.validate(); err == nil {
		t.Fatal("expected error for empty Delimiters")
	}
}

func TestValidateOverlappingDelimiterAndQuote(t *testing.T) {
	f := Format{Delimiters: []byte{'"'}, QuoteByte: '"', QuoteEnabled: true, HeaderRow: -1}
	if err := f.validate(); err == nil {
		t.Fatal("expected error for delimiter overlapping quote byte")
	}
}

func TestChunkSizeDefault(t *testing.T) {
	f := NewFormat()
	if got := f.chunkSize(); got != DefaultChunkSize {
		t.Fatalf("chunkSize() = %d, want %d", got, DefaultChunkSize)
	}
	f.ChunkSize = 20 * 1024 * 1024
	if got := f.chunkSize(); got != 20*1024*1024 {
		t.Fatalf("chunkSize() = %d, want 20MiB", got)
	}
}

func TestDecimalSeparatorDefault(t *testing.T) {
	f := NewFormat()
	if got := f.decimalSeparator(); got != DefaultDecimalSeparator {
		t.Fatalf("decimalSeparator() = %q, want %q", got, DefaultDecimalSeparator)
	}
	f.DecimalSeparator = ','
	if got := f.decimalSeparator(); got != ',' {
		t.Fatalf("decimalSeparator() = %q, want ','", got)
	}
}

func TestColumnPolicyString(t *testing.T) {
	cases := map[ColumnPolicy]string{
		Throw:           "Throw",
		IgnoreRow:       "IgnoreRow",
		Keep:            "Keep",
		ColumnPolicy(9): "ColumnPolicy(?)",
	}
	for p, want := range cases {
		if got := p.String(); got != want {
			t.Errorf("ColumnPolicy(%d).String() = %q, want %q", p, got, want)
		}
	}
}
