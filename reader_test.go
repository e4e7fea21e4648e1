package csvcore

import (
	"errors"
	"strings"
	"testing"

	"github.com/csvquery/csvcore/internal/source"
)

const testChunkSize = 10 * 1024 * 1024 // the configured floor

func readAllRows(t *testing.T, rd *Reader) [][]string {
	t.Helper()
	var out [][]string
	for {
		row, ok, err := rd.ReadRow()
		if err != nil {
			t.Fatalf("ReadRow: %v", err)
		}
		if !ok {
			break
		}
		out = append(out, row.Strings())
	}
	return out
}

func TestReaderHeaderRowAndColumnNames(t *testing.T) {
	input := "id,name\n1,alice\n2,bob\n"
	f := NewFormat()
	f.ChunkSize = testChunkSize
	rd, err := OpenReader(strings.NewReader(input), f)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer rd.Close()

	if got := rd.ColNames().Names; len(got) != 2 || got[0] != "id" || got[1] != "name" {
		t.Fatalf("ColNames = %v, want [id name]", got)
	}
	rows := readAllRows(t, rd)
	want := [][]string{{"1", "alice"}, {"2", "bob"}}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(rows), len(want), rows)
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Fatalf("row %d = %v, want %v", i, rows[i], want[i])
			}
		}
	}
	if n := rd.NRows(); n != 2 {
		t.Fatalf("NRows() = %d, want 2", n)
	}
	if !rd.EOF() {
		t.Fatal("expected EOF after draining rows")
	}
}

func TestReaderNoHeaderRow(t *testing.T) {
	input := "1,2\n3,4\n"
	f := NewFormat()
	f.ChunkSize = testChunkSize
	f.HeaderRow = -1
	rd, err := OpenReader(strings.NewReader(input), f)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer rd.Close()

	if rd.ColNames().Len() != 0 {
		t.Fatalf("expected no column names, got %v", rd.ColNames().Names)
	}
	rows := readAllRows(t, rd)
	if len(rows) != 2 || rows[0][0] != "1" || rows[1][1] != "4" {
		t.Fatalf("got %v", rows)
	}
}

func TestReaderExplicitColumnNames(t *testing.T) {
	input := "1,2\n3,4\n"
	f := NewFormat()
	f.ChunkSize = testChunkSize
	f.HeaderRow = -1
	f.ColumnNames = []string{"a", "b"}
	rd, err := OpenReader(strings.NewReader(input), f)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer rd.Close()

	if rd.IndexOf("b") != 1 {
		t.Fatalf("IndexOf(b) = %d, want 1", rd.IndexOf("b"))
	}
	rows := readAllRows(t, rd)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
}

func TestReaderVariableColumnsThrow(t *testing.T) {
	input := "a,b\n1,2\n3,4,5\n"
	f := NewFormat()
	f.ChunkSize = testChunkSize
	f.VariableColumns = Throw
	rd, err := OpenReader(strings.NewReader(input), f)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer rd.Close()

	if _, ok, err := rd.ReadRow(); err != nil || !ok {
		t.Fatalf("first row: ok=%v err=%v", ok, err)
	}
	_, ok, err := rd.ReadRow()
	if ok || err == nil {
		t.Fatalf("expected VariableColumnsError, got ok=%v err=%v", ok, err)
	}
	var target *VariableColumnsError
	if !errors.As(err, &target) {
		t.Fatalf("got %v, want *VariableColumnsError", err)
	}
}

func TestReaderVariableColumnsIgnoreRow(t *testing.T) {
	input := "a,b\n1,2\n3,4,5\n6,7\n"
	f := NewFormat()
	f.ChunkSize = testChunkSize
	f.VariableColumns = IgnoreRow
	rd, err := OpenReader(strings.NewReader(input), f)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer rd.Close()

	rows := readAllRows(t, rd)
	want := [][]string{{"1", "2"}, {"6", "7"}}
	if len(rows) != len(want) {
		t.Fatalf("got %v, want %v", rows, want)
	}
	for i := range want {
		if rows[i][0] != want[i][0] || rows[i][1] != want[i][1] {
			t.Fatalf("row %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestReaderVariableColumnsKeep(t *testing.T) {
	input := "a,b\n1,2\n3,4,5\n"
	f := NewFormat()
	f.ChunkSize = testChunkSize
	f.VariableColumns = Keep
	rd, err := OpenReader(strings.NewReader(input), f)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer rd.Close()

	rows := readAllRows(t, rd)
	if len(rows) != 2 || len(rows[1]) != 3 {
		t.Fatalf("got %v", rows)
	}
}

func TestReaderUTF8BOM(t *testing.T) {
	input := "\xEF\xBB\xBFid,name\n1,alice\n"
	f := NewFormat()
	f.ChunkSize = testChunkSize
	f.DetectBOM = true
	rd, err := OpenReader(strings.NewReader(input), f)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer rd.Close()

	if !rd.UTF8BOM() {
		t.Fatal("expected UTF8BOM() true")
	}
	if got := rd.ColNames().Names[0]; got != "id" {
		t.Fatalf("first column = %q, want %q (BOM leaked into name)", got, "id")
	}
	rows := readAllRows(t, rd)
	if len(rows) != 1 || rows[0][0] != "1" {
		t.Fatalf("got %v", rows)
	}
}

func TestReaderReadAfterCloseReturnsEOF(t *testing.T) {
	f := NewFormat()
	f.ChunkSize = testChunkSize
	rd, err := OpenReader(strings.NewReader("a,b\n1,2\n"), f)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	if err := rd.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_, ok, err := rd.ReadRow()
	if ok || err != nil {
		t.Fatalf("ReadRow after Close: ok=%v err=%v, want false, nil", ok, err)
	}
}

func TestOpenReaderChunkTooSmallRejected(t *testing.T) {
	f := NewFormat()
	f.ChunkSize = 1024
	_, err := OpenReader(strings.NewReader("a,b\n1,2\n"), f)
	if !errors.Is(err, ErrChunkTooSmall) {
		t.Fatalf("got %v, want ErrChunkTooSmall", err)
	}
}

func TestReaderSetChunkSizeRejectsBelowFloor(t *testing.T) {
	f := NewFormat()
	f.ChunkSize = testChunkSize
	rd, err := OpenReader(strings.NewReader("a,b\n1,2\n"), f)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer rd.Close()
	if err := rd.SetChunkSize(1024); !errors.Is(err, ErrChunkTooSmall) {
		t.Fatalf("got %v, want ErrChunkTooSmall", err)
	}
	if err := rd.SetChunkSize(testChunkSize); err != nil {
		t.Fatalf("SetChunkSize(floor): %v", err)
	}
	rows := readAllRows(t, rd)
	if len(rows) != 1 {
		t.Fatalf("got %v", rows)
	}
}

// fakeReleasableSource is a minimal source.Releasable for exercising
// bomStrippingSource's forwarding without needing a real mapped file.
type fakeReleasableSource struct {
	source.Source
	released bool
}

func (f *fakeReleasableSource) ReleaseFunc() func() {
	return func() { f.released = true }
}

func TestBomStrippingSourceForwardsReleasable(t *testing.T) {
	inner := &fakeReleasableSource{Source: source.NewStreamSource(strings.NewReader("x"), 1)}
	wrapped := &bomStrippingSource{Source: inner}

	rel, ok := source.Source(wrapped).(source.Releasable)
	if !ok {
		t.Fatal("bomStrippingSource does not implement source.Releasable")
	}
	rel.ReleaseFunc()()
	if !inner.released {
		t.Fatal("ReleaseFunc did not forward to the wrapped Releasable source")
	}
}

func TestBomStrippingSourceReleaseFuncNoopWhenUnderlyingNotReleasable(t *testing.T) {
	wrapped := &bomStrippingSource{Source: source.NewStreamSource(strings.NewReader("x"), 1)}
	rel, ok := source.Source(wrapped).(source.Releasable)
	if !ok {
		t.Fatal("bomStrippingSource does not implement source.Releasable")
	}
	rel.ReleaseFunc()() // must not panic even though StreamSource isn't Releasable
}

func TestReaderMultiDelimiterAutoDetect(t *testing.T) {
	input := "id|name\n1|alice\n2|bob\n"
	f := NewFormat()
	f.ChunkSize = testChunkSize
	f.Delimiters = []byte{',', '|', '\t'}
	rd, err := OpenReader(strings.NewReader(input), f)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer rd.Close()

	if got := rd.ColNames().Names; len(got) != 2 || got[1] != "name" {
		t.Fatalf("ColNames = %v", got)
	}
	rows := readAllRows(t, rd)
	if len(rows) != 2 || rows[1][1] != "bob" {
		t.Fatalf("got %v", rows)
	}
}
