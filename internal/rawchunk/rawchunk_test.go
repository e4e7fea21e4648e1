package rawchunk

import (
	"sync"
	"testing"

	"github.com/csvquery/csvcore/internal/colnames"
	"github.com/csvquery/csvcore/internal/fieldstore"
	"github.com/csvquery/csvcore/internal/parseflags"
)

func newTestChunk(t *testing.T, data string) *Chunk {
	t.Helper()
	flags, err := parseflags.New([]byte{','}, '"', true, nil)
	if err != nil {
		t.Fatalf("parseflags.New: %v", err)
	}
	return New([]byte(data), flags, colnames.New([]string{"a", "b"}), 16, 0)
}

func TestUnescapeCachesResult(t *testing.T) {
	c := newTestChunk(t, `ab""cd`)
	raw := c.Bytes[:]

	got := c.Unescape(0, raw)
	want := `ab"cd`
	if got != want {
		t.Fatalf("Unescape = %q, want %q", got, want)
	}

	// Second call must hit the cached snapshot and return the same value.
	got2 := c.Unescape(0, raw)
	if got2 != want {
		t.Fatalf("second Unescape = %q, want %q", got2, want)
	}
}

func TestUnescapeNoDoubledQuotesIsIdentity(t *testing.T) {
	c := newTestChunk(t, "plain")
	if got := c.Unescape(0, c.Bytes); got != "plain" {
		t.Fatalf("Unescape = %q, want %q", got, "plain")
	}
}

func TestUnescapeConcurrentSameIndex(t *testing.T) {
	c := newTestChunk(t, `x""y`)
	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Unescape(5, c.Bytes)
		}(i)
	}
	wg.Wait()
	for i, r := range results {
		if r != `x"y` {
			t.Errorf("goroutine %d got %q, want %q", i, r, `x"y`)
		}
	}
}

func TestFieldBytes(t *testing.T) {
	c := newTestChunk(t, "RRRfield1,field2")
	f := fieldstore.RawField{Start: 3, Length: 6}
	got := c.FieldBytes(0, f)
	if string(got) != "field1" {
		t.Fatalf("FieldBytes = %q, want %q", got, "field1")
	}
}
