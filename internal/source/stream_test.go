package source

import (
	"bytes"
	"strings"
	"testing"
)

func TestStreamSourceNextAdvancesPosition(t *testing.T) {
	s := NewStreamSource(strings.NewReader("0123456789"), 10)

	chunk, err := s.Next(4)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(chunk) != "0123" {
		t.Fatalf("chunk = %q, want %q", chunk, "0123")
	}
	if s.Position() != 4 {
		t.Fatalf("Position() = %d, want 4", s.Position())
	}
}

func TestStreamSourceShortFinalRead(t *testing.T) {
	s := NewStreamSource(strings.NewReader("abc"), 3)

	chunk, err := s.Next(10)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(chunk) != "abc" {
		t.Fatalf("chunk = %q, want %q", chunk, "abc")
	}

	chunk, err = s.Next(10)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(chunk) != 0 {
		t.Fatalf("expected EOF (zero-length chunk), got %q", chunk)
	}
}

func TestStreamSourceRewindReDeliversTail(t *testing.T) {
	s := NewStreamSource(strings.NewReader("abcdefgh"), 8)

	first, err := s.Next(5)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(first) != "abcde" {
		t.Fatalf("first = %q, want %q", first, "abcde")
	}

	if err := s.Rewind(2); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	if s.Position() != 3 {
		t.Fatalf("Position() after rewind = %d, want 3", s.Position())
	}

	second, err := s.Next(5)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if string(second) != "defgh" {
		t.Fatalf("second = %q, want %q", second, "defgh")
	}
}

func TestStreamSourceRewindTooFarErrors(t *testing.T) {
	s := NewStreamSource(strings.NewReader("abc"), 3)
	if _, err := s.Next(3); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := s.Rewind(10); err == nil {
		t.Fatal("expected an error rewinding past the last Next call")
	}
}

func TestLZ4SourceHasUnknownSize(t *testing.T) {
	// lz4-compressed data isn't hand-constructible as a literal; this
	// only checks that NewLZ4Source wires a StreamSource of unknown size
	// around whatever reader it's given.
	s := NewLZ4Source(bytes.NewReader(nil))
	if s.Size() != -1 {
		t.Fatalf("Size() = %d, want -1", s.Size())
	}
}
