package source

import "io"

// StreamSource is the generic byte-stream chunk source: it
// wraps any blocking io.Reader. Since a plain io.Reader can't seek
// backward, Rewind is simulated by holding onto the tail of the most
// recently returned chunk and re-delivering it at the head of the next
// Next call.
type StreamSource struct {
	r    io.Reader
	pos  int64
	size int64 // -1 if unknown

	carry        []byte
	lastReturned []byte
}

// NewStreamSource wraps r. size is the total byte count if known (e.g.
// from a file's stat), or -1 for an open-ended stream such as a network
// connection or a decompressing reader.
func NewStreamSource(r io.Reader, size int64) *StreamSource {
	return &StreamSource{r: r, size: size}
}

func (s *StreamSource) Next(maxBytes int) ([]byte, error) {
	buf := make([]byte, maxBytes)
	n := copy(buf, s.carry)
	s.carry = nil

	if n < maxBytes {
		m, err := io.ReadFull(s.r, buf[n:])
		n += m
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, &IOError{Op: "read", Offset: s.pos, Length: maxBytes, Err: err}
		}
	}

	buf = buf[:n]
	if n == 0 {
		return nil, nil
	}
	s.lastReturned = buf
	s.pos += int64(n)
	return buf, nil
}

func (s *StreamSource) Rewind(n int) error {
	if n < 0 || n > len(s.lastReturned) {
		return &IOError{Op: "rewind", Offset: s.pos, Length: n, Err: errInvalidRewind}
	}
	split := len(s.lastReturned) - n
	tail := make([]byte, n)
	copy(tail, s.lastReturned[split:])
	s.carry = tail
	s.lastReturned = s.lastReturned[:split]
	s.pos -= int64(n)
	return nil
}

func (s *StreamSource) Position() int64 { return s.pos }

func (s *StreamSource) Size() int64 { return s.size }

func (s *StreamSource) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return &IOError{Op: "read", Err: err}
		}
	}
	return nil
}
