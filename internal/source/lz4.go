package source

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// NewLZ4Source wraps r with a transparent LZ4 decompressor and exposes it
// as a generic byte-stream chunk source, so a ".csv.lz4"-style input can
// be read through the same chunk driver as any other stream — the
// decompressed size is never known up front, hence size -1.
func NewLZ4Source(r io.Reader) *StreamSource {
	return NewStreamSource(lz4.NewReader(r), -1)
}
