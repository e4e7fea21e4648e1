package source

import (
	"os"
	"sync"
)

// mappedRegion pairs the exact [offset, offset+length) window handed to
// the caller with the underlying page-aligned mapping munmap needs. full
// always starts at the OS-aligned base address; window is a sub-slice of
// full at the caller's exact offset.
type mappedRegion struct {
	full   []byte
	window []byte
}

// mmapWindow and munmapWindow are implemented per-OS in mmap_unix.go and
// mmap_windows.go. The returned region's window is exactly
// [offset, offset+length) of the file; alignment to the OS page/
// allocation granularity happens inside the platform implementation.
type platformMapper interface {
	mmapWindow(f *os.File, offset int64, length int) (mappedRegion, error)
	munmapWindow(r mappedRegion) error
}

// regionHandle owns the munmap call for one mapped window. release is
// idempotent (via once) because both an explicit Close and a later GC
// cleanup may try to run it for the same region.
type regionHandle struct {
	region mappedRegion
	mapper platformMapper

	once sync.Once
	err  error
}

func (h *regionHandle) release() error {
	h.once.Do(func() { h.err = h.mapper.munmapWindow(h.region) })
	return h.err
}

// MmapSource is the mapped-window chunk source. Unlike a simple
// double-buffered reader, it does not unmap a window just because Next
// was called again: a Row built from that window may still be reachable
// (the reader's single-pass guarantee bounds re-reads, not retention —
// callers are free to collect rows as they go). Each Next call instead
// hands its region's teardown to ReleaseFunc, which the chunk driver
// wires to the lifetime of the rawchunk.Chunk built from that window via
// a GC cleanup, so the unmap happens once that Chunk (and every Row
// pinning it) is actually unreachable.
type MmapSource struct {
	file   *os.File
	path   string
	size   int64
	pos    int64
	mapper platformMapper

	current *regionHandle
}

// NewMmapSource opens path and prepares a mapped-window source over it.
// chunkSize must be at least MinChunkSize.
func NewMmapSource(path string, chunkSize int) (*MmapSource, error) {
	if err := checkChunkSize(chunkSize); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	return &MmapSource{
		file:   f,
		path:   path,
		size:   info.Size(),
		mapper: defaultMapper{},
	}, nil
}

func (m *MmapSource) Next(maxBytes int) ([]byte, error) {
	remaining := m.size - m.pos
	if remaining <= 0 {
		return nil, nil
	}
	length := int64(maxBytes)
	if length > remaining {
		length = remaining
	}

	region, err := m.mapper.mmapWindow(m.file, m.pos, int(length))
	if err != nil {
		return nil, &IOError{Op: "mmap", Path: m.path, Offset: m.pos, Length: int(length), Err: err}
	}
	m.current = &regionHandle{region: region, mapper: m.mapper}
	m.pos += length
	return region.window, nil
}

// ReleaseFunc returns a callback that unmaps the window most recently
// returned by Next. Safe to call more than once (only the first call
// does anything) so it can be registered both as a GC cleanup and, if
// the chunk is dropped before the cleanup ever runs, invoked again by
// Close without double-unmapping.
func (m *MmapSource) ReleaseFunc() func() {
	h := m.current
	return func() { _ = h.release() }
}

func (m *MmapSource) Rewind(n int) error {
	if int64(n) > m.pos {
		return &IOError{Op: "rewind", Path: m.path, Offset: m.pos, Length: n, Err: os.ErrInvalid}
	}
	m.pos -= int64(n)
	return nil
}

func (m *MmapSource) Position() int64 { return m.pos }

func (m *MmapSource) Size() int64 { return m.size }

// Close releases the most recently mapped window and closes the
// underlying file. Earlier windows still pinned by a live Chunk are left
// for their own registered GC cleanup to unmap — closing the file
// descriptor does not invalidate a mapping already established on it on
// either POSIX (mmap) or Windows (MapViewOfFile's view outlives the file
// mapping handle, which mmap_windows.go already closes right after the
// view is created).
func (m *MmapSource) Close() error {
	var mapErr error
	if m.current != nil {
		mapErr = m.current.release()
	}
	closeErr := m.file.Close()
	if mapErr != nil {
		return &IOError{Op: "mmap", Path: m.path, Err: mapErr}
	}
	if closeErr != nil {
		return &IOError{Op: "open", Path: m.path, Err: closeErr}
	}
	return nil
}
