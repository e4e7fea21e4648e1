//go:build !windows

package source

import (
	"os"

	"golang.org/x/sys/unix"
)

var pageSize = os.Getpagesize()

type defaultMapper struct{}

// mmapWindow maps [offset, offset+length) of f. unix.Mmap requires its
// offset argument to be page-aligned, so this aligns down to the nearest
// page boundary and returns both the full aligned mapping (needed later
// by Munmap) and the caller's exact window as a sub-slice of it.
func (defaultMapper) mmapWindow(f *os.File, offset int64, length int) (mappedRegion, error) {
	if length == 0 {
		return mappedRegion{full: []byte{}, window: []byte{}}, nil
	}

	aligned := offset - offset%int64(pageSize)
	skip := int(offset - aligned)
	mapLen := skip + length

	full, err := unix.Mmap(int(f.Fd()), aligned, mapLen, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return mappedRegion{}, err
	}
	return mappedRegion{full: full, window: full[skip : skip+length]}, nil
}

// munmapWindow unmaps the page-aligned mapping full backs. It never
// touches window directly: Munmap needs the slice exactly as returned by
// Mmap, which full (never re-sliced since mmapWindow produced it) still
// is.
func (defaultMapper) munmapWindow(r mappedRegion) error {
	if len(r.full) == 0 {
		return nil
	}
	return unix.Munmap(r.full)
}
