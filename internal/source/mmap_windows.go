//go:build windows

package source

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

var allocationGranularity = func() int64 {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return int64(info.AllocationGranularity)
}()

type defaultMapper struct{}

// mmapWindow maps [offset, offset+length) of f via CreateFileMapping +
// MapViewOfFile. MapViewOfFile requires the offset to be a multiple of
// the system's allocation granularity, so this aligns down and returns
// the caller's exact window as a sub-slice of the full view.
func (defaultMapper) mmapWindow(f *os.File, offset int64, length int) (mappedRegion, error) {
	if length == 0 {
		return mappedRegion{full: []byte{}, window: []byte{}}, nil
	}

	aligned := offset - offset%allocationGranularity
	skip := int(offset - aligned)
	mapLen := skip + length

	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return mappedRegion{}, err
	}
	defer windows.CloseHandle(h)

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ, uint32(aligned>>32), uint32(aligned&0xFFFFFFFF), uintptr(mapLen))
	if err != nil {
		return mappedRegion{}, err
	}

	full := unsafe.Slice((*byte)(unsafe.Pointer(addr)), mapLen)
	return mappedRegion{full: full, window: full[skip : skip+length]}, nil
}

func (defaultMapper) munmapWindow(r mappedRegion) error {
	if len(r.full) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&r.full[0]))
	return windows.UnmapViewOfFile(addr)
}
