//go:build !amd64

package simd

import "github.com/klauspost/cpuid/v2"

// Detect on non-AMD64 probes nothing: none of the fields here have an
// equivalent on other architectures, so AVX2/AVX512/SSE42 stay false and
// FindNextSpecial runs the scalar loop. cpuid/v2 is referenced but not
// queried.
func Detect() Features {
	_ = cpuid.CPU
	return Features{}
}
