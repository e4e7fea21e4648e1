//go:build amd64

package simd

import (
	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"
)

// Detect probes the running CPU with two independent libraries;
// consulting both catches the case where one library lags a newer CPU
// family the other already knows.
func Detect() Features {
	f := Features{
		AVX2:   cpu.X86.HasAVX2,
		AVX512: cpu.X86.HasAVX512F && cpu.X86.HasAVX512BW,
		SSE42:  cpu.X86.HasSSE42,
	}
	if cpuid.CPU.Has(cpuid.AVX2) {
		f.AVX2 = true
	}
	if cpuid.CPU.Has(cpuid.AVX512F) && cpuid.CPU.Has(cpuid.AVX512BW) {
		f.AVX512 = true
	}
	if cpuid.CPU.Has(cpuid.SSE42) {
		f.SSE42 = true
	}
	return f
}
