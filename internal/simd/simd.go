// Package simd gates the tokenizer's NOT_SPECIAL run-scan and the
// writer's needs-quoting check behind a CPU feature probe. The actual
// scan is a portable unrolled byte loop — no hand-written assembly is
// shipped here — but which strategy runs (and whether the wider stride
// is worth taking at all) is decided once at process start from the
// detected feature set rather than scanning byte-by-byte unconditionally.
package simd

// Features reports which relevant instruction-set extensions the
// running CPU advertises. Two independent probes populate it (see
// features_amd64.go); they're expected to agree, and a caller that only
// wants "is any wide-scan worth it" should check WideScan().
type Features struct {
	AVX2   bool
	AVX512 bool
	SSE42  bool
}

// WideScan reports whether the CPU has any instruction-set extension
// the original project's dispatch table would have picked a non-scalar
// path for. Pure Go can't issue AVX2/AVX512 directly, but a CPU that has
// them also has larger cache lines and wider load/store paths that make
// an 8-byte-at-a-time scan worth preferring over a naive byte loop.
func (f Features) WideScan() bool { return f.AVX2 || f.AVX512 || f.SSE42 }

var detected = Detect()

// FindNextSpecial returns the index, at or after from, of the first
// byte in data whose class (per special) is true, or len(data) if none
// remain. special is a 256-entry membership table; the tokenizer builds
// one from its parse-flag table's raw (non-demoted) classification,
// since a byte that's NOT_SPECIAL before quote-escape demotion is also
// NOT_SPECIAL after it.
func FindNextSpecial(data []byte, special *[256]bool, from int) int {
	if !detected.WideScan() {
		return findNextSpecialScalar(data, special, from)
	}
	return findNextSpecialWide(data, special, from)
}

func findNextSpecialScalar(data []byte, special *[256]bool, from int) int {
	for i := from; i < len(data); i++ {
		if special[data[i]] {
			return i
		}
	}
	return len(data)
}

// findNextSpecialWide unrolls the scan 8 bytes at a time. It has no
// hardware dependency beyond what the scalar path already has; the
// unrolling pays off on CPUs wide enough to keep eight speculative loads
// in flight, which is exactly the Features.WideScan() population.
func findNextSpecialWide(data []byte, special *[256]bool, from int) int {
	i := from
	n := len(data)
	for ; i+8 <= n; i += 8 {
		if special[data[i]] {
			return i
		}
		if special[data[i+1]] {
			return i + 1
		}
		if special[data[i+2]] {
			return i + 2
		}
		if special[data[i+3]] {
			return i + 3
		}
		if special[data[i+4]] {
			return i + 4
		}
		if special[data[i+5]] {
			return i + 5
		}
		if special[data[i+6]] {
			return i + 6
		}
		if special[data[i+7]] {
			return i + 7
		}
	}
	for ; i < n; i++ {
		if special[data[i]] {
			return i
		}
	}
	return n
}
