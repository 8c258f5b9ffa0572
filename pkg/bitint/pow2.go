// SPDX-License-Identifier: MIT
//
// Package bitint provides the power-of-two helpers used to size render
// quanta and element read-ahead buffers. All operations are O(1) and
// allocation free.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size. Values <= 0 map to 1.
// Subtracting one first keeps exact powers of two unchanged (8 -> 8, not 16).
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// AlignUp rounds n up to the next multiple of align, which must be a power of two.
func AlignUp(n, align int) int {
	if !IsPowerOfTwo(align) {
		panic("bitint: alignment must be a power of two")
	}
	return (n + align - 1) &^ (align - 1)
}
