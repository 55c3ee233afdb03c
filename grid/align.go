// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grid

import (
	"unsafe"

	"github.com/cpmech/gosl/chk"
	"golang.org/x/sys/cpu"
)

// DefaultAlignment returns the byte alignment used for pencil starts:
// 32 bytes when AVX registers are available, 16 otherwise
func DefaultAlignment() int {
	if cpu.X86.HasAVX {
		return 32
	}
	return 16
}

// AllocAligned allocates a float64 slice of length n whose first element
// is aligned to the given byte boundary. The backing array over-allocates
// by at most alignment bytes and the slice is cut at the first aligned
// element.
func AllocAligned(n, alignment int) []float64 {
	if alignment%8 != 0 || alignment <= 0 {
		chk.Panic("alignment must be a positive multiple of 8. %d is invalid", alignment)
	}
	if n == 0 {
		return nil
	}
	pad := alignment / 8
	buf := make([]float64, n+pad)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	offset := 0
	if mod := addr % uintptr(alignment); mod != 0 {
		offset = (alignment - int(mod)) / 8
	}
	return buf[offset : offset+n : offset+n]
}

// IsAligned tells whether the first element of v sits on an alignment boundary
func IsAligned(v []float64, alignment int) bool {
	if len(v) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&v[0]))%uintptr(alignment) == 0
}
