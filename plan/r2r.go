// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plan

import (
	"github.com/cpmech/gosl/chk"
	"gonum.org/v1/gonum/dsp/fourier"
)

// r2rKind selects one of the real-to-real transforms. The conventions are
// the unnormalized ones of the usual DCT/DST families:
//
//	dct2: X_k = 2 Σ_j x_j cos(π(j+1/2)k/n)
//	dct3: Y_j = X_0 + 2 Σ_{k>=1} X_k cos(πk(j+1/2)/n)
//	dst2: X_k = 2 Σ_j x_j sin(π(j+1/2)(k+1)/n)
//	dst3: Y_j = (-1)^j X_{n-1} + 2 Σ_{k<n-1} X_k sin(π(k+1)(j+1/2)/n)
//	dct4: X_k = 2 Σ_j x_j cos(π(j+1/2)(k+1/2)/n)
//	dst4: X_k = 2 Σ_j x_j sin(π(j+1/2)(k+1/2)/n)
//
// dct3(dct2(x)) = 2n x, dst3(dst2(x)) = 2n x, and dct4/dst4 are their own
// inverses up to the same 2n factor.
type r2rKind int

const (
	dct2 r2rKind = iota
	dct3
	dst2
	dst3
	dct4
	dst4
)

// inverseKind returns the transform undoing k (up to the 2n factor)
func inverseKind(k r2rKind) r2rKind {
	switch k {
	case dct2:
		return dct3
	case dct3:
		return dct2
	case dst2:
		return dst3
	case dst3:
		return dst2
	}
	return k // dct4 and dst4 are self-inverse
}

// r2r computes the real-to-real transforms of length n by embedding the
// half-sample symmetric extension into a longer complex DFT: the samples
// sit on the odd indices of a length-4n grid, where integer frequencies
// read off the DCT-II/III and DST-II/III families exactly. The quarter-wave
// transforms carry half-integer frequencies and use a length-8n grid, whose
// odd bins are those frequencies.
type r2r struct {
	n    int
	fft4 *fourier.CmplxFFT // length 4n, whole-wave kinds
	fft8 *fourier.CmplxFFT // length 8n, quarter-wave kinds
	z    []complex128      // packed sequence or spectrum (8n, 4n uses a prefix)
	zz   []complex128      // transformed counterpart
}

func newR2R(n int) (o *r2r) {
	if n < 1 {
		chk.Panic("r2r transform size must be at least 1. n=%d is invalid", n)
	}
	o = &r2r{
		n:    n,
		fft4: fourier.NewCmplxFFT(4 * n),
		fft8: fourier.NewCmplxFFT(8 * n),
		z:    make([]complex128, 8*n),
		zz:   make([]complex128, 8*n),
	}
	return
}

// transform applies kind to x in place. x must have length n.
func (o *r2r) transform(x []float64, kind r2rKind) {
	n := o.n
	if len(x) != n {
		chk.Panic("r2r transform needs %d samples. len(x)=%d is invalid", n, len(x))
	}
	switch kind {

	case dct2:
		z, zz := o.z[:4*n], o.zz[:4*n]
		clear(z)
		for j := 0; j < n; j++ {
			z[2*j+1] = complex(x[j], 0)
			z[4*n-2*j-1] = complex(x[j], 0)
		}
		o.fft4.Coefficients(zz, z)
		for k := 0; k < n; k++ {
			x[k] = real(zz[k])
		}

	case dst2:
		z, zz := o.z[:4*n], o.zz[:4*n]
		clear(z)
		for j := 0; j < n; j++ {
			z[2*j+1] = complex(x[j], 0)
			z[4*n-2*j-1] = complex(-x[j], 0)
		}
		o.fft4.Coefficients(zz, z)
		for k := 0; k < n; k++ {
			x[k] = -imag(zz[k+1])
		}

	case dct4:
		z, zz := o.z[:8*n], o.zz[:8*n]
		clear(z)
		for j := 0; j < n; j++ {
			z[2*j+1] = complex(x[j], 0)
			z[8*n-2*j-1] = complex(x[j], 0)
		}
		o.fft8.Coefficients(zz, z)
		for k := 0; k < n; k++ {
			x[k] = real(zz[2*k+1])
		}

	case dst4:
		z, zz := o.z[:8*n], o.zz[:8*n]
		clear(z)
		for j := 0; j < n; j++ {
			z[2*j+1] = complex(x[j], 0)
			z[8*n-2*j-1] = complex(-x[j], 0)
		}
		o.fft8.Coefficients(zz, z)
		for k := 0; k < n; k++ {
			x[k] = -imag(zz[2*k+1])
		}

	case dct3:
		z, zz := o.z[:4*n], o.zz[:4*n]
		clear(z)
		z[0] = complex(x[0], 0)
		for k := 1; k < n; k++ {
			z[k] = complex(x[k], 0)
			z[4*n-k] = complex(x[k], 0)
		}
		o.fft4.Sequence(zz, z)
		for j := 0; j < n; j++ {
			x[j] = real(zz[2*j+1])
		}

	case dst3:
		z, zz := o.z[:4*n], o.zz[:4*n]
		clear(z)
		for k := 0; k < n-1; k++ {
			z[k+1] = complex(0, -x[k])
			z[4*n-k-1] = complex(0, x[k])
		}
		// the edge coefficient appears at both n and 3n: halve it
		z[n] += complex(0, -x[n-1]/2)
		z[3*n] += complex(0, x[n-1]/2)
		o.fft4.Sequence(zz, z)
		for j := 0; j < n; j++ {
			x[j] = real(zz[2*j+1])
		}
	}
}

// reverse flips x in place (used by transforms mirrored about the far face)
func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
