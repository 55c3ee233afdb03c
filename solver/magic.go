// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"golang.org/x/sync/errgroup"

	"github.com/cpmech/gopoisson/grid"
)

// doMult performs the pointwise convolution with the Green's function in
// full spectral space, optionally composing the curl multipliers
func (o *Solver) doMult(mode Mode) {
	final := o.topoHat[o.ndim-1]
	gtopo := o.topoGreen[o.ndim-1]
	if final.Axis != gtopo.Axis {
		chk.Panic("field and Green must have the same axis. %d != %d", final.Axis, gtopo.Axis)
	}

	if mode == Std {
		if final.IsComplex() {
			o.stdComplex(final, gtopo)
		} else {
			o.stdReal(final, gtopo)
		}
		return
	}
	o.rot(final, gtopo)
}

// stdReal multiplies the real spectrum by the real kernel; only possible
// when every direction is symmetric, so the data never went complex
func (o *Solver) stdReal(final, gtopo *grid.Topology) {
	ax0 := final.Axis
	ax1 := (ax0 + 1) % 3
	ax2 := (ax0 + 2) % 3
	npen := final.Nloc[ax1] * final.Nloc[ax2]
	n := final.Nloc[ax0]
	memdim := final.MemDim()
	norm := o.normFact

	var eg errgroup.Group
	eg.SetLimit(8)
	for lia := 0; lia < o.lda; lia++ {
		for io := 0; io < npen; io++ {
			base := lia*memdim + final.CollapsedIndex(0, io)
			gbase := gtopo.CollapsedIndex(0, io)
			eg.Go(func() error {
				for i := 0; i < n; i++ {
					o.data[base+i] *= norm * o.greenBuf[gbase+i]
				}
				return nil
			})
		}
	}
	eg.Wait()
}

// stdComplex multiplies the complex spectrum by the complex kernel
func (o *Solver) stdComplex(final, gtopo *grid.Topology) {
	ax0 := final.Axis
	ax1 := (ax0 + 1) % 3
	ax2 := (ax0 + 2) % 3
	npen := final.Nloc[ax1] * final.Nloc[ax2]
	n := final.Nloc[ax0]
	memdim := final.MemDim()
	norm := o.normFact

	var eg errgroup.Group
	eg.SetLimit(8)
	for lia := 0; lia < o.lda; lia++ {
		for io := 0; io < npen; io++ {
			base := lia*memdim + final.CollapsedIndex(0, io)
			gbase := gtopo.CollapsedIndex(0, io)
			eg.Go(func() error {
				for i := 0; i < n; i++ {
					a := o.data[base+2*i]
					b := o.data[base+2*i+1]
					c := o.greenBuf[gbase+2*i]
					d := o.greenBuf[gbase+2*i+1]
					o.data[base+2*i] = norm * (a*c - b*d)
					o.data[base+2*i+1] = norm * (a*d + b*c)
				}
				return nil
			})
		}
	}
	eg.Wait()
}

// symIndex mirrors a global index into the signed frequency range
func symIndex(gid int, symStart float64) float64 {
	g := float64(gid)
	if symStart > 0 && g > symStart {
		g -= 2.0 * symStart
	}
	return g
}

// rot convolves with the kernel and composes the three curl components
// (∂1 f2 − ∂2 f1, ∂2 f0 − ∂0 f2, ∂0 f1 − ∂1 f0). Per direction and
// component, the multiplier is i·k rotated by the accumulated sine-transform
// phases of the forward and the backward derivative plans; for the
// second-order variant the linear factor is replaced by sin(k·h)/h.
func (o *Solver) rot(final, gtopo *grid.Topology) {

	// spectral description per dimension. On a complex pipeline the sine
	// spectra were already rotated in band (PhaseCorrection), so the
	// multiplier is plainly i·k; on a real pipeline the rotation is folded
	// here: the forward sine transform contributed a -i and the backward
	// one of the derivative duals will contribute a +i.
	isComplex := final.IsComplex()
	var kfact, symstart [3]float64
	var koffset [3][3]float64
	var phase [3][3]complex128 // the i·(±i)^corr factor per dim and component
	for ip := 0; ip < o.ndim; ip++ {
		p := o.planFwd[ip]
		d := p.DimID
		kfact[d] = p.KFact()
		symstart[d] = float64(p.SymStart())
		for c := 0; c < o.lda; c++ {
			koffset[d][c] = p.KOffset(c)
			if isComplex {
				phase[d][c] = complex(0, 1) // derivative = i k
				continue
			}
			corr := 0
			if p.Imult(c) {
				corr--
			}
			if o.planBwdDiff[ip].Imult(c) {
				corr++
			}
			switch corr {
			case 0:
				phase[d][c] = complex(0, 1) // derivative = i k
			case 1:
				phase[d][c] = complex(-1, 0) // (i k)(i) = -k
			case -1:
				phase[d][c] = complex(1, 0) // (i k)(-i) = +k
			}
		}
	}
	if !isComplex {
		for d := 0; d < 3; d++ {
			for c := 0; c < o.lda; c++ {
				if kfact[d] > 0 && imag(phase[d][c]) != 0 {
					chk.Panic("the rotational mode on real data needs every direction to fold its phases; dim %d component %d does not", d, c)
				}
			}
		}
	}

	ax0 := final.Axis
	ax1 := (ax0 + 1) % 3
	ax2 := (ax0 + 2) % 3
	npen := final.Nloc[ax1] * final.Nloc[ax2]
	n := final.Nloc[ax0]
	memdim := final.MemDim()
	norm := o.normFact
	order2 := o.odiff == 2

	// kmul returns the derivative multiplier of dimension d for component c
	kmul := func(d, c, gid int) complex128 {
		if kfact[d] == 0 {
			return 0
		}
		k := (symIndex(gid, symstart[d]) + koffset[d][c]) * kfact[d]
		if order2 {
			k = math.Sin(k*o.H[d]) / o.H[d]
		}
		return phase[d][c] * complex(k, 0)
	}

	var eg errgroup.Group
	eg.SetLimit(8)
	for io := 0; io < npen; io++ {
		io := io
		eg.Go(func() error {
			i1 := io % final.Nloc[ax1]
			i2 := io / final.Nloc[ax1]
			var g [3]int
			g[ax1] = final.StartGlob(ax1) + i1
			g[ax2] = final.StartGlob(ax2) + i2
			base := final.CollapsedIndex(0, io)
			gbase := gtopo.CollapsedIndex(0, io)
			for i := 0; i < n; i++ {
				g[ax0] = final.StartGlob(ax0) + i

				if isComplex {
					var f [3]complex128
					for c := 0; c < 3; c++ {
						id := c*memdim + base + 2*i
						f[c] = complex(o.data[id], o.data[id+1])
					}
					gv := complex(o.greenBuf[gbase+2*i], o.greenBuf[gbase+2*i+1]) * complex(norm, 0)
					for c := 0; c < 3; c++ {
						d1 := (c + 1) % 3
						d2 := (c + 2) % 3
						out := (kmul(d1, d2, g[d1])*f[d2] - kmul(d2, d1, g[d2])*f[d1]) * gv
						id := c*memdim + base + 2*i
						o.data[id] = real(out)
						o.data[id+1] = imag(out)
					}
					continue
				}

				var f [3]float64
				for c := 0; c < 3; c++ {
					f[c] = o.data[c*memdim+base+i]
				}
				gv := norm * o.greenBuf[gbase+i]
				for c := 0; c < 3; c++ {
					d1 := (c + 1) % 3
					d2 := (c + 2) % 3
					out := (real(kmul(d1, d2, g[d1]))*f[d2] - real(kmul(d2, d1, g[d2]))*f[d1]) * gv
					o.data[c*memdim+base+i] = out
				}
			}
			return nil
		})
	}
	eg.Wait()
}
