// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"github.com/cpmech/gosl/chk"
	"golang.org/x/sync/errgroup"

	"github.com/cpmech/gopoisson/grid"
	"github.com/cpmech/gopoisson/swap"
)

// fft directions inside one solve
const (
	fftForward = iota
	fftBackward
	fftBackwardDiff
)

// Solve computes one right-hand side. rhs is read in the layout of the
// user's physical topology; the result is written to field in the same
// layout. Both must span TopoPhys.MemSize() elements; they may alias.
func (o *Solver) Solve(field, rhs []float64, mode Mode) (err error) {
	if !o.setupDone {
		return chk.Err("solve called before setup")
	}
	if field == nil || rhs == nil {
		return chk.Err("field and rhs must not be nil")
	}
	if mode == Rot && o.odiff == 0 {
		return chk.Err("the rotational mode needs a solver built with a derivative order of 1 or 2")
	}
	if mode == Rot && o.lda != 3 {
		return chk.Err("the rotational mode needs three components. lda=%d is invalid", o.lda)
	}
	if o.TopoPhys.IsComplex() {
		return chk.Err("the right-hand side topology cannot be complex")
	}
	if len(field) < o.TopoPhys.MemSize() || len(rhs) < o.TopoPhys.MemSize() {
		return chk.Err("field and rhs must hold at least %d elements", o.TopoPhys.MemSize())
	}

	// fresh buffer: the embedding of expanded directions relies on the
	// padding being zero
	for i := range o.data {
		o.data[i] = 0
	}

	o.doCopy(o.TopoPhys, rhs, swap.Forward)
	o.doFFT(fftForward)
	o.doMult(mode)
	if mode == Std {
		o.doFFT(fftBackward)
	} else {
		o.doFFT(fftBackwardDiff)
	}
	o.doCopy(o.TopoPhys, field, swap.Backward)
	return
}

// doCopy moves data between the caller's array and the internal buffer,
// respecting the physical topology's fast axis and component count
func (o *Solver) doCopy(topo *grid.Topology, data []float64, sign int) {
	ax0 := topo.Axis
	ax1 := (ax0 + 1) % 3
	ax2 := (ax0 + 2) % 3
	memdim := topo.MemDim()
	ondim := topo.Nloc[ax1] * topo.Nloc[ax2]
	inmax := topo.Nloc[ax0] * topo.Nf

	var eg errgroup.Group
	eg.SetLimit(8)
	for id := 0; id < ondim*o.lda; id++ {
		id := id
		eg.Go(func() error {
			lia := id / ondim
			io := id % ondim
			base := lia*memdim + topo.CollapsedIndex(0, io)
			if sign == swap.Forward {
				copy(o.data[base:base+inmax], data[base:base+inmax])
			} else {
				copy(data[base:base+inmax], o.data[base:base+inmax])
			}
			return nil
		})
	}
	eg.Wait()
}

// doFFT runs the forward or backward pipeline in place on the internal
// buffer: switch, transform, phase correction and complex-state flips, one
// stage per sorted direction
func (o *Solver) doFFT(dir int) {
	switch dir {

	case fftForward:
		for ip := 0; ip < o.ndim; ip++ {
			o.switchTopo[ip].Execute(o.data, swap.Forward)
			o.planFwd[ip].Execute(o.topoHat[ip], o.data)
			if o.planFwd[ip].IsR2C() {
				o.topoHat[ip].SwitchToComplex()
			}
			o.planFwd[ip].PhaseCorrection(o.topoHat[ip], o.data)
		}

	case fftBackward:
		for ip := o.ndim - 1; ip >= 0; ip-- {
			o.planBwd[ip].PhaseCorrection(o.topoHat[ip], o.data)
			if o.planFwd[ip].IsR2C() {
				o.topoHat[ip].SwitchToReal()
			}
			o.planBwd[ip].Execute(o.topoHat[ip], o.data)
			o.switchTopo[ip].Execute(o.data, swap.Backward)
		}

	case fftBackwardDiff:
		for ip := o.ndim - 1; ip >= 0; ip-- {
			o.planBwdDiff[ip].PhaseCorrection(o.topoHat[ip], o.data)
			if o.planFwd[ip].IsR2C() {
				o.topoHat[ip].SwitchToReal()
			}
			o.planBwdDiff[ip].Execute(o.topoHat[ip], o.data)
			o.switchTopo[ip].Execute(o.data, swap.Backward)
		}
	}
}
