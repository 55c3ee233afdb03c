// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plan

import (
	"github.com/cpmech/gosl/chk"
	"golang.org/x/sync/errgroup"

	"github.com/cpmech/gopoisson/grid"
)

// Execute runs the batched in-place 1-D transform along DimID over every
// pencil owned locally, for all components. The topology's fast axis must
// be DimID: the switch preceding this plan guarantees it.
//
// For a real-to-complex plan the topology must be in its real view on the
// forward sign and in its real view on the backward sign too (the caller
// flips the complex flag around the execution, as the pipeline does).
func (o *Plan) Execute(topo *grid.Topology, data []float64) {
	if o.kind == KindEmpty {
		return
	}
	if topo.Axis != o.DimID {
		chk.Panic("the plan of direction %d cannot execute on a topology with fast axis %d", o.DimID, topo.Axis)
	}
	if o.pool == nil {
		chk.Panic("plan of direction %d must be allocated before execution", o.DimID)
	}
	ax0 := topo.Axis
	ax1 := (ax0 + 1) % 3
	ax2 := (ax0 + 2) % 3
	npen := topo.Nloc[ax1] * topo.Nloc[ax2]
	memdim := topo.MemDim()

	var eg errgroup.Group
	eg.SetLimit(cap(o.pool))
	for lia := 0; lia < o.Lda; lia++ {
		for io := 0; io < npen; io++ {
			base := lia*memdim + topo.CollapsedIndex(0, io)
			c := &o.comps[lia]
			eg.Go(func() error {
				e := <-o.pool
				o.executePencil(e, c, topo, data, base)
				o.pool <- e
				return nil
			})
		}
	}
	eg.Wait()
}

// executePencil transforms one pencil starting at data[base]
func (o *Plan) executePencil(e *engineSet, c *comp, topo *grid.Topology, data []float64, base int) {
	switch o.kind {

	case KindSym, KindMixed:
		if topo.Nf == 1 {
			x := data[base : base+o.nTrf]
			o.r2rInPlace(e, c, x)
			return
		}
		// complex data: transform real and imaginary parts separately
		for part := 0; part < 2; part++ {
			for i := 0; i < o.nTrf; i++ {
				e.rs[i] = data[base+2*i+part]
			}
			o.r2rInPlace(e, c, e.rs[:o.nTrf])
			for i := 0; i < o.nTrf; i++ {
				data[base+2*i+part] = e.rs[i]
			}
		}

	case KindPeriodic, KindUnbounded:
		if o.isR2C {
			if o.Sig == Forward {
				src := data[base : base+o.nTrf]
				copy(e.rs, src)
				e.rfft.Coefficients(e.cs, e.rs)
				for k := 0; k < o.nOut; k++ {
					data[base+2*k] = real(e.cs[k])
					data[base+2*k+1] = imag(e.cs[k])
				}
			} else {
				for k := 0; k < o.nOut; k++ {
					e.cs[k] = complex(data[base+2*k], data[base+2*k+1])
				}
				e.rfft.Sequence(e.rs, e.cs)
				copy(data[base:base+o.nTrf], e.rs)
				for i := o.nTrf; i < 2*o.nOut; i++ {
					data[base+i] = 0
				}
			}
			return
		}
		// complex-to-complex
		for i := 0; i < o.nTrf; i++ {
			e.cs[i] = complex(data[base+2*i], data[base+2*i+1])
		}
		if o.Sig == Forward {
			e.cfft.Coefficients(e.cs2, e.cs)
		} else {
			e.cfft.Sequence(e.cs2, e.cs)
		}
		for i := 0; i < o.nTrf; i++ {
			data[base+2*i] = real(e.cs2[i])
			data[base+2*i+1] = imag(e.cs2[i])
		}
	}
}

// r2rInPlace applies the component's real-to-real transform to x, honoring
// the mirrored orientation and the plan sign
func (o *Plan) r2rInPlace(e *engineSet, c *comp, x []float64) {
	if o.Sig == Forward {
		if c.reversed {
			reverse(x)
		}
		e.rr.transform(x, c.fwd)
		return
	}
	e.rr.transform(x, c.bwd)
	if c.reversed {
		reverse(x)
	}
}

// PhaseCorrection rotates the spectrum of sine-family components so that a
// complex pipeline can treat the data as a plain complex array: the sine
// transforms produce imaginary spectra stored as reals, which is a factor
// -i on the forward sign and +i on the backward one. On real data the
// rotation is deferred: the solver folds the accumulated phase into the
// multiplicative kernel at convolution time using Imult.
func (o *Plan) PhaseCorrection(topo *grid.Topology, data []float64) {
	if o.kind != KindSym && o.kind != KindMixed {
		return
	}
	if topo.Nf != 2 {
		return
	}
	ax0 := topo.Axis
	ax1 := (ax0 + 1) % 3
	ax2 := (ax0 + 2) % 3
	npen := topo.Nloc[ax1] * topo.Nloc[ax2]
	memdim := topo.MemDim()
	n := topo.Nloc[ax0]

	var eg errgroup.Group
	eg.SetLimit(cap(o.pool))
	for lia := 0; lia < o.Lda; lia++ {
		if !o.comps[lia].imult {
			continue
		}
		for io := 0; io < npen; io++ {
			base := lia*memdim + topo.CollapsedIndex(0, io)
			eg.Go(func() error {
				if o.Sig == Forward {
					for i := 0; i < n; i++ {
						re, im := data[base+2*i], data[base+2*i+1]
						data[base+2*i], data[base+2*i+1] = im, -re // times -i
					}
				} else {
					for i := 0; i < n; i++ {
						re, im := data[base+2*i], data[base+2*i+1]
						data[base+2*i], data[base+2*i+1] = -im, re // times +i
					}
				}
				return nil
			})
		}
	}
	eg.Wait()
}
