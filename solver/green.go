// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gopoisson/green"
	"github.com/cpmech/gopoisson/swap"
)

// computeGreen fills the Green's function in the first Green topology and
// pushes it through the parallel pipeline to full spectral space.
// Directions with symmetric or periodic boundaries are diagonal in their own
// basis: for them the kernel is sampled directly in frequency space and no
// transform is executed.
func (o *Solver) computeGreen() {

	isSpectral := [3]bool{}
	prm := green.Params{
		Kind: o.GreenKind,
		Eps:  o.AlphaGreen * o.H[0],
		H:    o.H,
	}
	for ip := 0; ip < o.ndim; ip++ {
		p := o.planGreen[ip]
		d := p.DimID
		isSpectral[d] = p.IsSpectral()
		prm.SymStart[d] = float64(p.SymStart())
		prm.HFact[d] = o.H[d]
		if isSpectral[d] {
			prm.HFact[d] = 0
			prm.KFact[d] = p.KFact()
			prm.KOffset[d] = p.KOffset(0)
		}
		if p.IsEmpty() {
			prm.HFact[d] = 0
		}
	}

	nSpectral := 0
	for d := 0; d < 3; d++ {
		if isSpectral[d] {
			nSpectral++
		}
	}
	nUnbounded := o.ndim - nSpectral
	if o.GreenKind == green.Lgf2 && nSpectral > 0 {
		chk.Panic("the lattice kernel cannot be combined with spectral directions")
	}

	// the regularized and lattice kernels assume an isotropic spacing
	if o.GreenKind != green.Chat2 {
		iso := o.H[0] == o.H[1] && o.H[1] == o.H[2]
		if o.ndim == 2 {
			iso = o.H[0] == o.H[1]
		}
		if !iso {
			chk.Panic("the regularized and lattice kernels require dx=dy=dz")
		}
	}

	switch nUnbounded {
	case 3:
		green.FillUnbounded3(o.topoGreen[0], &prm, o.greenBuf)
	case 2:
		green.FillUnbounded2(o.topoGreen[0], &prm, o.greenBuf)
	case 1:
		green.FillUnbounded1(o.topoGreen[0], &prm, o.greenBuf)
	case 0:
		green.FillSpectral(o.topoGreen[0], &prm, o.greenBuf, nil)
	default:
		chk.Panic("the number of unbounded directions does not match: %d = %d - %d", nUnbounded, o.ndim, nSpectral)
	}
	if o.ShowMsg {
		io.Pf("> green function of kind %d filled with %d unbounded directions\n", o.GreenKind, nUnbounded)
	}

	// forward: switch, transform where required, flip to complex after a
	// real-to-complex stage
	for ip := 0; ip < o.ndim; ip++ {
		p := o.planGreen[ip]
		if ip > 0 {
			o.switchGreen[ip].Execute(o.greenBuf, swap.Forward)
		}
		if !p.IsSpectral() {
			p.Execute(o.topoGreen[ip], o.greenBuf)
		}
		if p.IsR2CDoneByTransform() {
			o.topoGreen[ip].SwitchToComplex()
		}
	}

	// scale by the composite grid-spacing measure
	o.scaleGreen()

	// one spectral direction with a smoothed kernel: every plane except the
	// zero frequency one follows the full spectral expression
	if o.ndim == 3 && nSpectral == 1 &&
		(o.GreenKind == green.Hej2 || o.GreenKind == green.Hej4 || o.GreenKind == green.Hej6) {
		var istart [3]int
		for ip := 0; ip < 3; ip++ {
			p := o.planGreen[ip]
			d := p.DimID
			if isSpectral[d] {
				istart[d] = 1
			}
			prm.KFact[d] = p.KFact()
			prm.KOffset[d] = p.KOffset(0)
			prm.SymStart[d] = float64(p.SymStart())
			prm.HFact[d] = 0
		}
		green.FillSpectral(o.topoGreen[o.ndim-1], &prm, o.greenBuf, &istart)
	}
}

// scaleGreen multiplies the whole Green array by the composite volume factor
func (o *Solver) scaleGreen() {
	topo := o.topoGreen[o.ndim-1]
	ax0 := topo.Axis
	ax1 := (ax0 + 1) % 3
	ax2 := (ax0 + 2) % 3
	npen := topo.Nloc[ax1] * topo.Nloc[ax2]
	inmax := topo.Nloc[ax0] * topo.Nf
	for io := 0; io < npen; io++ {
		base := topo.CollapsedIndex(0, io)
		for i := 0; i < inmax; i++ {
			o.greenBuf[base+i] *= o.volFact
		}
	}
}

// finalizeGreen checks that the Green data lives in the same layout as the
// field in full spectral space, so the convolution can walk both with one
// set of indices
func (o *Solver) finalizeGreen() {
	topoField := o.topoHat[o.ndim-1]
	topoG := o.topoGreen[o.ndim-1]

	// simulate the transforms the field will have gone through
	isr2c := false
	for i := 0; i < o.ndim; i++ {
		isr2c = isr2c || o.planGreen[i].IsR2C()
	}
	if isr2c {
		topoField.SwitchToComplex()
	}
	if topoG.Nf != topoField.Nf {
		chk.Panic("the Green topology must match the field topology: nf %d != %d", topoG.Nf, topoField.Nf)
	}
	for d := 0; d < 3; d++ {
		if topoG.Nloc[d] != topoField.Nloc[d] || topoG.Nglob[d] != topoField.Nglob[d] {
			chk.Panic("the Green topology must match the field topology along dim %d: nloc %d != %d, nglob %d != %d",
				d, topoG.Nloc[d], topoField.Nloc[d], topoG.Nglob[d], topoField.Nglob[d])
		}
	}
	// back to the rest state if the last stage performs the flip itself
	if o.planGreen[o.ndim-1].IsR2C() {
		topoField.SwitchToReal()
	}
}
