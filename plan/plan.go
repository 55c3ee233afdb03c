// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plan

import (
	"math"
	"runtime"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cpmech/gopoisson/grid"
)

// Kind tags the family of a 1-D plan. The numeric value is the execution
// priority: smaller runs earlier in the forward pipeline.
type Kind int

const (
	// KindUnbounded: both faces free-space. The direction is expanded to
	// twice the global extent; the first such direction on real data becomes
	// the real-to-complex transform, later ones are complex DFTs of the
	// expanded extent. Runs first so the fast axis shrinks early.
	KindUnbounded Kind = 1

	// KindPeriodic: complex DFT; becomes real-to-complex when the data is
	// still real when it executes
	KindPeriodic Kind = 2

	// KindMixed: one face free-space, the other symmetric. Expanded to twice
	// the extent, then a cosine/sine transform of the expanded extent.
	KindMixed Kind = 3

	// KindSym: both faces symmetric; cosine/sine transforms that keep the
	// data real, executed last
	KindSym Kind = 4

	// KindEmpty: flat direction (size 1), contributes nothing
	KindEmpty Kind = 5
)

// Sign selects the transform direction a plan executes
type Sign int

const (
	Forward Sign = iota
	Backward
)

// comp holds the per-component pieces of a plan: the symmetric families may
// differ between vector components
type comp struct {
	fwd      r2rKind // forward real-to-real kind (sym/mixed only)
	bwd      r2rKind // inverse real-to-real kind
	kOffset  float64 // wave number = (index + kOffset) * kFact
	imult    bool    // sine transform introduces a factor -i fwd / +i bwd
	reversed bool    // pencil mirrored about the far face before transforming
}

// engineSet bundles the per-worker transform engines and scratch space
type engineSet struct {
	cfft *fourier.CmplxFFT
	rfft *fourier.FFT
	rr   *r2r
	cs   []complex128
	cs2  []complex128
	rs   []float64
}

// Plan is the 1-D transform plan of one direction. One Plan instance exists
// per direction, per pipeline (forward, backward, green, backward
// derivative); the instances only differ by Sign and boundary input.
type Plan struct {

	// identity
	DimID int  // the spatial axis this plan transforms
	Lda   int  // number of components
	Sig   Sign // forward or backward
	Green bool // plan built for the Green function (lda forced to 1)

	// selection
	kind  Kind
	comps []comp

	// geometry
	h, l float64

	// dry-run results
	nIn, nOut    int // logical extents before/after (complex counts when complex)
	nTrf         int // transform length (expanded for unbounded/mixed)
	isComplexIn  bool
	isComplexOut bool
	isR2C        bool // this plan turns real data into complex data
	inited       bool

	// factors
	normFact   float64
	volFact    float64
	kFact      float64
	symStart   int
	fieldStart int
	isSpectral bool // boundary already diagonal: Green is sampled in k space

	// execution
	topo *grid.Topology
	pool chan *engineSet
}

// NewPlan creates a plan for one direction.
//   lda    -- number of components; the Green variants pass 1
//   dimID  -- the spatial axis
//   h, L   -- grid spacing and domain length per axis
//   bc     -- boundary pair; bc[side][component], side 0=low 1=high
//   sign   -- Forward or Backward
//   green  -- build the Green-side mirror plan
func NewPlan(lda, dimID int, h, L [3]float64, bc [2][]BcType, sign Sign, green bool) (o *Plan) {
	if lda < 1 {
		chk.Panic("lda must be at least 1. lda=%d is invalid", lda)
	}
	if len(bc[0]) != lda || len(bc[1]) != lda {
		chk.Panic("boundary conditions must be given per component: %d/%d != %d", len(bc[0]), len(bc[1]), lda)
	}
	o = new(Plan)
	o.DimID = dimID
	o.Lda = lda
	o.Sig = sign
	o.Green = green
	o.h = h[dimID]
	o.l = L[dimID]
	o.comps = make([]comp, lda)
	o.kind = bcKind(bc[0][0], bc[1][0])
	for c := 0; c < lda; c++ {
		if bcKind(bc[0][c], bc[1][c]) != o.kind {
			chk.Panic("all components of direction %d must share the same boundary family: component %d breaks it", dimID, c)
		}
		o.comps[c] = newComp(bc[0][c], bc[1][c])
	}
	return
}

// bcKind maps a boundary pair to the plan family
func bcKind(lo, hi BcType) Kind {
	switch {
	case lo == BcNone || hi == BcNone:
		if lo != hi {
			chk.Panic("a flat direction needs none on both faces: %v/%v is invalid", lo, hi)
		}
		return KindEmpty
	case lo == BcUnbounded && hi == BcUnbounded:
		return KindUnbounded
	case lo == BcPeriodic || hi == BcPeriodic:
		if lo != hi {
			chk.Panic("a periodic face requires the opposite face to be periodic too: %v/%v is invalid", lo, hi)
		}
		return KindPeriodic
	case lo == BcUnbounded || hi == BcUnbounded:
		return KindMixed
	default:
		return KindSym
	}
}

// newComp fills the per-component transform selection
func newComp(lo, hi BcType) (c comp) {
	switch {
	case lo == BcEven && hi == BcEven:
		c = comp{fwd: dct2, bwd: dct3, kOffset: 0}
	case lo == BcOdd && hi == BcOdd:
		c = comp{fwd: dst2, bwd: dst3, kOffset: 1, imult: true}
	case lo == BcEven && hi == BcOdd:
		c = comp{fwd: dct4, bwd: dct4, kOffset: 0.5}
	case lo == BcOdd && hi == BcEven:
		c = comp{fwd: dst4, bwd: dst4, kOffset: 0.5, imult: true}
	case lo == BcUnbounded && (hi == BcEven || hi == BcOdd):
		// data mirrored about the far face: reverse, then the same families
		c = newComp(hi, hi)
		c.reversed = true
	case (lo == BcEven || lo == BcOdd) && hi == BcUnbounded:
		c = newComp(lo, lo)
	}
	return
}

// TypePriority returns the sort key; smaller executes earlier
func (o *Plan) TypePriority() int { return int(o.kind) }

// Kind returns the plan family
func (o *Plan) Kind() Kind { return o.kind }

// IsEmpty tells whether this plan is a placeholder for a flat direction
func (o *Plan) IsEmpty() bool { return o.kind == KindEmpty }

// Init performs the dry run: given the logical input extent and complex
// state, it fixes the transform length, the output extent and all factors.
// Only sizes are touched; no engine is created.
func (o *Plan) Init(sizeIn [3]int, isComplexIn bool) (sizeOut [3]int, isComplexOut bool) {
	n := sizeIn[o.DimID]
	o.nIn = n
	o.isComplexIn = isComplexIn
	o.isComplexOut = isComplexIn
	o.nOut = n
	o.nTrf = n
	o.normFact = 1.0
	o.volFact = 1.0
	o.kFact = 0.0
	o.symStart = 0
	o.fieldStart = 0
	o.isSpectral = false
	o.isR2C = false

	switch o.kind {

	case KindEmpty:
		if n != 1 {
			chk.Panic("an empty plan needs a flat direction. n=%d is invalid", n)
		}

	case KindSym:
		if n < 2 {
			chk.Panic("symmetric directions need at least 2 points. n=%d is invalid", n)
		}
		o.normFact = 1.0 / float64(2*n)
		o.kFact = math.Pi / o.l
		o.isSpectral = true

	case KindPeriodic:
		o.kFact = 2.0 * math.Pi / o.l
		o.isSpectral = true
		if !isComplexIn {
			if n%2 != 0 {
				chk.Panic("a real-to-complex direction needs an even number of points. n=%d is invalid", n)
			}
			o.isR2C = true
			o.nOut = n/2 + 1
			o.isComplexOut = true
		}
		o.normFact = 1.0 / float64(n)
		o.symStart = n / 2

	case KindUnbounded:
		o.nTrf = 2 * n
		o.volFact = o.h
		o.kFact = math.Pi / o.l // 2π over the expanded length 2L
		o.normFact = 1.0 / float64(2*n)
		o.symStart = n
		if !isComplexIn {
			o.isR2C = true
			o.nOut = n + 1
			o.isComplexOut = true
		} else {
			o.nOut = 2 * n
		}

	case KindMixed:
		o.nTrf = 2 * n
		o.nOut = 2 * n
		o.volFact = o.h
		o.kFact = math.Pi / (2.0 * o.l)
		o.normFact = 1.0 / float64(4*n)
		if o.comps[0].reversed {
			// unbounded low face: the data occupies the upper half
			o.fieldStart = n
		}
	}

	sizeOut = sizeIn
	sizeOut[o.DimID] = o.nOut
	isComplexOut = o.isComplexOut
	o.inited = true
	return
}

// accessors ///////////////////////////////////////////////////////////////

// NormFact returns the normalization contribution of this direction
func (o *Plan) NormFact() float64 { return o.normFact }

// VolFact returns the grid-spacing measure contribution of this direction
func (o *Plan) VolFact() float64 { return o.volFact }

// KFact returns the wave-number factor: k = (index + KOffset) * KFact
func (o *Plan) KFact() float64 { return o.kFact }

// KOffset returns the wave-number offset of component c
func (o *Plan) KOffset(c int) float64 { return o.comps[c].kOffset }

// SymStart returns the index at which spectral/physical mirroring begins
// (0 means no mirror)
func (o *Plan) SymStart() int { return o.symStart }

// FieldStart returns the offset at which the source data is placed in the
// expanded topology along DimID
func (o *Plan) FieldStart() int { return o.fieldStart }

// Imult tells whether component c carries a sine-transform ±i factor
func (o *Plan) Imult(c int) bool { return o.comps[c].imult }

// IsR2C tells whether this plan turns real data complex
func (o *Plan) IsR2C() bool { return o.isR2C }

// IsR2CDoneByTransform tells whether the real-to-complex flip is actually
// performed by a transform on the Green function (false when the direction
// is spectral: then the Green data is sampled directly in k space)
func (o *Plan) IsR2CDoneByTransform() bool { return o.isR2C && !o.isSpectral }

// IsSpectral tells whether the direction is diagonal in its own basis, so
// the Green function is sampled in frequency space for it
func (o *Plan) IsSpectral() bool { return o.isSpectral }

// NOut returns the logical output extent (complex count when complex)
func (o *Plan) NOut() int { return o.nOut }

// NTrf returns the transform length
func (o *Plan) NTrf() int { return o.nTrf }

// Allocate binds the plan to the topology it will execute on and builds the
// per-worker transform engines. Must be called after all topology sizes are
// final.
func (o *Plan) Allocate(topo *grid.Topology) {
	if !o.inited {
		chk.Panic("plan of direction %d must be initialized before allocation", o.DimID)
	}
	o.topo = topo
	if o.kind == KindEmpty {
		return
	}
	nw := runtime.NumCPU()
	if nw > 8 {
		nw = 8
	}
	o.pool = make(chan *engineSet, nw)
	for i := 0; i < nw; i++ {
		e := new(engineSet)
		switch o.kind {
		case KindSym, KindMixed:
			e.rr = newR2R(o.nTrf)
			e.rs = make([]float64, o.nTrf)
		case KindPeriodic, KindUnbounded:
			if o.isR2C {
				e.rfft = fourier.NewFFT(o.nTrf)
				e.cs = make([]complex128, o.nTrf/2+1)
				e.rs = make([]float64, o.nTrf)
			} else {
				e.cfft = fourier.NewCmplxFFT(o.nTrf)
				e.cs = make([]complex128, o.nTrf)
				e.cs2 = make([]complex128, o.nTrf)
			}
		}
		o.pool <- e
	}
}

// String returns a short description of the plan
func (o *Plan) String() string {
	return io.Sf("plan{dim=%d kind=%d sign=%d nIn=%d nOut=%d nTrf=%d r2c=%v spectral=%v norm=%g vol=%g}",
		o.DimID, o.kind, o.Sig, o.nIn, o.nOut, o.nTrf, o.isR2C, o.isSpectral, o.normFact, o.volFact)
}

