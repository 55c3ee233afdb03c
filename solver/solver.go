// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package solver orchestrates the pencil-decomposed spectral solution of the
// three-dimensional Poisson equation: it derives the transform pipeline from
// the boundary conditions, materializes the intermediate topologies and the
// switches between them, builds the Green's function and runs the forward
// pipeline, the convolution and the backward pipeline
package solver

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gopoisson/green"
	"github.com/cpmech/gopoisson/grid"
	"github.com/cpmech/gopoisson/plan"
	"github.com/cpmech/gopoisson/swap"
)

// Mode selects what a solve computes
type Mode int

const (
	// Std returns the potential of the right-hand side
	Std Mode = iota

	// Rot returns the curl of the potential (requires a derivative order)
	Rot
)

// Solver holds the full pipeline for one problem shape
type Solver struct {

	// input
	TopoPhys *grid.Topology      // the user's physical-space topology
	Gr       grid.Group          // the process group the pipeline runs on
	Bc       [3][2][]plan.BcType // boundary conditions [dim][side][component]
	H        [3]float64          // grid spacing
	L        [3]float64          // domain size
	ShowMsg  bool                // print messages on rank 0

	// configuration
	GreenKind  green.Kind
	AlphaGreen float64 // smoothing length = AlphaGreen * h
	Variant    swap.Variant

	// derived
	lda   int
	ndim  int
	odiff int

	planFwd     [3]*plan.Plan
	planBwd     [3]*plan.Plan
	planGreen   [3]*plan.Plan
	planBwdDiff [3]*plan.Plan

	topoHat     [3]*grid.Topology
	topoGreen   [3]*grid.Topology
	switchTopo  [3]*swap.SwitchTopo
	switchGreen [3]*swap.SwitchTopo
	shiftHat    [3][3]int
	shiftGreen  [3][3]int

	normFact float64
	volFact  float64

	greenBuf []float64
	data     []float64
	sendBuf  []float64
	recvBuf  []float64

	setupDone bool
}

// NewSolver constructs a Poisson solver, creates the plans and determines
// their execution order, and performs the dry run that materializes the
// intermediate topologies and the switches between them.
//   topo      -- the physical-space topology of the right-hand side (real)
//   bc        -- boundary conditions per dimension, face and component
//   h, L      -- grid spacing and domain size
//   orderDiff -- derivative order for the rotational mode: 0 = none,
//                1 = spectral, 2 = second-order finite difference
func NewSolver(topo *grid.Topology, bc [3][2][]plan.BcType, h, L [3]float64, orderDiff int) (o *Solver) {
	if topo.IsComplex() {
		chk.Panic("the physical topology cannot be complex")
	}
	if orderDiff < 0 || orderDiff > 2 {
		chk.Panic("the derivative order must be 0, 1 or 2. %d is invalid", orderDiff)
	}
	o = new(Solver)
	o.TopoPhys = topo
	o.Gr = topo.Gr
	o.Bc = bc
	o.H = h
	o.L = L
	o.lda = topo.Lda
	o.odiff = orderDiff
	o.GreenKind = green.Chat2
	o.AlphaGreen = 2.0
	o.Variant = swap.VariantAllToAll

	// derivative duals for the rotational backward pass
	var diffBc [3][2][]plan.BcType
	if o.odiff > 0 {
		for d := 0; d < 3; d++ {
			for s := 0; s < 2; s++ {
				diffBc[d][s] = make([]plan.BcType, o.lda)
				for c := 0; c < o.lda; c++ {
					diffBc[d][s][c] = bc[d][s][c].DerivativeDual()
				}
			}
		}
	}

	// one plan per direction and pipeline; Green plans always carry lda=1
	for d := 0; d < 3; d++ {
		o.planFwd[d] = plan.NewPlan(o.lda, d, h, L, [2][]plan.BcType{bc[d][0], bc[d][1]}, plan.Forward, false)
		o.planBwd[d] = plan.NewPlan(o.lda, d, h, L, [2][]plan.BcType{bc[d][0], bc[d][1]}, plan.Backward, false)
		o.planGreen[d] = plan.NewPlan(1, d, h, L, [2][]plan.BcType{{bc[d][0][0]}, {bc[d][1][0]}}, plan.Forward, true)
	}
	sortPlans(&o.planFwd)
	sortPlans(&o.planBwd)
	sortPlans(&o.planGreen)

	// the derivative plans follow the exact order of the backward ones
	if o.odiff > 0 {
		for i := 0; i < 3; i++ {
			d := o.planBwd[i].DimID
			o.planBwdDiff[i] = plan.NewPlan(o.lda, d, h, L, [2][]plan.BcType{diffBc[d][0], diffBc[d][1]}, plan.Backward, false)
		}
	}

	// effective dimensionality
	o.ndim = 3
	for i := 0; i < 3; i++ {
		if o.planFwd[i].IsEmpty() {
			o.ndim--
		}
	}
	if o.ndim < 2 {
		chk.Panic("at least two directions must be non flat. ndim=%d is invalid", o.ndim)
	}

	// dry runs: the field pipelines materialize topologies and switches,
	// the others only track sizes
	o.initPlansAndTopos(&o.topoHat, &o.switchTopo, &o.shiftHat, &o.planFwd, false)
	o.initPlansAndTopos(nil, nil, nil, &o.planBwd, false)
	o.initPlansAndTopos(&o.topoGreen, &o.switchGreen, &o.shiftGreen, &o.planGreen, true)
	if o.odiff > 0 {
		o.initPlansAndTopos(nil, nil, nil, &o.planBwdDiff, false)
	}

	// composite factors
	o.normFact = 1.0
	o.volFact = 1.0
	for i := 0; i < 3; i++ {
		o.normFact *= o.planFwd[i].NormFact()
		o.volFact *= o.planFwd[i].VolFact()
	}
	return
}

// sortPlans orders a plan triple by type priority, stable on ties
func sortPlans(plans *[3]*plan.Plan) {
	s := plans[:]
	sort.SliceStable(s, func(a, b int) bool {
		return s[a].TypePriority() < s[b].TypePriority()
	})
	if !(plans[0].TypePriority() <= plans[1].TypePriority() && plans[1].TypePriority() <= plans[2].TypePriority()) {
		chk.Panic("wrong order in the plans: %d %d %d", plans[0].TypePriority(), plans[1].TypePriority(), plans[2].TypePriority())
	}
}

// pencilNproc distributes the processes over the two slow axes of a new
// pencil, preserving the count along whichever axis is neither the new fast
// axis nor the previous one, to minimize reshuffles across switches
func pencilNproc(dimID, otherID, commSize int, hint [3]int) (np [3]int) {
	if otherID == dimID {
		otherID = (dimID + 1) % 3
	}
	keep := 3 - dimID - otherID
	np[dimID] = 1
	np[keep] = hint[keep]
	if np[keep] < 1 || commSize%np[keep] != 0 {
		np[keep] = igcd(commSize, imax(1, np[keep]))
	}
	np[otherID] = commSize / np[keep]
	return
}

func igcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func imax(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// initPlansAndTopos performs the dry run through one plan triple. For the
// field pipeline (isGreen false, maps non-nil) it creates the intermediate
// topology and the switch of every stage. For the Green pipeline it walks
// the stages backwards afterwards so that every Green topology carries the
// full global extent of the domain in its direction.
func (o *Solver) initPlansAndTopos(topomap *[3]*grid.Topology, switchmap *[3]*swap.SwitchTopo, shifts *[3][3]int, planmap *[3]*plan.Plan, isGreen bool) {

	commSize := o.Gr.Size()
	currentTopo := o.TopoPhys
	align := o.TopoPhys.Alignment

	sizeTmp := o.TopoPhys.Nglob
	dimOrder := [3]int{planmap[0].DimID, planmap[1].DimID, planmap[2].DimID}
	lda := o.lda
	if isGreen {
		lda = 1
	}

	isComplex := false
	for ip := 0; ip < o.ndim; ip++ {
		sizeTmp, isComplex = planmap[ip].Init(sizeTmp, isComplex)
		dimID := planmap[ip].DimID

		if !isGreen && topomap != nil && switchmap != nil {
			var nproc [3]int
			if ip == 0 {
				nproc = pencilNproc(dimID, dimOrder[1], commSize, o.TopoPhys.Nproc)
			} else {
				nproc = pencilNproc(dimID, planmap[ip-1].DimID, commSize, currentTopo.Nproc)
			}
			topomap[ip] = grid.NewTopology(o.Gr, dimID, lda, sizeTmp, nproc, isComplex, &dimOrder, align)

			var fieldstart [3]int
			fieldstart[dimID] = planmap[ip].FieldStart()
			shifts[ip] = fieldstart

			// the switch moves the pre-transform (real) sizes even when the
			// new topology is complex: flip it temporarily
			if planmap[ip].IsR2C() {
				topomap[ip].SwitchToReal()
				switchmap[ip] = swap.NewSwitchTopo(currentTopo, topomap[ip], fieldstart, o.Variant)
				topomap[ip].SwitchToComplex()
			} else {
				switchmap[ip] = swap.NewSwitchTopo(currentTopo, topomap[ip], fieldstart, o.Variant)
			}
			currentTopo = topomap[ip]
			if o.ShowMsg {
				io.Pf("> stage %d: %v\n", ip, currentTopo)
			}
		}
	}

	// Green topologies walk the pipeline backwards from full spectral,
	// undoing the size change of every real-to-complex transform, so that
	// the first topology holds the full physical domain
	if isGreen && topomap != nil && switchmap != nil {
		currentTopo = nil
		for ip := o.ndim - 1; ip >= 0; ip-- {
			dimID := planmap[ip].DimID

			var nproc [3]int
			if ip > o.ndim-2 {
				// same process grid as the field in full spectral
				nproc = o.topoHat[o.ndim-1].Nproc
			} else {
				nproc = pencilNproc(dimID, planmap[ip+1].DimID, commSize, currentTopo.Nproc)
			}
			topomap[ip] = grid.NewTopology(o.Gr, dimID, lda, sizeTmp, nproc, isComplex, &dimOrder, align)

			if ip < o.ndim-1 {
				var fieldstart [3]int
				fieldstart[planmap[ip+1].DimID] = planmap[ip+1].FieldStart()
				shifts[ip+1] = fieldstart
				switchmap[ip+1] = swap.NewSwitchTopo(topomap[ip], currentTopo, fieldstart, o.Variant)
			}

			// undo the flip only when the transform actually performs it on
			// the Green data; spectral directions are sampled directly
			if planmap[ip].IsR2CDoneByTransform() {
				topomap[ip].SwitchToReal()
				sizeTmp[dimID] *= 2
				isComplex = false
			}
			currentTopo = topomap[ip]
		}
	}

	// reset the field topologies to the state before their transform
	if !isGreen && topomap != nil {
		for ip := 0; ip < o.ndim; ip++ {
			if planmap[ip].IsR2C() {
				topomap[ip].SwitchToReal()
			}
		}
	}
}

// InnerTopoPhysical returns the first internal (pencil) topology
func (o *Solver) InnerTopoPhysical() *grid.Topology { return o.topoHat[0] }

// InnerTopoSpectral returns the full-spectral topology
func (o *Solver) InnerTopoSpectral() *grid.Topology { return o.topoHat[o.ndim-1] }

// NormFact returns the composite normalization factor
func (o *Solver) NormFact() float64 { return o.normFact }

// VolFact returns the composite grid-spacing factor
func (o *Solver) VolFact() float64 { return o.volFact }

// Setup finalizes the solver: it optionally installs a reordered process
// group, builds the Green's function, and allocates the field and exchange
// buffers. It returns the internal data buffer.
//   newGr      -- a reordered group built by an external heuristic, or nil
//   changePhys -- also re-map the user's physical topology onto newGr
func (o *Solver) Setup(newGr grid.Group, changePhys bool) []float64 {
	if o.setupDone {
		chk.Panic("setup can only be called once")
	}

	// install the reordered group and rebuild the switch geometries, which
	// depend on the per-process grid positions
	if newGr != nil {
		for i := 0; i < o.ndim; i++ {
			o.topoHat[i].ChangeGroup(newGr)
			o.topoGreen[i].ChangeGroup(newGr)
		}
		if changePhys {
			o.TopoPhys.ChangeGroup(newGr)
		}
		o.Gr = newGr
		o.rebuildSwitches()
	}

	// Green's function: allocate, run its pipeline, release its switches
	maxGreen := 0
	for i := 0; i < o.ndim; i++ {
		if s := o.topoGreen[i].MemSize(); s > maxGreen {
			maxGreen = s
		}
	}
	o.greenBuf = grid.AllocAligned(maxGreen, o.TopoPhys.Alignment)
	for i := 0; i < o.ndim; i++ {
		o.planGreen[i].Allocate(o.topoGreen[i])
	}
	o.setupSwitches(o.switchGreen[:o.ndim])
	o.computeGreen()
	o.finalizeGreen()
	for i := 0; i < o.ndim; i++ {
		o.switchGreen[i] = nil // the exchange buffers go with them
	}

	// field buffer: the maximum footprint over the pipeline and the user's
	// layout, zero-initialized
	maxMem := o.TopoPhys.MemSize()
	for i := 0; i < o.ndim; i++ {
		if s := o.topoHat[i].MemSize(); s > maxMem {
			maxMem = s
		}
	}
	o.data = grid.AllocAligned(maxMem, o.TopoPhys.Alignment)

	// field plans and switches
	for i := 0; i < o.ndim; i++ {
		o.planFwd[i].Allocate(o.topoHat[i])
		o.planBwd[i].Allocate(o.topoHat[i])
		if o.odiff > 0 {
			o.planBwdDiff[i].Allocate(o.topoHat[i])
		}
	}
	o.sendBuf, o.recvBuf = o.setupSwitches(o.switchTopo[:o.ndim])

	o.setupDone = true
	if o.ShowMsg {
		io.Pf("> solver initialization completed\n")
	}
	return o.data
}

// rebuildSwitches recomputes the switch geometries after a group change:
// the topologies are walked through the same complex-state sequence as the
// original dry run so that each switch sees matching layouts
func (o *Solver) rebuildSwitches() {
	currentTopo := o.TopoPhys
	for ip := 0; ip < o.ndim; ip++ {
		o.switchTopo[ip] = swap.NewSwitchTopo(currentTopo, o.topoHat[ip], o.shiftHat[ip], o.Variant)
		if o.planFwd[ip].IsR2C() {
			o.topoHat[ip].SwitchToComplex()
		}
		currentTopo = o.topoHat[ip]
	}
	for ip := 0; ip < o.ndim; ip++ {
		if o.planFwd[ip].IsR2C() {
			o.topoHat[ip].SwitchToReal()
		}
	}
	for ip := 1; ip < o.ndim; ip++ {
		o.switchGreen[ip] = swap.NewSwitchTopo(o.topoGreen[ip-1], o.topoGreen[ip], o.shiftGreen[ip], o.Variant)
	}
}

// Free releases the buffers and the transform engines. The solver cannot be
// used afterwards.
func (o *Solver) Free() {
	o.greenBuf = nil
	o.data = nil
	o.sendBuf = nil
	o.recvBuf = nil
	for i := 0; i < 3; i++ {
		o.planFwd[i] = nil
		o.planBwd[i] = nil
		o.planGreen[i] = nil
		o.planBwdDiff[i] = nil
		o.switchTopo[i] = nil
		o.topoHat[i] = nil
		o.topoGreen[i] = nil
	}
	o.setupDone = false
}

// setupSwitches runs the collective setup of a switch list and binds shared
// exchange buffers sized at the maximum footprint
func (o *Solver) setupSwitches(switches []*swap.SwitchTopo) (send, recv []float64) {
	maxMem := 0
	for _, st := range switches {
		if st == nil {
			continue
		}
		st.Setup()
		if s := st.BufMemSize(); s > maxMem {
			maxMem = s
		}
	}
	if maxMem == 0 {
		maxMem = 1
	}
	send = grid.AllocAligned(maxMem, o.TopoPhys.Alignment)
	recv = grid.AllocAligned(maxMem, o.TopoPhys.Alignment)
	for _, st := range switches {
		if st == nil {
			continue
		}
		st.SetupBuffers(send, recv)
	}
	return
}
