// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grid

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Topology describes the pencil decomposition of a 3-D array over a process
// grid. The fast-running index is Axis; Nf is the element multiplicity
// (1 = real, 2 = complex interleaved [re,im]); Lda is the number of
// components per grid point. Nmem pads the fast axis so every pencil start
// is aligned to Alignment bytes.
type Topology struct {

	// input
	Gr        Group  // process group handle
	Axis      int    // fast-running dimension: 0, 1 or 2
	Lda       int    // leading dimension of array = number of components
	Nf        int    // number of fields per element: 1=real, 2=complex
	Nglob     [3]int // global number of points per dimension
	Nproc     [3]int // number of processes per dimension
	Axproc    [3]int // order in which the linear rank is split
	Alignment int    // byte alignment of pencil starts

	// derived
	Rankd [3]int // position of this process in the process grid
	Nloc  [3]int // local number of points per dimension
	Nmem  [3]int // local memory extent per dimension (fast axis padded)
}

// NewTopology creates a Topology.
//   axis      -- the fast-running dimension
//   lda       -- number of components per point (scalar=1, vector=3)
//   nglob     -- global sizes
//   nproc     -- process grid; the product must equal gr.Size()
//   isComplex -- complex interleaved storage
//   axproc    -- rank splitting order; nil means {0,1,2}
//   alignment -- byte alignment for pencil starts; must be a multiple of 8
func NewTopology(gr Group, axis, lda int, nglob, nproc [3]int, isComplex bool, axproc *[3]int, alignment int) (o *Topology) {
	if axis < 0 || axis > 2 {
		chk.Panic("axis must be 0, 1 or 2. axis=%d is invalid", axis)
	}
	if lda < 1 {
		chk.Panic("lda must be at least 1. lda=%d is invalid", lda)
	}
	if alignment <= 0 || alignment%8 != 0 {
		chk.Panic("alignment must be a positive multiple of the sample size (8 bytes). alignment=%d is invalid", alignment)
	}
	if nproc[0]*nproc[1]*nproc[2] != gr.Size() {
		chk.Panic("the total number of procs (=%d) has to be equal to the group size (=%d)", nproc[0]*nproc[1]*nproc[2], gr.Size())
	}
	o = new(Topology)
	o.Gr = gr
	o.Axis = axis
	o.Lda = lda
	o.Nf = 1
	if isComplex {
		o.Nf = 2
	}
	o.Nglob = nglob
	o.Nproc = nproc
	if axproc == nil {
		o.Axproc = [3]int{0, 1, 2}
	} else {
		o.Axproc = *axproc
	}
	o.Alignment = alignment
	o.rankSplit(gr.Rank())
	o.ComputeSizes()
	return
}

// rankSplit fills Rankd by splitting the linear rank along Axproc,
// fastest-varying rank dimension first
func (o *Topology) rankSplit(rank int) {
	r := rank
	for i := 0; i < 3; i++ {
		d := o.Axproc[i]
		o.Rankd[d] = r % o.Nproc[d]
		r /= o.Nproc[d]
	}
}

// RankFromRankd is the inverse of the rank splitting: it linearizes a
// process-grid position back to the rank in the group
func (o *Topology) RankFromRankd(rankd [3]int) (rank int) {
	mult := 1
	for i := 0; i < 3; i++ {
		d := o.Axproc[i]
		rank += rankd[d] * mult
		mult *= o.Nproc[d]
	}
	return
}

// NByProc returns the local extent along dimension id for process index p:
// the canonical block split gives ceil(nglob/nproc) to every process except
// the last one, which takes the remainder
func (o *Topology) NByProc(id, p int) int {
	b := (o.Nglob[id] + o.Nproc[id] - 1) / o.Nproc[id]
	if p == o.Nproc[id]-1 {
		return o.Nglob[id] - b*(o.Nproc[id]-1)
	}
	return b
}

// StartGlob returns the global index of this process' first point along id
func (o *Topology) StartGlob(id int) int {
	b := (o.Nglob[id] + o.Nproc[id] - 1) / o.Nproc[id]
	return o.Rankd[id] * b
}

// RankOfGlobalIndex maps a global index along axis id to the owning process
// index in the grid
func (o *Topology) RankOfGlobalIndex(id, gid int) int {
	b := (o.Nglob[id] + o.Nproc[id] - 1) / o.Nproc[id]
	r := gid / b
	if r > o.Nproc[id]-1 {
		r = o.Nproc[id] - 1
	}
	return r
}

// ComputeSizes fills Nloc and Nmem from Nglob, Nproc and Rankd. The fast
// axis is padded upward so that the pencil byte extent is a multiple of the
// alignment.
func (o *Topology) ComputeSizes() {
	for id := 0; id < 3; id++ {
		o.Nloc[id] = o.NByProc(id, o.Rankd[id])
		if o.Nloc[id] < 1 {
			chk.Panic("the size per proc along dim %d must be at least 1: nglob=%d nproc=%d", id, o.Nglob[id], o.Nproc[id])
		}
		o.Nmem[id] = o.Nloc[id]
		if id == o.Axis && o.Alignment > 0 {
			modulo := (o.Nloc[id] * o.Nf * 8) % o.Alignment
			if modulo != 0 {
				o.Nmem[id] += (o.Alignment - modulo) / 8 / o.Nf
			}
		}
	}
}

// IsComplex tells whether the storage is complex interleaved
func (o *Topology) IsComplex() bool { return o.Nf == 2 }

// SwitchToComplex re-interprets the fast axis as complex pairs, halving its
// extent. The call is a no-op if the topology is already complex.
func (o *Topology) SwitchToComplex() {
	if o.Nf == 2 {
		return
	}
	if o.Nglob[o.Axis]%2 != 0 || o.Nloc[o.Axis]%2 != 0 || o.Nmem[o.Axis]%2 != 0 {
		chk.Panic("cannot switch to complex: the fast axis count must be even. nglob=%d nloc=%d", o.Nglob[o.Axis], o.Nloc[o.Axis])
	}
	o.Nf = 2
	o.Nglob[o.Axis] /= 2
	o.Nloc[o.Axis] /= 2
	o.Nmem[o.Axis] /= 2
}

// SwitchToReal re-interprets the fast axis complex pairs as reals, doubling
// its extent. The call is a no-op if the topology is already real.
func (o *Topology) SwitchToReal() {
	if o.Nf == 1 {
		return
	}
	o.Nf = 1
	o.Nglob[o.Axis] *= 2
	o.Nloc[o.Axis] *= 2
	o.Nmem[o.Axis] *= 2
}

// ChangeGroup installs a new process group and re-derives the rank position
// and sizes. The decomposition (Nproc, Axproc) is unchanged.
func (o *Topology) ChangeGroup(gr Group) {
	if gr.Size() != o.Gr.Size() {
		chk.Panic("the new group size (=%d) must match the old one (=%d)", gr.Size(), o.Gr.Size())
	}
	o.Gr = gr
	o.rankSplit(gr.Rank())
	o.ComputeSizes()
}

// Intersect computes the index range [start,end) on this topology whose
// global coordinates, shifted by shift, fall inside other's global extent
func (o *Topology) Intersect(shift [3]int, other *Topology) (start, end [3]int) {
	if o.Nf != other.Nf {
		chk.Panic("the two topologies must be both complex or both real. nf: %d != %d", o.Nf, other.Nf)
	}
	for id := 0; id < 3; id++ {
		for i := 0; i < o.Nloc[id]; i++ {
			gid := o.StartGlob(id) + i + shift[id]
			if gid <= 0 {
				start[id] = i
			}
			if gid < other.Nglob[id] {
				end[id] = i + 1
			}
		}
	}
	return
}

// LocalIndex computes the linear offset (in float64 samples, for one
// component) of point (i0,i1,i2) expressed in the frame whose fast axis is
// axsrc. The offset respects this topology's fast axis and memory extents.
func (o *Topology) LocalIndex(axsrc, i0, i1, i2 int) int {
	i := [3]int{i0, i1, i2}
	dax0 := (3 + o.Axis - axsrc) % 3
	dax1 := (dax0 + 1) % 3
	dax2 := (dax0 + 2) % 3
	ax0 := o.Axis
	ax1 := (ax0 + 1) % 3
	return i[dax0]*o.Nf + o.Nmem[ax0]*o.Nf*(i[dax1]+o.Nmem[ax1]*i[dax2])
}

// CollapsedIndex returns the offset of the io-th pencil's i0-th sample,
// with io collapsing the two slow dimensions
func (o *Topology) CollapsedIndex(i0, io int) int {
	return i0*o.Nf + io*o.Nmem[o.Axis]*o.Nf
}

// MemDim returns the local memory size of one component, in float64 samples
func (o *Topology) MemDim() int {
	return o.Nf * o.Nmem[0] * o.Nmem[1] * o.Nmem[2]
}

// MemSize returns the local memory size over all components
func (o *Topology) MemSize() int {
	return o.Lda * o.MemDim()
}

// LocSize returns the number of local points (one component, no padding)
func (o *Topology) LocSize() int {
	return o.Nloc[0] * o.Nloc[1] * o.Nloc[2]
}

// String returns a one-line description with the most important fields
func (o *Topology) String() string {
	return io.Sf("topology{axis=%d lda=%d nf=%d nglob=%v nproc=%v nloc=%v nmem=%v rankd=%v}",
		o.Axis, o.Lda, o.Nf, o.Nglob, o.Nproc, o.Nloc, o.Nmem, o.Rankd)
}
