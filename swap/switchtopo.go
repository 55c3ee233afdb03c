// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package swap re-partitions pencil data between two topologies whose fast
// axes differ. Local sub-regions are packed into fixed-size aligned blocks,
// the blocks travel collectively inside a sub-group of processes that
// actually exchange data, and are scattered into the destination layout.
package swap

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"golang.org/x/sync/errgroup"

	"github.com/cpmech/gopoisson/grid"
)

// Sign selects the direction of an exchange
const (
	Forward  = 1
	Backward = -1
)

// Variant selects the exchange strategy
type Variant int

const (
	// VariantAllToAll performs one vector all-to-all inside the sub-group
	VariantAllToAll Variant = iota

	// VariantPerPeer sends one self-contained message per peer; the
	// scatter starts once every payload has arrived, it does not overlap
	// with the receives
	VariantPerPeer
)

// side bundles the geometry of one end of the switch
type side struct {
	topo   *grid.Topology
	start  [3]int // intersection start (local indices)
	end    [3]int // intersection end (local indices)
	nBlock [3]int // block grid extents
	dest   []int  // per block: peer rank (sub-group numbering after Setup)
	ord    []int  // per block: slot ordinal within the (rank,component) region
	count  []int  // per sub-rank: elements sent to / received from it
	starts []int  // per sub-rank: element offset of its region
	nTo    []int  // per sub-rank: number of blocks exchanged with it
}

// SwitchTopo moves data from TopoIn to TopoOut. The shift vector is the
// position of TopoIn's global origin inside TopoOut.
type SwitchTopo struct {
	TopoIn  *grid.Topology
	TopoOut *grid.Topology
	Var     Variant

	shift    [3]int
	exSize   [3]int // global exchanged extent per axis
	nByBlock [3]int // common block extent (same on every process)
	lda      int
	nf       int // max of the two sides (they must match anyway)
	slot     int // padded slot size in elements, one component, one block

	in  side // input side (i2o geometry)
	out side // output side (o2i geometry)

	sub     grid.Group
	isA2A   bool // every pairwise count equal: symmetric collective possible
	sendBuf []float64
	recvBuf []float64
	ready   bool
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// NewSwitchTopo computes the block layout of the change from topoIn to
// topoOut. Collective over the topologies' group. Setup must be called
// before the first Execute.
func NewSwitchTopo(topoIn, topoOut *grid.Topology, shift [3]int, variant Variant) (o *SwitchTopo) {
	if topoIn.IsComplex() != topoOut.IsComplex() {
		chk.Panic("both topologies must be complex or both real")
	}
	if topoIn.Lda != topoOut.Lda {
		chk.Panic("both topologies must have the same number of components. %d != %d", topoIn.Lda, topoOut.Lda)
	}
	o = new(SwitchTopo)
	o.TopoIn = topoIn
	o.TopoOut = topoOut
	o.Var = variant
	o.shift = shift
	o.lda = topoIn.Lda
	o.nf = topoIn.Nf
	o.in.topo = topoIn
	o.out.topo = topoOut

	gr := topoIn.Gr
	negShift := [3]int{-shift[0], -shift[1], -shift[2]}
	o.in.start, o.in.end = topoIn.Intersect(shift, topoOut)
	o.out.start, o.out.end = topoOut.Intersect(negShift, topoIn)

	// common block extent: gcd of the local intersection extents over every
	// process and both sides; when the global exchanged extent is odd the
	// last process contributes one point less, so the remainder forms its
	// own unit block instead of breaking the gcd
	for id := 0; id < 3; id++ {
		isend := o.in.end[id] - o.in.start[id]
		osend := o.out.end[id] - o.out.start[id]
		o.exSize[id] = gr.AllreduceSumInt(isend)
		isendAdj, osendAdj := isend, osend
		if topoIn.Rankd[id] == topoIn.Nproc[id]-1 {
			isendAdj -= o.exSize[id] % 2
		}
		if topoOut.Rankd[id] == topoOut.Nproc[id]-1 {
			osendAdj -= o.exSize[id] % 2
		}
		o.nByBlock[id] = groupGcd(gr, gcd(isendAdj, osendAdj))
		if o.nByBlock[id] == 0 {
			o.nByBlock[id] = groupGcd(gr, gcd(isend, osend))
		}
		if o.nByBlock[id] == 0 {
			chk.Panic("the common block extent along axis %d is zero: the intersection is empty on every process", id)
		}
	}

	// padded slot size: every block travels in an identical aligned slot
	raw := o.nByBlock[0] * o.nByBlock[1] * o.nByBlock[2] * o.nf
	align := topoIn.Alignment / 8
	o.slot = raw
	if align > 0 && raw%align != 0 {
		o.slot = raw + align - raw%align
	}

	o.buildSide(&o.in, o.TopoOut, shift, shift)
	o.buildSide(&o.out, o.TopoIn, negShift, [3]int{0, 0, 0})
	return
}

// groupGcd folds the gcd of x over every process of the group
func groupGcd(gr grid.Group, x int) (g int) {
	all := gr.AllgatherInt(x)
	g = all[0]
	for _, v := range all[1:] {
		g = gcd(g, v)
	}
	return
}

// buildSide fills the block grid, the destination ranks (parent numbering)
// and the canonical slot ordinals of one side. other is the topology the
// blocks travel to; shift maps this side's global indices into other's, and
// keyShift maps them into the output topology's frame, where both sides
// order the blocks of one pair identically.
func (o *SwitchTopo) buildSide(s *side, other *grid.Topology, shift, keyShift [3]int) {
	for id := 0; id < 3; id++ {
		ext := s.end[id] - s.start[id]
		s.nBlock[id] = ext / o.nByBlock[id]
		if ext%o.nByBlock[id] != 0 {
			s.nBlock[id]++
		}
		if s.nBlock[id] == 0 {
			s.nBlock[id] = 1 // empty intersection: keep a degenerate grid
		}
	}
	nb := s.nBlock[0] * s.nBlock[1] * s.nBlock[2]
	if s.end[0]-s.start[0] <= 0 || s.end[1]-s.start[1] <= 0 || s.end[2]-s.start[2] <= 0 {
		nb = 0
	}
	s.dest = make([]int, nb)
	s.ord = make([]int, nb)

	// destination rank and canonical key (global block start in the frame
	// of the switch's output topology)
	oax0 := o.TopoOut.Axis
	oax1 := (oax0 + 1) % 3
	oax2 := (oax0 + 2) % 3
	keys := make([][4]int, nb) // {key2, key1, key0, bid}
	for bid := 0; bid < nb; bid++ {
		ib := o.splitBlock(bid, s.nBlock)
		var g, gk [3]int
		var rankd [3]int
		for id := 0; id < 3; id++ {
			base := s.topo.StartGlob(id) + s.start[id] + ib[id]*o.nByBlock[id]
			g[id] = base + shift[id]
			gk[id] = base + keyShift[id]
			rankd[id] = other.RankOfGlobalIndex(id, g[id])
		}
		s.dest[bid] = other.RankFromRankd(rankd)
		keys[bid] = [4]int{gk[oax2], gk[oax1], gk[oax0], bid}
	}

	// slot ordinal: blocks to the same destination are ordered by their
	// global position in the output frame, so both sides agree on the
	// sequence without exchanging tags
	order := make([]int, nb)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ba, bb := order[a], order[b]
		if s.dest[ba] != s.dest[bb] {
			return s.dest[ba] < s.dest[bb]
		}
		ka, kb := keys[ba], keys[bb]
		for i := 0; i < 3; i++ {
			if ka[i] != kb[i] {
				return ka[i] < kb[i]
			}
		}
		return false
	})
	seen := make(map[int]int)
	for _, bid := range order {
		s.ord[bid] = seen[s.dest[bid]]
		seen[s.dest[bid]]++
	}
}

// splitBlock decomposes a flattened block id over the block grid
func (o *SwitchTopo) splitBlock(bid int, nBlock [3]int) (ib [3]int) {
	ib[0] = bid % nBlock[0]
	ib[1] = (bid / nBlock[0]) % nBlock[1]
	ib[2] = bid / (nBlock[0] * nBlock[1])
	return
}

// blockExtent returns the extent of block ib along id on side s: every block
// spans nByBlock except the trailing one, which takes the remainder
func (o *SwitchTopo) blockExtent(s *side, id int, ib [3]int) int {
	ext := s.end[id] - s.start[id]
	e := ext - ib[id]*o.nByBlock[id]
	if e > o.nByBlock[id] {
		e = o.nByBlock[id]
	}
	return e
}

// Setup computes the sub-group of processes this switch exchanges with,
// translates the destination ranks into it and derives the counts and
// displacements. Collective.
func (o *SwitchTopo) Setup() {
	gr := o.TopoIn.Gr
	rank := gr.Rank()
	size := gr.Size()

	// transitive closure of "exchanges data with": everyone lowers its
	// color to the minimum color among its peers until no process sees a
	// peer with a different color
	inMyGroup := make([]bool, size)
	mycolor := rank
	for _, d := range o.in.dest {
		if d < mycolor {
			mycolor = d
		}
		inMyGroup[d] = true
	}
	for _, d := range o.out.dest {
		if d < mycolor {
			mycolor = d
		}
		inMyGroup[d] = true
	}
	nleft := 0
	for r := 0; r < size; r++ {
		if inMyGroup[r] {
			nleft++
		}
	}
	for nleft > 0 {
		colors := gr.AllgatherInt(mycolor)
		notInMyGroup := 0
		for r := 0; r < size; r++ {
			if inMyGroup[r] && colors[r] != mycolor {
				notInMyGroup++
				if colors[r] < mycolor {
					notInMyGroup--
					mycolor = colors[r]
				}
			}
		}
		nleft = gr.AllreduceSumInt(notInMyGroup)
	}
	o.sub = gr.Split(mycolor)

	// destination ranks in sub-group numbering
	newRanks := gr.AllgatherInt(o.sub.Rank())
	for i, d := range o.in.dest {
		o.in.dest[i] = newRanks[d]
	}
	for i, d := range o.out.dest {
		o.out.dest[i] = newRanks[d]
	}

	o.setupCounts(&o.in)
	o.setupCounts(&o.out)

	// symmetric collective possible when every pairwise count is the same;
	// the decision must be unanimous within the sub-group
	local := o.in.count[0] != 0
	for r := 1; r < o.sub.Size(); r++ {
		local = local && o.in.count[r] == o.in.count[0] && o.out.count[r] == o.in.count[0]
	}
	vote := 0
	if local {
		vote = 1
	}
	o.isA2A = o.sub.AllreduceSumInt(vote) == o.sub.Size()
	o.ready = true
}

// setupCounts derives the per-peer element counts and region offsets
func (o *SwitchTopo) setupCounts(s *side) {
	n := o.sub.Size()
	s.count = make([]int, n)
	s.starts = make([]int, n)
	s.nTo = make([]int, n)
	for _, d := range s.dest {
		s.nTo[d]++
	}
	for r := 0; r < n; r++ {
		s.count[r] = o.lda * s.nTo[r] * o.slot
	}
	for r := 1; r < n; r++ {
		s.starts[r] = s.starts[r-1] + s.count[r-1]
	}
}

// BufMemSize returns the number of elements each of the two exchange
// buffers must hold for this switch
func (o *SwitchTopo) BufMemSize() (n int) {
	total := func(s *side) int {
		return o.lda * len(s.dest) * o.slot
	}
	n = total(&o.in)
	if t := total(&o.out); t > n {
		n = t
	}
	return
}

// SetupBuffers binds the send and receive buffers. The buffers may be
// shared with other switches of the same pipeline: only one switch runs at
// a time.
func (o *SwitchTopo) SetupBuffers(send, recv []float64) {
	if len(send) < o.BufMemSize() || len(recv) < o.BufMemSize() {
		chk.Panic("exchange buffers too small: %d/%d < %d", len(send), len(recv), o.BufMemSize())
	}
	o.sendBuf = send
	o.recvBuf = recv
}

// slotOffset returns the element offset of (component, block) in the buffer
// of side s
func (o *SwitchTopo) slotOffset(s *side, lia, bid int) int {
	r := s.dest[bid]
	return s.starts[r] + (lia*s.nTo[r]+s.ord[bid])*o.slot
}

// Execute moves data across: Forward goes TopoIn -> TopoOut, Backward the
// other way. The data buffer v must be large enough for both layouts; the
// padding region of the destination layout is zeroed before the scatter.
func (o *SwitchTopo) Execute(v []float64, sign int) {
	if !o.ready {
		chk.Panic("switchtopo must be set up before execution")
	}
	if o.TopoIn.IsComplex() != o.TopoOut.IsComplex() {
		chk.Panic("both topologies must be complex or both real")
	}
	var from, to *side
	var sendBuf, recvBuf []float64
	switch sign {
	case Forward:
		from, to = &o.in, &o.out
		sendBuf, recvBuf = o.sendBuf, o.recvBuf
	case Backward:
		from, to = &o.out, &o.in
		sendBuf, recvBuf = o.recvBuf, o.sendBuf
	default:
		chk.Panic("sign must be Forward or Backward. %d is invalid", sign)
	}

	o.pack(from, sendBuf, v)

	switch o.Var {
	case VariantAllToAll:
		if o.isA2A {
			o.sub.Alltoall(sendBuf[:o.BufMemSize()], from.count[0], recvBuf[:o.BufMemSize()])
		} else {
			o.sub.AlltoallV(sendBuf, from.count, from.starts, recvBuf, to.count, to.starts)
		}
		o.zeroDest(from, v)
		o.unpack(from, to, recvBuf, v)
	case VariantPerPeer:
		o.executePerPeer(from, to, sendBuf, recvBuf, v)
	}
}

// zeroDest clears the full destination layout before the scatter; the
// padding region is permitted to hold garbage from the previous stage
func (o *SwitchTopo) zeroDest(from *side, v []float64) {
	other := o.TopoOut
	if from == &o.out {
		other = o.TopoIn
	}
	n := other.MemSize()
	for i := 0; i < n; i++ {
		v[i] = 0
	}
}

// pack gathers every (component, block) into its slot with unit-stride
// reads along the sending side's fast axis
func (o *SwitchTopo) pack(from *side, buf []float64, v []float64) {
	topo := from.topo
	ax0 := topo.Axis
	ax1 := (ax0 + 1) % 3
	ax2 := (ax0 + 2) % 3
	nf := topo.Nf
	memdim := topo.MemDim()
	nb := len(from.dest)

	var eg errgroup.Group
	eg.SetLimit(8)
	for lia := 0; lia < o.lda; lia++ {
		for bid := 0; bid < nb; bid++ {
			lia, bid := lia, bid
			eg.Go(func() error {
				ib := o.splitBlock(bid, from.nBlock)
				var loc [3]int
				for id := 0; id < 3; id++ {
					loc[id] = from.start[id] + ib[id]*o.nByBlock[id]
				}
				bs := [3]int{o.blockExtent(from, ax0, ib), o.blockExtent(from, ax1, ib), o.blockExtent(from, ax2, ib)}
				base := lia*memdim + topo.LocalIndex(ax0, loc[ax0], loc[ax1], loc[ax2])
				slot := o.slotOffset(from, lia, bid)
				run := bs[0] * nf
				for id := 0; id < bs[1]*bs[2]; id++ {
					i1 := id % bs[1]
					i2 := id / bs[1]
					src := base + topo.LocalIndex(ax0, 0, i1, i2)
					dst := slot + id*run
					copy(buf[dst:dst+run], v[src:src+run])
				}
				return nil
			})
		}
	}
	eg.Wait()
}

// unpack scatters every received (component, block) into the destination
// layout; reads are unit stride, writes are strided by the destination's
// fast-axis stride
func (o *SwitchTopo) unpack(from, to *side, buf []float64, v []float64) {
	topoDst := to.topo
	topoSrc := from.topo
	ax0 := topoSrc.Axis // loops follow the packing order of the sender
	ax1 := (ax0 + 1) % 3
	ax2 := (ax0 + 2) % 3
	nf := topoDst.Nf
	memdim := topoDst.MemDim()
	nb := len(to.dest)
	stride := topoDst.LocalIndex(ax0, 1, 0, 0)

	var eg errgroup.Group
	eg.SetLimit(8)
	for lia := 0; lia < o.lda; lia++ {
		for bid := 0; bid < nb; bid++ {
			lia, bid := lia, bid
			eg.Go(func() error {
				ib := o.splitBlock(bid, to.nBlock)
				var loc [3]int
				for id := 0; id < 3; id++ {
					loc[id] = to.start[id] + ib[id]*o.nByBlock[id]
				}
				bs := [3]int{o.blockExtent(to, ax0, ib), o.blockExtent(to, ax1, ib), o.blockExtent(to, ax2, ib)}
				base := lia*memdim + topoDst.LocalIndex(ax0, loc[ax0], loc[ax1], loc[ax2])
				slot := o.slotOffset(to, lia, bid)
				run := bs[0] * nf
				for id := 0; id < bs[1]*bs[2]; id++ {
					i1 := id % bs[1]
					i2 := id / bs[1]
					dst := base + topoDst.LocalIndex(ax0, 0, i1, i2)
					src := slot + id*run
					if nf == 1 {
						for i0 := 0; i0 < bs[0]; i0++ {
							v[dst+i0*stride] = buf[src+i0]
						}
					} else {
						for i0 := 0; i0 < bs[0]; i0++ {
							v[dst+i0*stride] = buf[src+i0*2]
							v[dst+i0*stride+1] = buf[src+i0*2+1]
						}
					}
				}
				return nil
			})
		}
	}
	eg.Wait()
}

// executePerPeer sends one self-contained message per peer instead of the
// vector collective
func (o *SwitchTopo) executePerPeer(from, to *side, sendBuf, recvBuf, v []float64) {
	n := o.sub.Size()
	sparts := make([][]float64, n)
	rparts := make([][]float64, n)
	for r := 0; r < n; r++ {
		sparts[r] = sendBuf[from.starts[r] : from.starts[r]+from.count[r]]
		rparts[r] = recvBuf[to.starts[r] : to.starts[r]+to.count[r]]
	}
	o.sub.ExchangeParts(sparts, rparts)
	o.zeroDest(from, v)
	o.unpack(from, to, recvBuf, v)
}

// String describes the switch
func (o *SwitchTopo) String() string {
	return "switchtopo{" + o.TopoIn.String() + " -> " + o.TopoOut.String() + "}"
}
