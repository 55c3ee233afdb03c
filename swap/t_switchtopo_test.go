// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package swap

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gopoisson/grid"
)

// runRanks executes f concurrently on every rank of a fresh local group
func runRanks(n int, f func(gr grid.Group)) {
	groups := grid.NewLocalGroups(n)
	done := make(chan bool, n)
	for r := 0; r < n; r++ {
		go func(gr grid.Group) {
			f(gr)
			done <- true
		}(groups[r])
	}
	for r := 0; r < n; r++ {
		<-done
	}
}

// fillGlobal writes a value identifying the global coordinates (and the
// component) at every local point
func fillGlobal(topo *grid.Topology, v []float64) {
	for lia := 0; lia < topo.Lda; lia++ {
		for i2 := 0; i2 < topo.Nloc[2]; i2++ {
			for i1 := 0; i1 < topo.Nloc[1]; i1++ {
				for i0 := 0; i0 < topo.Nloc[0]; i0++ {
					g0 := topo.StartGlob(0) + i0
					g1 := topo.StartGlob(1) + i1
					g2 := topo.StartGlob(2) + i2
					id := lia*topo.MemDim() + topo.LocalIndex(0, i0, i1, i2)
					val := float64(g0 + 10*g1 + 100*g2 + 10000*lia)
					v[id] = val
					if topo.Nf == 2 {
						v[id+1] = -val
					}
				}
			}
		}
	}
}

// checkGlobal verifies the identifying values at every local point, with a
// global shift applied to the expectation
func checkGlobal(tst *testing.T, label string, topo *grid.Topology, v []float64, shift, srcN [3]int) {
	for lia := 0; lia < topo.Lda; lia++ {
		for i2 := 0; i2 < topo.Nloc[2]; i2++ {
			for i1 := 0; i1 < topo.Nloc[1]; i1++ {
				for i0 := 0; i0 < topo.Nloc[0]; i0++ {
					g0 := topo.StartGlob(0) + i0 - shift[0]
					g1 := topo.StartGlob(1) + i1 - shift[1]
					g2 := topo.StartGlob(2) + i2 - shift[2]
					id := lia*topo.MemDim() + topo.LocalIndex(0, i0, i1, i2)
					val := float64(g0 + 10*g1 + 100*g2 + 10000*lia)
					if g0 < 0 || g1 < 0 || g2 < 0 || g0 >= srcN[0] || g1 >= srcN[1] || g2 >= srcN[2] {
						continue // outside the embedded region
					}
					if v[id] != val {
						tst.Errorf("%s: value at (%d,%d,%d) lia=%d is %v and not %v", label, g0, g1, g2, lia, v[id], val)
						return
					}
					if topo.Nf == 2 && v[id+1] != -val {
						tst.Errorf("%s: imag at (%d,%d,%d) lia=%d is %v and not %v", label, g0, g1, g2, lia, v[id+1], -val)
						return
					}
				}
			}
		}
	}
}

func testRoundTrip(tst *testing.T, label string, nranks int, isComplex bool, lda int,
	nglobIn, nprocIn, nglobOut, nprocOut, shift [3]int, axisIn, axisOut int, variant Variant) {

	runRanks(nranks, func(gr grid.Group) {
		topoIn := grid.NewTopology(gr, axisIn, lda, nglobIn, nprocIn, isComplex, nil, 16)
		topoOut := grid.NewTopology(gr, axisOut, lda, nglobOut, nprocOut, isComplex, nil, 16)

		st := NewSwitchTopo(topoIn, topoOut, shift, variant)
		st.Setup()
		send := grid.AllocAligned(st.BufMemSize(), 16)
		recv := grid.AllocAligned(st.BufMemSize(), 16)
		st.SetupBuffers(send, recv)

		size := topoIn.MemSize()
		if s := topoOut.MemSize(); s > size {
			size = s
		}
		v := grid.AllocAligned(size, 16)
		fillGlobal(topoIn, v)
		backup := make([]float64, len(v))
		copy(backup, v)

		st.Execute(v, Forward)
		checkGlobal(tst, io.Sf("%s fwd rank%d", label, gr.Rank()), topoOut, v, shift, nglobIn)

		st.Execute(v, Backward)
		checkGlobal(tst, io.Sf("%s bwd rank%d", label, gr.Rank()), topoIn, v, [3]int{0, 0, 0}, nglobIn)

		// the live region must be bitwise identical to the original
		for lia := 0; lia < lda; lia++ {
			for i2 := 0; i2 < topoIn.Nloc[2]; i2++ {
				for i1 := 0; i1 < topoIn.Nloc[1]; i1++ {
					for i0 := 0; i0 < topoIn.Nloc[0]; i0++ {
						id := lia*topoIn.MemDim() + topoIn.LocalIndex(0, i0, i1, i2)
						for k := 0; k < topoIn.Nf; k++ {
							if v[id+k] != backup[id+k] {
								tst.Errorf("%s: round trip is not bitwise identical at %d", label, id+k)
								return
							}
						}
					}
				}
			}
		}
	})
}

func Test_switch01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("switch01. real round trip over 4 ranks, axis 0 to 1")

	testRoundTrip(tst, "real a2a", 4, false, 1,
		[3]int{8, 8, 8}, [3]int{1, 2, 2},
		[3]int{8, 8, 8}, [3]int{2, 1, 2},
		[3]int{0, 0, 0}, 0, 1, VariantAllToAll)

	testRoundTrip(tst, "real perpeer", 4, false, 1,
		[3]int{8, 8, 8}, [3]int{1, 2, 2},
		[3]int{8, 8, 8}, [3]int{2, 1, 2},
		[3]int{0, 0, 0}, 0, 1, VariantPerPeer)
}

func Test_switch02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("switch02. complex data and vector components")

	testRoundTrip(tst, "complex", 4, true, 1,
		[3]int{8, 8, 8}, [3]int{1, 2, 2},
		[3]int{8, 8, 8}, [3]int{2, 2, 1},
		[3]int{0, 0, 0}, 0, 2, VariantAllToAll)

	testRoundTrip(tst, "vector", 2, false, 3,
		[3]int{8, 4, 4}, [3]int{1, 2, 1},
		[3]int{8, 4, 4}, [3]int{2, 1, 1},
		[3]int{0, 0, 0}, 0, 1, VariantAllToAll)
}

func Test_switch03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("switch03. embedding into an expanded topology with a shift")

	// the small domain lands at offset 4 of the doubled direction
	testRoundTrip(tst, "expand", 2, false, 1,
		[3]int{8, 8, 4}, [3]int{1, 2, 1},
		[3]int{16, 8, 4}, [3]int{1, 2, 1},
		[3]int{4, 0, 0}, 0, 0, VariantAllToAll)

	// degenerate single-process switch: a pure local permutation
	testRoundTrip(tst, "serial", 1, false, 1,
		[3]int{8, 8, 8}, [3]int{1, 1, 1},
		[3]int{8, 8, 8}, [3]int{1, 1, 1},
		[3]int{0, 0, 0}, 0, 2, VariantAllToAll)
}

func Test_switch04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("switch04. pairwise count conservation")

	runRanks(4, func(gr grid.Group) {
		topoIn := grid.NewTopology(gr, 0, 1, [3]int{8, 8, 8}, [3]int{1, 2, 2}, false, nil, 16)
		topoOut := grid.NewTopology(gr, 1, 1, [3]int{8, 8, 8}, [3]int{2, 2, 1}, false, nil, 16)
		st := NewSwitchTopo(topoIn, topoOut, [3]int{0, 0, 0}, VariantAllToAll)
		st.Setup()

		// what I send to r must equal what r expects from me
		sentAtPeer := st.sub.AlltoallInts(st.in.count)
		chk.Ints(tst, io.Sf("counts rank%d", gr.Rank()), sentAtPeer, st.out.count)
	})
}

func Test_switch05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("switch05. odd global extent still blocks evenly")

	testRoundTrip(tst, "odd", 2, false, 1,
		[3]int{9, 6, 4}, [3]int{1, 2, 1},
		[3]int{9, 6, 4}, [3]int{2, 1, 1},
		[3]int{0, 0, 0}, 0, 1, VariantAllToAll)
}
