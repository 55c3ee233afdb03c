// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gopoisson/grid"
	"github.com/cpmech/gopoisson/plan"
)

func init() {
	io.Verbose = false
}

func verbose() {
	io.Verbose = true
	chk.Verbose = true
}

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

// simpleBc replicates one boundary pair per dimension over lda components
func simpleBc(lda int, bc [3][2]plan.BcType) (out [3][2][]plan.BcType) {
	for d := 0; d < 3; d++ {
		for s := 0; s < 2; s++ {
			out[d][s] = make([]plan.BcType, lda)
			for c := 0; c < lda; c++ {
				out[d][s][c] = bc[d][s]
			}
		}
	}
	return
}

// fillEach evaluates f at the cell centers of every local point and
// component of topo
func fillEach(topo *grid.Topology, h [3]float64, v []float64, f func(c int, x, y, z float64) float64) {
	for c := 0; c < topo.Lda; c++ {
		for i2 := 0; i2 < topo.Nloc[2]; i2++ {
			for i1 := 0; i1 < topo.Nloc[1]; i1++ {
				for i0 := 0; i0 < topo.Nloc[0]; i0++ {
					x := (float64(topo.StartGlob(0)+i0) + 0.5) * h[0]
					y := (float64(topo.StartGlob(1)+i1) + 0.5) * h[1]
					z := (float64(topo.StartGlob(2)+i2) + 0.5) * h[2]
					v[c*topo.MemDim()+topo.LocalIndex(0, i0, i1, i2)] = f(c, x, y, z)
				}
			}
		}
	}
}

// maxDiff returns the largest pointwise difference over the live region
func maxDiff(topo *grid.Topology, a, b []float64) (max float64) {
	for c := 0; c < topo.Lda; c++ {
		for i2 := 0; i2 < topo.Nloc[2]; i2++ {
			for i1 := 0; i1 < topo.Nloc[1]; i1++ {
				for i0 := 0; i0 < topo.Nloc[0]; i0++ {
					id := c*topo.MemDim() + topo.LocalIndex(0, i0, i1, i2)
					d := a[id] - b[id]
					if d < 0 {
						d = -d
					}
					if d > max {
						max = d
					}
				}
			}
		}
	}
	return
}
