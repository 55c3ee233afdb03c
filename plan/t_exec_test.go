// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package plan

import (
	"math/rand"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gopoisson/grid"
)

func Test_exec01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("exec01. batched symmetric transform round trip")

	gr := grid.NewLocalGroups(1)[0]
	h := [3]float64{0.1, 0.1, 0.1}
	L := [3]float64{1.6, 0.4, 0.4}
	n := 16

	topo := grid.NewTopology(gr, 0, 1, [3]int{n, 4, 4}, [3]int{1, 1, 1}, false, nil, 16)
	data := grid.AllocAligned(topo.MemSize(), 16)
	orig := make([]float64, len(data))
	rnd := rand.New(rand.NewSource(42))
	for i2 := 0; i2 < 4; i2++ {
		for i1 := 0; i1 < 4; i1++ {
			for i0 := 0; i0 < n; i0++ {
				data[topo.LocalIndex(0, i0, i1, i2)] = rnd.Float64()
			}
		}
	}
	copy(orig, data)

	size := [3]int{n, 4, 4}
	fwd := NewPlan(1, 0, h, L, bc1(BcEven, BcEven), Forward, false)
	bwd := NewPlan(1, 0, h, L, bc1(BcEven, BcEven), Backward, false)
	fwd.Init(size, false)
	bwd.Init(size, false)
	fwd.Allocate(topo)
	bwd.Allocate(topo)

	fwd.Execute(topo, data)
	bwd.Execute(topo, data)

	scale := 1.0 / float64(2*n)
	for i2 := 0; i2 < 4; i2++ {
		for i1 := 0; i1 < 4; i1++ {
			for i0 := 0; i0 < n; i0++ {
				id := topo.LocalIndex(0, i0, i1, i2)
				chk.AnaNum(tst, io.Sf("x[%d,%d,%d]", i0, i1, i2), 1e-11, data[id]*scale, orig[id], false)
			}
		}
	}
}

func Test_exec02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("exec02. real-to-complex round trip on the padded layout")

	gr := grid.NewLocalGroups(1)[0]
	h := [3]float64{0.1, 0.1, 0.1}
	L := [3]float64{1.6, 0.4, 0.4}
	n := 16

	// the pipeline builds the topology complex with the spectrum extent and
	// temporarily views it as real around the transform
	topo := grid.NewTopology(gr, 0, 1, [3]int{n/2 + 1, 4, 4}, [3]int{1, 1, 1}, true, nil, 16)
	topo.SwitchToReal() // real view: 18 reals per pencil
	data := grid.AllocAligned(topo.MemSize(), 16)

	size := [3]int{n, 4, 4}
	fwd := NewPlan(1, 0, h, L, bc1(BcPeriodic, BcPeriodic), Forward, false)
	bwd := NewPlan(1, 0, h, L, bc1(BcPeriodic, BcPeriodic), Backward, false)
	fwd.Init(size, false)
	bwd.Init(size, false)
	fwd.Allocate(topo)
	bwd.Allocate(topo)

	rnd := rand.New(rand.NewSource(43))
	orig := make([]float64, len(data))
	for i2 := 0; i2 < 4; i2++ {
		for i1 := 0; i1 < 4; i1++ {
			for i0 := 0; i0 < n; i0++ {
				data[topo.LocalIndex(0, i0, i1, i2)] = rnd.Float64()
			}
		}
	}
	copy(orig, data)

	fwd.Execute(topo, data)
	bwd.Execute(topo, data)

	scale := 1.0 / float64(n)
	for i2 := 0; i2 < 4; i2++ {
		for i1 := 0; i1 < 4; i1++ {
			for i0 := 0; i0 < n; i0++ {
				id := topo.LocalIndex(0, i0, i1, i2)
				chk.AnaNum(tst, io.Sf("x[%d,%d,%d]", i0, i1, i2), 1e-11, data[id]*scale, orig[id], false)
			}
		}
	}
}
