// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solver

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gopoisson/ana"
	"github.com/cpmech/gopoisson/green"
	"github.com/cpmech/gopoisson/grid"
	"github.com/cpmech/gopoisson/plan"
)

func Test_sol01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sol01. symmetric cube: cos modes are eigenfunctions")

	gr := grid.NewLocalGroups(1)[0]
	n := 16
	L := [3]float64{1, 1, 1}
	h := [3]float64{1.0 / float64(n), 1.0 / float64(n), 1.0 / float64(n)}
	topo := grid.NewTopology(gr, 0, 1, [3]int{n, n, n}, [3]int{1, 1, 1}, false, nil, 16)

	bc := simpleBc(1, [3][2]plan.BcType{
		{plan.BcEven, plan.BcEven},
		{plan.BcEven, plan.BcEven},
		{plan.BcEven, plan.BcEven},
	})
	s := NewSolver(topo, bc, h, L, 0)
	s.Setup(nil, false)

	rhs := make([]float64, topo.MemSize())
	ref := make([]float64, topo.MemSize())
	field := make([]float64, topo.MemSize())
	fillEach(topo, h, rhs, func(c int, x, y, z float64) float64 {
		return math.Cos(math.Pi*x) * math.Cos(math.Pi*y) * math.Cos(math.Pi*z)
	})
	fillEach(topo, h, ref, func(c int, x, y, z float64) float64 {
		return -math.Cos(math.Pi*x) * math.Cos(math.Pi*y) * math.Cos(math.Pi*z) / (3 * math.Pi * math.Pi)
	})

	err := s.Solve(field, rhs, Std)
	if err != nil {
		tst.Errorf("solve failed:\n%v", err)
		return
	}
	d := maxDiff(topo, field, ref)
	io.Pforan("symmetric cube: max error = %v\n", d)
	if d > 1e-12 {
		tst.Errorf("symmetric cube error is too large: %v", d)
	}
}

func Test_sol02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sol02. periodic cube: single Fourier mode and zero mode")

	gr := grid.NewLocalGroups(1)[0]
	n := 16
	L := [3]float64{1, 1, 1}
	h := [3]float64{1.0 / float64(n), 1.0 / float64(n), 1.0 / float64(n)}
	topo := grid.NewTopology(gr, 0, 1, [3]int{n, n, n}, [3]int{1, 1, 1}, false, nil, 16)

	bc := simpleBc(1, [3][2]plan.BcType{
		{plan.BcPeriodic, plan.BcPeriodic},
		{plan.BcPeriodic, plan.BcPeriodic},
		{plan.BcPeriodic, plan.BcPeriodic},
	})
	s := NewSolver(topo, bc, h, L, 0)
	s.Setup(nil, false)

	rhs := make([]float64, topo.MemSize())
	ref := make([]float64, topo.MemSize())
	field := make([]float64, topo.MemSize())
	k2 := 4*math.Pi*math.Pi + 16*math.Pi*math.Pi + 4*math.Pi*math.Pi
	fillEach(topo, h, rhs, func(c int, x, y, z float64) float64 {
		return math.Cos(2*math.Pi*x) * math.Cos(4*math.Pi*y) * math.Sin(2*math.Pi*z)
	})
	fillEach(topo, h, ref, func(c int, x, y, z float64) float64 {
		return -math.Cos(2*math.Pi*x) * math.Cos(4*math.Pi*y) * math.Sin(2*math.Pi*z) / k2
	})

	err := s.Solve(field, rhs, Std)
	if err != nil {
		tst.Errorf("solve failed:\n%v", err)
		return
	}
	d := maxDiff(topo, field, ref)
	io.Pforan("periodic mode: max error = %v\n", d)
	if d > 1e-12 {
		tst.Errorf("periodic mode error is too large: %v", d)
	}

	// a constant source has no resolvable potential: the zero mode is killed
	fillEach(topo, h, rhs, func(c int, x, y, z float64) float64 { return 1.0 })
	err = s.Solve(field, rhs, Std)
	if err != nil {
		tst.Errorf("solve failed:\n%v", err)
		return
	}
	fillEach(topo, h, ref, func(c int, x, y, z float64) float64 { return 0.0 })
	d = maxDiff(topo, field, ref)
	if d > 1e-12 {
		tst.Errorf("zero mode is not killed: %v", d)
	}
}

func Test_sol03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sol03. periodic cube over 4 ranks")

	n := 16
	L := [3]float64{1, 1, 1}
	h := [3]float64{1.0 / float64(n), 1.0 / float64(n), 1.0 / float64(n)}
	k2 := 3 * 4 * math.Pi * math.Pi

	runRanks(4, func(gr grid.Group) {
		topo := grid.NewTopology(gr, 0, 1, [3]int{n, n, n}, [3]int{1, 2, 2}, false, nil, 16)
		bc := simpleBc(1, [3][2]plan.BcType{
			{plan.BcPeriodic, plan.BcPeriodic},
			{plan.BcPeriodic, plan.BcPeriodic},
			{plan.BcPeriodic, plan.BcPeriodic},
		})
		s := NewSolver(topo, bc, h, L, 0)
		s.Setup(nil, false)

		rhs := make([]float64, topo.MemSize())
		ref := make([]float64, topo.MemSize())
		field := make([]float64, topo.MemSize())
		fillEach(topo, h, rhs, func(c int, x, y, z float64) float64 {
			return math.Sin(2*math.Pi*x) * math.Cos(2*math.Pi*y) * math.Cos(2*math.Pi*z)
		})
		fillEach(topo, h, ref, func(c int, x, y, z float64) float64 {
			return -math.Sin(2*math.Pi*x) * math.Cos(2*math.Pi*y) * math.Cos(2*math.Pi*z) / k2
		})

		err := s.Solve(field, rhs, Std)
		if err != nil {
			tst.Errorf("solve failed:\n%v", err)
			return
		}
		d := maxDiff(topo, field, ref)
		if d > 1e-12 {
			tst.Errorf("rank %d: periodic mode error is too large: %v", gr.Rank(), d)
		}
	})
}

func Test_sol04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sol04. rotational mode with spectral derivatives")

	gr := grid.NewLocalGroups(1)[0]
	n := 16
	L := [3]float64{2 * math.Pi, 2 * math.Pi, 2 * math.Pi}
	h := [3]float64{L[0] / float64(n), L[1] / float64(n), L[2] / float64(n)}
	topo := grid.NewTopology(gr, 0, 3, [3]int{n, n, n}, [3]int{1, 1, 1}, false, nil, 16)

	bc := simpleBc(3, [3][2]plan.BcType{
		{plan.BcPeriodic, plan.BcPeriodic},
		{plan.BcPeriodic, plan.BcPeriodic},
		{plan.BcPeriodic, plan.BcPeriodic},
	})
	s := NewSolver(topo, bc, h, L, 1)
	s.Setup(nil, false)

	rhs := make([]float64, topo.MemSize())
	ref := make([]float64, topo.MemSize())
	field := make([]float64, topo.MemSize())
	fillEach(topo, h, rhs, func(c int, x, y, z float64) float64 {
		switch c {
		case 0:
			return math.Sin(y)
		case 1:
			return math.Sin(z)
		}
		return math.Sin(x)
	})
	fillEach(topo, h, ref, func(c int, x, y, z float64) float64 {
		switch c {
		case 0:
			return math.Cos(z)
		case 1:
			return math.Cos(x)
		}
		return math.Cos(y)
	})

	err := s.Solve(field, rhs, Rot)
	if err != nil {
		tst.Errorf("solve failed:\n%v", err)
		return
	}
	d := maxDiff(topo, field, ref)
	io.Pforan("curl: max error = %v\n", d)
	if d > 1e-12 {
		tst.Errorf("curl error is too large: %v", d)
	}
}

// roundTrip pushes rhs through the forward and backward pipelines without
// the convolution and reports the largest deviation from the input
func roundTrip(s *Solver, topo *grid.Topology, rhs []float64) float64 {
	for i := range s.data {
		s.data[i] = 0
	}
	s.doCopy(topo, rhs, 1)
	s.doFFT(fftForward)
	s.doFFT(fftBackward)

	// undo the unnormalized transform pair
	max := 0.0
	for i2 := 0; i2 < topo.Nloc[2]; i2++ {
		for i1 := 0; i1 < topo.Nloc[1]; i1++ {
			for i0 := 0; i0 < topo.Nloc[0]; i0++ {
				id := topo.LocalIndex(0, i0, i1, i2)
				d := math.Abs(s.data[id]*s.normFact - rhs[id])
				if d > max {
					max = d
				}
			}
		}
	}
	return max
}

func Test_sol05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sol05. mixed unbounded/periodic round trips")

	gr := grid.NewLocalGroups(1)[0]

	// two unbounded directions, one periodic
	{
		nglob := [3]int{32, 32, 16}
		L := [3]float64{1, 1, 0.5}
		var h [3]float64
		for d := 0; d < 3; d++ {
			h[d] = L[d] / float64(nglob[d])
		}
		topo := grid.NewTopology(gr, 0, 1, nglob, [3]int{1, 1, 1}, false, nil, 16)
		bc := simpleBc(1, [3][2]plan.BcType{
			{plan.BcUnbounded, plan.BcUnbounded},
			{plan.BcUnbounded, plan.BcUnbounded},
			{plan.BcPeriodic, plan.BcPeriodic},
		})
		s := NewSolver(topo, bc, h, L, 0)
		s.Setup(nil, false)

		rhs := make([]float64, topo.MemSize())
		fillEach(topo, h, rhs, func(c int, x, y, z float64) float64 {
			return math.Sin(12.0*x*y) + z
		})
		d := roundTrip(s, topo, rhs)
		io.Pforan("unbounded/periodic round trip: max error = %v\n", d)
		if d > 1e-13 {
			tst.Errorf("round trip error is too large: %v", d)
		}
	}

	// one mixed unbounded/symmetric direction
	{
		nglob := [3]int{16, 16, 16}
		L := [3]float64{1, 1, 1}
		var h [3]float64
		for d := 0; d < 3; d++ {
			h[d] = L[d] / float64(nglob[d])
		}
		topo := grid.NewTopology(gr, 0, 1, nglob, [3]int{1, 1, 1}, false, nil, 16)
		bc := simpleBc(1, [3][2]plan.BcType{
			{plan.BcUnbounded, plan.BcEven},
			{plan.BcEven, plan.BcEven},
			{plan.BcPeriodic, plan.BcPeriodic},
		})
		s := NewSolver(topo, bc, h, L, 0)
		s.Setup(nil, false)

		rhs := make([]float64, topo.MemSize())
		fillEach(topo, h, rhs, func(c int, x, y, z float64) float64 {
			return math.Cos(7.0*x) + y*z
		})
		d := roundTrip(s, topo, rhs)
		io.Pforan("mixed/symmetric round trip: max error = %v\n", d)
		if d > 1e-13 {
			tst.Errorf("round trip error is too large: %v", d)
		}
	}
}

func Test_sol06(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sol06. single-process degenerate pipeline")

	gr := grid.NewLocalGroups(1)[0]
	n := 8
	L := [3]float64{1, 1, 1}
	h := [3]float64{1.0 / float64(n), 1.0 / float64(n), 1.0 / float64(n)}
	topo := grid.NewTopology(gr, 0, 1, [3]int{n, n, n}, [3]int{1, 1, 1}, false, nil, 16)

	bc := simpleBc(1, [3][2]plan.BcType{
		{plan.BcPeriodic, plan.BcPeriodic},
		{plan.BcPeriodic, plan.BcPeriodic},
		{plan.BcPeriodic, plan.BcPeriodic},
	})
	s := NewSolver(topo, bc, h, L, 0)
	s.Setup(nil, false)

	rhs := make([]float64, topo.MemSize())
	fillEach(topo, h, rhs, func(c int, x, y, z float64) float64 {
		return x*x - y + 3.0*z*x
	})
	d := roundTrip(s, topo, rhs)
	io.Pforan("degenerate round trip: max error = %v\n", d)
	if d > 1e-13 {
		tst.Errorf("round trip error is too large: %v", d)
	}
}

func Test_sol07(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sol07. fully unbounded Gaussian with the regularized kernel")

	gr := grid.NewLocalGroups(1)[0]
	n := 64
	L := [3]float64{1, 1, 1}
	h := [3]float64{1.0 / float64(n), 1.0 / float64(n), 1.0 / float64(n)}
	topo := grid.NewTopology(gr, 0, 1, [3]int{n, n, n}, [3]int{1, 1, 1}, false, nil, 16)

	bcPair := [3][2]plan.BcType{
		{plan.BcUnbounded, plan.BcUnbounded},
		{plan.BcUnbounded, plan.BcUnbounded},
		{plan.BcUnbounded, plan.BcUnbounded},
	}
	s := NewSolver(topo, simpleBc(1, bcPair), h, L, 0)
	s.GreenKind = green.Hej2
	s.Setup(nil, false)

	rhs := make([]float64, topo.MemSize())
	ref := make([]float64, topo.MemSize())
	field := make([]float64, topo.MemSize())
	blob := &ana.GaussianBlob{Sigma: 0.1, Center: [3]float64{0.5, 0.5, 0.5}, L: L}
	for d := 0; d < 3; d++ {
		blob.Bc[d] = bcPair[d]
	}
	blob.Fill(topo, h, rhs, ref)

	err := s.Solve(field, rhs, Std)
	if err != nil {
		tst.Errorf("solve failed:\n%v", err)
		return
	}
	_, linf := ana.Norms(topo, h, field, ref)
	io.Pforan("unbounded gaussian: linf = %v\n", linf)
	if linf > 5e-4 {
		tst.Errorf("unbounded gaussian error is too large: %v", linf)
	}
}

func Test_sol08(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sol08. plan priorities are non-decreasing across stages")

	gr := grid.NewLocalGroups(1)[0]
	n := 8
	L := [3]float64{1, 1, 1}
	h := [3]float64{1.0 / float64(n), 1.0 / float64(n), 1.0 / float64(n)}

	cases := [][3][2]plan.BcType{
		{{plan.BcEven, plan.BcEven}, {plan.BcPeriodic, plan.BcPeriodic}, {plan.BcUnbounded, plan.BcUnbounded}},
		{{plan.BcPeriodic, plan.BcPeriodic}, {plan.BcOdd, plan.BcOdd}, {plan.BcPeriodic, plan.BcPeriodic}},
		{{plan.BcOdd, plan.BcEven}, {plan.BcUnbounded, plan.BcEven}, {plan.BcUnbounded, plan.BcUnbounded}},
	}
	for i, bcp := range cases {
		topo := grid.NewTopology(gr, 0, 1, [3]int{n, n, n}, [3]int{1, 1, 1}, false, nil, 16)
		s := NewSolver(topo, simpleBc(1, bcp), h, L, 0)
		for _, plans := range [][3]*plan.Plan{s.planFwd, s.planBwd, s.planGreen} {
			for ip := 1; ip < 3; ip++ {
				if plans[ip-1].TypePriority() > plans[ip].TypePriority() {
					tst.Errorf("case %d: plan priorities are not sorted", i)
					return
				}
			}
		}
	}
}
