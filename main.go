// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"

	"github.com/cpmech/gopoisson/ana"
	"github.com/cpmech/gopoisson/grid"
	"github.com/cpmech/gopoisson/inp"
	"github.com/cpmech/gopoisson/plan"
	"github.com/cpmech/gopoisson/solver"
)

func main() {

	// catch errors
	defer func() {
		if err := recover(); err != nil {
			if !mpi.IsOn() || mpi.WorldRank() == 0 {
				io.PfRed("\nERROR: %v\n", err)
				chk.Verbose = true
				for i := 5; i > 3; i-- {
					chk.CallerInfo(i)
				}
			}
		}
		if mpi.IsOn() {
			mpi.Stop()
		}
	}()
	if mpi.IsOn() {
		mpi.Start()
	}

	// process group: the world communicator, or a single local rank
	var gr grid.Group
	if mpi.IsOn() {
		gr = grid.NewMpiGroup()
	} else {
		gr = grid.NewLocalGroups(1)[0]
	}
	root := gr.Rank() == 0

	// read input parameters
	fnamepath, _ := io.ArgToFilename(0, "", ".val", true)
	verbose := io.ArgToBool(1, true)

	// message
	if root && verbose {
		io.PfWhite("\nGopoisson -- Fourier-based Poisson solver\n")
		io.Pf("\n%v\n", io.ArgsTable("INPUT ARGUMENTS",
			"filename path", "fnamepath", fnamepath,
			"show messages", "verbose", verbose,
		))
	}

	// validation case
	vc := inp.ReadValCase(fnamepath)
	if gr.Size() != vc.Nproc[0]*vc.Nproc[1]*vc.Nproc[2] {
		chk.Panic("the number of processes (=%d) must match the process grid %v", gr.Size(), vc.Nproc)
	}
	var h [3]float64
	for d := 0; d < 3; d++ {
		h[d] = vc.L[d] / float64(vc.Nglob[d])
	}

	// physical topology and solver
	topo := grid.NewTopology(gr, 0, 1, vc.Nglob, vc.Nproc, false, nil, grid.DefaultAlignment())
	sol := solver.NewSolver(topo, vc.BcTypes(1), h, vc.L, vc.DerivOrder)
	sol.GreenKind = vc.GreenKind()
	sol.AlphaGreen = vc.Alpha
	sol.ShowMsg = root && verbose
	sol.Setup(nil, false)

	// source term and reference solution
	rhs := grid.AllocAligned(topo.MemSize(), topo.Alignment)
	ref := grid.AllocAligned(topo.MemSize(), topo.Alignment)
	field := grid.AllocAligned(topo.MemSize(), topo.Alignment)
	blob := &ana.GaussianBlob{Sigma: vc.Sigma, Center: vc.Center, L: vc.L}
	for d := 0; d < 3; d++ {
		for s := 0; s < 2; s++ {
			blob.Bc[d][s] = plan.ParseBc(vc.Bc[d][s])
		}
	}
	blob.Fill(topo, h, rhs, ref)

	// solve and report the error norms
	if root && verbose {
		io.Pf("> solving\n")
	}
	err := sol.Solve(field, rhs, solver.Std)
	if err != nil {
		chk.Panic("solve failed:\n%v", err)
	}
	l2, linf := ana.Norms(topo, h, field, ref)
	if root {
		io.Pf("%d %23.15e %23.15e\n", vc.Nglob[0], l2, linf)
		if verbose {
			io.PfGreen("> done\n")
		}
	}
}
