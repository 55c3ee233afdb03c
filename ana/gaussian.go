// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ana implements analytical fields and solutions used to validate
// the Poisson solver
package ana

import (
	"math"

	"github.com/cpmech/gopoisson/grid"
	"github.com/cpmech/gopoisson/plan"
)

// GaussianBlob is a normalized Gaussian source and its free-space potential.
// The reference potential accounts for the mirror images induced by
// symmetric and periodic faces: one layer of images is summed, so the
// reference is only accurate when the blob is narrow with respect to the
// domain.
type GaussianBlob struct {
	Sigma  float64       // width of the blob
	Center [3]float64    // center in units of the domain length
	L      [3]float64    // domain size
	Bc     [3][2]plan.BcType // boundary conditions per dimension and face
}

// Fill evaluates the source into rhs and the reference potential into sol
// at the cell centers of the local portion of topo
func (o *GaussianBlob) Fill(topo *grid.Topology, h [3]float64, rhs, sol []float64) {
	oosigma := 1.0 / o.Sigma
	oosigma2 := oosigma * oosigma
	oosigma3 := oosigma2 * oosigma
	c1o4pi := 1.0 / (4.0 * math.Pi)

	var istart [3]int
	for d := 0; d < 3; d++ {
		istart[d] = topo.StartGlob(d)
	}

	// loop over one layer of image blobs, skipping unbounded faces
	for j2 := -1; j2 < 2; j2++ {
		if j2 != 0 && o.Bc[2][(j2+1)/2] == plan.BcUnbounded {
			continue
		}
		for j1 := -1; j1 < 2; j1++ {
			if j1 != 0 && o.Bc[1][(j1+1)/2] == plan.BcUnbounded {
				continue
			}
			for j0 := -1; j0 < 2; j0++ {
				if j0 != 0 && o.Bc[0][(j0+1)/2] == plan.BcUnbounded {
					continue
				}

				j := [3]int{j0, j1, j2}
				sign := 1.0
				var centerPos [3]float64
				for d := 0; d < 3; d++ {
					if j[d] != 0 {
						face := o.Bc[d][(j[d]+1)/2]
						if face == plan.BcOdd {
							sign = -sign
						}
						orig := float64(j[d]) * o.L[d]
						if face != plan.BcPeriodic {
							centerPos[d] = orig + (1.0-o.Center[d])*o.L[d]
						} else {
							centerPos[d] = orig + o.Center[d]*o.L[d]
						}
					} else {
						centerPos[d] = o.Center[d] * o.L[d]
					}
				}

				for i2 := 0; i2 < topo.Nloc[2]; i2++ {
					for i1 := 0; i1 < topo.Nloc[1]; i1++ {
						for i0 := 0; i0 < topo.Nloc[0]; i0++ {
							x := (float64(istart[0]+i0)+0.5)*h[0] - centerPos[0]
							y := (float64(istart[1]+i1)+0.5)*h[1] - centerPos[1]
							z := (float64(istart[2]+i2)+0.5)*h[2] - centerPos[2]
							rho2 := (x*x + y*y + z*z) * oosigma2
							rho := math.Sqrt(rho2)
							id := topo.LocalIndex(0, i0, i1, i2)

							rhs[id] -= sign * c1o4pi * oosigma3 * math.Sqrt(2.0/math.Pi) * math.Exp(-rho2*0.5)
							if rho < 1e-12 {
								sol[id] += sign * c1o4pi * oosigma * math.Sqrt(2.0/math.Pi)
							} else {
								sol[id] += sign * c1o4pi * oosigma / rho * math.Erf(rho/math.Sqrt2)
							}
						}
					}
				}
			}
		}
	}
}

// Norms returns the global L2 and Linf norms of the difference between a
// and b over the live region of topo
func Norms(topo *grid.Topology, h [3]float64, a, b []float64) (l2, linf float64) {
	var lerr2, lerri float64
	for i2 := 0; i2 < topo.Nloc[2]; i2++ {
		for i1 := 0; i1 < topo.Nloc[1]; i1++ {
			for i0 := 0; i0 < topo.Nloc[0]; i0++ {
				id := topo.LocalIndex(0, i0, i1, i2)
				err := a[id] - b[id]
				if e := math.Abs(err); e > lerri {
					lerri = e
				}
				lerr2 += err * err * h[0] * h[1] * h[2]
			}
		}
	}
	l2 = math.Sqrt(topo.Gr.AllreduceSum(lerr2))
	linf = topo.Gr.AllreduceMax(lerri)
	return
}
