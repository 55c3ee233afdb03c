// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package green

import (
	"encoding/binary"
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gopoisson/grid"
)

// Kind selects the Green's function family
type Kind int

const (
	// Chat2 is the singular free-space kernel, 2nd order
	Chat2 Kind = iota

	// Hej2, Hej4, Hej6 are the Gaussian-regularized kernels of orders 2/4/6
	Hej2
	Hej4
	Hej6

	// Lgf2 is the pre-tabulated lattice Green's function, 2nd order
	Lgf2
)

// ParseKind converts a mnemonic ("chat2", "hej2", ...) to a Kind
func ParseKind(s string) Kind {
	switch s {
	case "chat2":
		return Chat2
	case "hej2":
		return Hej2
	case "hej4":
		return Hej4
	case "hej6":
		return Hej6
	case "lgf2":
		return Lgf2
	}
	chk.Panic("cannot parse Green kind named %q", s)
	return Chat2
}

// LgfPath points to the tabulated lattice kernel. The file holds N³ little
// endian float64 samples with N=64.
var LgfPath = "kernels/LGF_3d_sym_acc12_64.ker"

const lgfN = 64

// Params carries the per-direction description consumed by the evaluators:
// for a physical (unbounded) direction HFact is the grid spacing and
// SymStart the mirror point on the expanded grid; for a spectral direction
// the wave number is (index + KOffset) * KFact with negative frequencies
// starting past SymStart.
type Params struct {
	Kind     Kind
	Eps      float64 // smoothing length of the regularized kernels
	H        [3]float64
	HFact    [3]float64
	KFact    [3]float64
	KOffset  [3]float64
	SymStart [3]float64
}

// symPos mirrors a global index about symStart and returns its magnitude
func symPos(gid int, symStart float64) float64 {
	g := float64(gid)
	if symStart > 0 && g > symStart {
		g = 2.0*symStart - g
	}
	return math.Abs(g)
}

// symK mirrors a global index into the signed frequency range
func symK(gid int, symStart float64) float64 {
	g := float64(gid)
	if symStart > 0 && g > symStart {
		g -= 2.0 * symStart
	}
	return g
}

// forEach visits every local point of topo and stores the kernel value,
// writing a zero imaginary part when the layout is complex
func forEach(topo *grid.Topology, data []float64, value func(g [3]int) float64) {
	for i2 := 0; i2 < topo.Nloc[2]; i2++ {
		for i1 := 0; i1 < topo.Nloc[1]; i1++ {
			for i0 := 0; i0 < topo.Nloc[0]; i0++ {
				g := [3]int{topo.StartGlob(0) + i0, topo.StartGlob(1) + i1, topo.StartGlob(2) + i2}
				id := topo.LocalIndex(0, i0, i1, i2)
				data[id] = value(g)
				if topo.Nf == 2 {
					data[id+1] = 0
				}
			}
		}
	}
}

// g0unbounded3 is the kernel value at the origin of the 3-D free-space
// kernels: the regularized limit, with eps replaced by the grid spacing for
// the singular kernel
func g0unbounded3(kind Kind, eps, h float64) float64 {
	base := -math.Sqrt2 / (4.0 * math.Sqrt(math.Pi*math.Pi*math.Pi))
	switch kind {
	case Chat2, Lgf2:
		return base / h
	case Hej2:
		return base / eps
	case Hej4:
		return 1.5 * base / eps
	case Hej6:
		return 1.875 * base / eps
	}
	return 0
}

// FillUnbounded3 evaluates the kernel with all non-flat directions physical
func FillUnbounded3(topo *grid.Topology, prm *Params, data []float64) {
	var lgf []float64
	if prm.Kind == Lgf2 {
		lgf = lgfTable()
	}
	c1o4pi := 1.0 / (4.0 * math.Pi)
	forEach(topo, data, func(g [3]int) float64 {
		var x [3]float64
		r2 := 0.0
		for d := 0; d < 3; d++ {
			x[d] = symPos(g[d], prm.SymStart[d]) * prm.HFact[d]
			r2 += x[d] * x[d]
		}
		r := math.Sqrt(r2)
		if prm.Kind == Lgf2 {
			var i [3]int
			inside := true
			for d := 0; d < 3; d++ {
				if prm.HFact[d] > 0 {
					i[d] = int(symPos(g[d], prm.SymStart[d]) + 0.5)
				}
				if i[d] >= lgfN {
					inside = false
				}
			}
			if inside {
				return -lgf[i[0]+lgfN*(i[1]+lgfN*i[2])] / prm.H[0]
			}
			return -c1o4pi / r
		}
		if r < 1e-14 {
			return g0unbounded3(prm.Kind, prm.Eps, prm.H[0])
		}
		switch prm.Kind {
		case Chat2:
			return -c1o4pi / r
		case Hej2:
			rho := r / prm.Eps
			return -c1o4pi / r * math.Erf(rho/math.Sqrt2)
		case Hej4:
			rho := r / prm.Eps
			return -c1o4pi / r * (math.Erf(rho/math.Sqrt2) +
				math.Sqrt(2.0/math.Pi)*(rho/2.0)*math.Exp(-rho*rho/2.0))
		case Hej6:
			rho := r / prm.Eps
			return -c1o4pi / r * (math.Erf(rho/math.Sqrt2) +
				math.Sqrt(2.0/math.Pi)*math.Exp(-rho*rho/2.0)*(7.0*rho/8.0-rho*rho*rho/8.0))
		}
		return 0
	})
}

// FillUnbounded2 evaluates the kernel with two physical directions and one
// spectral direction. For the regularized kernels only the zero-frequency
// plane is kept: the solver overwrites the remaining planes with the full
// spectral expression afterwards.
func FillUnbounded2(topo *grid.Topology, prm *Params, data []float64) {
	c1o2pi := 1.0 / (2.0 * math.Pi)
	forEach(topo, data, func(g [3]int) float64 {
		r2 := 0.0
		k := 0.0
		hmin := 0.0
		for d := 0; d < 3; d++ {
			if prm.KFact[d] > 0 {
				k += math.Abs(symK(g[d], prm.SymStart[d])+prm.KOffset[d]) * prm.KFact[d]
			} else if prm.HFact[d] > 0 {
				x := symPos(g[d], prm.SymStart[d]) * prm.HFact[d]
				r2 += x * x
				hmin = prm.HFact[d]
			}
		}
		r := math.Sqrt(r2)
		if k < 1e-14 {
			// plain 2-D kernel in the transverse plane
			switch prm.Kind {
			case Chat2, Lgf2:
				if r < 1e-14 {
					return c1o2pi * math.Log(0.5*hmin)
				}
				return c1o2pi * math.Log(r)
			default:
				rho := r / prm.Eps
				if r < 1e-14 {
					return 0.25 / math.Pi * (math.Log(2.0*prm.Eps*prm.Eps) - eulerGamma)
				}
				return 0.25/math.Pi*ExpInt(rho*rho/2.0) + c1o2pi*math.Log(r)
			}
		}
		if r < 1e-14 {
			r = 0.5 * hmin
		}
		return -c1o2pi * BesselK0(k*r)
	})
}

// FillUnbounded1 evaluates the kernel with one physical direction and two
// spectral directions
func FillUnbounded1(topo *grid.Topology, prm *Params, data []float64) {
	forEach(topo, data, func(g [3]int) float64 {
		k2 := 0.0
		x := 0.0
		for d := 0; d < 3; d++ {
			if prm.KFact[d] > 0 {
				kd := (symK(g[d], prm.SymStart[d]) + prm.KOffset[d]) * prm.KFact[d]
				k2 += kd * kd
			} else if prm.HFact[d] > 0 {
				x = symPos(g[d], prm.SymStart[d]) * prm.HFact[d]
			}
		}
		k := math.Sqrt(k2)
		sig := prm.Eps
		if k < 1e-14 {
			switch prm.Kind {
			case Chat2, Lgf2:
				return 0.5 * math.Abs(x)
			default:
				s2 := sig * math.Sqrt2
				return 0.5*x*math.Erf(x/s2) + sig/math.Sqrt(2.0*math.Pi)*math.Exp(-x*x/(2.0*sig*sig))
			}
		}
		switch prm.Kind {
		case Chat2, Lgf2:
			return -math.Exp(-k*math.Abs(x)) / (2.0 * k)
		default:
			s2 := sig / math.Sqrt2
			a := math.Exp(k*x) * math.Erfc(k*s2+x/(sig*math.Sqrt2))
			b := math.Exp(-k*x) * math.Erfc(k*s2-x/(sig*math.Sqrt2))
			return -0.25 / k * math.Exp(k2*sig*sig/2.0) * (a + b)
		}
	})
}

// FillSpectral evaluates the kernel with every direction spectral:
// G = -s(k)/k² with the regularization spectrum s of the chosen kind.
// istartCustom restricts the fill to global indices at or past it (used to
// overwrite all planes except the zero-frequency one).
func FillSpectral(topo *grid.Topology, prm *Params, data []float64, istartCustom *[3]int) {
	e2 := prm.Eps * prm.Eps
	for i2 := 0; i2 < topo.Nloc[2]; i2++ {
		for i1 := 0; i1 < topo.Nloc[1]; i1++ {
		points:
			for i0 := 0; i0 < topo.Nloc[0]; i0++ {
				g := [3]int{topo.StartGlob(0) + i0, topo.StartGlob(1) + i1, topo.StartGlob(2) + i2}
				if istartCustom != nil {
					for d := 0; d < 3; d++ {
						if g[d] < istartCustom[d] {
							continue points // keep the previously computed value
						}
					}
				}
				k2 := 0.0
				for d := 0; d < 3; d++ {
					if prm.KFact[d] > 0 {
						kd := (symK(g[d], prm.SymStart[d]) + prm.KOffset[d]) * prm.KFact[d]
						k2 += kd * kd
					}
				}
				val := 0.0
				if k2 >= 1e-14 {
					s := 1.0
					switch prm.Kind {
					case Hej2:
						s = math.Exp(-k2 * e2 / 2.0)
					case Hej4:
						s = (1.0 + k2*e2/2.0) * math.Exp(-k2*e2/2.0)
					case Hej6:
						s = (1.0 + k2*e2/2.0 + k2*k2*e2*e2/8.0) * math.Exp(-k2*e2/2.0)
					}
					val = -s / k2
				}
				id := topo.LocalIndex(0, i0, i1, i2)
				data[id] = val
				if topo.Nf == 2 {
					data[id+1] = 0
				}
			}
		}
	}
}

const eulerGamma = 0.5772156649015329

var lgfData []float64

// lgfTable lazily reads the tabulated lattice kernel
func lgfTable() []float64 {
	if lgfData != nil {
		return lgfData
	}
	b, err := io.ReadFile(LgfPath)
	if err != nil {
		chk.Panic("unable to read the lattice Green function file %q: %v", LgfPath, err)
	}
	n := lgfN * lgfN * lgfN
	if len(b) < 8*n {
		chk.Panic("lattice Green function file %q is too short: %d < %d bytes", LgfPath, len(b), 8*n)
	}
	lgfData = make([]float64, n)
	for i := 0; i < n; i++ {
		lgfData[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return lgfData
}
