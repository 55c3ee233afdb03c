// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package green evaluates the closed-form and tabulated Green's function
// kernels in the mixed physical/spectral domain
package green

import "math"

// References:
//   - Abramowitz and Stegun, "Handbook of Mathematical Functions", 1964; §9.4
//   - Press et al., "Numerical Recipes", 3rd edition, 2007; §6.5.1

func poly(coef []float64, x float64) (ans float64) {
	ans = coef[len(coef)-1]
	for i := len(coef) - 2; i >= 0; i-- {
		ans = ans*x + coef[i]
	}
	return
}

var (
	cK0pi = []float64{1.0, 2.346487949187396e-1, 1.187082088663404e-2, 2.150707366040937e-4, 1.425433617130587e-6}
	cK0qi = []float64{9.847324170755358e-1, 1.518396076767770e-2, 8.362215678646257e-5}
	cK0p  = []float64{1.159315156584126e-1, 2.770731240515333e-1, 2.066458134619875e-2, 4.574734709978264e-4, 3.454715527986737e-6}
	cK0q  = []float64{9.836249671709183e-1, 1.627693622304549e-2, 9.809660603621949e-5}
	cK0pp = []float64{1.253314137315499, 1.475731032429900e1, 6.123767403223466e1, 1.121012633939949e2, 9.285288485892228e1, 3.198289277679660e1, 3.595376024148513, 6.160228690102976e-2}
	cK0qq = []float64{1.0, 1.189963006673403e1, 5.027773590829784e1, 9.496513373427093e1, 8.318077493230258e1, 3.181399777449301e1, 4.443672926432041, 1.408295601966600e-1}
)

// BesselK0 returns the modified Bessel function of the second kind, order 0
func BesselK0(x float64) float64 {
	if x <= 1.0 {
		z := x * x
		term := poly(cK0pi, z) * math.Log(x) / poly(cK0qi, 1.0-z)
		return poly(cK0p, z)/poly(cK0q, 1.0-z) - term
	}
	z := 1.0 / x
	return math.Exp(-x) * poly(cK0pp, z) / (poly(cK0qq, z) * math.Sqrt(x))
}

var (
	cK1pi = []float64{0.5, 5.598072040178741e-2, 1.818666382168295e-3, 2.397509908859959e-5, 1.239567816344855e-7}
	cK1qi = []float64{9.870202601341150e-1, 1.292092053534579e-2, 5.881933053917096e-5}
	cK1p  = []float64{-3.079657578292062e-1, -8.109417631822442e-2, -3.477550948593604e-3, -5.385594871975406e-5, -3.110372465429008e-7}
	cK1q  = []float64{9.861813171751389e-1, 1.375094061153160e-2, 6.774221332947002e-5}
	cK1pp = []float64{1.253314137315502, 1.457171340220454e1, 6.063161173098803e1, 1.147386690867892e2, 1.040442011439181e2, 4.356596656837691e1, 7.265230396353690, 3.144418558991021e-1}
	cK1qq = []float64{1.0, 1.125154514806458e1, 4.427488496597630e1, 7.616113213117645e1, 5.863377227890893e1, 1.850303673841586e1, 1.857244676566022, 2.538540887654872e-2}
)

// BesselK1 returns the modified Bessel function of the second kind, order 1
func BesselK1(x float64) float64 {
	if x <= 1.0 {
		z := x * x
		term := poly(cK1pi, z) * math.Log(x) / poly(cK1qi, 1.0-z)
		return x*(poly(cK1p, z)/poly(cK1q, 1.0-z)+term) + 1.0/x
	}
	z := 1.0 / x
	return math.Exp(-x) * poly(cK1pp, z) / (poly(cK1qq, z) * math.Sqrt(x))
}

var expintA1 = []float64{
	7.8737715392882774, -8.0314874286705335, 3.8797325768522250, -1.6042971072992259,
	0.5630905453891458, -0.1704423017433357, 0.0452099390015415, -0.0106538986439085,
	0.0022562638123478, -0.0004335700473221, 0.0000762166811878, -0.0000123417443064,
	0.0000018519745698, -0.0000002588698662, 0.0000000338604319, -0.0000000041611418,
	0.0000000004821606, -0.0000000000528465, 0.0000000000054945, -0.0000000000005433,
	0.0000000000000512, -0.0000000000000046, 0.0000000000000004,
}

var expintA2 = []float64{
	0.2155283776715125, 0.1028106215227030, -0.0045526707131788, 0.0003571613122851,
	-0.0000379341616932, 0.0000049143944914, -0.0000007355024922, 0.0000001230603606,
	-0.0000000225236907, 0.0000000044412375, -0.0000000009328509, 0.0000000002069297,
	-0.0000000000481502, 0.0000000000116891, -0.0000000000029474, 0.0000000000007691,
	-0.0000000000002070, 0.0000000000000573, -0.0000000000000163, 0.0000000000000047,
	-0.0000000000000014, 0.0000000000000004, -0.0000000000000001,
}

func chebSum(a []float64, t float64) float64 {
	b0, b1, b2 := a[len(a)-1], 0.0, 0.0
	for k := len(a) - 2; k >= 0; k-- {
		b2 = b1
		b1 = b0
		b0 = t*b1 - b2 + a[k]
	}
	return 0.5 * (b0 - b2)
}

// ExpInt returns the exponential integral E1(x) for x > 0, computed with
// Chebyshev expansions on the two ranges
func ExpInt(x float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x <= 4:
		return -(chebSum(expintA1, 0.5*x) + math.Log(math.Abs(x)))
	default:
		return chebSum(expintA2, 2.0*(8.0/x-1.0)) * math.Exp(-x)
	}
}
