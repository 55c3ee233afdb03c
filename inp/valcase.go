// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp reads validation-case input files
package inp

import (
	"encoding/json"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gopoisson/green"
	"github.com/cpmech/gopoisson/plan"
)

// ValCase holds the description of one validation run (.val file, JSON)
type ValCase struct {
	Nglob      [3]int       // global grid size
	Nproc      [3]int       // process grid
	L          [3]float64   // domain size
	Bc         [3][2]string // boundary mnemonics: "even","odd","per","unb","none"
	Kernel     string       // "chat2","hej2","hej4","hej6","lgf2"
	Sigma      float64      // width of the Gaussian source
	Center     [3]float64   // center of the source in units of L
	Alpha      float64      // kernel smoothing = Alpha * h
	DerivOrder int          // derivative order given to the solver: 0, 1 or 2 (the driver solves for the potential)
}

// ReadValCase reads a validation case from a JSON file
func ReadValCase(fnamepath string) (o *ValCase) {
	b, err := io.ReadFile(fnamepath)
	if err != nil {
		chk.Panic("cannot read validation case file %q", fnamepath)
	}
	o = new(ValCase)
	o.Sigma = 0.1
	o.Center = [3]float64{0.5, 0.5, 0.5}
	o.Alpha = 2.0
	err = json.Unmarshal(b, o)
	if err != nil {
		chk.Panic("cannot parse validation case file %q:\n%v", fnamepath, err)
	}
	for d := 0; d < 3; d++ {
		if o.Nglob[d] < 1 {
			chk.Panic("nglob must be positive. %v is invalid", o.Nglob)
		}
		if o.Nproc[d] < 1 {
			o.Nproc[d] = 1
		}
		if o.L[d] <= 0 {
			o.L[d] = 1.0
		}
	}
	return
}

// BcTypes converts the mnemonics to boundary types for every component
func (o *ValCase) BcTypes(lda int) (bc [3][2][]plan.BcType) {
	for d := 0; d < 3; d++ {
		for s := 0; s < 2; s++ {
			bc[d][s] = make([]plan.BcType, lda)
			for c := 0; c < lda; c++ {
				bc[d][s][c] = plan.ParseBc(o.Bc[d][s])
			}
		}
	}
	return
}

// GreenKind converts the kernel mnemonic
func (o *ValCase) GreenKind() green.Kind {
	return green.ParseKind(o.Kernel)
}
