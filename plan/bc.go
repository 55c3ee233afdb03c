// Copyright 2016 The Gopoisson Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package plan implements the per-direction 1-D transform plans and their
// metadata: transform kind, normalization, wave numbers, symmetry points and
// the offsets used when embedding data into expanded topologies
package plan

import "github.com/cpmech/gosl/chk"

// BcType is the boundary condition on one face of one direction
type BcType int

const (
	// BcNone flags a flat direction (size 1); the direction gets an empty plan
	BcNone BcType = iota

	// BcEven is an even-symmetric (mirror) face
	BcEven

	// BcOdd is an odd-symmetric face
	BcOdd

	// BcPeriodic wraps the direction
	BcPeriodic

	// BcUnbounded is a free-space face
	BcUnbounded
)

// ParseBc converts a mnemonic ("none", "even", "odd", "per", "unb") to a BcType
func ParseBc(s string) BcType {
	switch s {
	case "none":
		return BcNone
	case "even":
		return BcEven
	case "odd":
		return BcOdd
	case "per":
		return BcPeriodic
	case "unb":
		return BcUnbounded
	}
	chk.Panic("cannot parse boundary condition named %q", s)
	return BcNone
}

// String returns the mnemonic
func (o BcType) String() string {
	switch o {
	case BcNone:
		return "none"
	case BcEven:
		return "even"
	case BcOdd:
		return "odd"
	case BcPeriodic:
		return "per"
	case BcUnbounded:
		return "unb"
	}
	return "unknown"
}

// DerivativeDual returns the boundary condition of the first derivative of a
// field with this boundary condition: even and odd swap, periodic and
// unbounded faces are unchanged
func (o BcType) DerivativeDual() BcType {
	switch o {
	case BcEven:
		return BcOdd
	case BcOdd:
		return BcEven
	}
	return o
}
