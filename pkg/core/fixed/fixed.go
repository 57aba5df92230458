// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fixed defines the fixed-width unsigned value domains used by the systolic engine.
//
// Operands (activations and weights) are 4 bits wide ([U4]) and partial sums are 9 bits wide ([U9]),
// enough to hold 15×15 plus one prior partial sum, which is everything a 2-deep column can produce.
//
// Arithmetic is non-saturating: values that exceed the width wrap around, the same way a register of
// that width would. Inputs within the documented domains never wrap for a 2×2 grid.
package fixed

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

const (
	// OperandBits is the width of activations and weights.
	OperandBits = 4

	// PartialSumBits is the width of partial sums and results.
	PartialSumBits = 9

	// MaxU4 is the largest operand value.
	MaxU4 = 1<<OperandBits - 1

	// MaxU9 is the largest partial-sum value.
	MaxU9 = 1<<PartialSumBits - 1
)

// U4 is a 4-bit unsigned operand. Only the low 4 bits are ever set.
type U4 uint8

// U9 is a 9-bit unsigned partial sum. Only the low 9 bits are ever set.
type U9 uint16

// Wrap truncates v to its lowest `bits` bits.
func Wrap[T constraints.Unsigned](v T, bits uint) T {
	return v & (T(1)<<bits - 1)
}

// Fits returns whether v is representable in `bits` unsigned bits.
func Fits[T constraints.Integer](v T, bits uint) bool {
	return v >= 0 && uint64(v) < uint64(1)<<bits
}

// NewU4 converts v to a U4, returning an error if it is outside [0, 15].
func NewU4[T constraints.Integer](v T) (U4, error) {
	if !Fits(v, OperandBits) {
		return 0, errors.Errorf("value %d out of the 4-bit operand domain [0, %d]", v, MaxU4)
	}
	return U4(v), nil
}

// MustU4 is like NewU4, but panics if v doesn't fit.
func MustU4[T constraints.Integer](v T) U4 {
	u, err := NewU4(v)
	if err != nil {
		exceptions.Panicf("fixed.MustU4(%d): %v", v, err)
	}
	return u
}

// NewU9 converts v to a U9, returning an error if it is outside [0, 511].
func NewU9[T constraints.Integer](v T) (U9, error) {
	if !Fits(v, PartialSumBits) {
		return 0, errors.Errorf("value %d out of the 9-bit partial-sum domain [0, %d]", v, MaxU9)
	}
	return U9(v), nil
}

// MulAdd returns psum + act*weight, with the 4×4-bit product zero-extended into 9 bits and the sum
// wrapped at 9 bits.
func MulAdd(psum U9, act, weight U4) U9 {
	product := uint16(Wrap(act, OperandBits)) * uint16(Wrap(weight, OperandBits))
	return U9(Wrap(uint16(psum)+product, PartialSumBits))
}
