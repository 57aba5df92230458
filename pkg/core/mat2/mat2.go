// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package mat2 holds 2×2 matrices of fixed-width values, as consumed and produced by the systolic engine,
// plus the exact integer reference product used to verify it.
package mat2

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/systolic/pkg/core/fixed"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Size is the dimension of the matrices (and of the grid).
const Size = 2

// Matrix is a row-major 2×2 matrix: m[row][col].
type Matrix[T constraints.Unsigned] [Size][Size]T

// Of builds a matrix from its elements in row-major order.
func Of[T constraints.Unsigned](m00, m01, m10, m11 T) Matrix[T] {
	return Matrix[T]{{m00, m01}, {m10, m11}}
}

// At returns the element at row, col.
func (m Matrix[T]) At(row, col int) T {
	return m[row][col]
}

// Row returns a copy of the given row.
func (m Matrix[T]) Row(row int) [Size]T {
	return m[row]
}

// Equal returns whether both matrices hold the same elements.
func (m Matrix[T]) Equal(other Matrix[T]) bool {
	return m == other
}

// String implements fmt.Stringer, e.g.: "[[1 2] [3 4]]".
func (m Matrix[T]) String() string {
	return fmt.Sprintf("[[%d %d] [%d %d]]", m[0][0], m[0][1], m[1][0], m[1][1])
}

// MatMul returns the exact product a×b. For operands in the 4-bit domain the largest element is
// 15×15×2=450, so it always fits the 9-bit result domain.
func MatMul(a, b Matrix[fixed.U4]) Matrix[fixed.U9] {
	var c Matrix[fixed.U9]
	for row := range Size {
		for col := range Size {
			var sum int
			for k := range Size {
				sum += int(a[row][k]) * int(b[k][col])
			}
			c[row][col] = fixed.U9(sum)
		}
	}
	return c
}

// Parse a matrix of 4-bit operands in the format "m00,m01;m10,m11".
// Whitespace around the numbers is ignored, and an optional "[" / "]" wrapping is accepted.
func Parse(s string) (m Matrix[fixed.U4], err error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "["), "]")
	rows := strings.Split(trimmed, ";")
	if len(rows) != Size {
		err = errors.Errorf("can't parse matrix %q: expected %d rows separated by \";\", got %d", s, Size, len(rows))
		return
	}
	for rowIdx, row := range rows {
		cols := strings.Split(row, ",")
		if len(cols) != Size {
			err = errors.Errorf("can't parse matrix %q: row %d has %d values, expected %d", s, rowIdx, len(cols), Size)
			return
		}
		for colIdx, str := range cols {
			var v int
			v, err = strconv.Atoi(strings.TrimSpace(str))
			if err != nil {
				err = errors.Wrapf(err, "can't parse matrix %q: element (%d, %d)", s, rowIdx, colIdx)
				return
			}
			m[rowIdx][colIdx], err = fixed.NewU4(v)
			if err != nil {
				err = errors.WithMessagef(err, "can't parse matrix %q: element (%d, %d)", s, rowIdx, colIdx)
				return
			}
		}
	}
	return
}

// MustParse is like Parse, but panics on error. Used for literals in tests and examples.
func MustParse(s string) Matrix[fixed.U4] {
	m, err := Parse(s)
	if err != nil {
		exceptions.Panicf("mat2.MustParse: %v", err)
	}
	return m
}

// Random returns a matrix with elements uniformly drawn from the 4-bit operand domain.
func Random(rng *rand.Rand) Matrix[fixed.U4] {
	var m Matrix[fixed.U4]
	for row := range Size {
		for col := range Size {
			m[row][col] = fixed.U4(rng.IntN(fixed.MaxU4 + 1))
		}
	}
	return m
}
