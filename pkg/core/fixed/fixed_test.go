// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fixed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	assert.Equal(t, uint8(0xF), Wrap(uint8(0xFF), 4))
	assert.Equal(t, uint16(0), Wrap(uint16(512), PartialSumBits))
	assert.Equal(t, uint16(1), Wrap(uint16(513), PartialSumBits))
	assert.Equal(t, uint16(MaxU9), Wrap(uint16(MaxU9), PartialSumBits))
}

func TestFits(t *testing.T) {
	assert.True(t, Fits(0, OperandBits))
	assert.True(t, Fits(15, OperandBits))
	assert.False(t, Fits(16, OperandBits))
	assert.False(t, Fits(-1, OperandBits))
	assert.True(t, Fits(uint16(511), PartialSumBits))
	assert.False(t, Fits(uint16(512), PartialSumBits))
}

func TestNewU4(t *testing.T) {
	v, err := NewU4(7)
	require.NoError(t, err)
	assert.Equal(t, U4(7), v)

	_, err = NewU4(16)
	require.Error(t, err)
	_, err = NewU4(-3)
	require.Error(t, err)

	assert.Equal(t, U4(15), MustU4(int64(15)))
	assert.Panics(t, func() { _ = MustU4(99) })

	p, err := NewU9(450)
	require.NoError(t, err)
	assert.Equal(t, U9(450), p)
	_, err = NewU9(512)
	require.Error(t, err)
}

func TestMulAdd(t *testing.T) {
	// Exhaustive over the operand domain with a zero partial sum.
	for a := 0; a <= MaxU4; a++ {
		for w := 0; w <= MaxU4; w++ {
			got := MulAdd(0, U4(a), U4(w))
			require.Equalf(t, U9(a*w), got, "%d*%d", a, w)
		}
	}

	// Worst case for a 2-deep column doesn't wrap.
	assert.Equal(t, U9(450), MulAdd(225, 15, 15))

	// Beyond the domain it wraps at 9 bits instead of saturating.
	assert.Equal(t, U9((500+225)%512), MulAdd(500, 15, 15))
}
