// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package mat2

import (
	"math/rand/v2"
	"testing"

	"github.com/gomlx/systolic/pkg/core/fixed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatMul(t *testing.T) {
	testCases := []struct {
		name string
		a, b string
		want Matrix[fixed.U9]
	}{
		{"counting", "1,2;3,4", "5,6;7,8", Of[fixed.U9](19, 22, 43, 50)},
		{"ones", "1,1;1,1", "1,1;1,1", Of[fixed.U9](2, 2, 2, 2)},
		{"identity", "1,0;0,1", "2,3;4,5", Of[fixed.U9](2, 3, 4, 5)},
		{"max", "15,15;15,15", "15,15;15,15", Of[fixed.U9](450, 450, 450, 450)},
		{"zero", "0,0;0,0", "9,9;9,9", Matrix[fixed.U9]{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := MatMul(MustParse(tc.a), MustParse(tc.b))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	m, err := Parse(" [1, 2; 3 ,4] ")
	require.NoError(t, err)
	assert.Equal(t, Of[fixed.U4](1, 2, 3, 4), m)
	assert.Equal(t, "[[1 2] [3 4]]", m.String())
	assert.Equal(t, fixed.U4(3), m.At(1, 0))
	assert.Equal(t, [Size]fixed.U4{3, 4}, m.Row(1))

	for _, bad := range []string{"", "1,2", "1,2;3", "1,2;3,4;5,6", "1,x;3,4", "1,2;3,16", "-1,0;0,0"} {
		_, err = Parse(bad)
		assert.Errorf(t, err, "Parse(%q) should have failed", bad)
	}
	assert.Panics(t, func() { _ = MustParse("1,2") })
}

func TestRandom(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	seen := make(map[fixed.U4]bool)
	for range 200 {
		m := Random(rng)
		for row := range Size {
			for col := range Size {
				v := m[row][col]
				require.LessOrEqual(t, int(v), fixed.MaxU4)
				seen[v] = true
			}
		}
	}
	// 800 draws over 16 values: every value shows up.
	assert.Len(t, seen, fixed.MaxU4+1)

	// Same seed, same sequence.
	a := Random(rand.New(rand.NewPCG(1, 2)))
	b := Random(rand.New(rand.NewPCG(1, 2)))
	assert.True(t, a.Equal(b))
}
