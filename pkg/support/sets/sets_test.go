// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package sets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := New[string]()
	assert.Equal(t, 0, s.Len())

	assert.Equal(t, 2, s.Insert("trace", "seed", "trace"))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("trace"))
	assert.True(t, s.Has("seed"))
	assert.False(t, s.Has("sweep"))
	assert.Equal(t, 1, s.Index("seed"))
	assert.Equal(t, -1, s.Index("sweep"))

	assert.Equal(t, 1, s.Insert("sweep", "seed"))
	assert.Equal(t, []string{"trace", "seed", "sweep"}, s.Keys())

	// Keys returns a copy.
	keys := s.Keys()
	keys[0] = "changed"
	assert.Equal(t, "trace", s.Keys()[0])

	s2 := New(3, 1, 2, 1)
	assert.Equal(t, []int{3, 1, 2}, s2.Keys())
}
