// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pe

import (
	"testing"

	"github.com/gomlx/systolic/pkg/core/fixed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwarding(t *testing.T) {
	var p PE
	p.Tick(Inputs{Act: 3, Weight: 9, PartialSum: 100})
	out := p.Outputs()
	assert.Equal(t, fixed.U4(3), out.Act)
	assert.Equal(t, fixed.U4(9), out.Weight)
	// Neither compute nor clear: partial sum passes through.
	assert.Equal(t, fixed.U9(100), out.PartialSum)
	// No load: buffers untouched.
	assert.Equal(t, fixed.U4(0), p.Weight(0))
	assert.Equal(t, fixed.U4(0), p.Weight(1))

	p.Tick(Inputs{})
	assert.Equal(t, Outputs{}, p.Outputs())
}

func TestDoubleBuffer(t *testing.T) {
	var p PE
	p.Tick(Inputs{Weight: 5, Load: true, LoadSelect: 0})
	p.Tick(Inputs{Weight: 7, Load: true, LoadSelect: 1})
	assert.Equal(t, fixed.U4(5), p.Weight(0))
	assert.Equal(t, fixed.U4(7), p.Weight(1))

	// Loading slot 1 while computing with slot 0: the multiply sees slot 0 only.
	p.Tick(Inputs{Act: 2, Weight: 11, Load: true, LoadSelect: 1, ActiveSelect: 0, Compute: true, PartialSum: 1})
	assert.Equal(t, fixed.U9(1+2*5), p.Outputs().PartialSum)
	assert.Equal(t, fixed.U4(5), p.Weight(0))
	assert.Equal(t, fixed.U4(11), p.Weight(1))

	// Loading the active slot takes effect only from the next tick.
	p.Tick(Inputs{Act: 1, Weight: 2, Load: true, LoadSelect: 0, ActiveSelect: 0, Compute: true})
	assert.Equal(t, fixed.U9(5), p.Outputs().PartialSum)
	p.Tick(Inputs{Act: 1, ActiveSelect: 0, Compute: true})
	assert.Equal(t, fixed.U9(2), p.Outputs().PartialSum)

	p.Tick(Inputs{Act: 3, ActiveSelect: 1, Compute: true})
	assert.Equal(t, fixed.U9(33), p.Outputs().PartialSum)
}

func TestClearOverridesCompute(t *testing.T) {
	var p PE
	p.Tick(Inputs{Weight: 15, Load: true})
	p.Tick(Inputs{Act: 15, PartialSum: 300, Compute: true, Clear: true})
	assert.Equal(t, fixed.U9(0), p.Outputs().PartialSum)
	p.Tick(Inputs{Act: 15, PartialSum: 300, Clear: true})
	assert.Equal(t, fixed.U9(0), p.Outputs().PartialSum)
}

func TestMultiplyAccumulateDomain(t *testing.T) {
	for w := range fixed.MaxU4 + 1 {
		var p PE
		p.Tick(Inputs{Weight: fixed.U4(w), Load: true, LoadSelect: 1})
		for a := range fixed.MaxU4 + 1 {
			for _, psum := range []fixed.U9{0, 17, 225} {
				next := p.Eval(Inputs{Act: fixed.U4(a), PartialSum: psum, ActiveSelect: 1, Compute: true})
				require.Equal(t, fixed.U9(int(psum)+a*w), next.PartialSum)
			}
		}
	}
}

func TestEvalDoesNotMutate(t *testing.T) {
	var p PE
	p.Tick(Inputs{Act: 4, Weight: 6, Load: true})
	before := p.Registers()
	next := p.Eval(Inputs{Act: 1, Weight: 2, Load: true, LoadSelect: 1, Compute: true})
	assert.Equal(t, before, p.Registers())
	assert.NotEqual(t, before, next)
	p.Commit(next)
	assert.Equal(t, next, p.Registers())
	assert.Equal(t, "act=1 w=2 psum=6 buf=[6 2]", p.Registers().String())

	p.Reset()
	assert.Equal(t, Registers{}, p.Registers())
}

func TestInvalidSlot(t *testing.T) {
	var p PE
	assert.Panics(t, func() { p.Eval(Inputs{ActiveSelect: 2}) })
	assert.Panics(t, func() { p.Eval(Inputs{Load: true, LoadSelect: 3}) })
	assert.Panics(t, func() { _ = p.Weight(2) })
}
