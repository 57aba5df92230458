// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package pe implements the processing element of the systolic grid: a multiply-accumulate cell that
// forwards its activation and raw weight inputs to its neighbours with one tick of delay, and holds
// two weight buffer slots so one can be loaded while the other is read.
//
// Updates are split in two phases, so a grid of cells can be evaluated in any order within a tick:
// Eval computes the next register values from the inputs and the current registers, without modifying
// the cell, and Commit applies them.
//
// A PE knows nothing about jobs: keeping two jobs apart is entirely up to whoever drives the buffer
// select signals.
package pe

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/systolic/pkg/core/fixed"
)

// NumSlots is the number of weight buffer slots (double buffering).
const NumSlots = 2

// Slot selects one of the two weight buffer slots.
type Slot uint8

// check panics if the slot is not 0 or 1.
func (s Slot) check() {
	if s >= NumSlots {
		exceptions.Panicf("invalid weight buffer slot %d, only 0 and 1 exist", s)
	}
}

// Inputs sampled by a PE at each tick.
type Inputs struct {
	// Act is the incoming activation, from the left neighbour or the row input.
	Act fixed.U4

	// Weight is the raw weight input, captured into slot LoadSelect when Load is set.
	Weight fixed.U4

	// PartialSum is the incoming partial sum, from the cell above or zero for the top row.
	PartialSum fixed.U9

	// Load enables writing Weight into the LoadSelect slot.
	Load       bool
	LoadSelect Slot

	// ActiveSelect is the slot read by the multiply.
	ActiveSelect Slot

	// Clear forces the partial sum to zero, overriding Compute.
	Clear bool

	// Compute enables the multiply-accumulate; otherwise PartialSum passes through.
	Compute bool
}

// Outputs are the forwarded registers of a PE, visible to its neighbours.
type Outputs struct {
	Act        fixed.U4
	Weight     fixed.U4
	PartialSum fixed.U9
}

// Registers hold the complete state of a PE.
type Registers struct {
	Outputs
	Weights [NumSlots]fixed.U4
}

// String implements fmt.Stringer.
func (r Registers) String() string {
	return fmt.Sprintf("act=%d w=%d psum=%d buf=[%d %d]", r.Act, r.Weight, r.PartialSum, r.Weights[0], r.Weights[1])
}

// PE is a processing element. The zero value is a PE after reset.
type PE struct {
	regs Registers
}

// Eval returns the register values at the end of the tick for the given inputs. It doesn't change the PE.
func (p *PE) Eval(in Inputs) Registers {
	in.ActiveSelect.check()
	next := p.regs

	// Systolic forwarding.
	next.Act = in.Act
	next.Weight = in.Weight

	// Weight load into the selected slot only: the multiply below still reads the current value.
	if in.Load {
		in.LoadSelect.check()
		next.Weights[in.LoadSelect] = in.Weight
	}

	switch {
	case in.Clear:
		next.PartialSum = 0
	case in.Compute:
		next.PartialSum = fixed.MulAdd(in.PartialSum, in.Act, p.regs.Weights[in.ActiveSelect])
	default:
		next.PartialSum = in.PartialSum
	}
	return next
}

// Commit sets the registers, typically to the value returned by Eval.
func (p *PE) Commit(next Registers) {
	p.regs = next
}

// Tick evaluates and commits in one go. Only valid for a PE whose inputs don't depend on other PEs
// being updated in the same tick.
func (p *PE) Tick(in Inputs) {
	p.Commit(p.Eval(in))
}

// Reset zeroes all registers and both weight slots.
func (p *PE) Reset() {
	p.regs = Registers{}
}

// Outputs returns the forwarded registers.
func (p *PE) Outputs() Outputs {
	return p.regs.Outputs
}

// Weight returns the value held in the given weight slot.
func (p *PE) Weight(slot Slot) fixed.U4 {
	slot.check()
	return p.regs.Weights[slot]
}

// Registers returns a copy of the complete state.
func (p *PE) Registers() Registers {
	return p.regs
}
