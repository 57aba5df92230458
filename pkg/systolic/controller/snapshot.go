// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package controller

import (
	"fmt"

	"github.com/gomlx/systolic/pkg/core/fixed"
	"github.com/gomlx/systolic/pkg/systolic/grid"
	"github.com/gomlx/systolic/pkg/systolic/pe"
)

// Snapshot of the controller's registers after a tick, along with the signals it drove into the grid
// during that tick. Used for signal traces.
type Snapshot struct {
	State State
	Step  int

	// ActiveJob is -1 when no job is computing.
	ActiveJob    int
	ActiveSelect pe.Slot

	Occupied     [NumSlots]bool
	WeightsReady [NumSlots]bool

	// Signals driven during the tick.
	RowAct      [grid.Rows]fixed.U4
	RowLoad     [grid.Rows]bool
	LoadSelect  [grid.Rows]pe.Slot
	Clear       bool
	ComputeOn   bool
	PartialSums [grid.Rows][grid.Cols]fixed.U9

	Ready bool
}

// Snapshot returns the current registers and the signals of the last tick.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:        c.regs.state,
		Step:         c.regs.step,
		ActiveJob:    -1,
		ActiveSelect: c.regs.activeSelect,
		RowAct:       c.lastInputs.Act,
		Clear:        c.lastInputs.Clear,
		ComputeOn:    c.lastInputs.Compute,
		PartialSums:  c.grid.PartialSums(),
		Ready:        c.regs.ready,
	}
	if c.regs.computing {
		s.ActiveJob = c.regs.active
	}
	for slot := range NumSlots {
		s.Occupied[slot] = c.regs.slots[slot].Occupied
		s.WeightsReady[slot] = c.regs.slots[slot].WeightsReady
	}
	for row := range grid.Rows {
		s.RowLoad[row] = c.lastInputs.Load[row].Enable
		s.LoadSelect[row] = c.lastInputs.Load[row].Select
	}
	return s
}

// String implements fmt.Stringer, with one line per snapshot.
func (s Snapshot) String() string {
	return fmt.Sprintf("%-12s step=%d active=%2d sel=%d slots=%v ready=%v act=%v load=%v psum=%v done=%t",
		s.State, s.Step, s.ActiveJob, s.ActiveSelect, s.Occupied, s.WeightsReady,
		s.RowAct, s.RowLoad, s.PartialSums, s.Ready)
}
