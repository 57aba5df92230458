// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package grid wires four processing elements into the 2×2 systolic array.
//
// Activations flow to the right along each row, partial sums flow down along each column, and the
// weight-load controls of each row are broadcast to both cells of that row. Top-row cells receive a
// zero partial sum; the bottom row holds the finished results.
//
// A tick is evaluated in two phases: every cell computes its next registers from the current
// registers of its neighbours, and only then are all cells committed.
package grid

import (
	"github.com/gomlx/systolic/pkg/core/fixed"
	"github.com/gomlx/systolic/pkg/systolic/pe"
)

const (
	Rows = 2
	Cols = 2
)

// RowLoad is the weight-load control of one row, broadcast to the cells of the row.
type RowLoad struct {
	Enable bool
	Select pe.Slot

	// Weights holds one value per column: cell (row, col) receives Weights[col].
	Weights [Cols]fixed.U4
}

// Inputs driven into the grid at each tick.
type Inputs struct {
	// Act holds the external activation of each row, entering the left column.
	Act [Rows]fixed.U4

	// Load holds the weight-load control of each row.
	Load [Rows]RowLoad

	// ActiveSelect, Clear and Compute are shared by all cells.
	ActiveSelect pe.Slot
	Clear        bool
	Compute      bool
}

// Grid is the 2×2 array of processing elements. The zero value is a grid after reset.
type Grid struct {
	cells [Rows][Cols]pe.PE
}

// cellInputs routes the grid inputs and the neighbours' current outputs to cell (row, col).
func (g *Grid) cellInputs(in Inputs, row, col int) pe.Inputs {
	cellIn := pe.Inputs{
		Weight:       in.Load[row].Weights[col],
		Load:         in.Load[row].Enable,
		LoadSelect:   in.Load[row].Select,
		ActiveSelect: in.ActiveSelect,
		Clear:        in.Clear,
		Compute:      in.Compute,
	}
	if col == 0 {
		cellIn.Act = in.Act[row]
	} else {
		cellIn.Act = g.cells[row][col-1].Outputs().Act
	}
	if row > 0 {
		cellIn.PartialSum = g.cells[row-1][col].Outputs().PartialSum
	}
	return cellIn
}

// Tick advances all four cells by one clock.
func (g *Grid) Tick(in Inputs) {
	var next [Rows][Cols]pe.Registers
	for row := range Rows {
		for col := range Cols {
			next[row][col] = g.cells[row][col].Eval(g.cellInputs(in, row, col))
		}
	}
	for row := range Rows {
		for col := range Cols {
			g.cells[row][col].Commit(next[row][col])
		}
	}
}

// Reset every cell.
func (g *Grid) Reset() {
	for row := range Rows {
		for col := range Cols {
			g.cells[row][col].Reset()
		}
	}
}

// Cell returns the processing element at (row, col), for inspection.
func (g *Grid) Cell(row, col int) *pe.PE {
	return &g.cells[row][col]
}

// PartialSums returns the partial-sum outputs of all four cells.
func (g *Grid) PartialSums() (sums [Rows][Cols]fixed.U9) {
	for row := range Rows {
		for col := range Cols {
			sums[row][col] = g.cells[row][col].Outputs().PartialSum
		}
	}
	return
}

// BottomLeft returns the partial-sum output of cell (1, 0).
func (g *Grid) BottomLeft() fixed.U9 {
	return g.cells[Rows-1][0].Outputs().PartialSum
}

// BottomRight returns the partial-sum output of cell (1, 1).
func (g *Grid) BottomRight() fixed.U9 {
	return g.cells[Rows-1][Cols-1].Outputs().PartialSum
}
