// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package controller implements the job controller of the double-buffered systolic engine.
//
// The controller accepts up to two 2×2 matrix-multiply jobs, one per job slot. Each job's weights live
// in the weight buffer slot with the same index as its job slot, so job 1's weights can be loaded while
// job 0 computes from the other buffer slot. When job 0 finishes with job 1's weights already loaded,
// the controller hands off to job 1 in the same tick, with no idle tick in between.
//
// Everything advances on Controller.Tick: control signals and routed data are computed from the current
// register values, then the grid and all controller registers are updated as one batch.
//
// A Controller is not safe for concurrent use.
package controller

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/systolic/pkg/core/fixed"
	"github.com/gomlx/systolic/pkg/core/mat2"
	"github.com/gomlx/systolic/pkg/systolic/grid"
	"github.com/gomlx/systolic/pkg/systolic/pe"
	"k8s.io/klog/v2"
)

const (
	// NumSlots is the number of job slots: at most two jobs in flight.
	NumSlots = pe.NumSlots

	// NumSteps is the length of the compute schedule.
	NumSteps = 6

	lastStep = NumSteps - 1
)

// Request is the input of one tick. A and B are only sampled when Submit is set.
type Request struct {
	// A is the activation matrix and B the weight matrix: the job computes A×B.
	A, B mat2.Matrix[fixed.U4]

	// Submit is the single-tick submit pulse.
	Submit bool
}

// Response is the output of the controller after one tick.
type Response struct {
	// Result holds the four result registers. They are complete when Ready is set.
	Result mat2.Matrix[fixed.U9]

	// Ready pulses for exactly one tick when a job's four results have been captured.
	Ready bool

	// Tag of the job whose result is in Result, when Ready is set.
	Tag uint64

	// Accepted is set if a submit pulse this tick was accepted, into AcceptedSlot with AcceptedTag.
	Accepted     bool
	AcceptedSlot int
	AcceptedTag  uint64

	// Dropped is set if a submit pulse this tick found both slots occupied. The controller's
	// state is not affected.
	Dropped bool

	// Handoff is set when job 0 finished and job 1 started computing in the same tick.
	Handoff bool

	// Resumed is set when a job left waiting in a slot was restarted from Idle.
	Resumed bool
}

// JobSlot is the controller-side record of a job.
type JobSlot struct {
	Occupied bool

	// A, B are the job's activation and weight matrices.
	A, B mat2.Matrix[fixed.U4]

	// RowsLoaded counts weight rows already written into the job's buffer slot.
	RowsLoaded int

	// WeightsReady is set once both rows were loaded.
	WeightsReady bool

	// Tag is the sequence number given at acceptance.
	Tag uint64
}

// registers are all controller registers, updated as one batch at the end of a tick.
type registers struct {
	state State
	slots [NumSlots]JobSlot

	// computing tells whether active/activeSelect are valid.
	computing    bool
	active       int
	activeSelect pe.Slot

	step    int
	results mat2.Matrix[fixed.U9]

	ready    bool
	readyTag uint64
}

// Controller is the job controller and the grid it drives. The zero value is a controller after reset.
type Controller struct {
	regs registers
	grid grid.Grid

	// lastInputs driven into the grid, kept for Snapshot.
	lastInputs grid.Inputs

	// tags is the last tag handed out. It survives Reset, so tags are never reused.
	tags uint64
}

// New returns a controller in the reset state.
func New() *Controller {
	return &Controller{}
}

// Reset forces the controller to Idle with both slots empty, results zeroed and ready low.
// The grid registers and weight buffers are zeroed as well.
func (c *Controller) Reset() {
	c.regs = registers{}
	c.grid.Reset()
	c.lastInputs = grid.Inputs{}
}

// Tick advances the controller by one clock.
//
// If reset is set, the tick performs only the reset: no job progresses and a submit in the same tick
// is ignored.
func (c *Controller) Tick(req Request, reset bool) (resp Response) {
	if reset {
		c.Reset()
		return
	}

	next := c.regs
	next.ready = false
	in := grid.Inputs{ActiveSelect: c.regs.activeSelect}

	acceptedSlot := -1
	if req.Submit {
		acceptedSlot = c.accept(&next, req, &resp)
	}

	switch c.regs.state {
	case Idle:
		c.idle(&next, &in, acceptedSlot == 0, &resp)
	case LoadJob0Row0, LoadJob0Row1:
		c.loadJob0(&next, &in)
	case Compute:
		c.compute(&next, &in, &resp)
	default:
		klog.Warningf("controller: undefined state %s, falling back to %s", c.regs.state, Idle)
		c.toIdle(&next)
	}

	if klog.V(2).Enabled() {
		klog.Infof("controller: %s step=%d -> %s step=%d, act=%v load=[%t %t] compute=%t clear=%t",
			c.regs.state, c.regs.step, next.state, next.step,
			in.Act, in.Load[0].Enable, in.Load[1].Enable, in.Compute, in.Clear)
	}

	// Commit: grid and controller registers together.
	c.grid.Tick(in)
	c.lastInputs = in
	c.regs = next

	resp.Result = next.results
	resp.Ready = next.ready
	if next.ready {
		resp.Tag = next.readyTag
	}
	return
}

// accept places a submitted job in the first free slot, preferring slot 0.
// It returns the slot used, or -1 if the request was dropped.
func (c *Controller) accept(next *registers, req Request, resp *Response) int {
	for slot := range NumSlots {
		if c.regs.slots[slot].Occupied {
			continue
		}
		c.tags++
		next.slots[slot] = JobSlot{Occupied: true, A: req.A, B: req.B, Tag: c.tags}
		resp.Accepted = true
		resp.AcceptedSlot = slot
		resp.AcceptedTag = c.tags
		klog.V(1).Infof("controller: job #%d accepted into slot %d", c.tags, slot)
		return slot
	}
	resp.Dropped = true
	klog.V(1).Infof("controller: both job slots busy, request dropped")
	return -1
}

// idle starts job 0 if there is one (newly accepted or left waiting), otherwise resumes a job waiting
// in slot 1: it finishes loading its weights and then computes it.
func (c *Controller) idle(next *registers, in *grid.Inputs, acceptedJob0 bool, resp *Response) {
	waiting := &c.regs.slots[1]
	switch {
	case acceptedJob0 || c.regs.slots[0].Occupied:
		next.state = LoadJob0Row0
		if !acceptedJob0 {
			resp.Resumed = true
			klog.V(1).Infof("controller: resuming job #%d in slot 0", c.regs.slots[0].Tag)
		}
	case waiting.Occupied && waiting.WeightsReady:
		c.startCompute(next, 1)
		resp.Resumed = true
		klog.V(1).Infof("controller: resuming job #%d in slot 1", waiting.Tag)
	case waiting.Occupied:
		c.loadRow(next, in, 1)
	}
}

// loadJob0 writes one row of job 0's weights into buffer slot 0 while clearing partial sums.
func (c *Controller) loadJob0(next *registers, in *grid.Inputs) {
	job := &c.regs.slots[0]
	if !job.Occupied {
		c.toIdle(next)
		return
	}
	row := 0
	if c.regs.state == LoadJob0Row1 {
		row = 1
	}
	in.Load[row] = grid.RowLoad{Enable: true, Select: 0, Weights: job.B.Row(row)}
	in.Clear = true
	next.slots[0].RowsLoaded = row + 1
	if row == 0 {
		next.state = LoadJob0Row1
		return
	}
	next.slots[0].WeightsReady = true
	c.startCompute(next, 0)
}

// compute runs one step of the streaming schedule for the active job, captures results from the bottom
// row and, while job 0 computes, loads job 1's weights into the other buffer slot.
func (c *Controller) compute(next *registers, in *grid.Inputs, resp *Response) {
	cur := &c.regs
	if !cur.computing || !cur.slots[cur.active].Occupied {
		c.toIdle(next)
		return
	}
	job := &cur.slots[cur.active]
	in.Act = streamSchedule(job.A, cur.step)
	in.Compute = true
	in.ActiveSelect = cur.activeSelect

	switch cur.step {
	case 3:
		next.results[0][0] = c.grid.BottomLeft()
	case 4:
		next.results[1][0] = c.grid.BottomLeft()
		next.results[0][1] = c.grid.BottomRight()
	case 5:
		next.results[1][1] = c.grid.BottomRight()
		next.ready = true
		next.readyTag = job.Tag
	}

	if cur.active == 0 {
		if other := &cur.slots[1]; other.Occupied && !other.WeightsReady {
			c.loadRow(next, in, 1)
		}
	}

	if cur.step < lastStep {
		next.step = cur.step + 1
		return
	}
	c.finish(next, resp)
}

// finish frees the active job's slot, and either hands off to job 1 or goes back to Idle.
func (c *Controller) finish(next *registers, resp *Response) {
	cur := &c.regs
	done := cur.active
	klog.V(1).Infof("controller: job #%d in slot %d ready", cur.slots[done].Tag, done)
	next.slots[done] = JobSlot{}
	if done == 0 && cur.slots[1].Occupied && cur.slots[1].WeightsReady {
		c.startCompute(next, 1)
		resp.Handoff = true
		klog.V(1).Infof("controller: hand-off to job #%d in slot 1", cur.slots[1].Tag)
		return
	}
	c.toIdle(next)
}

// loadRow writes the next weight row of the job in the given slot into the buffer slot of the same index.
func (c *Controller) loadRow(next *registers, in *grid.Inputs, slot int) {
	job := &c.regs.slots[slot]
	row := job.RowsLoaded
	if row >= grid.Rows {
		return
	}
	in.Load[row] = grid.RowLoad{Enable: true, Select: pe.Slot(slot), Weights: job.B.Row(row)}
	next.slots[slot].RowsLoaded = row + 1
	if row+1 == grid.Rows {
		next.slots[slot].WeightsReady = true
	}
}

func (c *Controller) startCompute(next *registers, slot int) {
	next.state = Compute
	next.computing = true
	next.active = slot
	next.activeSelect = pe.Slot(slot)
	next.step = 0
}

func (c *Controller) toIdle(next *registers) {
	next.state = Idle
	next.computing = false
	next.active = 0
	next.activeSelect = 0
	next.step = 0
}

// streamSchedule returns the activations entering rows 0 and 1 at the given compute step.
// The stagger makes C[0][0] reach the bottom-left cell at step 3, C[1][0] and C[0][1] at step 4,
// and C[1][1] the bottom-right cell at step 5.
func streamSchedule(a mat2.Matrix[fixed.U4], step int) [grid.Rows]fixed.U4 {
	switch step {
	case 0:
		return [grid.Rows]fixed.U4{a[0][0], 0}
	case 1:
		return [grid.Rows]fixed.U4{a[0][0], a[1][1]}
	case 2:
		return [grid.Rows]fixed.U4{a[1][0], a[0][1]}
	case 3:
		return [grid.Rows]fixed.U4{a[1][0], a[1][1]}
	default:
		return [grid.Rows]fixed.U4{}
	}
}

// State returns the scheduler phase.
func (c *Controller) State() State { return c.regs.state }

// Step returns the compute step counter.
func (c *Controller) Step() int { return c.regs.step }

// ActiveJob returns the slot of the job computing, if any.
func (c *Controller) ActiveJob() (slot int, ok bool) {
	return c.regs.active, c.regs.computing
}

// ActiveSelect returns the weight buffer slot read by the multiply.
func (c *Controller) ActiveSelect() pe.Slot { return c.regs.activeSelect }

// Slot returns a copy of the given job slot record.
func (c *Controller) Slot(slot int) JobSlot {
	if slot < 0 || slot >= NumSlots {
		exceptions.Panicf("controller: invalid job slot %d, only 0 and 1 exist", slot)
	}
	return c.regs.slots[slot]
}

// Outstanding returns the number of occupied job slots.
func (c *Controller) Outstanding() (n int) {
	for _, slot := range c.regs.slots {
		if slot.Occupied {
			n++
		}
	}
	return
}

// Results returns the four result registers.
func (c *Controller) Results() mat2.Matrix[fixed.U9] { return c.regs.results }

// Ready returns the ready flag.
func (c *Controller) Ready() bool { return c.regs.ready }

// Grid gives access to the grid, for inspection only.
func (c *Controller) Grid() *grid.Grid { return &c.grid }
