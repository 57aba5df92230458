// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package engine is the clocked driver around the systolic job controller: it owns the clock, submits
// jobs honoring the two-slot limit, waits for ready pulses, matches them to jobs and keeps statistics
// and, optionally, a per-tick signal trace.
//
// Example:
//
//	e := engine.New(engine.DefaultConfig())
//	job, err := e.Submit(mat2.MustParse("1,2;3,4"), mat2.MustParse("5,6;7,8"))
//	if err != nil { ... }
//	if err = e.Wait(ctx, job); err != nil { ... }
//	fmt.Println(job.Result) // [[19 22] [43 50]]
//
// An Engine is not safe for concurrent use. Independent engines can run in parallel, see Sweep.
package engine

import (
	"context"

	"github.com/gomlx/systolic/pkg/core/fixed"
	"github.com/gomlx/systolic/pkg/core/mat2"
	"github.com/gomlx/systolic/pkg/systolic/controller"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	// ErrBusy is returned by Submit (with Config.StrictSubmit) when both job slots are occupied.
	ErrBusy = errors.New("both job slots are occupied, request dropped")

	// ErrTimeout is returned when no ready pulse arrives within Config.MaxTicks.
	ErrTimeout = errors.New("no ready pulse within the tick budget")

	// ErrIdle is returned by WaitReady when there is no job in flight: no ready pulse will ever come.
	ErrIdle = errors.New("no job in flight")
)

// Job is a matrix-multiply request tracked by the Engine.
type Job struct {
	// ID identifies the request outside the engine.
	ID uuid.UUID

	A, B mat2.Matrix[fixed.U4]

	// Tag given by the controller on acceptance, and the job slot it occupies.
	Tag  uint64
	Slot int

	// Dropped is set if the controller had no free slot for the request.
	Dropped bool

	// SubmittedAt and ReadyAt are the ticks of the submit and of the ready pulses.
	SubmittedAt, ReadyAt int64

	// Done is set once the ready pulse for the job was seen, and Result holds the product.
	Done   bool
	Result mat2.Matrix[fixed.U9]
}

// Latency is the number of ticks from the submit pulse to the ready pulse.
func (j *Job) Latency() int64 {
	if !j.Done {
		return 0
	}
	return j.ReadyAt - j.SubmittedAt
}

// Verify compares the result with the exact product A×B.
func (j *Job) Verify() error {
	if !j.Done {
		return errors.Errorf("job %s (#%d) is not done", j.ID, j.Tag)
	}
	want := mat2.MatMul(j.A, j.B)
	if !want.Equal(j.Result) {
		return errors.Errorf("job %s (#%d): %s × %s = %s, got %s", j.ID, j.Tag, j.A, j.B, want, j.Result)
	}
	return nil
}

// TraceEntry is the state of the controller after the given tick.
type TraceEntry struct {
	Tick int64
	controller.Snapshot
}

// Engine drives a controller.Controller.
type Engine struct {
	cfg  Config
	ctrl *controller.Controller

	tick  int64
	stats Stats
	trace []TraceEntry

	// pending maps controller tags to jobs accepted and not yet ready.
	pending map[uint64]*Job

	// completed holds ready jobs not yet returned by WaitReady, in order of completion.
	completed []*Job

	lastReadyAt int64
}

// New creates an Engine with a controller in the reset state.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:     cfg,
		ctrl:    controller.New(),
		pending: make(map[uint64]*Job),
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Controller returns the underlying controller, for inspection.
func (e *Engine) Controller() *controller.Controller { return e.ctrl }

// Now returns the number of ticks run so far.
func (e *Engine) Now() int64 { return e.tick }

// Stats returns the statistics so far.
func (e *Engine) Stats() Stats { return e.stats }

// Trace returns the recorded trace, if Config.Trace is set.
func (e *Engine) Trace() []TraceEntry { return e.trace }

// Outstanding returns the number of jobs in flight in the controller.
func (e *Engine) Outstanding() int { return e.ctrl.Outstanding() }

// Tick advances the clock by one tick with the given request, and matches ready pulses to jobs.
// Requests accepted here are tracked like the ones from Submit.
func (e *Engine) Tick(req controller.Request) controller.Response {
	e.tick++
	resp := e.ctrl.Tick(req, false)
	e.observe(req, resp)
	return resp
}

// Idle ticks n times without a request.
func (e *Engine) Idle(n int) {
	for range n {
		e.Tick(controller.Request{})
	}
}

// Reset asserts the reset signal for one tick. Jobs in flight are lost: they are never completed.
func (e *Engine) Reset() {
	e.tick++
	e.ctrl.Tick(controller.Request{}, true)
	if len(e.pending) > 0 {
		klog.V(1).Infof("engine: reset at tick %d discarded %d jobs in flight", e.tick, len(e.pending))
	}
	clear(e.pending)
	e.completed = nil
	e.lastReadyAt = 0
	e.stats.Ticks++
	e.stats.Resets++
	e.record()
}

func (e *Engine) observe(req controller.Request, resp controller.Response) {
	e.stats.Ticks++
	if _, computing := e.ctrl.ActiveJob(); computing {
		e.stats.BusyTicks++
	}
	if resp.Handoff {
		e.stats.Handoffs++
	}
	if resp.Resumed {
		e.stats.Resumed++
	}
	if resp.Dropped {
		e.stats.Dropped++
	}
	if resp.Accepted {
		e.stats.Accepted++
		e.pending[resp.AcceptedTag] = &Job{
			ID:          uuid.New(),
			A:           req.A,
			B:           req.B,
			Tag:         resp.AcceptedTag,
			Slot:        resp.AcceptedSlot,
			SubmittedAt: e.tick,
		}
	}
	if resp.Ready {
		e.complete(resp)
	}
	e.record()
}

func (e *Engine) complete(resp controller.Response) {
	job, found := e.pending[resp.Tag]
	if !found {
		klog.Warningf("engine: ready pulse at tick %d for unknown job #%d", e.tick, resp.Tag)
		return
	}
	delete(e.pending, resp.Tag)
	job.Done = true
	job.ReadyAt = e.tick
	job.Result = resp.Result
	e.completed = append(e.completed, job)
	e.stats.Completed++
	if e.lastReadyAt > 0 {
		e.stats.addGap(e.tick - e.lastReadyAt)
	}
	e.lastReadyAt = e.tick
	klog.V(1).Infof("engine: job %s (#%d) ready at tick %d, latency %d ticks: %s",
		job.ID, job.Tag, e.tick, job.Latency(), job.Result)
}

func (e *Engine) record() {
	if e.cfg.Trace {
		e.trace = append(e.trace, TraceEntry{Tick: e.tick, Snapshot: e.ctrl.Snapshot()})
	}
}

// Submit issues a submit pulse for A×B.
//
// If both slots are occupied the controller drops the request: the returned job has Dropped set and,
// with Config.StrictSubmit, the error is ErrBusy.
func (e *Engine) Submit(a, b mat2.Matrix[fixed.U4]) (*Job, error) {
	resp := e.Tick(controller.Request{A: a, B: b, Submit: true})
	if resp.Accepted {
		return e.pending[resp.AcceptedTag], nil
	}
	job := &Job{ID: uuid.New(), A: a, B: b, Dropped: true, SubmittedAt: e.tick}
	if e.cfg.StrictSubmit {
		return job, errors.Wrapf(ErrBusy, "submit at tick %d", e.tick)
	}
	klog.Warningf("engine: request %s dropped at tick %d, both job slots occupied", job.ID, e.tick)
	return job, nil
}

// TrySubmit submits only if a job slot is free, without ticking otherwise. It returns nil if it didn't
// submit.
func (e *Engine) TrySubmit(a, b mat2.Matrix[fixed.U4]) *Job {
	if e.ctrl.Outstanding() >= controller.NumSlots {
		return nil
	}
	job, _ := e.Submit(a, b)
	return job
}

// WaitReady ticks until the next job completes and returns it. Jobs that completed earlier and were
// not yet returned are returned first, in completion order.
func (e *Engine) WaitReady(ctx context.Context) (*Job, error) {
	for budget := 0; ; budget++ {
		if len(e.completed) > 0 {
			job := e.completed[0]
			e.completed = e.completed[1:]
			return job, nil
		}
		if e.ctrl.Outstanding() == 0 {
			return nil, errors.Wrapf(ErrIdle, "wait at tick %d", e.tick)
		}
		if budget >= e.cfg.MaxTicks {
			return nil, errors.Wrapf(ErrTimeout, "waited %d ticks", budget)
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.WithMessagef(err, "wait at tick %d", e.tick)
		}
		e.Tick(controller.Request{})
	}
}

// Wait ticks until the given job completes.
func (e *Engine) Wait(ctx context.Context, job *Job) error {
	if job.Dropped {
		return errors.Wrapf(ErrBusy, "job %s was dropped", job.ID)
	}
	for budget := 0; !job.Done; budget++ {
		if budget >= e.cfg.MaxTicks {
			return errors.Wrapf(ErrTimeout, "job %s (#%d) not ready after %d ticks", job.ID, job.Tag, budget)
		}
		if err := ctx.Err(); err != nil {
			return errors.WithMessagef(err, "waiting for job %s", job.ID)
		}
		e.Tick(controller.Request{})
	}
	e.forget(job)
	return nil
}

// forget removes a job from the completed queue.
func (e *Engine) forget(job *Job) {
	for idx, completed := range e.completed {
		if completed == job {
			e.completed = append(e.completed[:idx], e.completed[idx+1:]...)
			return
		}
	}
}
