// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"

	"github.com/gomlx/systolic/pkg/core/fixed"
	"github.com/gomlx/systolic/pkg/core/mat2"
	"github.com/gomlx/systolic/pkg/systolic/controller"
	"github.com/pkg/errors"
)

// Pair of operands of a job: the product is A×B.
type Pair struct {
	A, B mat2.Matrix[fixed.U4]
}

// Run submits all pairs as fast as the two job slots allow, so consecutive jobs overlap, and ticks
// until all of them completed. Jobs are returned in the order of pairs.
func (e *Engine) Run(ctx context.Context, pairs []Pair) ([]*Job, error) {
	jobs := make([]*Job, 0, len(pairs))
	remaining := len(pairs)
	var idle int
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return jobs, errors.WithMessagef(err, "running %d jobs, %d still to complete", len(pairs), remaining)
		}
		if idle >= e.cfg.MaxTicks {
			return jobs, errors.Wrapf(ErrTimeout, "running %d jobs, no progress for %d ticks", len(pairs), idle)
		}
		before := e.stats.Completed
		if next := len(jobs); next < len(pairs) && e.ctrl.Outstanding() < controller.NumSlots {
			job, err := e.Submit(pairs[next].A, pairs[next].B)
			if err != nil {
				return jobs, err
			}
			jobs = append(jobs, job)
		} else {
			e.Tick(controller.Request{})
		}
		if done := int(e.stats.Completed - before); done > 0 {
			remaining -= done
			idle = 0
		} else {
			idle++
		}
	}
	for _, job := range jobs {
		e.forget(job)
	}
	return jobs, nil
}

// OverlapReport compares the gap between ready pulses of two overlapped jobs with the gap of a third
// job submitted only after the second one completed.
type OverlapReport struct {
	// Jobs holds the three jobs, in submission order.
	Jobs [3]*Job

	// OverlappedGap is the number of ticks between the ready pulses of jobs 0 and 1.
	OverlappedGap int64

	// SequentialGap is the number of ticks between the ready pulses of jobs 1 and 2.
	SequentialGap int64
}

// Speedup of the overlapped gap over the sequential one.
func (r OverlapReport) Speedup() float64 {
	if r.OverlappedGap == 0 {
		return 0
	}
	return float64(r.SequentialGap) / float64(r.OverlappedGap)
}

// MeasureOverlap runs on a new engine: the first job, the second one submitted on the following tick
// (while the first is still loading/computing), and the third only after the second completed.
// It also verifies all three results.
func MeasureOverlap(ctx context.Context, cfg Config, first, second, third Pair) (report OverlapReport, err error) {
	e := New(cfg)
	pairs := [3]Pair{first, second, third}
	for idx := range 2 {
		report.Jobs[idx], err = e.Submit(pairs[idx].A, pairs[idx].B)
		if err != nil {
			return
		}
	}
	for idx := range 2 {
		if err = e.Wait(ctx, report.Jobs[idx]); err != nil {
			return
		}
	}
	report.Jobs[2], err = e.Submit(third.A, third.B)
	if err != nil {
		return
	}
	if err = e.Wait(ctx, report.Jobs[2]); err != nil {
		return
	}
	for _, job := range report.Jobs {
		if err = job.Verify(); err != nil {
			return
		}
	}
	report.OverlappedGap = report.Jobs[1].ReadyAt - report.Jobs[0].ReadyAt
	report.SequentialGap = report.Jobs[2].ReadyAt - report.Jobs[1].ReadyAt
	return
}
