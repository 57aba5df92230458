// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package engine

import (
	"context"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"github.com/gomlx/systolic/pkg/core/mat2"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// sweepChunkSize is the number of jobs run by each engine in a sweep.
const sweepChunkSize = 256

// maxReportedMismatches limits the mismatches kept in a SweepReport.
const maxReportedMismatches = 16

// SweepReport is the outcome of Sweep.
type SweepReport struct {
	// Jobs verified.
	Jobs int64

	// NumMismatches is the number of jobs whose result differed from the exact product, and
	// Mismatches holds the first few of them.
	NumMismatches int64
	Mismatches    []error

	// Stats accumulated over all engines.
	Stats Stats

	Elapsed time.Duration
}

// Sweep verifies cfg.Sweep random jobs against the exact product. Jobs are split in chunks, each run on
// its own Engine, with up to cfg.Parallelism engines running in parallel. With cfg.Overlap, each engine
// keeps both job slots busy (see Engine.Run), otherwise it waits for each job before submitting the next.
//
// Random matrices are derived from cfg.Seed and the chunk index, so a sweep is reproducible regardless
// of parallelism. If progress is not nil, it is called (concurrently) with the number of jobs verified
// by each chunk.
func Sweep(ctx context.Context, cfg Config, progress func(numJobs int)) (*SweepReport, error) {
	start := time.Now()
	report := &SweepReport{}
	var mu sync.Mutex

	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	numChunks := (cfg.Sweep + sweepChunkSize - 1) / sweepChunkSize
	for chunkIdx := range numChunks {
		numJobs := min(sweepChunkSize, cfg.Sweep-chunkIdx*sweepChunkSize)
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(chunkIdx)))
			pairs := make([]Pair, numJobs)
			for idx := range pairs {
				pairs[idx] = Pair{A: mat2.Random(rng), B: mat2.Random(rng)}
			}
			e := New(cfg)
			jobs, err := runChunk(ctx, e, pairs, cfg.Overlap)
			if err != nil {
				return errors.WithMessagef(err, "sweep chunk %d", chunkIdx)
			}

			mu.Lock()
			defer mu.Unlock()
			report.Jobs += int64(len(jobs))
			report.Stats.Add(e.Stats())
			for _, job := range jobs {
				if err := job.Verify(); err != nil {
					report.NumMismatches++
					if len(report.Mismatches) < maxReportedMismatches {
						report.Mismatches = append(report.Mismatches, err)
					}
				}
			}
			if progress != nil {
				progress(len(jobs))
			}
			return nil
		})
	}
	err := g.Wait()
	report.Elapsed = time.Since(start)
	if err != nil {
		return report, err
	}
	klog.V(1).Infof("engine: sweep of %d jobs in %s, %d mismatches", report.Jobs, report.Elapsed, report.NumMismatches)
	return report, nil
}

func runChunk(ctx context.Context, e *Engine, pairs []Pair, overlap bool) ([]*Job, error) {
	if overlap {
		return e.Run(ctx, pairs)
	}
	jobs := make([]*Job, 0, len(pairs))
	for _, pair := range pairs {
		job, err := e.Submit(pair.A, pair.B)
		if err != nil {
			return jobs, err
		}
		if err = e.Wait(ctx, job); err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
