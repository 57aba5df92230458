// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package engine

import (
	"runtime"
)

// SettingsEnv is the environment variable with default settings ("key=value;key2=value2"), applied
// before the ones given on the command line.
const SettingsEnv = "SYSTOLIC_SETTINGS"

// Config holds the knobs of an Engine and of the sweep harness.
type Config struct {
	// MaxTicks is the budget of ticks WaitReady and Wait spend before failing with ErrTimeout.
	MaxTicks int

	// Trace enables recording a controller.Snapshot per tick.
	Trace bool

	// StrictSubmit makes Submit return ErrBusy when the request was dropped because both slots were
	// occupied. Otherwise, the drop is only logged and reported in Job.Dropped.
	StrictSubmit bool

	// Seed for the random matrices generated by Sweep.
	Seed int64

	// Sweep is the number of random jobs verified by Sweep.
	Sweep int

	// Overlap makes Sweep submit jobs in overlapped pairs, exercising the hand-off.
	Overlap bool

	// Parallelism is the number of engines Sweep runs in parallel. If <= 0 it uses runtime.NumCPU().
	Parallelism int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxTicks:    1_000,
		Seed:        42,
		Sweep:       10_000,
		Overlap:     true,
		Parallelism: runtime.NumCPU(),
	}
}
