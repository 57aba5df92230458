// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package controller

// State of the scheduler. There is no terminal state: the controller cycles back to Idle.
type State int

//go:generate go tool enumer -type State -output=gen_state_enumer.go state.go

const (
	// Idle: no job computing. A job accepted into slot 0 moves to LoadJob0Row0 in the same tick.
	Idle State = iota

	// LoadJob0Row0 writes row 0 of job 0's weights into buffer slot 0, clearing partial sums.
	LoadJob0Row0

	// LoadJob0Row1 writes row 1 of job 0's weights into buffer slot 0, clearing partial sums.
	LoadJob0Row1

	// Compute streams the active job's activations through the grid for six steps.
	Compute
)
