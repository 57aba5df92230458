// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package engine

// Stats are the counters of an Engine.
type Stats struct {
	Ticks     int64
	BusyTicks int64

	Accepted, Dropped, Completed int64
	Handoffs, Resumed, Resets    int64

	// MinGap and MaxGap are the smallest and largest number of ticks between consecutive ready pulses.
	// Zero until two jobs completed.
	MinGap, MaxGap int64
}

func (s *Stats) addGap(gap int64) {
	if s.MinGap == 0 || gap < s.MinGap {
		s.MinGap = gap
	}
	if gap > s.MaxGap {
		s.MaxGap = gap
	}
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Ticks += other.Ticks
	s.BusyTicks += other.BusyTicks
	s.Accepted += other.Accepted
	s.Dropped += other.Dropped
	s.Completed += other.Completed
	s.Handoffs += other.Handoffs
	s.Resumed += other.Resumed
	s.Resets += other.Resets
	if other.MinGap > 0 {
		s.addGap(other.MinGap)
	}
	if other.MaxGap > 0 {
		s.addGap(other.MaxGap)
	}
}

// Utilization is the fraction of ticks with a job computing.
func (s Stats) Utilization() float64 {
	if s.Ticks == 0 {
		return 0
	}
	return float64(s.BusyTicks) / float64(s.Ticks)
}
