// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package plots

import (
	"path/filepath"
	"slices"

	"github.com/gomlx/systolic/pkg/support/fsutil"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// laneHeight is the vertical space of each signal in a waveform; signals are scaled to 80% of it.
const laneHeight = 1.0

// SaveWaveform renders the given signals (all if none given) as stacked step lines, one lane per
// signal, like a logic analyzer, and saves the image to filePath. The format is taken from the
// file extension (".png", ".svg", ".pdf", ...).
func SaveWaveform(filePath, title string, points Points, signals ...string) error {
	if len(signals) == 0 {
		signals = points.Signals()
	}
	if len(signals) == 0 {
		return errors.New("no signals to plot")
	}
	filePath, err := fsutil.PrepareOutput(filePath)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "tick"
	p.Y.Label.Text = "signal"
	p.Legend.Top = true
	p.Legend.Left = true

	numLanes := len(signals)
	for idx, signal := range signals {
		ticks, values := points.Series(signal)
		if len(ticks) == 0 {
			return errors.Errorf("signal %q not found in points", signal)
		}
		// Lanes are drawn top-down in the order given.
		base := float64(numLanes-1-idx) * laneHeight
		low, high := slices.Min(values), slices.Max(values)
		scale := 0.0
		if high > low {
			scale = 0.8 * laneHeight / (high - low)
		}
		xys := make(plotter.XYs, len(ticks))
		for ii, tick := range ticks {
			xys[ii].X = float64(tick)
			xys[ii].Y = base + (values[ii]-low)*scale
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "failed to create line for signal %q", signal)
		}
		line.StepStyle = plotter.PreStep
		line.Color = plotutil.Color(idx)
		p.Add(line)
		p.Legend.Add(signal, line)
	}
	p.Add(plotter.NewGrid())

	height := vg.Length(2+numLanes/2) * vg.Inch
	if err = p.Save(12*vg.Inch, height, filePath); err != nil {
		return errors.Wrapf(err, "failed to save waveform to %q", filepath.Base(filePath))
	}
	return nil
}
