// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package plots converts engine traces into plot points per signal, stores them as JSON lines, and
// renders them as waveforms.
package plots

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/gomlx/systolic/pkg/support/fsutil"
	"github.com/gomlx/systolic/pkg/support/sets"
	"github.com/gomlx/systolic/pkg/systolic/engine"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Signal types, used to group signals in tables and waveforms.
const (
	TypeControl = "control"
	TypeData    = "data"
)

// Point is the value of one signal after one tick. It is used to save/load traces.
type Point struct {
	// Signal name, e.g.: "state", "ready", "psum[1][0]".
	Signal string

	// Type is TypeControl or TypeData.
	Type string

	// Tick after which the value was sampled.
	Tick int64

	Value float64
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// PointsFromTrace converts a trace recorded by the engine into points, one per signal per tick.
func PointsFromTrace(trace []engine.TraceEntry) []Point {
	points := make([]Point, 0, len(trace)*16)
	for _, entry := range trace {
		add := func(signal, signalType string, value float64) {
			points = append(points, Point{Signal: signal, Type: signalType, Tick: entry.Tick, Value: value})
		}
		add("state", TypeControl, float64(entry.State))
		add("step", TypeControl, float64(entry.Step))
		add("active_job", TypeControl, float64(entry.ActiveJob))
		add("active_select", TypeControl, float64(entry.ActiveSelect))
		add("clear", TypeControl, boolValue(entry.Clear))
		add("compute", TypeControl, boolValue(entry.ComputeOn))
		add("ready", TypeControl, boolValue(entry.Ready))
		for row, enable := range entry.RowLoad {
			add(fmt.Sprintf("load[%d]", row), TypeControl, boolValue(enable))
		}
		for row, act := range entry.RowAct {
			add(fmt.Sprintf("act[%d]", row), TypeData, float64(act))
		}
		for row, sums := range entry.PartialSums {
			for col, sum := range sums {
				add(fmt.Sprintf("psum[%d][%d]", row, col), TypeData, float64(sum))
			}
		}
	}
	return points
}

// SavePoints writes the points to filePath, one JSON object per line. It truncates any existing file.
func SavePoints(filePath string, points []Point) error {
	filePath, err := fsutil.PrepareOutput(filePath)
	if err != nil {
		return err
	}
	if err = os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "failed to remove previous points file %q", filePath)
	}
	pointWriter, errReport := CreatePointsWriter(filePath)
	for _, point := range points {
		pointWriter <- point
	}
	close(pointWriter)
	return <-errReport
}

// LoadPoints parses all points saved in the given file.
func LoadPoints(filePath string) ([]Point, error) {
	filePath, err := fsutil.ReplaceTildeInDir(filePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read points file %q", filePath)
	}
	defer func() { _ = f.Close() }()

	dec := json.NewDecoder(f)
	var points []Point
	for {
		var point Point
		err := dec.Decode(&point)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error while decoding points file %q", filePath)
		}
		points = append(points, point)
	}
	return points, nil
}

// CreatePointsWriter creates a channel to append Point to the given file.
// It creates an errReport channel to report an error (or nil) back at the very end.
// If any error occurs, it stops writing, and will report the error back once pointWriter is closed.
func CreatePointsWriter(filePath string) (pointWriter chan<- Point, errReport <-chan error) {
	pointChan := make(chan Point, 100)
	errChan := make(chan error, 1)
	go func() {
		f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			err = errors.Wrapf(err, "failed to open points file %q for append", filePath)
			klog.Errorf("Error: %v", err)
		}
		var enc *json.Encoder
		if f != nil {
			enc = json.NewEncoder(f)
		}
		for point := range pointChan {
			if err != nil {
				continue // Drain the channel.
			}
			if err = enc.Encode(point); err != nil {
				err = errors.Wrapf(err, "failed to encode point %v", point)
				klog.Errorf("Error: %v", err)
			}
		}
		if f != nil {
			if closeErr := f.Close(); err == nil && closeErr != nil {
				err = errors.Wrapf(closeErr, "failed to close points file %q", filePath)
			}
		}
		errChan <- err
	}()
	return pointChan, errChan
}

// Points is a collection of Point organized by tick.
type Points map[int64][]Point

// NewPoints creates Points from a collection of individual Point.
func NewPoints(rawPoints []Point) Points {
	points := make(Points)
	for _, p := range rawPoints {
		points[p.Tick] = append(points[p.Tick], p)
	}
	return points
}

// Ticks returns the ticks with points, sorted.
func (points Points) Ticks() []int64 {
	return slices.Sorted(maps.Keys(points))
}

// Signals returns the signal names in order of first appearance, control signals first.
func (points Points) Signals() []string {
	control, data := sets.New[string](), sets.New[string]()
	for _, tick := range points.Ticks() {
		for _, p := range points[tick] {
			if p.Type == TypeData {
				data.Insert(p.Signal)
			} else {
				control.Insert(p.Signal)
			}
		}
	}
	return append(control.Keys(), data.Keys()...)
}

// Series returns the values of one signal, in tick order.
func (points Points) Series(signal string) (ticks []int64, values []float64) {
	for _, tick := range points.Ticks() {
		for _, p := range points[tick] {
			if p.Signal == signal {
				ticks = append(ticks, tick)
				values = append(values, p.Value)
			}
		}
	}
	return
}

// TableForSignals returns a table with one row per tick: the first column is the tick, followed by
// the given signals. If signals is empty, all signals are included.
func (points Points) TableForSignals(signals ...string) string {
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle.Align(lipgloss.Right)
		})
	if len(signals) == 0 {
		signals = points.Signals()
	}
	columns := sets.New(signals...)
	table.Headers(append([]string{"Tick"}, columns.Keys()...)...)
	for _, tick := range points.Ticks() {
		row := make([]string, 1+columns.Len())
		row[0] = fmt.Sprintf("%d", tick)
		for _, p := range points[tick] {
			if idx := columns.Index(p.Signal); idx != -1 {
				row[idx+1] = fmt.Sprintf("%g", p.Value)
			}
		}
		table.Row(row...)
	}
	return table.String()
}

func (points Points) String() string {
	return points.TableForSignals()
}
