// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/systolic/pkg/systolic/engine"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	// TitleStyle is used for the titles above the tables.
	TitleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newPlainTable(withHeader bool) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if withHeader && row == lgtable.HeaderRow {
				return headerRowStyle
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			if col == 0 {
				return s.Align(lipgloss.Right)
			}
			return s.Align(lipgloss.Left)
		})
}

// ResultsTable renders one row per job: operands, result, check against the exact product, and timing.
func ResultsTable(jobs []*engine.Job) string {
	table := newPlainTable(true)
	table.Headers("Job", "A", "B", "A×B", "Check", "Slot", "Submitted", "Ready", "Latency")
	for _, job := range jobs {
		switch {
		case job.Dropped:
			table.Row(job.ID.String()[:8], job.A.String(), job.B.String(), "-", "dropped", "-",
				humanize.Comma(job.SubmittedAt), "-", "-")
			continue
		case !job.Done:
			table.Row(fmt.Sprintf("#%d", job.Tag), job.A.String(), job.B.String(), "-", "pending",
				fmt.Sprintf("%d", job.Slot), humanize.Comma(job.SubmittedAt), "-", "-")
			continue
		}
		check := "ok"
		if err := job.Verify(); err != nil {
			check = "MISMATCH"
		}
		table.Row(fmt.Sprintf("#%d", job.Tag), job.A.String(), job.B.String(), job.Result.String(), check,
			fmt.Sprintf("%d", job.Slot), humanize.Comma(job.SubmittedAt), humanize.Comma(job.ReadyAt),
			humanize.Comma(job.Latency()))
	}
	return table.Render()
}

// StatsTable renders the engine statistics.
func StatsTable(stats engine.Stats) string {
	table := newPlainTable(false)
	table.Row("ticks", humanize.Comma(stats.Ticks))
	table.Row("busy ticks", humanize.Comma(stats.BusyTicks))
	table.Row("utilization", fmt.Sprintf("%.1f%%", 100*stats.Utilization()))
	table.Row("accepted", humanize.Comma(stats.Accepted))
	table.Row("dropped", humanize.Comma(stats.Dropped))
	table.Row("completed", humanize.Comma(stats.Completed))
	table.Row("hand-offs", humanize.Comma(stats.Handoffs))
	table.Row("resumed", humanize.Comma(stats.Resumed))
	if stats.Resets > 0 {
		table.Row("resets", humanize.Comma(stats.Resets))
	}
	if stats.MaxGap > 0 {
		table.Row("ready-to-ready gap", fmt.Sprintf("%d to %d ticks", stats.MinGap, stats.MaxGap))
	}
	return table.Render()
}

// OverlapTable renders the gaps measured by engine.MeasureOverlap.
func OverlapTable(report engine.OverlapReport) string {
	table := newPlainTable(true)
	table.Headers("Jobs", "Ready at", "Gap", "")
	first, second, third := report.Jobs[0], report.Jobs[1], report.Jobs[2]
	table.Row("#1 and #2, overlapped", fmt.Sprintf("%d, %d", first.ReadyAt, second.ReadyAt),
		fmt.Sprintf("%d ticks", report.OverlappedGap), "")
	table.Row("#2 and #3, sequential", fmt.Sprintf("%d, %d", second.ReadyAt, third.ReadyAt),
		fmt.Sprintf("%d ticks", report.SequentialGap), fmt.Sprintf("speedup %.2fx", report.Speedup()))
	return table.Render()
}

// SweepTable renders the outcome of engine.Sweep.
func SweepTable(report *engine.SweepReport) string {
	table := newPlainTable(false)
	table.Row("jobs verified", humanize.Comma(report.Jobs))
	table.Row("mismatches", humanize.Comma(report.NumMismatches))
	table.Row("ticks", humanize.Comma(report.Stats.Ticks))
	if report.Jobs > 0 {
		table.Row("ticks per job", fmt.Sprintf("%.2f", float64(report.Stats.Ticks)/float64(report.Jobs)))
	}
	table.Row("hand-offs", humanize.Comma(report.Stats.Handoffs))
	table.Row("elapsed", FormatDuration(report.Elapsed))
	if secs := report.Elapsed.Seconds(); secs > 0 {
		table.Row("jobs/s", humanize.SIWithDigits(float64(report.Jobs)/secs, 1, ""))
	}
	return table.Render()
}
