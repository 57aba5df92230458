// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/schollz/progressbar/v3"
)

// ProgressbarStyle to use. Defaults to the ASCII version.
// Consider "progressbar.ThemeUnicode" for a prettier version.
var ProgressbarStyle = progressbar.ThemeASCII

// maxUpdateFrequency is the time between updates of the display.
var maxUpdateFrequency = time.Millisecond * 200

var (
	normalStyle       = lipgloss.NewStyle().Padding(0, 1)
	rightAlignedStyle = lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
	tableBorderColor  = "#705090"
)

// numStatsRows is the number of rows in the stats table drawn above the bar.
const numStatsRows = 2

// SweepProgress displays a progress bar for a sweep, with a small table of throughput above it.
//
// Add can be called concurrently: updates are drawn asynchronously, at most every 200ms, so a fast
// sweep is not slowed down by the terminal.
type SweepProgress struct {
	numJobs int
	start   time.Time
	bar     *progressbar.ProgressBar

	termenv       *termenv.Output
	statsStyle    lipgloss.Style
	statsTable    *lgtable.Table
	isFirstOutput bool

	updates     chan int
	updatesDone sync.WaitGroup
	closeOnce   sync.Once
}

// NewSweepProgress creates and starts the display of a sweep of numJobs jobs, written to w.
// Call Close when the sweep is finished.
func NewSweepProgress(numJobs int, w io.Writer) *SweepProgress {
	p := &SweepProgress{
		numJobs:       numJobs,
		start:         time.Now(),
		termenv:       termenv.NewOutput(w),
		statsStyle:    lipgloss.NewStyle().PaddingLeft(8),
		isFirstOutput: true,
		updates:       make(chan int, 100), // Large buffer so workers are not blocked.
	}
	p.bar = progressbar.NewOptions(numJobs,
		progressbar.OptionSetDescription("      "),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("jobs"),
		progressbar.OptionSetTheme(ProgressbarStyle),
		progressbar.OptionSetWriter(w),
	)
	p.statsTable = lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(tableBorderColor))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return rightAlignedStyle
			}
			return normalStyle
		})

	p.updatesDone.Add(1)
	go func() {
		defer p.updatesDone.Done()
		var done int
		for amount := range p.updates {
			// Exhaust the updates in the buffer.
		exhaust:
			for {
				select {
				case more, ok := <-p.updates:
					if !ok {
						break exhaust
					}
					amount += more
				default:
					break exhaust
				}
			}
			done += amount
			p.draw(w, done, amount)
			time.Sleep(maxUpdateFrequency)
		}
	}()
	return p
}

func (p *SweepProgress) draw(w io.Writer, done, amount int) {
	elapsed := time.Since(p.start)
	p.statsTable.Data(lgtable.NewStringData())
	p.statsTable.Row("Jobs verified", fmt.Sprintf("%s of %s", humanize.Comma(int64(done)), humanize.Comma(int64(p.numJobs))))
	var rate string
	if secs := elapsed.Seconds(); secs > 0 {
		rate = humanize.SIWithDigits(float64(done)/secs, 1, "jobs/s")
	}
	p.statsTable.Row("Throughput", rate)

	p.termenv.HideCursor()
	if !p.isFirstOutput {
		// Table rows plus its borders, and the bar line.
		p.termenv.CursorPrevLine(numStatsRows + 2 + 1)
	}
	p.isFirstOutput = false
	_, _ = fmt.Fprintln(w, p.statsStyle.Render(p.statsTable.String()))
	_ = p.bar.Add(amount)
	_, _ = fmt.Fprintln(w)
	p.termenv.ShowCursor()
}

// Add reports numJobs more jobs verified. It matches the progress callback of engine.Sweep.
func (p *SweepProgress) Add(numJobs int) {
	p.updates <- numJobs
}

// Close waits for the pending updates to be drawn. It must be called after the last Add.
func (p *SweepProgress) Close() {
	p.closeOnce.Do(func() {
		close(p.updates)
		p.updatesDone.Wait()
		p.termenv.ShowCursor()
	})
}
