// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package commandline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gomlx/systolic/pkg/core/mat2"
	"github.com/gomlx/systolic/pkg/systolic/engine"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSettings(t *testing.T) {
	cfg := engine.DefaultConfig()
	keysSet, err := ParseSettings(&cfg, "max_ticks=1_000_000;trace=true; seed = 7 ;sweep=20_000;overlap=false;parallelism=2;strict_submit=true;")
	require.NoError(t, err)
	assert.Equal(t, []string{"max_ticks", "trace", "seed", "sweep", "overlap", "parallelism", "strict_submit"}, keysSet)
	assert.Equal(t, 1_000_000, cfg.MaxTicks)
	assert.True(t, cfg.Trace)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 20_000, cfg.Sweep)
	assert.False(t, cfg.Overlap)
	assert.Equal(t, 2, cfg.Parallelism)
	assert.True(t, cfg.StrictSubmit)

	// Empty settings change nothing.
	before := cfg
	keysSet, err = ParseSettings(&cfg, "")
	require.NoError(t, err)
	assert.Empty(t, keysSet)
	assert.Equal(t, before, cfg)

	// Unknown key.
	_, err = ParseSettings(&cfg, "q=3")
	require.Error(t, err)

	// Missing value.
	_, err = ParseSettings(&cfg, "trace")
	require.Error(t, err)

	// Wrong types.
	_, err = ParseSettings(&cfg, "max_ticks=3.14")
	require.Error(t, err)
	_, err = ParseSettings(&cfg, "trace=yes")
	require.Error(t, err)
}

func TestParseSettingsFile(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "settings.txt")
	contents := "# Sweep settings.\nsweep=500\n\nseed=3;overlap=false\n"
	require.NoError(t, os.WriteFile(filePath, []byte(contents), 0o644))

	cfg := engine.DefaultConfig()
	keysSet, err := ParseSettings(&cfg, "max_ticks=10;file:"+filePath+";seed=5")
	require.NoError(t, err)
	assert.Equal(t, []string{"max_ticks", "sweep", "seed", "overlap", "seed"}, keysSet)
	assert.Equal(t, 10, cfg.MaxTicks)
	assert.Equal(t, 500, cfg.Sweep)
	assert.Equal(t, int64(5), cfg.Seed)
	assert.False(t, cfg.Overlap)

	_, err = ParseSettings(&cfg, "file:"+filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filePath, []byte("sweep=many\n"), 0o644))
	_, err = ParseSettings(&cfg, "file:"+filePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), filePath)
}

func TestSprintSettings(t *testing.T) {
	cfg := engine.DefaultConfig()
	keysSet := must.M1(ParseSettings(&cfg, "max_ticks=77"))
	got := SprintSettings(cfg, keysSet)
	for _, key := range SettingsKeys() {
		assert.Contains(t, got, key)
	}
	assert.Contains(t, got, "77")
	assert.Contains(t, got, "*")
	assert.NotContains(t, SprintSettings(cfg, nil), "*")
}

func TestTables(t *testing.T) {
	ctx := context.Background()
	e := engine.New(engine.DefaultConfig())
	job := must.M1(e.Submit(mat2.MustParse("1,2;3,4"), mat2.MustParse("5,6;7,8")))
	must.M(e.Wait(ctx, job))

	results := ResultsTable([]*engine.Job{job})
	assert.Contains(t, results, "[[19 22] [43 50]]")
	assert.Contains(t, results, "ok")
	assert.Contains(t, results, "#1")

	// Corrupting the result makes the check fail.
	bad := *job
	bad.Result[1][1] = 0
	assert.Contains(t, ResultsTable([]*engine.Job{&bad}), "MISMATCH")

	stats := StatsTable(e.Stats())
	assert.Contains(t, stats, "completed")
	assert.Contains(t, stats, "66.7%")

	report := must.M1(engine.MeasureOverlap(ctx, engine.DefaultConfig(),
		engine.Pair{A: job.A, B: job.B}, engine.Pair{A: job.B, B: job.A}, engine.Pair{A: job.A, B: job.A}))
	overlap := OverlapTable(report)
	assert.Contains(t, overlap, "6 ticks")
	assert.Contains(t, overlap, "9 ticks")
	assert.Contains(t, overlap, "1.50x")

	cfg := engine.DefaultConfig()
	cfg.Sweep = 300
	sweep := SweepTable(must.M1(engine.Sweep(ctx, cfg, nil)))
	assert.Contains(t, sweep, "jobs verified")
	assert.Contains(t, sweep, "300")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.23s", FormatDuration(1234567*time.Microsecond))
	assert.Equal(t, "12.00ms", FormatDuration(12*time.Millisecond))
	assert.Equal(t, "1m30.5s", FormatDuration(90500*time.Millisecond))
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSweepProgress(t *testing.T) {
	saved := maxUpdateFrequency
	maxUpdateFrequency = 0
	defer func() { maxUpdateFrequency = saved }()

	var out syncBuffer
	p := NewSweepProgress(1_000, &out)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Add(250)
		}()
	}
	wg.Wait()
	p.Close()
	p.Close() // Closing twice is fine.
	got := out.String()
	assert.Contains(t, got, "Jobs verified")
	assert.Contains(t, got, "1,000 of 1,000")
	assert.Contains(t, got, "jobs/s")
}
