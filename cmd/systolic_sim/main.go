// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// systolic_sim runs matrix-multiply jobs on the simulated 2×2 systolic engine and reports results,
// timing and statistics.
//
// Examples:
//
//	systolic_sim -scenarios -overlap
//	systolic_sim -a "1,2;3,4" -b "5,6;7,8" -a2 "1,1;1,1" -b2 "1,1;1,1" -trace=/tmp/trace.jsonl -plot=/tmp/trace.png
//	systolic_sim -sweep -set "sweep=1_000_000;parallelism=8"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/systolic/pkg/core/fixed"
	"github.com/gomlx/systolic/pkg/core/mat2"
	"github.com/gomlx/systolic/pkg/systolic/engine"
	"github.com/gomlx/systolic/ui/commandline"
	"github.com/gomlx/systolic/ui/plots"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagA  = flag.String("a", "", `Activation matrix A of the job, as "a00,a01;a10,a11", values 0 to 15.`)
	flagB  = flag.String("b", "", `Weight matrix B of the job, as "b00,b01;b10,b11", values 0 to 15.`)
	flagA2 = flag.String("a2", "", "Activation matrix of a second job, submitted on the tick after the first.")
	flagB2 = flag.String("b2", "", "Weight matrix of a second job, submitted on the tick after the first.")

	flagScenarios = flag.Bool("scenarios", false, "Run the reference scenarios and check their results.")
	flagOverlap   = flag.Bool("overlap", false, "Measure the ready-to-ready gap of two overlapped jobs against sequential ones.")
	flagSweep     = flag.Bool("sweep", false, "Verify random jobs against the exact product, see settings \"sweep\" and \"seed\".")

	flagTrace = flag.String("trace", "", "Save the per-tick signal trace of the jobs given with -a/-b as JSON lines to this file.")
	flagPlot  = flag.String("plot", "", "Save the waveform of the jobs given with -a/-b to this image file (.png, .svg, .pdf).")
)

// scenario is a reference job with its expected result.
type scenario struct {
	name string
	a, b string
	want mat2.Matrix[fixed.U9]
}

var scenarios = []scenario{
	{"counting", "1,2;3,4", "5,6;7,8", mat2.Of[fixed.U9](19, 22, 43, 50)},
	{"ones", "1,1;1,1", "1,1;1,1", mat2.Of[fixed.U9](2, 2, 2, 2)},
	{"identity", "1,0;0,1", "2,3;4,5", mat2.Of[fixed.U9](2, 3, 4, 5)},
}

func main() {
	klog.InitFlags(nil)
	settings := commandline.CreateSettingsFlag(engine.DefaultConfig(), "set")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := exceptions.TryCatch[error](func() { must.M(run(ctx, *settings)) })
	if err != nil {
		klog.Errorf("Failed: %+v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, settings string) error {
	cfg := engine.DefaultConfig()
	keysSet, err := commandline.ParseSettings(&cfg, os.Getenv(engine.SettingsEnv))
	if err != nil {
		return errors.WithMessagef(err, "parsing $%s", engine.SettingsEnv)
	}
	moreKeys, err := commandline.ParseSettings(&cfg, settings)
	if err != nil {
		return errors.WithMessage(err, "parsing -set")
	}
	keysSet = append(keysSet, moreKeys...)
	if *flagTrace != "" || *flagPlot != "" {
		cfg.Trace = true
	}
	if len(keysSet) > 0 || klog.V(1).Enabled() {
		fmt.Println(commandline.TitleStyle.Render("Settings"))
		fmt.Println(commandline.SprintSettings(cfg, keysSet))
	}

	var ranSomething bool
	if *flagA != "" || *flagB != "" {
		if err = runJobs(ctx, cfg); err != nil {
			return err
		}
		ranSomething = true
	}
	if *flagScenarios {
		if err = runScenarios(ctx, cfg); err != nil {
			return err
		}
		ranSomething = true
	}
	if *flagOverlap {
		if err = runOverlap(ctx, cfg); err != nil {
			return err
		}
		ranSomething = true
	}
	if *flagSweep {
		if err = runSweep(ctx, cfg); err != nil {
			return err
		}
		ranSomething = true
	}
	if !ranSomething {
		fmt.Println("Nothing to do: give a job with -a/-b, or one of -scenarios, -overlap or -sweep. See -help.")
	}
	return nil
}

// runJobs runs the job given by -a/-b and, if given, the one in -a2/-b2 on the following tick.
func runJobs(ctx context.Context, cfg engine.Config) error {
	if *flagA == "" || *flagB == "" {
		return errors.New("both -a and -b must be given")
	}
	pairs := []engine.Pair{{A: mustParse("-a", *flagA), B: mustParse("-b", *flagB)}}
	if *flagA2 != "" || *flagB2 != "" {
		if *flagA2 == "" || *flagB2 == "" {
			return errors.New("both -a2 and -b2 must be given")
		}
		pairs = append(pairs, engine.Pair{A: mustParse("-a2", *flagA2), B: mustParse("-b2", *flagB2)})
	}

	e := engine.New(cfg)
	jobs := make([]*engine.Job, 0, len(pairs))
	for _, pair := range pairs {
		job, err := e.Submit(pair.A, pair.B)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
	}
	for _, job := range jobs {
		if err := e.Wait(ctx, job); err != nil {
			return err
		}
	}
	fmt.Println(commandline.TitleStyle.Render("Jobs"))
	fmt.Println(commandline.ResultsTable(jobs))
	fmt.Println(commandline.StatsTable(e.Stats()))

	if !cfg.Trace {
		return nil
	}
	rawPoints := plots.PointsFromTrace(e.Trace())
	if klog.V(1).Enabled() {
		fmt.Println(commandline.TitleStyle.Render("Trace"))
		fmt.Println(plots.NewPoints(rawPoints).TableForSignals("state", "step", "active_job", "clear", "compute", "ready"))
	}
	if *flagTrace != "" {
		if err := plots.SavePoints(*flagTrace, rawPoints); err != nil {
			return err
		}
		fmt.Printf("Trace saved to %q\n", *flagTrace)
	}
	if *flagPlot != "" {
		title := fmt.Sprintf("%d job(s), %d ticks", len(jobs), e.Now())
		if err := plots.SaveWaveform(*flagPlot, title, plots.NewPoints(rawPoints)); err != nil {
			return err
		}
		fmt.Printf("Waveform saved to %q\n", *flagPlot)
	}
	return nil
}

func mustParse(flagName, value string) mat2.Matrix[fixed.U4] {
	m, err := mat2.Parse(value)
	if err != nil {
		exceptions.Panicf("invalid matrix for %s: %v", flagName, err)
	}
	return m
}

func runScenarios(ctx context.Context, cfg engine.Config) error {
	e := engine.New(cfg)
	jobs := make([]*engine.Job, 0, len(scenarios))
	for _, s := range scenarios {
		job, err := e.Submit(mat2.MustParse(s.a), mat2.MustParse(s.b))
		if err != nil {
			return err
		}
		if err = e.Wait(ctx, job); err != nil {
			return errors.WithMessagef(err, "scenario %q", s.name)
		}
		if !job.Result.Equal(s.want) {
			return errors.Errorf("scenario %q: want %s, got %s", s.name, s.want, job.Result)
		}
		jobs = append(jobs, job)
	}
	fmt.Println(commandline.TitleStyle.Render("Scenarios"))
	fmt.Println(commandline.ResultsTable(jobs))
	return nil
}

func runOverlap(ctx context.Context, cfg engine.Config) error {
	first := engine.Pair{A: mat2.MustParse(scenarios[0].a), B: mat2.MustParse(scenarios[0].b)}
	second := engine.Pair{A: mat2.MustParse(scenarios[1].a), B: mat2.MustParse(scenarios[1].b)}
	third := engine.Pair{A: mat2.MustParse(scenarios[2].a), B: mat2.MustParse(scenarios[2].b)}
	report, err := engine.MeasureOverlap(ctx, cfg, first, second, third)
	if err != nil {
		return err
	}
	fmt.Println(commandline.TitleStyle.Render("Overlap"))
	fmt.Println(commandline.ResultsTable(report.Jobs[:]))
	fmt.Println(commandline.OverlapTable(report))
	if report.OverlappedGap >= report.SequentialGap {
		return errors.Errorf("overlapped gap of %d ticks is not shorter than the sequential gap of %d ticks",
			report.OverlappedGap, report.SequentialGap)
	}
	return nil
}

func runSweep(ctx context.Context, cfg engine.Config) error {
	progress := commandline.NewSweepProgress(cfg.Sweep, os.Stdout)
	report, err := engine.Sweep(ctx, cfg, progress.Add)
	progress.Close()
	if err != nil {
		return err
	}
	fmt.Println(commandline.TitleStyle.Render("Sweep"))
	fmt.Println(commandline.SweepTable(report))
	fmt.Println(commandline.StatsTable(report.Stats))
	for _, mismatch := range report.Mismatches {
		klog.Errorf("%v", mismatch)
	}
	if report.NumMismatches > 0 {
		return errors.Errorf("%d of %d jobs mismatched", report.NumMismatches, report.Jobs)
	}
	return nil
}
