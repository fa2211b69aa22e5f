// Package runner drives complete simulation runs: stepping one or more
// agents, applying environment schedules, streaming CSV output, and
// archiving finished runs.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkollner/cfss/agent"
	"github.com/mkollner/cfss/runstore"
	"github.com/mkollner/cfss/scenario"
	"github.com/mkollner/cfss/telemetry"
)

// flushEvery is how many snapshots accumulate before a CSV flush.
const flushEvery = 50

// Options controls one run.
type Options struct {
	Steps    int
	DT       float64 // zero means 1.0
	LogEvery int     // progress log cadence in steps, zero silences progress
	DataDir  string  // run output directory, empty disables CSV output
	RunName  string  // archive name, defaults to the agent name

	Schedule *scenario.Schedule
	Store    *runstore.Store
	Config   telemetry.ConfigWriter // archived next to the CSV when set
	Logger   *slog.Logger           // nil falls back to slog.Default
}

// Result summarizes one completed run.
type Result struct {
	RunID       string // set when the run was archived
	AgentName   string
	Seed        int64
	Steps       int
	HistoryPath string
	Summary     telemetry.RunSummary
	History     []telemetry.StepSnapshot
}

// Run executes a single run to completion, or until ctx is cancelled.
func Run(ctx context.Context, settings agent.Settings, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Steps <= 0 {
		return Result{}, &agent.ConfigError{Field: "run.steps", Reason: "must be positive"}
	}
	dt := opts.DT
	if dt == 0 {
		dt = 1.0
	}

	ag, err := agent.New(settings)
	if err != nil {
		return Result{}, err
	}

	om, err := telemetry.NewOutputManager(opts.DataDir)
	if err != nil {
		return Result{}, err
	}
	defer om.Close()
	if opts.Config != nil {
		if err := om.WriteConfig(opts.Config); err != nil {
			return Result{}, err
		}
	}

	var player *scenario.Player
	if opts.Schedule != nil {
		player = scenario.NewPlayer(*opts.Schedule, ag.Seed())
		logger.Info("schedule loaded", "schedule", opts.Schedule.Name, "tracks", len(opts.Schedule.Tracks))
	}

	logger.Info("starting run", "agent", ag.Name(), "steps", opts.Steps, "dt", dt, "seed", ag.Seed())

	pending := make([]telemetry.StepSnapshot, 0, flushEvery)
	flush := func() error {
		if err := om.WriteSnapshots(pending); err != nil {
			return err
		}
		pending = pending[:0]
		return nil
	}

	for step := 1; step <= opts.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("run cancelled at step %d: %w", step, err)
		}

		if player != nil {
			player.Apply(step, ag)
		}

		snap, err := ag.Step(dt)
		if err != nil {
			return Result{}, fmt.Errorf("stepping %s: %w", ag.Name(), err)
		}
		pending = append(pending, snap)

		if len(pending) >= flushEvery {
			if err := flush(); err != nil {
				return Result{}, err
			}
		}
		if opts.LogEvery > 0 && step%opts.LogEvery == 0 {
			logger.Info("progress", "agent", ag.Name(), "snapshot", snap)
		}
	}

	if err := flush(); err != nil {
		return Result{}, err
	}
	if err := om.Close(); err != nil {
		return Result{}, err
	}

	history := ag.History()
	res := Result{
		AgentName:   ag.Name(),
		Seed:        ag.Seed(),
		Steps:       len(history),
		HistoryPath: om.HistoryPath(),
		Summary:     telemetry.Summarize(history),
		History:     history,
	}

	if opts.Store != nil {
		name := opts.RunName
		if name == "" {
			name = ag.Name()
		}
		id, err := opts.Store.SaveRun(runstore.RunMeta{
			Name:      name,
			AgentName: ag.Name(),
			Seed:      ag.Seed(),
			DT:        dt,
		}, history)
		if err != nil {
			return Result{}, fmt.Errorf("archiving run: %w", err)
		}
		res.RunID = id
		logger.Info("run archived", "run_id", id, "run_name", name)
	}

	logger.Info("run complete",
		"agent", ag.Name(),
		"steps", res.Steps,
		"distress", telemetry.Distress(history),
	)
	return res, nil
}

// RunBatch executes n agents concurrently. Each agent gets a numbered name,
// its own seed, and its own output directory under opts.DataDir; results
// come back in agent order. A non-zero base seed spreads deterministically
// across the batch, a zero seed resolves once so the agents still differ.
func RunBatch(ctx context.Context, settings agent.Settings, opts Options, n int) ([]Result, error) {
	if n <= 1 {
		res, err := Run(ctx, settings, opts)
		if err != nil {
			return nil, err
		}
		return []Result{res}, nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	baseName := settings.Name
	if baseName == "" {
		baseName = "Athena"
	}
	baseSeed := settings.Params.Seed
	if baseSeed == 0 {
		baseSeed = time.Now().UnixNano()
	}

	logger.Info("starting batch", "agents", n, "steps", opts.Steps, "base_seed", baseSeed)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	results := make([]Result, n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			s := settings
			s.Name = fmt.Sprintf("%s-%d", baseName, i+1)
			s.Params.Seed = baseSeed + int64(i)

			o := opts
			o.Logger = logger
			if o.DataDir != "" {
				o.DataDir = filepath.Join(o.DataDir, fmt.Sprintf("agent-%02d", i+1))
			}
			if o.RunName != "" {
				o.RunName = fmt.Sprintf("%s-%d", opts.RunName, i+1)
			}

			res, err := Run(ctx, s, o)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
