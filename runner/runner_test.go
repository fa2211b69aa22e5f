package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkollner/cfss/agent"
	"github.com/mkollner/cfss/runstore"
	"github.com/mkollner/cfss/scenario"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noiseFreeSettings() agent.Settings {
	s := agent.DefaultSettings()
	s.Params.NoiseStd = 0
	s.Params.DispersionNoise = 0
	return s
}

func TestRunProducesHistoryAndCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	res, err := Run(context.Background(), noiseFreeSettings(), Options{
		Steps:   20,
		DT:      1.0,
		DataDir: dir,
		Logger:  quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if res.Steps != 20 || len(res.History) != 20 {
		t.Errorf("steps = %d, history = %d, want 20/20", res.Steps, len(res.History))
	}
	if res.History[19].Step != 20 {
		t.Errorf("final snapshot numbered %d, want 20", res.History[19].Step)
	}
	if res.Summary.Steps != 20 {
		t.Errorf("summary steps = %d, want 20", res.Summary.Steps)
	}
	if res.AgentName != "Athena" {
		t.Errorf("agent name = %q, want Athena", res.AgentName)
	}

	data, err := os.ReadFile(res.HistoryPath)
	if err != nil {
		t.Fatalf("reading CSV: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 21 {
		t.Errorf("CSV has %d lines, want 21", len(lines))
	}
}

func TestRunWithoutOutputs(t *testing.T) {
	res, err := Run(context.Background(), noiseFreeSettings(), Options{
		Steps:  5,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if res.HistoryPath != "" {
		t.Errorf("history path = %q, want empty", res.HistoryPath)
	}
	if res.RunID != "" {
		t.Errorf("run id = %q, want empty", res.RunID)
	}
	if len(res.History) != 5 {
		t.Errorf("history = %d, want 5", len(res.History))
	}
}

func TestRunRejectsBadSteps(t *testing.T) {
	_, err := Run(context.Background(), noiseFreeSettings(), Options{Steps: 0, Logger: quietLogger()})
	var ce *agent.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Run() error = %v, want *agent.ConfigError", err)
	}
}

func TestRunArchives(t *testing.T) {
	store, err := runstore.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	res, err := Run(context.Background(), noiseFreeSettings(), Options{
		Steps:   10,
		Store:   store,
		RunName: "archived-trial",
		Logger:  quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if res.RunID == "" {
		t.Fatal("run was not archived")
	}

	meta, err := store.GetRun("archived-trial")
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}
	if meta.ID != res.RunID || meta.Steps != 10 || meta.AgentName != "Athena" {
		t.Errorf("meta = %+v", meta)
	}

	history, err := store.LoadHistory(res.RunID)
	if err != nil {
		t.Fatalf("LoadHistory() failed: %v", err)
	}
	for i := range res.History {
		if history[i] != res.History[i] {
			t.Fatalf("archived snapshot %d differs", i)
		}
	}
}

func TestRunAppliesSchedule(t *testing.T) {
	sch := &scenario.Schedule{
		Name: "squeeze",
		Tracks: []scenario.Track{
			{Field: "confinement", Mode: scenario.ModeConstant, From: 1, Value: 1.0},
		},
	}

	pinned, err := Run(context.Background(), noiseFreeSettings(), Options{
		Steps:    5,
		Schedule: sch,
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	free, err := Run(context.Background(), noiseFreeSettings(), Options{
		Steps:  5,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	got := pinned.History[4].Confinement
	if got < 0.9 {
		t.Errorf("scheduled confinement = %v, want pinned near 1", got)
	}
	if free.History[4].Confinement >= 0.3 {
		t.Errorf("unscheduled confinement = %v, want to stay near baseline", free.History[4].Confinement)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, noiseFreeSettings(), Options{Steps: 100, Logger: quietLogger()})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunBatch(t *testing.T) {
	s := agent.DefaultSettings()
	s.Params.Seed = 5

	dir := t.TempDir()
	results, err := RunBatch(context.Background(), s, Options{
		Steps:   10,
		DataDir: dir,
		Logger:  quietLogger(),
	}, 3)
	if err != nil {
		t.Fatalf("RunBatch() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}

	for i, res := range results {
		wantName := []string{"Athena-1", "Athena-2", "Athena-3"}[i]
		if res.AgentName != wantName {
			t.Errorf("agent %d name = %q, want %q", i, res.AgentName, wantName)
		}
		if res.Seed != 5+int64(i) {
			t.Errorf("agent %d seed = %d, want %d", i, res.Seed, 5+int64(i))
		}
		if res.Steps != 10 {
			t.Errorf("agent %d steps = %d, want 10", i, res.Steps)
		}
		if _, err := os.Stat(res.HistoryPath); err != nil {
			t.Errorf("agent %d history file missing: %v", i, err)
		}
	}

	// Different seeds, different trajectories.
	if results[0].History[9] == results[1].History[9] {
		t.Error("agents 1 and 2 produced identical final snapshots")
	}

	// A second batch with the same settings reproduces every agent exactly.
	again, err := RunBatch(context.Background(), s, Options{
		Steps:  10,
		Logger: quietLogger(),
	}, 3)
	if err != nil {
		t.Fatalf("RunBatch() rerun failed: %v", err)
	}
	for i := range results {
		if results[i].History[9] != again[i].History[9] {
			t.Errorf("agent %d final snapshot changed between identical batches", i)
		}
	}
}

// A batch shares one archive handle across its workers; every run must land
// even when the saves overlap.
func TestRunBatchArchives(t *testing.T) {
	store, err := runstore.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	defer store.Close()

	s := agent.DefaultSettings()
	s.Params.Seed = 11

	results, err := RunBatch(context.Background(), s, Options{
		Steps:   25,
		Store:   store,
		RunName: "trial",
		Logger:  quietLogger(),
	}, 4)
	if err != nil {
		t.Fatalf("RunBatch() failed: %v", err)
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 4 {
		t.Fatalf("archived %d runs, want 4", len(runs))
	}

	for i, res := range results {
		if res.RunID == "" {
			t.Fatalf("agent %d was not archived", i)
		}
		meta, err := store.GetRun(fmt.Sprintf("trial-%d", i+1))
		if err != nil {
			t.Fatalf("GetRun(trial-%d) failed: %v", i+1, err)
		}
		if meta.ID != res.RunID || meta.AgentName != res.AgentName {
			t.Errorf("agent %d archived as %+v, ran as %q/%q", i, meta, res.AgentName, res.RunID)
		}
		history, err := store.LoadHistory(res.RunID)
		if err != nil {
			t.Fatalf("LoadHistory() failed: %v", err)
		}
		if len(history) != 25 || history[24] != res.History[24] {
			t.Errorf("agent %d archived history diverges", i)
		}
	}
}

func TestRunBatchSingle(t *testing.T) {
	results, err := RunBatch(context.Background(), noiseFreeSettings(), Options{
		Steps:  5,
		Logger: quietLogger(),
	}, 1)
	if err != nil {
		t.Fatalf("RunBatch() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].AgentName != "Athena" {
		t.Errorf("single-agent batch renamed the agent to %q", results[0].AgentName)
	}
}
