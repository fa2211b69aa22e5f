package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkollner/cfss/runner"
	"github.com/mkollner/cfss/runstore"
	"github.com/mkollner/cfss/scenario"
	"github.com/mkollner/cfss/telemetry"
)

var runFlags struct {
	steps    int
	dt       float64
	seed     int64
	name     string
	dataDir  string
	agents   int
	schedule string
	noCSV    bool
	logEvery int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation and record its trace",
	Long: `Run steps one or more agents for the configured number of steps, writing a
CSV trace per agent and, when the store is enabled, archiving each run to
SQLite. Command line flags override the loaded configuration.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}

		schedule, err := resolveSchedule(cfg.Run.Schedule)
		if err != nil {
			return err
		}

		var store *runstore.Store
		if cfg.Store.Enabled {
			store, err = runstore.Open(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("opening run store: %w", err)
			}
			defer store.Close()
		}

		opts := runner.Options{
			Steps:    cfg.Run.Steps,
			DT:       cfg.Run.DT,
			LogEvery: cfg.Run.LogEvery,
			Schedule: schedule,
			Store:    store,
			Config:   cfg,
		}
		if cfg.Run.LogCSV {
			opts.DataDir = filepath.Join(cfg.Run.DataDir, time.Now().Format("run-20060102-150405"))
		}

		results, err := runner.RunBatch(cmd.Context(), cfg.AgentSettings(), opts, cfg.Run.Agents)
		if err != nil {
			return err
		}
		printResults(results)
		if len(results) == 1 {
			fmt.Println()
			return printSummaryTable(results[0].Summary)
		}
		return nil
	},
}

// applyRunFlags overlays the run flags that were explicitly set onto the
// loaded configuration.
func applyRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("steps") {
		cfg.Run.Steps = runFlags.steps
	}
	if f.Changed("dt") {
		cfg.Run.DT = runFlags.dt
	}
	if f.Changed("seed") {
		cfg.Params.Seed = runFlags.seed
	}
	if f.Changed("name") {
		cfg.Run.AgentName = runFlags.name
	}
	if f.Changed("data-dir") {
		cfg.Run.DataDir = runFlags.dataDir
	}
	if f.Changed("agents") {
		cfg.Run.Agents = runFlags.agents
	}
	if f.Changed("schedule") {
		cfg.Run.Schedule = runFlags.schedule
	}
	if f.Changed("log-every") {
		cfg.Run.LogEvery = runFlags.logEvery
	}
	if runFlags.noCSV {
		cfg.Run.LogCSV = false
	}
}

// resolveSchedule turns a schedule reference into a loaded schedule: first a
// preset name, then a YAML file path. Empty means no schedule.
func resolveSchedule(ref string) (*scenario.Schedule, error) {
	if ref == "" {
		return nil, nil
	}
	if sch, ok := scenario.Preset(ref); ok {
		return &sch, nil
	}
	sch, err := scenario.Load(ref)
	if err != nil {
		return nil, fmt.Errorf("schedule %q is neither a preset nor a schedule file: %w", ref, err)
	}
	return sch, nil
}

func printResults(results []runner.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "AGENT\tSEED\tSTEPS\tDISTRESS\tHISTORY\tRUN ID")
	for _, res := range results {
		history := res.HistoryPath
		if history == "" {
			history = "-"
		}
		id := res.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%s\t%s\n",
			res.AgentName, res.Seed, res.Steps, telemetry.Distress(res.History), history, id)
	}
	w.Flush()
}

func init() {
	runCmd.Flags().IntVar(&runFlags.steps, "steps", 0, "number of steps to simulate")
	runCmd.Flags().Float64Var(&runFlags.dt, "dt", 0, "timestep size")
	runCmd.Flags().Int64Var(&runFlags.seed, "seed", 0, "RNG seed (0 = time-based)")
	runCmd.Flags().StringVar(&runFlags.name, "name", "", "agent name")
	runCmd.Flags().StringVar(&runFlags.dataDir, "data-dir", "", "base directory for CSV output")
	runCmd.Flags().IntVar(&runFlags.agents, "agents", 0, "number of agents to run in parallel")
	runCmd.Flags().StringVar(&runFlags.schedule, "schedule", "", "scenario preset name or schedule YAML file")
	runCmd.Flags().BoolVar(&runFlags.noCSV, "no-csv", false, "disable CSV output")
	runCmd.Flags().IntVar(&runFlags.logEvery, "log-every", 0, "log a progress snapshot every N steps (0 = off)")
	rootCmd.AddCommand(runCmd)
}
