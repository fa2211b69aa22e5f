package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/mkollner/cfss/runstore"
	"github.com/mkollner/cfss/telemetry"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect archived runs",
	Long:  `Runs lists, shows, exports, and deletes runs archived in the SQLite store.`,
}

// openStore opens the run database from the loaded configuration. The runs
// subcommands work against the store even when archiving is disabled.
func openStore() (*runstore.Store, error) {
	if cfg.Store.Path == "" {
		return nil, fmt.Errorf("store.path is not set; point the config at a run database")
	}
	return runstore.Open(cfg.Store.Path)
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		metas, err := store.ListRuns()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tAGENT\tSEED\tSTEPS\tDISTRESS\tCREATED")
		for _, m := range metas {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4f\t%s\n",
				m.ID, m.Name, m.AgentName, m.Seed, m.Steps, m.Distress,
				m.Created().Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run>",
	Short: "Show one run's metadata and per-variable statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		meta, err := store.GetRun(args[0])
		if err != nil {
			return err
		}
		history, err := store.LoadHistory(meta.ID)
		if err != nil {
			return err
		}
		summary := telemetry.Summarize(history)

		fmt.Printf("Run      %s\n", meta.ID)
		fmt.Printf("Name     %s\n", meta.Name)
		fmt.Printf("Agent    %s (seed %d)\n", meta.AgentName, meta.Seed)
		fmt.Printf("Steps    %d (dt %g)\n", meta.Steps, meta.DT)
		fmt.Printf("Distress %.4f\n", meta.Distress)
		fmt.Printf("Created  %s\n\n", meta.Created().Format(time.RFC3339))
		return printSummaryTable(summary)
	},
}

// printSummaryTable writes the per-variable statistics table to stdout.
func printSummaryTable(summary telemetry.RunSummary) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VARIABLE\tMEAN\tSTD\tMIN\tMAX\tFINAL")
	for _, v := range summary.Variables {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n",
			v.Name, v.Mean, v.Std, v.Min, v.Max, v.Final)
	}
	return w.Flush()
}

var runsExportOut string

var runsExportCmd = &cobra.Command{
	Use:   "export <run>",
	Short: "Export one run's full trace as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		meta, err := store.GetRun(args[0])
		if err != nil {
			return err
		}
		history, err := store.LoadHistory(meta.ID)
		if err != nil {
			return err
		}

		if runsExportOut == "" {
			return gocsv.Marshal(&history, os.Stdout)
		}
		f, err := os.Create(runsExportOut)
		if err != nil {
			return fmt.Errorf("creating %s: %w", runsExportOut, err)
		}
		defer f.Close()
		if err := gocsv.Marshal(&history, f); err != nil {
			return fmt.Errorf("writing %s: %w", runsExportOut, err)
		}
		fmt.Printf("exported %d steps to %s\n", len(history), runsExportOut)
		return nil
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <run>",
	Short: "Delete an archived run and its trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DeleteRun(args[0]); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

func init() {
	runsExportCmd.Flags().StringVar(&runsExportOut, "out", "", "output file (default stdout)")
	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsExportCmd, runsRmCmd)
	rootCmd.AddCommand(runsCmd)
}
