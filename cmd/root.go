// Package cmd wires the command line interface: flag parsing, logging setup,
// configuration loading, and the run/runs/calibrate subcommands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mkollner/cfss/config"
)

var (
	cfgFile  string
	logLevel string
	logJSON  bool

	// cfg is loaded by the root PersistentPreRunE and shared by subcommands.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cfss",
	Short: "Homeostatic agent simulator",
	Long: `cfss simulates an agent whose internal state (pain, fatigue, cognitive
load, neurochemical balance, instability, need for control) evolves under
environmental stress, regulation, and nutrition, while the agent acts back
on its environment. Runs produce CSV traces and can be archived to SQLite.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		c, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = c
		return nil
	},
}

// setupLogging installs the process-wide slog handler. The default is a text
// handler on stderr so tables and CSV on stdout stay clean; --log-json swaps
// in a JSON handler on stdout.
func setupLogging() error {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if logJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// Execute runs the root command and exits non-zero on error. The command
// context is cancelled on SIGINT/SIGTERM so long runs shut down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML, layered over built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit JSON logs on stdout")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
