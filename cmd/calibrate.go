package cmd

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/optimize"
	"gopkg.in/yaml.v3"

	"github.com/mkollner/cfss/agent"
	"github.com/mkollner/cfss/scenario"
	"github.com/mkollner/cfss/telemetry"
)

// regulationDim is the size of the calibrated vector: breathing, cognitive
// override, pharmacology, meditation, exercise.
const regulationDim = 5

var calFlags struct {
	evals   int
	seeds   int
	steps   int
	penalty float64
	out     string
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Search for a regulation mix that minimizes distress",
	Long: `Calibrate runs CMA-ES over the five regulation inputs, scoring each
candidate by the mean distress of headless runs across several seeds plus an
effort penalty on the regulation levels themselves. The penalty keeps the
optimizer from trivially maxing out every input.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if calFlags.evals < 1 {
			return &agent.ConfigError{Field: "evals", Reason: "must be at least 1"}
		}
		if calFlags.seeds < 1 {
			return &agent.ConfigError{Field: "seeds", Reason: "must be at least 1"}
		}
		steps := calFlags.steps
		if steps <= 0 {
			steps = cfg.Run.Steps
		}
		schedule, err := resolveSchedule(cfg.Run.Schedule)
		if err != nil {
			return err
		}

		evalSeeds := make([]int64, calFlags.seeds)
		for i := range evalSeeds {
			evalSeeds[i] = int64(i*1000 + 42)
		}

		base := cfg.AgentSettings()
		logger := slog.Default()

		evalCount := 0
		bestFitness := math.Inf(1)
		var bestVec []float64

		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				reg := regulationFromVector(x)
				distress := meanDistress(base, reg, evalSeeds, steps, cfg.Run.DT, schedule)
				fitness := distress + calFlags.penalty*regulationEffort(reg)

				evalCount++
				if fitness < bestFitness {
					bestFitness = fitness
					bestVec = []float64{reg.Breathing, reg.CognitiveOverride, reg.Pharmacology, reg.Meditation, reg.Exercise}
				}
				logger.Info("calibration eval",
					"eval", evalCount, "fitness", fitness, "distress", distress,
					"best", bestFitness)
				return fitness
			},
		}

		settings := &optimize.Settings{
			FuncEvaluations: calFlags.evals,
			Concurrent:      0,
		}
		method := &optimize.CmaEsChol{
			InitStepSize: 0.3,
			Population:   4 + 3*regulationDim/2,
		}

		r := cfg.Regulation
		initX := []float64{r.Breathing, r.CognitiveOverride, r.Pharmacology, r.Meditation, r.Exercise}

		result, err := optimize.Minimize(problem, initX, settings, method)
		if err != nil {
			logger.Warn("optimization ended early", "err", err)
		}
		if bestVec == nil {
			best := regulationFromVector(result.X)
			bestVec = []float64{best.Breathing, best.CognitiveOverride, best.Pharmacology, best.Meditation, best.Exercise}
		}

		best := regulationFromVector(bestVec)
		fmt.Printf("Best regulation after %d evaluations (fitness %.4f):\n", evalCount, bestFitness)
		fmt.Printf("  breathing:          %.4f\n", best.Breathing)
		fmt.Printf("  cognitive_override: %.4f\n", best.CognitiveOverride)
		fmt.Printf("  pharmacology:       %.4f\n", best.Pharmacology)
		fmt.Printf("  meditation:         %.4f\n", best.Meditation)
		fmt.Printf("  exercise:           %.4f\n", best.Exercise)

		if calFlags.out != "" {
			if err := writeRegulation(calFlags.out, best); err != nil {
				return err
			}
			fmt.Printf("wrote %s (layer it with --config)\n", calFlags.out)
		}
		return nil
	},
}

// regulationFromVector maps a candidate vector into valid regulation inputs.
// CMA-ES proposes unconstrained values, so each dimension is clamped to [0,1].
func regulationFromVector(x []float64) agent.Regulation {
	c := func(i int) float64 {
		return math.Max(0, math.Min(1, x[i]))
	}
	return agent.Regulation{
		Breathing:         c(0),
		CognitiveOverride: c(1),
		Pharmacology:      c(2),
		Meditation:        c(3),
		Exercise:          c(4),
	}
}

// regulationEffort is the mean regulation level, used as the effort term.
func regulationEffort(r agent.Regulation) float64 {
	return (r.Breathing + r.CognitiveOverride + r.Pharmacology + r.Meditation + r.Exercise) / regulationDim
}

// meanDistress runs one headless simulation per seed with the candidate
// regulation and averages the distress index over the runs.
func meanDistress(base agent.Settings, reg agent.Regulation, seeds []int64, steps int, dt float64, schedule *scenario.Schedule) float64 {
	total := 0.0
	for _, seed := range seeds {
		s := base
		s.Regulation = reg
		s.Params.Seed = seed
		ag, err := agent.New(s)
		if err != nil {
			return 1e6
		}
		var player *scenario.Player
		if schedule != nil {
			player = scenario.NewPlayer(*schedule, ag.Seed())
		}
		for step := 1; step <= steps; step++ {
			if player != nil {
				player.Apply(step, ag)
			}
			if _, err := ag.Step(dt); err != nil {
				return 1e6
			}
		}
		total += telemetry.Distress(ag.History())
	}
	return total / float64(len(seeds))
}

// writeRegulation writes the calibrated regulation as a config overlay file.
func writeRegulation(path string, reg agent.Regulation) error {
	doc := struct {
		Regulation agent.Regulation `yaml:"regulation"`
	}{Regulation: reg}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling regulation: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func init() {
	calibrateCmd.Flags().IntVar(&calFlags.evals, "evals", 60, "maximum number of fitness evaluations")
	calibrateCmd.Flags().IntVar(&calFlags.seeds, "seeds", 3, "seeds per evaluation")
	calibrateCmd.Flags().IntVar(&calFlags.steps, "steps", 0, "steps per run (0 = run.steps from config)")
	calibrateCmd.Flags().Float64Var(&calFlags.penalty, "effort-penalty", 0.1, "fitness penalty per unit of mean regulation")
	calibrateCmd.Flags().StringVar(&calFlags.out, "out", "", "write the best regulation as a YAML overlay")
	rootCmd.AddCommand(calibrateCmd)
}
