package telemetry

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// VariableSummary holds aggregate statistics for one recorded series.
type VariableSummary struct {
	Name  string  `csv:"variable"`
	Mean  float64 `csv:"mean"`
	Std   float64 `csv:"std"`
	Min   float64 `csv:"min"`
	Max   float64 `csv:"max"`
	Final float64 `csv:"final"`
}

// RunSummary aggregates per-variable statistics over one run's history.
type RunSummary struct {
	Steps     int
	Variables []VariableSummary
}

// summarySeries lists the recorded series included in a run summary.
var summarySeries = []struct {
	name string
	get  func(StepSnapshot) float64
}{
	{"pain", func(s StepSnapshot) float64 { return s.Pain }},
	{"instability", func(s StepSnapshot) float64 { return s.Instability }},
	{"need_for_control", func(s StepSnapshot) float64 { return s.NeedForControl }},
	{"cognitive_load", func(s StepSnapshot) float64 { return s.CognitiveLoad }},
	{"neurochem_balance", func(s StepSnapshot) float64 { return s.NeurochemBalance }},
	{"fatigue", func(s StepSnapshot) float64 { return s.Fatigue }},
	{"env_stress", func(s StepSnapshot) float64 { return s.EnvStress }},
	{"reg_relief", func(s StepSnapshot) float64 { return s.RegRelief }},
	{"nut_support", func(s StepSnapshot) float64 { return s.NutSupport }},
	{"temperature", func(s StepSnapshot) float64 { return s.Temperature }},
	{"motivation", func(s StepSnapshot) float64 { return s.Motivation }},
	{"ability", func(s StepSnapshot) float64 { return s.Ability }},
	{"dispersion", func(s StepSnapshot) float64 { return s.Dispersion }},
}

// Summarize computes per-variable statistics over a run's history.
func Summarize(history []StepSnapshot) RunSummary {
	sum := RunSummary{Steps: len(history)}
	if len(history) == 0 {
		return sum
	}

	series := make([]float64, len(history))
	for _, sv := range summarySeries {
		for i, snap := range history {
			series[i] = sv.get(snap)
		}

		std := 0.0
		if len(series) > 1 {
			std = stat.StdDev(series, nil)
		}

		sum.Variables = append(sum.Variables, VariableSummary{
			Name:  sv.name,
			Mean:  stat.Mean(series, nil),
			Std:   std,
			Min:   floats.Min(series),
			Max:   floats.Max(series),
			Final: series[len(series)-1],
		})
	}

	return sum
}

// Get returns the summary for a named series.
func (r RunSummary) Get(name string) (VariableSummary, bool) {
	for _, v := range r.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return VariableSummary{}, false
}

// Distress reduces a run to a single scalar: the mean over all steps of the
// six state variables folded into one index, with neurochemBalance inverted
// so that higher always means worse. Used as the calibration objective.
func Distress(history []StepSnapshot) float64 {
	if len(history) == 0 {
		return 0
	}

	series := make([]float64, len(history))
	for i, s := range history {
		series[i] = (s.Pain + s.Instability + s.NeedForControl +
			s.CognitiveLoad + s.Fatigue + (1 - s.NeurochemBalance)) / 6
	}
	return stat.Mean(series, nil)
}

// LogValue implements slog.LogValuer with the final state of the key series.
func (r RunSummary) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Int("steps", r.Steps)}
	for _, v := range r.Variables {
		attrs = append(attrs, slog.Float64(v.Name, v.Final))
	}
	return slog.GroupValue(attrs...)
}
