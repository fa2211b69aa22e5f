// Package telemetry provides per-step history records, CSV output, and run
// summary statistics for the simulation.
package telemetry

import "log/slog"

// StepSnapshot is one immutable history record emitted after each simulation
// step. Field order defines the CSV column order; the csv/db tag names are
// stable across runs and match the column names external consumers expect.
type StepSnapshot struct {
	Step int `csv:"step" db:"step"`

	// Internal state after the update pass
	Pain             float64 `csv:"pain" db:"pain"`
	Instability      float64 `csv:"instability" db:"instability"`
	NeedForControl   float64 `csv:"need_for_control" db:"need_for_control"`
	CognitiveLoad    float64 `csv:"cognitive_load" db:"cognitive_load"`
	NeurochemBalance float64 `csv:"neurochem_balance" db:"neurochem_balance"`
	Fatigue          float64 `csv:"fatigue" db:"fatigue"`

	// Composites recomputed after the action loop
	EnvStress  float64 `csv:"env_stress" db:"env_stress"`
	RegRelief  float64 `csv:"reg_relief" db:"reg_relief"`
	NutSupport float64 `csv:"nut_support" db:"nut_support"`

	// Raw environment after the action loop
	Temperature   float64 `csv:"temperature" db:"temperature"`
	Confinement   float64 `csv:"confinement" db:"confinement"`
	SocialContact float64 `csv:"social_contact" db:"social_contact"`
	NoiseLevel    float64 `csv:"noise_level" db:"noise_level"`
	LightLevel    float64 `csv:"light_level" db:"light_level"`

	// Raw regulation inputs
	Breathing         float64 `csv:"breathing" db:"breathing"`
	CognitiveOverride float64 `csv:"cognitive_override" db:"cognitive_override"`
	Pharmacology      float64 `csv:"pharmacology" db:"pharmacology"`
	Meditation        float64 `csv:"meditation" db:"meditation"`
	Exercise          float64 `csv:"exercise" db:"exercise"`

	// Raw nutrition inputs
	GlucoseLevel float64 `csv:"glucose_level" db:"glucose_level"`
	Tryptophan   float64 `csv:"tryptophan" db:"tryptophan"`
	Tyrosine     float64 `csv:"tyrosine" db:"tyrosine"`
	Hydration    float64 `csv:"hydration" db:"hydration"`
	VitaminB12   float64 `csv:"vitamin_b12" db:"vitamin_b12"`

	// Action loop diagnostics
	Motivation float64 `csv:"motivation" db:"motivation"`
	Ability    float64 `csv:"ability" db:"ability"`
	Dispersion float64 `csv:"dispersion" db:"dispersion"`
}

// LogValue implements slog.LogValuer with a compact form for progress logs.
func (s StepSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("step", s.Step),
		slog.Float64("pain", s.Pain),
		slog.Float64("instability", s.Instability),
		slog.Float64("need_for_control", s.NeedForControl),
		slog.Float64("cognitive_load", s.CognitiveLoad),
		slog.Float64("neurochem_balance", s.NeurochemBalance),
		slog.Float64("fatigue", s.Fatigue),
		slog.Float64("env_stress", s.EnvStress),
		slog.Float64("reg_relief", s.RegRelief),
		slog.Float64("nut_support", s.NutSupport),
		slog.Float64("motivation", s.Motivation),
		slog.Float64("ability", s.Ability),
	)
}
