package agent

import (
	"fmt"
	"math"
)

// ConfigError reports a structurally invalid configuration scalar. It is the
// only error kind the core produces: per-step arithmetic is total once the
// settings are sound.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Validate checks that every scalar is finite and that the noise and
// environment knobs are structurally usable. Range problems on bounded
// fields are not errors; New clamps those into [0,1] instead.
func (s Settings) Validate() error {
	for _, f := range s.scalars() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigError{Field: f.name, Reason: "must be a finite number"}
		}
	}

	if s.Params.NoiseStd < 0 {
		return &ConfigError{Field: "params.noise_std", Reason: "must be non-negative"}
	}
	if s.Params.DispersionNoise < 0 {
		return &ConfigError{Field: "params.dispersion_noise", Reason: "must be non-negative"}
	}
	if s.Params.EnvStep < 0 {
		return &ConfigError{Field: "params.env_step", Reason: "must be non-negative"}
	}

	for _, w := range []struct {
		name    string
		weights Weights
	}{
		{"cognitive_load", s.Params.Weights.CognitiveLoad},
		{"pain", s.Params.Weights.Pain},
		{"fatigue", s.Params.Weights.Fatigue},
		{"neurochem_balance", s.Params.Weights.NeurochemBalance},
		{"instability", s.Params.Weights.Instability},
		{"need_for_control", s.Params.Weights.NeedForControl},
	} {
		if w.weights.Decay <= 0 || w.weights.Decay > 1 {
			return &ConfigError{
				Field:  fmt.Sprintf("params.weights.%s.decay", w.name),
				Reason: "must be in (0, 1]",
			}
		}
	}

	return nil
}

// namedScalar pairs a settings field with its configuration path for error
// messages.
type namedScalar struct {
	name  string
	value float64
}

// scalars enumerates every float in the settings.
func (s Settings) scalars() []namedScalar {
	out := []namedScalar{
		{"internal_state.pain", s.State.Pain},
		{"internal_state.instability", s.State.Instability},
		{"internal_state.need_for_control", s.State.NeedForControl},
		{"internal_state.cognitive_load", s.State.CognitiveLoad},
		{"internal_state.neurochem_balance", s.State.NeurochemBalance},
		{"internal_state.fatigue", s.State.Fatigue},

		{"params.noise_std", s.Params.NoiseStd},
		{"params.env_step", s.Params.EnvStep},
		{"params.comfort_temperature", s.Params.ComfortTemperature},
		{"params.dispersion_noise", s.Params.DispersionNoise},

		{"params.targets.cognitive_load", s.Params.Targets.CognitiveLoad},
		{"params.targets.pain", s.Params.Targets.Pain},
		{"params.targets.fatigue", s.Params.Targets.Fatigue},
		{"params.targets.neurochem_balance", s.Params.Targets.NeurochemBalance},
		{"params.targets.instability", s.Params.Targets.Instability},
		{"params.targets.need_for_control", s.Params.Targets.NeedForControl},
	}
	out = append(out, s.Environment.scalars()...)
	out = append(out, s.Regulation.scalars()...)
	out = append(out, s.Nutrition.scalars()...)

	for _, w := range []struct {
		name    string
		weights Weights
	}{
		{"cognitive_load", s.Params.Weights.CognitiveLoad},
		{"pain", s.Params.Weights.Pain},
		{"fatigue", s.Params.Weights.Fatigue},
		{"neurochem_balance", s.Params.Weights.NeurochemBalance},
		{"instability", s.Params.Weights.Instability},
		{"need_for_control", s.Params.Weights.NeedForControl},
	} {
		prefix := "params.weights." + w.name
		out = append(out,
			namedScalar{prefix + ".env", w.weights.Env},
			namedScalar{prefix + ".int", w.weights.Internal},
			namedScalar{prefix + ".reg", w.weights.Regulation},
			namedScalar{prefix + ".nut", w.weights.Nutrition},
			namedScalar{prefix + ".decay", w.weights.Decay},
		)
	}

	return out
}

func (e Environment) scalars() []namedScalar {
	return []namedScalar{
		{"environment.temperature", e.Temperature},
		{"environment.confinement", e.Confinement},
		{"environment.social_contact", e.SocialContact},
		{"environment.noise_level", e.NoiseLevel},
		{"environment.light_level", e.LightLevel},
	}
}

func (r Regulation) scalars() []namedScalar {
	return []namedScalar{
		{"regulation.breathing", r.Breathing},
		{"regulation.cognitive_override", r.CognitiveOverride},
		{"regulation.pharmacology", r.Pharmacology},
		{"regulation.meditation", r.Meditation},
		{"regulation.exercise", r.Exercise},
	}
}

func (n Nutrition) scalars() []namedScalar {
	return []namedScalar{
		{"nutrition.glucose_level", n.GlucoseLevel},
		{"nutrition.tryptophan", n.Tryptophan},
		{"nutrition.tyrosine", n.Tyrosine},
		{"nutrition.hydration", n.Hydration},
		{"nutrition.vitamin_b12", n.VitaminB12},
	}
}
