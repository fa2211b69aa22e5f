package agent

// State holds the six coupled internal variables, each in [0,1].
// NeurochemBalance is the only one where higher is better.
type State struct {
	Pain             float64 `yaml:"pain"`
	Instability      float64 `yaml:"instability"`
	NeedForControl   float64 `yaml:"need_for_control"`
	CognitiveLoad    float64 `yaml:"cognitive_load"`
	NeurochemBalance float64 `yaml:"neurochem_balance"`
	Fatigue          float64 `yaml:"fatigue"`
}

// Environment holds the external conditions the agent lives in and acts on.
// Temperature is in degrees Celsius and is the only unbounded field; the
// rest are in [0,1].
type Environment struct {
	Temperature   float64 `yaml:"temperature"`
	Confinement   float64 `yaml:"confinement"`
	SocialContact float64 `yaml:"social_contact"`
	NoiseLevel    float64 `yaml:"noise_level"`
	LightLevel    float64 `yaml:"light_level"`
}

// Regulation holds the active coping channels, each in [0,1]. Read-only to
// the core; callers may replace it between steps to model interventions.
type Regulation struct {
	Breathing         float64 `yaml:"breathing"`
	CognitiveOverride float64 `yaml:"cognitive_override"`
	Pharmacology      float64 `yaml:"pharmacology"`
	Meditation        float64 `yaml:"meditation"`
	Exercise          float64 `yaml:"exercise"`
}

// Nutrition holds the metabolic inputs, each in [0,1]. Same mutation
// contract as Regulation.
type Nutrition struct {
	GlucoseLevel float64 `yaml:"glucose_level"`
	Tryptophan   float64 `yaml:"tryptophan"`
	Tyrosine     float64 `yaml:"tyrosine"`
	Hydration    float64 `yaml:"hydration"`
	VitaminB12   float64 `yaml:"vitamin_b12"`
}

// Weights holds one state variable's push weights and homeostatic decay rate.
type Weights struct {
	Env        float64 `yaml:"env"`
	Internal   float64 `yaml:"int"`
	Regulation float64 `yaml:"reg"`
	Nutrition  float64 `yaml:"nut"`
	Decay      float64 `yaml:"decay"`
}

// WeightTable maps each state variable to its weight set.
type WeightTable struct {
	CognitiveLoad    Weights `yaml:"cognitive_load"`
	Pain             Weights `yaml:"pain"`
	Fatigue          Weights `yaml:"fatigue"`
	NeurochemBalance Weights `yaml:"neurochem_balance"`
	Instability      Weights `yaml:"instability"`
	NeedForControl   Weights `yaml:"need_for_control"`
}

// TargetTable holds the per-variable homeostatic targets in [0,1].
// NeurochemBalance pulls toward a high target; the others toward low ones.
type TargetTable struct {
	CognitiveLoad    float64 `yaml:"cognitive_load"`
	Pain             float64 `yaml:"pain"`
	Fatigue          float64 `yaml:"fatigue"`
	NeurochemBalance float64 `yaml:"neurochem_balance"`
	Instability      float64 `yaml:"instability"`
	NeedForControl   float64 `yaml:"need_for_control"`
}

// Params holds the model parameters: noise magnitudes, weights, targets, and
// the environment-update knobs of the action loop.
type Params struct {
	NoiseStd           float64     `yaml:"noise_std"`
	EnvStep            float64     `yaml:"env_step"`
	ComfortTemperature float64     `yaml:"comfort_temperature"`
	DispersionNoise    float64     `yaml:"dispersion_noise"`
	Seed               int64       `yaml:"seed"`
	Weights            WeightTable `yaml:"weights"`
	Targets            TargetTable `yaml:"targets"`
}

// Settings is the fully-specified configuration handed to New. External
// loaders are responsible for defaulting and merging before calling in;
// DefaultSettings provides the complete baseline.
type Settings struct {
	Name        string      `yaml:"-"`
	State       State       `yaml:"internal_state"`
	Environment Environment `yaml:"environment"`
	Regulation  Regulation  `yaml:"regulation"`
	Nutrition   Nutrition   `yaml:"nutrition"`
	Params      Params      `yaml:"params"`
}

// DefaultSettings returns the baseline configuration.
func DefaultSettings() Settings {
	return Settings{
		Name: "Athena",
		State: State{
			Pain:             0.2,
			Instability:      0.4,
			NeedForControl:   0.5,
			CognitiveLoad:    0.4,
			NeurochemBalance: 0.6,
			Fatigue:          0.3,
		},
		Environment: Environment{
			Temperature:   22.0,
			Confinement:   0.2,
			SocialContact: 0.5,
			NoiseLevel:    0.3,
			LightLevel:    0.6,
		},
		Regulation: Regulation{
			Breathing:         0.3,
			CognitiveOverride: 0.3,
			Pharmacology:      0.0,
			Meditation:        0.2,
			Exercise:          0.1,
		},
		Nutrition: Nutrition{
			GlucoseLevel: 0.7,
			Tryptophan:   0.5,
			Tyrosine:     0.5,
			Hydration:    0.8,
			VitaminB12:   0.7,
		},
		Params: Params{
			NoiseStd:           0.01,
			EnvStep:            0.05,
			ComfortTemperature: 22.0,
			DispersionNoise:    0.01,
			Seed:               42,
			Weights: WeightTable{
				CognitiveLoad:    Weights{Env: 0.35, Internal: 0.30, Regulation: 0.30, Nutrition: 0.20, Decay: 0.04},
				Pain:             Weights{Env: 0.25, Internal: 0.30, Regulation: 0.20, Nutrition: 0.10, Decay: 0.03},
				Fatigue:          Weights{Env: 0.15, Internal: 0.25, Regulation: 0.15, Nutrition: 0.25, Decay: 0.03},
				NeurochemBalance: Weights{Env: 0.15, Internal: 0.20, Regulation: 0.20, Nutrition: 0.40, Decay: 0.02},
				Instability:      Weights{Env: 0.20, Internal: 0.30, Regulation: 0.20, Nutrition: 0.15, Decay: 0.02},
				NeedForControl:   Weights{Env: 0.20, Internal: 0.25, Regulation: 0.25, Nutrition: 0.10, Decay: 0.03},
			},
			Targets: TargetTable{
				CognitiveLoad:    0.30,
				Pain:             0.20,
				Fatigue:          0.30,
				NeurochemBalance: 0.70,
				Instability:      0.25,
				NeedForControl:   0.35,
			},
		},
	}
}

// clamped returns a copy with every field clamped to [0,1].
func (s State) clamped() State {
	return State{
		Pain:             clamp01(s.Pain),
		Instability:      clamp01(s.Instability),
		NeedForControl:   clamp01(s.NeedForControl),
		CognitiveLoad:    clamp01(s.CognitiveLoad),
		NeurochemBalance: clamp01(s.NeurochemBalance),
		Fatigue:          clamp01(s.Fatigue),
	}
}

// clamped returns a copy with the bounded fields clamped to [0,1].
// Temperature passes through untouched.
func (e Environment) clamped() Environment {
	return Environment{
		Temperature:   e.Temperature,
		Confinement:   clamp01(e.Confinement),
		SocialContact: clamp01(e.SocialContact),
		NoiseLevel:    clamp01(e.NoiseLevel),
		LightLevel:    clamp01(e.LightLevel),
	}
}

func (r Regulation) clamped() Regulation {
	return Regulation{
		Breathing:         clamp01(r.Breathing),
		CognitiveOverride: clamp01(r.CognitiveOverride),
		Pharmacology:      clamp01(r.Pharmacology),
		Meditation:        clamp01(r.Meditation),
		Exercise:          clamp01(r.Exercise),
	}
}

func (n Nutrition) clamped() Nutrition {
	return Nutrition{
		GlucoseLevel: clamp01(n.GlucoseLevel),
		Tryptophan:   clamp01(n.Tryptophan),
		Tyrosine:     clamp01(n.Tyrosine),
		Hydration:    clamp01(n.Hydration),
		VitaminB12:   clamp01(n.VitaminB12),
	}
}

func (t TargetTable) clamped() TargetTable {
	return TargetTable{
		CognitiveLoad:    clamp01(t.CognitiveLoad),
		Pain:             clamp01(t.Pain),
		Fatigue:          clamp01(t.Fatigue),
		NeurochemBalance: clamp01(t.NeurochemBalance),
		Instability:      clamp01(t.Instability),
		NeedForControl:   clamp01(t.NeedForControl),
	}
}
