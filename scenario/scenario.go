// Package scenario applies scheduled pressure and interventions to a running
// simulation: heat waves, noisy nights, isolation phases, seasonal drift,
// medication courses. A schedule is a set of tracks, each driving one
// environment, regulation, or nutrition field over a step window; the agent
// keeps acting against whatever the schedule imposes.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mkollner/cfss/agent"
)

// Track modes.
const (
	ModeConstant  = "constant"  // pin the field to value while active
	ModeRamp      = "ramp"      // move linearly from start to value, then hold
	ModePulse     = "pulse"     // pin to value for the window, then restore
	ModeFluctuate = "fluctuate" // wander around value with smooth noise
)

// Schedule is a named set of tracks.
type Schedule struct {
	Name   string  `yaml:"name"`
	Tracks []Track `yaml:"tracks"`
}

// Track drives one agent input field over time. From and To are step
// numbers, inclusive; To zero means the track never ends. Ramp tracks hold
// their end level after To, pulse tracks restore the field to its captured
// pre-pulse level one step after To.
type Track struct {
	Field     string  `yaml:"field"`
	Mode      string  `yaml:"mode"`
	From      int     `yaml:"from"`
	To        int     `yaml:"to"`
	Value     float64 `yaml:"value"`
	Start     float64 `yaml:"start"`
	Amplitude float64 `yaml:"amplitude"`
	Period    float64 `yaml:"period"`
}

// Sections a track field belongs to.
const (
	sectionEnvironment = "environment"
	sectionRegulation  = "regulation"
	sectionNutrition   = "nutrition"
)

// trackFields maps each drivable field, by its config key, to its section.
var trackFields = map[string]string{
	"temperature":    sectionEnvironment,
	"confinement":    sectionEnvironment,
	"social_contact": sectionEnvironment,
	"noise_level":    sectionEnvironment,
	"light_level":    sectionEnvironment,

	"breathing":          sectionRegulation,
	"cognitive_override": sectionRegulation,
	"pharmacology":       sectionRegulation,
	"meditation":         sectionRegulation,
	"exercise":           sectionRegulation,

	"glucose_level": sectionNutrition,
	"tryptophan":    sectionNutrition,
	"tyrosine":      sectionNutrition,
	"hydration":     sectionNutrition,
	"vitamin_b12":   sectionNutrition,
}

// Load reads a schedule from a YAML file. Unknown keys are rejected.
func Load(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schedule file: %w", err)
	}

	var sch Schedule
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sch); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing schedule file %s: %w", path, err)
	}

	if err := sch.Validate(); err != nil {
		return nil, err
	}
	return &sch, nil
}

// Validate checks every track for a known field, a known mode, a usable
// window, and finite numbers.
func (s *Schedule) Validate() error {
	for i, tr := range s.Tracks {
		at := func(key string) string { return fmt.Sprintf("tracks[%d].%s", i, key) }

		if _, ok := trackFields[tr.Field]; !ok {
			return &agent.ConfigError{Field: at("field"), Reason: fmt.Sprintf("unknown field %q", tr.Field)}
		}
		for _, v := range []struct {
			key string
			val float64
		}{
			{"value", tr.Value},
			{"start", tr.Start},
			{"amplitude", tr.Amplitude},
			{"period", tr.Period},
		} {
			if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
				return &agent.ConfigError{Field: at(v.key), Reason: "must be a finite number"}
			}
		}
		if tr.From < 0 || tr.To < 0 {
			return &agent.ConfigError{Field: at("from"), Reason: "window bounds must be non-negative"}
		}
		if tr.To != 0 && tr.To < tr.From {
			return &agent.ConfigError{Field: at("to"), Reason: "window ends before it starts"}
		}

		switch tr.Mode {
		case ModeConstant:
		case ModeRamp:
			if tr.To <= tr.From {
				return &agent.ConfigError{Field: at("to"), Reason: "ramp needs a window longer than one step"}
			}
		case ModePulse:
			if tr.To == 0 {
				return &agent.ConfigError{Field: at("to"), Reason: "pulse needs an explicit end"}
			}
		case ModeFluctuate:
			if tr.Period <= 0 {
				return &agent.ConfigError{Field: at("period"), Reason: "fluctuation period must be positive"}
			}
			if tr.Amplitude < 0 {
				return &agent.ConfigError{Field: at("amplitude"), Reason: "must be non-negative"}
			}
		default:
			return &agent.ConfigError{Field: at("mode"), Reason: fmt.Sprintf("unknown mode %q", tr.Mode)}
		}
	}
	return nil
}

// Presets returns the built-in demonstration schedules.
func Presets() []Schedule {
	return []Schedule{
		{
			Name: "heat-wave",
			Tracks: []Track{
				{Field: "temperature", Mode: ModePulse, From: 20, To: 80, Value: 36},
			},
		},
		{
			Name: "noisy-night",
			Tracks: []Track{
				{Field: "noise_level", Mode: ModePulse, From: 30, To: 90, Value: 0.9},
				{Field: "light_level", Mode: ModePulse, From: 30, To: 90, Value: 0.1},
			},
		},
		{
			Name: "isolation",
			Tracks: []Track{
				{Field: "social_contact", Mode: ModePulse, From: 10, To: 110, Value: 0.05},
				{Field: "confinement", Mode: ModePulse, From: 10, To: 110, Value: 0.8},
			},
		},
		{
			Name: "drifting-seasons",
			Tracks: []Track{
				{Field: "temperature", Mode: ModeFluctuate, From: 1, Value: 22, Amplitude: 8, Period: 50},
				{Field: "light_level", Mode: ModeFluctuate, From: 1, Value: 0.5, Amplitude: 0.3, Period: 50},
			},
		},
		{
			Name: "slow-squeeze",
			Tracks: []Track{
				{Field: "confinement", Mode: ModeRamp, From: 1, To: 150, Start: 0.1, Value: 0.95},
				{Field: "social_contact", Mode: ModeRamp, From: 1, To: 150, Start: 0.6, Value: 0.05},
			},
		},
		{
			Name: "rescue-protocol",
			Tracks: []Track{
				{Field: "pharmacology", Mode: ModePulse, From: 40, To: 100, Value: 0.8},
				{Field: "breathing", Mode: ModeRamp, From: 40, To: 70, Start: 0.3, Value: 0.9},
			},
		},
		{
			Name: "lean-week",
			Tracks: []Track{
				{Field: "glucose_level", Mode: ModeRamp, From: 1, To: 60, Start: 0.7, Value: 0.15},
				{Field: "hydration", Mode: ModeRamp, From: 1, To: 60, Start: 0.8, Value: 0.3},
				{Field: "tryptophan", Mode: ModeConstant, From: 20, To: 80, Value: 0.2},
			},
		},
	}
}

// Preset returns a built-in schedule by name.
func Preset(name string) (Schedule, bool) {
	for _, s := range Presets() {
		if s.Name == name {
			return s, true
		}
	}
	return Schedule{}, false
}
