// Package agent implements the simulated agent: six coupled internal state
// variables under homeostatic decay, pushed by composites derived from the
// environment, regulation, and nutrition, plus an action loop through which
// the agent reshapes its environment in return.
//
// All stochasticity flows through a per-agent random stream, so two agents
// built from the same settings and seed produce bit-identical trajectories.
package agent

import (
	"math"
	"math/rand"
	"time"

	"github.com/mkollner/cfss/telemetry"
)

// Agent is a single simulated agent. It is not safe for concurrent use; run
// each agent on its own goroutine and fan out at the batch level.
type Agent struct {
	name   string
	params Params
	state  State
	env    Environment
	reg    Regulation
	nut    Nutrition

	rng     *rand.Rand
	seed    int64
	step    int
	history []telemetry.StepSnapshot
}

// New builds an agent from fully-resolved settings. Structural problems
// (non-finite scalars, negative noise magnitudes or decay rates) return a
// *ConfigError; out-of-range bounded fields are clamped into [0,1] instead
// of rejected. A zero seed is replaced with the current wall-clock nanos.
func New(s Settings) (*Agent, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	seed := s.Params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	name := s.Name
	if name == "" {
		name = "Athena"
	}

	params := s.Params
	params.Targets = params.Targets.clamped()

	return &Agent{
		name:   name,
		params: params,
		state:  s.State.clamped(),
		env:    s.Environment.clamped(),
		reg:    s.Regulation.clamped(),
		nut:    s.Nutrition.clamped(),
		rng:    rand.New(rand.NewSource(seed)),
		seed:   seed,
	}, nil
}

// Step advances the simulation by dt and returns the snapshot it recorded.
// The phases run in a fixed order: clamp the mutable inputs, compute
// pre-update composites, run the six state updates, run the action loop
// against the pre-update composites, recompute composites, record.
func (a *Agent) Step(dt float64) (telemetry.StepSnapshot, error) {
	if err := a.precheck(dt); err != nil {
		return telemetry.StepSnapshot{}, err
	}

	a.reg = a.reg.clamped()
	a.nut = a.nut.clamped()

	pre := a.computeComposites()
	a.updateState(dt, pre)
	v := a.applyAction(dt, pre)
	post := a.computeComposites()

	a.step++
	snap := a.makeSnapshot(post, v)
	a.history = append(a.history, snap)
	return snap, nil
}

// precheck rejects a step whose inputs would poison the arithmetic. The
// environment sweep matters because Temperature is unbounded: a NaN slipped
// in through SetEnvironment would otherwise spread through the composites
// into every state variable.
func (a *Agent) precheck(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return &ConfigError{Field: "dt", Reason: "must be a positive finite number"}
	}
	for _, f := range a.env.scalars() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigError{Field: f.name, Reason: "must be a finite number"}
		}
	}
	for _, f := range a.reg.scalars() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigError{Field: f.name, Reason: "must be a finite number"}
		}
	}
	for _, f := range a.nut.scalars() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigError{Field: f.name, Reason: "must be a finite number"}
		}
	}
	return nil
}

// gauss draws one sample from the agent's stream, scaled to std. A zero std
// still consumes a draw, so streams stay aligned across noise settings.
func (a *Agent) gauss(std float64) float64 {
	return a.rng.NormFloat64() * std
}

func (a *Agent) makeSnapshot(post composites, v actionVars) telemetry.StepSnapshot {
	return telemetry.StepSnapshot{
		Step: a.step,

		Pain:             a.state.Pain,
		Instability:      a.state.Instability,
		NeedForControl:   a.state.NeedForControl,
		CognitiveLoad:    a.state.CognitiveLoad,
		NeurochemBalance: a.state.NeurochemBalance,
		Fatigue:          a.state.Fatigue,

		EnvStress:  post.stress,
		RegRelief:  post.relief,
		NutSupport: post.support,

		Temperature:   a.env.Temperature,
		Confinement:   a.env.Confinement,
		SocialContact: a.env.SocialContact,
		NoiseLevel:    a.env.NoiseLevel,
		LightLevel:    a.env.LightLevel,

		Breathing:         a.reg.Breathing,
		CognitiveOverride: a.reg.CognitiveOverride,
		Pharmacology:      a.reg.Pharmacology,
		Meditation:        a.reg.Meditation,
		Exercise:          a.reg.Exercise,

		GlucoseLevel: a.nut.GlucoseLevel,
		Tryptophan:   a.nut.Tryptophan,
		Tyrosine:     a.nut.Tyrosine,
		Hydration:    a.nut.Hydration,
		VitaminB12:   a.nut.VitaminB12,

		Motivation: v.motivation,
		Ability:    v.ability,
		Dispersion: v.dispersion,
	}
}

// Name returns the agent's display name.
func (a *Agent) Name() string { return a.name }

// Seed returns the seed the agent's random stream was built from, after any
// zero-seed resolution.
func (a *Agent) Seed() int64 { return a.seed }

// State returns the current internal state.
func (a *Agent) State() State { return a.state }

// Environment returns the current environment.
func (a *Agent) Environment() Environment { return a.env }

// Regulation returns the current regulation inputs.
func (a *Agent) Regulation() Regulation { return a.reg }

// Nutrition returns the current nutrition inputs.
func (a *Agent) Nutrition() Nutrition { return a.nut }

// History returns every snapshot recorded so far, oldest first. The slice is
// the agent's own backing store; callers must treat it as read-only.
func (a *Agent) History() []telemetry.StepSnapshot { return a.history }

// SetEnvironment replaces the environment between steps. Bounded fields are
// clamped; temperature passes through. Non-finite values are rejected by the
// next Step before anything is applied.
func (a *Agent) SetEnvironment(e Environment) { a.env = e.clamped() }

// SetRegulation replaces the regulation inputs. Values are clamped at the
// start of the next step.
func (a *Agent) SetRegulation(r Regulation) { a.reg = r }

// SetNutrition replaces the nutrition inputs. Values are clamped at the
// start of the next step.
func (a *Agent) SetNutrition(n Nutrition) { a.nut = n }
