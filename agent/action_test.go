package agent

import (
	"math"
	"math/rand"
	"testing"
)

// The action diagnostics blend the freshly updated state with the composites
// from the start of the step, not the post-action ones.
func TestActionDiagnosticsUsePreUpdateComposites(t *testing.T) {
	a := mustAgent(t, noiseFree())
	env0 := a.Environment()
	reg0 := a.Regulation()
	nut0 := a.Nutrition()

	snap, err := a.Step(1.0)
	if err != nil {
		t.Fatalf("Step() failed: %v", err)
	}

	stress := EnvironmentalStress(env0, 22)
	relief := RegulatoryRelief(reg0)
	support := NutritionalSupport(nut0)
	u := invU(snap.NeedForControl)

	wantMotivation := clamp01(0.25*snap.Pain + 0.20*u + 0.15*snap.CognitiveLoad + 0.20*stress -
		0.10*relief - 0.10*snap.Fatigue - 0.10*snap.NeurochemBalance)
	wantAbility := clamp01(0.30*snap.NeurochemBalance + 0.25*support + 0.20*relief -
		0.20*snap.Fatigue - 0.15*snap.Pain - 0.10*snap.CognitiveLoad - 0.10*stress + 0.10*u)
	wantDispersion := clamp(0.50+0.30*snap.Instability+0.20*stress-0.20*relief+0.10*snap.NeedForControl, 0.3, 1.7)

	if math.Abs(snap.Motivation-wantMotivation) > 1e-12 {
		t.Errorf("motivation = %v, want %v", snap.Motivation, wantMotivation)
	}
	if math.Abs(snap.Ability-wantAbility) > 1e-12 {
		t.Errorf("ability = %v, want %v", snap.Ability, wantAbility)
	}
	if math.Abs(snap.Dispersion-wantDispersion) > 1e-12 {
		t.Errorf("dispersion = %v, want %v", snap.Dispersion, wantDispersion)
	}
}

func TestDispersionStaysInBand(t *testing.T) {
	a := mustAgent(t, noiseFree())

	// Fully destabilized: 0.5 + 0.3 + 0.2 + 0.1 = 1.1, inside the band.
	a.state = State{Instability: 1, NeedForControl: 1}
	v := a.applyAction(1.0, composites{stress: 1})
	if math.Abs(v.dispersion-1.1) > 1e-12 {
		t.Errorf("destabilized dispersion = %v, want 1.1", v.dispersion)
	}

	// Fully regulated: 0.5 - 0.2 lands exactly on the floor.
	a.state = State{}
	v = a.applyAction(1.0, composites{relief: 1})
	if math.Abs(v.dispersion-0.3) > 1e-12 {
		t.Errorf("regulated dispersion = %v, want 0.3", v.dispersion)
	}
}

// A fully sated, exhausted agent has nothing to gain from acting: motivation
// clamps to zero and the environment must not move, not even by noise.
func TestIdleAgentLeavesEnvironmentUntouched(t *testing.T) {
	s := DefaultSettings()
	s.State = State{Fatigue: 1, NeurochemBalance: 1}
	s.Environment = Environment{Temperature: 22, SocialContact: 1}
	s.Regulation = Regulation{Breathing: 1, CognitiveOverride: 1, Pharmacology: 1, Meditation: 1, Exercise: 1}
	s.Params.NoiseStd = 0
	s.Params.DispersionNoise = 1.0
	a := mustAgent(t, s)

	env0 := a.Environment()
	for i := 0; i < 10; i++ {
		snap, err := a.Step(1.0)
		if err != nil {
			t.Fatalf("Step() failed: %v", err)
		}
		if snap.Motivation != 0 {
			t.Fatalf("step %d: motivation = %v, want 0", snap.Step, snap.Motivation)
		}
		if a.Environment() != env0 {
			t.Fatalf("step %d: environment moved: %+v", snap.Step, a.Environment())
		}
	}
}

// With state noise off, the five environment draws are the seventh through
// eleventh samples of the stream, applied in the order temperature,
// confinement, noise, light, social.
func TestEnvironmentNoiseDrawOrder(t *testing.T) {
	s := noiseFree()
	s.Params.DispersionNoise = 0.01
	s.Params.Seed = 4242
	a := mustAgent(t, s)

	snap, err := a.Step(1.0)
	if err != nil {
		t.Fatalf("Step() failed: %v", err)
	}

	r := rand.New(rand.NewSource(4242))
	for i := 0; i < 6; i++ {
		r.NormFloat64() // consumed by the state updates
	}
	n1, n2, n3, n4, n5 := r.NormFloat64(), r.NormFloat64(), r.NormFloat64(), r.NormFloat64(), r.NormFloat64()

	step := 0.05 * snap.Motivation * snap.Ability
	sigma := 0.01 * snap.Dispersion

	want := []struct {
		name string
		got  float64
		want float64
	}{
		{"temperature", snap.Temperature, 22 + step*(22-22) + n1*(2*sigma)},
		{"confinement", snap.Confinement, clamp01(0.2 - step*(0.25+0.75*0.2) + n2*sigma)},
		{"noise_level", snap.NoiseLevel, clamp01(0.3 - step*(0.25+0.75*0.3) + n3*sigma)},
		{"light_level", snap.LightLevel, clamp01(0.6 - step*(0.25+0.75*0.6) + n4*sigma)},
		{"social_contact", snap.SocialContact, clamp01(0.5 + step*(0.25+0.75*(1.0-0.5)) + n5*sigma)},
	}
	for _, w := range want {
		if math.Abs(w.got-w.want) > 1e-12 {
			t.Errorf("%s = %v, want %v", w.name, w.got, w.want)
		}
	}
}

// Temperature is pulled toward comfort from either side and is never folded
// into [0,1].
func TestTemperatureApproachesComfort(t *testing.T) {
	hot := noiseFree()
	hot.Environment.Temperature = 40
	a := mustAgent(t, hot)
	snap, err := a.Step(1.0)
	if err != nil {
		t.Fatalf("Step() failed: %v", err)
	}
	if snap.Temperature >= 40 || snap.Temperature <= 22 {
		t.Errorf("hot start: temperature = %v, want between 22 and 40", snap.Temperature)
	}

	cold := noiseFree()
	cold.Environment.Temperature = 5
	b := mustAgent(t, cold)
	snap, err = b.Step(1.0)
	if err != nil {
		t.Fatalf("Step() failed: %v", err)
	}
	if snap.Temperature <= 5 || snap.Temperature >= 22 {
		t.Errorf("cold start: temperature = %v, want between 5 and 22", snap.Temperature)
	}
}

func TestActionEasesEnvironment(t *testing.T) {
	a := mustAgent(t, noiseFree())
	env0 := a.Environment()

	snap, err := a.Step(1.0)
	if err != nil {
		t.Fatalf("Step() failed: %v", err)
	}

	if snap.Confinement >= env0.Confinement {
		t.Errorf("confinement %v did not ease from %v", snap.Confinement, env0.Confinement)
	}
	if snap.NoiseLevel >= env0.NoiseLevel {
		t.Errorf("noise level %v did not ease from %v", snap.NoiseLevel, env0.NoiseLevel)
	}
	if snap.LightLevel >= env0.LightLevel {
		t.Errorf("light level %v did not ease from %v", snap.LightLevel, env0.LightLevel)
	}
	if snap.SocialContact <= env0.SocialContact {
		t.Errorf("social contact %v did not rise from %v", snap.SocialContact, env0.SocialContact)
	}

	// At comfort already, with noise off the temperature term is exactly zero.
	if snap.Temperature != 22 {
		t.Errorf("temperature = %v, want exactly 22", snap.Temperature)
	}
}
