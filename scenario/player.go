package scenario

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/mkollner/cfss/agent"
)

// Player applies a schedule to one agent, step by step. It carries the
// per-track noise generators and the pulse restore points, so each agent in
// a batch needs its own Player.
type Player struct {
	schedule Schedule
	noise    []opensimplex.Noise
	pulses   []pulseState
}

type pulseState struct {
	captured bool
	value    float64
}

// inputs bundles the agent-facing sections a schedule may drive.
type inputs struct {
	env agent.Environment
	reg agent.Regulation
	nut agent.Nutrition
}

// NewPlayer prepares a validated schedule for playback. Fluctuate tracks get
// independent noise layers derived from seed, the way terrain layers are
// seeded apart.
func NewPlayer(sch Schedule, seed int64) *Player {
	p := &Player{
		schedule: sch,
		noise:    make([]opensimplex.Noise, len(sch.Tracks)),
		pulses:   make([]pulseState, len(sch.Tracks)),
	}
	for i, tr := range sch.Tracks {
		if tr.Mode == ModeFluctuate {
			p.noise[i] = opensimplex.NewNormalized(seed + int64(i))
		}
	}
	return p
}

// Apply imposes every track active at the given step on the agent. Call it
// before the agent's own step so the update pass sees the scheduled
// conditions. Tracks are applied in order; a later track wins on a shared
// field.
func (p *Player) Apply(step int, ag *agent.Agent) {
	in := inputs{env: ag.Environment(), reg: ag.Regulation(), nut: ag.Nutrition()}
	var envChanged, regChanged, nutChanged bool

	for i, tr := range p.schedule.Tracks {
		v, ok := p.trackValue(i, tr, step, in)
		if !ok {
			continue
		}
		setField(&in, tr.Field, v)
		switch trackFields[tr.Field] {
		case sectionEnvironment:
			envChanged = true
		case sectionRegulation:
			regChanged = true
		case sectionNutrition:
			nutChanged = true
		}
	}

	if envChanged {
		ag.SetEnvironment(in.env)
	}
	if regChanged {
		ag.SetRegulation(in.reg)
	}
	if nutChanged {
		ag.SetNutrition(in.nut)
	}
}

// trackValue computes what the track imposes at this step, if anything.
func (p *Player) trackValue(i int, tr Track, step int, in inputs) (float64, bool) {
	active := step >= tr.From && (tr.To == 0 || step <= tr.To)

	switch tr.Mode {
	case ModeConstant:
		if !active {
			return 0, false
		}
		return tr.Value, true

	case ModeRamp:
		if step < tr.From {
			return 0, false
		}
		progress := float64(step-tr.From) / float64(tr.To-tr.From)
		if progress > 1 {
			progress = 1
		}
		return tr.Start + progress*(tr.Value-tr.Start), true

	case ModePulse:
		if active {
			if !p.pulses[i].captured {
				p.pulses[i] = pulseState{captured: true, value: fieldValue(in, tr.Field)}
			}
			return tr.Value, true
		}
		if step > tr.To && p.pulses[i].captured {
			v := p.pulses[i].value
			p.pulses[i] = pulseState{}
			return v, true
		}
		return 0, false

	case ModeFluctuate:
		if !active {
			return 0, false
		}
		// NewNormalized yields [0,1]; recentre to [-1,1] around the value.
		n := p.noise[i].Eval2(float64(step)/tr.Period, 0.5)
		return tr.Value + tr.Amplitude*(2*n-1), true
	}

	return 0, false
}

func fieldValue(in inputs, field string) float64 {
	switch field {
	case "temperature":
		return in.env.Temperature
	case "confinement":
		return in.env.Confinement
	case "social_contact":
		return in.env.SocialContact
	case "noise_level":
		return in.env.NoiseLevel
	case "light_level":
		return in.env.LightLevel
	case "breathing":
		return in.reg.Breathing
	case "cognitive_override":
		return in.reg.CognitiveOverride
	case "pharmacology":
		return in.reg.Pharmacology
	case "meditation":
		return in.reg.Meditation
	case "exercise":
		return in.reg.Exercise
	case "glucose_level":
		return in.nut.GlucoseLevel
	case "tryptophan":
		return in.nut.Tryptophan
	case "tyrosine":
		return in.nut.Tyrosine
	case "hydration":
		return in.nut.Hydration
	case "vitamin_b12":
		return in.nut.VitaminB12
	}
	return 0
}

func setField(in *inputs, field string, v float64) {
	switch field {
	case "temperature":
		in.env.Temperature = v
	case "confinement":
		in.env.Confinement = v
	case "social_contact":
		in.env.SocialContact = v
	case "noise_level":
		in.env.NoiseLevel = v
	case "light_level":
		in.env.LightLevel = v
	case "breathing":
		in.reg.Breathing = v
	case "cognitive_override":
		in.reg.CognitiveOverride = v
	case "pharmacology":
		in.reg.Pharmacology = v
	case "meditation":
		in.reg.Meditation = v
	case "exercise":
		in.reg.Exercise = v
	case "glucose_level":
		in.nut.GlucoseLevel = v
	case "tryptophan":
		in.nut.Tryptophan = v
	case "tyrosine":
		in.nut.Tyrosine = v
	case "hydration":
		in.nut.Hydration = v
	case "vitamin_b12":
		in.nut.VitaminB12 = v
	}
}
