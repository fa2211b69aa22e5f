package agent

// updateState runs the six coupled update equations. The order is fixed and
// load-bearing: each equation reads the already-updated values of the ones
// before it in the same pass, so reordering changes trajectories.
func (a *Agent) updateState(dt float64, c composites) {
	s := &a.state
	w := a.params.Weights
	t := a.params.Targets

	// 1. Cognitive load
	loadPush := w.CognitiveLoad.Env*c.stress +
		w.CognitiveLoad.Internal*(0.6*s.Pain+0.4*s.Instability) -
		w.CognitiveLoad.Regulation*c.relief -
		w.CognitiveLoad.Nutrition*c.support
	s.CognitiveLoad = a.advance(s.CognitiveLoad, loadPush, t.CognitiveLoad, w.CognitiveLoad.Decay, dt)

	// 2. Pain
	painPush := w.Pain.Env*(0.5*c.stress+0.5*c.tempDisc) +
		w.Pain.Internal*(0.6*s.Instability+0.4*s.Fatigue) -
		w.Pain.Regulation*(0.4*c.relief+0.4*a.reg.Pharmacology) -
		w.Pain.Nutrition*(0.6*a.nut.Hydration+0.4*a.nut.GlucoseLevel)
	s.Pain = a.advance(s.Pain, painPush, t.Pain, w.Pain.Decay, dt)

	// 3. Fatigue
	fatiguePush := w.Fatigue.Env*(0.3*c.stress+0.2*a.env.LightLevel) +
		w.Fatigue.Internal*(0.6*s.CognitiveLoad+0.4*s.Pain) +
		w.Fatigue.Regulation*(0.15*a.reg.Exercise) -
		w.Fatigue.Nutrition*(0.6*a.nut.GlucoseLevel+0.4*a.nut.Hydration)
	s.Fatigue = a.advance(s.Fatigue, fatiguePush, t.Fatigue, w.Fatigue.Decay, dt)

	// 4. Neurochemical balance
	balancePush := -w.NeurochemBalance.Env*c.stress -
		w.NeurochemBalance.Internal*(0.5*s.CognitiveLoad+0.5*s.Pain) +
		w.NeurochemBalance.Regulation*(0.4*a.reg.Meditation+0.3*a.reg.Exercise) +
		w.NeurochemBalance.Nutrition*(0.5*a.nut.Tryptophan+0.4*a.nut.Tyrosine+0.3*a.nut.VitaminB12)
	s.NeurochemBalance = a.advance(s.NeurochemBalance, balancePush, t.NeurochemBalance, w.NeurochemBalance.Decay, dt)

	// 5. Instability
	instPush := w.Instability.Env*(c.stress+0.2*a.env.NoiseLevel) +
		w.Instability.Internal*(0.4*s.CognitiveLoad+0.4*s.Fatigue+0.2*s.Pain) -
		w.Instability.Regulation*c.relief -
		w.Instability.Nutrition*c.support
	s.Instability = a.advance(s.Instability, instPush, t.Instability, w.Instability.Decay, dt)

	// 6. Need for control
	controlPush := w.NeedForControl.Env*c.unpredict +
		w.NeedForControl.Internal*(0.6*s.Instability+0.4*s.Pain) -
		w.NeedForControl.Regulation*(0.5*a.reg.Breathing+0.5*a.reg.Meditation) -
		w.NeedForControl.Nutrition*(0.3*c.support)
	s.NeedForControl = a.advance(s.NeedForControl, controlPush, t.NeedForControl, w.NeedForControl.Decay, dt)
}

// advance applies one variable's update rule at pre-update value x: the
// homeostatic pull toward target, the saturation-damped push, and
// edge-amplified Gaussian noise, clamped back into [0,1].
func (a *Agent) advance(x, push, target, decay, dt float64) float64 {
	pulled := pull(x, target, decay*dt)
	noise := a.gauss(a.params.NoiseStd * (0.5 + 0.5*edge(x)))
	return clamp01(pulled + dt*push*sat(x) + noise)
}
