package agent

// actionVars holds the diagnostics derived by the action loop.
type actionVars struct {
	motivation float64
	ability    float64
	dispersion float64
}

// applyAction closes the feedback loop: it derives how motivated and able the
// agent is to act from the post-update state and the pre-update composites,
// then nudges the environment toward relief by the product of the two.
// When act is zero the environment is left untouched and no noise is drawn.
func (a *Agent) applyAction(dt float64, c composites) actionVars {
	s := a.state
	u := invU(s.NeedForControl)

	motivation := clamp01(0.25*s.Pain + 0.20*u + 0.15*s.CognitiveLoad + 0.20*c.stress -
		0.10*c.relief - 0.10*s.Fatigue - 0.10*s.NeurochemBalance)
	ability := clamp01(0.30*s.NeurochemBalance + 0.25*c.support + 0.20*c.relief -
		0.20*s.Fatigue - 0.15*s.Pain - 0.10*s.CognitiveLoad - 0.10*c.stress + 0.10*u)
	dispersion := clamp(0.50+0.30*s.Instability+0.20*c.stress-0.20*c.relief+0.10*s.NeedForControl, 0.3, 1.7)

	v := actionVars{motivation: motivation, ability: ability, dispersion: dispersion}

	act := motivation * ability
	if act <= 0 {
		return v
	}

	step := a.params.EnvStep * act * dt
	noiseStd := a.params.DispersionNoise * dispersion
	e := &a.env

	// Draw order is fixed: temperature, confinement, noise, light, social.
	e.Temperature += step*(a.params.ComfortTemperature-e.Temperature) + a.gauss(2*noiseStd)
	e.Confinement = clamp01(e.Confinement - step*(0.25+0.75*e.Confinement) + a.gauss(noiseStd))
	e.NoiseLevel = clamp01(e.NoiseLevel - step*(0.25+0.75*e.NoiseLevel) + a.gauss(noiseStd))
	e.LightLevel = clamp01(e.LightLevel - step*(0.25+0.75*e.LightLevel) + a.gauss(noiseStd))
	e.SocialContact = clamp01(e.SocialContact + step*(0.25+0.75*(1.0-e.SocialContact)) + a.gauss(noiseStd))

	return v
}
