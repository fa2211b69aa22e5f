package agent

// EnvironmentalStress aggregates the environment into a [0,1] stress level.
// Social contact enters as a deficit: isolation is stressful, company is not.
func EnvironmentalStress(e Environment, comfort float64) float64 {
	socialDeficit := 1.0 - e.SocialContact
	return clamp01(
		0.35*TempDiscomfort(e.Temperature, comfort) +
			0.25*e.Confinement +
			0.20*e.NoiseLevel +
			0.20*e.LightLevel +
			0.20*socialDeficit)
}

// RegulatoryRelief aggregates the coping channels into a [0,1] relief level.
// The weights deliberately sum to 1.45: stacking several channels is rewarded
// beyond a convex combination, and the final clamp caps the total.
func RegulatoryRelief(r Regulation) float64 {
	return clamp01(
		0.35*r.Breathing +
			0.30*r.Meditation +
			0.25*r.CognitiveOverride +
			0.15*r.Exercise +
			0.40*r.Pharmacology)
}

// NutritionalSupport aggregates the metabolic inputs into a [0,1] support level.
func NutritionalSupport(n Nutrition) float64 {
	return clamp01(
		0.30*n.GlucoseLevel +
			0.30*n.Hydration +
			0.25*n.Tryptophan +
			0.20*n.Tyrosine +
			0.15*n.VitaminB12)
}

// unpredictability estimates how erratic the environment feels: loud and
// isolated reads as unpredictable.
func unpredictability(e Environment) float64 {
	return clamp01(0.6*e.NoiseLevel + 0.4*(1.0-e.SocialContact))
}

// composites carries the derived indicators for one phase of a step.
type composites struct {
	stress    float64
	relief    float64
	support   float64
	tempDisc  float64
	unpredict float64
}

// computeComposites derives all indicators from the current inputs.
func (a *Agent) computeComposites() composites {
	return composites{
		stress:    EnvironmentalStress(a.env, a.params.ComfortTemperature),
		relief:    RegulatoryRelief(a.reg),
		support:   NutritionalSupport(a.nut),
		tempDisc:  TempDiscomfort(a.env.Temperature, a.params.ComfortTemperature),
		unpredict: unpredictability(a.env),
	}
}
