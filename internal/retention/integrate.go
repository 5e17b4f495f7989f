package retention

import "math"

const (
	// LTVStep is the integration resolution, in days, for lifetime value.
	LTVStep = 0.1
	// LifetimeStep is the resolution used by PredictiveLifetime.
	LifetimeStep = 0.5
	// LifetimeHorizon is the last day summed by PredictiveLifetime.
	LifetimeHorizon = 365
	// LifetimeCap bounds PredictiveLifetime, in days.
	LifetimeCap = 30
)

// WeightFunc scales the integrand on a given day.
type WeightFunc func(day float64) float64

// Integrate sums arpdau·a·day^b·weight(day) over (0, horizon] with a
// rectangle rule. day starts at step and advances by repeated addition, so
// the accumulated float error decides whether the last step lands on the
// horizon (1800 steps for 180 days at 0.1, 3649 for 365 days). A nil weight
// means 1.
func Integrate(c Curve, arpdau, horizon, step float64, weight WeightFunc) float64 {
	if step <= 0 {
		return 0
	}
	cumulative := 0.0
	for day := step; day <= horizon; day += step {
		v := c.At(day)
		if weight != nil {
			v *= weight(day)
		}
		cumulative += v * step
	}
	return arpdau * cumulative
}

// IntegrateDaily returns Integrate at every whole-day horizon 1..days in one
// pass. Element i equals Integrate(c, arpdau, i+1, step, weight) exactly.
func IntegrateDaily(c Curve, arpdau float64, days int, step float64, weight WeightFunc) []float64 {
	if days <= 0 {
		return nil
	}
	out := make([]float64, days)
	if step <= 0 {
		return out
	}
	cumulative := 0.0
	day := step
	for i := range out {
		horizon := float64(i + 1)
		for ; day <= horizon; day += step {
			v := c.At(day)
			if weight != nil {
				v *= weight(day)
			}
			cumulative += v * step
		}
		out[i] = arpdau * cumulative
	}
	return out
}

// TailFactor tapers long horizons: 0.95 + 0.05·e^(-horizon/60).
func TailFactor(horizon float64) float64 {
	return 0.95 + 0.05*math.Exp(-horizon/60)
}

// BasicLTV integrates the plain curve and applies TailFactor.
func BasicLTV(c Curve, arpdau, horizon float64) float64 {
	return Integrate(c, arpdau, horizon, LTVStep, nil) * TailFactor(horizon)
}

// AdvancedLTV integrates the curve weighted by MonetizationCurve.
func AdvancedLTV(c Curve, arpdau, horizon float64) float64 {
	return Integrate(c, arpdau, horizon, LTVStep, MonetizationCurve)
}

// MonetizationCurve is the spend-intensity multiplier over a user's life:
// a 0.8→1.2 ramp through day 7, a linear 1.2→0.9 decline to day 30, then
// 0.9·e^(-(day-30)/180).
func MonetizationCurve(day float64) float64 {
	switch {
	case day <= 7:
		return 0.8 + (day/7)*0.4
	case day <= 30:
		return 1.2 - ((day-7)/23)*0.3
	default:
		return 0.9 * math.Exp(-(day-30)/180)
	}
}

// PredictiveLifetime estimates expected active days by summing
// (avgD1/100)·day^b at half-day steps over days 1..365, capped at 30.
func PredictiveLifetime(avgD1, b float64) float64 {
	c := Curve{A: avgD1 / 100, B: b}
	lifetime := 0.0
	for day := 1.0; day <= LifetimeHorizon; day += LifetimeStep {
		lifetime += c.At(day) * LifetimeStep
	}
	return math.Min(lifetime, LifetimeCap)
}
