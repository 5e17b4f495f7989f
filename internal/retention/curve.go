// Package retention models cohort retention as a power law r(day) = a·day^b
// and integrates it into cumulative lifetime value.
package retention

import "math"

const (
	// MinExponent and MaxExponent bound the fitted decay exponent so the
	// curve always decreases and stays integrable.
	MinExponent = -2.0
	MaxExponent = -0.1
)

// Observation holds retained-user percentages (0..100) at day 1, 3, 7 and 30.
// D3 and D30 are optional; zero means not observed.
type Observation struct {
	D1  float64 `json:"d1" yaml:"d1"`
	D3  float64 `json:"d3,omitempty" yaml:"d3,omitempty"`
	D7  float64 `json:"d7" yaml:"d7"`
	D30 float64 `json:"d30,omitempty" yaml:"d30,omitempty"`
}

// Curve is a fitted power-law retention curve. A is the day-1 retention as a
// fraction, B the decay exponent.
type Curve struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// FitPowerLaw fits a curve through the day-1 and day-7 percentages.
// b = ln(d7/d1)/ln(7), clamped to [MinExponent, MaxExponent]; a = d1/100.
// Nothing is validated: d7 == 0 clamps to -2, d1 == 0 clamps to -0.1, and an
// undefined ratio leaves b as NaN.
func FitPowerLaw(d1, d7 float64) Curve {
	b := math.Log((d7/100)/(d1/100)) / math.Log(7)
	b = math.Max(MinExponent, math.Min(b, MaxExponent))
	return Curve{A: d1 / 100, B: b}
}

// Curve fits the observation's day-1 and day-7 points.
func (o Observation) Curve() Curve {
	return FitPowerLaw(o.D1, o.D7)
}

// At returns the retained fraction on the given day.
func (c Curve) At(day float64) float64 {
	return c.A * math.Pow(day, c.B)
}
