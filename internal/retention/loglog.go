package retention

import (
	"errors"
	"math"
)

// ErrInsufficientPoints is returned when fewer than two usable points remain.
var ErrInsufficientPoints = errors.New("retention: need at least two positive points on distinct days")

// Point is one observed retention percentage.
type Point struct {
	Day float64 `json:"day"`
	Pct float64 `json:"pct"`
}

// Fit is an unclamped least-squares power-law fit and its R² in log space.
type Fit struct {
	Curve
	R2 float64 `json:"r2"`
}

// Points lists the observed (day, pct) pairs, skipping unobserved days.
func (o Observation) Points() []Point {
	all := []Point{{1, o.D1}, {3, o.D3}, {7, o.D7}, {30, o.D30}}
	out := make([]Point, 0, len(all))
	for _, p := range all {
		if p.Pct > 0 {
			out = append(out, p)
		}
	}
	return out
}

// FitLogLog regresses ln(pct/100) on ln(day). Points with non-positive day or
// percentage are ignored. The exponent is not clamped.
func FitLogLog(points []Point) (Fit, error) {
	var xs, ys []float64
	for _, p := range points {
		if p.Day <= 0 || p.Pct <= 0 || math.IsNaN(p.Pct) || math.IsInf(p.Pct, 0) {
			continue
		}
		xs = append(xs, math.Log(p.Day))
		ys = append(ys, math.Log(p.Pct/100))
	}
	n := float64(len(xs))
	if len(xs) < 2 {
		return Fit{}, ErrInsufficientPoints
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= n
	my /= n
	var sxx, sxy, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxx += dx * dx
		sxy += dx * dy
		syy += dy * dy
	}
	if sxx == 0 {
		return Fit{}, ErrInsufficientPoints
	}
	b := sxy / sxx
	a := math.Exp(my - b*mx)
	r2 := 1.0
	if syy > 0 {
		r2 = (sxy * sxy) / (sxx * syy)
	}
	return Fit{Curve: Curve{A: a, B: b}, R2: r2}, nil
}
