// Package sensitivity estimates how uncertain an LTV figure is by re-running
// the retention model under randomly perturbed inputs.
package sensitivity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/xtding233/ltv-backend/internal/retention"
)

// ErrInvalidParams is returned for parameters Run cannot simulate.
var ErrInvalidParams = errors.New("invalid sensitivity params")

// Model selects which LTV integral a trial evaluates.
type Model string

const (
	// ModelBasic uses the tail-adjusted plain integral.
	ModelBasic Model = "basic"
	// ModelAdvanced weights the integral by the monetization curve.
	ModelAdvanced Model = "advanced"
)

const (
	DefaultHorizon = 180
	DefaultSpread  = 0.1
	MaxTrials      = 100000
	MaxHorizon     = 3650
)

// Params describes one simulation.
type Params struct {
	Model   Model   `json:"model" yaml:"model"`
	D1      float64 `json:"d1" yaml:"d1"`
	D7      float64 `json:"d7" yaml:"d7"`
	ARPDAU  float64 `json:"arpdau" yaml:"arpdau"`
	Horizon float64 `json:"horizon,omitempty" yaml:"horizon,omitempty"` // <=0 -> DefaultHorizon

	// Spread is the relative half-width of the uniform noise applied
	// independently to D1, D7 and ARPDAU: 0.1 draws each from ±10%.
	Spread float64 `json:"spread" yaml:"spread"`

	// CPI, when positive, adds the share of trials whose LTV covers it.
	CPI float64 `json:"cpi,omitempty" yaml:"cpi,omitempty"`
}

// Stats summarizes simulated LTVs.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	P10    float64 `json:"p10"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	// Optional: raw samples for histograms/exports
	Samples []float64 `json:"-"`
}

// Result is the outcome of Run.
type Result struct {
	Stats
	Trials int    `json:"trials"`
	Seed   uint64 `json:"seed"`
	// BreakevenShare is the fraction of trials with LTV >= CPI; nil without CPI.
	BreakevenShare *float64 `json:"breakevenShare,omitempty"`
}

func (p Params) withDefaults() Params {
	if p.Model == "" {
		p.Model = ModelBasic
	}
	if p.Horizon <= 0 {
		p.Horizon = DefaultHorizon
	}
	return p
}

// Validate checks p after defaults are applied.
func (p Params) Validate() error {
	p = p.withDefaults()
	var errs []string
	if p.Model != ModelBasic && p.Model != ModelAdvanced {
		errs = append(errs, fmt.Sprintf("model must be one of: basic, advanced (got %q)", p.Model))
	}
	if !(p.D1 > 0 && p.D1 <= 100) {
		errs = append(errs, fmt.Sprintf("d1 must be in (0, 100] (got %v)", p.D1))
	}
	if !(p.D7 > 0 && p.D7 <= 100) {
		errs = append(errs, fmt.Sprintf("d7 must be in (0, 100] (got %v)", p.D7))
	}
	if !(p.ARPDAU > 0) || math.IsInf(p.ARPDAU, 0) {
		errs = append(errs, fmt.Sprintf("arpdau must be > 0 (got %v)", p.ARPDAU))
	}
	if !(p.Spread >= 0 && p.Spread < 1) {
		errs = append(errs, fmt.Sprintf("spread must be in [0, 1) (got %v)", p.Spread))
	}
	if math.IsNaN(p.Horizon) {
		errs = append(errs, "horizon must be a number (got NaN)")
	} else if p.Horizon > MaxHorizon {
		errs = append(errs, fmt.Sprintf("horizon must be <= %d (got %v)", MaxHorizon, p.Horizon))
	}
	if math.IsNaN(p.CPI) || p.CPI < 0 || math.IsInf(p.CPI, 0) {
		errs = append(errs, fmt.Sprintf("cpi must be >= 0 (got %v)", p.CPI))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidParams, strings.Join(errs, "; "))
	}
	return nil
}

// calcStats computes mean/variance/percentiles for the samples.
func calcStats(xs []float64) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := v - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return cp[0]
		}
		if p >= 1 {
			return cp[n-1]
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return cp[i]
		}
		return cp[i]*(1-f) + cp[i+1]*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P10:     percentile(0.10),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		Samples: xs,
	}
}

// jitter scales v by a uniform factor in [1-spread, 1+spread).
func jitter(rng RandomSource, v, spread float64) float64 {
	return v * (1 + spread*(2*rng.Float64()-1))
}

// simulateOne draws perturbed inputs and returns their LTV.
func simulateOne(p Params, rng RandomSource) float64 {
	d1 := jitter(rng, p.D1, p.Spread)
	d7 := jitter(rng, p.D7, p.Spread)
	arpdau := jitter(rng, p.ARPDAU, p.Spread)
	c := retention.FitPowerLaw(d1, d7)
	if p.Model == ModelAdvanced {
		return retention.AdvancedLTV(c, arpdau, p.Horizon)
	}
	return retention.BasicLTV(c, arpdau, p.Horizon)
}

// Run repeats trials with a PCG source seeded by seed and returns summary
// stats. progress, if non-nil, is called after every trial with the number
// completed so far. Run stops between trials once ctx is done and returns
// ctx.Err().
func Run(ctx context.Context, p Params, trials int, seed uint64, progress func(done int)) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if trials <= 0 || trials > MaxTrials {
		return Result{}, fmt.Errorf("%w: trials must be in [1, %d] (got %d)", ErrInvalidParams, MaxTrials, trials)
	}
	p = p.withDefaults()
	rng := NewSeededRNG(seed)
	samples := make([]float64, trials)
	covered := 0
	for i := 0; i < trials; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		samples[i] = simulateOne(p, rng)
		if p.CPI > 0 && samples[i] >= p.CPI {
			covered++
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	res := Result{Stats: calcStats(samples), Trials: trials, Seed: seed}
	if p.CPI > 0 {
		share := float64(covered) / float64(trials)
		res.BreakevenShare = &share
	}
	return res, nil
}
