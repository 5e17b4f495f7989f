// Package projection derives chartable series from the retention model and
// tier results: a daily cumulative LTV curve, a ROAS timeline, the power-law
// fit against observed retention and the per-horizon and per-cohort views.
// Every series is recomputed from its inputs on each call.
package projection

import (
	"fmt"
	"math"

	"github.com/xtding233/ltv-backend/internal/benchmark"
	"github.com/xtding233/ltv-backend/internal/numfmt"
	"github.com/xtding233/ltv-backend/internal/retention"
	"github.com/xtding233/ltv-backend/internal/tier"
)

// DefaultDays is the length of the daily LTV curve.
const DefaultDays = 180

// FitDays is the length of the fitted retention series.
const FitDays = 30

// TimelineDays are the checkpoints of the ROAS timeline.
var TimelineDays = []int{7, 14, 30, 60, 90, 120, 180}

// ROAS bands, in percent of spend.
const (
	StrongROAS    = 150
	BreakevenROAS = 100
)

// ROASBand colours a ROAS checkpoint.
type ROASBand string

const (
	BandStrong    ROASBand = "strong"
	BandBreakeven ROASBand = "breakeven"
	BandWeak      ROASBand = "weak"
)

// BandFor places a ROAS percentage in its band.
func BandFor(roas float64) ROASBand {
	switch {
	case roas >= StrongROAS:
		return BandStrong
	case roas >= BreakevenROAS:
		return BandBreakeven
	}
	return BandWeak
}

// LTVPoint is the cumulative LTV at a horizon.
type LTVPoint struct {
	Day int     `json:"day"`
	LTV float64 `json:"ltv"`
}

// LTVCurve evaluates the basic-tier LTV at every horizon 1..days. days <= 0
// means DefaultDays.
func LTVCurve(obs retention.Observation, arpdau float64, days int) []LTVPoint {
	if days <= 0 {
		days = DefaultDays
	}
	sums := retention.IntegrateDaily(obs.Curve(), arpdau, days, retention.LTVStep, nil)
	out := make([]LTVPoint, days)
	for i, sum := range sums {
		day := i + 1
		out[i] = LTVPoint{Day: day, LTV: sum * retention.TailFactor(float64(day))}
	}
	return out
}

// ROASPoint is the cumulative ROAS at a checkpoint.
type ROASPoint struct {
	Label string   `json:"label"`
	Day   int      `json:"day"`
	ROAS  float64  `json:"roas"`
	Band  ROASBand `json:"band"`
}

// ROASTimeline evaluates LTV/CPI at each of TimelineDays.
func ROASTimeline(obs retention.Observation, arpdau, cpi float64) []ROASPoint {
	c := obs.Curve()
	out := make([]ROASPoint, 0, len(TimelineDays))
	for _, day := range TimelineDays {
		roas := retention.BasicLTV(c, arpdau, float64(day)) / cpi * 100
		out = append(out, ROASPoint{
			Label: fmt.Sprintf("D%d", day),
			Day:   day,
			ROAS:  roas,
			Band:  BandFor(roas),
		})
	}
	return out
}

// FitSeries compares observed retention with the fitted power law.
type FitSeries struct {
	Observed []retention.Point `json:"observed"`
	Curve    retention.Curve   `json:"curve"`
	// Fitted is the clamped day-1/day-7 curve, in percent, for days 1..FitDays.
	Fitted []retention.Point `json:"fitted"`
	// LogLog is the least-squares fit over every observed point; nil when
	// fewer than two points are usable.
	LogLog *retention.Fit `json:"logLog,omitempty"`
}

// RetentionFit builds the fit-versus-observed series for obs.
func RetentionFit(obs retention.Observation) FitSeries {
	c := obs.Curve()
	fitted := make([]retention.Point, FitDays)
	for i := range fitted {
		day := float64(i + 1)
		fitted[i] = retention.Point{Day: day, Pct: c.At(day) * 100}
	}
	s := FitSeries{Observed: obs.Points(), Curve: c, Fitted: fitted}
	if fit, err := retention.FitLogLog(s.Observed); err == nil {
		s.LogLog = &fit
	}
	return s
}

// HorizonBar is the LTV reported at one horizon.
type HorizonBar struct {
	Label string  `json:"label"`
	Day   int     `json:"day"`
	LTV   float64 `json:"ltv"`
}

// LTVHorizons reads the 90/180/365-day LTVs back from an advanced report.
func LTVHorizons(r tier.AdvancedResults) []HorizonBar {
	return []HorizonBar{
		{Label: "D90", Day: tier.HorizonShort, LTV: numfmt.Parse(r.LTV90)},
		{Label: "D180", Day: tier.HorizonMid, LTV: numfmt.Parse(r.LTV180)},
		{Label: "D365", Day: tier.HorizonLong, LTV: numfmt.Parse(r.LTV365)},
	}
}

// ProgressionPoint sets a reported ROAS next to its benchmark lines.
type ProgressionPoint struct {
	Label     string  `json:"label"`
	Actual    float64 `json:"actual"`
	Good      float64 `json:"good"`
	Breakeven float64 `json:"breakeven"`
}

// ROASProgression pairs the advanced D7 and D30 ROAS with the benchmark
// good and floor thresholds.
func ROASProgression(r tier.AdvancedResults) []ProgressionPoint {
	d7, _ := benchmark.Lookup("roas_d7")
	d30, _ := benchmark.Lookup("roas_d30")
	return []ProgressionPoint{
		{Label: "D7", Actual: numfmt.Parse(r.D7ROAS), Good: d7.Good, Breakeven: d7.Poor},
		{Label: "D30", Actual: numfmt.Parse(r.D30ROAS), Good: d30.Good, Breakeven: d30.Poor},
	}
}

// CohortPoint places one acquisition source by CPI and day-1 ROAS.
type CohortPoint struct {
	Source string  `json:"source"`
	CPI    float64 `json:"cpi"`
	ROAS   float64 `json:"roas"`
	Users  float64 `json:"users"`
	// Radius scales with the square root of users.
	Radius       float64 `json:"radius"`
	Revenue      float64 `json:"revenue"`
	RevenueShare float64 `json:"revenueShare"`
}

// CohortComparison lays out the cohorts of an intermediate report. Revenue
// shares are percentages of the summed revenue, 0 when nothing was earned.
func CohortComparison(r tier.IntermediateResults) []CohortPoint {
	var total float64
	for _, c := range r.Cohorts {
		total += c.Revenue
	}
	out := make([]CohortPoint, 0, len(r.Cohorts))
	for _, c := range r.Cohorts {
		p := CohortPoint{
			Source:  c.Source,
			CPI:     c.CPI,
			ROAS:    c.ROAS(),
			Users:   c.Users,
			Radius:  math.Sqrt(c.Users) / 50,
			Revenue: c.Revenue,
		}
		if total != 0 {
			p.RevenueShare = c.Revenue / total * 100
		}
		out = append(out, p)
	}
	return out
}
