package tier

import (
	"github.com/xtding233/ltv-backend/internal/numfmt"
	"github.com/xtding233/ltv-backend/internal/policy"
	"github.com/xtding233/ltv-backend/internal/retention"
)

// BasicHorizon is the LTV horizon of the basic tier, in days.
const BasicHorizon = 180

// BasicInput is a single cohort described by two retention points.
type BasicInput struct {
	D1     float64 `json:"d1" yaml:"d1"`
	D7     float64 `json:"d7" yaml:"d7"`
	ARPDAU float64 `json:"arpdau" yaml:"arpdau"`
	CPI    float64 `json:"cpi" yaml:"cpi"`
	// Genre is accepted for future segmentation and not used.
	Genre string `json:"genre,omitempty" yaml:"genre,omitempty"`
}

// BasicResults are the formatted basic-tier metrics.
type BasicResults struct {
	LTV         string `json:"ltv"`
	LTVCPIRatio string `json:"ltvCpiRatio"`
	D7ROAS      string `json:"d7Roas"`
	ROI         string `json:"roi"`
	D1          string `json:"d1"`
	D7          string `json:"d7"`
	PaybackDays string `json:"paybackDays"`
}

// Basic computes 180-day LTV from the day-1/day-7 power law and decides on
// the LTV:CPI ratio.
func (e *Evaluator) Basic(in BasicInput) (Report[BasicResults], error) {
	curve := retention.FitPowerLaw(in.D1, in.D7)
	ltv := retention.BasicLTV(curve, in.ARPDAU, BasicHorizon)
	ratio := ltv / in.CPI
	d7Roas := in.ARPDAU * 7 * (in.D7 / 100) / in.CPI * 100
	roi := (ltv - in.CPI) / in.CPI * 100
	payback := numfmt.Round(in.CPI / (in.ARPDAU * (in.D7 / 100)))

	res := BasicResults{
		LTV:         numfmt.Fixed(ltv, 2),
		LTVCPIRatio: numfmt.Fixed(ratio, 2),
		D7ROAS:      numfmt.Fixed(d7Roas, 1),
		ROI:         numfmt.Fixed(roi, 1),
		D1:          numfmt.Number(in.D1),
		D7:          numfmt.Number(in.D7),
		PaybackDays: numfmt.Number(payback),
	}

	v, err := e.decide(policy.TierBasic, map[string]any{
		"d1":          in.D1,
		"d7":          in.D7,
		"arpdau":      in.ARPDAU,
		"cpi":         in.CPI,
		"ltv":         ltv,
		"ltvCpiRatio": ratio,
		"d7Roas":      d7Roas,
		"roi":         roi,
		"paybackDays": payback,
	})
	if err != nil {
		return Report[BasicResults]{}, err
	}
	return Report[BasicResults]{Results: res, Decision: v.decision, Insights: v.insights, Rule: v.rule}, nil
}
