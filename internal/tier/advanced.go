package tier

import (
	"math"

	"github.com/xtding233/ltv-backend/internal/numfmt"
	"github.com/xtding233/ltv-backend/internal/policy"
	"github.com/xtding233/ltv-backend/internal/retention"
)

// Target markets. Anything else is treated as tier 3.
const (
	MarketTier1 = "tier1"
	MarketTier2 = "tier2"
	MarketTier3 = "tier3"
)

// LTV horizons of the advanced tier, in days.
const (
	HorizonShort = 90
	HorizonMid   = 180
	HorizonLong  = 365
)

// AdvancedInput describes a cohort with four retention points, split
// monetization and viral uplift.
type AdvancedInput struct {
	D1            float64 `json:"d1" yaml:"d1"`
	D3            float64 `json:"d3" yaml:"d3"`
	D7            float64 `json:"d7" yaml:"d7"`
	D30           float64 `json:"d30" yaml:"d30"`
	IAPARPDAU     float64 `json:"iapArpdau" yaml:"iapArpdau"`
	AdARPDAU      float64 `json:"adArpdau" yaml:"adArpdau"`
	TotalSpend    float64 `json:"totalSpend" yaml:"totalSpend"`
	TotalInstalls float64 `json:"totalInstalls" yaml:"totalInstalls"`
	KFactor       float64 `json:"kFactor" yaml:"kFactor"`
	Market        string  `json:"market" yaml:"market"`
	// PayingShare (fraction 0..1) and ARPPU are accepted and not used.
	PayingShare float64 `json:"payingShare,omitempty" yaml:"payingShare,omitempty"`
	ARPPU       float64 `json:"arppu,omitempty" yaml:"arppu,omitempty"`
}

// MonetizationMix is the IAP / ad share of blended ARPDAU, in whole percent.
type MonetizationMix struct {
	IAP string `json:"iap"`
	Ads string `json:"ads"`
}

// AdvancedResults are the formatted advanced-tier metrics.
type AdvancedResults struct {
	CPI                     string          `json:"cpi"`
	ECPI                    string          `json:"eCPI"`
	OrganicUplift           string          `json:"organicUplift"`
	LTV90                   string          `json:"ltv90"`
	LTV180                  string          `json:"ltv180"`
	LTV365                  string          `json:"ltv365"`
	LTVCPIRatio180          string          `json:"ltvCpiRatio180"`
	D7ROAS                  string          `json:"d7Roas"`
	D30ROAS                 string          `json:"d30Roas"`
	PaybackDays             string          `json:"paybackDays"`
	BlendedARPDAU           string          `json:"blendedArpdau"`
	MonetizationMix         MonetizationMix `json:"monetizationMix"`
	RetentionHealth         string          `json:"retentionHealth"`
	ProjectedMonthlyRevenue string          `json:"projectedMonthlyRevenue"`
	NextSteps               string          `json:"nextSteps"`
}

// Advanced computes monetization-weighted LTV at 90, 180 and 365 days against
// a k-factor adjusted CPI and decides on the 180-day LTV:CPI ratio as
// reported, i.e. rounded to two decimals. The market line is always the last
// insight.
func (e *Evaluator) Advanced(in AdvancedInput) (Report[AdvancedResults], error) {
	cpi := 0.0
	if in.TotalInstalls > 0 {
		cpi = in.TotalSpend / in.TotalInstalls
	}
	effectiveInstalls := in.TotalInstalls * (1 + in.KFactor)
	eCPI := 0.0
	if effectiveInstalls > 0 {
		eCPI = in.TotalSpend / effectiveInstalls
	}
	curve := retention.FitPowerLaw(in.D1, in.D7)
	blended := in.IAPARPDAU + in.AdARPDAU
	ltv90 := retention.AdvancedLTV(curve, blended, HorizonShort)
	ltv180 := retention.AdvancedLTV(curve, blended, HorizonMid)
	ltv365 := retention.AdvancedLTV(curve, blended, HorizonLong)
	d7Revenue := blended * 7 * (in.D7 / 100)
	d30Revenue := blended * 30 * (in.D30 / 100)

	var d7Roas, d30Roas, ratio float64
	if eCPI > 0 {
		d7Roas = d7Revenue / eCPI * 100
		d30Roas = d30Revenue / eCPI * 100
		ratio = ltv180 / eCPI
	}
	payback := math.Inf(1)
	mix := MonetizationMix{IAP: "0", Ads: "0"}
	if blended > 0 {
		payback = numfmt.Round(eCPI / blended)
		mix = MonetizationMix{
			IAP: numfmt.Fixed(in.IAPARPDAU/blended*100, 0),
			Ads: numfmt.Fixed(in.AdARPDAU/blended*100, 0),
		}
	}

	res := AdvancedResults{
		CPI:                     numfmt.Fixed(cpi, 2),
		ECPI:                    numfmt.Fixed(eCPI, 2),
		OrganicUplift:           numfmt.Fixed(in.KFactor*100, 0),
		LTV90:                   numfmt.Fixed(ltv90, 2),
		LTV180:                  numfmt.Fixed(ltv180, 2),
		LTV365:                  numfmt.Fixed(ltv365, 2),
		LTVCPIRatio180:          numfmt.Fixed(ratio, 2),
		D7ROAS:                  numfmt.Fixed(d7Roas, 1),
		D30ROAS:                 numfmt.Fixed(d30Roas, 1),
		PaybackDays:             numfmt.Number(payback),
		BlendedARPDAU:           numfmt.Fixed(blended, 3),
		MonetizationMix:         mix,
		RetentionHealth:         RetentionHealth(in.D1, in.D7, in.D30),
		ProjectedMonthlyRevenue: numfmt.Fixed(ltv180*in.TotalInstalls*6/180, 0),
	}

	v, err := e.decide(policy.TierAdvanced, map[string]any{
		"d1":             in.D1,
		"d3":             in.D3,
		"d7":             in.D7,
		"d30":            in.D30,
		"iapArpdau":      in.IAPARPDAU,
		"adArpdau":       in.AdARPDAU,
		"blendedArpdau":  blended,
		"totalSpend":     in.TotalSpend,
		"totalInstalls":  in.TotalInstalls,
		"kFactor":        in.KFactor,
		"cpi":            cpi,
		"eCPI":           eCPI,
		"ltv90":          ltv90,
		"ltv180":         ltv180,
		"ltv365":         ltv365,
		"ltvCpiRatio180": numfmt.Parse(res.LTVCPIRatio180),
		"d7Roas":         d7Roas,
		"d30Roas":        d30Roas,
		"paybackDays":    payback,
	})
	if err != nil {
		return Report[AdvancedResults]{}, err
	}
	res.NextSteps = NextSteps(v.decision)
	return Report[AdvancedResults]{
		Results:  res,
		Decision: v.decision,
		Insights: append(v.insights, MarketCommentary(in.Market)),
		Rule:     v.rule,
	}, nil
}

// MarketCommentary is the closing insight for a target market.
func MarketCommentary(market string) string {
	switch market {
	case MarketTier1:
		return "Tier 1 markets: Higher CPIs but stronger monetization potential"
	case MarketTier2:
		return "Tier 2 markets: Balanced CPI and monetization"
	}
	return "Tier 3 markets: Lower CPIs but requires volume for profitability"
}
