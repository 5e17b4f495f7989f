package tier

import (
	"fmt"
	"math"

	"github.com/xtding233/ltv-backend/internal/numfmt"
	"github.com/xtding233/ltv-backend/internal/policy"
	"github.com/xtding233/ltv-backend/internal/retention"
)

// decayFloor replaces non-positive retention before taking logs.
const decayFloor = 0.0001

// CohortRow is one acquisition source as entered by the caller.
type CohortRow struct {
	Source string  `json:"source" yaml:"source"`
	Users  float64 `json:"users" yaml:"users"`
	CPI    float64 `json:"cpi" yaml:"cpi"`
	D1     float64 `json:"d1" yaml:"d1"`
	D1ARPU float64 `json:"d1Arpu" yaml:"d1Arpu"`
}

// Cohort is a CohortRow with its spend and day-1 revenue.
type Cohort struct {
	CohortRow
	Spend   float64 `json:"spend"`
	Revenue float64 `json:"revenue"`
}

// ROAS is the cohort's day-1 revenue over spend, in percent; 0 without spend.
func (c Cohort) ROAS() float64 {
	if c.Spend > 0 {
		return c.Revenue / c.Spend * 100
	}
	return 0
}

// IntermediateInput blends several acquisition sources.
type IntermediateInput struct {
	Rows      []CohortRow `json:"rows" yaml:"rows"`
	D30       float64     `json:"d30" yaml:"d30"`
	TargetDay float64     `json:"targetDay" yaml:"targetDay"`
}

// IntermediateResults are the formatted intermediate-tier metrics.
type IntermediateResults struct {
	TotalSpend         string   `json:"totalSpend"`
	TotalUsers         string   `json:"totalUsers"`
	AvgCPI             string   `json:"avgCPI"`
	AvgD1              string   `json:"avgD1"`
	D1ROAS             string   `json:"d1Roas"`
	ProjectedROAS      string   `json:"projectedRoas"`
	EstimatedLTV       string   `json:"estimatedLTV"`
	Cohorts            []Cohort `json:"cohorts"`
	MLReadinessScore   string   `json:"mlReadinessScore"`
	PredictiveLifetime string   `json:"predictiveLifetime"`
}

// Intermediate aggregates the cohorts, projects ROAS at TargetDay from the
// day-1 ARPU and a lifetime estimate, and decides on the projection.
func (e *Evaluator) Intermediate(in IntermediateInput) (Report[IntermediateResults], error) {
	cohorts := make([]Cohort, 0, len(in.Rows))
	var totalSpend, totalUsers, weightedD1, weightedCPI, totalRevenue float64
	for _, row := range in.Rows {
		c := Cohort{CohortRow: row, Spend: row.Users * row.CPI, Revenue: row.Users * row.D1ARPU}
		totalSpend += c.Spend
		totalUsers += row.Users
		weightedD1 += row.D1 * row.Users
		weightedCPI += row.CPI * row.Users
		totalRevenue += c.Revenue
		cohorts = append(cohorts, c)
	}

	avgD1 := weightedD1 / math.Max(totalUsers, 1)
	avgCPI := weightedCPI / math.Max(totalUsers, 1)
	d1Roas := 0.0
	if totalSpend > 0 {
		d1Roas = totalRevenue / totalSpend * 100
	}
	d1ARPU := 0.0
	if totalUsers > 0 {
		d1ARPU = totalRevenue / totalUsers
	}
	decay := math.Log(math.Max(in.D30, decayFloor)/math.Max(avgD1, decayFloor)) / math.Log(30)
	lifetime := retention.PredictiveLifetime(avgD1, decay)
	estimatedLTV := d1ARPU * lifetime * (in.TargetDay / 30)
	projectedRoas := 0.0
	if totalSpend > 0 {
		projectedRoas = estimatedLTV * totalUsers / totalSpend * 100
	}
	mlScore := MLReadinessScore(cohorts, avgD1, in.D30)

	res := IntermediateResults{
		TotalSpend:         numfmt.Fixed(totalSpend, 0),
		TotalUsers:         numfmt.Fixed(totalUsers, 0),
		AvgCPI:             numfmt.Fixed(avgCPI, 2),
		AvgD1:              numfmt.Fixed(avgD1, 1),
		D1ROAS:             numfmt.Fixed(d1Roas, 1),
		ProjectedROAS:      numfmt.Fixed(projectedRoas, 1),
		EstimatedLTV:       numfmt.Fixed(estimatedLTV, 2),
		Cohorts:            cohorts,
		MLReadinessScore:   numfmt.Fixed(mlScore, 1),
		PredictiveLifetime: numfmt.Fixed(lifetime, 1),
	}

	insights := cohortInsights(cohorts, d1Roas)
	v, err := e.decide(policy.TierIntermediate, map[string]any{
		"d30":                in.D30,
		"targetDay":          in.TargetDay,
		"cohortCount":        float64(len(cohorts)),
		"totalSpend":         totalSpend,
		"totalUsers":         totalUsers,
		"totalRevenue":       totalRevenue,
		"avgCPI":             avgCPI,
		"avgD1":              avgD1,
		"d1Roas":             d1Roas,
		"retentionDecay":     decay,
		"predictiveLifetime": lifetime,
		"estimatedLTV":       estimatedLTV,
		"projectedRoas":      projectedRoas,
		"mlReadinessScore":   mlScore,
	})
	if err != nil {
		return Report[IntermediateResults]{}, err
	}
	return Report[IntermediateResults]{
		Results:  res,
		Decision: v.decision,
		Insights: append(insights, v.insights...),
		Rule:     v.rule,
	}, nil
}

// cohortInsights flags sources whose day-1 ROAS is more than 20% away from
// the blended figure, in input order.
func cohortInsights(cohorts []Cohort, d1Roas float64) []string {
	out := []string{}
	if !(d1Roas > 0) {
		return out
	}
	for _, c := range cohorts {
		roas := c.ROAS()
		switch {
		case roas > d1Roas*1.2:
			out = append(out, fmt.Sprintf("%s performing %s%% above average", c.Source, numfmt.Fixed((roas/d1Roas-1)*100, 0)))
		case roas < d1Roas*0.8:
			out = append(out, fmt.Sprintf("%s underperforming - consider reducing spend", c.Source))
		}
	}
	return out
}
