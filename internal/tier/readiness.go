package tier

import "math"

// MLReadinessScore rates, from 0 to 100, how well a set of cohorts would
// serve as training data for a predictive LTV model:
//
//	25 · min(n/5, 1)                    source diversity
//	35 · min(avgD1/30 + d30/5, 1)       retention quality
//	40 · 2·min(var/mean, 0.5)           spread of revenue per user
//
// The variance is the population variance of per-cohort revenue per user.
// No cohorts score 0.
func MLReadinessScore(cohorts []Cohort, avgD1, d30 float64) float64 {
	n := len(cohorts)
	if n == 0 {
		return 0
	}
	score := math.Min(float64(n)/5, 1) * 25
	score += math.Min(avgD1/30+d30/5, 1) * 35

	var sum float64
	perUser := make([]float64, n)
	for i, c := range cohorts {
		perUser[i] = c.Revenue / c.Users
		sum += perUser[i]
	}
	mean := sum / float64(n)
	var acc float64
	for _, v := range perUser {
		d := v - mean
		acc += d * d
	}
	variance := acc / float64(n)
	score += math.Min(variance/mean, 0.5) * 2 * 40

	return math.Min(score, 100)
}
