package tier

// Retention health labels, best first.
const (
	HealthExcellent    = "Excellent (Top 10%)"
	HealthGood         = "Good (Above Average)"
	HealthAverage      = "Average"
	HealthBelowAverage = "Below Average"
	HealthPoor         = "Poor (Needs Improvement)"
)

// RetentionHealthScore blends the three retention points against the
// 30% / 12% / 5% targets with weights 0.4 / 0.35 / 0.25.
func RetentionHealthScore(d1, d7, d30 float64) float64 {
	return (d1/30)*0.4 + (d7/12)*0.35 + (d30/5)*0.25
}

// RetentionHealth labels the score: above 1.0, 0.8, 0.6 and 0.4 in turn.
func RetentionHealth(d1, d7, d30 float64) string {
	score := RetentionHealthScore(d1, d7, d30)
	switch {
	case score > 1.0:
		return HealthExcellent
	case score > 0.8:
		return HealthGood
	case score > 0.6:
		return HealthAverage
	case score > 0.4:
		return HealthBelowAverage
	}
	return HealthPoor
}
