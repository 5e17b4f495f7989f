package tier

// NextSteps is the operational follow-up for a decision.
func NextSteps(d Decision) string {
	switch d {
	case Scale:
		return "Start with 20% budget increase weekly, monitor cohort performance closely. Focus on creative optimization to reduce CPI."
	case Iterate:
		return "Run A/B tests on monetization, improve D1 retention by 5%, then re-evaluate. Consider soft launching in additional markets for more data."
	}
	return "Conduct user research to identify core issues. Consider pivoting game mechanics or targeting a different audience segment."
}
