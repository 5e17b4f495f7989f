// Package benchmark classifies a metric value against industry thresholds.
package benchmark

import "sort"

// Band is the result of a benchmark lookup.
type Band string

const (
	Good    Band = "good"
	Average Band = "average"
	Poor    Band = "poor"
	Unknown Band = "unknown"
)

// Thresholds are lower bounds: value >= Good is good, value >= Average is
// average, anything below is poor. Poor marks the floor the table quotes.
type Thresholds struct {
	Good    float64 `json:"good"`
	Average float64 `json:"average"`
	Poor    float64 `json:"poor"`
}

var table = map[string]Thresholds{
	"d1":       {Good: 30, Average: 27, Poor: 25},
	"d7":       {Good: 12, Average: 8, Poor: 5},
	"d30":      {Good: 5, Average: 3, Poor: 2},
	"ltv_cpi":  {Good: 3, Average: 2, Poor: 1.5},
	"roas_d7":  {Good: 50, Average: 30, Poor: 20},
	"roas_d30": {Good: 120, Average: 80, Poor: 50},
}

// Lookup returns the thresholds for metric.
func Lookup(metric string) (Thresholds, bool) {
	t, ok := table[metric]
	return t, ok
}

// Metrics lists the known metric names in sorted order.
func Metrics() []string {
	out := make([]string, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Classify places value in a band for metric. Unknown metrics return Unknown, false.
func Classify(metric string, value float64) (Band, bool) {
	t, ok := table[metric]
	if !ok {
		return Unknown, false
	}
	switch {
	case value >= t.Good:
		return Good, true
	case value >= t.Average:
		return Average, true
	default:
		return Poor, true
	}
}

// Label is the human-readable name of the band.
func (b Band) Label() string {
	switch b {
	case Good:
		return "Above Target"
	case Average:
		return "Average"
	case Poor:
		return "Below Target"
	}
	return ""
}
