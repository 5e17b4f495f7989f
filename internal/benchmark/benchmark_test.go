package benchmark

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		metric string
		value  float64
		want   Band
	}{
		{"d1", 30, Good},
		{"d1", 29.9, Average},
		{"d1", 27, Average},
		{"d1", 26, Poor},
		{"d7", 12.5, Good},
		{"d30", 2.9, Poor},
		{"ltv_cpi", 2.49, Average},
		{"roas_d7", 19, Poor},
		{"roas_d30", 120, Good},
		{"roas_d30", math.NaN(), Poor},
	}
	for _, c := range cases {
		got, ok := Classify(c.metric, c.value)
		if !ok || got != c.want {
			t.Errorf("Classify(%q, %v) = %v,%v want %v", c.metric, c.value, got, ok, c.want)
		}
	}
}

func TestClassifyUnknown(t *testing.T) {
	band, ok := Classify("arpdau", 1)
	if ok || band != Unknown || band.Label() != "" {
		t.Fatalf("unknown metric: band=%v ok=%v label=%q", band, ok, band.Label())
	}
}

func TestLabels(t *testing.T) {
	if Good.Label() != "Above Target" || Average.Label() != "Average" || Poor.Label() != "Below Target" {
		t.Fatal("unexpected band labels")
	}
}

func TestMetricsSorted(t *testing.T) {
	got := Metrics()
	if len(got) != 6 || got[0] != "d1" || got[5] != "roas_d7" {
		t.Fatalf("Metrics() = %v", got)
	}
	if _, ok := Lookup("ltv_cpi"); !ok {
		t.Fatal("ltv_cpi should be known")
	}
}
