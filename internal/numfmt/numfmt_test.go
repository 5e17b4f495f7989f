package numfmt

import (
	"math"
	"testing"
)

func TestFixed(t *testing.T) {
	cases := []struct {
		x      float64
		places int
		want   string
	}{
		{2.4945544611748107, 2, "2.49"},
		{12.6, 1, "12.6"},
		{21.000000000000004, 1, "21.0"},
		{0.125, 2, "0.13"},
		{1.005, 2, "1.00"},
		{2.5, 0, "3"},
		{0.5, 0, "1"},
		{-2.5, 0, "-3"},
		{-0.001, 2, "-0.00"},
		{20000, 0, "20000"},
		{0.2, 3, "0.200"},
		{math.NaN(), 2, "NaN"},
		{math.Inf(1), 1, "Infinity"},
		{math.Inf(-1), 0, "-Infinity"},
	}
	for _, c := range cases {
		if got := Fixed(c.x, c.places); got != c.want {
			t.Errorf("Fixed(%v, %d) = %q, want %q", c.x, c.places, got, c.want)
		}
	}
}

func TestRound(t *testing.T) {
	cases := map[float64]float64{
		55.5:                56,
		56.49:               56,
		-2.5:                -2,
		-0.5:                0,
		0.4:                 0,
		0.49999999999999994: 0,
		4503599627370497:    4503599627370497,
		9007199254740991:    9007199254740991,
	}
	for in, want := range cases {
		if got := Round(in); got != want {
			t.Errorf("Round(%v) = %v, want %v", in, got, want)
		}
	}
	if !math.IsInf(Round(math.Inf(1)), 1) {
		t.Fatal("Round(+Inf) must stay +Inf")
	}
}

func TestNumber(t *testing.T) {
	cases := []struct {
		x    float64
		want string
	}{
		{180, "180"},
		{90.5, "90.5"},
		{0, "0"},
		{1.5e-8, "1.5e-8"},
		{2e21, "2e+21"},
		{math.Inf(1), "Infinity"},
	}
	for _, c := range cases {
		if got := Number(c.x); got != c.want {
			t.Errorf("Number(%v) = %q, want %q", c.x, got, c.want)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	if got := Parse(Fixed(2.4945544611748107, 2)); got != 2.49 {
		t.Fatalf("Parse = %v, want 2.49", got)
	}
	if !math.IsInf(Parse("Infinity"), 1) {
		t.Fatal("Parse(Infinity) should be +Inf")
	}
	if !math.IsNaN(Parse("garbage")) {
		t.Fatal("Parse(garbage) should be NaN")
	}
}
