// Package numfmt renders numbers for the results contract: fixed decimals with
// half-up rounding on the exact binary value, and non-finite values spelled out
// as NaN / Infinity instead of failing.
package numfmt

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// exactDigits is enough fractional digits to print any float64 exactly.
const exactDigits = 1074

// maxFixed is the magnitude from which Fixed falls back to Number.
const maxFixed = 1e21

// Fixed formats x with places digits after the decimal point. Ties round up
// (away from zero) on the exact value of x, so 0.125 gives "0.13" but 1.005,
// stored as 1.00499..., gives "1.00".
func Fixed(x float64, places int) string {
	if s, ok := nonFinite(x); ok {
		return s
	}
	if places < 0 {
		places = 0
	}
	abs := math.Abs(x)
	if abs >= maxFixed {
		return Number(x)
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(abs, 'f', exactDigits, 64))
	if err != nil {
		// unreachable for finite input; keep the shortest form rather than panic
		return strconv.FormatFloat(x, 'f', places, 64)
	}
	s := d.StringFixed(int32(places))
	if x < 0 {
		return "-" + s
	}
	return s
}

// Round rounds half toward positive infinity: Round(2.5) == 3, Round(-2.5) == -2.
// NaN and infinities are returned unchanged.
func Round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f := math.Floor(x)
	if x-f >= 0.5 {
		f++
	}
	return f
}

// Number renders x in its shortest round-trip form: plain notation between
// 1e-7 and 1e21, exponent notation ("1.5e-8", "2e+21") outside that range.
func Number(x float64) string {
	if s, ok := nonFinite(x); ok {
		return s
	}
	if x == 0 {
		return "0"
	}
	abs := math.Abs(x)
	if abs >= 1e-7 && abs < maxFixed {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	s := strconv.FormatFloat(x, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

// Parse reads back a string produced by Fixed or Number.
func Parse(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func nonFinite(x float64) (string, bool) {
	switch {
	case math.IsNaN(x):
		return "NaN", true
	case math.IsInf(x, 1):
		return "Infinity", true
	case math.IsInf(x, -1):
		return "-Infinity", true
	}
	return "", false
}
