package tier

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidInput is returned by Validate when an input would produce
// non-finite or meaningless results.
var ErrInvalidInput = errors.New("invalid input")

type checker struct {
	errs []string
}

func (c *checker) finite(name string, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.errs = append(c.errs, name+" must be a finite number")
		return false
	}
	return true
}

func (c *checker) percent(name string, v float64) {
	if c.finite(name, v) && (v <= 0 || v > 100) {
		c.errs = append(c.errs, fmt.Sprintf("%s must be in (0, 100] (got %v)", name, v))
	}
}

func (c *checker) optionalPercent(name string, v float64) {
	if c.finite(name, v) && (v < 0 || v > 100) {
		c.errs = append(c.errs, fmt.Sprintf("%s must be in [0, 100] (got %v)", name, v))
	}
}

func (c *checker) positive(name string, v float64) {
	if c.finite(name, v) && v <= 0 {
		c.errs = append(c.errs, fmt.Sprintf("%s must be > 0 (got %v)", name, v))
	}
}

func (c *checker) nonNegative(name string, v float64) {
	if c.finite(name, v) && v < 0 {
		c.errs = append(c.errs, fmt.Sprintf("%s must be >= 0 (got %v)", name, v))
	}
}

func (c *checker) err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(c.errs, "; "))
}

// Validate reports every field outside its documented range.
func (in BasicInput) Validate() error {
	var c checker
	c.percent("d1", in.D1)
	c.percent("d7", in.D7)
	c.positive("arpdau", in.ARPDAU)
	c.positive("cpi", in.CPI)
	return c.err()
}

// Validate reports every field outside its documented range. At least one
// cohort is required.
func (in IntermediateInput) Validate() error {
	var c checker
	if len(in.Rows) == 0 {
		c.errs = append(c.errs, "rows: at least one cohort is required")
	}
	for i, r := range in.Rows {
		where := fmt.Sprintf("rows[%d]", i)
		c.positive(where+".users", r.Users)
		c.positive(where+".cpi", r.CPI)
		c.percent(where+".d1", r.D1)
		c.nonNegative(where+".d1Arpu", r.D1ARPU)
	}
	c.percent("d30", in.D30)
	c.positive("targetDay", in.TargetDay)
	return c.err()
}

// Validate reports every field outside its documented range. D3 is optional.
func (in AdvancedInput) Validate() error {
	var c checker
	c.percent("d1", in.D1)
	c.optionalPercent("d3", in.D3)
	c.percent("d7", in.D7)
	c.percent("d30", in.D30)
	c.nonNegative("iapArpdau", in.IAPARPDAU)
	c.nonNegative("adArpdau", in.AdARPDAU)
	if in.IAPARPDAU+in.AdARPDAU <= 0 {
		c.errs = append(c.errs, "iapArpdau + adArpdau must be > 0")
	}
	c.positive("totalSpend", in.TotalSpend)
	c.positive("totalInstalls", in.TotalInstalls)
	c.nonNegative("kFactor", in.KFactor)
	if c.finite("payingShare", in.PayingShare) && (in.PayingShare < 0 || in.PayingShare > 1) {
		c.errs = append(c.errs, fmt.Sprintf("payingShare must be in [0, 1] (got %v)", in.PayingShare))
	}
	c.nonNegative("arppu", in.ARPPU)
	return c.err()
}
