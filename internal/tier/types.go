// Package tier turns raw acquisition and monetization inputs into a
// formatted results record, a scale / iterate / shutdown decision and the
// insight lines that explain it. There are three evaluators of increasing
// depth: Basic, Intermediate and Advanced.
//
// Evaluators are permissive: degenerate input (zero CPI, empty cohorts, ...)
// flows through as NaN or Infinity in the results rather than failing. Call
// Validate on the input first to reject it instead.
package tier

import (
	"fmt"

	"github.com/xtding233/ltv-backend/internal/policy"
)

// Decision is the recommendation for a cohort.
type Decision string

const (
	Scale    Decision = policy.DecisionScale
	Iterate  Decision = policy.DecisionIterate
	Shutdown Decision = policy.DecisionShutdown
)

// ParseDecision maps a policy decision string to a Decision.
func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case Scale, Iterate, Shutdown:
		return d, nil
	}
	return "", fmt.Errorf("unknown decision %q", s)
}

// Report is the output of one evaluation.
type Report[R any] struct {
	Results  R        `json:"results"`
	Decision Decision `json:"decision"`
	Insights []string `json:"insights"`
	// Rule names the policy rule that matched; empty when none did.
	Rule string `json:"rule,omitempty"`
}

// Evaluator runs the tier calculations against a compiled policy.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	policy *policy.Engine
}

// NewEvaluator binds an evaluator to p.
func NewEvaluator(p *policy.Engine) *Evaluator {
	return &Evaluator{policy: p}
}

// Default returns an evaluator using the built-in policy.
func Default() (*Evaluator, error) {
	p, err := policy.Default()
	if err != nil {
		return nil, err
	}
	return NewEvaluator(p), nil
}

// Policy returns the engine the evaluator decides with.
func (e *Evaluator) Policy() *policy.Engine { return e.policy }

type verdict struct {
	decision Decision
	insights []string
	rule     string
}

func (e *Evaluator) decide(t policy.Tier, facts map[string]any) (verdict, error) {
	out, err := e.policy.Decide(t, facts)
	if err != nil {
		return verdict{}, fmt.Errorf("%s decision: %w", t, err)
	}
	d, err := ParseDecision(out.Decision)
	if err != nil {
		return verdict{}, fmt.Errorf("%s decision: %w", t, err)
	}
	return verdict{decision: d, insights: append([]string{}, out.Insights...), rule: out.Rule}, nil
}

// Basic evaluates in with the built-in policy.
func Basic(in BasicInput) (Report[BasicResults], error) {
	e, err := Default()
	if err != nil {
		return Report[BasicResults]{}, err
	}
	return e.Basic(in)
}

// Intermediate evaluates in with the built-in policy.
func Intermediate(in IntermediateInput) (Report[IntermediateResults], error) {
	e, err := Default()
	if err != nil {
		return Report[IntermediateResults]{}, err
	}
	return e.Intermediate(in)
}

// Advanced evaluates in with the built-in policy.
func Advanced(in AdvancedInput) (Report[AdvancedResults], error) {
	e, err := Default()
	if err != nil {
		return Report[AdvancedResults]{}, err
	}
	return e.Advanced(in)
}
