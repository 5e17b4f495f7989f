package policy

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"text/template"

	"github.com/google/cel-go/cel"

	"github.com/xtding233/ltv-backend/internal/numfmt"
)

// ErrPolicyConfig reports an invalid policy file or rule.
var ErrPolicyConfig = errors.New("invalid policy config")

// costLimit bounds a single rule evaluation.
const costLimit = 100000

var insightFuncs = template.FuncMap{
	"fixed": numfmt.Fixed,
	"num":   numfmt.Number,
}

type compiledRule struct {
	name     string
	decision string
	program  cel.Program
	insights []*template.Template
}

// Engine is a compiled, immutable policy. It is safe for concurrent use.
type Engine struct {
	version string
	tiers   map[Tier][]compiledRule
}

// Outcome is the result of running one tier's rules.
type Outcome struct {
	Rule     string
	Decision string
	Insights []string
}

// Compile validates raw and compiles every rule. Every tier must be present.
func Compile(raw RawPolicy) (*Engine, error) {
	if err := ValidateRaw(raw, true); err != nil {
		return nil, err
	}
	e := &Engine{version: raw.Version, tiers: make(map[Tier][]compiledRule, len(Tiers))}
	for _, t := range Tiers {
		env, err := newEnv(t)
		if err != nil {
			return nil, err
		}
		rules := raw.For(t).Rules
		compiled := make([]compiledRule, 0, len(rules))
		for _, r := range rules {
			cr, err := compileRule(env, t, r)
			if err != nil {
				return nil, err
			}
			compiled = append(compiled, cr)
		}
		e.tiers[t] = compiled
	}
	return e, nil
}

func newEnv(t Tier) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(Facts[t]))
	for _, name := range Facts[t] {
		opts = append(opts, cel.Variable(name, cel.DoubleType))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("cel env for %s: %w", t, err)
	}
	return env, nil
}

func compileRule(env *cel.Env, t Tier, r RuleConfig) (compiledRule, error) {
	ast, iss := env.Compile(r.When)
	if iss != nil && iss.Err() != nil {
		return compiledRule{}, fmt.Errorf("%w: %s.%s: %v", ErrPolicyConfig, t, r.Name, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return compiledRule{}, fmt.Errorf("%w: %s.%s: expression must be bool, got %v", ErrPolicyConfig, t, r.Name, ast.OutputType())
	}
	prg, err := env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return compiledRule{}, fmt.Errorf("%w: %s.%s: %v", ErrPolicyConfig, t, r.Name, err)
	}
	cr := compiledRule{name: r.Name, decision: r.Decision, program: prg}
	for i, text := range r.Insights {
		tpl, err := template.New(fmt.Sprintf("%s.%s[%d]", t, r.Name, i)).
			Funcs(insightFuncs).
			Option("missingkey=error").
			Parse(text)
		if err != nil {
			return compiledRule{}, fmt.Errorf("%w: %s.%s insight %d: %v", ErrPolicyConfig, t, r.Name, i, err)
		}
		cr.insights = append(cr.insights, tpl)
	}
	return cr, nil
}

// Version is the version string of the compiled policy.
func (e *Engine) Version() string { return e.version }

// Rules lists the rule names of a tier in evaluation order.
func (e *Engine) Rules(t Tier) []string {
	out := make([]string, 0, len(e.tiers[t]))
	for _, r := range e.tiers[t] {
		out = append(out, r.name)
	}
	return out
}

// Decide runs the rules of tier against facts and returns the first match.
// When a fact is NaN, a rule that fails to evaluate (CEL refuses to order NaN)
// does not match; any other evaluation failure is an ErrPolicyConfig. When
// nothing matches the outcome is FallbackDecision with no insights.
func (e *Engine) Decide(t Tier, facts map[string]any) (Outcome, error) {
	rules, ok := e.tiers[t]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: unknown tier %q", ErrPolicyConfig, t)
	}
	for _, r := range rules {
		out, _, err := r.program.Eval(facts)
		if err != nil {
			if hasNaN(facts) {
				continue
			}
			return Outcome{}, fmt.Errorf("%w: %s.%s: %v", ErrPolicyConfig, t, r.name, err)
		}
		if matched, ok := out.Value().(bool); !ok || !matched {
			continue
		}
		insights := make([]string, 0, len(r.insights))
		for _, tpl := range r.insights {
			var buf bytes.Buffer
			if err := tpl.Execute(&buf, facts); err != nil {
				return Outcome{}, fmt.Errorf("render insight %s: %w", tpl.Name(), err)
			}
			insights = append(insights, buf.String())
		}
		return Outcome{Rule: r.name, Decision: r.decision, Insights: insights}, nil
	}
	return Outcome{Decision: FallbackDecision}, nil
}

func hasNaN(facts map[string]any) bool {
	for _, v := range facts {
		if f, ok := v.(float64); ok && math.IsNaN(f) {
			return true
		}
	}
	return false
}
