// Package policy holds the ordered decision rules that turn tier metrics into
// a scale / iterate / shutdown call. Rules are CEL expressions over the
// metrics of one tier; the first rule whose expression is true wins.
package policy

// Tier names the evaluator a rule list applies to.
type Tier string

const (
	TierBasic        Tier = "basic"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
)

// Tiers lists every tier in evaluation-independent order.
var Tiers = []Tier{TierBasic, TierIntermediate, TierAdvanced}

// Decisions a rule may emit.
const (
	DecisionScale    = "scale"
	DecisionIterate  = "iterate"
	DecisionShutdown = "shutdown"
)

// FallbackDecision is used when no rule matches.
const FallbackDecision = DecisionIterate

// RawPolicy mirrors a policy file. Tiers left nil inherit from the layer below.
type RawPolicy struct {
	Version      string     `yaml:"version" toml:"version"`
	Notes        string     `yaml:"notes,omitempty" toml:"notes,omitempty"`
	Basic        *TierRules `yaml:"basic,omitempty" toml:"basic,omitempty"`
	Intermediate *TierRules `yaml:"intermediate,omitempty" toml:"intermediate,omitempty"`
	Advanced     *TierRules `yaml:"advanced,omitempty" toml:"advanced,omitempty"`
}

// TierRules is the ordered rule list of one tier.
type TierRules struct {
	Rules []RuleConfig `yaml:"rules" toml:"rules"`
}

// RuleConfig is one rule: when When holds, decide Decision and emit Insights.
// When is a CEL expression over the tier's facts, all doubles; integer
// literals such as `ltvCpiRatio < 2` compare numerically.
// Insights are text/template strings executed against the tier's facts; the
// helpers fixed (decimal places) and num (shortest form) are available.
type RuleConfig struct {
	Name     string   `yaml:"name" toml:"name"`
	When     string   `yaml:"when" toml:"when"`
	Decision string   `yaml:"decision" toml:"decision"`
	Insights []string `yaml:"insights,omitempty" toml:"insights,omitempty"`
}

// For returns the rule list of tier, or nil.
func (p RawPolicy) For(t Tier) *TierRules {
	switch t {
	case TierBasic:
		return p.Basic
	case TierIntermediate:
		return p.Intermediate
	case TierAdvanced:
		return p.Advanced
	}
	return nil
}

// Facts declares the numeric variables each tier exposes to its rules.
var Facts = map[Tier][]string{
	TierBasic: {
		"d1", "d7", "arpdau", "cpi",
		"ltv", "ltvCpiRatio", "d7Roas", "roi", "paybackDays",
	},
	TierIntermediate: {
		"d30", "targetDay", "cohortCount",
		"totalSpend", "totalUsers", "totalRevenue", "avgCPI", "avgD1",
		"d1Roas", "retentionDecay", "predictiveLifetime",
		"estimatedLTV", "projectedRoas", "mlReadinessScore",
	},
	TierAdvanced: {
		"d1", "d3", "d7", "d30",
		"iapArpdau", "adArpdau", "blendedArpdau",
		"totalSpend", "totalInstalls", "kFactor", "cpi", "eCPI",
		"ltv90", "ltv180", "ltv365", "ltvCpiRatio180",
		"d7Roas", "d30Roas", "paybackDays",
	},
}
