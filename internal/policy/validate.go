package policy

import (
	"fmt"
	"strings"
)

// ValidateRaw checks the semantic constraints of a policy. With complete set,
// every tier must carry at least one rule; overlays may leave tiers out.
func ValidateRaw(cfg RawPolicy, complete bool) error {
	var errs []string

	for _, t := range Tiers {
		tr := cfg.For(t)
		if tr == nil {
			if complete {
				errs = append(errs, fmt.Sprintf("%s: rules are required", t))
			}
			continue
		}
		if len(tr.Rules) == 0 {
			errs = append(errs, fmt.Sprintf("%s.rules must not be empty", t))
		}
		seen := make(map[string]bool, len(tr.Rules))
		for i, r := range tr.Rules {
			where := fmt.Sprintf("%s.rules[%d]", t, i)
			if r.Name == "" {
				errs = append(errs, where+".name is required")
			} else if seen[r.Name] {
				errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", where, r.Name))
			}
			seen[r.Name] = true
			if strings.TrimSpace(r.When) == "" {
				errs = append(errs, where+".when is required")
			}
			switch r.Decision {
			case DecisionScale, DecisionIterate, DecisionShutdown:
			default:
				errs = append(errs, fmt.Sprintf("%s.decision must be one of: scale, iterate, shutdown (got %q)", where, r.Decision))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrPolicyConfig, strings.Join(errs, "; "))
	}
	return nil
}
