package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/xtding233/ltv-backend/internal/policy"
)

func newPolicyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the decision policy",
	}
	cmd.AddCommand(newPolicyCheckCmd(a), newPolicyShowCmd(a))
	return cmd
}

type policySummary struct {
	Version string                   `json:"version"`
	Rules   map[policy.Tier][]string `json:"rules"`
}

func newPolicyCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Merge, validate and compile the policy, then list its rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.evaluator()
			if err != nil {
				return err
			}
			engine := e.Policy()
			sum := policySummary{Version: engine.Version(), Rules: make(map[policy.Tier][]string)}
			for _, t := range policy.Tiers {
				sum.Rules[t] = engine.Rules(t)
			}
			p := newPrinter(cmd.OutOrStdout(), a.output)
			if p.json {
				return p.writeJSON(sum)
			}
			p.title("Policy " + sum.Version + " OK")
			for _, t := range policy.Tiers {
				fmt.Fprintf(p.w, "  %s:\n", t)
				for i, name := range sum.Rules[t] {
					fmt.Fprintf(p.w, "    %d. %s\n", i+1, name)
				}
			}
			p.hint(fmt.Sprintf("unmatched cohorts fall back to %q", policy.FallbackDecision))
			return nil
		},
	}
}

func newPolicyShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the merged policy as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := policy.NewLoader(a.policyDir).LoadMerged(a.profile)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(raw); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
