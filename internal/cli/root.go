// Package cli provides the ltvcalc command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/ltv-backend/internal/policy"
	"github.com/xtding233/ltv-backend/internal/tier"
)

// Version is set at build time.
var Version = "0.1.0"

// app carries the global flags and the lazily built evaluator.
type app struct {
	policyDir string
	profile   string
	output    string

	eval *tier.Evaluator
}

// evaluator loads the policy on first use.
func (a *app) evaluator() (*tier.Evaluator, error) {
	if a.eval != nil {
		return a.eval, nil
	}
	engine, err := policy.NewLoader(a.policyDir).Load(a.profile)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	a.eval = tier.NewEvaluator(engine)
	return a.eval, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "ltvcalc",
		Short: "Mobile game unit economics calculator",
		Long: `ltvcalc estimates lifetime value, ROAS and payback for a user acquisition
cohort and recommends whether to scale, iterate or shut it down.

Three tiers of depth are available:
  basic         one cohort, day-1 and day-7 retention, one ARPDAU
  intermediate  several acquisition sources blended
  advanced      IAP and ad monetization, k-factor uplift, 90/180/365-day LTV`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch a.output {
			case outputText, outputJSON:
				return nil
			}
			return fmt.Errorf("--output must be %q or %q", outputText, outputJSON)
		},
	}

	cmd.PersistentFlags().StringVar(&a.policyDir, "policy-dir", "", "directory with default.{yaml,toml} and profiles/ policy overlays")
	cmd.PersistentFlags().StringVar(&a.profile, "profile", "", "policy profile under <policy-dir>/profiles")
	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", outputText, "output format: text or json")

	cmd.AddCommand(
		newBasicCmd(a),
		newIntermediateCmd(a),
		newAdvancedCmd(a),
		newProjectCmd(a),
		newSensitivityCmd(a),
		newBenchmarkCmd(a),
		newPolicyCmd(a),
		newServeCmd(a),
	)
	return cmd
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}
