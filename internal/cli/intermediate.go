package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/ltv-backend/internal/tier"
)

func newIntermediateCmd(a *app) *cobra.Command {
	var (
		in      tier.IntermediateInput
		cohorts []string
		input   string
	)
	cmd := &cobra.Command{
		Use:   "intermediate",
		Short: "Blend several acquisition sources and project ROAS",
		Example: `  ltvcalc intermediate --cohort organic,10000,2,30,0.15 --cohort paid,5000,3,25,0.12 --d30 5 --target-day 30
  ltvcalc intermediate --input cohorts.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input != "" {
				if err := readInput(input, &in); err != nil {
					return err
				}
			}
			for _, c := range cohorts {
				row, err := parseCohort(c)
				if err != nil {
					return err
				}
				in.Rows = append(in.Rows, row)
			}
			if err := in.Validate(); err != nil {
				return err
			}
			e, err := a.evaluator()
			if err != nil {
				return err
			}
			r, err := e.Intermediate(in)
			if err != nil {
				return err
			}
			res := r.Results
			p := newPrinter(cmd.OutOrStdout(), a.output)
			if err := report(p, "Intermediate cohort analysis", r, []field{
				{"Total spend", "$" + res.TotalSpend},
				{"Total users", res.TotalUsers},
				{"Avg CPI", "$" + res.AvgCPI},
				{"Avg D1", res.AvgD1 + "%"},
				{"D1 ROAS", res.D1ROAS + "%"},
				{fmt.Sprintf("Projected ROAS (D%v)", in.TargetDay), res.ProjectedROAS + "%"},
				{"Estimated LTV", "$" + res.EstimatedLTV},
				{"ML readiness", res.MLReadinessScore + "/100"},
				{"Predictive lifetime", res.PredictiveLifetime + " days"},
			}); err != nil || p.json {
				return err
			}
			fmt.Fprintln(p.w, "Cohorts:")
			for _, c := range res.Cohorts {
				fmt.Fprintf(p.w, "  %-16s users=%-8v spend=$%-10.2f d1 ROAS=%.1f%%\n", c.Source, c.Users, c.Spend, c.ROAS())
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringArrayVar(&cohorts, "cohort", nil, "cohort as source,users,cpi,d1,d1Arpu (repeatable)")
	f.Float64Var(&in.D30, "d30", 0, "blended day-30 retention, percent")
	f.Float64Var(&in.TargetDay, "target-day", 30, "day to project ROAS at")
	f.StringVarP(&input, "input", "f", "", "read input from a YAML or JSON file (- for stdin); --cohort rows are appended")
	return cmd
}
