package cli

import (
	"github.com/spf13/cobra"

	"github.com/xtding233/ltv-backend/internal/tier"
)

func newBasicCmd(a *app) *cobra.Command {
	var (
		in    tier.BasicInput
		input string
	)
	cmd := &cobra.Command{
		Use:   "basic",
		Short: "Evaluate one cohort from D1/D7 retention, ARPDAU and CPI",
		Example: `  ltvcalc basic --d1 40 --d7 20 --arpdau 0.5 --cpi 2
  ltvcalc basic --input cohort.yaml -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if input != "" {
				if err := readInput(input, &in); err != nil {
					return err
				}
			}
			if err := in.Validate(); err != nil {
				return err
			}
			e, err := a.evaluator()
			if err != nil {
				return err
			}
			r, err := e.Basic(in)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout(), a.output)
			return report(p, "Basic LTV analysis", r, []field{
				{"LTV (180d)", "$" + r.Results.LTV},
				{"LTV:CPI", r.Results.LTVCPIRatio + "x"},
				{"D7 ROAS", r.Results.D7ROAS + "%"},
				{"ROI", r.Results.ROI + "%"},
				{"D1 / D7", r.Results.D1 + "% / " + r.Results.D7 + "%"},
				{"Payback", r.Results.PaybackDays + " days"},
			})
		},
	}
	f := cmd.Flags()
	f.Float64Var(&in.D1, "d1", 0, "day-1 retention, percent")
	f.Float64Var(&in.D7, "d7", 0, "day-7 retention, percent")
	f.Float64Var(&in.ARPDAU, "arpdau", 0, "average revenue per daily active user")
	f.Float64Var(&in.CPI, "cpi", 0, "cost per install")
	f.StringVar(&in.Genre, "genre", "", "game genre")
	f.StringVarP(&input, "input", "f", "", "read input from a YAML or JSON file (- for stdin); file values override flags")
	return cmd
}
