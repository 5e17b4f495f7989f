package cli

import (
	"github.com/spf13/cobra"

	"github.com/xtding233/ltv-backend/internal/tier"
)

func newAdvancedCmd(a *app) *cobra.Command {
	var (
		in    tier.AdvancedInput
		input string
	)
	cmd := &cobra.Command{
		Use:   "advanced",
		Short: "Monetization-weighted LTV at 90, 180 and 365 days",
		Example: `  ltvcalc advanced --d1 40 --d3 28 --d7 20 --d30 8 --iap-arpdau 0.3 --ad-arpdau 0.1 \
    --total-spend 10000 --total-installs 5000 --k-factor 0.2 --market tier1`,
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
			r, err := e.Advanced(in)
			if err != nil {
				return err
			}
			res := r.Results
			p := newPrinter(cmd.OutOrStdout(), a.output)
			if err := report(p, "Advanced LTV analysis", r, []field{
				{"CPI / eCPI", "$" + res.CPI + " / $" + res.ECPI},
				{"Organic uplift", res.OrganicUplift + "%"},
				{"LTV 90 / 180 / 365", "$" + res.LTV90 + " / $" + res.LTV180 + " / $" + res.LTV365},
				{"LTV:CPI (180d)", res.LTVCPIRatio180 + "x"},
				{"D7 / D30 ROAS", res.D7ROAS + "% / " + res.D30ROAS + "%"},
				{"Payback", res.PaybackDays + " days"},
				{"Blended ARPDAU", "$" + res.BlendedARPDAU},
				{"IAP / Ads", res.MonetizationMix.IAP + "% / " + res.MonetizationMix.Ads + "%"},
				{"Retention health", res.RetentionHealth},
				{"Monthly revenue", "$" + res.ProjectedMonthlyRevenue},
			}); err != nil || p.json {
				return err
			}
			p.hint("Next: " + res.NextSteps)
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&in.D1, "d1", 0, "day-1 retention, percent")
	f.Float64Var(&in.D3, "d3", 0, "day-3 retention, percent")
	f.Float64Var(&in.D7, "d7", 0, "day-7 retention, percent")
	f.Float64Var(&in.D30, "d30", 0, "day-30 retention, percent")
	f.Float64Var(&in.IAPARPDAU, "iap-arpdau", 0, "in-app purchase revenue per DAU")
	f.Float64Var(&in.AdARPDAU, "ad-arpdau", 0, "ad revenue per DAU")
	f.Float64Var(&in.TotalSpend, "total-spend", 0, "acquisition spend")
	f.Float64Var(&in.TotalInstalls, "total-installs", 0, "paid installs")
	f.Float64Var(&in.KFactor, "k-factor", 0, "viral coefficient")
	f.StringVar(&in.Market, "market", tier.MarketTier1, "target market: tier1, tier2 or tier3")
	f.Float64Var(&in.PayingShare, "paying-share", 0, "share of paying users, 0..1")
	f.Float64Var(&in.ARPPU, "arppu", 0, "average revenue per paying user")
	f.StringVarP(&input, "input", "f", "", "read input from a YAML or JSON file (- for stdin); file values override flags")
	return cmd
}
