package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/xtding233/ltv-backend/internal/sensitivity"
)

func newSensitivityCmd(a *app) *cobra.Command {
	var (
		p      sensitivity.Params
		model  string
		trials int
		seed   uint64
		quiet  bool
	)
	cmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "Monte Carlo LTV spread under noisy retention and ARPDAU",
		Example: `  ltvcalc sensitivity --d1 40 --d7 20 --arpdau 0.5 --cpi 2 --trials 20000 --seed 7`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Model = sensitivity.Model(model)
			if err := p.Validate(); err != nil {
				return err
			}
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}

			var progress func(int)
			if errw := cmd.ErrOrStderr(); !quiet && isTerminal(errw) {
				bar := progressbar.NewOptions(trials,
					progressbar.OptionSetWriter(errw),
					progressbar.OptionSetDescription("simulating"),
					progressbar.OptionShowCount(),
					progressbar.OptionThrottle(65*time.Millisecond),
					progressbar.OptionClearOnFinish(),
				)
				defer bar.Finish()
				progress = func(done int) { _ = bar.Set(done) }
			}

			res, err := sensitivity.Run(cmd.Context(), p, trials, seed, progress)
			if err != nil {
				return err
			}
			out := newPrinter(cmd.OutOrStdout(), a.output)
			if out.json {
				return out.writeJSON(res)
			}
			out.title(fmt.Sprintf("LTV sensitivity (%d trials, ±%.0f%%)", res.Trials, p.Spread*100))
			fs := []field{
				{"Mean", fmt.Sprintf("$%.2f", res.Mean)},
				{"Std dev", fmt.Sprintf("$%.2f", res.StdDev)},
				{"P10 / P50 / P90", fmt.Sprintf("$%.2f / $%.2f / $%.2f", res.P10, res.P50, res.P90)},
			}
			if res.BreakevenShare != nil {
				fs = append(fs, field{"LTV >= CPI", fmt.Sprintf("%.1f%% of trials", *res.BreakevenShare*100)})
			}
			out.fields(fs)
			out.hint(fmt.Sprintf("seed %d", res.Seed))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&model, "model", string(sensitivity.ModelBasic), "LTV model: basic or advanced")
	f.Float64Var(&p.D1, "d1", 0, "day-1 retention, percent")
	f.Float64Var(&p.D7, "d7", 0, "day-7 retention, percent")
	f.Float64Var(&p.ARPDAU, "arpdau", 0, "average revenue per daily active user")
	f.Float64Var(&p.Horizon, "horizon", sensitivity.DefaultHorizon, "LTV horizon in days")
	f.Float64Var(&p.Spread, "spread", sensitivity.DefaultSpread, "relative noise half-width, 0.1 is ±10%")
	f.Float64Var(&p.CPI, "cpi", 0, "cost per install; adds the breakeven share")
	f.IntVarP(&trials, "trials", "n", 10000, "number of trials")
	f.Uint64Var(&seed, "seed", 0, "RNG seed; 0 picks one from the clock")
	f.BoolVarP(&quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}
