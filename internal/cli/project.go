package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/ltv-backend/internal/projection"
	"github.com/xtding233/ltv-backend/internal/retention"
	"github.com/xtding233/ltv-backend/internal/tier"
)

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Chartable series derived from the retention model",
	}
	cmd.AddCommand(
		newProjectCurveCmd(a),
		newProjectROASCmd(a),
		newProjectFitCmd(a),
		newProjectHorizonsCmd(a),
		newProjectCohortsCmd(a),
	)
	return cmd
}

// observationFlags binds the retention points shared by the series commands.
func observationFlags(cmd *cobra.Command, obs *retention.Observation) {
	f := cmd.Flags()
	f.Float64Var(&obs.D1, "d1", 0, "day-1 retention, percent")
	f.Float64Var(&obs.D3, "d3", 0, "day-3 retention, percent (optional)")
	f.Float64Var(&obs.D7, "d7", 0, "day-7 retention, percent")
	f.Float64Var(&obs.D30, "d30", 0, "day-30 retention, percent (optional)")
}

func checkObservation(obs retention.Observation) error {
	if !(obs.D1 > 0 && obs.D1 <= 100) || !(obs.D7 > 0 && obs.D7 <= 100) {
		return errors.New("--d1 and --d7 must be in (0, 100]")
	}
	return nil
}

func newProjectCurveCmd(a *app) *cobra.Command {
	var (
		obs    retention.Observation
		arpdau float64
		days   int
	)
	cmd := &cobra.Command{
		Use:   "ltv-curve",
		Short: "Cumulative LTV for every horizon from day 1",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkObservation(obs); err != nil {
				return err
			}
			pts := projection.LTVCurve(obs, arpdau, days)
			p := newPrinter(cmd.OutOrStdout(), a.output)
			if p.json {
				return p.writeJSON(pts)
			}
			p.title("Cumulative LTV")
			for _, pt := range pts {
				fmt.Fprintf(p.w, "  day %3d  $%.2f\n", pt.Day, pt.LTV)
			}
			return nil
		},
	}
	observationFlags(cmd, &obs)
	cmd.Flags().Float64Var(&arpdau, "arpdau", 0, "average revenue per daily active user")
	cmd.Flags().IntVar(&days, "days", projection.DefaultDays, "last horizon of the curve")
	return cmd
}

func newProjectROASCmd(a *app) *cobra.Command {
	var (
		obs         retention.Observation
		arpdau, cpi float64
	)
	cmd := &cobra.Command{
		Use:   "roas-timeline",
		Short: "ROAS at fixed checkpoints, banded against breakeven",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkObservation(obs); err != nil {
				return err
			}
			if !(cpi > 0) {
				return errors.New("--cpi must be > 0")
			}
			pts := projection.ROASTimeline(obs, arpdau, cpi)
			p := newPrinter(cmd.OutOrStdout(), a.output)
			if p.json {
				return p.writeJSON(pts)
			}
			p.title("ROAS timeline")
			for _, pt := range pts {
				fmt.Fprintf(p.w, "  %-5s %7.1f%%  %s\n", pt.Label, pt.ROAS, pt.Band)
			}
			return nil
		},
	}
	observationFlags(cmd, &obs)
	cmd.Flags().Float64Var(&arpdau, "arpdau", 0, "average revenue per daily active user")
	cmd.Flags().Float64Var(&cpi, "cpi", 0, "cost per install")
	return cmd
}

func newProjectFitCmd(a *app) *cobra.Command {
	var obs retention.Observation
	cmd := &cobra.Command{
		Use:   "retention-fit",
		Short: "Fitted power law against the observed retention points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkObservation(obs); err != nil {
				return err
			}
			s := projection.RetentionFit(obs)
			p := newPrinter(cmd.OutOrStdout(), a.output)
			if p.json {
				return p.writeJSON(s)
			}
			p.title("Retention fit")
			p.fields([]field{
				{"a", fmt.Sprintf("%.4f", s.Curve.A)},
				{"b", fmt.Sprintf("%.4f", s.Curve.B)},
			})
			if s.LogLog != nil {
				p.hint(fmt.Sprintf("least squares over %d points: a=%.4f b=%.4f r²=%.3f",
					len(s.Observed), s.LogLog.A, s.LogLog.B, s.LogLog.R2))
			}
			for _, pt := range s.Fitted {
				fmt.Fprintf(p.w, "  day %2.0f  %6.2f%%\n", pt.Day, pt.Pct)
			}
			return nil
		},
	}
	observationFlags(cmd, &obs)
	return cmd
}

func newProjectHorizonsCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "horizons",
		Short: "LTV bars and ROAS progression for an advanced input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in tier.AdvancedInput
			if err := readInput(input, &in); err != nil {
				return err
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
			out := struct {
				Horizons    []projection.HorizonBar       `json:"horizons"`
				Progression []projection.ProgressionPoint `json:"progression"`
			}{projection.LTVHorizons(r.Results), projection.ROASProgression(r.Results)}

			p := newPrinter(cmd.OutOrStdout(), a.output)
			if p.json {
				return p.writeJSON(out)
			}
			p.title("LTV by horizon")
			for _, h := range out.Horizons {
				fmt.Fprintf(p.w, "  %-6s $%.2f\n", h.Label, h.LTV)
			}
			p.title("ROAS progression")
			for _, pt := range out.Progression {
				fmt.Fprintf(p.w, "  %-6s %7.1f%%  (good %.0f%%, floor %.0f%%)\n", pt.Label, pt.Actual, pt.Good, pt.Breakeven)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "f", "", "advanced input as YAML or JSON (- for stdin)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newProjectCohortsCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "cohorts",
		Short: "CPI versus ROAS per source for an intermediate input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in tier.IntermediateInput
			if err := readInput(input, &in); err != nil {
				return err
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
			pts := projection.CohortComparison(r.Results)
			p := newPrinter(cmd.OutOrStdout(), a.output)
			if p.json {
				return p.writeJSON(pts)
			}
			p.title("Cohort comparison")
			for _, c := range pts {
				fmt.Fprintf(p.w, "  %-16s cpi=$%-6.2f roas=%6.1f%%  revenue share=%.1f%%\n", c.Source, c.CPI, c.ROAS, c.RevenueShare)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "f", "", "intermediate input as YAML or JSON (- for stdin)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
