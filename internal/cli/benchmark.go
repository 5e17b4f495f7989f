package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xtding233/ltv-backend/internal/benchmark"
)

type benchmarkResult struct {
	Metric     string               `json:"metric"`
	Value      float64              `json:"value"`
	Band       benchmark.Band       `json:"band"`
	Label      string               `json:"label"`
	Thresholds benchmark.Thresholds `json:"thresholds"`
}

func newBenchmarkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "benchmark [metric value]",
		Short: "Compare a metric against industry thresholds",
		Long: `Without arguments, print the benchmark table. With a metric and value,
classify the value. Metrics: ` + strings.Join(benchmark.Metrics(), ", "),
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts 0 or 2 args, received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), a.output)
			if len(args) == 0 {
				return printBenchmarkTable(p)
			}
			metric := args[0]
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			band, ok := benchmark.Classify(metric, value)
			if !ok {
				return fmt.Errorf("unknown metric %q (known: %s)", metric, strings.Join(benchmark.Metrics(), ", "))
			}
			th, _ := benchmark.Lookup(metric)
			res := benchmarkResult{Metric: metric, Value: value, Band: band, Label: band.Label(), Thresholds: th}
			if p.json {
				return p.writeJSON(res)
			}
			fmt.Fprintf(p.w, "%s %v: %s\n", metric, value, res.Label)
			p.hint(fmt.Sprintf("good >= %v, average >= %v, floor %v", th.Good, th.Average, th.Poor))
			return nil
		},
	}
}

func printBenchmarkTable(p *printer) error {
	all := make(map[string]benchmark.Thresholds)
	for _, m := range benchmark.Metrics() {
		all[m], _ = benchmark.Lookup(m)
	}
	if p.json {
		return p.writeJSON(all)
	}
	p.title("Benchmarks")
	fmt.Fprintf(p.w, "  %-10s %8s %8s %8s\n", "metric", "good", "average", "poor")
	for _, m := range benchmark.Metrics() {
		t := all[m]
		fmt.Fprintf(p.w, "  %-10s %8v %8v %8v\n", m, t.Good, t.Average, t.Poor)
	}
	return nil
}
