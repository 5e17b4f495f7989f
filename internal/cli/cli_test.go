package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xtding233/ltv-backend/internal/benchmark"
	"github.com/xtding233/ltv-backend/internal/projection"
	"github.com/xtding233/ltv-backend/internal/sensitivity"
	"github.com/xtding233/ltv-backend/internal/tier"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := run(t, append(args, "-o", "json")...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBasicJSON(t *testing.T) {
	var r tier.Report[tier.BasicResults]
	runJSON(t, &r, "basic", "--d1", "30", "--d7", "12", "--arpdau", "0.6", "--cpi", "2")
	if r.Results.LTV != "4.99" || r.Results.LTVCPIRatio != "2.49" || r.Results.PaybackDays != "28" {
		t.Fatalf("results = %+v", r.Results)
	}
	if r.Decision != tier.Scale || r.Rule != "healthy" {
		t.Fatalf("decision %s (%s)", r.Decision, r.Rule)
	}
}

func TestBasicText(t *testing.T) {
	out, err := run(t, "basic", "--d1", "30", "--d7", "12", "--arpdau", "0.3", "--cpi", "2")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Basic LTV analysis", "$2.49", "1.25x", "56 days", "Decision: SHUTDOWN (ltv-cpi-viability)", "Insights:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal output should not be styled")
	}
}

func TestBasicRejectsInvalidInput(t *testing.T) {
	_, err := run(t, "basic", "--d1", "30")
	if !errors.Is(err, tier.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestBasicFromFile(t *testing.T) {
	path := writeFile(t, "cohort.yaml", "d1: 30\nd7: 12\narpdau: 0.4\ncpi: 2\ngenre: puzzle\n")
	var r tier.Report[tier.BasicResults]
	runJSON(t, &r, "basic", "--input", path)
	if r.Results.LTV != "3.33" || r.Rule != "ltv-cpi-target" {
		t.Fatalf("report = %+v", r)
	}
}

func TestInputRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "cohort.json", `{"d1": 30, "d7": 12, "arpdau": 0.4, "cpi": 2, "dau": 5}`)
	if _, err := run(t, "basic", "-f", path); err == nil {
		t.Fatal("expected decode error for unknown field")
	}
}

func TestOutputFlagValidated(t *testing.T) {
	if _, err := run(t, "benchmark", "-o", "xml"); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}

func TestIntermediateCohortFlags(t *testing.T) {
	var r tier.Report[tier.IntermediateResults]
	runJSON(t, &r, "intermediate", "--cohort", "Source 1,10000,2,30,0.15", "--d30", "5", "--target-day", "180")
	if r.Results.D1ROAS != "7.5" || r.Results.ProjectedROAS != "440.5" || r.Results.EstimatedLTV != "8.81" {
		t.Fatalf("results = %+v", r.Results)
	}
	if r.Decision != tier.Scale {
		t.Fatalf("decision = %s", r.Decision)
	}
}

func TestIntermediateFromFile(t *testing.T) {
	path := writeFile(t, "cohorts.yaml", `
rows:
  - {source: A, users: 10000, cpi: 2, d1: 30, d1Arpu: 0.15}
  - {source: B, users: 5000, cpi: 1, d1: 25, d1Arpu: 0.05}
d30: 5
targetDay: 180
`)
	out, err := run(t, "intermediate", "-f", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Projected ROAS (D180)", "Cohorts:", "B underperforming - consider reducing spend"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestIntermediateNeedsRows(t *testing.T) {
	if _, err := run(t, "intermediate", "--d30", "5"); !errors.Is(err, tier.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if _, err := run(t, "intermediate", "--cohort", "A,1,2"); err == nil {
		t.Fatal("expected error for short cohort")
	}
}

func TestParseCohort(t *testing.T) {
	row, err := parseCohort(" paid , 5000, 3, 25, 0.12")
	if err != nil {
		t.Fatal(err)
	}
	want := tier.CohortRow{Source: "paid", Users: 5000, CPI: 3, D1: 25, D1ARPU: 0.12}
	if row != want {
		t.Fatalf("row = %+v", row)
	}
	if _, err := parseCohort("paid,lots,3,25,0.12"); err == nil {
		t.Fatal("expected error for non-numeric users")
	}
}

const advancedJSON = `{
  "d1": 35, "d3": 22, "d7": 15, "d30": 6,
  "iapArpdau": 0.12, "adArpdau": 0.08,
  "totalSpend": 50000, "totalInstalls": 25000,
  "kFactor": 0.2, "market": "tier1"
}`

func TestAdvancedFromFile(t *testing.T) {
	path := writeFile(t, "advanced.json", advancedJSON)
	var r tier.Report[tier.AdvancedResults]
	runJSON(t, &r, "advanced", "-f", path)
	if r.Results.LTV180 != "1.79" || r.Results.LTVCPIRatio180 != "1.07" || r.Results.ECPI != "1.67" {
		t.Fatalf("results = %+v", r.Results)
	}
	if r.Decision != tier.Iterate || r.Rule != "ltv-cpi-minimum" {
		t.Fatalf("decision %s (%s)", r.Decision, r.Rule)
	}
}

func TestAdvancedText(t *testing.T) {
	out, err := run(t, "advanced",
		"--d1", "35", "--d3", "22", "--d7", "15", "--d30", "6",
		"--iap-arpdau", "0.12", "--ad-arpdau", "0.08",
		"--total-spend", "50000", "--total-installs", "25000", "--k-factor", "0.2")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"$1.40 / $1.79 / $2.07", "60% / 40%", "Next: " + tier.NextSteps(tier.Iterate)} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestProjectLTVCurve(t *testing.T) {
	var pts []projection.LTVPoint
	runJSON(t, &pts, "project", "ltv-curve", "--d1", "30", "--d7", "12", "--arpdau", "0.3", "--days", "10")
	if len(pts) != 10 || pts[0].Day != 1 || pts[9].Day != 10 {
		t.Fatalf("points = %+v", pts)
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].LTV < pts[i-1].LTV {
			t.Fatalf("curve decreases at day %d: %+v", pts[i].Day, pts)
		}
	}
}

func TestProjectROASTimeline(t *testing.T) {
	var pts []projection.ROASPoint
	runJSON(t, &pts, "project", "roas-timeline", "--d1", "30", "--d7", "12", "--arpdau", "0.3", "--cpi", "2")
	if len(pts) != len(projection.TimelineDays) {
		t.Fatalf("got %d points", len(pts))
	}
	if _, err := run(t, "project", "roas-timeline", "--d1", "30", "--d7", "12", "--arpdau", "0.3"); err == nil {
		t.Fatal("expected error without cpi")
	}
}

func TestProjectRetentionFit(t *testing.T) {
	out, err := run(t, "project", "retention-fit", "--d1", "40", "--d3", "28", "--d7", "20", "--d30", "8")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Retention fit") || !strings.Contains(out, "least squares over 4 points") {
		t.Fatalf("output:\n%s", out)
	}
	if _, err := run(t, "project", "retention-fit", "--d1", "40"); err == nil {
		t.Fatal("expected error without d7")
	}
}

func TestProjectHorizons(t *testing.T) {
	path := writeFile(t, "advanced.json", advancedJSON)
	var out struct {
		Horizons    []projection.HorizonBar       `json:"horizons"`
		Progression []projection.ProgressionPoint `json:"progression"`
	}
	runJSON(t, &out, "project", "horizons", "-f", path)
	if len(out.Horizons) != 3 || out.Horizons[1].Day != 180 || out.Horizons[1].LTV != 1.79 {
		t.Fatalf("horizons = %+v", out.Horizons)
	}
	if len(out.Progression) != 2 || out.Progression[0].Actual != 12.6 {
		t.Fatalf("progression = %+v", out.Progression)
	}
}

func TestProjectCohorts(t *testing.T) {
	path := writeFile(t, "cohorts.yaml", `
rows:
  - {source: A, users: 10000, cpi: 2, d1: 30, d1Arpu: 0.15}
  - {source: B, users: 10000, cpi: 1, d1: 25, d1Arpu: 0.15}
d30: 5
targetDay: 30
`)
	var pts []projection.CohortPoint
	runJSON(t, &pts, "project", "cohorts", "-f", path)
	if len(pts) != 2 || pts[0].Source != "A" || pts[0].RevenueShare != 50 {
		t.Fatalf("points = %+v", pts)
	}
}

func TestSensitivityDeterministic(t *testing.T) {
	args := []string{"sensitivity", "--d1", "30", "--d7", "12", "--arpdau", "0.3", "--cpi", "2", "-n", "200", "--seed", "7"}
	var a, b sensitivity.Result
	runJSON(t, &a, args...)
	runJSON(t, &b, args...)
	if a.Trials != 200 || a.Seed != 7 || a.BreakevenShare == nil {
		t.Fatalf("result = %+v", a)
	}
	if a.Mean != b.Mean || a.P50 != b.P50 {
		t.Fatalf("same seed gave %v and %v", a.Mean, b.Mean)
	}
	if !(a.P10 <= a.P50 && a.P50 <= a.P90) {
		t.Fatalf("percentiles out of order: %+v", a.Stats)
	}
}

func TestSensitivityRejectsBadParams(t *testing.T) {
	_, err := run(t, "sensitivity", "--d1", "30", "--d7", "12", "--arpdau", "0.3", "--spread", "1.5")
	if !errors.Is(err, sensitivity.ErrInvalidParams) {
		t.Fatalf("err = %v", err)
	}
	_, err = run(t, "sensitivity", "--d1", "30", "--d7", "12", "--arpdau", "0.3", "-n", "0")
	if !errors.Is(err, sensitivity.ErrInvalidParams) {
		t.Fatalf("err = %v", err)
	}
}

func TestBenchmark(t *testing.T) {
	var res benchmarkResult
	runJSON(t, &res, "benchmark", "d1", "31")
	if res.Band != benchmark.Good || res.Label != "Above Target" || res.Thresholds.Good != 30 {
		t.Fatalf("result = %+v", res)
	}

	var table map[string]benchmark.Thresholds
	runJSON(t, &table, "benchmark")
	if len(table) != len(benchmark.Metrics()) {
		t.Fatalf("table = %v", table)
	}

	if _, err := run(t, "benchmark", "arpu", "1"); err == nil {
		t.Fatal("expected error for unknown metric")
	}
	if _, err := run(t, "benchmark", "d1"); err == nil {
		t.Fatal("expected error for a single argument")
	}
}

func TestPolicyCheckBuiltin(t *testing.T) {
	var sum policySummary
	runJSON(t, &sum, "policy", "check")
	if sum.Version != "2025.1" || sum.Rules["basic"][0] != "retention-floor" {
		t.Fatalf("summary = %+v", sum)
	}
}

func TestPolicyProfileOverridesDecision(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "profiles"), 0o755); err != nil {
		t.Fatal(err)
	}
	body := `
version = "strict-1"

[[basic.rules]]
name = "strict"
when = "ltvCpiRatio < 3.0"
decision = "shutdown"
insights = ["strict floor at {{fixed .ltvCpiRatio 2}}x"]

[[basic.rules]]
name = "ok"
when = "true"
decision = "scale"
`
	if err := os.WriteFile(filepath.Join(dir, "profiles", "strict.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	var r tier.Report[tier.BasicResults]
	runJSON(t, &r, "--policy-dir", dir, "--profile", "strict",
		"basic", "--d1", "30", "--d7", "12", "--arpdau", "0.6", "--cpi", "2")
	if r.Decision != tier.Shutdown || r.Rule != "strict" {
		t.Fatalf("decision %s (%s)", r.Decision, r.Rule)
	}
	if len(r.Insights) != 1 || r.Insights[0] != "strict floor at 2.49x" {
		t.Fatalf("insights = %q", r.Insights)
	}

	out, err := run(t, "--policy-dir", dir, "--profile", "strict", "policy", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "strict-1") || !strings.Contains(out, "retention-floor") {
		t.Fatalf("merged policy:\n%s", out)
	}
}

func TestPolicyCheckReportsBrokenProfile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "default.yaml"), []byte("basic:\n  rules:\n    - name: bad\n      when: \"nope > 1\"\n      decision: scale\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--policy-dir", dir, "policy", "check"); err == nil {
		t.Fatal("expected compile error for unknown variable")
	}
}
