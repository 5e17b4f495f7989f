// Package server exposes the tier evaluators over HTTP (JSON) and gRPC.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xtding233/ltv-backend/internal/benchmark"
	"github.com/xtding233/ltv-backend/internal/policy"
	"github.com/xtding233/ltv-backend/internal/projection"
	"github.com/xtding233/ltv-backend/internal/retention"
	"github.com/xtding233/ltv-backend/internal/sensitivity"
	"github.com/xtding233/ltv-backend/internal/tier"
)

// maxBody bounds a request body.
const maxBody = 1 << 20

// Server routes requests to the current evaluator. The evaluator can be
// swapped at any time, e.g. after a policy reload.
type Server struct {
	eval   atomic.Pointer[tier.Evaluator]
	logger *slog.Logger
	router *chi.Mux
}

// New creates a server evaluating with e.
func New(e *tier.Evaluator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger}
	s.eval.Store(e)
	s.setupRoutes()
	return s
}

// Evaluator returns the evaluator currently in use.
func (s *Server) Evaluator() *tier.Evaluator { return s.eval.Load() }

// SetEvaluator replaces the evaluator for subsequent requests.
func (s *Server) SetEvaluator(e *tier.Evaluator) { s.eval.Store(e) }

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/basic", s.handleBasic)
		r.Post("/intermediate", s.handleIntermediate)
		r.Post("/advanced", s.handleAdvanced)

		r.Route("/projection", func(r chi.Router) {
			r.Post("/ltv-curve", s.handleLTVCurve)
			r.Post("/roas-timeline", s.handleROASTimeline)
			r.Post("/retention-fit", s.handleRetentionFit)
			r.Post("/horizons", s.handleHorizons)
			r.Post("/cohorts", s.handleCohorts)
		})

		r.Get("/benchmarks", s.handleBenchmarks)
		r.Get("/benchmarks/{metric}", s.handleBenchmark)

		r.Post("/sensitivity", s.handleSensitivity)

		r.Get("/policy", s.handlePolicy)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"policyVersion": s.Evaluator().Policy().Version(),
	})
}

type validator interface {
	Validate() error
}

// decodeInput reads a JSON body into in and validates it. It writes the
// error response itself and reports whether the handler should continue.
func decodeInput(w http.ResponseWriter, r *http.Request, in validator) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid input", err)
		return false
	}
	return true
}

func (s *Server) handleBasic(w http.ResponseWriter, r *http.Request) {
	var in tier.BasicInput
	if !decodeInput(w, r, &in) {
		return
	}
	rep, err := s.Evaluator().Basic(in)
	s.respondReport(w, r, policy.TierBasic, rep, rep.Decision, err)
}

func (s *Server) handleIntermediate(w http.ResponseWriter, r *http.Request) {
	var in tier.IntermediateInput
	if !decodeInput(w, r, &in) {
		return
	}
	rep, err := s.Evaluator().Intermediate(in)
	s.respondReport(w, r, policy.TierIntermediate, rep, rep.Decision, err)
}

func (s *Server) handleAdvanced(w http.ResponseWriter, r *http.Request) {
	var in tier.AdvancedInput
	if !decodeInput(w, r, &in) {
		return
	}
	rep, err := s.Evaluator().Advanced(in)
	s.respondReport(w, r, policy.TierAdvanced, rep, rep.Decision, err)
}

func (s *Server) respondReport(w http.ResponseWriter, r *http.Request, t policy.Tier, rep any, d tier.Decision, err error) {
	if err != nil {
		s.logger.Error("evaluation failed", "tier", t, "error", err, "request_id", RequestIDFrom(r.Context()))
		respondError(w, http.StatusInternalServerError, "evaluation failed", err)
		return
	}
	s.logger.Debug("evaluated", "tier", t, "decision", d, "request_id", RequestIDFrom(r.Context()))
	respondJSON(w, http.StatusOK, rep)
}

type curveRequest struct {
	D1     float64 `json:"d1"`
	D7     float64 `json:"d7"`
	ARPDAU float64 `json:"arpdau"`
	CPI    float64 `json:"cpi,omitempty"`
	Days   int     `json:"days,omitempty"`
}

func (c curveRequest) Validate() error {
	return tier.BasicInput{D1: c.D1, D7: c.D7, ARPDAU: c.ARPDAU, CPI: 1}.Validate()
}

func (s *Server) handleLTVCurve(w http.ResponseWriter, r *http.Request) {
	var req curveRequest
	if !decodeInput(w, r, &req) {
		return
	}
	if req.Days < 0 || req.Days > 3650 {
		respondError(w, http.StatusBadRequest, "days must be in [0, 3650]", nil)
		return
	}
	obs := retention.Observation{D1: req.D1, D7: req.D7}
	respondJSON(w, http.StatusOK, map[string]any{"points": projection.LTVCurve(obs, req.ARPDAU, req.Days)})
}

func (s *Server) handleROASTimeline(w http.ResponseWriter, r *http.Request) {
	var req curveRequest
	if !decodeInput(w, r, &req) {
		return
	}
	if !(req.CPI > 0) {
		respondError(w, http.StatusBadRequest, "cpi must be > 0", nil)
		return
	}
	obs := retention.Observation{D1: req.D1, D7: req.D7}
	respondJSON(w, http.StatusOK, map[string]any{"points": projection.ROASTimeline(obs, req.ARPDAU, req.CPI)})
}

type fitRequest struct {
	retention.Observation
}

func (f fitRequest) Validate() error {
	in := tier.AdvancedInput{D1: f.D1, D3: f.D3, D7: f.D7, D30: f.D30, IAPARPDAU: 1, TotalSpend: 1, TotalInstalls: 1}
	if f.D30 == 0 {
		in.D30 = 1
	}
	return in.Validate()
}

func (s *Server) handleRetentionFit(w http.ResponseWriter, r *http.Request) {
	var req fitRequest
	if !decodeInput(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, projection.RetentionFit(req.Observation))
}

func (s *Server) handleHorizons(w http.ResponseWriter, r *http.Request) {
	var in tier.AdvancedInput
	if !decodeInput(w, r, &in) {
		return
	}
	rep, err := s.Evaluator().Advanced(in)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "evaluation failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"horizons":        projection.LTVHorizons(rep.Results),
		"roasProgression": projection.ROASProgression(rep.Results),
		"monetizationMix": rep.Results.MonetizationMix,
	})
}

func (s *Server) handleCohorts(w http.ResponseWriter, r *http.Request) {
	var in tier.IntermediateInput
	if !decodeInput(w, r, &in) {
		return
	}
	rep, err := s.Evaluator().Intermediate(in)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "evaluation failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"cohorts": projection.CohortComparison(rep.Results)})
}

func (s *Server) handleBenchmarks(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]benchmark.Thresholds)
	for _, m := range benchmark.Metrics() {
		out[m], _ = benchmark.Lookup(m)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	metric := chi.URLParam(r, "metric")
	th, ok := benchmark.Lookup(metric)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown metric", nil)
		return
	}
	resp := map[string]any{"metric": metric, "thresholds": th}
	if raw := r.URL.Query().Get("value"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid value", err)
			return
		}
		band, _ := benchmark.Classify(metric, v)
		resp["value"] = v
		resp["band"] = band
		resp["label"] = band.Label()
	}
	respondJSON(w, http.StatusOK, resp)
}

type sensitivityRequest struct {
	sensitivity.Params
	Trials int    `json:"trials"`
	Seed   uint64 `json:"seed"`
}

func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	var req sensitivityRequest
	if !decodeInput(w, r, &req) {
		return
	}
	if req.Trials == 0 {
		req.Trials = 1000
	}
	res, err := sensitivity.Run(r.Context(), req.Params, req.Trials, req.Seed, nil)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, sensitivity.ErrInvalidParams):
			status = http.StatusBadRequest
		case errors.Is(err, context.DeadlineExceeded):
			status = http.StatusGatewayTimeout
		case errors.Is(err, context.Canceled):
			status = http.StatusServiceUnavailable
		}
		respondError(w, status, "simulation failed", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	p := s.Evaluator().Policy()
	rules := make(map[policy.Tier][]string, len(policy.Tiers))
	for _, t := range policy.Tiers {
		rules[t] = p.Rules(t)
	}
	respondJSON(w, http.StatusOK, map[string]any{"version": p.Version(), "rules": rules})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
