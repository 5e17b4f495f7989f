package server

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xtding233/ltv-backend/internal/config"
	"github.com/xtding233/ltv-backend/internal/policy"
	"github.com/xtding233/ltv-backend/internal/tier"
)

func TestReloadPolicy(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loader := policy.NewLoader(dir)
	engine, err := loader.Load("")
	if err != nil {
		t.Fatal(err)
	}
	s := New(tier.NewEvaluator(engine), logger)

	path := filepath.Join(dir, "default.yaml")
	if err := os.WriteFile(path, []byte(`version: "site-2"`), 0o644); err != nil {
		t.Fatal(err)
	}
	reloadPolicy(s, loader, "", path, logger)
	if v := s.Evaluator().Policy().Version(); v != "site-2" {
		t.Fatalf("version after reload = %q", v)
	}

	broken := "basic:\n  rules:\n    - name: x\n      when: \"d1 <\"\n      decision: scale\n"
	if err := os.WriteFile(path, []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}
	reloadPolicy(s, loader, "", path, logger)
	if v := s.Evaluator().Policy().Version(); v != "site-2" {
		t.Fatalf("broken file should keep previous policy, got %q", v)
	}
}

func TestRunRequiresListener(t *testing.T) {
	cfg := config.Default()
	cfg.HTTPAddr, cfg.GRPCAddr = "", ""
	err := Run(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err == nil || !strings.Contains(err.Error(), "nothing to serve") {
		t.Fatalf("err = %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.HTTPAddr, cfg.GRPCAddr = "127.0.0.1:0", "127.0.0.1:0"
	cfg.PolicyDir = t.TempDir()
	cfg.ReloadInterval = 10 * time.Millisecond
	cfg.ShutdownTimeout = time.Second
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}
}
