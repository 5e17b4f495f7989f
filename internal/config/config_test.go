package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("cfg = %+v, want %+v", cfg, Default())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ltv.yaml")
	body := `
http_addr: "127.0.0.1:8181"
log_level: debug
policy_dir: /etc/ltv/policy
policy_profile: strict
reload_interval: 500ms
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LTV_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != "127.0.0.1:8181" || cfg.LogLevel != "debug" || cfg.PolicyProfile != "strict" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ReloadInterval != 500*time.Millisecond {
		t.Fatalf("reload_interval = %v", cfg.ReloadInterval)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("env override not applied: %v", cfg.ShutdownTimeout)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LTV_LOG_LEVEL", "loud")
	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Fatalf("expected log_level error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	c := Default()
	c.ReloadInterval = -time.Second
	c.PolicyProfile = "strict"
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "reload_interval") || !strings.Contains(err.Error(), "policy_profile requires policy_dir") {
		t.Fatalf("got %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "warning": slog.LevelWarn,
		"error": slog.LevelError, "bogus": slog.LevelInfo, "": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var text, js bytes.Buffer
	logger := SetupLoggerWithWriters(&text, &js, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("evaluated", "tier", "basic", "decision", "scale")

	if strings.Contains(text.String(), "hidden") || strings.Contains(js.String(), "hidden") {
		t.Fatal("debug record should be filtered")
	}
	if !strings.Contains(text.String(), "tier=basic") {
		t.Fatalf("text output = %q", text.String())
	}
	var rec map[string]any
	if err := json.Unmarshal(js.Bytes(), &rec); err != nil {
		t.Fatalf("json output %q: %v", js.String(), err)
	}
	if rec["msg"] != "evaluated" || rec["decision"] != "scale" {
		t.Fatalf("json record = %v", rec)
	}
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ltv.log")
	logger, cleanup := SetupLogger(path, slog.LevelInfo)
	logger.Info("started")
	if err := cleanup(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"msg":"started"`) {
		t.Fatalf("log file = %q", b)
	}
}
