package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"montecarlo-pi/internal/config"
	"montecarlo-pi/internal/errs"
	"montecarlo-pi/internal/logger"
)

func TestBuildSweepConfigDefault(t *testing.T) {
	cfg, err := buildSweepConfig(nil, "", 0, 0, config.EnvConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "concurrent" {
		t.Errorf("expected concurrent sweep by default, got %s", cfg.Name)
	}
}

func TestBuildSweepConfigPrecedence(t *testing.T) {
	env := config.EnvConfig{Workers: 3, Seed: 10}

	cfg, err := buildSweepConfig(nil, "sequential", 0, 0, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 3 || cfg.Seed != 10 {
		t.Errorf("expected env overrides, got workers=%d seed=%d", cfg.Workers, cfg.Seed)
	}

	cfg, err = buildSweepConfig(nil, "sequential", 8, 20, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Workers != 8 || cfg.Seed != 20 {
		t.Errorf("expected flag overrides, got workers=%d seed=%d", cfg.Workers, cfg.Seed)
	}
}

func TestBuildSweepConfigFileWinsOverPreset(t *testing.T) {
	file := &config.FileConfig{Sweep: config.SweepConfig{Name: "from-file", SampleSizes: []int64{10}}}

	cfg, err := buildSweepConfig(file, "stress", 0, 0, config.EnvConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "from-file" {
		t.Errorf("expected file config, got %s", cfg.Name)
	}
}

func TestBuildSweepConfigUnknownPreset(t *testing.T) {
	if _, err := buildSweepConfig(nil, "unknown", 0, 0, config.EnvConfig{}); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestApplyLogLevel(t *testing.T) {
	defer logger.Default.SetLevel(logger.LevelInfo)

	file := &config.FileConfig{Log: config.LogConfig{Level: "error"}}
	if err := applyLogLevel("", file, config.EnvConfig{LogLevel: "debug"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := applyLogLevel("loud", nil, config.EnvConfig{}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestTelemetryConfig(t *testing.T) {
	file := &config.FileConfig{Telemetry: config.TelemetryConfig{Endpoint: "http://file:4318", Stdout: true}}

	cfg := telemetryConfig(file, config.EnvConfig{OTelEndpoint: "http://env:4318"})
	if cfg.Endpoint != "http://env:4318" {
		t.Errorf("expected env endpoint to win, got %s", cfg.Endpoint)
	}
	if !cfg.Stdout {
		t.Error("expected stdout from file config")
	}

	if telemetryConfig(nil, config.EnvConfig{}).Enabled() {
		t.Error("expected telemetry disabled without configuration")
	}
}

func TestRunFlushesTracesOnFailure(t *testing.T) {
	t.Setenv("PI_OTEL_STDOUT", "true")
	t.Setenv("PI_OTEL_ENDPOINT", "")
	defer logger.Default.SetLevel(logger.LevelInfo)

	var traces bytes.Buffer
	err := run(options{samples: -1, workers: 2, logLevel: "error", traceOut: &traces})
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if !strings.Contains(traces.String(), "estimator.Estimate") {
		t.Errorf("expected failed estimate span to be flushed, got %q", traces.String())
	}
}

func TestRunEstimate(t *testing.T) {
	t.Setenv("PI_OTEL_STDOUT", "")
	t.Setenv("PI_OTEL_ENDPOINT", "")
	defer logger.Default.SetLevel(logger.LevelInfo)

	if err := run(options{samples: 1000, workers: 2, seed: 1, logLevel: "error"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunConfigFileMissing(t *testing.T) {
	err := run(options{configFile: "/nonexistent/sweep.yaml"})
	if err == nil {
		t.Error("expected error for missing config file")
	}
}
