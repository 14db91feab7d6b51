package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/cellgraph/pkg/reactive"
)

func newTestRuntime(reg prometheus.Registerer) *reactive.Runtime {
	return reactive.NewRuntime(
		reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		reactive.WithMetrics(reactive.NewMetrics(reactive.WithRegistry(reg))),
	)
}

func smallWorkload() workloadConfig {
	return workloadConfig{
		Profile:      "test",
		Cells:        10,
		Effects:      20,
		Fanout:       3,
		Writes:       100,
		BatchSize:    1,
		HistoryLimit: 5,
	}
}

func TestRunWorkload(t *testing.T) {
	tests := []struct {
		name  string
		batch int
		ops   int
	}{
		{"unbatched", 1, 100},
		{"batched", 10, 10},
		{"uneven batches", 30, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallWorkload()
			cfg.BatchSize = tt.batch
			rt := newTestRuntime(prometheus.NewRegistry())

			result, err := runWorkload(context.Background(), rt, cfg, nil)
			if err != nil {
				t.Fatalf("runWorkload: %v", err)
			}

			if result.Writes != cfg.Writes {
				t.Errorf("expected %d writes, got %d", cfg.Writes, result.Writes)
			}
			if result.Ops != tt.ops {
				t.Errorf("expected %d ops, got %d", tt.ops, result.Ops)
			}
			if len(result.Samples) != tt.ops {
				t.Errorf("expected %d samples, got %d", tt.ops, len(result.Samples))
			}
			if result.SinkRuns <= cfg.Effects {
				t.Errorf("sinks should re-run after writes, got %d runs", result.SinkRuns)
			}
			if result.Events == 0 {
				t.Error("expected published events")
			}
			if result.History > cfg.HistoryLimit {
				t.Errorf("history exceeds limit: %d", result.History)
			}
			if result.Peak.Effects == 0 {
				t.Error("expected live effects before dispose")
			}
			if result.Leaked() {
				t.Errorf("disposal leaked: %+v", result.After)
			}
		})
	}
}

func TestRunWorkloadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rt := newTestRuntime(prometheus.NewRegistry())
	_, err := runWorkload(ctx, rt, smallWorkload(), nil)
	if err == nil {
		t.Fatal("expected context error")
	}
	if stats := rt.Stats(); stats.Observers != 0 {
		t.Errorf("cancelled run should still dispose, got %+v", stats)
	}
}

func TestRunWorkloadProgress(t *testing.T) {
	cfg := smallWorkload()
	cfg.Writes = 2 * progressEvery

	var snapshots []reactive.Stats
	rt := newTestRuntime(prometheus.NewRegistry())
	if _, err := runWorkload(context.Background(), rt, cfg, func(s reactive.Stats) {
		snapshots = append(snapshots, s)
	}); err != nil {
		t.Fatalf("runWorkload: %v", err)
	}

	if len(snapshots) != 3 {
		t.Fatalf("expected 3 snapshots, got %d", len(snapshots))
	}
	if last := snapshots[len(snapshots)-1]; last.Observers != 0 {
		t.Errorf("final snapshot should follow dispose, got %+v", last)
	}
}

func TestWorkloadValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*workloadConfig)
		want   string
	}{
		{"no cells", func(c *workloadConfig) { c.Cells = 0 }, "--cells"},
		{"negative effects", func(c *workloadConfig) { c.Effects = -1 }, "--effects"},
		{"no fanout", func(c *workloadConfig) { c.Fanout = 0 }, "--fanout"},
		{"no writes", func(c *workloadConfig) { c.Writes = 0 }, "--writes"},
		{"no batch", func(c *workloadConfig) { c.BatchSize = 0 }, "--batch"},
		{"negative history", func(c *workloadConfig) { c.HistoryLimit = -1 }, "--history"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallWorkload()
			tt.mutate(&cfg)
			err := cfg.validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}

	for name, p := range profiles {
		if err := p.validate(); err != nil {
			t.Errorf("profile %s invalid: %v", name, err)
		}
	}
}

func TestResolveWorkload(t *testing.T) {
	cmd := benchCmd()
	if err := cmd.Flags().Parse([]string{"--profile", "fast", "--writes", "50", "--batch", "5"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	var flags benchFlags
	flags.profile, _ = cmd.Flags().GetString("profile")
	flags.writes, _ = cmd.Flags().GetInt("writes")
	flags.batch, _ = cmd.Flags().GetInt("batch")

	cfg, err := resolveWorkload(cmd, flags)
	if err != nil {
		t.Fatalf("resolveWorkload: %v", err)
	}
	if cfg.Writes != 50 || cfg.BatchSize != 5 {
		t.Errorf("flags should override profile, got %+v", cfg)
	}
	if cfg.Cells != profiles["fast"].Cells {
		t.Errorf("unset flags should keep profile values, got %d cells", cfg.Cells)
	}

	flags.profile = "turbo"
	if _, err := resolveWorkload(cmd, flags); err == nil {
		t.Error("expected unknown profile error")
	}
}

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	tests := []struct {
		p    float64
		want time.Duration
	}{
		{0, 1},
		{0.5, 5},
		{0.95, 10},
		{1, 10},
	}
	for _, tt := range tests {
		if got := percentile(samples, tt.p); got != tt.want {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	if percentile(nil, 0.5) != 0 {
		t.Error("empty samples should give 0")
	}
}

func TestBuildReport(t *testing.T) {
	cfg := smallWorkload()
	rt := newTestRuntime(prometheus.NewRegistry())
	result, err := runWorkload(context.Background(), rt, cfg, nil)
	if err != nil {
		t.Fatalf("runWorkload: %v", err)
	}

	report := buildReport(cfg, result, 0)
	if report.Throughput.Writes != cfg.Writes {
		t.Errorf("expected %d writes, got %d", cfg.Writes, report.Throughput.Writes)
	}
	if report.Graph.Leaked {
		t.Error("expected no leak")
	}
	if report.LatencyUS.Min > report.LatencyUS.Max {
		t.Errorf("min %v above max %v", report.LatencyUS.Min, report.LatencyUS.Max)
	}

	var sb strings.Builder
	writeSummary(&sb, report)
	if !strings.Contains(sb.String(), "After dispose: 0 observers, 0 edges") {
		t.Errorf("unexpected summary:\n%s", sb.String())
	}
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	rt := newTestRuntime(reg)
	c := reactive.NewCell(rt, 0)
	rt.Effect(func() reactive.Cleanup {
		_ = c.Get()
		return nil
	})

	var stats statsBox
	stats.store(rt.Stats())
	srv := httptest.NewServer(newRouter(reg, &stats))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "cellgraph_reactive_effect_runs_total 1") {
		t.Errorf("metrics missing effect runs:\n%s", body)
	}

	resp, err = http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatalf("GET /stats: %v", err)
	}
	defer resp.Body.Close()
	var got reactive.Stats
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if got.Effects != 1 || got.Edges != 1 {
		t.Errorf("unexpected stats %+v", got)
	}
}
