package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"time"

	"github.com/vango-dev/cellgraph/pkg/reactive"
)

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   workloadInfo   `json:"workload"`
	LatencyUS  latencyInfo    `json:"latency_us"`
	Throughput throughputInfo `json:"throughput"`
	Graph      graphInfo      `json:"graph"`
	Errors     errorInfo      `json:"errors"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

type workloadInfo struct {
	Profile      string `json:"profile"`
	Cells        int    `json:"cells"`
	Effects      int    `json:"effects"`
	Fanout       int    `json:"fanout"`
	Writes       int    `json:"writes"`
	BatchSize    int    `json:"batch_size"`
	HistoryLimit int    `json:"history_limit"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	Ops          int     `json:"ops"`
	Writes       int     `json:"writes"`
	ElapsedMS    float64 `json:"elapsed_ms"`
	WritesPerSec float64 `json:"writes_per_sec"`
	SinkRuns     int     `json:"sink_runs"`
	Events       int     `json:"events"`
	History      int     `json:"history"`
}

type graphInfo struct {
	Peak   reactive.Stats `json:"peak"`
	After  reactive.Stats `json:"after_dispose"`
	Leaked bool           `json:"leaked"`
}

type errorInfo struct {
	Cleanup int `json:"cleanup"`
}

func buildReport(cfg workloadConfig, result workloadResult, cleanupErrors int) benchReport {
	report := benchReport{
		Version: version,
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
		},
		Workload: workloadInfo{
			Profile:      cfg.Profile,
			Cells:        cfg.Cells,
			Effects:      cfg.Effects,
			Fanout:       cfg.Fanout,
			Writes:       cfg.Writes,
			BatchSize:    cfg.BatchSize,
			HistoryLimit: cfg.HistoryLimit,
		},
		Throughput: throughputInfo{
			Ops:       result.Ops,
			Writes:    result.Writes,
			ElapsedMS: float64(result.Elapsed) / float64(time.Millisecond),
			SinkRuns:  result.SinkRuns,
			Events:    result.Events,
			History:   result.History,
		},
		Graph: graphInfo{
			Peak:   result.Peak,
			After:  result.After,
			Leaked: result.Leaked(),
		},
		Errors: errorInfo{Cleanup: cleanupErrors},
	}

	if result.Elapsed > 0 {
		report.Throughput.WritesPerSec = float64(result.Writes) / result.Elapsed.Seconds()
	}
	if n := len(result.Samples); n > 0 {
		report.LatencyUS = latencyInfo{
			Min: us(result.Samples[0]),
			P50: us(percentile(result.Samples, 0.50)),
			P95: us(percentile(result.Samples, 0.95)),
			P99: us(percentile(result.Samples, 0.99)),
			Max: us(result.Samples[n-1]),
		}
	}

	return report
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}

func us(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== cellgraph bench ===")
	fmt.Fprintf(w, "Profile: %s\n", report.Workload.Profile)
	fmt.Fprintf(w, "Cells: %d  Effects: %d  Fanout: %d\n",
		report.Workload.Cells, report.Workload.Effects, report.Workload.Fanout)
	fmt.Fprintf(w, "Writes: %d in batches of %d\n", report.Workload.Writes, report.Workload.BatchSize)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Elapsed: %.1f ms\n", report.Throughput.ElapsedMS)
	fmt.Fprintf(w, "Throughput: %.0f writes/s\n", report.Throughput.WritesPerSec)
	fmt.Fprintf(w, "Sink runs: %d  Events: %d  History: %d\n",
		report.Throughput.SinkRuns, report.Throughput.Events, report.Throughput.History)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Latency per write operation:")
	fmt.Fprintf(w, "  min: %.2f us\n", report.LatencyUS.Min)
	fmt.Fprintf(w, "  p50: %.2f us\n", report.LatencyUS.P50)
	fmt.Fprintf(w, "  p95: %.2f us\n", report.LatencyUS.P95)
	fmt.Fprintf(w, "  p99: %.2f us\n", report.LatencyUS.P99)
	fmt.Fprintf(w, "  max: %.2f us\n", report.LatencyUS.Max)
	fmt.Fprintln(w)

	peak := report.Graph.Peak
	fmt.Fprintf(w, "Graph at peak: %d observers (%d effects, %d scopes), %d edges\n",
		peak.Observers, peak.Effects, peak.Scopes, peak.Edges)
	after := report.Graph.After
	fmt.Fprintf(w, "After dispose: %d observers, %d edges\n", after.Observers, after.Edges)
	fmt.Fprintf(w, "Cleanup errors: %d\n", report.Errors.Cleanup)
}

func writeJSON(path string, report benchReport) error {
	var out io.Writer
	if path == "-" {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		out = file
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
