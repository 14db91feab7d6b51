package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/cellgraph/pkg/reactive"
)

type benchFlags struct {
	profile     string
	cells       int
	effects     int
	fanout      int
	writes      int
	batch       int
	history     int
	jsonOutput  string
	metricsAddr string
	hold        time.Duration
	verbose     bool
}

func benchCmd() *cobra.Command {
	var flags benchFlags

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a synthetic workload against the runtime",
		Long: `Run a synthetic workload against the reactive runtime.

Each sink effect reads a derived value summing --fanout cells. The first
derived value is published to an event broker with a history cell and a
counting subscriber. Writes go to the cells round-robin, --batch writes
per batch. After the run the root scope is disposed and the command
checks that no observers or edges remain.

Profiles:
  fast      100 cells, 200 sinks, 10k writes
  standard  1k cells, 2k sinks, 100k writes in batches of 10
  stress    10k cells, 20k sinks, 1M writes in batches of 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveWorkload(cmd, flags)
			if err != nil {
				return err
			}
			return runBench(cmd.Context(), cfg, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.profile, "profile", "p", "standard", "Profile: fast|standard|stress")
	cmd.Flags().IntVar(&flags.cells, "cells", 0, "Number of cells")
	cmd.Flags().IntVar(&flags.effects, "effects", 0, "Number of derived values, each with a sink effect")
	cmd.Flags().IntVar(&flags.fanout, "fanout", 0, "Cells read per derived value")
	cmd.Flags().IntVar(&flags.writes, "writes", 0, "Total cell writes")
	cmd.Flags().IntVar(&flags.batch, "batch", 0, "Writes per batch (1 disables batching)")
	cmd.Flags().IntVar(&flags.history, "history", 0, "Event history limit (0 keeps everything)")
	cmd.Flags().StringVar(&flags.jsonOutput, "json", "", "Write a JSON report to this path ('-' for stdout)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve /metrics and /stats on this address during the run")
	cmd.Flags().DurationVar(&flags.hold, "hold", 0, "Keep serving metrics this long after the run")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	return cmd
}

// resolveWorkload starts from the named profile and applies the flags the
// user set explicitly.
func resolveWorkload(cmd *cobra.Command, flags benchFlags) (workloadConfig, error) {
	name := strings.ToLower(strings.TrimSpace(flags.profile))
	cfg, ok := profiles[name]
	if !ok {
		return workloadConfig{}, fmt.Errorf("unknown profile %q", flags.profile)
	}

	set := cmd.Flags().Changed
	if set("cells") {
		cfg.Cells = flags.cells
	}
	if set("effects") {
		cfg.Effects = flags.effects
	}
	if set("fanout") {
		cfg.Fanout = flags.fanout
	}
	if set("writes") {
		cfg.Writes = flags.writes
	}
	if set("batch") {
		cfg.BatchSize = flags.batch
	}
	if set("history") {
		cfg.HistoryLimit = flags.history
	}

	return cfg, cfg.validate()
}

func runBench(ctx context.Context, cfg workloadConfig, flags benchFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	reg := prometheus.NewRegistry()
	cleanupErrors := 0
	rt := reactive.NewRuntime(
		reactive.WithLogger(logger),
		reactive.WithMetrics(reactive.NewMetrics(reactive.WithRegistry(reg))),
		reactive.WithErrorHandler(func(error) { cleanupErrors++ }),
		reactive.WithDebug(flags.verbose),
	)

	var stats statsBox
	if flags.metricsAddr != "" {
		ln, err := net.Listen("tcp", flags.metricsAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", flags.metricsAddr, err)
		}
		srv := &http.Server{Handler: newRouter(reg, &stats), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		info("Serving metrics on http://%s/metrics", ln.Addr())
	}

	info("Running %s profile: %d cells, %d sinks, %d writes", cfg.Profile, cfg.Cells, cfg.Effects, cfg.Writes)
	result, err := runWorkload(ctx, rt, cfg, stats.store)
	if err != nil {
		return err
	}

	report := buildReport(cfg, result, cleanupErrors)
	writeSummary(os.Stdout, report)

	if flags.jsonOutput != "" {
		if err := writeJSON(flags.jsonOutput, report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if result.Leaked() {
		return fmt.Errorf("disposal left %d observers and %d edges", result.After.Observers, result.After.Edges)
	}
	success("Disposal left no observers or edges")

	if flags.metricsAddr != "" && flags.hold > 0 {
		info("Holding metrics server for %s", flags.hold)
		select {
		case <-time.After(flags.hold):
		case <-ctx.Done():
			warn("Interrupted")
		}
	}

	return nil
}
