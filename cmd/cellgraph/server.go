package main

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/cellgraph/pkg/reactive"
)

// statsBox hands runtime stats from the workload goroutine to HTTP
// handlers. The runtime itself is never touched off its goroutine.
type statsBox struct {
	latest atomic.Pointer[reactive.Stats]
}

func (b *statsBox) store(s reactive.Stats) {
	b.latest.Store(&s)
}

func (b *statsBox) load() reactive.Stats {
	if s := b.latest.Load(); s != nil {
		return *s
	}
	return reactive.Stats{}
}

// newRouter serves the workload's Prometheus registry at /metrics and the
// latest graph stats at /stats.
func newRouter(reg *prometheus.Registry, stats *statsBox) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats.load())
	})
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
