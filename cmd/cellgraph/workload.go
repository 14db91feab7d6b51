package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vango-dev/cellgraph/pkg/derived"
	"github.com/vango-dev/cellgraph/pkg/pubsub"
	"github.com/vango-dev/cellgraph/pkg/reactive"
)

// progressEvery is how many write operations pass between stats snapshots.
const progressEvery = 1000

type workloadConfig struct {
	Profile      string
	Cells        int
	Effects      int
	Fanout       int
	Writes       int
	BatchSize    int
	HistoryLimit int
}

var profiles = map[string]workloadConfig{
	"fast": {
		Profile:      "fast",
		Cells:        100,
		Effects:      200,
		Fanout:       4,
		Writes:       10_000,
		BatchSize:    1,
		HistoryLimit: 64,
	},
	"standard": {
		Profile:      "standard",
		Cells:        1_000,
		Effects:      2_000,
		Fanout:       8,
		Writes:       100_000,
		BatchSize:    10,
		HistoryLimit: 256,
	},
	"stress": {
		Profile:      "stress",
		Cells:        10_000,
		Effects:      20_000,
		Fanout:       16,
		Writes:       1_000_000,
		BatchSize:    100,
		HistoryLimit: 1_024,
	},
}

func (c workloadConfig) validate() error {
	switch {
	case c.Cells <= 0:
		return errors.New("--cells must be > 0")
	case c.Effects < 0:
		return errors.New("--effects must be >= 0")
	case c.Fanout <= 0:
		return errors.New("--fanout must be > 0")
	case c.Writes <= 0:
		return errors.New("--writes must be > 0")
	case c.BatchSize <= 0:
		return errors.New("--batch must be > 0")
	case c.HistoryLimit < 0:
		return errors.New("--history must be >= 0")
	}
	return nil
}

type workloadResult struct {
	Ops     int
	Writes  int
	Elapsed time.Duration

	// Samples holds one latency per write operation, sorted ascending.
	Samples []time.Duration

	SinkRuns int
	Events   int
	History  int

	Peak  reactive.Stats
	After reactive.Stats
}

// Leaked reports whether disposing the workload's root scope left
// observers or edges behind.
func (r workloadResult) Leaked() bool {
	return r.After.Observers != 0 || r.After.Edges != 0
}

// inputs picks the cells the i-th derived value sums.
func inputs(cells []*reactive.Cell[int], i, fanout int) []*reactive.Cell[int] {
	out := make([]*reactive.Cell[int], fanout)
	for k := range out {
		out[k] = cells[(i*7+k*13)%len(cells)]
	}
	return out
}

// runWorkload builds the graph under one root scope, writes to it, then
// disposes the scope. progress, when set, receives periodic stats.
func runWorkload(ctx context.Context, rt *reactive.Runtime, cfg workloadConfig, progress func(reactive.Stats)) (workloadResult, error) {
	var result workloadResult
	if err := cfg.validate(); err != nil {
		return result, err
	}

	cells := make([]*reactive.Cell[int], cfg.Cells)
	broker := pubsub.NewBroker[int](pubsub.WithLogger(rt.Config().Logger))

	var history *reactive.Cell[[]int]
	root := rt.Scope(func() {
		for i := range cells {
			cells[i] = reactive.NewCell(rt, 0)
		}

		history = pubsub.EventHistory(rt, broker, "total", cfg.HistoryLimit)
		pubsub.EventEffect(rt, broker, "total", func(int) { result.Events++ })

		var first *derived.Value[int]
		for i := 0; i < cfg.Effects; i++ {
			in := inputs(cells, i, cfg.Fanout)
			sum := derived.New(rt, func() int {
				total := 0
				for _, c := range in {
					total += c.Get()
				}
				return total
			}, derived.WithName[int](fmt.Sprintf("sum-%d", i)))
			if first == nil {
				first = sum
			}

			rt.Effect(func() reactive.Cleanup {
				_ = sum.Get()
				result.SinkRuns++
				return nil
			}, reactive.EffectName(fmt.Sprintf("sink-%d", i)))
		}

		if first != nil {
			pubsub.PublishEffect(rt, broker, "total", first.Get)
		}
	})
	defer root.Dispose()

	result.Samples = make([]time.Duration, 0, (cfg.Writes+cfg.BatchSize-1)/cfg.BatchSize)
	start := time.Now()
	for w := 0; w < cfg.Writes; {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		n := min(cfg.BatchSize, cfg.Writes-w)
		opStart := time.Now()
		if n == 1 {
			cells[w%len(cells)].Set(w + 1)
		} else {
			rt.Batch(func() {
				for j := 0; j < n; j++ {
					cells[(w+j)%len(cells)].Set(w + j + 1)
				}
			})
		}
		result.Samples = append(result.Samples, time.Since(opStart))

		w += n
		result.Ops++
		result.Writes += n
		if progress != nil && result.Ops%progressEvery == 0 {
			progress(rt.Stats())
		}
	}
	result.Elapsed = time.Since(start)
	slices.Sort(result.Samples)

	result.History = len(history.Peek())
	result.Peak = rt.Stats()
	root.Dispose()
	result.After = rt.Stats()
	if progress != nil {
		progress(result.After)
	}

	return result, nil
}
