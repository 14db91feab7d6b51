package pubsub

import (
	"slices"
	"testing"

	"github.com/vango-dev/cellgraph/pkg/reactive"
)

func newTestRuntime() *reactive.Runtime {
	return reactive.NewRuntime(reactive.WithLogger(quietLogger()))
}

func TestEventCell(t *testing.T) {
	rt := newTestRuntime()
	b := NewBroker[string](WithLogger(quietLogger()))

	var seen []string
	var last *reactive.Cell[string]
	s := rt.Scope(func() {
		last = EventCell(rt, b, "greet", "none")
		rt.Effect(func() reactive.Cleanup {
			seen = append(seen, last.Get())
			return nil
		})
	})

	b.Publish("greet", "hello")
	b.Publish("greet", "hello")
	b.Publish("greet", "bye")

	want := []string{"none", "hello", "bye"}
	if !slices.Equal(seen, want) {
		t.Errorf("expected %v, got %v", want, seen)
	}

	s.Dispose()
	if b.HasSubscribers("greet") {
		t.Error("disposing the scope should unsubscribe")
	}
}

func TestEventHistory(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  []int
	}{
		{"unbounded", 0, []int{1, 2, 3, 4}},
		{"bounded", 2, []int{3, 4}},
		{"larger than published", 10, []int{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := newTestRuntime()
			b := NewBroker[int](WithLogger(quietLogger()))
			history := EventHistory(rt, b, "n", tt.limit)

			for i := 1; i <= 4; i++ {
				b.Publish("n", i)
			}

			if got := history.Peek(); !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEventHistoryNotifiesEveryPublish(t *testing.T) {
	rt := newTestRuntime()
	b := NewBroker[int](WithLogger(quietLogger()))
	history := EventHistory(rt, b, "n", 1)

	runs := 0
	rt.Effect(func() reactive.Cleanup {
		_ = history.Get()
		runs++
		return nil
	})

	b.Publish("n", 7)
	b.Publish("n", 7)

	if runs != 3 {
		t.Errorf("expected 3 runs, got %d", runs)
	}
}

func TestEventEffectTiedToOwner(t *testing.T) {
	rt := newTestRuntime()
	b := NewBroker[int](WithLogger(quietLogger()))
	topic := reactive.NewCell(rt, "a")

	var got []string
	rt.Effect(func() reactive.Cleanup {
		name := topic.Get()
		EventEffect(rt, b, name, func(n int) {
			got = append(got, name)
		})
		return nil
	})

	b.Publish("a", 1)
	topic.Set("b")
	b.Publish("a", 2)
	b.Publish("b", 3)

	want := []string{"a", "b"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if b.HasSubscribers("a") {
		t.Error("re-run should have unsubscribed from a")
	}
}

func TestEventEffectEarlyUnsubscribe(t *testing.T) {
	rt := newTestRuntime()
	b := NewBroker[int](WithLogger(quietLogger()))

	calls := 0
	var unsubscribe func()
	s := rt.Scope(func() {
		unsubscribe = EventEffect(rt, b, "n", func(int) { calls++ })
	})

	unsubscribe()
	b.Publish("n", 1)
	s.Dispose()

	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestPublishEffect(t *testing.T) {
	rt := newTestRuntime()
	b := NewBroker[int](WithLogger(quietLogger()))
	count := reactive.NewCell(rt, 1)
	other := reactive.NewCell(rt, 0)

	var got []int
	b.Subscribe("count", func(n int) {
		_ = other.Get()
		got = append(got, n)
	})

	e := PublishEffect(rt, b, "count", func() int { return count.Get() * 2 })

	count.Set(2)
	other.Set(1)

	want := []int{2, 4}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	e.Stop()
	count.Set(3)
	if len(got) != 2 {
		t.Errorf("stopped effect should not publish, got %v", got)
	}
}
