package reactive

import (
	"testing"
	"time"
)

// chanDispatcher queues dispatched functions for the test goroutine,
// dropping them when the buffer is full.
type chanDispatcher chan func()

func (d chanDispatcher) Dispatch(fn func()) {
	select {
	case d <- fn:
	default:
	}
}

func (d chanDispatcher) next(t *testing.T) func() {
	t.Helper()
	select {
	case fn := <-d:
		return fn
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
		return nil
	}
}

// drain runs every queued function.
func (d chanDispatcher) drain() {
	for {
		select {
		case fn := <-d:
			fn()
		default:
			return
		}
	}
}

func TestUseResource(t *testing.T) {
	rt := newTestRuntime()

	released := false
	var got string
	s := rt.Scope(func() {
		got = UseResource(rt, func() (string, func()) {
			return "conn", func() { released = true }
		})
	})

	if got != "conn" {
		t.Errorf("expected %q, got %q", "conn", got)
	}
	if released {
		t.Error("resource should not be released before dispose")
	}
	s.Dispose()
	if !released {
		t.Error("resource should be released on dispose")
	}
}

func TestTimeoutDispatchesOnce(t *testing.T) {
	rt := newTestRuntime()
	d := make(chanDispatcher, 4)
	fired := NewCell(rt, false)

	rt.Timeout(time.Millisecond, func() { fired.Set(true) }, d)
	d.next(t)()

	if !fired.Peek() {
		t.Error("timeout callback should have run")
	}
}

func TestTimeoutStoppedByScope(t *testing.T) {
	rt := newTestRuntime()
	d := make(chanDispatcher, 4)
	fired := false

	s := rt.Scope(func() {
		rt.Timeout(time.Millisecond, func() { fired = true }, d)
	})
	fn := d.next(t)
	s.Dispose()
	fn()

	if fired {
		t.Error("callback dispatched before dispose should not run after it")
	}
}

func TestIntervalTicksUntilStopped(t *testing.T) {
	rt := newTestRuntime()
	d := make(chanDispatcher, 16)
	ticks := NewCell(rt, 0)

	var seen []int
	rt.Effect(func() Cleanup {
		seen = append(seen, ticks.Get())
		return nil
	})

	stop := rt.Interval(time.Millisecond, func() {
		ticks.Update(func(n int) int { return n + 1 })
	}, d)

	for i := 0; i < 3; i++ {
		d.next(t)()
	}
	stop()
	stop()

	d.drain()

	if ticks.Peek() != 3 {
		t.Errorf("expected 3 ticks, got %d", ticks.Peek())
	}
	if len(seen) != 4 {
		t.Errorf("expected the effect to see each tick, got %v", seen)
	}
}

func TestIntervalOwnedByEffect(t *testing.T) {
	rt := newTestRuntime()
	d := make(chanDispatcher, 16)
	enabled := NewCell(rt, true)
	ticks := 0

	rt.Effect(func() Cleanup {
		if !enabled.Get() {
			return nil
		}
		return rt.Interval(time.Millisecond, func() { ticks++ }, d)
	})

	d.next(t)()
	enabled.Set(false)

	d.drain()

	if ticks != 1 {
		t.Errorf("interval should stop when the effect re-runs, got %d ticks", ticks)
	}
}

func TestIntervalRejectsNonPositiveDuration(t *testing.T) {
	rt := newTestRuntime()
	d := make(chanDispatcher, 1)

	for _, period := range []time.Duration{0, -time.Second} {
		r := recoverPanic(func() {
			rt.Interval(period, func() {}, d)
		})
		if r == nil {
			t.Errorf("Interval(%v) should panic at the call site", period)
		}
	}
}

func TestDispatcherFunc(t *testing.T) {
	called := false
	DispatcherFunc(func(fn func()) { fn() }).Dispatch(func() { called = true })
	if !called {
		t.Error("DispatcherFunc should call through")
	}
}
