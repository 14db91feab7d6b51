package reactive

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Dispatcher runs a function on the goroutine that owns a Runtime.
// Interval and Timeout use it to bring timer callbacks back to that
// goroutine.
//
// Dispatch must not block indefinitely: queue fn or drop it. A timer
// goroutine stuck in Dispatch cannot observe its stop signal.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// UseResource acquires a resource and registers its release with the
// current disposal target.
//
// Example:
//
//	conn := reactive.UseResource(rt, func() (*Conn, func()) {
//	    c := dial()
//	    return c, func() { c.Close() }
//	})
func UseResource[T any](rt *Runtime, setup func() (T, func())) T {
	resource, release := setup()
	if release != nil {
		rt.OnCleanup(release)
	}
	return resource
}

// Interval hands fn to dispatch every d until the returned Cleanup runs.
// The Cleanup is also registered with the current disposal target, so an
// interval created inside an effect or scope stops with it. Each tick runs
// as a transaction named "interval". Interval panics if d <= 0.
//
// Example:
//
//	rt.Effect(func() reactive.Cleanup {
//	    return rt.Interval(time.Second, func() {
//	        ticks.Update(func(n int) int { return n + 1 })
//	    }, loop)
//	})
func (rt *Runtime) Interval(d time.Duration, fn func(), dispatch Dispatcher) Cleanup {
	if d <= 0 {
		panic(fmt.Sprintf("reactive: non-positive interval %v", d))
	}

	var stopped atomic.Bool
	done := make(chan struct{})

	tick := func() {
		if stopped.Load() {
			return
		}
		rt.TxNamed("interval", fn)
	}

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if stopped.Load() {
					return
				}
				dispatch.Dispatch(tick)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			stopped.Store(true)
			close(done)
		})
	}
	rt.OnCleanup(stop)
	return stop
}

// Timeout hands fn to dispatch once after d unless the returned Cleanup
// runs first. The Cleanup is also registered with the current disposal
// target.
func (rt *Runtime) Timeout(d time.Duration, fn func(), dispatch Dispatcher) Cleanup {
	var stopped atomic.Bool

	timer := time.AfterFunc(d, func() {
		dispatch.Dispatch(func() {
			if stopped.Load() {
				return
			}
			rt.TxNamed("timeout", fn)
		})
	})

	stop := func() {
		stopped.Store(true)
		timer.Stop()
	}
	rt.OnCleanup(stop)
	return stop
}
