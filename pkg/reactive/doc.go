// Package reactive provides a fine-grained reactive runtime.
//
// Reading a Cell while an Effect is running records a dependency edge.
// Writing a Cell with a value that differs (same-value equality) re-runs
// exactly the effects that read it during their most recent run.
//
// # Core Types
//
// Cell[T] is a tracked value holder:
//
//	rt := reactive.NewRuntime()
//	count := reactive.NewCell(rt, 0)
//	value := count.Get()  // Read (subscribes the running effect)
//	count.Set(5)          // Write (re-runs subscribers)
//	_ = count.Peek()      // Read without subscribing
//
// Effect re-runs its body whenever a cell it read changes:
//
//	e := rt.Effect(func() reactive.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return func() { /* runs before the next run and on Stop */ }
//	})
//	defer e.Stop()
//
// Scope groups disposal of resources without ever re-running:
//
//	s := rt.Scope(func() {
//	    rt.OnCleanup(closeSocket)
//	    rt.Scope(func() { rt.OnCleanup(stopTimer) })
//	})
//	s.Dispose() // closeSocket, then stopTimer
//
// # Batching
//
// Writes inside Batch defer propagation until the outermost batch exits;
// each affected effect runs once:
//
//	rt.Batch(func() {
//	    first.Set("John")
//	    last.Set("Doe")
//	})
//
// # Errors
//
// A panicking effect body propagates to the caller of the write (or the
// Effect call) that ran it. A panicking cleanup callback is recovered,
// reported as a *CleanupError to the configured error handler, logged, and
// does not stop sibling cleanups.
//
// # Thread Safety
//
// A Runtime is not safe for concurrent use. Confine each Runtime to one
// goroutine; Interval and Timeout hand their callbacks back through a
// Dispatcher for that reason.
package reactive
