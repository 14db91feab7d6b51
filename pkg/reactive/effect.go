package reactive

// Effect is a reactive observer that re-runs its body whenever a cell it
// read during its previous run changes.
//
// The body runs once when the effect is created. Before every re-run the
// effect drops its dependency edges, runs the cleanups registered during
// the previous run, and disposes the effects and scopes that run created.
type Effect struct {
	rt   *Runtime
	id   ObserverID
	name string
	node *node
}

// EffectOption configures an Effect.
type EffectOption func(*effectConfig)

type effectConfig struct {
	name string
}

// EffectName labels the effect in logs, metrics and errors.
func EffectName(name string) EffectOption {
	return func(c *effectConfig) {
		c.name = name
	}
}

// Effect creates an effect and runs body immediately. A non-nil Cleanup
// returned by body runs before the next run or when the effect stops.
//
// The effect becomes a child of the innermost running effect or active
// scope and is stopped when that parent re-runs or is disposed.
//
// If the first run panics, the effect is disposed and the panic propagates.
//
// Example:
//
//	e := rt.Effect(func() reactive.Cleanup {
//	    fmt.Println("Count is:", count.Get())
//	    return nil
//	})
//	defer e.Stop()
func (rt *Runtime) Effect(body func() Cleanup, opts ...EffectOption) *Effect {
	var cfg effectConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	n := rt.newNode(KindEffect, cfg.name)
	n.body = body
	rt.adopt(n)

	ok := false
	defer func() {
		if !ok {
			rt.dispose(n)
		}
	}()
	rt.runEffect(n)
	ok = true

	return &Effect{rt: rt, id: n.id, name: cfg.name, node: n}
}

// ID returns the effect's observer identifier.
func (e *Effect) ID() ObserverID {
	return e.id
}

// Name returns the name given with EffectName.
func (e *Effect) Name() string {
	return e.name
}

// Runs returns how many times the body has run, including the first run.
func (e *Effect) Runs() int {
	return e.node.runs
}

// Disposed reports whether the effect has been stopped, directly or by
// its parent.
func (e *Effect) Disposed() bool {
	_, live := e.rt.nodes[e.id]
	return !live
}

// Stop removes the effect's edges, runs its cleanups and disposes its
// children. Stop is terminal; later calls do nothing.
func (e *Effect) Stop() {
	if n := e.rt.nodes[e.id]; n != nil {
		e.rt.dispose(n)
	}
}

// runObserver re-runs a live effect by ID. Scopes and disposed observers
// are skipped.
func (rt *Runtime) runObserver(id ObserverID) {
	n := rt.nodes[id]
	if n == nil || n.state == stateDisposed || n.kind != KindEffect {
		return
	}
	rt.runEffect(n)
}

// runEffect performs one run: teardown of the previous run, then the body
// under a fresh tracking frame. A panicking body propagates after the
// stacks are restored.
func (rt *Runtime) runEffect(n *node) {
	if n.active >= rt.cfg.MaxRunDepth {
		panic(&CascadeError{Observer: n.id, Name: n.name, Depth: n.active})
	}
	n.active++
	defer func() { n.active-- }()

	rt.clearEdges(n)
	rt.release(n)
	if n.state == stateDisposed {
		// A previous cleanup stopped this effect.
		return
	}

	n.state = stateRunning
	n.runs++
	rt.cfg.Metrics.effectRun()
	if rt.cfg.LogEffectRuns {
		rt.cfg.Logger.Debug("reactive: effect run",
			"observer", uint64(n.id),
			"name", n.name,
			"run", n.runs,
			"depth", n.active)
	}

	rt.pushFrame(n.id, n.id)
	defer func() {
		rt.popFrame()
		if n.state == stateRunning {
			n.state = stateIdle
		}
	}()

	cleanup := n.body()
	if cleanup == nil {
		return
	}
	if n.state == stateDisposed {
		// Stopped from inside its own body.
		rt.invokeCleanup(n.ref(), cleanup)
		return
	}
	n.cleanups = append(n.cleanups, cleanup)
}
