package reactive

import rterrors "github.com/vango-dev/cellgraph/internal/errors"

// Scope groups the disposal of resources. Its setup function runs once;
// cleanups registered with OnCleanup during setup, and the effects and
// scopes created during setup, belong to the scope.
type Scope struct {
	rt *Runtime
	id ObserverID
}

// Scope creates a scope and runs fn with it as the current disposal
// target. Reads inside fn are not tracked by any enclosing effect.
//
// The scope becomes a child of the innermost running effect or active
// scope. If fn panics, the scope is disposed and the panic propagates.
func (rt *Runtime) Scope(fn func()) *Scope {
	n := rt.newNode(KindScope, "")
	rt.adopt(n)

	ok := false
	defer func() {
		if !ok {
			rt.dispose(n)
		}
	}()

	rt.pushFrame(0, n.id)
	func() {
		defer rt.popFrame()
		fn()
	}()
	ok = true

	return &Scope{rt: rt, id: n.id}
}

// CreateScope is Scope returning only the bound dispose function.
func (rt *Runtime) CreateScope(fn func()) (dispose func()) {
	return rt.Scope(fn).Dispose
}

// ID returns the scope's observer identifier.
func (s *Scope) ID() ObserverID {
	return s.id
}

// Disposed reports whether the scope has been disposed, directly or by
// its parent.
func (s *Scope) Disposed() bool {
	_, live := s.rt.nodes[s.id]
	return !live
}

// Dispose runs the scope's cleanups in registration order, then disposes
// its children in creation order. Dispose is terminal; later calls do
// nothing.
func (s *Scope) Dispose() {
	if n := s.rt.nodes[s.id]; n != nil {
		s.rt.dispose(n)
	}
}

// Run runs fn with the scope as the current disposal target, so cleanups
// and observers created by fn attach to it. On a disposed scope fn is not
// called and the returned error matches ErrDisposed.
func (s *Scope) Run(fn func()) error {
	n := s.rt.nodes[s.id]
	if n == nil {
		return rterrors.New(rterrors.CodeDisposed).
			WithDetail(observerLabel(KindScope, s.id, "")).
			WithSuggestion("Run only attaches work to a live scope; create a new one with Runtime.Scope.").
			Wrap(ErrDisposed)
	}
	s.rt.pushFrame(0, n.id)
	defer s.rt.popFrame()
	fn()
	return nil
}

// OnCleanup registers fn with the innermost disposal target: the running
// effect (for its current run) or the active scope. With no target the
// call does nothing. If the target was disposed while it was still on the
// stack, fn runs immediately.
func (rt *Runtime) OnCleanup(fn Cleanup) {
	if fn == nil || len(rt.owners) == 0 {
		return
	}
	id := rt.owners[len(rt.owners)-1]
	if id == 0 {
		return
	}
	n := rt.nodes[id]
	if n == nil || n.state == stateDisposed {
		rt.invokeCleanup(observerRef{id: id}, fn)
		return
	}
	n.cleanups = append(n.cleanups, fn)
}

// dispose is the single teardown path for effects and scopes: drop edges,
// leave the pending set, leave the arena, unlink from the parent, then
// release cleanups and children.
func (rt *Runtime) dispose(n *node) {
	if n.state == stateDisposed {
		return
	}
	n.state = stateDisposed

	rt.clearEdges(n)
	rt.pending.remove(n.id)
	delete(rt.nodes, n.id)
	rt.unlink(n)
	rt.cfg.Metrics.observerDisposed(n.kind)

	rt.release(n)
}

// release runs n's cleanups in registration order, each isolated, then
// disposes n's children depth-first in creation order.
func (rt *Runtime) release(n *node) {
	cleanups := n.cleanups
	n.cleanups = nil
	ref := n.ref()
	for _, fn := range cleanups {
		rt.invokeCleanup(ref, fn)
	}

	children := n.children
	n.children = nil
	for _, id := range children {
		if child := rt.nodes[id]; child != nil {
			rt.dispose(child)
		}
	}
}

// observerRef identifies a cleanup's owner in error reports.
type observerRef struct {
	id   ObserverID
	kind ObserverKind
	name string
}

func (n *node) ref() observerRef {
	return observerRef{id: n.id, kind: n.kind, name: n.name}
}

// invokeCleanup runs fn, converting a panic into a reported *CleanupError.
func (rt *Runtime) invokeCleanup(ref observerRef, fn Cleanup) {
	defer func() {
		if r := recover(); r != nil {
			rt.report(&CleanupError{
				Observer: ref.id,
				Kind:     ref.kind,
				Name:     ref.name,
				Value:    r,
			})
		}
	}()
	fn()
}
