package reactive

import "sync"

// Runtime owns all mutable reactive state: the observer arena, the
// dependency indices, the tracking and disposal-target stacks, and the
// batch state. Independent runtimes never observe each other.
type Runtime struct {
	cfg Config

	// nodes is the observer arena.
	nodes map[ObserverID]*node

	// subs is the forward index: (source, key) -> observers.
	// The backward index lives on each node (node.deps).
	subs map[edge]*idSet

	// observers is the tracking stack. A zero entry is an untracked frame.
	observers []ObserverID

	// owners is the disposal-target stack used by OnCleanup and by
	// newly created effects and scopes to find their parent.
	owners []ObserverID

	batchDepth int
	pending    idSet

	observerSeq ObserverID
	sourceSeq   SourceID
}

type nodeState uint8

const (
	stateIdle nodeState = iota
	stateRunning
	stateDisposed
)

// node is an arena record for an effect or a scope.
type node struct {
	id    ObserverID
	kind  ObserverKind
	name  string
	state nodeState

	// body is the effect function; nil for scopes.
	body func() Cleanup

	// deps is the backward index: every (source, key) read in the last run.
	deps map[edge]struct{}

	// cleanups registered during the current run (effect) or lifetime (scope).
	cleanups []Cleanup

	// parent is the disposal target that was innermost when this node was
	// created; children are disposed after this node's own cleanups.
	parent   ObserverID
	children []ObserverID

	runs int

	// active counts runs of this node currently on the call stack. More
	// than one means the effect re-entered itself through a cycle.
	active int
}

// NewRuntime creates an isolated reactive runtime.
func NewRuntime(opts ...Option) *Runtime {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.resolve()

	return &Runtime{
		cfg:   cfg,
		nodes: make(map[ObserverID]*node),
		subs:  make(map[edge]*idSet),
	}
}

var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
)

// Default returns a process-wide runtime created with default options.
// Like every Runtime it must be confined to one goroutine.
func Default() *Runtime {
	defaultRuntimeOnce.Do(func() {
		defaultRuntime = NewRuntime()
	})
	return defaultRuntime
}

// Config returns the runtime's resolved configuration.
func (rt *Runtime) Config() Config {
	return rt.cfg
}

func (rt *Runtime) newNode(kind ObserverKind, name string) *node {
	n := &node{
		id:   rt.nextObserverID(),
		kind: kind,
		name: name,
	}
	rt.nodes[n.id] = n
	rt.cfg.Metrics.observerCreated(kind)
	return n
}

// adopt links n under the innermost live disposal target, if any.
func (rt *Runtime) adopt(n *node) {
	if len(rt.owners) == 0 {
		return
	}
	parent := rt.nodes[rt.owners[len(rt.owners)-1]]
	if parent == nil || parent.state == stateDisposed {
		return
	}
	n.parent = parent.id
	parent.children = append(parent.children, n.id)
}

// unlink removes n from its parent's children.
func (rt *Runtime) unlink(n *node) {
	if n.parent == 0 {
		return
	}
	parent := rt.nodes[n.parent]
	n.parent = 0
	if parent == nil {
		return
	}
	for i, id := range parent.children {
		if id == n.id {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}

// currentObserver returns the observer reads are tracked against, or zero.
func (rt *Runtime) currentObserver() ObserverID {
	if len(rt.observers) == 0 {
		return 0
	}
	return rt.observers[len(rt.observers)-1]
}

func (rt *Runtime) pushFrame(observer, owner ObserverID) {
	rt.observers = append(rt.observers, observer)
	rt.owners = append(rt.owners, owner)
}

func (rt *Runtime) popFrame() {
	rt.observers = rt.observers[:len(rt.observers)-1]
	rt.owners = rt.owners[:len(rt.owners)-1]
}

// Stats is a point-in-time view of the runtime's indices.
type Stats struct {
	// Observers is the number of live effects and scopes in the arena.
	Observers int
	Effects   int
	Scopes    int

	// Edges is the number of (source, key) -> observer entries.
	Edges int

	// Pending is the number of effects awaiting a batch flush.
	Pending int

	BatchDepth    int
	TrackingDepth int
}

// Stats reports the current size of the runtime's indices.
func (rt *Runtime) Stats() Stats {
	s := Stats{
		Observers:     len(rt.nodes),
		Pending:       rt.pending.len(),
		BatchDepth:    rt.batchDepth,
		TrackingDepth: len(rt.observers),
	}
	for _, n := range rt.nodes {
		switch n.kind {
		case KindEffect:
			s.Effects++
		case KindScope:
			s.Scopes++
		}
	}
	for _, set := range rt.subs {
		s.Edges += set.len()
	}
	return s
}
