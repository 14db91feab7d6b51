package reactive

// edge addresses one tracked slot of one source.
type edge struct {
	source SourceID
	key    Key
}

// idSet is an insertion-ordered set of observer IDs.
type idSet struct {
	ids   []ObserverID
	index map[ObserverID]struct{}
}

func (s *idSet) add(id ObserverID) bool {
	if s.index == nil {
		s.index = make(map[ObserverID]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

func (s *idSet) remove(id ObserverID) {
	if _, ok := s.index[id]; !ok {
		return
	}
	delete(s.index, id)
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return
		}
	}
}

func (s *idSet) has(id ObserverID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *idSet) len() int {
	return len(s.ids)
}

// snapshot copies the members so dispatch can iterate while the set changes.
func (s *idSet) snapshot() []ObserverID {
	out := make([]ObserverID, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s *idSet) clear() {
	s.ids = nil
	s.index = nil
}

// track records (source, key) -> current observer in both indices.
func (rt *Runtime) track(source SourceID, key Key) {
	id := rt.currentObserver()
	if id == 0 {
		return
	}
	n := rt.nodes[id]
	if n == nil || n.state == stateDisposed {
		return
	}

	e := edge{source: source, key: key}
	if _, ok := n.deps[e]; ok {
		return
	}
	if n.deps == nil {
		n.deps = make(map[edge]struct{})
	}
	n.deps[e] = struct{}{}

	set := rt.subs[e]
	if set == nil {
		set = &idSet{}
		rt.subs[e] = set
	}
	set.add(id)
}

// trigger notifies every observer of (source, key): queued while a batch
// is open, run synchronously otherwise.
func (rt *Runtime) trigger(source SourceID, key Key) {
	set := rt.subs[edge{source: source, key: key}]
	if set == nil || set.len() == 0 {
		return
	}

	for _, id := range set.snapshot() {
		if rt.batchDepth > 0 {
			rt.pending.add(id)
			continue
		}
		rt.runObserver(id)
	}
}

// clearEdges removes every edge recorded for n from both indices.
func (rt *Runtime) clearEdges(n *node) {
	for e := range n.deps {
		set := rt.subs[e]
		if set == nil {
			continue
		}
		set.remove(n.id)
		if set.len() == 0 {
			delete(rt.subs, e)
		}
	}
	n.deps = nil
}

// Track records a dependency of the current observer on (source, key).
// Cells call this for ValueKey; custom sources use it for extra slots.
func (rt *Runtime) Track(source SourceID, key Key) {
	rt.track(source, key)
}

// Trigger notifies the observers of (source, key) as if it had changed.
func (rt *Runtime) Trigger(source SourceID, key Key) {
	rt.trigger(source, key)
}

// NewSource allocates a SourceID for a custom tracked source.
func (rt *Runtime) NewSource() SourceID {
	return rt.nextSourceID()
}
