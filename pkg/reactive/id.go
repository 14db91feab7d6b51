package reactive

// ObserverID addresses an effect or scope in a Runtime's observer arena.
// IDs are never reused within a Runtime; zero means "no observer".
type ObserverID uint64

// SourceID identifies a tracked source (a Cell) within a Runtime.
type SourceID uint64

// Key names a tracked slot on a source. Cells track their value under
// ValueKey; additional slots let one source expose several dependencies.
type Key string

// ValueKey is the slot every Cell reads and writes.
const ValueKey Key = "value"

// Cleanup is a function registered to run when an effect re-runs or stops,
// or when a scope is disposed.
type Cleanup func()

// ObserverKind distinguishes the two observer variants.
type ObserverKind uint8

const (
	KindEffect ObserverKind = iota + 1
	KindScope
)

// String returns a human-readable name for the observer kind.
func (k ObserverKind) String() string {
	switch k {
	case KindEffect:
		return "effect"
	case KindScope:
		return "scope"
	default:
		return "unknown"
	}
}

func (rt *Runtime) nextObserverID() ObserverID {
	rt.observerSeq++
	return rt.observerSeq
}

func (rt *Runtime) nextSourceID() SourceID {
	rt.sourceSeq++
	return rt.sourceSeq
}
