package reactive

// Readable is the read side of a Cell. Derived values and adapters expose
// it instead of the writable Cell.
type Readable[T any] interface {
	// Get returns the value and subscribes the running effect.
	Get() T
	// Peek returns the value without subscribing.
	Peek() T
}

// Cell is a tracked mutable value holder.
// Reading a Cell's value while an effect runs subscribes that effect;
// writing a different value re-runs every subscriber.
type Cell[T any] struct {
	rt *Runtime
	id SourceID

	value T

	// version increases on every effective write.
	version uint64

	// equal decides whether a write is a change. Nil means same-value.
	equal func(a, b T) bool
}

// CellOption configures a Cell.
type CellOption[T any] func(*Cell[T])

// WithEquals replaces same-value equality for the cell. Use it for types
// where reflect.DeepEqual is too expensive or has the wrong semantics.
func WithEquals[T any](fn func(a, b T) bool) CellOption[T] {
	return func(c *Cell[T]) {
		c.equal = fn
	}
}

// NewCell creates a cell holding initial.
func NewCell[T any](rt *Runtime, initial T, opts ...CellOption[T]) *Cell[T] {
	c := &Cell[T]{
		rt:    rt,
		id:    rt.nextSourceID(),
		value: initial,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current value and subscribes the current observer.
func (c *Cell[T]) Get() T {
	c.rt.track(c.id, ValueKey)
	return c.value
}

// Peek returns the current value without subscribing.
func (c *Cell[T]) Peek() T {
	return c.value
}

// Set stores value and notifies subscribers if it differs from the
// current value.
func (c *Cell[T]) Set(value T) {
	if c.equals(c.value, value) {
		c.rt.cfg.Metrics.cellWrite(false)
		return
	}
	c.value = value
	c.version++
	c.rt.cfg.Metrics.cellWrite(true)
	c.rt.trigger(c.id, ValueKey)
}

// Update sets the cell to fn applied to the current value. The read is
// not tracked.
func (c *Cell[T]) Update(fn func(T) T) {
	c.Set(fn(c.value))
}

// Version returns the number of effective writes so far.
func (c *Cell[T]) Version() uint64 {
	return c.version
}

// ID returns the cell's source identifier.
func (c *Cell[T]) ID() SourceID {
	return c.id
}

// Runtime returns the runtime the cell belongs to.
func (c *Cell[T]) Runtime() *Runtime {
	return c.rt
}

// Track subscribes the current observer to an extra slot of this cell.
func (c *Cell[T]) Track(key Key) {
	c.rt.track(c.id, key)
}

// Trigger notifies the observers of an extra slot of this cell.
func (c *Cell[T]) Trigger(key Key) {
	c.rt.trigger(c.id, key)
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return SameValue(a, b)
}
