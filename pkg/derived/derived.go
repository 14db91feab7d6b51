// Package derived builds derived values on top of the reactive runtime.
//
// A derived Value composes one Cell and one Effect: the effect recomputes
// a function of the cells it reads and writes the result into the cell
// only when it changed. Values are eager; they recompute on every
// relevant upstream change whether or not anything reads them.
//
//	count := reactive.NewCell(rt, 2)
//	doubled := derived.New(rt, func() int { return count.Get() * 2 })
//	doubled.Get() // 4
package derived

import "github.com/vango-dev/cellgraph/pkg/reactive"

// Value is a read-only cell kept equal to a computation.
type Value[T any] struct {
	cell   *reactive.Cell[T]
	effect *reactive.Effect
}

var _ reactive.Readable[int] = (*Value[int])(nil)

type config[T any] struct {
	equal func(a, b T) bool
	name  string
}

// Option configures a derived Value.
type Option[T any] func(*config[T])

// WithEquals replaces same-value equality when deciding whether a
// recomputed result is a change.
func WithEquals[T any](fn func(a, b T) bool) Option[T] {
	return func(c *config[T]) {
		c.equal = fn
	}
}

// WithName labels the backing effect.
func WithName[T any](name string) Option[T] {
	return func(c *config[T]) {
		c.name = name
	}
}

// New creates a derived value and computes it immediately. The backing
// effect belongs to the current disposal target, like any effect.
func New[T any](rt *reactive.Runtime, compute func() T, opts ...Option[T]) *Value[T] {
	var cfg config[T]
	for _, opt := range opts {
		opt(&cfg)
	}

	var cellOpts []reactive.CellOption[T]
	if cfg.equal != nil {
		cellOpts = append(cellOpts, reactive.WithEquals(cfg.equal))
	}

	v := &Value[T]{}
	initialized := false
	v.effect = rt.Effect(func() reactive.Cleanup {
		next := compute()
		if !initialized {
			v.cell = reactive.NewCell(rt, next, cellOpts...)
			initialized = true
			return nil
		}
		v.cell.Set(next)
		return nil
	}, reactive.EffectName(cfg.name))

	return v
}

// Get returns the derived value and subscribes the current observer.
func (v *Value[T]) Get() T {
	return v.cell.Get()
}

// Peek returns the derived value without subscribing.
func (v *Value[T]) Peek() T {
	return v.cell.Peek()
}

// Version returns how many times the derived value has changed.
func (v *Value[T]) Version() uint64 {
	return v.cell.Version()
}

// Stop stops recomputation. The last value stays readable.
func (v *Value[T]) Stop() {
	v.effect.Stop()
}

// Stopped reports whether the value has stopped recomputing.
func (v *Value[T]) Stopped() bool {
	return v.effect.Disposed()
}
