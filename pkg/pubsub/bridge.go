package pubsub

import "github.com/vango-dev/cellgraph/pkg/reactive"

// EventCell returns a cell holding the most recent value published for
// event, starting at initial. The subscription ends with the current
// disposal target.
func EventCell[T any](rt *reactive.Runtime, b *Broker[T], event string, initial T) *reactive.Cell[T] {
	cell := reactive.NewCell(rt, initial)
	rt.OnCleanup(b.Subscribe(event, cell.Set))
	return cell
}

// EventHistory returns a cell holding the values published for event, in
// publish order. With limit > 0 only the last limit values are kept.
// Every publish notifies, even when the kept window looks unchanged.
func EventHistory[T any](rt *reactive.Runtime, b *Broker[T], event string, limit int) *reactive.Cell[[]T] {
	history := reactive.NewCell(rt, []T{}, reactive.WithEquals(func(_, _ []T) bool { return false }))
	unsubscribe := b.Subscribe(event, func(data T) {
		prev := history.Peek()
		next := make([]T, 0, len(prev)+1)
		next = append(next, prev...)
		next = append(next, data)
		if limit > 0 && len(next) > limit {
			next = next[len(next)-limit:]
		}
		history.Set(next)
	})
	rt.OnCleanup(unsubscribe)
	return history
}

// EventEffect subscribes fn to event and ties the subscription to the
// current disposal target. The returned function unsubscribes early.
func EventEffect[T any](rt *reactive.Runtime, b *Broker[T], event string, fn func(T)) (unsubscribe func()) {
	unsubscribe = b.Subscribe(event, fn)
	rt.OnCleanup(unsubscribe)
	return unsubscribe
}

// PublishEffect publishes producer's result for event now and again
// whenever a cell read by producer changes. Handlers run untracked, so
// their reads do not subscribe the effect.
func PublishEffect[T any](rt *reactive.Runtime, b *Broker[T], event string, producer func() T) *reactive.Effect {
	return rt.Effect(func() reactive.Cleanup {
		data := producer()
		rt.Untracked(func() { b.Publish(event, data) })
		return nil
	}, reactive.EffectName("publish:"+event))
}
