package reactive

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rterrors "github.com/vango-dev/cellgraph/internal/errors"
)

// Batch groups cell writes into a single propagation phase. Effects
// triggered inside fn are queued, deduplicated, and run once each when
// the outermost batch exits.
//
// Batches nest; only the outermost exit flushes. The flush runs outside
// any batch, so writes made by flushed effects propagate immediately.
// If fn panics, the queued effects still run before the panic continues.
//
// Example:
//
//	rt.Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	})
//	// Effects reading both cells run once
func (rt *Runtime) Batch(fn func()) {
	rt.batchDepth++
	defer rt.endBatch()
	fn()
}

// RunBatched is Batch for functions that return a value.
func RunBatched[T any](rt *Runtime, fn func() T) T {
	var result T
	rt.Batch(func() {
		result = fn()
	})
	return result
}

// Tx runs fn as a transaction. It is an alias for Batch.
func (rt *Runtime) Tx(fn func()) {
	rt.Batch(fn)
}

// TxNamed runs fn as a named transaction. With Config.Debug set the
// transaction boundaries are logged.
func (rt *Runtime) TxNamed(name string, fn func()) {
	if rt.cfg.Debug {
		rt.cfg.Logger.Debug("reactive: tx start", "tx", name, "depth", rt.batchDepth)
		defer rt.cfg.Logger.Debug("reactive: tx end", "tx", name)
	}
	rt.Batch(fn)
}

// TraceTx runs fn as a named transaction inside a span from the
// configured tracer. The span records how many effects the transaction
// queued and any panic raised by fn or by the flush.
func (rt *Runtime) TraceTx(ctx context.Context, name string, fn func(ctx context.Context)) {
	ctx, span := rt.cfg.Tracer.Start(ctx, "reactive.tx",
		trace.WithAttributes(
			attribute.String("reactive.tx.name", name),
			attribute.Int("reactive.batch.depth", rt.batchDepth),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := rterrors.FromPanic(r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			panic(r)
		}
	}()

	rt.TxNamed(name, func() {
		fn(ctx)
		span.SetAttributes(attribute.Int("reactive.flush.size", rt.pending.len()))
	})
}

// Batching reports whether a batch is open.
func (rt *Runtime) Batching() bool {
	return rt.batchDepth > 0
}

// PendingCount returns the number of effects queued for the next flush.
func (rt *Runtime) PendingCount() int {
	return rt.pending.len()
}

func (rt *Runtime) endBatch() {
	rt.batchDepth--
	if rt.batchDepth > 0 || rt.pending.len() == 0 {
		return
	}
	rt.flush()
}

// flush drains the pending set: snapshot, clear, run each live effect once.
func (rt *Runtime) flush() {
	ids := rt.pending.snapshot()
	rt.pending.clear()
	rt.cfg.Metrics.batchFlushed(len(ids))

	for _, id := range ids {
		rt.runObserver(id)
	}
}

// Untracked runs fn without tracking cell reads as dependencies of the
// current effect. Cleanups registered inside fn still attach to the
// current disposal target.
//
// For single reads, Cell.Peek is simpler.
func (rt *Runtime) Untracked(fn func()) {
	owner := ObserverID(0)
	if len(rt.owners) > 0 {
		owner = rt.owners[len(rt.owners)-1]
	}
	rt.pushFrame(0, owner)
	defer rt.popFrame()
	fn()
}

// Untracked is Runtime.Untracked for functions that return a value.
func Untracked[T any](rt *Runtime, fn func() T) T {
	var result T
	rt.Untracked(func() {
		result = fn()
	})
	return result
}
