// Package pubsub provides a synchronous publish/subscribe broker and
// adapters that connect it to the reactive runtime.
//
// A Broker delivers each published value to the event's handlers in
// subscription order, on the publishing goroutine. A panicking handler is
// recovered and reported; the remaining handlers still run.
//
//	b := pubsub.NewBroker[string]()
//	last := pubsub.EventCell(rt, b, "greet", "")
//	b.Publish("greet", "hello")
//	last.Get() // "hello"
//
// The adapters register their unsubscribe with the runtime's current
// disposal target, so a subscription made inside an effect or scope ends
// when that owner re-runs or is disposed.
package pubsub
