package pubsub

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBrokerPublishOrder(t *testing.T) {
	b := NewBroker[int](WithLogger(quietLogger()))

	var got []string
	b.Subscribe("tick", func(n int) { got = append(got, "a") })
	b.Subscribe("tick", func(n int) { got = append(got, "b") })
	b.Subscribe("other", func(n int) { got = append(got, "other") })

	b.Publish("tick", 1)

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("expected [a b], got %v", got)
	}
}

func TestBrokerPublishWithoutSubscribers(t *testing.T) {
	b := NewBroker[string](WithLogger(quietLogger()))
	b.Publish("nobody", "hello")

	if b.HasSubscribers("nobody") {
		t.Error("expected no subscribers")
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker[int](WithLogger(quietLogger()))

	calls := 0
	unsubscribe := b.Subscribe("tick", func(int) { calls++ })
	keep := b.Subscribe("tick", func(int) {})

	if b.SubscriberCount("tick") != 2 {
		t.Fatalf("expected 2 subscribers, got %d", b.SubscriberCount("tick"))
	}

	unsubscribe()
	unsubscribe()
	b.Publish("tick", 1)

	if calls != 0 {
		t.Errorf("unsubscribed handler ran %d times", calls)
	}
	if b.SubscriberCount("tick") != 1 {
		t.Errorf("expected 1 subscriber, got %d", b.SubscriberCount("tick"))
	}

	keep()
	if b.HasSubscribers("tick") {
		t.Error("expected event to be empty")
	}
}

func TestBrokerSameHandlerTwice(t *testing.T) {
	b := NewBroker[int](WithLogger(quietLogger()))

	calls := 0
	fn := func(int) { calls++ }
	first := b.Subscribe("tick", fn)
	b.Subscribe("tick", fn)

	first()
	b.Publish("tick", 1)

	if calls != 1 {
		t.Errorf("each subscription is independent, got %d calls", calls)
	}
}

func TestBrokerHandlerPanicIsolated(t *testing.T) {
	var reported []error
	b := NewBroker[int](
		WithLogger(quietLogger()),
		WithErrorHandler(func(err error) { reported = append(reported, err) }),
	)

	var got []int
	b.Subscribe("tick", func(n int) { got = append(got, n) })
	b.Subscribe("tick", func(int) { panic("boom") })
	b.Subscribe("tick", func(n int) { got = append(got, n*10) })

	b.Publish("tick", 2)

	if len(got) != 2 || got[0] != 2 || got[1] != 20 {
		t.Errorf("sibling handlers should still run, got %v", got)
	}
	if len(reported) != 1 {
		t.Fatalf("expected 1 reported error, got %d", len(reported))
	}
	if !errors.Is(reported[0], ErrHandlerPanic) {
		t.Errorf("expected ErrHandlerPanic, got %v", reported[0])
	}
	var herr *HandlerError
	if !errors.As(reported[0], &herr) || herr.Event != "tick" || herr.Value != "boom" {
		t.Errorf("unexpected handler error %#v", reported[0])
	}
}

func TestBrokerHandlerPanicWithError(t *testing.T) {
	sentinel := errors.New("handler failed")
	var reported error
	b := NewBroker[int](
		WithLogger(quietLogger()),
		WithErrorHandler(func(err error) { reported = err }),
	)
	b.Subscribe("tick", func(int) { panic(sentinel) })

	b.Publish("tick", 1)

	if !errors.Is(reported, sentinel) {
		t.Errorf("expected wrapped sentinel, got %v", reported)
	}
}

func TestBrokerSubscribeDuringPublish(t *testing.T) {
	b := NewBroker[int](WithLogger(quietLogger()))

	late := 0
	b.Subscribe("tick", func(int) {
		b.Subscribe("tick", func(int) { late++ })
	})

	b.Publish("tick", 1)
	if late != 0 {
		t.Errorf("handler added during publish should wait for the next publish, got %d", late)
	}

	b.Publish("tick", 2)
	if late != 1 {
		t.Errorf("expected 1 late call, got %d", late)
	}
}

func TestBrokerClear(t *testing.T) {
	b := NewBroker[int](WithLogger(quietLogger()))
	b.Subscribe("a", func(int) {})
	b.Subscribe("a", func(int) {})
	b.Subscribe("b", func(int) {})

	b.ClearEvent("a")
	if b.HasSubscribers("a") {
		t.Error("expected a to be cleared")
	}
	if !b.HasSubscribers("b") {
		t.Error("clearing a should not affect b")
	}

	b.ClearAll()
	if b.HasSubscribers("b") {
		t.Error("expected b to be cleared")
	}
}
