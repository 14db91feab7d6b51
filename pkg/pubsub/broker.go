package pubsub

import (
	"errors"
	"log/slog"
	"sync"

	rterrors "github.com/vango-dev/cellgraph/internal/errors"
)

// ErrHandlerPanic matches every *HandlerError via errors.Is.
var ErrHandlerPanic = errors.New("pubsub: handler panicked")

// HandlerError reports a handler that panicked during Publish.
type HandlerError struct {
	Event string

	// Value is the recovered panic value.
	Value any
}

// Cause returns the panic value as an error.
func (e *HandlerError) Cause() error {
	return rterrors.FromPanic(e.Value)
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return e.describe().Error()
}

// Unwrap exposes ErrHandlerPanic and the panic value to errors.Is.
func (e *HandlerError) Unwrap() []error {
	return []error{ErrHandlerPanic, e.Cause()}
}

func (e *HandlerError) describe() *rterrors.Error {
	return rterrors.New(rterrors.CodeHandlerPanic).
		WithDetail("event " + e.Event).
		Wrap(e.Cause())
}

type handler[T any] struct {
	id uint64
	fn func(T)
}

// Broker routes values of type T to handlers keyed by event name.
// Subscribe and Publish may be called from any goroutine; handlers run on
// the publishing goroutine without the broker's lock held.
type Broker[T any] struct {
	mu     sync.RWMutex
	events map[string][]handler[T]
	nextID uint64

	logger  *slog.Logger
	onError func(error)
}

// BrokerOption configures a Broker.
type BrokerOption func(*brokerConfig)

type brokerConfig struct {
	logger  *slog.Logger
	onError func(error)
}

// WithLogger sets the logger used for handler panics.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) BrokerOption {
	return func(c *brokerConfig) {
		c.logger = logger
	}
}

// WithErrorHandler receives a *HandlerError for every recovered handler
// panic, in addition to the log line.
func WithErrorHandler(fn func(error)) BrokerOption {
	return func(c *brokerConfig) {
		c.onError = fn
	}
}

// NewBroker creates an empty broker.
func NewBroker[T any](opts ...BrokerOption) *Broker[T] {
	var cfg brokerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &Broker[T]{
		events:  make(map[string][]handler[T]),
		logger:  cfg.logger,
		onError: cfg.onError,
	}
}

// Subscribe adds fn to event's handlers and returns a function that
// removes it. The returned function is idempotent.
func (b *Broker[T]) Subscribe(event string, fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.events[event] = append(b.events[event], handler[T]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(event, id) })
	}
}

func (b *Broker[T]) remove(event string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.events[event]
	for i, h := range handlers {
		if h.id != id {
			continue
		}
		next := make([]handler[T], 0, len(handlers)-1)
		next = append(next, handlers[:i]...)
		next = append(next, handlers[i+1:]...)
		if len(next) == 0 {
			delete(b.events, event)
		} else {
			b.events[event] = next
		}
		return
	}
}

// Publish calls every handler of event with data, in subscription order.
// Handlers added or removed during Publish take effect on the next call.
func (b *Broker[T]) Publish(event string, data T) {
	b.mu.RLock()
	handlers := b.events[event]
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(event, h.fn, data)
	}
}

func (b *Broker[T]) deliver(event string, fn func(T), data T) {
	defer func() {
		if r := recover(); r != nil {
			err := &HandlerError{Event: event, Value: r}
			b.logger.Error("pubsub: handler panicked",
				"event", event,
				"panic", err.Cause().Error())
			if b.onError != nil {
				b.onError(err)
			}
		}
	}()
	fn(data)
}

// HasSubscribers reports whether event has at least one handler.
func (b *Broker[T]) HasSubscribers(event string) bool {
	return b.SubscriberCount(event) > 0
}

// SubscriberCount returns the number of handlers for event.
func (b *Broker[T]) SubscriberCount(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events[event])
}

// ClearEvent removes every handler for event.
func (b *Broker[T]) ClearEvent(event string) {
	b.mu.Lock()
	delete(b.events, event)
	b.mu.Unlock()
}

// ClearAll removes every handler.
func (b *Broker[T]) ClearAll() {
	b.mu.Lock()
	clear(b.events)
	b.mu.Unlock()
}
