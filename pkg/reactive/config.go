package reactive

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxRunDepth bounds how many runs of one effect may nest.
const DefaultMaxRunDepth = 100

// tracerName is the instrumentation scope used with the global provider.
const tracerName = "github.com/vango-dev/cellgraph/pkg/reactive"

// Config configures a Runtime.
type Config struct {
	// Logger receives cleanup failures and, when enabled, debug output.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// OnError is called with every *CleanupError. It runs synchronously on
	// the runtime's goroutine, after the failure is logged.
	OnError func(error)

	// Metrics records runtime activity. Nil disables metrics.
	Metrics *Metrics

	// Tracer is used by TraceTx. If nil, the global provider's tracer is used.
	Tracer trace.Tracer

	// MaxRunDepth is how many runs of the same effect may be on the call
	// stack at once before the runtime panics with *CascadeError. Chains of
	// distinct effects are not limited.
	// Default: DefaultMaxRunDepth.
	MaxRunDepth int

	// Debug logs transaction boundaries for TxNamed and TraceTx.
	Debug bool

	// LogEffectRuns logs every effect run at debug level.
	LogEffectRuns bool
}

// DefaultConfig returns the configuration NewRuntime starts from.
func DefaultConfig() Config {
	return Config{
		MaxRunDepth: DefaultMaxRunDepth,
	}
}

// resolve fills in defaults for unset fields.
func (c *Config) resolve() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Tracer == nil {
		c.Tracer = otel.Tracer(tracerName)
	}
	if c.MaxRunDepth <= 0 {
		c.MaxRunDepth = DefaultMaxRunDepth
	}
}

// Option configures a Runtime.
type Option func(*Config)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithErrorHandler sets the hook that receives cleanup failures.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Config) {
		c.OnError = fn
	}
}

// WithMetrics enables Prometheus metrics. See NewMetrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithTracer sets the tracer used by TraceTx.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Config) {
		c.Tracer = tracer
	}
}

// WithMaxRunDepth sets the cascade guard depth.
func WithMaxRunDepth(depth int) Option {
	return func(c *Config) {
		c.MaxRunDepth = depth
	}
}

// WithDebug enables transaction boundary logging.
func WithDebug(enabled bool) Option {
	return func(c *Config) {
		c.Debug = enabled
	}
}

// WithLogEffectRuns enables per-run debug logging.
func WithLogEffectRuns(enabled bool) Option {
	return func(c *Config) {
		c.LogEffectRuns = enabled
	}
}
