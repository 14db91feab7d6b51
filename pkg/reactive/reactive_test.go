package reactive

import (
	"io"
	"log/slog"
)

// newTestRuntime returns a runtime whose logger discards output.
func newTestRuntime(opts ...Option) *Runtime {
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return NewRuntime(append(base, opts...)...)
}

// recoverPanic runs fn and returns the value it panicked with, if any.
func recoverPanic(fn func()) (r any) {
	defer func() {
		r = recover()
	}()
	fn()
	return nil
}
