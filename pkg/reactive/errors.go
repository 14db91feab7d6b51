package reactive

import (
	"errors"
	"fmt"

	rterrors "github.com/vango-dev/cellgraph/internal/errors"
)

// ErrCleanupPanic matches every *CleanupError via errors.Is.
var ErrCleanupPanic = errors.New("reactive: cleanup panicked")

// ErrCascade matches every *CascadeError via errors.Is.
var ErrCascade = errors.New("reactive: effect cascade exceeded max run depth")

// ErrDisposed is returned when work is attached to a disposed scope.
var ErrDisposed = errors.New("reactive: scope disposed")

// CleanupError reports a cleanup callback that panicked. The runtime
// recovers it so the remaining cleanups still run.
type CleanupError struct {
	Observer ObserverID
	Kind     ObserverKind
	Name     string

	// Value is the recovered panic value.
	Value any
}

// Cause returns the panic value as an error.
func (e *CleanupError) Cause() error {
	return rterrors.FromPanic(e.Value)
}

// Error implements the error interface.
func (e *CleanupError) Error() string {
	return e.describe().Error()
}

// Unwrap exposes both ErrCleanupPanic and the panic value, when it was an
// error, to errors.Is and errors.As.
func (e *CleanupError) Unwrap() []error {
	return []error{ErrCleanupPanic, e.Cause()}
}

// Describe returns a multi-line explanation for terminal output.
func (e *CleanupError) Describe() string {
	return e.describe().Format()
}

func (e *CleanupError) describe() *rterrors.Error {
	return rterrors.New(rterrors.CodeCleanupPanic).
		WithDetail(observerLabel(e.Kind, e.Observer, e.Name)).
		Wrap(e.Cause())
}

// CascadeError is the panic value raised when one effect re-enters itself
// more than Config.MaxRunDepth times, typically an effect writing a cell
// it reads or two effects writing each other's inputs. Depth is the
// number of nested runs of that effect.
type CascadeError struct {
	Observer ObserverID
	Name     string
	Depth    int
}

// Error implements the error interface.
func (e *CascadeError) Error() string {
	return e.describe().Error()
}

// Unwrap returns ErrCascade.
func (e *CascadeError) Unwrap() error {
	return ErrCascade
}

// Describe returns a multi-line explanation for terminal output.
func (e *CascadeError) Describe() string {
	return e.describe().Format()
}

func (e *CascadeError) describe() *rterrors.Error {
	detail := fmt.Sprintf("%s at depth %d", observerLabel(KindEffect, e.Observer, e.Name), e.Depth)
	return rterrors.New(rterrors.CodeCascade).WithDetail(detail)
}

func observerLabel(kind ObserverKind, id ObserverID, name string) string {
	if name != "" {
		return fmt.Sprintf("%s %d (%s)", kind, id, name)
	}
	return fmt.Sprintf("%s %d", kind, id)
}

// report logs err, counts it, and hands it to the error hook.
func (rt *Runtime) report(err *CleanupError) {
	rt.cfg.Logger.Error("reactive: cleanup panicked",
		"observer", uint64(err.Observer),
		"kind", err.Kind.String(),
		"name", err.Name,
		"panic", err.Cause().Error())
	rt.cfg.Metrics.cleanupFailed(err.Kind)
	if rt.cfg.OnError != nil {
		rt.cfg.OnError(err)
	}
}
