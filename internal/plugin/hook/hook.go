package hook

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Errors returned by the multiplexer.
var (
	// ErrEmptyPoint is returned when registering without a hook point.
	ErrEmptyPoint = errors.New("hook point is empty")

	// ErrNilCallback is returned when registering a nil callback.
	ErrNilCallback = errors.New("callback is nil")

	// ErrCallbackPanic wraps a recovered callback panic.
	ErrCallbackPanic = errors.New("callback panicked")
)

// Event is one host event delivered to a callback.
type Event struct {
	// Point is the hook point that fired.
	Point string

	// Args are the host arguments, passed through unchanged.
	Args []any
}

// Arg returns the i-th argument, or nil.
func (e Event) Arg(i int) any {
	if i < 0 || i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// Callback handles an event. A returned error is logged by the
// multiplexer and does not affect other callbacks.
type Callback func(Event) error

// Handle identifies one registration. Its only use is Unregister.
type Handle struct {
	id uuid.UUID
}

func newHandle() Handle {
	return Handle{id: uuid.New()}
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.id == uuid.Nil
}

// String returns the handle's identifier.
func (h Handle) String() string {
	return h.id.String()
}

// Host is the single-subscription event source. Subscribe is called at
// most once per point unless it fails.
type Host interface {
	Subscribe(point string, fn func(args ...any)) error
}

// HostFunc adapts a function to Host.
type HostFunc func(point string, fn func(args ...any)) error

// Subscribe implements Host.
func (f HostFunc) Subscribe(point string, fn func(args ...any)) error {
	return f(point, fn)
}

// CallbackError describes a failed callback invocation.
type CallbackError struct {
	Point  string
	Module string
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("hook %s: module %s: %v", e.Point, e.Module, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// Panicked reports whether the callback panicked.
func (e *CallbackError) Panicked() bool {
	return errors.Is(e.Err, ErrCallbackPanic)
}
