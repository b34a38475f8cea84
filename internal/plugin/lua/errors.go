package lua

import (
	"errors"
	"fmt"
)

// Errors for Lua state and script operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call runs past its timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrNoModule is returned when a script does not declare a module table.
	ErrNoModule = errors.New("script does not declare a module table")

	// ErrInvalidSetting is returned for a schema entry that cannot be built.
	ErrInvalidSetting = errors.New("invalid setting")

	// ErrNoContext is returned when hook or unhook runs outside the module
	// lifecycle.
	ErrNoContext = errors.New("module is not initialized")
)

// LoadError reports a script that could not be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
