package plugin

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	// ErrModuleNotFound is returned when a module name is unknown.
	ErrModuleNotFound = errors.New("module not found")

	// ErrDuplicateModule is returned when a module name is registered twice.
	ErrDuplicateModule = errors.New("module is already registered")

	// ErrInvalidModule is returned when a definition fails validation.
	ErrInvalidModule = errors.New("invalid module")

	// ErrStarted is returned when registering after Start.
	ErrStarted = errors.New("registry already started")

	// ErrPanic wraps a recovered panic from init or cleanup.
	ErrPanic = errors.New("module panicked")
)

// Phase names the lifecycle callback that failed.
type Phase string

// Lifecycle phases.
const (
	PhaseInit    Phase = "init"
	PhaseCleanup Phase = "cleanup"
)

// InitError reports a failed init. Hooks counts the registrations the module
// made before failing; they stay in place.
type InitError struct {
	Module string
	Hooks  int
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("module %s: %s: %v", e.Module, PhaseInit, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// CleanupError reports a failed cleanup.
type CleanupError struct {
	Module string
	Err    error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("module %s: %s: %v", e.Module, PhaseCleanup, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
