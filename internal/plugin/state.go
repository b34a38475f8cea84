package plugin

// State represents the lifecycle state of a module.
type State int

// Module states.
const (
	// StateUnregistered - Module is known by definition only.
	StateUnregistered State = iota

	// StateConstructed - Module has read its configuration but not run init.
	StateConstructed

	// StateInitialized - Init succeeded; the module is live.
	StateInitialized

	// StateCleaned - Cleanup ran on a world transition.
	StateCleaned

	// StateFailed - Init returned an error or panicked.
	StateFailed

	// StateDisabled - The module's enabled flag is off.
	StateDisabled
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateConstructed:
		return "constructed"
	case StateInitialized:
		return "initialized"
	case StateCleaned:
		return "cleaned"
	case StateFailed:
		return "failed"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// IsLive returns true if the module is initialized and owes a cleanup.
func (s State) IsLive() bool {
	return s == StateInitialized
}
