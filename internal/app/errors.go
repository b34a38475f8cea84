package app

import "errors"

// Application errors.
var (
	// ErrNoHost indicates Options.Host was not set.
	ErrNoHost = errors.New("no host")

	// ErrAlreadyStarted indicates Bootstrap ran before.
	ErrAlreadyStarted = errors.New("application already started")

	// ErrNotStarted indicates an operation that needs Bootstrap first.
	ErrNotStarted = errors.New("application not started")

	// ErrWatchUnsupported indicates the configuration file system cannot
	// be watched.
	ErrWatchUnsupported = errors.New("configuration watching needs the OS file system")

	// ErrAlreadySubscribed is returned by LoopbackHost for a second
	// subscription to the same point.
	ErrAlreadySubscribed = errors.New("hook point already subscribed")
)
