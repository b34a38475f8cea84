// Package hook multiplexes host hook points across modules.
//
// The host allows a single subscription per hook point and gives no
// isolation between subscribers. A Multiplexer takes that one subscription
// for every point that has at least one registration and fans each event out
// to the registered callbacks in registration order.
//
// A callback that returns an error or panics is logged and skipped; the
// remaining callbacks still run and the failing one stays registered.
//
// Registrations and removals issued while any dispatch is running are
// queued and applied, in the order they were issued, once the outermost
// dispatch returns. A dispatch therefore always sees the table as it was
// when it started.
//
// Example usage:
//
//	mux := hook.NewMultiplexer(host, hook.WithLogger(logger))
//	h, err := mux.Register("OnPlayerUpdate", "Radar", func(ev hook.Event) error {
//	    return radar.update(ev.Args...)
//	})
//	...
//	mux.Unregister(h)
package hook
