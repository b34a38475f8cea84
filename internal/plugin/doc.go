// Package plugin provides the module registry and lifecycle manager.
//
// A module is a self-contained feature with its own configuration subtree,
// an init callback and an optional cleanup callback. Modules are registered
// in discovery order before the registry starts:
//
//	reg := plugin.NewRegistry(mux, plugin.WithLogger(logger))
//	err := reg.RegisterModule(plugin.Definition{
//	    Name: "Radar",
//	    Schema: schema.Group().
//	        Field("Enabled", schema.Bool(true)).
//	        Field("Debug", schema.Bool(false)).
//	        Field("Range", schema.Integer(64)).
//	        Build(),
//	    EnabledPath: "Enabled",
//	    DebugPath:   "Debug",
//	    Init: func(ctx *plugin.Context) error {
//	        _, err := ctx.Hook("OnTick", onTick)
//	        return err
//	    },
//	})
//
// Registry.Schema composes one group per module; the configuration
// pipeline validates a document against it and the resulting values start
// the registry.
//
// # Lifecycle
//
//	Unregistered → Constructed → Initialized → Cleaned → Initialized | Unregistered
//
// Start constructs every module and reads its enabled flag. Disabled
// modules stop there. Enabled modules run Init in registration order. A
// failed init (error or panic) marks the module failed and logs it; hooks
// it already registered stay in place and it is skipped by cleanup.
//
// TransitionWorld runs Cleanup on every initialized module in reverse init
// order. Reload cleans up, removes every hook each module still owns and
// runs the startup sequence again with fresh values. Failed modules are
// retried with no memory of the earlier failure.
//
// Failures in Init and Cleanup are isolated per module and never stop the
// rest of the sequence. They are joined into the returned error as
// *InitError and *CleanupError values.
//
// # Logging
//
// Context.Logger tags every line with the module name, which the console
// writer renders as "[Module] message". Debug lines are written only when
// the module's debug setting is on.
package plugin
