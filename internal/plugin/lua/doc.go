// Package lua loads script modules written in Lua.
//
// Each *.lua file in the module directory defines one module for the
// plugin registry. The file runs once at load time in a sandboxed
// gopher-lua state and must set a global module table describing the
// module's name and settings. Its init and cleanup functions become the
// module's lifecycle callbacks.
//
//	scripts, err := lua.Discover(fs, "modules", lua.WithLogger(logger))
//	for _, s := range scripts {
//	    if err := registry.RegisterModule(s.Definition()); err != nil {
//	        ...
//	    }
//	}
//
// # Script API
//
//	hook(point, fn)  registers fn for a hook point and returns a handle
//	unhook(handle)   removes a registration
//	log.debug(...)   module log lines; debug respects the module debug flag
//	log.info(...)
//	log.warn(...)
//	log.error(...)
//
// init receives the module's validated settings as a table. Colors are
// tables with r, g, b, a and hex fields.
//
// # Sandbox
//
// Only the base, package, table, string and math libraries are opened.
// dofile, loadfile, load and loadstring are removed and require returns
// only built-in or preloaded modules. Every call into Lua runs under an
// execution timeout.
package lua
