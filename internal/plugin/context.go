package plugin

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/dshills/modcore/internal/config/schema"
	"github.com/dshills/modcore/internal/plugin/hook"
)

// Context is handed to a module's init and cleanup callbacks. It is the
// module's only way to reach the multiplexer and its configuration.
type Context struct {
	registry *Registry
	module   *module
	config   *schema.Values
	logger   zerolog.Logger
}

// Name returns the module name.
func (c *Context) Name() string {
	return c.module.def.Name
}

// Config returns the module's validated configuration subtree.
func (c *Context) Config() *schema.Values {
	return c.config
}

// Logger returns the module logger. Lines are tagged with the module name
// and debug lines are dropped unless the module's debug flag is set.
func (c *Context) Logger() *zerolog.Logger {
	return &c.logger
}

// Hook registers a callback for a hook point on behalf of the module.
func (c *Context) Hook(point string, cb hook.Callback) (hook.Handle, error) {
	h, err := c.registry.mux.Register(point, c.module.def.Name, cb)
	if err != nil {
		return hook.Handle{}, err
	}

	c.registry.mu.Lock()
	c.module.hooks = append(c.module.hooks, h)
	c.registry.mu.Unlock()
	return h, nil
}

// Unhook removes a registration made through Hook.
func (c *Context) Unhook(h hook.Handle) {
	c.registry.mux.Unregister(h)

	c.registry.mu.Lock()
	if i := slices.Index(c.module.hooks, h); i >= 0 {
		c.module.hooks = slices.Delete(c.module.hooks, i, i+1)
	}
	c.registry.mu.Unlock()
}
