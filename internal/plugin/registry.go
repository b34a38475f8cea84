package plugin

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/modcore/internal/config/schema"
	"github.com/dshills/modcore/internal/logging"
	"github.com/dshills/modcore/internal/plugin/hook"
)

// LifecycleFunc is a module's init or cleanup callback.
type LifecycleFunc func(ctx *Context) error

// Definition describes a module to the registry.
type Definition struct {
	// Name identifies the module and names its configuration group.
	Name string

	// Schema is the module's configuration subtree. Nil means no settings.
	Schema *schema.Node

	// EnabledPath names a boolean leaf of Schema that turns the module on.
	// Empty means always enabled.
	EnabledPath string

	// DebugPath names a boolean leaf of Schema that enables debug logging.
	DebugPath string

	// Init registers hooks and does one-time setup.
	Init LifecycleFunc

	// Cleanup releases per-world state.
	Cleanup LifecycleFunc
}

// HookTable is the part of the multiplexer the registry drives.
type HookTable interface {
	Register(point, module string, cb hook.Callback) (hook.Handle, error)
	Unregister(h hook.Handle)
	UnregisterModule(module string) int
}

// ModuleInfo is a snapshot of one module.
type ModuleInfo struct {
	Name        string
	State       State
	Enabled     bool
	Initialized bool
	Hooks       int
	Err         error
}

type module struct {
	def   Definition
	state State
	hooks []hook.Handle
	ctx   *Context
	err   error
}

// Registry owns every module and drives its lifecycle.
type Registry struct {
	mu sync.Mutex

	mux    HookTable
	logger zerolog.Logger

	modules map[string]*module

	// Registration order (for deterministic iteration)
	order []*module

	// Successful inits, oldest first; cleanup walks it backwards
	initOrder []*module

	started bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the root logger. Each module gets a child tagged with
// its name.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates a registry whose modules hook into mux.
func NewRegistry(mux HookTable, opts ...Option) *Registry {
	r := &Registry{
		mux:     mux,
		logger:  zerolog.Nop(),
		modules: make(map[string]*module),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterModule adds a module in discovery order. Registration order is
// init order and, through the hooks modules register, dispatch order.
func (r *Registry) RegisterModule(def Definition) error {
	if err := checkDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("module %q: %w", def.Name, ErrStarted)
	}
	if _, exists := r.modules[def.Name]; exists {
		return fmt.Errorf("module %q: %w", def.Name, ErrDuplicateModule)
	}

	m := &module{def: def, state: StateUnregistered}
	r.modules[def.Name] = m
	r.order = append(r.order, m)
	return nil
}

func checkDefinition(def Definition) error {
	if def.Schema != nil && !def.Schema.IsGroup() {
		return fmt.Errorf("module %q: %w: schema must be a group", def.Name, ErrInvalidModule)
	}

	node := def.Schema
	if node == nil {
		node = schema.NewGroup("")
	}
	if err := schema.NewGroup("").Add(def.Name, node).Check(); err != nil {
		return fmt.Errorf("module %q: %w: %w", def.Name, ErrInvalidModule, err)
	}

	for _, path := range []string{def.EnabledPath, def.DebugPath} {
		if path == "" {
			continue
		}
		if leaf := node.Lookup(path); leaf == nil || leaf.Kind != schema.KindBoolean {
			return fmt.Errorf("module %q: %w: %s is not a boolean setting", def.Name, ErrInvalidModule, path)
		}
	}
	return nil
}

// Schema composes the full configuration schema: one group per module,
// named after it, in registration order.
func (r *Registry) Schema() *schema.Node {
	r.mu.Lock()
	defer r.mu.Unlock()

	root := schema.NewGroup("")
	for _, m := range r.order {
		node := m.def.Schema
		if node == nil {
			node = schema.NewGroup("")
		}
		root.Add(m.def.Name, node)
	}
	return root
}

// Start constructs every module from values and initializes the enabled
// ones in registration order. Init failures are logged and joined into
// the returned error; they never stop the remaining modules.
func (r *Registry) Start(values *schema.Values) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrStarted
	}
	r.started = true
	mods := slices.Clone(r.order)
	r.mu.Unlock()

	return r.startAll(mods, values)
}

// TransitionWorld runs cleanup for every initialized module in reverse init
// order. Failures are isolated per module. Hooks are left in place.
func (r *Registry) TransitionWorld() error {
	r.mu.Lock()
	live := make([]*module, 0, len(r.initOrder))
	for i := len(r.initOrder) - 1; i >= 0; i-- {
		if m := r.initOrder[i]; m.state.IsLive() {
			live = append(live, m)
		}
	}
	r.initOrder = nil
	r.mu.Unlock()

	var errs []error
	for _, m := range live {
		err := r.call(m, m.def.Cleanup)

		var cerr *CleanupError
		if err != nil {
			cerr = &CleanupError{Module: m.def.Name, Err: err}
		}

		r.mu.Lock()
		m.state = StateCleaned
		if cerr != nil {
			m.err = cerr
		}
		r.mu.Unlock()

		if cerr != nil {
			m.ctx.logger.Error().Err(err).Msg("Cleanup failed")
			errs = append(errs, cerr)
			continue
		}
		m.ctx.logger.Debug().Msg("Cleaned up")
	}
	return errors.Join(errs...)
}

// Reload replays the lifecycle with fresh values: cleanup in reverse init
// order, removal of every hook each module still owns, then the startup
// sequence. Failed and disabled modules get a fresh attempt.
func (r *Registry) Reload(values *schema.Values) error {
	r.logger.Info().Msg("Reloading modules")

	cleanupErr := r.TransitionWorld()

	r.mu.Lock()
	r.started = true
	mods := slices.Clone(r.order)
	r.mu.Unlock()

	for _, m := range mods {
		r.mux.UnregisterModule(m.def.Name)

		r.mu.Lock()
		m.hooks = nil
		m.state = StateUnregistered
		m.err = nil
		r.mu.Unlock()
	}

	return errors.Join(cleanupErr, r.startAll(mods, values))
}

// Get returns a snapshot of one module.
func (r *Registry) Get(name string) (ModuleInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.modules[name]
	if !ok {
		return ModuleInfo{}, false
	}
	return m.info(), true
}

// List returns every module in registration order.
func (r *Registry) List() []ModuleInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ModuleInfo, 0, len(r.order))
	for _, m := range r.order {
		out = append(out, m.info())
	}
	return out
}

// ListByState returns the modules in a specific state.
func (r *Registry) ListByState(state State) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	for _, m := range r.order {
		if m.state == state {
			names = append(names, m.def.Name)
		}
	}
	return names
}

func (m *module) info() ModuleInfo {
	return ModuleInfo{
		Name:        m.def.Name,
		State:       m.state,
		Enabled:     m.state != StateUnregistered && m.state != StateDisabled,
		Initialized: m.state == StateInitialized,
		Hooks:       len(m.hooks),
		Err:         m.err,
	}
}

func (r *Registry) startAll(mods []*module, values *schema.Values) error {
	var errs []error
	for _, m := range mods {
		if !r.construct(m, values) {
			continue
		}
		if err := r.initModule(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// construct moves a module to Constructed and reports whether it is
// enabled. Disabled modules stop here.
func (r *Registry) construct(m *module, values *schema.Values) bool {
	cfg := values.Group(m.def.Name)
	debug := m.def.DebugPath != "" && cfg.Bool(m.def.DebugPath)
	enabled := m.def.EnabledPath == "" || cfg.Bool(m.def.EnabledPath)

	ctx := &Context{
		registry: r,
		module:   m,
		config:   cfg,
		logger:   logging.ForModule(r.logger, m.def.Name, debug),
	}

	r.mu.Lock()
	m.ctx = ctx
	m.state = StateConstructed
	if !enabled {
		m.state = StateDisabled
	}
	r.mu.Unlock()

	if !enabled {
		ctx.logger.Info().Msg("Disabled")
	}
	return enabled
}

func (r *Registry) initModule(m *module) error {
	err := r.call(m, m.def.Init)

	r.mu.Lock()
	if err != nil {
		ierr := &InitError{Module: m.def.Name, Hooks: len(m.hooks), Err: err}
		m.state = StateFailed
		m.err = ierr
		r.mu.Unlock()

		m.ctx.logger.Error().Err(err).Int("hooks", ierr.Hooks).Msg("Init failed")
		return ierr
	}
	m.state = StateInitialized
	r.initOrder = append(r.initOrder, m)
	hooks := len(m.hooks)
	r.mu.Unlock()

	m.ctx.logger.Info().Int("hooks", hooks).Msg("Initialized")
	return nil
}

// call runs a lifecycle callback, converting a panic into an error.
func (r *Registry) call(m *module, fn LifecycleFunc) (err error) {
	if fn == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, rec)
		}
	}()
	return fn(m.ctx)
}
