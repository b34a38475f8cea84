// Package app wires the configuration pipeline, the hook multiplexer and
// the module registry into one runtime.
//
// The host application creates an Application, registers its modules and
// calls Bootstrap once. After that it forwards world transitions and, if
// it wants hot reload, calls Reload or WatchConfig.
package app

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/dshills/modcore/internal/config"
	"github.com/dshills/modcore/internal/config/loader"
	"github.com/dshills/modcore/internal/config/notify"
	"github.com/dshills/modcore/internal/config/watcher"
	"github.com/dshills/modcore/internal/plugin"
	"github.com/dshills/modcore/internal/plugin/hook"
)

// DefaultConfigPath is used when Options.ConfigPath is empty.
const DefaultConfigPath = "modcore.toml"

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration document. The extension
	// selects TOML or YAML.
	ConfigPath string

	// Fs holds the configuration document. Defaults to the OS file system.
	Fs afero.Fs

	// Host receives one subscription per hook point.
	Host hook.Host

	// Logger is the root logger. Defaults to a disabled logger.
	Logger *zerolog.Logger

	// Registerer receives the Prometheus collectors. Nil leaves them
	// unregistered.
	Registerer prometheus.Registerer

	// Namespace prefixes metric names. Defaults to "modcore".
	Namespace string

	// ReadOnly never rewrites the configuration document.
	ReadOnly bool

	// Debounce delays reloads triggered by WatchConfig.
	Debounce time.Duration
}

// Application is the central coordinator. Its operations are serialized;
// hook callbacks must not call back into it.
type Application struct {
	mu sync.Mutex

	opts   Options
	logger zerolog.Logger

	store    *loader.Store
	config   *config.Manager
	notifier *notify.Notifier
	mux      *hook.Multiplexer
	registry *plugin.Registry
	metrics  *Metrics

	watcher *watcher.Watcher
	started bool
	last    *config.Result
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	if opts.Host == nil {
		return nil, ErrNoHost
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 200 * time.Millisecond
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	a := &Application{
		opts:     opts,
		logger:   logger,
		notifier: notify.New(),
		metrics:  NewMetrics(opts.Namespace, opts.Registerer),
	}

	a.store = loader.NewStore(opts.ConfigPath, loader.WithFs(opts.Fs))
	a.config = config.NewManager(a.store,
		config.WithLogger(logger),
		config.WithNotifier(a.notifier),
		config.WithReadOnly(opts.ReadOnly),
	)
	a.mux = hook.NewMultiplexer(opts.Host,
		hook.WithLogger(logger),
		hook.WithMetrics(hook.NewMetrics(opts.Namespace, opts.Registerer)),
	)
	a.registry = plugin.NewRegistry(a.mux, plugin.WithLogger(logger))

	a.notifier.Subscribe(func(c notify.Change) {
		if c.Type == notify.ChangeSet {
			a.logger.Debug().
				Str("path", c.Path).
				Interface("old", c.OldValue).
				Interface("new", c.NewValue).
				Msg("Setting changed")
		}
	})

	return a, nil
}

// Register adds a module. Modules must be registered before Bootstrap.
func (a *Application) Register(def plugin.Definition) error {
	return a.registry.RegisterModule(def)
}

// Load runs the configuration pipeline against the registered modules'
// schema without starting them.
func (a *Application) Load() (*config.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	res, err := a.config.Load(a.registry.Schema())
	if err != nil {
		a.metrics.loaded("load", nil, err)
		return nil, err
	}
	a.last = res
	a.metrics.loaded("load", res, res.Err())
	return res, res.Err()
}

// Bootstrap loads the configuration, reconciles and persists it, validates
// it and starts every enabled module.
//
// Only a broken schema stops the sequence. Read, persist and module init
// failures are logged, joined into the returned error and otherwise
// ignored; the Result is returned whenever the configuration was loaded.
func (a *Application) Bootstrap() (*config.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return nil, ErrAlreadyStarted
	}

	res, err := a.config.Load(a.registry.Schema())
	if err != nil {
		a.metrics.loaded("bootstrap", nil, err)
		return nil, err
	}
	a.started = true
	a.last = res

	startErr := a.registry.Start(res.Values)
	err = errors.Join(res.Err(), startErr)

	a.metrics.loaded("bootstrap", res, err)
	a.metrics.observe(a.registry.List())

	a.logger.Info().
		Str("path", a.store.Path()).
		Int("modules", len(a.registry.List())).
		Int("initialized", len(a.registry.ListByState(plugin.StateInitialized))).
		Int("violations", len(res.Violations)).
		Msg("Started")
	return res, err
}

// Reload replays startup with a fresh read of the configuration: live
// modules are cleaned up, their hooks removed, and every module is
// constructed and initialized again.
func (a *Application) Reload() (*config.Result, error) {
	return a.reload("reload")
}

func (a *Application) reload(trigger string) (*config.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil, ErrNotStarted
	}

	res, err := a.config.Load(a.registry.Schema())
	if err != nil {
		a.metrics.loaded(trigger, nil, err)
		return nil, err
	}
	a.last = res

	reloadErr := a.registry.Reload(res.Values)
	err = errors.Join(res.Err(), reloadErr)

	a.metrics.loaded(trigger, res, err)
	a.metrics.observe(a.registry.List())
	return res, err
}

// TransitionWorld cleans up every live module in reverse init order.
func (a *Application) TransitionWorld() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return ErrNotStarted
	}

	err := a.registry.TransitionWorld()
	a.metrics.transitioned()
	a.metrics.observe(a.registry.List())
	return err
}

// Do runs fn serialized with Bootstrap, Reload and TransitionWorld. Hosts
// that deliver events from their own goroutine wrap delivery in Do.
func (a *Application) Do(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
}

// Close stops configuration watching and cleans up live modules.
func (a *Application) Close() error {
	a.stopWatching()

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}
	return a.registry.TransitionWorld()
}

// Result returns the result of the last configuration load, or nil.
func (a *Application) Result() *config.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Registry returns the module registry.
func (a *Application) Registry() *plugin.Registry {
	return a.registry
}

// Multiplexer returns the hook multiplexer.
func (a *Application) Multiplexer() *hook.Multiplexer {
	return a.mux
}

// Notifier returns the configuration change notifier.
func (a *Application) Notifier() *notify.Notifier {
	return a.notifier
}

// Store returns the configuration store.
func (a *Application) Store() *loader.Store {
	return a.store
}

// Logger returns the root logger.
func (a *Application) Logger() *zerolog.Logger {
	return &a.logger
}
