package lua

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/modcore/internal/logging"
	"github.com/dshills/modcore/internal/plugin"
	"github.com/dshills/modcore/internal/plugin/hook"
)

// Script is a module defined by a Lua file.
//
// A script declares a global module table and optional init and cleanup
// functions:
//
//	module = {
//	    name = "Radar",
//	    description = "Minimap radar",
//	    enabled = "Enabled",
//	    schema = {
//	        { name = "Enabled", default = true },
//	        { name = "Range", default = 64, integer = true, min = 8 },
//	    },
//	}
//
//	function init(cfg)
//	    hook("OnTick", function(dt) log.debug("tick", dt) end)
//	end
//
// hook returns a handle that unhook accepts. log.debug, log.info,
// log.warn and log.error write tagged module log lines.
type Script struct {
	path   string
	state  *State
	bridge *Bridge
	logger zerolog.Logger
	def    plugin.Definition

	mu      sync.Mutex
	ctx     *plugin.Context
	handles map[int]hook.Handle
	nextID  int
}

// Option configures script loading.
type Option func(*loadConfig)

type loadConfig struct {
	logger    zerolog.Logger
	stateOpts []StateOption
}

// WithLogger sets the logger used before a module is initialized.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *loadConfig) {
		c.logger = logger
	}
}

// WithStateOptions passes options to every Lua state.
func WithStateOptions(opts ...StateOption) Option {
	return func(c *loadConfig) {
		c.stateOpts = append(c.stateOpts, opts...)
	}
}

// Discover loads every *.lua file in dir in file name order. A missing
// directory yields no scripts. Scripts that fail to load are skipped and
// reported as *LoadError values in the joined error.
func Discover(fsys afero.Fs, dir string, opts ...Option) ([]*Script, error) {
	infos, err := afero.ReadDir(fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading module directory: %w", err)
	}

	var scripts []*Script
	var errs []error
	for _, info := range infos {
		if info.IsDir() || filepath.Ext(info.Name()) != ".lua" {
			continue
		}
		s, err := Load(fsys, filepath.Join(dir, info.Name()), opts...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scripts = append(scripts, s)
	}
	return scripts, errors.Join(errs...)
}

// Load reads and runs one script and builds its module definition.
func Load(fsys afero.Fs, path string, opts ...Option) (*Script, error) {
	cfg := loadConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	code, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	state := NewState(cfg.stateOpts...)
	s := &Script{
		path:    path,
		state:   state,
		bridge:  NewBridge(state.L),
		logger:  cfg.logger.With().Str("script", path).Logger(),
		handles: make(map[int]hook.Handle),
	}
	s.installAPI()

	if err := state.DoString(string(code)); err != nil {
		state.Close()
		return nil, &LoadError{Path: path, Err: err}
	}
	if err := s.readDefinition(); err != nil {
		state.Close()
		return nil, &LoadError{Path: path, Err: err}
	}
	return s, nil
}

// Definition returns the module definition backed by the script.
func (s *Script) Definition() plugin.Definition {
	return s.def
}

// Path returns the script file.
func (s *Script) Path() string {
	return s.path
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.state.Close()
}

func (s *Script) readDefinition() error {
	return s.state.With(func(L *lua.LState) error {
		mod, ok := L.GetGlobal("module").(*lua.LTable)
		if !ok {
			return ErrNoModule
		}

		name, ok := s.bridge.GetTableString(mod, "name")
		if !ok || name == "" {
			name = strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
		}
		desc, _ := s.bridge.GetTableString(mod, "description")
		list, _ := s.bridge.GetTableTable(mod, "schema")

		node, err := s.bridge.buildSchema(desc, list)
		if err != nil {
			return err
		}

		enabled, _ := s.bridge.GetTableString(mod, "enabled")
		debug, _ := s.bridge.GetTableString(mod, "debug")
		s.def = plugin.Definition{
			Name:        name,
			Schema:      node,
			EnabledPath: enabled,
			DebugPath:   debug,
			Init:        s.init,
			Cleanup:     s.cleanup,
		}
		return nil
	})
}

func (s *Script) init(ctx *plugin.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.handles = make(map[int]hook.Handle)
	s.mu.Unlock()

	return s.state.With(func(L *lua.LState) error {
		fn, ok := L.GetGlobal("init").(*lua.LFunction)
		if !ok {
			return nil
		}
		return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, s.bridge.ToLuaValue(ctx.Config()))
	})
}

func (s *Script) cleanup(*plugin.Context) error {
	return s.state.Call("cleanup")
}

func (s *Script) context() *plugin.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// installAPI exposes hook, unhook and log to the script.
func (s *Script) installAPI() {
	s.state.RegisterFunc("hook", s.luaHook)
	s.state.RegisterFunc("unhook", s.luaUnhook)
	s.state.RegisterModule("log", map[string]lua.LGFunction{
		"debug": s.luaLog(zerolog.DebugLevel),
		"info":  s.luaLog(zerolog.InfoLevel),
		"warn":  s.luaLog(zerolog.WarnLevel),
		"error": s.luaLog(zerolog.ErrorLevel),
	})
}

func (s *Script) luaHook(L *lua.LState) int {
	point := L.CheckString(1)
	fn := L.CheckFunction(2)

	ctx := s.context()
	if ctx == nil {
		L.RaiseError("hook %q: %s", point, ErrNoContext)
		return 0
	}

	h, err := ctx.Hook(point, s.callback(fn))
	if err != nil {
		L.RaiseError("hook %q: %s", point, err)
		return 0
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.handles[id] = h
	s.mu.Unlock()

	L.Push(lua.LNumber(id))
	return 1
}

func (s *Script) luaUnhook(L *lua.LState) int {
	id := L.CheckInt(1)

	ctx := s.context()
	if ctx == nil {
		L.RaiseError("unhook: %s", ErrNoContext)
		return 0
	}

	s.mu.Lock()
	h, ok := s.handles[id]
	delete(s.handles, id)
	s.mu.Unlock()

	if ok {
		ctx.Unhook(h)
	}
	return 0
}

// callback adapts a Lua function to a hook callback. Host arguments are
// passed through the bridge; a Lua error becomes the callback error.
func (s *Script) callback(fn *lua.LFunction) hook.Callback {
	return func(ev hook.Event) error {
		return s.state.With(func(L *lua.LState) error {
			args := make([]lua.LValue, len(ev.Args))
			for i, arg := range ev.Args {
				args[i] = s.bridge.ToLuaValue(arg)
			}
			return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
		})
	}
}

func (s *Script) luaLog(level zerolog.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}

		logger := s.logger
		if ctx := s.context(); ctx != nil {
			logger = *ctx.Logger()
		} else if s.def.Name != "" {
			logger = logging.ForModule(s.logger, s.def.Name, false)
		}
		logger.WithLevel(level).Msg(strings.Join(parts, " "))
		return 0
	}
}
