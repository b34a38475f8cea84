package hook

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog"
)

// Multiplexer fans host hook points out to module callbacks.
type Multiplexer struct {
	mu sync.Mutex

	host    Host
	logger  zerolog.Logger
	metrics *Metrics
	onError func(*CallbackError)

	points   map[string]*point
	order    []string
	handles  map[Handle]*registration
	seq      uint64
	depth    int
	deferred []pendingOp
}

type point struct {
	name       string
	subscribed bool
	regs       []*registration
}

type registration struct {
	handle Handle
	point  string
	module string
	seq    uint64
	cb     Callback
}

type opKind int

const (
	opRegister opKind = iota
	opUnregister
	opUnregisterModule
)

type pendingOp struct {
	kind   opKind
	reg    *registration
	handle Handle
	module string
}

// Option configures a Multiplexer.
type Option func(*Multiplexer)

// WithLogger sets the logger for subscription and callback failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Multiplexer) {
		m.logger = logger
	}
}

// WithMetrics records dispatch counters.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Multiplexer) {
		m.metrics = metrics
	}
}

// WithErrorHandler is called, after logging, for every failed callback.
func WithErrorHandler(fn func(*CallbackError)) Option {
	return func(m *Multiplexer) {
		m.onError = fn
	}
}

// NewMultiplexer creates a multiplexer subscribing through host.
func NewMultiplexer(host Host, opts ...Option) *Multiplexer {
	m := &Multiplexer{
		host:    host,
		logger:  zerolog.Nop(),
		points:  make(map[string]*point),
		handles: make(map[Handle]*registration),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a callback for a hook point on behalf of a module.
//
// The first registration for a point subscribes it with the host. If that
// fails the failure is logged and the next registration for the point
// tries again. During a dispatch the registration is queued; the returned
// handle is valid immediately.
func (m *Multiplexer) Register(pointName, module string, cb Callback) (Handle, error) {
	if pointName == "" {
		return Handle{}, ErrEmptyPoint
	}
	if cb == nil {
		return Handle{}, ErrNilCallback
	}

	m.mu.Lock()
	m.seq++
	reg := &registration{
		handle: newHandle(),
		point:  pointName,
		module: module,
		seq:    m.seq,
		cb:     cb,
	}
	if m.depth > 0 {
		m.deferred = append(m.deferred, pendingOp{kind: opRegister, reg: reg})
		m.mu.Unlock()
		return reg.handle, nil
	}
	subscribe := m.addLocked(reg)
	m.mu.Unlock()

	if subscribe {
		m.subscribe(pointName)
	}
	return reg.handle, nil
}

// Unregister removes a registration. Unknown handles are ignored. During a
// dispatch the removal is queued.
func (m *Multiplexer) Unregister(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.depth > 0 {
		m.deferred = append(m.deferred, pendingOp{kind: opUnregister, handle: h})
		return
	}
	m.removeLocked(h)
}

// UnregisterModule removes every registration owned by module and returns
// how many were removed. During a dispatch the removal is queued and the
// count is zero.
func (m *Multiplexer) UnregisterModule(module string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.depth > 0 {
		m.deferred = append(m.deferred, pendingOp{kind: opUnregisterModule, module: module})
		return 0
	}
	return m.removeModuleLocked(module)
}

// Dispatch delivers an event to every callback registered for the point,
// in registration order. It is the function handed to the host.
func (m *Multiplexer) Dispatch(pointName string, args ...any) {
	m.mu.Lock()
	var regs []*registration
	if p := m.points[pointName]; p != nil {
		regs = make([]*registration, len(p.regs))
		copy(regs, p.regs)
	}
	m.depth++
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.dispatched(pointName)
	}

	ev := Event{Point: pointName, Args: args}
	for _, reg := range regs {
		m.invoke(reg, ev)
	}

	m.mu.Lock()
	m.depth--
	var pending []pendingOp
	if m.depth == 0 {
		pending = m.deferred
		m.deferred = nil
	}
	m.mu.Unlock()

	m.apply(pending)
}

// Points returns every point with at least one registration, in the order
// the points were first registered.
func (m *Multiplexer) Points() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.order))
	for _, name := range m.order {
		if len(m.points[name].regs) > 0 {
			out = append(out, name)
		}
	}
	return out
}

// Count returns the number of registrations for a point.
func (m *Multiplexer) Count(pointName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p := m.points[pointName]; p != nil {
		return len(p.regs)
	}
	return 0
}

// Subscribed reports whether the point holds a host subscription.
func (m *Multiplexer) Subscribed(pointName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := m.points[pointName]
	return p != nil && p.subscribed
}

// ModuleCount returns the number of registrations owned by module.
func (m *Multiplexer) ModuleCount(module string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, reg := range m.handles {
		if reg.module == module {
			n++
		}
	}
	return n
}

// Pending returns the number of queued operations.
func (m *Multiplexer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deferred)
}

// addLocked inserts reg and reports whether its point needs a host
// subscription. The point is marked subscribed before the call is made.
func (m *Multiplexer) addLocked(reg *registration) bool {
	p := m.points[reg.point]
	if p == nil {
		p = &point{name: reg.point}
		m.points[reg.point] = p
		m.order = append(m.order, reg.point)
	}
	p.regs = append(p.regs, reg)
	m.handles[reg.handle] = reg

	if m.metrics != nil {
		m.metrics.registrations.WithLabelValues(reg.point).Set(float64(len(p.regs)))
	}

	if p.subscribed {
		return false
	}
	p.subscribed = true
	return true
}

func (m *Multiplexer) removeLocked(h Handle) bool {
	reg, ok := m.handles[h]
	if !ok {
		return false
	}
	delete(m.handles, h)

	p := m.points[reg.point]
	for i, r := range p.regs {
		if r == reg {
			p.regs = append(p.regs[:i:i], p.regs[i+1:]...)
			break
		}
	}
	if m.metrics != nil {
		m.metrics.registrations.WithLabelValues(reg.point).Set(float64(len(p.regs)))
	}
	return true
}

func (m *Multiplexer) removeModuleLocked(module string) int {
	var owned []Handle
	for _, name := range m.order {
		for _, reg := range m.points[name].regs {
			if reg.module == module {
				owned = append(owned, reg.handle)
			}
		}
	}
	for _, h := range owned {
		m.removeLocked(h)
	}
	return len(owned)
}

// subscribe hands Dispatch to the host for one point.
func (m *Multiplexer) subscribe(pointName string) {
	err := m.host.Subscribe(pointName, func(args ...any) {
		m.Dispatch(pointName, args...)
	})
	if err == nil {
		return
	}

	m.mu.Lock()
	if p := m.points[pointName]; p != nil {
		p.subscribed = false
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.subscribeFailures.WithLabelValues(pointName).Inc()
	}
	m.logger.Error().Err(err).Str("point", pointName).Msg("Host subscription failed, will retry on next registration")
}

// apply runs queued operations in issue order.
func (m *Multiplexer) apply(ops []pendingOp) {
	for _, op := range ops {
		m.mu.Lock()
		var subscribe bool
		switch op.kind {
		case opRegister:
			subscribe = m.addLocked(op.reg)
		case opUnregister:
			m.removeLocked(op.handle)
		case opUnregisterModule:
			m.removeModuleLocked(op.module)
		}
		m.mu.Unlock()

		if subscribe {
			m.subscribe(op.reg.point)
		}
	}
}

// invoke runs one callback, containing errors and panics.
func (m *Multiplexer) invoke(reg *registration, ev Event) {
	err := m.call(reg, ev)

	if m.metrics != nil {
		m.metrics.invoked(reg.point, reg.module, err)
	}
	if err == nil {
		return
	}

	cerr := &CallbackError{Point: reg.point, Module: reg.module, Err: err}
	m.logger.Error().
		Str("module", reg.module).
		Str("point", reg.point).
		Err(err).
		Msg("Hook callback failed")
	if m.onError != nil {
		m.onError(cerr)
	}
}

func (m *Multiplexer) call(reg *registration, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCallbackPanic, r)
			m.logger.Debug().Str("module", reg.module).Str("point", reg.point).
				Bytes("stack", debug.Stack()).Msg("Hook callback panic")
		}
	}()
	return reg.cb(ev)
}
