package config

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/modcore/internal/config/loader"
	"github.com/dshills/modcore/internal/config/notify"
	"github.com/dshills/modcore/internal/config/schema"
)

// Manager runs the configuration pipeline for one document: load,
// reconcile against the schema, persist, validate.
type Manager struct {
	mu sync.Mutex

	store    *loader.Store
	logger   zerolog.Logger
	notifier *notify.Notifier
	readOnly bool

	current *schema.Values
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithNotifier publishes value changes after every load.
func WithNotifier(n *notify.Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithReadOnly disables persisting the reconciled document.
func WithReadOnly(readOnly bool) Option {
	return func(m *Manager) {
		m.readOnly = readOnly
	}
}

// NewManager creates a manager backed by store.
func NewManager(store *loader.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the backing store.
func (m *Manager) Store() *loader.Store {
	return m.store
}

// Current returns the values produced by the last Load, or nil.
func (m *Manager) Current() *schema.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Result describes one pass of the pipeline.
type Result struct {
	// Values is the validated configuration. It is always complete.
	Values *schema.Values

	// Violations lists every leaf that fell back to its default.
	Violations schema.Violations

	// Reconciled is the document as persisted.
	Reconciled *Reconciled

	// Existed reports whether the document file was present.
	Existed bool

	// Saved reports whether the document was rewritten.
	Saved bool

	// ReadErr is set when the document could not be read or parsed. The
	// pipeline then continued from an empty document.
	ReadErr error

	// SaveErr is set when the reconciled document could not be persisted.
	SaveErr error

	// Changes lists leaves whose value differs from the previous Load.
	Changes []notify.Change
}

// Err joins the read and save errors.
func (r *Result) Err() error {
	return errors.Join(r.ReadErr, r.SaveErr)
}

// Load runs the pipeline against root.
//
// Nothing here is fatal. A missing document is generated from defaults. A
// document that fails to parse is treated as empty and left untouched on
// disk so the user can repair it. Validation violations are logged and
// resolved by defaults. The only error returned is ErrSchemaRoot; I/O
// problems are reported through the Result.
func (m *Manager) Load(root *schema.Node) (*Result, error) {
	if !root.IsGroup() {
		return nil, ErrSchemaRoot
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	res := &Result{}

	doc, exists, err := m.store.Load()
	res.Existed = exists
	if err != nil {
		res.ReadErr = err
		m.logger.Warn().Err(err).Str("path", m.store.Path()).Msg("Configuration unreadable, using defaults")
	}

	res.Reconciled = Reconcile(doc, root)
	m.logReconcile(res.Reconciled)

	if res.ReadErr == nil && !m.readOnly {
		res.Saved, res.SaveErr = m.persist(res.Reconciled)
		if res.SaveErr != nil {
			m.logger.Error().Err(res.SaveErr).Str("path", m.store.Path()).Msg("Failed to persist configuration")
		}
	}

	res.Values, res.Violations = schema.Validate(res.Reconciled.Document(), root)
	for _, v := range res.Violations {
		m.logger.Warn().
			Str("path", v.Path).
			Str("kind", v.Kind.String()).
			Interface("observed", v.Observed).
			Interface("default", v.Default).
			Msg(v.Reason + ", using default")
	}

	res.Changes = notify.Diff(m.current, res.Values)
	m.current = res.Values

	if m.notifier != nil {
		m.notifier.Publish(res.Changes, m.store.Path())
	}
	return res, nil
}

// persist writes the reconciled document when its encoding differs from
// the file content.
func (m *Manager) persist(r *Reconciled) (bool, error) {
	data, err := m.store.Codec().Encode(r.Entries())
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if prev, err := m.store.ReadRaw(); err == nil && bytes.Equal(prev, data) {
		return false, nil
	}
	if err := m.store.WriteRaw(data); err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	m.logger.Debug().Str("path", m.store.Path()).Msg("Configuration written")
	return true, nil
}

func (m *Manager) logReconcile(r *Reconciled) {
	for _, rn := range r.Renamed {
		m.logger.Info().Str("from", rn.From).Str("to", rn.To).Msg("Renamed configuration key")
	}
	for _, p := range r.Pruned {
		m.logger.Info().Str("path", p).Msg("Removed obsolete configuration key")
	}
	if len(r.Inserted) > 0 {
		m.logger.Debug().Strs("paths", r.Inserted).Msg("Inserted defaults")
	}
}
