package hook

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects dispatch statistics as Prometheus collectors.
type Metrics struct {
	dispatches        *prometheus.CounterVec
	callbacks         *prometheus.CounterVec
	failures          *prometheus.CounterVec
	panics            *prometheus.CounterVec
	subscribeFailures *prometheus.CounterVec
	registrations     *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "modcore"
	}

	m := &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hook_dispatches_total",
				Help:      "Host events dispatched per hook point",
			},
			[]string{"point"},
		),
		callbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hook_callbacks_total",
				Help:      "Callback invocations per hook point and module",
			},
			[]string{"point", "module"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hook_callback_failures_total",
				Help:      "Callbacks that returned an error or panicked",
			},
			[]string{"point", "module"},
		),
		panics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hook_callback_panics_total",
				Help:      "Callbacks that panicked",
			},
			[]string{"point", "module"},
		),
		subscribeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hook_subscribe_failures_total",
				Help:      "Failed host subscriptions per hook point",
			},
			[]string{"point"},
		),
		registrations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "hook_registrations",
				Help:      "Current registrations per hook point",
			},
			[]string{"point"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.dispatches,
			m.callbacks,
			m.failures,
			m.panics,
			m.subscribeFailures,
			m.registrations,
		)
	}
	return m
}

func (m *Metrics) dispatched(point string) {
	m.dispatches.WithLabelValues(point).Inc()
}

func (m *Metrics) invoked(point, module string, err error) {
	m.callbacks.WithLabelValues(point, module).Inc()
	if err == nil {
		return
	}
	m.failures.WithLabelValues(point, module).Inc()
	if errors.Is(err, ErrCallbackPanic) {
		m.panics.WithLabelValues(point, module).Inc()
	}
}
