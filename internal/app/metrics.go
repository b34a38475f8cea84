package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/modcore/internal/config"
	"github.com/dshills/modcore/internal/plugin"
)

var moduleStates = []plugin.State{
	plugin.StateUnregistered,
	plugin.StateConstructed,
	plugin.StateInitialized,
	plugin.StateCleaned,
	plugin.StateFailed,
	plugin.StateDisabled,
}

// Metrics tracks configuration loads and module states.
type Metrics struct {
	loads       *prometheus.CounterVec
	violations  prometheus.Gauge
	transitions prometheus.Counter
	modules     *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "modcore"
	}

	m := &Metrics{
		loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_loads_total",
				Help:      "Configuration loads by trigger and result",
			},
			[]string{"trigger", "result"},
		),
		violations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_violations",
				Help:      "Settings that fell back to their default on the last load",
			},
		),
		transitions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "world_transitions_total",
				Help:      "World transitions",
			},
		),
		modules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "modules",
				Help:      "Modules per lifecycle state",
			},
			[]string{"state"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.loads, m.violations, m.transitions, m.modules)
	}
	return m
}

func (m *Metrics) loaded(trigger string, res *config.Result, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.loads.WithLabelValues(trigger, result).Inc()
	if res != nil {
		m.violations.Set(float64(len(res.Violations)))
	}
}

func (m *Metrics) transitioned() {
	m.transitions.Inc()
}

func (m *Metrics) observe(infos []plugin.ModuleInfo) {
	counts := make(map[plugin.State]int)
	for _, info := range infos {
		counts[info.State]++
	}
	for _, s := range moduleStates {
		m.modules.WithLabelValues(s.String()).Set(float64(counts[s]))
	}
}
