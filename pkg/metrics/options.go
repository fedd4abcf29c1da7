package metrics

import (
	"maps"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager before its metrics are registered.
type Option func(*Manager)

// WithNamespace replaces the "bathlog" metric prefix.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithSubsystem inserts a subsystem between namespace and metric name.
func WithSubsystem(subsystem string) Option {
	return func(m *Manager) {
		m.subsystem = subsystem
	}
}

// WithLatencyBuckets sets the millisecond buckets shared by every latency
// histogram. Buckets that are empty or not strictly increasing are ignored.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) == 0 || !slices.IsSorted(buckets) || len(slices.Compact(slices.Clone(buckets))) != len(buckets) {
			return
		}
		m.latencyBuckets = slices.Clone(buckets)
	}
}

// WithConstLabels attaches labels such as the instance name to every metric.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) {
		m.constLabels = maps.Clone(labels)
	}
}

// WithRegistry registers metrics on reg instead of the default registerer.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}
