// Package metrics exposes Prometheus collectors for action execution and the
// definition caches.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/uikit/pkg/cache"
)

const namespace = "uikit"

// Metrics records action executions. A nil *Metrics is a valid no-op.
type Metrics struct {
	actions  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer. Collectors already registered under the same
// name are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "action",
			Name:      "executions_total",
			Help:      "Total number of executed actions by final state.",
		}, []string{"descriptor", "state"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "action",
			Name:      "duration_seconds",
			Help:      "Action execution time in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"descriptor"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "action",
			Name:      "in_flight",
			Help:      "Number of actions currently running.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "messages_total",
			Help:      "Total number of action messages handled by outcome.",
		}, []string{"outcome"}),
	}

	var err error
	if m.actions, err = register(reg, m.actions); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.inFlight, err = register(reg, m.inFlight); err != nil {
		return nil, err
	}
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew is New that panics on registration errors.
func MustNew(reg prometheus.Registerer) *Metrics {
	m, err := New(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ActionStarted marks an action as running.
func (m *Metrics) ActionStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// ActionFinished records the final state and duration of an action.
func (m *Metrics) ActionFinished(descriptor, state string, d time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.actions.WithLabelValues(descriptor, state).Inc()
	m.duration.WithLabelValues(descriptor).Observe(d.Seconds())
}

// Message counts one handled action message. outcome is "ok" or "rejected".
func (m *Metrics) Message(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// CacheCollector reports cache statistics read from stats on every scrape.
type CacheCollector struct {
	stats     func() map[string]cache.Stats
	hits      *prometheus.Desc
	misses    *prometheus.Desc
	evictions *prometheus.Desc
	size      *prometheus.Desc
}

// NewCacheCollector creates a collector for named caches, for example
// definition.Registry.CacheStats.
func NewCacheCollector(stats func() map[string]cache.Stats) *CacheCollector {
	label := []string{"cache"}
	return &CacheCollector{
		stats:     stats,
		hits:      prometheus.NewDesc(namespace+"_cache_hits_total", "Cache lookups served from memory.", label, nil),
		misses:    prometheus.NewDesc(namespace+"_cache_misses_total", "Cache lookups that had to load.", label, nil),
		evictions: prometheus.NewDesc(namespace+"_cache_evictions_total", "Entries dropped from the cache.", label, nil),
		size:      prometheus.NewDesc(namespace+"_cache_entries", "Entries currently cached.", label, nil),
	}
}

func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.size
}

func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	for name, s := range c.stats() {
		ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits), name)
		ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses), name)
		ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions), name)
		ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(s.Size), name)
	}
}
