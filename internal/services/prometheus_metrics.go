package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// prometheusMetrics implements MetricsRecorderInterface backed by Prometheus
// collectors. Counters, histograms and gauges are created lazily per metric
// name so service code can record without pre-registering.
type prometheusMetrics struct {
	mu         sync.Mutex
	registerer prometheus.Registerer
	counters   map[string]*prometheus.CounterVec
	histograms map[string]prometheus.Histogram
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheusMetrics creates a metrics recorder on the default registry
func NewPrometheusMetrics() MetricsRecorderInterface {
	return NewPrometheusMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewPrometheusMetricsWithRegisterer creates a metrics recorder on a custom
// registerer, mainly for tests.
func NewPrometheusMetricsWithRegisterer(registerer prometheus.Registerer) MetricsRecorderInterface {
	return &prometheusMetrics{
		registerer: registerer,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]prometheus.Histogram),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

func (m *prometheusMetrics) IncrementCounter(name string, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	labelNames := sortedKeys(tags)
	key := name + "|" + joinLabels(labelNames)

	counter, ok := m.counters[key]
	if !ok {
		counter = promauto.With(m.registerer).NewCounterVec(prometheus.CounterOpts{
			Namespace: "classbank",
			Name:      name,
			Help:      "Counter for " + name,
		}, labelNames)
		m.counters[key] = counter
	}

	counter.With(prometheus.Labels(tags)).Inc()
}

func (m *prometheusMetrics) RecordProcessingTime(name string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	histogram, ok := m.histograms[name]
	if !ok {
		histogram = promauto.With(m.registerer).NewHistogram(prometheus.HistogramOpts{
			Namespace: "classbank",
			Name:      name + "_seconds",
			Help:      "Processing time for " + name,
			Buckets:   prometheus.DefBuckets,
		})
		m.histograms[name] = histogram
	}

	histogram.Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	labelNames := sortedKeys(tags)
	key := name + "|" + joinLabels(labelNames)

	gauge, ok := m.gauges[key]
	if !ok {
		gauge = promauto.With(m.registerer).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "classbank",
			Name:      name,
			Help:      "Gauge for " + name,
		}, labelNames)
		m.gauges[key] = gauge
	}

	gauge.With(prometheus.Labels(tags)).Set(value)
}

func sortedKeys(tags map[string]string) []string {
	if len(tags) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func joinLabels(names []string) string {
	return strings.Join(names, ",")
}
