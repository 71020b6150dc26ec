package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the builder's collectors. A nil *Metrics records nothing.
type Metrics struct {
	Registry       *prometheus.Registry
	storeWrites    *prometheus.CounterVec
	fieldRejects   *prometheus.CounterVec
	exports        *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		storeWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvalley",
			Name:      "store_writes_total",
			Help:      "Writes to the persisted document store by outcome.",
		}, []string{"outcome"}),
		fieldRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvalley",
			Name:      "field_rejections_total",
			Help:      "Field writes rejected by validation.",
		}, []string{"section", "field"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cvalley",
			Name:      "exports_total",
			Help:      "Export attempts by format and outcome.",
		}, []string{"format", "outcome"}),
		exportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cvalley",
			Name:      "export_duration_seconds",
			Help:      "Time spent rasterizing and packing exports.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"format"}),
	}
	reg.MustRegister(m.storeWrites, m.fieldRejects, m.exports, m.exportDuration)
	return m
}

func (m *Metrics) StoreWrite(outcome string) {
	if m == nil {
		return
	}
	m.storeWrites.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FieldRejected(section, field string) {
	if m == nil {
		return
	}
	m.fieldRejects.WithLabelValues(section, field).Inc()
}

func (m *Metrics) Export(format, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format, outcome).Inc()
	m.exportDuration.WithLabelValues(format).Observe(seconds)
}
