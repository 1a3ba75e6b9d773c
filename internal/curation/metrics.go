package curation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of a Runner.
type Metrics struct {
	// DocumentsTotal counts processed documents by outcome
	// (complete, cached, failed).
	DocumentsTotal *prometheus.CounterVec
	// PositionsTotal counts merge decisions by decision and layer type.
	PositionsTotal *prometheus.CounterVec
	// DiagnosticsTotal counts annotations skipped as malformed.
	DiagnosticsTotal prometheus.Counter
	// DocumentDuration observes per-document processing time.
	DocumentDuration prometheus.Histogram
	// ActiveDocuments is the number of documents in flight.
	ActiveDocuments prometheus.Gauge
}

// NewMetrics creates the runner metrics and registers them with reg. A nil
// reg creates unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DocumentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_documents_total",
			Help: "Total number of documents processed, by outcome",
		}, []string{"outcome"}),
		PositionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_positions_total",
			Help: "Total number of merge decisions, by decision and layer type",
		}, []string{"decision", "type"}),
		DiagnosticsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "curate_malformed_annotations_total",
			Help: "Total number of annotations skipped as malformed",
		}),
		DocumentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "curate_document_duration_seconds",
			Help:    "Duration of diff and merge per document in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),
		ActiveDocuments: f.NewGauge(prometheus.GaugeOpts{
			Name: "curate_active_documents",
			Help: "Number of documents currently being processed",
		}),
	}
}

// observe records the decisions of one merged document.
func (m *Metrics) observe(log *Log, diagnostics int) {
	if m == nil {
		return
	}
	for _, e := range log.Entries {
		m.PositionsTotal.WithLabelValues(string(e.Decision), e.Position.Type).Inc()
	}
	m.DiagnosticsTotal.Add(float64(diagnostics))
}
