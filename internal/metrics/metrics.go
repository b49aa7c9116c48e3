// Package metrics exports uiforge activity as Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements engine.Recorder and registry.Observer.
type Metrics struct {
	mutations    *prometheus.CounterVec
	historyDepth prometheus.Histogram
	exports      *prometheus.HistogramVec
	openDocs     prometheus.Gauge
	requests     *prometheus.CounterVec
}

// New registers the uiforge metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "uiforge_mutations_total",
			Help: "Tree mutations by operation and whether they changed the document",
		}, []string{"op", "applied"}),

		historyDepth: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "uiforge_history_depth",
			Help:    "Undo log length observed after each recorded change",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),

		exports: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "uiforge_export_duration_seconds",
			Help:    "Duration of component source generation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.25},
		}, []string{"flavor"}),

		openDocs: f.NewGauge(prometheus.GaugeOpts{
			Name: "uiforge_open_documents",
			Help: "Documents currently held open",
		}),

		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "uiforge_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		}, []string{"route", "code"}),
	}
}

func (m *Metrics) Mutation(op string, applied bool) {
	m.mutations.WithLabelValues(op, strconv.FormatBool(applied)).Inc()
}

func (m *Metrics) HistoryDepth(entries int) {
	m.historyDepth.Observe(float64(entries))
}

func (m *Metrics) Export(flavor string, elapsed time.Duration) {
	m.exports.WithLabelValues(flavor).Observe(elapsed.Seconds())
}

func (m *Metrics) OpenDocuments(n int) {
	m.openDocs.Set(float64(n))
}

// Request counts one served HTTP request.
func (m *Metrics) Request(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
