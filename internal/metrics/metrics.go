// Package metrics exports page generation events to Prometheus.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/dfryer1193/spacetraveling/blog/application"
	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spacetraveling"

var _ application.Observer = (*Metrics)(nil)

// Metrics holds the generator's Prometheus collectors
type Metrics struct {
	PagesGenerated     *prometheus.CounterVec
	GenerationFailures *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	PagesServed        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. Passing a fresh prometheus.NewRegistry
// keeps tests independent of the global registry.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PagesGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_generated_total",
			Help:      "Pages generated, by page kind and trigger",
		}, []string{"kind", "trigger"}),

		GenerationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_generation_failures_total",
			Help:      "Failed page generations, by trigger and reason",
		}, []string{"trigger", "reason"}),

		GenerationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_generation_duration_seconds",
			Help:      "Time to fetch and render a page",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),

		PagesServed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_served_total",
			Help:      "Pages served, by freshness at request time",
		}, []string{"outcome"}),

		gatherer: reg,
	}
}

func (m *Metrics) PageGenerated(kind domain.PageKind, trigger string, took time.Duration) {
	m.PagesGenerated.WithLabelValues(string(kind), trigger).Inc()
	m.GenerationDuration.WithLabelValues(string(kind)).Observe(took.Seconds())
}

func (m *Metrics) PageFailed(trigger string, err error) {
	m.GenerationFailures.WithLabelValues(trigger, Reason(err)).Inc()
}

func (m *Metrics) PageServed(outcome string) {
	m.PagesServed.WithLabelValues(outcome).Inc()
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Reason maps an error onto a low-cardinality label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrRepositoryUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrMalformedDocument):
		return "malformed"
	default:
		return "other"
	}
}
