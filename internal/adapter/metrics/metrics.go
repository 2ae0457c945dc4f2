package metrics

import (
	"net/http"
	"time"

	"github.com/niksmo/cardfinder/internal/core/domain"
	"github.com/niksmo/cardfinder/internal/core/port"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cardfinder"

var _ port.SearchObserver = (*Metrics)(nil)

type Metrics struct {
	FetchesTotal         *prometheus.CounterVec
	FetchDurationSeconds *prometheus.HistogramVec
	HTTPRequestsTotal    *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors in reg. Passing a fresh
// [prometheus.NewRegistry] keeps tests isolated.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_fetches_total",
				Help:      "Catalog fetches by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		FetchDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_fetch_duration_seconds",
				Help:      "Round trip of catalog fetches",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Dashboard API requests by status code and method",
			},
			[]string{"code", "method"},
		),
		gatherer: reg,
	}
}

func (m *Metrics) ObserveFetch(
	kind string, outcome domain.Outcome, elapsed time.Duration,
) {
	m.FetchesTotal.WithLabelValues(kind, string(outcome)).Inc()
	m.FetchDurationSeconds.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// Instrument counts the requests served by next.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.HTTPRequestsTotal, next)
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
