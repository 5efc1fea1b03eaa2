package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utakatalp/playoff-picture/internal/scenario"
)

// Metrics holds the server's collectors on a registry of its own.
type Metrics struct {
	Registry   *prometheus.Registry
	requests   *prometheus.CounterVec
	evaluation *prometheus.HistogramVec
	boundHits  *prometheus.CounterVec
}

// NewMetrics registers the server's collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playoffs",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		evaluation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "playoffs",
			Name:      "evaluation_seconds",
			Help:      "Time spent computing standings, scenarios and brackets.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"kind"}),
		boundHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "playoffs",
			Name:      "scenario_bound_hits_total",
			Help:      "Scenario evaluations that stopped at a search bound.",
		}, []string{"goal"}),
	}
	m.Registry.MustRegister(m.requests, m.evaluation, m.boundHits)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *Metrics) observeEvaluation(kind string, started time.Time) {
	m.evaluation.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// observeBundles counts the scenarios whose searches were cut short.
func (m *Metrics) observeBundles(bundles ...scenario.Bundle) int {
	hits := 0
	for _, b := range bundles {
		for goal, sc := range b.Scenarios {
			if sc.Search == scenario.SearchBounded {
				m.boundHits.WithLabelValues(goal.String()).Inc()
				hits++
			}
		}
	}
	return hits
}
