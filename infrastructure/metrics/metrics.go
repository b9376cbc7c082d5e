// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/carlosrabelo/cscc/domain/entities"
)

// Namespace prefixes every metric name
const Namespace = "cscc"

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds the collectors shared by the client and the provider
type Metrics struct {
	portParseErrors *prometheus.CounterVec
	requests        *prometheus.CounterVec
	collections     *prometheus.CounterVec
	collectDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		portParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "port_parse_errors_total",
			Help:      "Number of ports omitted from a switch record because their text could not be normalized.",
		}, []string{"switch"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "provider_requests_total",
			Help:      "Number of provider requests by query type and outcome.",
		}, []string{"query", "outcome"}),
		collections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "collections_total",
			Help:      "Number of running-config collections by switch and outcome.",
		}, []string{"switch", "outcome"}),
		collectDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "collect_duration_seconds",
			Help:      "Time spent reading and parsing a switch running-config.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"switch"}),
	}
	reg.MustRegister(m.portParseErrors, m.requests, m.collections, m.collectDuration)
	return m
}

// ReportPortError counts a port omitted by the normalizer
func (m *Metrics) ReportPortError(perr entities.PortError) {
	m.portParseErrors.WithLabelValues(perr.Switch).Inc()
}

// ObserveRequest counts one provider request
func (m *Metrics) ObserveRequest(query string, err error) {
	m.requests.WithLabelValues(query, outcome(err)).Inc()
}

// ObserveCollection records one collection attempt for a switch
func (m *Metrics) ObserveCollection(switchIP string, elapsed time.Duration, err error) {
	m.collections.WithLabelValues(switchIP, outcome(err)).Inc()
	if err == nil {
		m.collectDuration.WithLabelValues(switchIP).Observe(elapsed.Seconds())
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
