// Package metrics provides a Prometheus collector for the signed request
// lifecycle. A nil *Collector is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess   = "success"
	OutcomeStatus    = "status_error"
	OutcomeTransport = "transport_error"
	OutcomeDecode    = "decode_error"
	OutcomeDryRun    = "dry_run"
	OutcomeRejected  = "rejected"
)

// Collector records request counts, durations and in-flight requests.
// It is safe for concurrent use.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	responseStatus   *prometheus.CounterVec
}

// NewCollector creates a collector on the default registerer.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector using the supplied registerer.
func NewCollectorWithRegistry(registry prometheus.Registerer) *Collector {
	return &Collector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llnw_requests_total",
				Help: "Total number of signed requests by outcome",
			},
			[]string{"method", "outcome"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llnw_request_duration_seconds",
				Help:    "Duration of signed HTTP exchanges in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "outcome"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "llnw_requests_in_flight",
				Help: "Number of signed HTTP exchanges currently in flight",
			},
			[]string{"method"},
		),
		responseStatus: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "llnw_responses_total",
				Help: "Total number of HTTP responses by status code",
			},
			[]string{"method", "status_code"},
		),
	}
}

// RecordStart marks an exchange as in flight.
func (c *Collector) RecordStart(method string) {
	if c == nil {
		return
	}
	c.requestsInFlight.WithLabelValues(method).Inc()
}

// RecordEnd clears an in-flight exchange and records its outcome and duration.
func (c *Collector) RecordEnd(method, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.requestsInFlight.WithLabelValues(method).Dec()
	c.requestsTotal.WithLabelValues(method, outcome).Inc()
	c.requestDuration.WithLabelValues(method, outcome).Observe(d.Seconds())
}

// RecordStatus counts a received HTTP status code.
func (c *Collector) RecordStatus(method string, statusCode int) {
	if c == nil {
		return
	}
	c.responseStatus.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

// RecordOutcome counts a call that never reached the network, such as a dry
// run or a request rejected before dispatch.
func (c *Collector) RecordOutcome(method, outcome string) {
	if c == nil {
		return
	}
	c.requestsTotal.WithLabelValues(method, outcome).Inc()
}
