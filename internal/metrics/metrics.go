package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "listing_calendar"

// Request results
const (
	ResultOK           = "ok"
	ResultServiceError = "service_error"
	ResultNetworkError = "network_error"
)

// Collector holds the calendar client metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	days     *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Count of calendar API requests by endpoint and result.",
			},
			[]string{"endpoint", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Latency of calendar API requests.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		days: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "days",
				Help:      "Days of the current month by derived status.",
			},
			[]string{"status"},
		),
	}

	for _, collector := range []prometheus.Collector{c.requests, c.duration, c.days} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return c, nil
}

// ObserveRequest records one finished request
func (c *Collector) ObserveRequest(endpoint, result string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(endpoint, result).Inc()
	c.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// SetDays replaces the per-status day gauges
func (c *Collector) SetDays(counts map[string]int) {
	if c == nil {
		return
	}
	for status, n := range counts {
		c.days.WithLabelValues(status).Set(float64(n))
	}
}
