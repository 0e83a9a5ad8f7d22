// Package instrument records Prometheus metrics around any groqb executor.
package instrument

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reoring/groqb"
)

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// Metrics holds the executor collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg
// (prometheus.DefaultRegisterer when nil).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groqb_executor_requests_total",
				Help: "Total number of executed GROQ queries by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "groqb_executor_request_duration_seconds",
				Help:    "GROQ query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Wrap returns exec instrumented with m.
func (m *Metrics) Wrap(exec groqb.Executor) groqb.Executor {
	return func(ctx context.Context, query string, opts groqb.RunOptions) (any, error) {
		start := time.Now()
		v, err := exec(ctx, query, opts)
		m.duration.Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(outcome(err)).Inc()
		return v, err
	}
}

// Requests exposes the counter for one outcome, mainly for tests.
func (m *Metrics) Requests(outcome string) prometheus.Counter {
	return m.requests.WithLabelValues(outcome)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	}
	return OutcomeError
}
