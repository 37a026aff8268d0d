// Package metrics exposes dispatch outcomes as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Daskott/sos/dispatch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const NAMESPACE = "sos"

// Collector records every finished dispatch. It uses its own registry so
// several collectors can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	Dispatches       *prometheus.CounterVec
	MessageAttempts  *prometheus.CounterVec
	CallAttempts     *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	collector := &Collector{
		registry: reg,
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "dispatch_total",
			Help:      "Total number of alert dispatches by failure reason",
		}, []string{"failure_reason"}),
		MessageAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "sms_attempts_total",
			Help:      "Total number of SMS attempts",
		}, []string{"delivered"}),
		CallAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "calls_total",
			Help:      "Total number of call attempts",
		}, []string{"initiated"}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: NAMESPACE,
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of alert dispatches in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(collector.Dispatches)
	reg.MustRegister(collector.MessageAttempts)
	reg.MustRegister(collector.CallAttempts)
	reg.MustRegister(collector.DispatchDuration)

	return collector
}

// Observe implements dispatch.Recorder.
func (c *Collector) Observe(outcome dispatch.Outcome, elapsed time.Duration) {
	reason := string(outcome.FailureReason)
	if reason == "" {
		reason = "none"
	}
	c.Dispatches.WithLabelValues(reason).Inc()

	for _, attempt := range outcome.MessagesAttempted {
		c.MessageAttempts.WithLabelValues(strconv.FormatBool(attempt.Delivered)).Inc()
	}

	if outcome.CallAttempted != nil {
		c.CallAttempts.WithLabelValues(strconv.FormatBool(outcome.CallAttempted.Initiated)).Inc()
	}

	c.DispatchDuration.Observe(elapsed.Seconds())
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
