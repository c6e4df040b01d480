// Package metrics exposes verification pass metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"voteaudit/internal/usecase"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry     *prometheus.Registry
	passes       prometheus.Counter
	passDuration prometheus.Histogram
	polls        *prometheus.CounterVec
	snapshots    *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voteaudit",
			Name:      "passes_total",
			Help:      "Completed verification passes.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voteaudit",
			Name:      "pass_duration_seconds",
			Help:      "Duration of verification passes.",
			Buckets:   prometheus.DefBuckets,
		}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voteaudit",
			Name:      "poll_outcomes_total",
			Help:      "Polls handled by verification passes, by outcome.",
		}, []string{"outcome"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voteaudit",
			Name:      "snapshots_total",
			Help:      "Poll snapshots received, by source.",
		}, []string{"source"}),
	}
	registry.MustRegister(
		m.passes,
		m.passDuration,
		m.polls,
		m.snapshots,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObservePass(duration time.Duration, report usecase.PassReport) {
	m.passes.Inc()
	m.passDuration.Observe(duration.Seconds())
	m.polls.WithLabelValues("verified").Add(float64(len(report.Verified)))
	m.polls.WithLabelValues("failed").Add(float64(len(report.Failed)))
	m.polls.WithLabelValues("unverified").Add(float64(len(report.Unverified)))
	m.polls.WithLabelValues("unresolved").Add(float64(len(report.Unresolved)))
}

// ObserveSnapshot counts snapshots handed to the pass loop.
func (m *Metrics) ObserveSnapshot(source string) {
	m.snapshots.WithLabelValues(source).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ usecase.PassMetrics = (*Metrics)(nil)
