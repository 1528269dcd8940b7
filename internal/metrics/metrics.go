package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Generation outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeNoChoices  = "no_choices"
	OutcomeTransport  = "transport_error"
	OutcomeUpstream   = "upstream_error"
	OutcomeUnexpected = "unexpected_error"
)

type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	Generations     *prometheus.CounterVec
	UpstreamLatency prometheus.Histogram
	SessionOps      *prometheus.CounterVec
}

// New builds collectors on a private registry so tests can create as many as
// they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attackforge",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "attackforge",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attackforge",
			Name:      "generations_total",
			Help:      "Chat generation calls by outcome.",
		}, []string{"outcome"}),
		UpstreamLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "attackforge",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of proxied chat completion calls.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		}),
		SessionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attackforge",
			Name:      "session_operations_total",
			Help:      "Session operations by kind and result.",
		}, []string{"op", "result"}),
	}
	reg.MustRegister(
		m.HTTPRequests, m.HTTPDuration, m.Generations, m.UpstreamLatency, m.SessionOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
