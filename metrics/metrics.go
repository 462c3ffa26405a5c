// Package metrics holds the Prometheus instruments for the chatbot service.
// All methods are nil-safe so components can run without instrumentation.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  prometheus.Histogram
	generations      *prometheus.CounterVec
	generationTime   prometheus.Histogram
	sessionsEvicted  *prometheus.CounterVec
	sessionsResident prometheus.GaugeFunc
}

// New registers the chatbot instruments on a fresh registry. residentSessions
// is sampled on every scrape; it may be nil.
func New(residentSessions func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "requests_total",
			Help:      "Chatbot requests by HTTP status code.",
		}, []string{"code"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatbot",
			Name:      "request_duration_seconds",
			Help:      "End-to-end chatbot request latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "generations_total",
			Help:      "Model generation calls by outcome.",
		}, []string{"provider", "outcome"}),
		generationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "chatbot",
			Name:      "generation_duration_seconds",
			Help:      "Latency of the upstream model call.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		}),
		sessionsEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Name:      "sessions_evicted_total",
			Help:      "Sessions dropped from memory by reason.",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.generations,
		m.generationTime,
		m.sessionsEvicted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if residentSessions != nil {
		m.sessionsResident = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "chatbot",
			Name:      "sessions_resident",
			Help:      "Sessions currently held in memory.",
		}, func() float64 { return float64(residentSessions()) })
		m.registry.MustRegister(m.sessionsResident)
	}

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(strconv.Itoa(code)).Inc()
	m.requestDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveGeneration(provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.generations.WithLabelValues(provider, outcome).Inc()
	m.generationTime.Observe(elapsed.Seconds())
}

func (m *Metrics) SessionEvicted(reason string) {
	if m == nil {
		return
	}
	m.sessionsEvicted.WithLabelValues(reason).Inc()
}
