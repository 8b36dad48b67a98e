package provider

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	switches *prometheus.CounterVec
}

// NewMetrics registers the provider collectors on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Provider requests by method and outcome.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wallet",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Provider request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		switches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wallet",
			Subsystem: "chain",
			Name:      "switches_total",
			Help:      "Active chain switches by target chain.",
		}, []string{"chain"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.switches)
	}
	return m
}

// label keeps unknown method names out of the label space
func label(method string) string {
	for _, m := range Methods {
		if m == method {
			return method
		}
	}
	return "unsupported"
}

func (m *Metrics) observe(method, outcome string, seconds float64) {
	if m == nil {
		return
	}
	l := label(method)
	m.requests.WithLabelValues(l, outcome).Inc()
	m.duration.WithLabelValues(l).Observe(seconds)
}

// ChainSwitched counts a successful switch
func (m *Metrics) ChainSwitched(chainName string) {
	if m == nil {
		return
	}
	m.switches.WithLabelValues(chainName).Inc()
}
