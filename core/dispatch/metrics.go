package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	decisionsTotal *prometheus.CounterVec
	assignDuration *prometheus.HistogramVec
	fallbackTotal  prometheus.Counter
	serviceMode    prometheus.Gauge
	breakerState   *prometheus.GaugeVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Counter, prometheus.Gauge, *prometheus.GaugeVec) {
	dec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignment_decisions_total",
			Help: "Number of assignment decisions produced",
		},
		[]string{"algorithm", "outcome"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assignment_duration_seconds",
			Help:    "Processing duration of assignment requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"algorithm"},
	)
	fb := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assignment_fallback_total",
			Help: "Number of decisions produced from fallback data",
		},
	)
	mode := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "service_mode",
			Help: "Current service mode (0=full 1=degraded 2=minimal 3=emergency)",
		},
	)
	brk := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state per dependency (0=closed 1=open 2=half_open)",
		},
		[]string{"dependency"},
	)
	return dec, dur, fb, mode, brk
}

func init() {
	decisionsTotal, assignDuration, fallbackTotal, serviceMode, breakerState = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(decisionsTotal, assignDuration, fallbackTotal, serviceMode, breakerState)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	decisionsTotal, assignDuration, fallbackTotal, serviceMode, breakerState = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
