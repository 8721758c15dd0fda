package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/fieldops/dispatch/core/metrics"
)

// PromSink records assignment decisions in Prometheus metrics.
type PromSink struct {
	decisions *prometheus.CounterVec
	scores    *prometheus.HistogramVec
	duration  *prometheus.HistogramVec
}

// NewPromSink registers decision metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.DecisionSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.DecisionSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "decision_events_total",
		Help: "Total number of assignment decision events",
	}, []string{"algorithm", "assigned", "fallback_used"})
	scores := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "decision_score",
		Help:    "Final score of assignment decisions",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"algorithm"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "decision_duration_seconds",
		Help:    "Processing duration of assignment decisions",
		Buckets: prometheus.DefBuckets,
	}, []string{"algorithm"})

	if err := reg.Register(decisions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			decisions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(scores); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			scores = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{decisions: decisions, scores: scores, duration: duration}, nil
}

// RecordDecisions increments the counters for each decision.
func (s *PromSink) RecordDecisions(recs []coremetrics.DecisionRecord) error {
	for _, r := range recs {
		assigned := r.ExecutorID != "" && r.ExecutorID != "unassigned"
		s.decisions.WithLabelValues(r.Algorithm, strconv.FormatBool(assigned), strconv.FormatBool(r.FallbackUsed)).Inc()
		s.scores.WithLabelValues(r.Algorithm).Observe(r.Score)
		s.duration.WithLabelValues(r.Algorithm).Observe(r.Duration.Seconds())
	}
	return nil
}

// StartPromServer exposes the default registry over HTTP on the given port.
func StartPromServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}
