// Package metrics defines the sink abstraction used to record assignment
// decisions. Implementations live under infra/metrics.
package metrics

import "time"

// DecisionRecord is the flattened form of an assignment decision as emitted
// to metrics backends.
type DecisionRecord struct {
	DecisionID     string
	TicketID       string
	ExecutorID     string
	Algorithm      string
	Score          float64
	FallbackUsed   bool
	BudgetExceeded bool
	Duration       time.Duration
	DecidedAt      time.Time
}

// DecisionSink receives decision records. Recording is best effort: the
// facade logs sink errors and never lets them affect the decision returned to
// the caller.
type DecisionSink interface {
	RecordDecisions(recs []DecisionRecord) error
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordDecisions([]DecisionRecord) error { return nil }

// Config selects and configures the metrics backends.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    int    `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
