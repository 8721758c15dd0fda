package metrics

import coremetrics "github.com/fieldops/dispatch/core/metrics"

// MultiSink fans decision records out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.DecisionSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.DecisionSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordDecisions forwards the records to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordDecisions(recs []coremetrics.DecisionRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordDecisions(recs); err != nil {
			return err
		}
	}
	return nil
}
