package metrics

import (
	coremetrics "github.com/fieldops/dispatch/core/metrics"
	"github.com/fieldops/dispatch/infra/logger"
)

// NewFromConfig assembles the configured decision sinks. With nothing
// enabled a NopSink is returned.
func NewFromConfig(cfg coremetrics.Config, log logger.Logger) (coremetrics.DecisionSink, error) {
	var sinks []coremetrics.DecisionSink
	if cfg.PrometheusEnabled {
		sink, err := NewPromSink(cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
		go func() {
			if err := StartPromServer(cfg.PrometheusPort); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket))
	}
	switch len(sinks) {
	case 0:
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	default:
		return NewMultiSink(sinks...), nil
	}
}
