package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMustRegisterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	defer ResetMetrics(nil)

	decisionsTotal.WithLabelValues("greedy", "assigned").Inc()
	serviceMode.Set(1)
	breakerState.WithLabelValues("ticket-data").Set(2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, mf := range mfs {
		found[mf.GetName()] = true
	}
	for _, name := range []string{"assignment_decisions_total", "service_mode", "circuit_breaker_state"} {
		if !found[name] {
			t.Fatalf("metric %s not registered", name)
		}
	}
}
