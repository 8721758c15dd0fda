package app

import (
	"context"
	"fmt"

	"github.com/fieldops/dispatch/config"
	"github.com/fieldops/dispatch/core/dispatch"
	"github.com/fieldops/dispatch/core/resilience"
	"github.com/fieldops/dispatch/core/score"
	"github.com/fieldops/dispatch/infra/logger"
	"github.com/fieldops/dispatch/infra/metrics"
	"github.com/fieldops/dispatch/infra/notify"
	"github.com/fieldops/dispatch/internal/eventbus"
)

// Service wires the assignment manager and its infrastructure.
type Service struct {
	Manager *dispatch.Manager
	Bus     *eventbus.Bus

	notifier *notify.MQTTNotifier
	log      logger.Logger
}

// New creates a Service from the configuration. The collaborators connect
// the manager to external systems; zero-value fields are allowed and the
// manager degrades around them.
func New(cfg *config.Config, collab dispatch.Collaborators) (*Service, error) {
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)
	logg := logger.New("service")

	scorer, err := score.NewScorer(cfg.Scoring, cfg.ZoneMap())
	if err != nil {
		return nil, fmt.Errorf("scorer: %w", err)
	}
	dispatcher := dispatch.NewBasicDispatcher(scorer)
	optimizer, err := dispatch.NewBatchOptimizer(cfg.Optimizer, scorer, logger.New("optimizer"), nil)
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}
	guard := resilience.NewGuard(cfg.Resilience, logger.New("guard"))

	sink, err := metrics.NewFromConfig(cfg.Metrics, logg)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	var notifier *notify.MQTTNotifier
	if collab.Notifier == nil && cfg.Notify.Broker != "" {
		notifier, err = notify.NewMQTTNotifier(cfg.Notify)
		if err != nil {
			return nil, fmt.Errorf("notifier: %w", err)
		}
		collab.Notifier = notifier
	}

	bus := eventbus.New()
	manager, err := dispatch.NewManager(dispatcher, optimizer, guard, collab, sink, bus, logger.New("manager"))
	if err != nil {
		return nil, fmt.Errorf("manager: %w", err)
	}

	return &Service{Manager: manager, Bus: bus, notifier: notifier, log: logg}, nil
}

// Run blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.log.Infof("assignment service running in %s mode", s.Manager.Mode())
	<-ctx.Done()
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.notifier != nil {
		s.notifier.Close()
	}
	s.Bus.Close()
	return nil
}
