package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nightowl-sec/vantage/pkg/utils"
)

// TickFunc is one refresh cycle. Errors are reported, not fatal: the loop
// keeps its cadence and the view keeps its previous state.
type TickFunc func(ctx context.Context) error

// Scheduler re-runs a refresh pipeline at a fixed interval while a view is
// active. Ticks run synchronously in the loop, so a slow cycle delays the
// next one instead of piling up concurrent fetches. Stop halts future
// ticks; an in-flight request is only cancelled through the context.
type Scheduler struct {
	view     string
	interval time.Duration
	tick     TickFunc
	logger   *logrus.Logger
	metrics  *utils.MetricsCollector

	mu           sync.Mutex
	shutdownChan chan struct{}
	running      bool
}

func NewScheduler(view string, interval time.Duration, tick TickFunc, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scheduler{
		view:         view,
		interval:     interval,
		tick:         tick,
		logger:       logger,
		shutdownChan: make(chan struct{}),
	}
}

func (s *Scheduler) SetMetrics(m *utils.MetricsCollector) {
	s.metrics = m
}

// Run executes one immediate cycle, then one per interval until Stop or
// context cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler for %s view is already running", s.view)
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Infof("Starting %s poll loop (interval %s)", s.view, s.interval)
	if s.metrics != nil {
		s.metrics.SetPollAlive(s.view, true)
		defer s.metrics.SetPollAlive(s.view, false)
	}

	s.runTick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runTick(ctx)
		case <-s.shutdownChan:
			s.logger.Infof("%s poll loop stopped", s.view)
			return nil
		case <-ctx.Done():
			s.logger.Infof("%s poll loop stopped: %v", s.view, ctx.Err())
			return ctx.Err()
		}
	}
}

// Stop prevents any further ticks. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		close(s.shutdownChan)
		s.running = false
	}
}

func (s *Scheduler) runTick(ctx context.Context) {
	outcome := "ok"
	if err := s.tick(ctx); err != nil {
		outcome = "error"
		s.logger.Warnf("%s refresh failed, keeping previous state: %v", s.view, err)
	}
	if s.metrics != nil {
		s.metrics.CountPollCycle(s.view, outcome)
	}
}
