package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"TradeRobot/internal/collector"
	"TradeRobot/internal/logger"
	"TradeRobot/internal/metrics"
	"TradeRobot/internal/model"
	"TradeRobot/internal/notifier"
	"TradeRobot/internal/render"
	"TradeRobot/internal/strategy"
)

// ErrCycleInProgress is returned when a cycle is triggered while another runs.
var ErrCycleInProgress = errors.New("evaluation cycle already in progress")

// FailureNotifier is told about failed cycles.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, symbol string, err error) error
}

// Scheduler drives the refresh, evaluate and present loop.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Presenters []render.Presenter
	Metrics    *metrics.Recorder
	Failures   FailureNotifier
	Ctx        context.Context

	running sync.Mutex
	mu      sync.RWMutex
	last    *model.Report
	now     func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rec *metrics.Recorder, presenters ...render.Presenter) *Scheduler {
	cl := logger.Cron()
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Collector:  col,
		Presenters: presenters,
		Metrics:    rec,
		Ctx:        ctx,
		now:        time.Now,
	}
}

// RegisterRefresh schedules RunCycle on the given cron spec.
func (s *Scheduler) RegisterRefresh(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() {
		if _, err := s.RunCycle(s.Ctx); err != nil && !errors.Is(err, ErrCycleInProgress) {
			log.Debug().Err(err).Msg("scheduled cycle failed")
		}
	}); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// Bootstrap loads the initial series without evaluating it.
func (s *Scheduler) Bootstrap(ctx context.Context) error {
	if err := s.Collector.Bootstrap(ctx); err != nil {
		s.recordFetchError(err)
		return err
	}
	return nil
}

// Last returns the report of the most recent successful cycle, or nil.
func (s *Scheduler) Last() *model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// RunCycle refreshes the series, evaluates it and hands the report to every
// presenter. A failed cycle leaves Last unchanged and calls no presenter.
func (s *Scheduler) RunCycle(ctx context.Context) (*model.Report, error) {
	if !s.running.TryLock() {
		s.Metrics.RecordSkipped()
		log.Warn().Msg("cycle skipped, previous one still running")
		return nil, ErrCycleInProgress
	}
	defer s.running.Unlock()

	started := time.Now()
	defer func() { s.Metrics.ObserveCycle(time.Since(started).Seconds()) }()

	symbol := s.Collector.Symbol()
	if err := s.refresh(ctx); err != nil {
		s.fail(ctx, symbol, err)
		return nil, err
	}

	bars := s.Collector.Store.Bars()
	ev, err := strategy.Evaluate(bars)
	if err != nil {
		err = fmt.Errorf("evaluate %s: %w", symbol, err)
		s.fail(ctx, symbol, err)
		return nil, err
	}

	report := &model.Report{
		Symbol:      symbol,
		Bars:        bars,
		Evaluation:  *ev,
		GeneratedAt: s.now(),
	}
	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	s.Metrics.RecordEvaluation(symbol, len(bars), ev)
	log.Info().Str("symbol", symbol).Float64("price", ev.Price).Str("trend", string(ev.Trend)).
		Float64("baseline", ev.Baseline).Str("decision", string(ev.Decision)).Msg("cycle complete")

	for _, p := range s.Presenters {
		if err := p.Present(ctx, report); err != nil {
			log.Error().Err(err).Str("presenter", p.Name()).Msg("present report")
		}
	}
	return report, nil
}

// refresh bootstraps an empty store, otherwise pulls the newest bars.
func (s *Scheduler) refresh(ctx context.Context) error {
	var err error
	if s.Collector.Store.Len() == 0 {
		err = s.Collector.Bootstrap(ctx)
	} else {
		_, err = s.Collector.Refresh(ctx)
	}
	if err != nil {
		s.recordFetchError(err)
	}
	return err
}

func (s *Scheduler) recordFetchError(err error) {
	s.Metrics.RecordFetchError(s.Collector.Fetcher.Name(), collector.ErrorKind(err))
}

func (s *Scheduler) fail(ctx context.Context, symbol string, err error) {
	s.Metrics.RecordFailure()
	log.Error().Err(err).Str("symbol", symbol).Msg("cycle failed")
	if s.Failures == nil || ctx.Err() != nil {
		return
	}
	if nerr := s.Failures.NotifyFailure(ctx, symbol, err); nerr != nil {
		log.Error().Err(nerr).Msg("send failure notification")
	}
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText()
	}
	// "/decision@SomeBot" in group chats
	cmd, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch cmd {
	case "/decision":
		report := s.Last()
		if report == nil {
			return "No decision yet, the first evaluation has not completed."
		}
		return notifier.FormatDecisionReport(report)
	case "/refresh":
		report, err := s.RunCycle(ctx)
		if errors.Is(err, ErrCycleInProgress) {
			return "An evaluation is already running, try again shortly."
		}
		if err != nil {
			return notifier.FormatFailure(s.Collector.Symbol(), err, s.now())
		}
		return notifier.FormatDecisionReport(report)
	default:
		return notifier.HelpText()
	}
}
