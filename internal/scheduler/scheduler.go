// Package scheduler drives the recurring multi-persona cycles.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/moltbook/moltbot/internal/journal"
	"github.com/moltbook/moltbot/internal/persona"
	"github.com/moltbook/moltbot/internal/runner"
	"github.com/moltbook/moltbot/internal/telemetry"
)

// CycleRunner executes one persona's work cycle.
type CycleRunner interface {
	Run(ctx context.Context, prof persona.Profile) (runner.State, error)
}

// Options tunes the scheduling behavior.
type Options struct {
	// CronSpec is a standard five-field cron expression.
	CronSpec string
	// Cooldown is the pause between consecutive personas in a cycle.
	Cooldown time.Duration
	// RunOnStart fires one cycle immediately when Start is called.
	RunOnStart bool
}

// Scheduler runs every persona in sequence on a cron cadence. Cycles
// never overlap: a firing that arrives while one is in progress is
// dropped, not queued.
type Scheduler struct {
	runner   CycleRunner
	profiles []persona.Profile
	journal  *journal.Writer
	sync     func() error
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	opts     Options

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a scheduler. syncFn, run after every cycle, may be nil;
// its errors are logged and swallowed so a failed sync never poisons
// the cadence.
func New(r CycleRunner, profiles []persona.Profile, j *journal.Writer, syncFn func() error,
	logger *slog.Logger, metrics *telemetry.Metrics, opts Options) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   r,
		profiles: profiles,
		journal:  j,
		sync:     syncFn,
		logger:   logger,
		metrics:  metrics,
		opts:     opts,
	}
}

// Start validates and registers the cron entry and blocks until ctx is
// canceled. With RunOnStart set, one cycle fires before the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := cron.ParseStandard(s.opts.CronSpec); err != nil {
		return fmt.Errorf("scheduler: invalid cron spec %q: %w", s.opts.CronSpec, err)
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.opts.CronSpec, func() { s.RunCycle(ctx) }); err != nil {
		return fmt.Errorf("scheduler: register cron: %w", err)
	}

	s.logger.Info("scheduler started",
		"cron", s.opts.CronSpec,
		"personas", persona.Names(s.profiles),
		"cooldown", s.opts.Cooldown)

	if s.opts.RunOnStart {
		s.RunCycle(ctx)
	}

	s.cron.Start()
	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	return ctx.Err()
}

// RunCycle executes one full cycle: every persona in order, a cooldown
// between them, then the stats sync. Safe to call concurrently; at
// most one cycle runs at a time and extra callers return immediately.
func (s *Scheduler) RunCycle(ctx context.Context) {
	if !s.mu.TryLock() {
		s.logger.Warn("cycle trigger skipped, previous cycle still running")
		s.journal.Record(journal.KindScheduler, "上一轮仍在执行，本次触发跳过")
		if s.metrics != nil {
			s.metrics.ObserveSkippedCycle()
		}
		return
	}
	defer s.mu.Unlock()

	cycleID := telemetry.NewCycleID()
	ctx = telemetry.WithCycleID(ctx, cycleID)
	logger := s.logger.With("cycle_id", cycleID)
	start := time.Now()

	logger.Info("cycle starting", "personas", len(s.profiles))
	s.journal.Record(journal.KindScheduler,
		fmt.Sprintf("%s %d 个Bot", journal.CycleStartMarker, len(s.profiles)))

	for i, prof := range s.profiles {
		if ctx.Err() != nil {
			logger.Info("cycle interrupted", "completed", i)
			break
		}
		state, err := s.runner.Run(ctx, prof)
		if s.metrics != nil {
			s.metrics.PersonaRunsTotal.WithLabelValues(prof.Name, string(state)).Inc()
		}
		if err != nil {
			// One broken persona must not take the rest of the cycle
			// down with it.
			logger.Error("persona run failed", "persona", prof.Name, "state", string(state), "error", err)
		} else {
			logger.Info("persona run finished", "persona", prof.Name, "state", string(state))
		}
		if i < len(s.profiles)-1 {
			s.pause(ctx)
		}
	}

	s.journal.Record(journal.KindScheduler, "全部Bot"+journal.CycleDoneMarker)

	if s.sync != nil {
		if err := s.sync(); err != nil {
			logger.Warn("stats sync failed", "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveCycle(time.Since(start))
	}
	logger.Info("cycle finished", "duration", time.Since(start))
}

func (s *Scheduler) pause(ctx context.Context) {
	if s.opts.Cooldown <= 0 {
		return
	}
	t := time.NewTimer(s.opts.Cooldown)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ReportJob runs a callback on its own cron cadence, used for the
// daily report. Errors from the callback are logged and swallowed.
type ReportJob struct {
	spec   string
	run    func(ctx context.Context) error
	logger *slog.Logger
}

// NewReportJob creates a report job on the given cron spec.
func NewReportJob(spec string, run func(ctx context.Context) error, logger *slog.Logger) *ReportJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportJob{spec: spec, run: run, logger: logger}
}

// Start registers the cron entry and blocks until ctx is canceled.
func (j *ReportJob) Start(ctx context.Context) error {
	if _, err := cron.ParseStandard(j.spec); err != nil {
		return fmt.Errorf("scheduler: invalid report cron spec %q: %w", j.spec, err)
	}
	c := cron.New()
	if _, err := c.AddFunc(j.spec, func() {
		if err := j.run(ctx); err != nil {
			j.logger.Error("report job failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduler: register report cron: %w", err)
	}
	j.logger.Info("report job scheduled", "cron", j.spec)
	c.Start()
	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return ctx.Err()
}
