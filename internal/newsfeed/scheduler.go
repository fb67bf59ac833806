package newsfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/paddock-hq/paddock-news/internal/logger"
)

// Refresher is the unit of work the scheduler repeats.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler repeats a refresh on a fixed interval.
type Scheduler struct {
	target   Refresher
	interval time.Duration
	log      logger.Logger
}

// NewScheduler builds a scheduler. Intervals are rounded to whole seconds by cron.
func NewScheduler(target Refresher, interval time.Duration, log logger.Logger) (*Scheduler, error) {
	if target == nil {
		return nil, fmt.Errorf("scheduler requires a refresh target")
	}
	if interval < time.Second {
		return nil, fmt.Errorf("refresh interval must be at least one second, got %s", interval)
	}
	return &Scheduler{target: target, interval: interval, log: logger.Ensure(log)}, nil
}

// Handle controls a started schedule.
type Handle struct {
	cron   *cron.Cron
	cancel context.CancelFunc
	once   sync.Once
}

// Start runs one refresh immediately, then one per interval until Stop is
// called or ctx is cancelled. A refresh still running when the next tick fires
// causes that tick to be skipped.
func (s *Scheduler) Start(ctx context.Context) *Handle {
	runCtx, cancel := context.WithCancel(ctx)
	cronLog := cronLogger{log: s.log}

	job := cron.NewChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	).Then(cron.FuncJob(func() { s.runOnce(runCtx) }))

	c := cron.New(cron.WithLogger(cronLog))
	c.Schedule(cron.Every(s.interval), job)

	job.Run()
	c.Start()

	s.log.InfoObj("feed refresh scheduled", "schedule", map[string]any{
		"interval": s.interval.String(),
	})

	h := &Handle{cron: c, cancel: cancel}
	go func() {
		<-runCtx.Done()
		h.Stop()
	}()
	return h
}

// Stop cancels the schedule and waits for a running refresh to return.
func (h *Handle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.cancel()
		<-h.cron.Stop().Done()
	})
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runID := uuid.NewString()
	start := time.Now()
	s.log.DebugObj("feed refresh started", "refresh_meta", map[string]any{
		"run_id":     runID,
		"started_at": start.UTC(),
	})
	if err := s.target.Refresh(ctx); err != nil {
		s.log.WarnObj("feed refresh failed", "refresh_meta", map[string]any{
			"run_id": runID,
			"error":  err.Error(),
		})
		return
	}
	s.log.DebugObj("feed refresh completed", "refresh_meta", map[string]any{
		"run_id":     runID,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.DebugObj("cron: "+msg, "cron", keysAndValues)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.ErrorObj("cron: "+msg, "cron", map[string]any{
		"error":  err.Error(),
		"fields": keysAndValues,
	})
}
