// Package poller runs the loan status sync on a fixed interval.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const defaultInterval = 30 * time.Second

// Syncer is the job the scheduler drives.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Scheduler triggers Syncer.Sync every interval. A run that is still going
// when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron     *cron.Cron
	syncer   Syncer
	interval time.Duration
	timeout  time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	// running guards against overlapping runs from cron and RunOnce.
	running sync.Mutex
}

// NewScheduler creates a Scheduler. If interval <= 0, defaultInterval is used.
// Each run is bounded by the interval itself.
func NewScheduler(interval time.Duration, syncer Syncer, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	clog := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		syncer:   syncer,
		interval: interval,
		timeout:  interval,
		log:      log,
	}
}

// Start registers the job and starts ticking. Runs stop when ctx is cancelled
// or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.RunOnce); err != nil {
		return fmt.Errorf("schedule sync: %w", err)
	}
	s.cron.Start()
	s.log.Info().Dur("interval", s.interval).Msg("status poller started")
	return nil
}

// RunOnce performs one sync immediately. It returns without syncing when
// another run is still in progress.
func (s *Scheduler) RunOnce() {
	if !s.running.TryLock() {
		s.log.Debug().Msg("sync already running, skipped")
		return
	}
	defer s.running.Unlock()

	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}
	if parent.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.syncer.Sync(ctx); err != nil {
		s.log.Debug().Err(err).Dur("elapsed", time.Since(start)).Msg("sync run failed")
		return
	}
	s.log.Debug().Dur("elapsed", time.Since(start)).Msg("sync run finished")
}

// Stop halts the ticker, cancels a running sync and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	s.log.Info().Msg("status poller stopped")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
