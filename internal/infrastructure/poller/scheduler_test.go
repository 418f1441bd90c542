package poller

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingSyncer struct {
	calls atomic.Int32
	err   error
}

func (c *countingSyncer) Sync(ctx context.Context) error {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("missing deadline")
	}
	return c.err
}

func TestScheduler_RunOnce(t *testing.T) {
	syncer := &countingSyncer{}
	s := NewScheduler(time.Minute, syncer, zerolog.Nop())

	s.RunOnce()
	s.RunOnce()

	if got := syncer.calls.Load(); got != 2 {
		t.Fatalf("expected 2 runs, got %d", got)
	}
}

func TestScheduler_RunOnceErrorIsSwallowed(t *testing.T) {
	syncer := &countingSyncer{err: errors.New("backend down")}
	s := NewScheduler(time.Minute, syncer, zerolog.Nop())

	s.RunOnce()

	if got := syncer.calls.Load(); got != 1 {
		t.Fatalf("expected 1 run, got %d", got)
	}
}

func TestScheduler_TicksUntilStopped(t *testing.T) {
	syncer := &countingSyncer{}
	s := NewScheduler(time.Second, syncer, zerolog.Nop())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for syncer.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	s.Stop()

	if syncer.calls.Load() == 0 {
		t.Fatalf("expected at least one scheduled run")
	}

	after := syncer.calls.Load()
	s.RunOnce()
	if syncer.calls.Load() != after {
		t.Fatalf("RunOnce after Stop should not sync")
	}
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	s := NewScheduler(0, &countingSyncer{}, zerolog.Nop())
	if s.interval != defaultInterval {
		t.Fatalf("expected default interval, got %s", s.interval)
	}
}

type blockingSyncer struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingSyncer) Sync(context.Context) error {
	if b.calls.Add(1) == 1 {
		close(b.started)
		<-b.release
	}
	return nil
}

func TestScheduler_RunOnceSkipsWhileRunning(t *testing.T) {
	syncer := &blockingSyncer{started: make(chan struct{}), release: make(chan struct{})}
	s := NewScheduler(time.Minute, syncer, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		s.RunOnce()
		close(done)
	}()
	<-syncer.started

	s.RunOnce()
	if got := syncer.calls.Load(); got != 1 {
		t.Fatalf("overlapping run should be skipped, got %d calls", got)
	}

	close(syncer.release)
	<-done

	s.RunOnce()
	if got := syncer.calls.Load(); got != 2 {
		t.Fatalf("expected a run after the first finished, got %d calls", got)
	}
}
