package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TobiSchelling/feedboard/internal/pipeline"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
	block chan struct{}
}

func (r *countingRunner) Run(ctx context.Context) (*pipeline.Result, error) {
	r.calls.Add(1)
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return &pipeline.Result{UpdatedAt: "2026-02-19T12:00:00.000Z"}, nil
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	if _, err := New("every now and then", &countingRunner{}); err == nil {
		t.Error("expected error for invalid cron spec")
	}
}

func TestNewAcceptsDescriptor(t *testing.T) {
	s, err := New("@every 15m", &countingRunner{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Start()
	s.Stop()
}

func TestRunOnce(t *testing.T) {
	r := &countingRunner{}
	s, err := New("*/5 * * * *", r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.RunOnce()
	if r.calls.Load() != 1 {
		t.Errorf("expected 1 run, got %d", r.calls.Load())
	}

	r.err = errors.New("snapshot missing")
	s.RunOnce()
	if r.calls.Load() != 2 {
		t.Errorf("expected failed run to still be attempted, got %d", r.calls.Load())
	}
}

func TestStopCancelsInFlightRun(t *testing.T) {
	r := &countingRunner{block: make(chan struct{})}
	s, err := New("@every 1h", r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.RunOnce()
		close(done)
	}()

	for r.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	s.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Stop to cancel the running refresh")
	}
}
