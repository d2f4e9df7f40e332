package worker

import (
	"context"
	"log/slog"
	"time"

	"posnotif/internal/domain"
	"posnotif/internal/observability"
)

const interruptedError = "dispatch interrupted"

type SweepStore interface {
	ListUnclaimed(ctx context.Context, olderThan time.Time, limit int) ([]string, error)
	// FailStaleClaims moves queued entries claimed before claimedBefore to
	// failed and returns their ids.
	FailStaleClaims(ctx context.Context, claimedBefore time.Time, lastErr string, now time.Time, limit int) ([]string, error)
}

// Sweeper dispatches entries whose creation signal never reached the worker,
// and fails entries whose claimed attempt never recorded an outcome.
type Sweeper struct {
	Store      SweepStore
	Dispatcher *Dispatcher
	Interval   time.Duration
	Grace      time.Duration
	BatchSize  int
	// StaleAfter defaults to a multiple of the dispatcher's send timeout.
	StaleAfter time.Duration
}

func (s *Sweeper) Run(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := time.Now().UTC()
			if n, err := s.ReapStale(ctx, now); err != nil {
				slog.Error("stale claim reap failed", "err", err)
			} else if n > 0 {
				slog.Warn("queue sweep failed interrupted entries", "count", n)
			}
			if n, err := s.SweepOnce(ctx, now); err != nil {
				slog.Error("queue sweep failed", "err", err)
			} else if n > 0 {
				slog.Info("queue sweep dispatched entries", "count", n)
			}
		}
	}
}

func (s *Sweeper) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	grace := s.Grace
	if grace <= 0 {
		grace = time.Minute
	}
	ids, err := s.Store.ListUnclaimed(ctx, now.Add(-grace), s.limit())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if err := s.Dispatcher.Dispatch(ctx, id); err != nil {
			slog.Error("sweep dispatch failed", "err", err, "entry_id", id)
			continue
		}
		n++
	}
	return n, nil
}

// ReapStale fails entries that were claimed but never finished, e.g. when the
// worker died mid-send. They are not sent again: the gateway may already have
// delivered them.
func (s *Sweeper) ReapStale(ctx context.Context, now time.Time) (int, error) {
	after := s.StaleAfter
	if after <= 0 {
		after = s.Dispatcher.staleAfter()
	}
	ids, err := s.Store.FailStaleClaims(ctx, now.Add(-after), interruptedError, now, s.limit())
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		slog.Error("queue entry failed", "entry_id", id, "reason", "interrupted", "err", interruptedError)
		observability.Dispatches.WithLabelValues(string(domain.QueueFailed), "interrupted").Inc()
	}
	return len(ids), nil
}

func (s *Sweeper) limit() int {
	if s.BatchSize <= 0 {
		return 50
	}
	return s.BatchSize
}
