package notify

import (
	"context"
	"log/slog"
	"time"

	"posnotif/internal/domain"
	"posnotif/internal/observability"
	sqsqueue "posnotif/internal/queue/sqs"
	"posnotif/internal/store"
	"posnotif/internal/util"
)

type Store interface {
	InsertQueueEntry(ctx context.Context, in store.QueueInsert) error
}

type Signaler interface {
	Publish(ctx context.Context, sig sqsqueue.EntrySignal) error
}

// Enqueuer persists queue entries and signals the dispatcher. The row is the
// durable record; a lost signal is recovered by the dispatcher's sweeper.
type Enqueuer struct {
	Store    Store
	Signaler Signaler
	IDGen    func() string
	Now      func() time.Time
}

func (e *Enqueuer) Enqueue(ctx context.Context, in domain.NewEntry) (string, error) {
	if err := in.Validate(); err != nil {
		observability.Enqueues.WithLabelValues(in.Source, "invalid").Inc()
		return "", err
	}
	idGen := e.IDGen
	if idGen == nil {
		idGen = util.NewQueueEntryID
	}
	now := util.NowUTC
	if e.Now != nil {
		now = e.Now
	}
	scope := in.Scope
	if scope == "" {
		scope = domain.ScopePlatform
	}

	id := idGen()
	if err := e.Store.InsertQueueEntry(ctx, store.QueueInsert{
		ID:      id,
		To:      in.To,
		Message: in.Message,
		IsGroup: in.IsGroup,
		Scope:   scope,
		Source:  in.Source,
		Now:     now(),
	}); err != nil {
		observability.Enqueues.WithLabelValues(in.Source, "error").Inc()
		return "", err
	}
	observability.Enqueues.WithLabelValues(in.Source, "ok").Inc()

	if e.Signaler != nil {
		if err := e.Signaler.Publish(ctx, sqsqueue.EntrySignal{EntryID: id, Scope: scope}); err != nil {
			slog.Warn("queue signal publish failed, sweeper will pick it up", "err", err, "entry_id", id)
		}
	}
	return id, nil
}

// EnqueueAll enqueues each entry independently and logs failures. It is meant
// for notification paths that must not fail their caller.
func (e *Enqueuer) EnqueueAll(ctx context.Context, entries ...domain.NewEntry) int {
	n := 0
	for _, in := range entries {
		if _, err := e.Enqueue(ctx, in); err != nil {
			slog.Error("enqueue notification failed", "err", err, "source", in.Source, "scope", in.Scope)
			continue
		}
		n++
	}
	return n
}
