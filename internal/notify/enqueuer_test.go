package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"posnotif/internal/domain"
	sqsqueue "posnotif/internal/queue/sqs"
	"posnotif/internal/store"
)

type fakeStore struct {
	inserted []store.QueueInsert
	err      error
}

func (f *fakeStore) InsertQueueEntry(ctx context.Context, in store.QueueInsert) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, in)
	return nil
}

type fakeSignaler struct {
	sigs []sqsqueue.EntrySignal
	err  error
}

func (f *fakeSignaler) Publish(ctx context.Context, sig sqsqueue.EntrySignal) error {
	f.sigs = append(f.sigs, sig)
	return f.err
}

func newEnqueuer(st *fakeStore, sg *fakeSignaler) *Enqueuer {
	n := 0
	e := &Enqueuer{
		Store: st,
		IDGen: func() string { n++; return "wq_" + string(rune('0'+n)) },
		Now:   func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	if sg != nil {
		e.Signaler = sg
	}
	return e
}

func TestEnqueueDefaultsToPlatformScope(t *testing.T) {
	st, sg := &fakeStore{}, &fakeSignaler{}
	id, err := newEnqueuer(st, sg).Enqueue(context.Background(), domain.NewEntry{To: "62812", Message: "hi"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if id != "wq_1" || len(st.inserted) != 1 || st.inserted[0].Scope != domain.ScopePlatform {
		t.Fatalf("unexpected insert: id=%q rows=%#v", id, st.inserted)
	}
	if len(sg.sigs) != 1 || sg.sigs[0].EntryID != "wq_1" {
		t.Fatalf("expected one signal, got %#v", sg.sigs)
	}
}

func TestEnqueueRejectsEmptyMessage(t *testing.T) {
	st := &fakeStore{}
	_, err := newEnqueuer(st, nil).Enqueue(context.Background(), domain.NewEntry{To: "62812", Message: "  "})
	if !errors.Is(err, domain.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	if len(st.inserted) != 0 {
		t.Fatalf("nothing should be inserted")
	}
}

func TestEnqueueSignalFailureKeepsEntry(t *testing.T) {
	st, sg := &fakeStore{}, &fakeSignaler{err: errors.New("sqs down")}
	id, err := newEnqueuer(st, sg).Enqueue(context.Background(), domain.NewEntry{To: "62812", Message: "hi", Scope: "store-1"})
	if err != nil || id == "" {
		t.Fatalf("signal failure must not fail enqueue: id=%q err=%v", id, err)
	}
	if len(st.inserted) != 1 || st.inserted[0].Scope != "store-1" {
		t.Fatalf("entry should be persisted: %#v", st.inserted)
	}
}

func TestEnqueueAllCountsSuccesses(t *testing.T) {
	st := &fakeStore{}
	n := newEnqueuer(st, nil).EnqueueAll(context.Background(),
		domain.NewEntry{To: "a", Message: "1"},
		domain.NewEntry{To: "", Message: "2"},
		domain.NewEntry{To: "c", Message: "3"},
	)
	if n != 2 || len(st.inserted) != 2 {
		t.Fatalf("expected 2 enqueued, got n=%d rows=%d", n, len(st.inserted))
	}
}
