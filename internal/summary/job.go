package summary

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"posnotif/internal/domain"
	"posnotif/internal/observability"
	"posnotif/internal/store"
	"posnotif/internal/templates"
	"posnotif/internal/util"
)

const (
	DefaultSchedule = "0 8 * * *"
	DefaultTimezone = "Asia/Jakarta"

	source = "daily_summary"
)

type Store interface {
	ListStores(ctx context.Context) ([]domain.Store, error)
	GetUsers(ctx context.Context, userIDs []string) ([]domain.User, error)
	SummarizeSales(ctx context.Context, w store.SummaryWindow) (revenue, count int64, err error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, in domain.NewEntry) (string, error)
}

// Job sends each store's admins a summary of yesterday's sales.
type Job struct {
	Store       Store
	Enqueuer    Enqueuer
	Location    *time.Location
	Concurrency int
}

type RunStats struct {
	Stores   int
	Skipped  int
	Failed   int
	Enqueued int64
}

// RunOnce processes every store independently. A failing store is logged and
// counted; it never stops the others.
func (j *Job) RunOnce(ctx context.Context, now time.Time) (RunStats, error) {
	stores, err := j.Store.ListStores(ctx)
	if err != nil {
		return RunStats{}, fmt.Errorf("list stores: %w", err)
	}
	from, to := Yesterday(now, j.location())

	var skipped, failed, enqueued atomic.Int64
	var g errgroup.Group
	limit := j.Concurrency
	if limit <= 0 {
		limit = 8
	}
	g.SetLimit(limit)

	for _, st := range stores {
		st := st
		g.Go(func() error {
			n, err := j.runStore(ctx, st, from, to)
			switch {
			case err != nil:
				failed.Add(1)
				observability.SummaryStores.WithLabelValues("error").Inc()
				slog.Error("daily summary failed for store", "err", err, "store_id", st.ID)
			case n < 0:
				skipped.Add(1)
				observability.SummaryStores.WithLabelValues("skipped").Inc()
			default:
				enqueued.Add(int64(n))
				observability.SummaryStores.WithLabelValues("ok").Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	stats := RunStats{
		Stores:   len(stores),
		Skipped:  int(skipped.Load()),
		Failed:   int(failed.Load()),
		Enqueued: enqueued.Load(),
	}
	slog.Info("daily summary run finished", "day", util.FormatDateID(from), "stores", stats.Stores,
		"skipped", stats.Skipped, "failed", stats.Failed, "enqueued", stats.Enqueued)
	return stats, nil
}

// runStore returns the number of entries enqueued, or -1 when the store is skipped.
func (j *Job) runStore(ctx context.Context, st domain.Store, from, to time.Time) (int, error) {
	if !st.DailySummaryEnabled || len(st.AdminUIDs) == 0 {
		return -1, nil
	}

	revenue, count, err := j.Store.SummarizeSales(ctx, store.SummaryWindow{StoreID: st.ID, From: from, To: to})
	if err != nil {
		return 0, fmt.Errorf("summarize sales: %w", err)
	}
	admins, err := j.Store.GetUsers(ctx, st.AdminUIDs)
	if err != nil {
		return 0, fmt.Errorf("load admins: %w", err)
	}

	msg := templates.DailySummary(st.Name, from, revenue, count)
	n := 0
	for _, admin := range admins {
		to := util.NormalizePhone(admin.WhatsApp)
		if to == "" {
			continue
		}
		if _, err := j.Enqueuer.Enqueue(ctx, domain.NewEntry{
			To:      to,
			Message: msg,
			Scope:   st.ID,
			Source:  source,
		}); err != nil {
			slog.Error("daily summary enqueue failed", "err", err, "store_id", st.ID, "user_id", admin.ID)
			continue
		}
		n++
	}
	return n, nil
}

// Start runs the job on schedule until ctx is done.
func (j *Job) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	c := cron.New(cron.WithLocation(j.location()))
	if _, err := c.AddFunc(schedule, func() {
		if _, err := j.RunOnce(ctx, time.Now()); err != nil {
			slog.Error("daily summary run failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", schedule, err)
	}

	c.Start()
	slog.Info("daily summary scheduled", "schedule", schedule, "timezone", j.location().String())
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

func (j *Job) location() *time.Location {
	if j.Location != nil {
		return j.Location
	}
	return time.UTC
}

// Yesterday returns the half-open window [start of yesterday, start of today) in loc.
func Yesterday(now time.Time, loc *time.Location) (from, to time.Time) {
	local := now.In(loc)
	to = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	from = to.AddDate(0, 0, -1)
	return from, to
}
