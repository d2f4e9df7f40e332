package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"posnotif/internal/domain"
	"posnotif/internal/store"
)

const queueColumns = `id, to_target, message, is_group, scope, status, COALESCE(source,''),
	created_at, sent_at, processed_at, COALESCE(last_error,'')`

func (s *Store) InsertQueueEntry(ctx context.Context, in store.QueueInsert) error {
	scope := in.Scope
	if scope == "" {
		scope = domain.ScopePlatform
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO notification_queue (id, to_target, message, is_group, scope, status, source, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, in.ID, in.To, in.Message, in.IsGroup, scope, string(domain.QueueQueued), nullIfEmpty(in.Source), in.Now)
	return err
}

func (s *Store) GetQueueEntry(ctx context.Context, id string) (domain.QueueEntry, error) {
	e, err := scanQueueEntry(s.DB.QueryRow(ctx, `SELECT `+queueColumns+` FROM notification_queue WHERE id=$1`, id))
	if err != nil {
		return domain.QueueEntry{}, notFound(err)
	}
	return e, nil
}

func (s *Store) ListQueueEntries(ctx context.Context, f store.QueueFilter) ([]domain.QueueEntry, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.DB.Query(ctx, `
		SELECT `+queueColumns+` FROM notification_queue
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC LIMIT $2
	`, string(f.Status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.QueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClaimQueueEntry takes the one dispatch attempt for an entry. It returns
// false when the entry is already claimed or no longer queued.
func (s *Store) ClaimQueueEntry(ctx context.Context, id string, now time.Time) (bool, error) {
	ct, err := s.DB.Exec(ctx, `
		UPDATE notification_queue SET claimed_at=$2
		WHERE id=$1 AND status='queued' AND claimed_at IS NULL
	`, id, now)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// FinishQueueEntry writes the terminal status. Entries that already left
// queued are not touched.
func (s *Store) FinishQueueEntry(ctx context.Context, in store.QueueResult) error {
	var sentAt any
	if in.Status == domain.QueueSent {
		sentAt = in.Now
	}
	_, err := s.DB.Exec(ctx, `
		UPDATE notification_queue
		SET status=$2, last_error=$3, sent_at=$4, processed_at=$5, claimed_at=COALESCE(claimed_at,$5)
		WHERE id=$1 AND status='queued'
	`, in.ID, string(in.Status), nullIfEmpty(in.LastError), sentAt, in.Now)
	return err
}

// ListUnclaimed returns queued entries nobody picked up before olderThan.
func (s *Store) ListUnclaimed(ctx context.Context, olderThan time.Time, limit int) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id FROM notification_queue
		WHERE status='queued' AND claimed_at IS NULL AND created_at < $1
		ORDER BY created_at LIMIT $2
	`, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// FailStaleClaims closes out queued entries whose claim is older than
// claimedBefore. Rows held by a worker that is still finishing are skipped.
func (s *Store) FailStaleClaims(ctx context.Context, claimedBefore time.Time, lastErr string, now time.Time, limit int) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
		UPDATE notification_queue
		SET status='failed', last_error=$2, processed_at=$3
		WHERE id IN (
			SELECT id FROM notification_queue
			WHERE status='queued' AND claimed_at IS NOT NULL AND claimed_at < $1
			ORDER BY claimed_at LIMIT $4
			FOR UPDATE SKIP LOCKED
		) AND status='queued'
		RETURNING id
	`, claimedBefore, lastErr, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanQueueEntry(row pgx.Row) (domain.QueueEntry, error) {
	var e domain.QueueEntry
	var status string
	err := row.Scan(&e.ID, &e.To, &e.Message, &e.IsGroup, &e.Scope, &status, &e.Source,
		&e.CreatedAt, &e.SentAt, &e.ProcessedAt, &e.Error)
	e.Status = domain.QueueStatus(status)
	return e, err
}
