package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"posnotif/internal/domain"
	"posnotif/internal/store"
)

const topUpColumns = `id, store_id, store_name, user_id, amount, status, COALESCE(proof_of_payment,''),
	requested_at, decided_at, COALESCE(decided_by,'')`

func (s *Store) InsertTopUpRequest(ctx context.Context, in store.TopUpInsert) (domain.TopUpRequest, error) {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO topup_requests (id, store_id, store_name, user_id, amount, status, proof_of_payment, requested_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, in.ID, in.StoreID, in.StoreName, in.UserID, in.Amount, string(domain.TopUpPending), nullIfEmpty(in.ProofOfPayment), in.Now)
	if err != nil {
		return domain.TopUpRequest{}, missingParent(err)
	}
	return domain.TopUpRequest{
		ID:             in.ID,
		StoreID:        in.StoreID,
		StoreName:      in.StoreName,
		UserID:         in.UserID,
		Amount:         in.Amount,
		Status:         domain.TopUpPending,
		ProofOfPayment: in.ProofOfPayment,
		RequestedAt:    in.Now,
	}, nil
}

func (s *Store) GetTopUpRequest(ctx context.Context, id string) (domain.TopUpRequest, error) {
	r, err := scanTopUp(s.DB.QueryRow(ctx, `SELECT `+topUpColumns+` FROM topup_requests WHERE id=$1`, id))
	if err != nil {
		return domain.TopUpRequest{}, notFound(err)
	}
	return r, nil
}

func (s *Store) ListTopUpRequests(ctx context.Context, f store.TopUpFilter) ([]domain.TopUpRequest, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.DB.Query(ctx, `
		SELECT `+topUpColumns+` FROM topup_requests
		WHERE ($1 = '' OR status = $1)
		ORDER BY requested_at DESC LIMIT $2
	`, string(f.Status), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TopUpRequest
	for rows.Next() {
		r, err := scanTopUp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DecideTopUp locks the request row, checks it is still pending and matches
// the decision, then writes status, balance and ledger in one commit.
func (s *Store) DecideTopUp(ctx context.Context, in store.TopUpDecision) (domain.DecisionResult, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return domain.DecisionResult{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	req, err := scanTopUp(tx.QueryRow(ctx, `SELECT `+topUpColumns+` FROM topup_requests WHERE id=$1 FOR UPDATE`, in.RequestID))
	if err != nil {
		return domain.DecisionResult{}, notFound(err)
	}
	if req.Status != domain.TopUpPending {
		return domain.DecisionResult{Request: req}, domain.ErrAlreadyDecided
	}
	if req.StoreID != in.StoreID || req.UserID != in.UserID || req.Amount != in.Amount {
		return domain.DecisionResult{Request: req}, domain.ErrRequestMismatch
	}

	if _, err := tx.Exec(ctx, `
		UPDATE topup_requests SET status=$2, decided_at=$3, decided_by=$4 WHERE id=$1
	`, in.RequestID, string(in.Status), in.Now, nullIfEmpty(in.DecidedBy)); err != nil {
		return domain.DecisionResult{}, fmt.Errorf("update request status: %w", err)
	}

	var balance int64
	if in.Status == domain.TopUpApproved {
		if err := tx.QueryRow(ctx, `
			UPDATE stores SET token_balance = token_balance + $2 WHERE id=$1 RETURNING token_balance
		`, in.StoreID, in.Amount).Scan(&balance); err != nil {
			return domain.DecisionResult{}, fmt.Errorf("increment store balance: %w", notFound(err))
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO transactions (id, store_id, type, amount, description, reference_id, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, in.TransactionID, in.StoreID, string(domain.TxTopUp), in.Amount, in.Description, in.RequestID, in.Now); err != nil {
			return domain.DecisionResult{}, fmt.Errorf("append ledger entry: %w", err)
		}
	} else if err := tx.QueryRow(ctx, `SELECT token_balance FROM stores WHERE id=$1`, in.StoreID).Scan(&balance); err != nil {
		return domain.DecisionResult{}, fmt.Errorf("read store balance: %w", notFound(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.DecisionResult{}, err
	}

	now := in.Now
	req.Status = in.Status
	req.DecidedAt = &now
	req.DecidedBy = in.DecidedBy
	return domain.DecisionResult{Request: req, NewBalance: balance}, nil
}

func (s *Store) AdjustBalance(ctx context.Context, in store.BalanceAdjustment) (int64, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var balance int64
	if err := tx.QueryRow(ctx, `
		UPDATE stores SET token_balance = token_balance + $2 WHERE id=$1 RETURNING token_balance
	`, in.StoreID, in.Delta).Scan(&balance); err != nil {
		return 0, notFound(err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO transactions (id, store_id, type, amount, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, in.TransactionID, in.StoreID, string(domain.TxAdjustment), in.Delta, in.Description, in.Now); err != nil {
		return 0, fmt.Errorf("append ledger entry: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return balance, nil
}

func scanTopUp(row pgx.Row) (domain.TopUpRequest, error) {
	var r domain.TopUpRequest
	var status string
	err := row.Scan(&r.ID, &r.StoreID, &r.StoreName, &r.UserID, &r.Amount, &status, &r.ProofOfPayment,
		&r.RequestedAt, &r.DecidedAt, &r.DecidedBy)
	r.Status = domain.TopUpStatus(status)
	return r, err
}
