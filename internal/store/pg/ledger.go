package pg

import (
	"context"

	"posnotif/internal/domain"
	"posnotif/internal/store"
)

func (s *Store) LedgerDrift(ctx context.Context, storeID string) (domain.LedgerDrift, error) {
	d := domain.LedgerDrift{StoreID: storeID}
	err := s.DB.QueryRow(ctx, `
		SELECT s.token_balance,
		       COALESCE((SELECT SUM(t.amount) FROM transactions t WHERE t.store_id = s.id), 0)::BIGINT
		FROM stores s WHERE s.id=$1
	`, storeID).Scan(&d.Balance, &d.LedgerSum)
	if err != nil {
		return domain.LedgerDrift{}, notFound(err)
	}
	d.Drift = d.Balance - d.LedgerSum
	return d, nil
}

// SummarizeSales sums pos sale value and counts pos transactions in [From, To).
func (s *Store) SummarizeSales(ctx context.Context, w store.SummaryWindow) (revenue, count int64, err error) {
	err = s.DB.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)::BIGINT, COUNT(*)
		FROM transactions
		WHERE store_id=$1 AND type='pos' AND created_at >= $2 AND created_at < $3
	`, w.StoreID, w.From, w.To).Scan(&revenue, &count)
	return revenue, count, err
}
