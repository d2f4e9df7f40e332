package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"posnotif/internal/domain"
)

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) GetStore(ctx context.Context, storeID string) (domain.Store, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT id, name, is_active, token_balance, premium_expires_at,
		       COALESCE(owner_name,''), COALESCE(contact_email,''), COALESCE(contact_phone,''),
		       COALESCE(description,''), COALESCE(category,''), admin_uids, daily_summary_enabled
		FROM stores WHERE id=$1
	`, storeID)
	st, err := scanStore(row)
	if err != nil {
		return domain.Store{}, notFound(err)
	}
	return st, nil
}

// ListStores returns every store; the summary job filters by itself.
func (s *Store) ListStores(ctx context.Context) ([]domain.Store, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, is_active, token_balance, premium_expires_at,
		       COALESCE(owner_name,''), COALESCE(contact_email,''), COALESCE(contact_phone,''),
		       COALESCE(description,''), COALESCE(category,''), admin_uids, daily_summary_enabled
		FROM stores ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Store
	for rows.Next() {
		st, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	var u domain.User
	err := s.DB.QueryRow(ctx, `
		SELECT id, COALESCE(name,''), COALESCE(store_id,''), COALESCE(whatsapp,'')
		FROM users WHERE id=$1
	`, userID).Scan(&u.ID, &u.Name, &u.StoreID, &u.WhatsApp)
	if err != nil {
		return domain.User{}, notFound(err)
	}
	return u, nil
}

func (s *Store) GetUsers(ctx context.Context, userIDs []string) ([]domain.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, COALESCE(name,''), COALESCE(store_id,''), COALESCE(whatsapp,'')
		FROM users WHERE id = ANY($1) ORDER BY id
	`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.StoreID, &u.WhatsApp); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func scanStore(row pgx.Row) (domain.Store, error) {
	var st domain.Store
	err := row.Scan(&st.ID, &st.Name, &st.IsActive, &st.TokenBalance, &st.PremiumExpiresAt,
		&st.OwnerName, &st.ContactEmail, &st.ContactPhone, &st.Description, &st.Category,
		&st.AdminUIDs, &st.DailySummaryEnabled)
	return st, err
}

const fkViolation = "23503"

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// missingParent maps a foreign key violation to ErrNotFound, naming the
// constraint that failed.
func missingParent(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, pgErr.ConstraintName)
	}
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
