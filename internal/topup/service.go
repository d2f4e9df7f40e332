package topup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"posnotif/internal/domain"
	"posnotif/internal/observability"
	"posnotif/internal/store"
	"posnotif/internal/templates"
	"posnotif/internal/util"
)

const (
	sourceRequested = "topup_requested"
	sourceDecided   = "topup_decided"
)

type Store interface {
	InsertTopUpRequest(ctx context.Context, in store.TopUpInsert) (domain.TopUpRequest, error)
	GetTopUpRequest(ctx context.Context, id string) (domain.TopUpRequest, error)
	ListTopUpRequests(ctx context.Context, f store.TopUpFilter) ([]domain.TopUpRequest, error)
	DecideTopUp(ctx context.Context, in store.TopUpDecision) (domain.DecisionResult, error)
	AdjustBalance(ctx context.Context, in store.BalanceAdjustment) (int64, error)
	LedgerDrift(ctx context.Context, storeID string) (domain.LedgerDrift, error)
	GetUser(ctx context.Context, userID string) (domain.User, error)
}

// Notifier enqueues notification entries without failing the caller.
type Notifier interface {
	EnqueueAll(ctx context.Context, entries ...domain.NewEntry) int
}

type Service struct {
	Store    Store
	Notifier Notifier
	IDGen    func() string
	Now      func() time.Time
}

// Create files a pending request and tells the platform admin group.
func (s *Service) Create(ctx context.Context, in domain.CreateTopUpRequest) (domain.TopUpRequest, error) {
	if err := in.Validate(); err != nil {
		return domain.TopUpRequest{}, err
	}
	req, err := s.Store.InsertTopUpRequest(ctx, store.TopUpInsert{
		ID:             util.NewTopUpRequestID(),
		StoreID:        in.StoreID,
		StoreName:      in.StoreName,
		UserID:         in.UserID,
		Amount:         in.Amount,
		ProofOfPayment: in.ProofOfPayment,
		Now:            s.now(),
	})
	if err != nil {
		return domain.TopUpRequest{}, err
	}
	slog.Info("topup request created", "request_id", req.ID, "store_id", req.StoreID, "amount", req.Amount)

	s.Notifier.EnqueueAll(ctx, domain.NewEntry{
		To:      domain.AdminGroupAlias,
		Message: templates.TopUpRequestedAdmin(req.StoreName, req.Amount),
		IsGroup: true,
		Scope:   domain.ScopePlatform,
		Source:  sourceRequested,
	})
	return req, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.TopUpRequest, error) {
	return s.Store.GetTopUpRequest(ctx, id)
}

func (s *Service) List(ctx context.Context, status domain.TopUpStatus, limit int) ([]domain.TopUpRequest, error) {
	return s.Store.ListTopUpRequests(ctx, store.TopUpFilter{Status: status, Limit: limit})
}

// Decide applies an approval or rejection. Status, balance and ledger commit
// together; the customer and admin-group notifications are enqueued after the
// commit and their failures never undo the decision.
func (s *Service) Decide(ctx context.Context, in domain.TopUpDecision) (domain.DecisionResult, error) {
	if err := in.Validate(); err != nil {
		observability.TopUpDecisions.WithLabelValues(string(in.NewStatus), "invalid").Inc()
		return domain.DecisionResult{}, err
	}

	dec := store.TopUpDecision{
		RequestID: in.RequestID,
		StoreID:   in.StoreID,
		UserID:    in.UserID,
		Amount:    in.TokensToAdd,
		Status:    in.NewStatus,
		DecidedBy: in.AdminID,
		Now:       s.now(),
	}
	// only an approval writes a ledger row
	if in.NewStatus == domain.TopUpApproved {
		dec.TransactionID = s.newTransactionID()
		dec.Description = "Top-up disetujui untuk " + in.StoreName
	}
	res, err := s.Store.DecideTopUp(ctx, dec)
	if err != nil {
		observability.TopUpDecisions.WithLabelValues(string(in.NewStatus), decisionResult(err)).Inc()
		return res, err
	}
	observability.TopUpDecisions.WithLabelValues(string(in.NewStatus), "ok").Inc()
	slog.Info("topup request decided",
		"request_id", in.RequestID, "store_id", in.StoreID, "status", in.NewStatus,
		"amount", in.TokensToAdd, "new_balance", res.NewBalance, "admin_id", in.AdminID)

	s.notifyDecision(ctx, in)
	return res, nil
}

func (s *Service) notifyDecision(ctx context.Context, in domain.TopUpDecision) {
	approved := in.NewStatus == domain.TopUpApproved

	var entries []domain.NewEntry
	user, err := s.Store.GetUser(ctx, in.UserID)
	switch {
	case err != nil:
		slog.Error("topup requester lookup failed, skipping customer notification", "err", err, "user_id", in.UserID)
	case user.WhatsApp == "":
		slog.Warn("topup requester has no whatsapp number", "user_id", in.UserID)
	}

	customerMsg, adminMsg := templates.TopUpDecided(approved, user.Name, in.StoreName, in.TokensToAdd)
	if err == nil && user.WhatsApp != "" {
		entries = append(entries, domain.NewEntry{
			To:      util.NormalizePhone(user.WhatsApp),
			Message: customerMsg,
			Scope:   domain.ScopePlatform,
			Source:  sourceDecided,
		})
	}
	entries = append(entries, domain.NewEntry{
		To:      domain.AdminGroupAlias,
		Message: adminMsg,
		IsGroup: true,
		Scope:   domain.ScopePlatform,
		Source:  sourceDecided,
	})
	s.Notifier.EnqueueAll(ctx, entries...)
}

// AdjustBalance applies a manual signed correction and records it in the ledger.
func (s *Service) AdjustBalance(ctx context.Context, in domain.BalanceAdjustment) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	desc := "Penyesuaian saldo manual"
	if in.Note != "" {
		desc += ": " + in.Note
	}
	balance, err := s.Store.AdjustBalance(ctx, store.BalanceAdjustment{
		StoreID:       in.StoreID,
		Delta:         in.Delta,
		TransactionID: s.newTransactionID(),
		Description:   desc,
		Now:           s.now(),
	})
	if err != nil {
		return 0, err
	}
	slog.Info("store balance adjusted", "store_id", in.StoreID, "delta", in.Delta, "new_balance", balance, "admin_id", in.AdminID)
	return balance, nil
}

func (s *Service) LedgerDrift(ctx context.Context, storeID string) (domain.LedgerDrift, error) {
	d, err := s.Store.LedgerDrift(ctx, storeID)
	if err != nil {
		return d, err
	}
	if d.Drift != 0 {
		slog.Warn("store balance drifts from ledger", "store_id", storeID, "balance", d.Balance, "ledger_sum", d.LedgerSum)
	}
	return d, nil
}

func decisionResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyDecided):
		return "already_decided"
	case errors.Is(err, domain.ErrRequestMismatch):
		return "mismatch"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (s *Service) newTransactionID() string {
	if s.IDGen != nil {
		return s.IDGen()
	}
	return util.NewTransactionID()
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return util.NowUTC()
}
