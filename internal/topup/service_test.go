package topup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"posnotif/internal/domain"
	"posnotif/internal/store"
)

// memStore mimics the row-locked decision with a mutex.
type memStore struct {
	mu       sync.Mutex
	requests map[string]domain.TopUpRequest
	balances map[string]int64
	ledger   []store.TopUpDecision
	seen     []store.TopUpDecision
	adjusts  []store.BalanceAdjustment
	users    map[string]domain.User
}

func newMemStore() *memStore {
	return &memStore{
		requests: map[string]domain.TopUpRequest{},
		balances: map[string]int64{},
		users:    map[string]domain.User{},
	}
}

func (m *memStore) InsertTopUpRequest(ctx context.Context, in store.TopUpInsert) (domain.TopUpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := domain.TopUpRequest{ID: in.ID, StoreID: in.StoreID, StoreName: in.StoreName, UserID: in.UserID,
		Amount: in.Amount, Status: domain.TopUpPending, RequestedAt: in.Now}
	m.requests[in.ID] = r
	return r, nil
}

func (m *memStore) GetTopUpRequest(ctx context.Context, id string) (domain.TopUpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return r, domain.ErrNotFound
	}
	return r, nil
}

func (m *memStore) ListTopUpRequests(ctx context.Context, f store.TopUpFilter) ([]domain.TopUpRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.TopUpRequest
	for _, r := range m.requests {
		if f.Status == "" || r.Status == f.Status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) DecideTopUp(ctx context.Context, in store.TopUpDecision) (domain.DecisionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, in)
	r, ok := m.requests[in.RequestID]
	if !ok {
		return domain.DecisionResult{}, domain.ErrNotFound
	}
	if r.Status != domain.TopUpPending {
		return domain.DecisionResult{Request: r}, domain.ErrAlreadyDecided
	}
	if r.StoreID != in.StoreID || r.UserID != in.UserID || r.Amount != in.Amount {
		return domain.DecisionResult{Request: r}, domain.ErrRequestMismatch
	}
	r.Status = in.Status
	r.DecidedBy = in.DecidedBy
	m.requests[r.ID] = r
	if in.Status == domain.TopUpApproved {
		m.balances[in.StoreID] += in.Amount
		m.ledger = append(m.ledger, in)
	}
	return domain.DecisionResult{Request: r, NewBalance: m.balances[in.StoreID]}, nil
}

func (m *memStore) AdjustBalance(ctx context.Context, in store.BalanceAdjustment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[in.StoreID] += in.Delta
	m.adjusts = append(m.adjusts, in)
	return m.balances[in.StoreID], nil
}

func (m *memStore) LedgerDrift(ctx context.Context, storeID string) (domain.LedgerDrift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, l := range m.ledger {
		if l.StoreID == storeID {
			sum += l.Amount
		}
	}
	b := m.balances[storeID]
	return domain.LedgerDrift{StoreID: storeID, Balance: b, LedgerSum: sum, Drift: b - sum}, nil
}

func (m *memStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return u, domain.ErrNotFound
	}
	return u, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	entries []domain.NewEntry
}

func (n *recordingNotifier) EnqueueAll(ctx context.Context, entries ...domain.NewEntry) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, entries...)
	return len(entries)
}

func newService(m *memStore, n *recordingNotifier) *Service {
	return &Service{
		Store:    m,
		Notifier: n,
		Now:      func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
}

func seedPending(m *memStore, amount int64) domain.TopUpRequest {
	r := domain.TopUpRequest{ID: "tur_1", StoreID: "s1", StoreName: "Kopi Kita", UserID: "u1", Amount: amount, Status: domain.TopUpPending}
	m.requests[r.ID] = r
	m.balances["s1"] = 100
	m.users["u1"] = domain.User{ID: "u1", Name: "Budi", WhatsApp: "081234567890"}
	return r
}

func decision(status domain.TopUpStatus, amount int64) domain.TopUpDecision {
	return domain.TopUpDecision{RequestID: "tur_1", StoreID: "s1", StoreName: "Kopi Kita", UserID: "u1",
		TokensToAdd: amount, NewStatus: status, AdminID: "admin-1"}
}

func TestCreateNotifiesAdminGroup(t *testing.T) {
	m, n := newMemStore(), &recordingNotifier{}
	req, err := newService(m, n).Create(context.Background(), domain.CreateTopUpRequest{
		StoreID: "s1", StoreName: "Kopi Kita", UserID: "u1", Amount: 250000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != domain.TopUpPending || !strings.HasPrefix(req.ID, "tur_") {
		t.Fatalf("unexpected request: %#v", req)
	}
	if len(n.entries) != 1 {
		t.Fatalf("expected one notification, got %d", len(n.entries))
	}
	e := n.entries[0]
	if e.To != domain.AdminGroupAlias || !e.IsGroup || e.Scope != domain.ScopePlatform || !strings.Contains(e.Message, "250.000") {
		t.Fatalf("unexpected entry: %#v", e)
	}
}

func TestCreateRejectsInvalidAmount(t *testing.T) {
	m, n := newMemStore(), &recordingNotifier{}
	_, err := newService(m, n).Create(context.Background(), domain.CreateTopUpRequest{
		StoreID: "s1", StoreName: "Kopi Kita", UserID: "u1", Amount: 0,
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(m.requests) != 0 || len(n.entries) != 0 {
		t.Fatalf("nothing should be written")
	}
}

func TestDecideApproveCreditsBalanceAndNotifies(t *testing.T) {
	m, n := newMemStore(), &recordingNotifier{}
	seedPending(m, 500000)

	res, err := newService(m, n).Decide(context.Background(), decision(domain.TopUpApproved, 500000))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if res.NewBalance != 500100 || res.Request.Status != domain.TopUpApproved {
		t.Fatalf("unexpected result: %#v", res)
	}
	if len(m.ledger) != 1 || m.ledger[0].Description != "Top-up disetujui untuk Kopi Kita" || m.ledger[0].Amount != 500000 {
		t.Fatalf("unexpected ledger: %#v", m.ledger)
	}
	if len(n.entries) != 2 {
		t.Fatalf("expected customer and admin notifications, got %d", len(n.entries))
	}
	customer, admin := n.entries[0], n.entries[1]
	if customer.To != "6281234567890" || customer.IsGroup || !strings.Contains(customer.Message, "500.000 token") || !strings.Contains(customer.Message, "Halo Budi") {
		t.Fatalf("unexpected customer entry: %#v", customer)
	}
	if admin.To != domain.AdminGroupAlias || !admin.IsGroup {
		t.Fatalf("unexpected admin entry: %#v", admin)
	}
}

func TestDecideRejectLeavesBalance(t *testing.T) {
	m, n := newMemStore(), &recordingNotifier{}
	seedPending(m, 500000)

	res, err := newService(m, n).Decide(context.Background(), decision(domain.TopUpRejected, 500000))
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if res.NewBalance != 100 || len(m.ledger) != 0 {
		t.Fatalf("reject must not touch balance or ledger: %#v ledger=%d", res, len(m.ledger))
	}
	if in := m.seen[0]; in.Description != "" || in.TransactionID != "" {
		t.Fatalf("reject should carry no ledger fields: %#v", in)
	}
	if len(n.entries) != 2 || !strings.Contains(n.entries[0].Message, "Ditolak") {
		t.Fatalf("unexpected notifications: %#v", n.entries)
	}
}

func TestDecideTwiceCreditsOnce(t *testing.T) {
	m, n := newMemStore(), &recordingNotifier{}
	seedPending(m, 500000)
	svc := newService(m, n)

	if _, err := svc.Decide(context.Background(), decision(domain.TopUpApproved, 500000)); err != nil {
		t.Fatalf("first decide: %v", err)
	}
	_, err := svc.Decide(context.Background(), decision(domain.TopUpApproved, 500000))
	if !errors.Is(err, domain.ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
	if m.balances["s1"] != 500100 || len(m.ledger) != 1 || len(n.entries) != 2 {
		t.Fatalf("second decision must be a no-op: balance=%d ledger=%d notes=%d", m.balances["s1"], len(m.ledger), len(n.entries))
	}
}

func TestDecideConcurrentApprovalsCreditOnce(t *testing.T) {
	m, n := newMemStore(), &recordingNotifier{}
	seedPending(m, 1000)
	svc := newService(m, n)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Decide(context.Background(), decision(domain.TopUpApproved, 1000)); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 || m.balances["s1"] != 1100 || len(m.ledger) != 1 {
		t.Fatalf("expected one winner, got wins=%d balance=%d ledger=%d", wins, m.balances["s1"], len(m.ledger))
	}
}

func TestDecideAfterRejectCannotApprove(t *testing.T) {
	m, n := newMemStore(), &recordingNotifier{}
	seedPending(m, 1000)
	svc := newService(m, n)

	if _, err := svc.Decide(context.Background(), decision(domain.TopUpRejected, 1000)); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := svc.Decide(context.Background(), decision(domain.TopUpApproved, 1000)); !errors.Is(err, domain.ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
	if m.requests["tur_1"].Status != domain.TopUpRejected || m.balances["s1"] != 100 {
		t.Fatalf("rejected request changed: %#v balance=%d", m.requests["tur_1"], m.balances["s1"])
	}
}

func TestDecideValidation(t *testing.T) {
	m, n := newMemStore(), &recordingNotifier{}
	seedPending(m, 1000)
	svc := newService(m, n)

	cases := []struct {
		name string
		in   domain.TopUpDecision
		want error
	}{
		{"missing store", domain.TopUpDecision{RequestID: "tur_1", StoreName: "x", UserID: "u1", TokensToAdd: 1, NewStatus: domain.TopUpApproved}, domain.ErrMissingFields},
		{"zero tokens", decision(domain.TopUpApproved, 0), domain.ErrInvalidAmount},
		{"pending status", decision(domain.TopUpPending, 1000), domain.ErrInvalidStatus},
		{"unknown status", decision("approved", 1000), domain.ErrInvalidStatus},
		{"amount mismatch", decision(domain.TopUpApproved, 999), domain.ErrRequestMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Decide(context.Background(), tc.in); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if m.requests["tur_1"].Status != domain.TopUpPending || len(n.entries) != 0 {
		t.Fatalf("invalid decisions must not change anything")
	}
}

func TestDecideWithoutRequesterPhoneNotifiesAdminOnly(t *testing.T) {
	m, n := newMemStore(), &recordingNotifier{}
	seedPending(m, 1000)
	delete(m.users, "u1")

	if _, err := newService(m, n).Decide(context.Background(), decision(domain.TopUpApproved, 1000)); err != nil {
		t.Fatalf("decide: %v", err)
	}
	if len(n.entries) != 1 || n.entries[0].To != domain.AdminGroupAlias {
		t.Fatalf("expected admin notification only: %#v", n.entries)
	}
}

func TestAdjustBalanceWritesLedgerEntry(t *testing.T) {
	m, n := newMemStore(), &recordingNotifier{}
	m.balances["s1"] = 100
	svc := newService(m, n)

	bal, err := svc.AdjustBalance(context.Background(), domain.BalanceAdjustment{StoreID: "s1", Delta: -40, AdminID: "a", Note: "koreksi"})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if bal != 60 || len(m.adjusts) != 1 || !strings.Contains(m.adjusts[0].Description, "koreksi") {
		t.Fatalf("unexpected adjustment: bal=%d %#v", bal, m.adjusts)
	}
	if _, err := svc.AdjustBalance(context.Background(), domain.BalanceAdjustment{StoreID: "s1"}); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("zero delta must be rejected, got %v", err)
	}
}
