package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"posnotif/internal/domain"
	"posnotif/internal/providers/whacenter"
	"posnotif/internal/store"
)

type TopUps interface {
	Create(ctx context.Context, in domain.CreateTopUpRequest) (domain.TopUpRequest, error)
	Get(ctx context.Context, id string) (domain.TopUpRequest, error)
	List(ctx context.Context, status domain.TopUpStatus, limit int) ([]domain.TopUpRequest, error)
	Decide(ctx context.Context, in domain.TopUpDecision) (domain.DecisionResult, error)
	AdjustBalance(ctx context.Context, in domain.BalanceAdjustment) (int64, error)
	LedgerDrift(ctx context.Context, storeID string) (domain.LedgerDrift, error)
}

type Queue interface {
	GetQueueEntry(ctx context.Context, id string) (domain.QueueEntry, error)
	ListQueueEntries(ctx context.Context, f store.QueueFilter) ([]domain.QueueEntry, error)
}

type FollowUps interface {
	Draft(ctx context.Context, storeID string) (string, error)
	SendNow(ctx context.Context, phone, message string) error
	Enqueue(ctx context.Context, phone, message string) (string, error)
}

type SettingsAdmin interface {
	PlatformDeliverySettings(ctx context.Context) (domain.DeliverySettings, bool, error)
	SavePlatformDeliverySettings(ctx context.Context, in domain.DeliverySettings) error
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, scope string) error
}

type API struct {
	TopUps    TopUps
	Queue     Queue
	FollowUps FollowUps
	Settings  SettingsAdmin
	// optional
	Cache CacheInvalidator
}

func (a *API) Register(m *mux.Router) {
	m.HandleFunc("/v1/topup-requests", a.handleCreateTopUp).Methods(http.MethodPost)
	m.HandleFunc("/v1/topup-requests", a.handleListTopUps).Methods(http.MethodGet)
	m.HandleFunc("/v1/topup-requests/{id}", a.handleGetTopUp).Methods(http.MethodGet)
	m.HandleFunc("/v1/topup-requests/{id}/decision", a.handleDecideTopUp).Methods(http.MethodPost)

	m.HandleFunc("/v1/queue", a.handleListQueue).Methods(http.MethodGet)
	m.HandleFunc("/v1/queue/{id}", a.handleGetQueueEntry).Methods(http.MethodGet)

	m.HandleFunc("/v1/stores/{id}/balance-adjustments", a.handleAdjustBalance).Methods(http.MethodPost)
	m.HandleFunc("/v1/stores/{id}/ledger-drift", a.handleLedgerDrift).Methods(http.MethodGet)
	m.HandleFunc("/v1/stores/{id}/follow-ups/draft", a.handleDraftFollowUp).Methods(http.MethodPost)
	m.HandleFunc("/v1/follow-ups", a.handleSendFollowUp).Methods(http.MethodPost)

	m.HandleFunc("/v1/settings/whatsapp", a.handleGetSettings).Methods(http.MethodGet)
	m.HandleFunc("/v1/settings/whatsapp", a.handlePutSettings).Methods(http.MethodPut)
}

func (a *API) handleCreateTopUp(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	out, err := a.TopUps.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "create topup request failed", "store_id", req.StoreID)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (a *API) handleListTopUps(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		http.Error(w, ErrInvalidQuery, http.StatusBadRequest)
		return
	}
	status := domain.TopUpStatus(r.URL.Query().Get("status"))
	if status != "" && status != domain.TopUpPending && !status.Decision() {
		http.Error(w, ErrInvalidQuery, http.StatusBadRequest)
		return
	}
	out, err := a.TopUps.List(r.Context(), status, limit)
	if err != nil {
		writeDomainError(w, err, "list topup requests failed")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleGetTopUp(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	out, err := a.TopUps.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "get topup request failed", "request_id", id)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleDecideTopUp(w http.ResponseWriter, r *http.Request) {
	var req domain.TopUpDecision
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	// the path id wins over the body
	req.RequestID = mux.Vars(r)["id"]

	out, err := a.TopUps.Decide(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "topup decision failed", "request_id", req.RequestID, "store_id", req.StoreID)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleListQueue(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		http.Error(w, ErrInvalidQuery, http.StatusBadRequest)
		return
	}
	status := domain.QueueStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.QueueQueued, domain.QueueSent, domain.QueueFailed:
	default:
		http.Error(w, ErrInvalidQuery, http.StatusBadRequest)
		return
	}
	out, err := a.Queue.ListQueueEntries(r.Context(), store.QueueFilter{Status: status, Limit: limit})
	if err != nil {
		writeDomainError(w, err, "list queue failed")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleGetQueueEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	out, err := a.Queue.GetQueueEntry(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "get queue entry failed", "entry_id", id)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleAdjustBalance(w http.ResponseWriter, r *http.Request) {
	var req domain.BalanceAdjustment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	req.StoreID = mux.Vars(r)["id"]
	balance, err := a.TopUps.AdjustBalance(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "balance adjustment failed", "store_id", req.StoreID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"storeId": req.StoreID, "tokenBalance": balance})
}

func (a *API) handleLedgerDrift(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	out, err := a.TopUps.LedgerDrift(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "ledger drift check failed", "store_id", id)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleDraftFollowUp(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	msg, err := a.FollowUps.Draft(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "follow-up draft failed", "store_id", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type followUpRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	// Queue puts the message on the notification queue instead of sending inline.
	Queue bool `json:"queue"`
}

func (a *API) handleSendFollowUp(w http.ResponseWriter, r *http.Request) {
	var req followUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if req.Queue {
		id, err := a.FollowUps.Enqueue(r.Context(), req.Phone, req.Message)
		if err != nil {
			writeDomainError(w, err, "follow-up enqueue failed")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": string(domain.QueueQueued)})
		return
	}
	if err := a.FollowUps.SendNow(r.Context(), req.Phone, req.Message); err != nil {
		writeDomainError(w, err, "follow-up send failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, _, err := a.Settings.PlatformDeliverySettings(r.Context())
	if err != nil {
		writeDomainError(w, err, "read delivery settings failed")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (a *API) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.DeliverySettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, ErrInvalidJSON, http.StatusBadRequest)
		return
	}
	if err := a.Settings.SavePlatformDeliverySettings(r.Context(), req); err != nil {
		writeDomainError(w, err, "save delivery settings failed")
		return
	}
	if a.Cache != nil {
		if err := a.Cache.Invalidate(r.Context(), domain.ScopePlatform); err != nil {
			slog.Warn("settings cache invalidate failed", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, req)
}

func limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps sentinel errors to status codes; anything unknown is
// logged and reported as a dependency failure.
func writeDomainError(w http.ResponseWriter, err error, msg string, attrs ...any) {
	var sendErr *whacenter.SendError
	switch {
	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidStatus):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, ErrNotFound, http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyDecided):
		http.Error(w, ErrAlreadyDecided, http.StatusConflict)
	case errors.Is(err, domain.ErrRequestMismatch):
		http.Error(w, ErrRequestMismatch, http.StatusConflict)
	case errors.Is(err, domain.ErrNoDeviceID):
		http.Error(w, ErrNotConfigured, http.StatusFailedDependency)
	case errors.As(err, &sendErr):
		slog.Error(msg, append(attrs, "err", err)...)
		http.Error(w, ErrGateway+": "+err.Error(), http.StatusBadGateway)
	default:
		slog.Error(msg, append(attrs, "err", err)...)
		http.Error(w, ErrDependency, http.StatusBadGateway)
	}
}
