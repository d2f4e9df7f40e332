package domain

import (
	"errors"
	"strings"
	"time"
)

type TopUpStatus string

const (
	TopUpPending  TopUpStatus = "pending"
	TopUpApproved TopUpStatus = "disetujui"
	TopUpRejected TopUpStatus = "ditolak"
)

// Decision reports whether s is one of the two terminal outcomes.
func (s TopUpStatus) Decision() bool {
	return s == TopUpApproved || s == TopUpRejected
}

type QueueStatus string

const (
	QueueQueued QueueStatus = "queued"
	QueueSent   QueueStatus = "sent"
	QueueFailed QueueStatus = "failed"
)

type TransactionType string

const (
	TxPOS        TransactionType = "pos"
	TxAI         TransactionType = "ai"
	TxTopUp      TransactionType = "topup"
	TxAdjustment TransactionType = "adjustment"
)

const (
	// ScopePlatform selects the global delivery settings document.
	ScopePlatform = "platform"
	// AdminGroupAlias is replaced by the configured admin group for group sends.
	AdminGroupAlias = "admin_group"
)

var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyDecided  = errors.New("top-up request already decided")
	ErrRequestMismatch = errors.New("decision does not match top-up request")
	ErrNoDeviceID      = errors.New("whatsapp device id is not configured")
	ErrNoRecipient     = errors.New("no usable recipient")
)

type Store struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	IsActive            bool       `json:"isActive"`
	TokenBalance        int64      `json:"tokenBalance"`
	PremiumExpiresAt    *time.Time `json:"premiumExpiresAt,omitempty"`
	OwnerName           string     `json:"ownerName,omitempty"`
	ContactEmail        string     `json:"contactEmail,omitempty"`
	ContactPhone        string     `json:"contactPhone,omitempty"`
	Description         string     `json:"description,omitempty"`
	Category            string     `json:"category,omitempty"`
	AdminUIDs           []string   `json:"adminUids"`
	DailySummaryEnabled bool       `json:"dailySummaryEnabled"`
}

type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	StoreID  string `json:"storeId"`
	WhatsApp string `json:"whatsapp"`
}

type TopUpRequest struct {
	ID             string      `json:"id"`
	StoreID        string      `json:"storeId"`
	StoreName      string      `json:"storeName"`
	UserID         string      `json:"userId"`
	Amount         int64       `json:"amount"`
	Status         TopUpStatus `json:"status"`
	ProofOfPayment string      `json:"proofOfPaymentUrl,omitempty"`
	RequestedAt    time.Time   `json:"requestDate"`
	DecidedAt      *time.Time  `json:"approvalDate,omitempty"`
	DecidedBy      string      `json:"approvedBy,omitempty"`
}

type Transaction struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"storeId"`
	Type        TransactionType `json:"type"`
	Amount      int64           `json:"amount"`
	TotalAmount int64           `json:"totalAmount,omitempty"`
	Description string          `json:"description"`
	ReferenceID string          `json:"referenceId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type QueueEntry struct {
	ID          string      `json:"id"`
	To          string      `json:"to"`
	Message     string      `json:"message"`
	IsGroup     bool        `json:"isGroup"`
	Scope       string      `json:"storeId"`
	Status      QueueStatus `json:"status"`
	Source      string      `json:"source,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	SentAt      *time.Time  `json:"sentAt,omitempty"`
	ProcessedAt *time.Time  `json:"processedAt,omitempty"`
	Error       string      `json:"error,omitempty"`
}

type DeliverySettings struct {
	DeviceID   string `json:"deviceId"`
	AdminGroup string `json:"adminGroup"`
}

// CreateTopUpRequest is filed by a store admin.
type CreateTopUpRequest struct {
	StoreID        string `json:"storeId"`
	StoreName      string `json:"storeName"`
	UserID         string `json:"userId"`
	Amount         int64  `json:"amount"`
	ProofOfPayment string `json:"proofOfPaymentUrl,omitempty"`
}

func (r CreateTopUpRequest) Validate() error {
	if r.StoreID == "" || r.StoreName == "" || r.UserID == "" {
		return ErrMissingFields
	}
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// TopUpDecision is what the operator console posts when approving or rejecting.
type TopUpDecision struct {
	RequestID   string      `json:"requestId"`
	StoreID     string      `json:"storeId"`
	StoreName   string      `json:"storeName"`
	UserID      string      `json:"userId"`
	TokensToAdd int64       `json:"tokensToAdd"`
	NewStatus   TopUpStatus `json:"newStatus"`
	AdminID     string      `json:"adminId"`
}

func (d TopUpDecision) Validate() error {
	if d.RequestID == "" || d.StoreID == "" || d.StoreName == "" || d.UserID == "" {
		return ErrMissingFields
	}
	if d.TokensToAdd <= 0 {
		return ErrInvalidAmount
	}
	if !d.NewStatus.Decision() {
		return ErrInvalidStatus
	}
	return nil
}

type BalanceAdjustment struct {
	StoreID string `json:"storeId"`
	Delta   int64  `json:"delta"`
	AdminID string `json:"adminId"`
	Note    string `json:"note,omitempty"`
}

func (a BalanceAdjustment) Validate() error {
	if a.StoreID == "" {
		return ErrMissingFields
	}
	if a.Delta == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// NewEntry is the producer-side shape of a queue entry.
type NewEntry struct {
	To      string
	Message string
	IsGroup bool
	Scope   string
	Source  string
}

func (e NewEntry) Validate() error {
	if strings.TrimSpace(e.To) == "" || strings.TrimSpace(e.Message) == "" {
		return ErrMissingFields
	}
	return nil
}

type DecisionResult struct {
	Request    TopUpRequest `json:"request"`
	NewBalance int64        `json:"newBalance"`
}

type LedgerDrift struct {
	StoreID   string `json:"storeId"`
	Balance   int64  `json:"balance"`
	LedgerSum int64  `json:"ledgerSum"`
	Drift     int64  `json:"drift"`
}

type DailySummary struct {
	StoreID   string    `json:"storeId"`
	StoreName string    `json:"storeName"`
	Day       time.Time `json:"day"`
	Revenue   int64     `json:"revenue"`
	Count     int64     `json:"count"`
}
