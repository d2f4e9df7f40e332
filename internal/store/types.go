package store

import (
	"time"

	"posnotif/internal/domain"
)

type QueueInsert struct {
	ID      string
	To      string
	Message string
	IsGroup bool
	Scope   string
	Source  string
	Now     time.Time
}

type QueueFilter struct {
	Status domain.QueueStatus
	Limit  int
}

// QueueResult records the single dispatch outcome of an entry.
type QueueResult struct {
	ID        string
	Status    domain.QueueStatus
	LastError string
	Now       time.Time
}

type TopUpInsert struct {
	ID             string
	StoreID        string
	StoreName      string
	UserID         string
	Amount         int64
	ProofOfPayment string
	Now            time.Time
}

type TopUpFilter struct {
	Status domain.TopUpStatus
	Limit  int
}

// TopUpDecision is applied in one database transaction: status, balance and
// ledger move together or not at all.
type TopUpDecision struct {
	RequestID     string
	StoreID       string
	UserID        string
	Amount        int64
	Status        domain.TopUpStatus
	DecidedBy     string
	TransactionID string
	Description   string
	Now           time.Time
}

type BalanceAdjustment struct {
	StoreID       string
	Delta         int64
	TransactionID string
	Description   string
	Now           time.Time
}

type SummaryWindow struct {
	StoreID string
	From    time.Time
	To      time.Time
}
