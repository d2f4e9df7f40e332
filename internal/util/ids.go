package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

func newID(prefix string) string {
	// ULID is sortable (nice for DB indexes and dashboards)
	t := time.Now().UTC()
	return prefix + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

func NewQueueEntryID() string   { return newID("wq_") }
func NewTopUpRequestID() string { return newID("tur_") }
func NewTransactionID() string  { return newID("tx_") }

func NowUTC() time.Time {
	return time.Now().UTC()
}
