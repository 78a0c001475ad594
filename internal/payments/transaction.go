package payments

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Transaction statuses. Pending is the only non-terminal state.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// NewTransactionRef builds a reference of the form
// TXN_<YYYYMMDDHHMMSS>_<suffix> with a random hex suffix.
func NewTransactionRef(now time.Time) string {
	suffix := make([]byte, 3)
	rand.Read(suffix)
	return fmt.Sprintf("TXN_%s_%s", now.Format("20060102150405"), hex.EncodeToString(suffix))
}

// ValidateTransition enforces the status machine: pending may move to
// any terminal state; terminal states are frozen.
func ValidateTransition(from, to string) error {
	if from == StatusPending {
		switch to {
		case StatusCompleted, StatusFailed, StatusCancelled:
			return nil
		}
	}
	return fmt.Errorf("Invalid status transition from %s to %s", from, to)
}
