package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CheckStatus is the lifecycle state of a check.
type CheckStatus string

const (
	StatusPending CheckStatus = "pending"
	StatusCleared CheckStatus = "cleared"
	StatusVoided  CheckStatus = "voided"
)

// ValidStatus reports whether s is a known check status.
func ValidStatus(s CheckStatus) bool {
	switch s {
	case StatusPending, StatusCleared, StatusVoided:
		return true
	}
	return false
}

// Transition validates a status change. The only legal transitions are
// pending -> cleared and pending -> voided; cleared and voided are terminal.
func Transition(from, to CheckStatus) error {
	if from == StatusPending && (to == StatusCleared || to == StatusVoided) {
		return nil
	}
	return fmt.Errorf("illegal check status transition %s -> %s: %w", from, to, ErrInvalidInput)
}

// Check represents an issued check. Number is unique within its checkbook
// regardless of status; a voided number is never reused.
type Check struct {
	ID          string
	CheckbookID string
	AccountID   string
	Number      int
	Date        time.Time
	Beneficiary string
	Amount      decimal.Decimal // positive; debited at issuance
	Concept     string
	Status      CheckStatus
}
