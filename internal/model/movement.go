package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind distinguishes the two movement sources.
type MovementKind string

const (
	KindCheck   MovementKind = "check"
	KindDeposit MovementKind = "deposit"
)

// ValidKind reports whether k is a known movement kind.
func ValidKind(k MovementKind) bool {
	return k == KindCheck || k == KindDeposit
}

// Movement is the reconciliation view over a check or deposit: a signed
// amount (checks negative, deposits positive) plus the reference string a
// bank statement line would carry.
type Movement struct {
	ID        string
	Kind      MovementKind
	AccountID string
	Date      time.Time
	Amount    decimal.Decimal // signed
	Reference string
	Status    CheckStatus // checks only; deposits are always StatusPending until reconciled
}

// CheckMovement builds the signed movement view of a check. The reference is
// the check number, which is what banks print on statement lines.
func CheckMovement(c Check) Movement {
	return Movement{
		ID:        c.ID,
		Kind:      KindCheck,
		AccountID: c.AccountID,
		Date:      c.Date,
		Amount:    c.Amount.Neg(),
		Reference: strconv.Itoa(c.Number),
		Status:    c.Status,
	}
}

// DepositMovement builds the signed movement view of a deposit.
func DepositMovement(d Deposit) Movement {
	return Movement{
		ID:        d.ID,
		Kind:      KindDeposit,
		AccountID: d.AccountID,
		Date:      d.Date,
		Amount:    d.Amount,
		Reference: d.Reference,
		Status:    StatusPending,
	}
}
