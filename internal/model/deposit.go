package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepositType classifies how funds arrived.
type DepositType string

const (
	DepositCash     DepositType = "cash"
	DepositCheck    DepositType = "check"
	DepositTransfer DepositType = "transfer"
	DepositPayroll  DepositType = "payroll"
	DepositOther    DepositType = "other"
)

// ValidDepositType reports whether t is a known deposit type.
func ValidDepositType(t DepositType) bool {
	switch t {
	case DepositCash, DepositCheck, DepositTransfer, DepositPayroll, DepositOther:
		return true
	}
	return false
}

// RequiresReference reports whether the deposit type mandates a paper trail.
func (t DepositType) RequiresReference() bool {
	switch t {
	case DepositCash, DepositCheck, DepositTransfer:
		return true
	}
	return false
}

// Deposit represents recorded incoming funds. Deposits post immediately and
// carry no lifecycle status; Reconciled is a reporting flag set when a bank
// statement line is matched against the deposit.
type Deposit struct {
	ID         string
	AccountID  string
	Date       time.Time
	Amount     decimal.Decimal // positive; credited on record
	Type       DepositType
	Reference  string
	Concept    string
	Reconciled bool
}
