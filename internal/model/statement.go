package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankStatementLine is one row of an externally supplied bank statement,
// read-only to this system. Reference is extracted from the description
// (first digit run of length >= 4); empty means only heuristic matching
// can apply.
type BankStatementLine struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal // signed: checks negative, deposits positive
	Reference   string
}

// MatchBasis records how a reconciliation match was established.
type MatchBasis string

const (
	BasisExactReference MatchBasis = "exact-reference"
	BasisAmountDate     MatchBasis = "amount-date"
	BasisManual         MatchBasis = "manual"
)

// ReconciliationRecord pairs a movement with at most one statement line and
// the status transition that was applied. One row per match is appended to
// records.csv; the set is the audit trail for every clearing decision.
type ReconciliationRecord struct {
	BatchID    string
	MovementID string
	Kind       MovementKind
	Basis      MatchBasis
	LineDate   time.Time
	LineDesc   string
	LineAmount decimal.Decimal
	Applied    CheckStatus // status written to the movement (cleared for checks)
}
