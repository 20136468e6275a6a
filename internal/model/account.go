package model

import "github.com/shopspring/decimal"

// Account represents a bank account row in accounts.csv. Balance is the book
// balance: it reflects every recorded movement immediately and is mutated only
// through ledger Debit/Credit, never edited directly.
type Account struct {
	ID       string
	Name     string
	Currency string
	Balance  decimal.Decimal
}
