package model

import "errors"

// Business-rule errors returned by the ledger, registry, and services. These
// represent legitimate business states, not transient failures; callers match
// them with errors.Is and never retry automatically.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOutOfRange        = errors.New("check number out of checkbook range")
	ErrDuplicateNumber   = errors.New("check number already used")
	ErrExhausted         = errors.New("checkbook exhausted")
	ErrNotFound          = errors.New("not found")
)
