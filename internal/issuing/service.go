package issuing

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chequera-dev/chequera/internal/checkbook"
	"github.com/chequera-dev/chequera/internal/model"
)

// Ledger is the balance side of issuance: debits and credits on accounts.
type Ledger interface {
	Get(id string) (model.Account, error)
	Debit(id string, amount decimal.Decimal) error
	ForceDebit(id string, amount decimal.Decimal) error
	Credit(id string, amount decimal.Decimal) error
}

// Registry allocates check numbers from checkbooks.
type Registry interface {
	Get(id string) (model.Checkbook, error)
	Allocate(id string) (int, error)
	AllocateManual(id string, number int, used checkbook.NumberChecker) (int, error)
	Rollback(id string, number int) error
}

// Store persists checks and deposits.
type Store interface {
	AppendCheck(c model.Check) error
	AppendDeposit(d model.Deposit) error
	GetCheck(id string) (model.Check, error)
	SetCheckStatus(id string, to model.CheckStatus) error
	NumberUsed(checkbookID string, number int) bool
}

// Service issues checks and records deposits. Each operation is
// all-or-nothing: allocation, balance change, and the persisted record
// become visible together or not at all. Resources are always taken in
// registry-then-ledger order.
type Service struct {
	ledger         Ledger
	registry       Registry
	store          Store
	allowOverdraft bool
}

// NewService creates an issuing Service. allowOverdraft turns the
// insufficient-funds block into a warning left to the caller: the debit is
// applied and the balance may go negative.
func NewService(ledger Ledger, registry Registry, store Store, allowOverdraft bool) *Service {
	return &Service{ledger: ledger, registry: registry, store: store, allowOverdraft: allowOverdraft}
}

// IssueParams holds parameters for issuing a check. Number 0 means
// automatic allocation from the checkbook cursor.
type IssueParams struct {
	AccountID   string
	CheckbookID string
	Beneficiary string
	Amount      decimal.Decimal
	Concept     string
	Date        time.Time
	Number      int
}

// IssueCheck validates, allocates a number, debits the account, and
// persists the check as pending. Any failure after allocation releases the
// number (automatic mode rolls the cursor back when no later allocation
// occurred) and undoes the debit, so the book never holds a phantom number
// or an unmatched debit.
func (s *Service) IssueCheck(params IssueParams) (model.Check, error) {
	if err := s.validateIssue(params); err != nil {
		return model.Check{}, err
	}

	manual := params.Number != 0

	var number int
	var err error
	if manual {
		number, err = s.registry.AllocateManual(params.CheckbookID, params.Number, s.store)
	} else {
		number, err = s.registry.Allocate(params.CheckbookID)
	}
	if err != nil {
		return model.Check{}, err
	}

	if err := s.debit(params.AccountID, params.Amount); err != nil {
		s.release(params.CheckbookID, number, manual)
		return model.Check{}, err
	}

	chk := model.Check{
		ID:          uuid.New().String(),
		CheckbookID: params.CheckbookID,
		AccountID:   params.AccountID,
		Number:      number,
		Date:        params.Date,
		Beneficiary: params.Beneficiary,
		Amount:      params.Amount,
		Concept:     params.Concept,
		Status:      model.StatusPending,
	}
	if err := s.store.AppendCheck(chk); err != nil {
		// Undo in reverse order: re-credit first, then free the number.
		if cerr := s.ledger.Credit(params.AccountID, params.Amount); cerr != nil {
			return model.Check{}, errors.Join(fmt.Errorf("persisting check: %w", err), fmt.Errorf("reverting debit: %w", cerr))
		}
		s.release(params.CheckbookID, number, manual)
		return model.Check{}, fmt.Errorf("persisting check: %w", err)
	}

	return chk, nil
}

func (s *Service) validateIssue(params IssueParams) error {
	if !params.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive: %w", model.ErrInvalidInput)
	}
	if params.Beneficiary == "" || params.Concept == "" {
		return fmt.Errorf("beneficiary and concept are required: %w", model.ErrInvalidInput)
	}
	if params.Date.IsZero() {
		return fmt.Errorf("issue date is required: %w", model.ErrInvalidInput)
	}

	cb, err := s.registry.Get(params.CheckbookID)
	if err != nil {
		return err
	}
	if cb.AccountID != params.AccountID {
		return fmt.Errorf("checkbook %s does not belong to account %s: %w", params.CheckbookID, params.AccountID, model.ErrInvalidInput)
	}
	if !cb.Active {
		return fmt.Errorf("checkbook %s is inactive: %w", params.CheckbookID, model.ErrInvalidInput)
	}

	if _, err := s.ledger.Get(params.AccountID); err != nil {
		return err
	}
	return nil
}

func (s *Service) debit(accountID string, amount decimal.Decimal) error {
	if s.allowOverdraft {
		return s.ledger.ForceDebit(accountID, amount)
	}
	return s.ledger.Debit(accountID, amount)
}

// release frees an allocated number after a failed issuance. Manual numbers
// simply remain unused; automatic ones are offered back to the cursor.
func (s *Service) release(checkbookID string, number int, manual bool) {
	if manual {
		return
	}
	// Best effort: if another allocation advanced the cursor, the number
	// stays a gap rather than risking a duplicate.
	_ = s.registry.Rollback(checkbookID, number)
}

// DepositParams holds parameters for recording a deposit.
type DepositParams struct {
	AccountID string
	Amount    decimal.Decimal
	Type      model.DepositType
	Reference string
	Concept   string
	Date      time.Time
}

// RecordDeposit validates, credits the account, and persists the deposit.
// Same all-or-nothing contract as issuance.
func (s *Service) RecordDeposit(params DepositParams) (model.Deposit, error) {
	if !params.Amount.IsPositive() {
		return model.Deposit{}, fmt.Errorf("amount must be positive: %w", model.ErrInvalidInput)
	}
	if !model.ValidDepositType(params.Type) {
		return model.Deposit{}, fmt.Errorf("unknown deposit type %q: %w", params.Type, model.ErrInvalidInput)
	}
	if params.Type.RequiresReference() && params.Reference == "" {
		return model.Deposit{}, fmt.Errorf("deposit type %s requires a reference: %w", params.Type, model.ErrInvalidInput)
	}
	if params.Date.IsZero() {
		return model.Deposit{}, fmt.Errorf("deposit date is required: %w", model.ErrInvalidInput)
	}
	if _, err := s.ledger.Get(params.AccountID); err != nil {
		return model.Deposit{}, err
	}

	if err := s.ledger.Credit(params.AccountID, params.Amount); err != nil {
		return model.Deposit{}, err
	}

	dep := model.Deposit{
		ID:        uuid.New().String(),
		AccountID: params.AccountID,
		Date:      params.Date,
		Amount:    params.Amount,
		Type:      params.Type,
		Reference: params.Reference,
		Concept:   params.Concept,
	}
	if err := s.store.AppendDeposit(dep); err != nil {
		if cerr := s.ledger.ForceDebit(params.AccountID, params.Amount); cerr != nil {
			return model.Deposit{}, errors.Join(fmt.Errorf("persisting deposit: %w", err), fmt.Errorf("reverting credit: %w", cerr))
		}
		return model.Deposit{}, fmt.Errorf("persisting deposit: %w", err)
	}

	return dep, nil
}

// VoidCheck cancels a pending check. The number stays consumed and the
// account is not re-credited: the book balance keeps reflecting committed
// outflows.
func (s *Service) VoidCheck(checkID string) (model.Check, error) {
	chk, err := s.store.GetCheck(checkID)
	if err != nil {
		return model.Check{}, err
	}
	if err := s.store.SetCheckStatus(checkID, model.StatusVoided); err != nil {
		return model.Check{}, err
	}
	chk.Status = model.StatusVoided
	return chk, nil
}
