package reconcile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chequera-dev/chequera/internal/id"
	"github.com/chequera-dev/chequera/internal/importer"
	"github.com/chequera-dev/chequera/internal/model"
)

const recordsFile = "reconcile/records.csv"

// Store is the movement side of reconciliation: it supplies outstanding
// movements and takes status writes back.
type Store interface {
	Pending(accountID string) []model.Movement
	GetCheck(checkID string) (model.Check, error)
	SetCheckStatus(checkID string, to model.CheckStatus) error
	MarkDepositReconciled(depositID string) error
}

// Books reports the account's book balance. The matcher never mutates it:
// clearing a check changes status only, the amount was debited at issuance.
type Books interface {
	Balance(accountID string) (decimal.Decimal, error)
}

// Result is the outcome of one reconciliation batch.
type Result struct {
	BatchID     string
	Records     []model.ReconciliationRecord
	Unmatched   []model.Movement
	Skipped     []importer.SkippedLine
	BookBalance decimal.Decimal
	BankBalance decimal.Decimal
	Difference  decimal.Decimal // bank balance - book balance
}

// Service matches bank statement lines against outstanding movements,
// applies the resulting status transitions, and appends an auditable
// record per match. Re-running over the same inputs is a no-op: cleared
// checks and reconciled deposits are no longer outstanding.
type Service struct {
	bookRoot string
	store    Store
	books    Books
	matcher  *Matcher

	mu  sync.Mutex // serializes batch numbering and records.csv appends
	now func() time.Time
}

// NewService creates a reconciliation Service with the given heuristic
// date buffer.
func NewService(bookRoot string, store Store, books Books, bufferDays int) *Service {
	return &Service{
		bookRoot: bookRoot,
		store:    store,
		books:    books,
		matcher:  NewMatcher(bufferDays),
		now:      time.Now,
	}
}

// Reconcile runs a statement batch against an account's outstanding
// movements. Skipped lines from the import stage are carried through to
// the result untouched.
func (s *Service) Reconcile(accountID string, lines []model.BankStatementLine, skipped []importer.SkippedLine, bankBalance decimal.Decimal) (Result, error) {
	bookBalance, err := s.books.Balance(accountID)
	if err != nil {
		return Result{}, err
	}

	pending := s.store.Pending(accountID)
	matches := s.matcher.FindMatches(pending, lines)

	s.mu.Lock()
	defer s.mu.Unlock()

	batchID, err := s.nextBatchID()
	if err != nil {
		return Result{}, err
	}

	var records []model.ReconciliationRecord
	for _, m := range matches {
		rec, err := s.applyMatch(batchID, m)
		if err != nil {
			return Result{}, err
		}
		records = append(records, rec)
	}

	if len(records) > 0 {
		if err := s.appendRecords(records); err != nil {
			return Result{}, err
		}
	}

	return Result{
		BatchID:     batchID,
		Records:     records,
		Unmatched:   Unmatched(pending, matches),
		Skipped:     skipped,
		BookBalance: bookBalance,
		BankBalance: bankBalance,
		Difference:  bankBalance.Sub(bookBalance),
	}, nil
}

// ClearManual clears caller-selected pending checks without statement
// lines, recording each with basis manual.
func (s *Service) ClearManual(accountID string, checkIDs []string) (Result, error) {
	// Validate the full selection before touching anything. A duplicate ID
	// would pass per-check validation and then fail mid-apply, leaving a
	// cleared check with no record.
	seen := make(map[string]bool, len(checkIDs))
	for _, checkID := range checkIDs {
		if seen[checkID] {
			return Result{}, fmt.Errorf("check %s listed twice in selection: %w", checkID, model.ErrInvalidInput)
		}
		seen[checkID] = true
		chk, err := s.store.GetCheck(checkID)
		if err != nil {
			return Result{}, err
		}
		if chk.AccountID != accountID {
			return Result{}, fmt.Errorf("check %s does not belong to account %s: %w", checkID, accountID, model.ErrInvalidInput)
		}
		if chk.Status != model.StatusPending {
			return Result{}, fmt.Errorf("check %s is %s, only pending checks can be cleared: %w", checkID, chk.Status, model.ErrInvalidInput)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchID, err := s.nextBatchID()
	if err != nil {
		return Result{}, err
	}

	var records []model.ReconciliationRecord
	for _, checkID := range checkIDs {
		if err := s.store.SetCheckStatus(checkID, model.StatusCleared); err != nil {
			return Result{}, err
		}
		records = append(records, model.ReconciliationRecord{
			BatchID:    batchID,
			MovementID: checkID,
			Kind:       model.KindCheck,
			Basis:      model.BasisManual,
			Applied:    model.StatusCleared,
		})
	}

	if len(records) > 0 {
		if err := s.appendRecords(records); err != nil {
			return Result{}, err
		}
	}

	bookBalance, err := s.books.Balance(accountID)
	if err != nil {
		return Result{}, err
	}

	return Result{
		BatchID:     batchID,
		Records:     records,
		Unmatched:   s.store.Pending(accountID),
		BookBalance: bookBalance,
	}, nil
}

// Records returns every persisted reconciliation record.
func (s *Service) Records() ([]model.ReconciliationRecord, error) {
	f, err := os.Open(filepath.Join(s.bookRoot, recordsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening records: %w", err)
	}
	defer f.Close()

	return ReadRecords(f)
}

func (s *Service) applyMatch(batchID string, m Match) (model.ReconciliationRecord, error) {
	var applied model.CheckStatus
	switch m.Movement.Kind {
	case model.KindCheck:
		if err := s.store.SetCheckStatus(m.Movement.ID, model.StatusCleared); err != nil {
			return model.ReconciliationRecord{}, err
		}
		applied = model.StatusCleared
	case model.KindDeposit:
		if err := s.store.MarkDepositReconciled(m.Movement.ID); err != nil {
			return model.ReconciliationRecord{}, err
		}
		// Deposits have no lifecycle; the reconciled flag is reporting only.
		applied = model.StatusPending
	default:
		return model.ReconciliationRecord{}, fmt.Errorf("unknown movement kind %q: %w", m.Movement.Kind, model.ErrInvalidInput)
	}

	return model.ReconciliationRecord{
		BatchID:    batchID,
		MovementID: m.Movement.ID,
		Kind:       m.Movement.Kind,
		Basis:      m.Basis,
		LineDate:   m.Line.Date,
		LineDesc:   m.Line.Description,
		LineAmount: m.Line.Amount,
		Applied:    applied,
	}, nil
}

// nextBatchID returns the next sequential batch ID for the current month.
func (s *Service) nextBatchID() (string, error) {
	existing, err := s.Records()
	if err != nil {
		return "", err
	}

	now := s.now()
	year, month := now.Year(), int(now.Month())

	maxSeq := 0
	for _, rec := range existing {
		y, m, seq, err := id.ParseBatchID(rec.BatchID)
		if err != nil {
			continue
		}
		if y == year && m == month && seq > maxSeq {
			maxSeq = seq
		}
	}
	return id.FormatBatchID(year, month, maxSeq+1), nil
}

func (s *Service) appendRecords(records []model.ReconciliationRecord) error {
	path := filepath.Join(s.bookRoot, recordsFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating records dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening records: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	if err := AppendRecords(f, records); err != nil {
		return fmt.Errorf("appending records: %w", err)
	}
	return nil
}
