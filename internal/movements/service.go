package movements

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/chequera-dev/chequera/internal/model"
)

const (
	checksFile   = "movements/checks.csv"
	depositsFile = "movements/deposits.csv"
)

// Filter narrows a movement listing. Zero values mean "no constraint".
type Filter struct {
	Kind   model.MovementKind
	Status model.CheckStatus
	From   time.Time
	To     time.Time
}

// Service is the append-only store of checks and deposits. New rows are
// appended; the only rewrites are status transitions on checks and the
// reconciled flag on deposits.
type Service struct {
	bookRoot string

	mu       sync.RWMutex
	checks   []model.Check
	deposits []model.Deposit
}

// Load reads checks.csv and deposits.csv from a book root. Missing files
// yield an empty store.
func Load(bookRoot string) (*Service, error) {
	s := &Service{bookRoot: bookRoot}

	checks, err := readFile(filepath.Join(bookRoot, checksFile), ReadChecks)
	if err != nil {
		return nil, err
	}
	deposits, err := readFile(filepath.Join(bookRoot, depositsFile), ReadDeposits)
	if err != nil {
		return nil, err
	}

	s.checks = checks
	s.deposits = deposits
	return s, nil
}

func readFile[T any](path string, read func(r io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// AppendCheck persists a new check row and returns once it is durable.
// The store lock makes this the last word on number uniqueness: a number
// already recorded in the checkbook is rejected here even when two
// issuances passed the registry's duplicate check concurrently.
func (s *Service) AppendCheck(c model.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.checks {
		if existing.CheckbookID == c.CheckbookID && existing.Number == c.Number {
			return fmt.Errorf("check number %d already recorded in checkbook %s: %w",
				c.Number, c.CheckbookID, model.ErrDuplicateNumber)
		}
	}

	if err := appendRow(filepath.Join(s.bookRoot, checksFile), CheckHeader, func(f *os.File) error {
		return AppendChecks(f, []model.Check{c})
	}); err != nil {
		return err
	}
	s.checks = append(s.checks, c)
	return nil
}

// AppendDeposit persists a new deposit row and returns once it is durable.
func (s *Service) AppendDeposit(d model.Deposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := appendRow(filepath.Join(s.bookRoot, depositsFile), DepositHeader, func(f *os.File) error {
		return AppendDeposits(f, []model.Deposit{d})
	}); err != nil {
		return err
	}
	s.deposits = append(s.deposits, d)
	return nil
}

func appendRow(path, header string, write func(f *os.File) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating movements dir: %w", err)
	}

	isNew := false
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		isNew = true
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if isNew {
		if _, err := fmt.Fprintln(f, header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	return write(f)
}

// GetCheck returns a check by ID.
func (s *Service) GetCheck(id string) (model.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.checks {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Check{}, fmt.Errorf("check %s: %w", id, model.ErrNotFound)
}

// GetDeposit returns a deposit by ID.
func (s *Service) GetDeposit(id string) (model.Deposit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.deposits {
		if d.ID == id {
			return d, nil
		}
	}
	return model.Deposit{}, fmt.Errorf("deposit %s: %w", id, model.ErrNotFound)
}

// Checks returns all checks of a checkbook, any status.
func (s *Service) Checks(checkbookID string) []model.Check {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Check
	for _, c := range s.checks {
		if c.CheckbookID == checkbookID {
			out = append(out, c)
		}
	}
	return out
}

// NumberUsed reports whether a check number is already taken within a
// checkbook, voided checks included. Implements checkbook.NumberChecker.
func (s *Service) NumberUsed(checkbookID string, number int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.checks {
		if c.CheckbookID == checkbookID && c.Number == number {
			return true
		}
	}
	return false
}

// Pending returns the outstanding movements of an account, sorted by
// (date, ID) so matching output is order-independent: pending checks as
// negative amounts and unreconciled deposits as positive amounts.
func (s *Service) Pending(accountID string) []model.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Movement
	for _, c := range s.checks {
		if c.AccountID == accountID && c.Status == model.StatusPending {
			out = append(out, model.CheckMovement(c))
		}
	}
	for _, d := range s.deposits {
		if d.AccountID == accountID && !d.Reconciled {
			out = append(out, model.DepositMovement(d))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// List returns the movements of an account matching the filter, sorted by
// (date, ID).
func (s *Service) List(accountID string, filter Filter) []model.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Movement
	if filter.Kind == "" || filter.Kind == model.KindCheck {
		for _, c := range s.checks {
			if c.AccountID != accountID {
				continue
			}
			if filter.Status != "" && c.Status != filter.Status {
				continue
			}
			out = append(out, model.CheckMovement(c))
		}
	}
	if filter.Kind == "" || filter.Kind == model.KindDeposit {
		if filter.Status == "" || filter.Status == model.StatusPending {
			for _, d := range s.deposits {
				if d.AccountID == accountID {
					out = append(out, model.DepositMovement(d))
				}
			}
		}
	}

	filtered := out[:0]
	for _, m := range out {
		if !filter.From.IsZero() && m.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && m.Date.After(filter.To) {
			continue
		}
		filtered = append(filtered, m)
	}

	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].Date.Equal(filtered[j].Date) {
			return filtered[i].Date.Before(filtered[j].Date)
		}
		return filtered[i].ID < filtered[j].ID
	})
	return filtered
}

// SetCheckStatus applies a status transition to a check and rewrites
// checks.csv. Illegal transitions are rejected by the model.
func (s *Service) SetCheckStatus(checkID string, to model.CheckStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.checks {
		if c.ID == checkID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("check %s: %w", checkID, model.ErrNotFound)
	}

	if err := model.Transition(s.checks[idx].Status, to); err != nil {
		return err
	}

	prev := s.checks[idx].Status
	s.checks[idx].Status = to
	if err := s.rewriteChecks(); err != nil {
		s.checks[idx].Status = prev
		return err
	}
	return nil
}

// MarkDepositReconciled sets the reconciled flag on a deposit and rewrites
// deposits.csv. Marking an already reconciled deposit is a no-op.
func (s *Service) MarkDepositReconciled(depositID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, d := range s.deposits {
		if d.ID == depositID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("deposit %s: %w", depositID, model.ErrNotFound)
	}
	if s.deposits[idx].Reconciled {
		return nil
	}

	s.deposits[idx].Reconciled = true
	if err := s.rewriteDeposits(); err != nil {
		s.deposits[idx].Reconciled = false
		return err
	}
	return nil
}

func (s *Service) rewriteChecks() error {
	path := filepath.Join(s.bookRoot, checksFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return WriteChecks(f, s.checks)
}

func (s *Service) rewriteDeposits() error {
	path := filepath.Join(s.bookRoot, depositsFile)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return WriteDeposits(f, s.deposits)
}
