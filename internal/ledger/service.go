package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/chequera-dev/chequera/internal/model"
)

const accountsFile = "accounts/accounts.csv"

// Service holds accounts and their running balances. Balances are mutated
// only through Debit/Credit; concurrent operations on one account serialize
// on a per-account lock, so the final balance always equals the initial
// balance plus the sum of applied deltas.
type Service struct {
	bookRoot string

	mu       sync.RWMutex // guards accounts and locks maps
	accounts map[string]*model.Account
	locks    map[string]*sync.Mutex

	fileMu sync.Mutex // serializes accounts.csv writes
}

// Load reads accounts.csv from a book root and returns a Service. A missing
// file yields an empty ledger.
func Load(bookRoot string) (*Service, error) {
	s := &Service{
		bookRoot: bookRoot,
		accounts: make(map[string]*model.Account),
		locks:    make(map[string]*sync.Mutex),
	}

	f, err := os.Open(filepath.Join(bookRoot, accountsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading accounts: %w", err)
	}
	for i := range accts {
		a := accts[i]
		s.accounts[a.ID] = &a
		s.locks[a.ID] = &sync.Mutex{}
	}
	return s, nil
}

// Add registers a new account and persists the ledger.
func (s *Service) Add(acct model.Account) error {
	if acct.ID == "" || acct.Name == "" {
		return fmt.Errorf("account id and name are required: %w", model.ErrInvalidInput)
	}

	s.mu.Lock()
	if _, ok := s.accounts[acct.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("account %s already exists: %w", acct.ID, model.ErrInvalidInput)
	}
	s.accounts[acct.ID] = &acct
	s.locks[acct.ID] = &sync.Mutex{}
	s.mu.Unlock()

	return s.save()
}

// Get returns an account snapshot by ID.
func (s *Service) Get(id string) (model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, fmt.Errorf("account %s: %w", id, model.ErrNotFound)
	}
	return *a, nil
}

// All returns snapshots of every account.
func (s *Service) All() []model.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, *a)
	}
	return out
}

// Balance returns the current book balance of an account.
func (s *Service) Balance(id string) (decimal.Decimal, error) {
	a, err := s.Get(id)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return a.Balance, nil
}

// Debit subtracts amount from the account balance. Fails with
// ErrInsufficientFunds when amount exceeds the balance; whether that blocks
// or merely warns is the caller's policy.
func (s *Service) Debit(id string, amount decimal.Decimal) error {
	return s.apply(id, amount.Neg(), true)
}

// ForceDebit subtracts amount without the funds check. Used when the
// overdraft policy allows the balance to go negative.
func (s *Service) ForceDebit(id string, amount decimal.Decimal) error {
	return s.apply(id, amount.Neg(), false)
}

// Credit adds amount to the account balance.
func (s *Service) Credit(id string, amount decimal.Decimal) error {
	return s.apply(id, amount, false)
}

// apply performs a serialized read-modify-write of one account balance and
// persists it before reporting success. On a persistence failure the
// in-memory balance is restored.
func (s *Service) apply(id string, delta decimal.Decimal, checkFunds bool) error {
	if !delta.Abs().IsPositive() {
		return fmt.Errorf("amount must be positive: %w", model.ErrInvalidInput)
	}

	s.mu.RLock()
	acct, ok := s.accounts[id]
	lock := s.locks[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("account %s: %w", id, model.ErrNotFound)
	}

	lock.Lock()
	defer lock.Unlock()

	if checkFunds && delta.Neg().GreaterThan(acct.Balance) {
		return fmt.Errorf("debit %s exceeds balance %s on account %s: %w",
			delta.Abs().StringFixed(2), acct.Balance.StringFixed(2), id, model.ErrInsufficientFunds)
	}

	prev := acct.Balance
	s.setBalance(acct, acct.Balance.Add(delta))
	if err := s.save(); err != nil {
		s.setBalance(acct, prev)
		return err
	}
	return nil
}

// setBalance writes a balance under the map write lock so that concurrent
// snapshot readers (Get, All, save on another account's behalf) never see a
// torn value. The caller holds the per-account lock.
func (s *Service) setBalance(acct *model.Account, balance decimal.Decimal) {
	s.mu.Lock()
	acct.Balance = balance
	s.mu.Unlock()
}

func (s *Service) save() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	dir := filepath.Join(s.bookRoot, filepath.Dir(accountsFile))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(filepath.Join(s.bookRoot, accountsFile))
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.All()); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return nil
}
