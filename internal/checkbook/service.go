package checkbook

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/chequera-dev/chequera/internal/model"
)

const checkbooksFile = "accounts/checkbooks.csv"

// NumberChecker tests whether a check number has already been used within a
// checkbook, in any status. The movement store implements it.
type NumberChecker interface {
	NumberUsed(checkbookID string, number int) bool
}

// Service allocates check numbers from range-bounded checkbooks. The
// NextNumber cursor is the only contended state; all cursor reads and
// writes for one checkbook serialize on a per-checkbook lock, so two
// concurrent allocations never receive the same number.
type Service struct {
	bookRoot string

	mu    sync.RWMutex // guards books and locks maps
	books map[string]*model.Checkbook
	locks map[string]*sync.Mutex

	fileMu sync.Mutex // serializes checkbooks.csv writes
}

// Load reads checkbooks.csv from a book root and returns a Service. A
// missing file yields an empty registry.
func Load(bookRoot string) (*Service, error) {
	s := &Service{
		bookRoot: bookRoot,
		books:    make(map[string]*model.Checkbook),
		locks:    make(map[string]*sync.Mutex),
	}

	f, err := os.Open(filepath.Join(bookRoot, checkbooksFile))
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening checkbooks: %w", err)
	}
	defer f.Close()

	books, err := ReadCheckbooks(f)
	if err != nil {
		return nil, fmt.Errorf("reading checkbooks: %w", err)
	}
	for i := range books {
		cb := books[i]
		s.books[cb.ID] = &cb
		s.locks[cb.ID] = &sync.Mutex{}
	}
	return s, nil
}

// Add registers a new checkbook with its cursor at the range start.
func (s *Service) Add(cb model.Checkbook) error {
	if cb.ID == "" || cb.AccountID == "" {
		return fmt.Errorf("checkbook id and account id are required: %w", model.ErrInvalidInput)
	}
	if cb.Start <= 0 || cb.End < cb.Start {
		return fmt.Errorf("invalid range [%d,%d]: %w", cb.Start, cb.End, model.ErrInvalidInput)
	}
	if cb.NextNumber == 0 {
		cb.NextNumber = cb.Start
	}
	if cb.NextNumber < cb.Start || cb.NextNumber > cb.End+1 {
		return fmt.Errorf("cursor %d outside [%d,%d+1]: %w", cb.NextNumber, cb.Start, cb.End, model.ErrInvalidInput)
	}

	s.mu.Lock()
	if _, ok := s.books[cb.ID]; ok {
		s.mu.Unlock()
		return fmt.Errorf("checkbook %s already exists: %w", cb.ID, model.ErrInvalidInput)
	}
	s.books[cb.ID] = &cb
	s.locks[cb.ID] = &sync.Mutex{}
	s.mu.Unlock()

	return s.save()
}

// Get returns a checkbook snapshot by ID.
func (s *Service) Get(id string) (model.Checkbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cb, ok := s.books[id]
	if !ok {
		return model.Checkbook{}, fmt.Errorf("checkbook %s: %w", id, model.ErrNotFound)
	}
	return *cb, nil
}

// ForAccount returns snapshots of every checkbook owned by an account.
func (s *Service) ForAccount(accountID string) []model.Checkbook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Checkbook
	for _, cb := range s.books {
		if cb.AccountID == accountID {
			out = append(out, *cb)
		}
	}
	return out
}

// All returns snapshots of every checkbook.
func (s *Service) All() []model.Checkbook {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Checkbook, 0, len(s.books))
	for _, cb := range s.books {
		out = append(out, *cb)
	}
	return out
}

// NextAvailable previews the number the next automatic allocation would
// return, without mutating the cursor.
func (s *Service) NextAvailable(id string) (int, error) {
	cb, lock, err := s.book(id)
	if err != nil {
		return 0, err
	}

	lock.Lock()
	defer lock.Unlock()

	if cb.Exhausted() {
		return 0, fmt.Errorf("checkbook %s has no numbers left in [%d,%d]: %w", id, cb.Start, cb.End, model.ErrExhausted)
	}
	return cb.NextNumber, nil
}

// Allocate takes the next number from the cursor and advances it, as one
// serialized step. Fails with ErrExhausted when the cursor has run past the
// range end.
func (s *Service) Allocate(id string) (int, error) {
	cb, lock, err := s.book(id)
	if err != nil {
		return 0, err
	}

	lock.Lock()
	defer lock.Unlock()

	if cb.Exhausted() {
		return 0, fmt.Errorf("checkbook %s has no numbers left in [%d,%d]: %w", id, cb.Start, cb.End, model.ErrExhausted)
	}

	n := cb.NextNumber
	s.setCursor(cb, n+1)
	if err := s.save(); err != nil {
		s.setCursor(cb, n)
		return 0, err
	}
	return n, nil
}

// setCursor writes a cursor under the map write lock so that concurrent
// snapshot readers (Get, All, save on another checkbook's behalf) never see
// a torn value. The caller holds the per-checkbook lock.
func (s *Service) setCursor(cb *model.Checkbook, next int) {
	s.mu.Lock()
	cb.NextNumber = next
	s.mu.Unlock()
}

// AllocateManual reserves a caller-chosen number. The number must lie in the
// range and must not be used by any check in the checkbook, voided included.
// The cursor only advances when the requested number equals it, so manual
// and automatic allocation never collide going forward.
func (s *Service) AllocateManual(id string, number int, used NumberChecker) (int, error) {
	cb, lock, err := s.book(id)
	if err != nil {
		return 0, err
	}

	lock.Lock()
	defer lock.Unlock()

	if !cb.InRange(number) {
		return 0, fmt.Errorf("number %d outside [%d,%d] of checkbook %s: %w", number, cb.Start, cb.End, id, model.ErrOutOfRange)
	}
	if used.NumberUsed(id, number) {
		return 0, fmt.Errorf("number %d already used in checkbook %s: %w", number, id, model.ErrDuplicateNumber)
	}

	if number == cb.NextNumber {
		s.setCursor(cb, number+1)
		if err := s.save(); err != nil {
			s.setCursor(cb, number)
			return 0, err
		}
	}
	return number, nil
}

// Rollback returns an automatically allocated number to the cursor. It only
// applies when no later allocation has occurred, i.e. the cursor still sits
// just past the released number; otherwise the number is left as a gap.
func (s *Service) Rollback(id string, number int) error {
	cb, lock, err := s.book(id)
	if err != nil {
		return err
	}

	lock.Lock()
	defer lock.Unlock()

	if cb.NextNumber != number+1 {
		return nil
	}
	s.setCursor(cb, number)
	if err := s.save(); err != nil {
		s.setCursor(cb, number+1)
		return err
	}
	return nil
}

func (s *Service) book(id string) (*model.Checkbook, *sync.Mutex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cb, ok := s.books[id]
	if !ok {
		return nil, nil, fmt.Errorf("checkbook %s: %w", id, model.ErrNotFound)
	}
	return cb, s.locks[id], nil
}

func (s *Service) save() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	dir := filepath.Join(s.bookRoot, filepath.Dir(checkbooksFile))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating checkbooks dir: %w", err)
	}

	f, err := os.Create(filepath.Join(s.bookRoot, checkbooksFile))
	if err != nil {
		return fmt.Errorf("creating checkbooks file: %w", err)
	}
	defer f.Close()

	if err := WriteCheckbooks(f, s.All()); err != nil {
		return fmt.Errorf("writing checkbooks: %w", err)
	}
	return nil
}
