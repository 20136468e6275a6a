package checkbook

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chequera-dev/chequera/internal/model"
)

// mockNumbers records used numbers per checkbook.
type mockNumbers map[string]bool

func (m mockNumbers) NumberUsed(checkbookID string, number int) bool {
	return m[fmt.Sprintf("%s:%d", checkbookID, number)]
}

func (m mockNumbers) use(checkbookID string, number int) {
	m[fmt.Sprintf("%s:%d", checkbookID, number)] = true
}

func newRegistry(t *testing.T, start, end int) *Service {
	t.Helper()
	svc, err := Load(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, svc.Add(model.Checkbook{
		ID: "cb-1", AccountID: "acct-1", Start: start, End: end, Active: true,
	}))
	return svc
}

func TestAllocate_SequentialUntilExhausted(t *testing.T) {
	svc := newRegistry(t, 100, 102)

	for want := 100; want <= 102; want++ {
		n, err := svc.Allocate("cb-1")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	_, err := svc.Allocate("cb-1")
	assert.ErrorIs(t, err, model.ErrExhausted)
}

func TestNextAvailable_DoesNotAdvance(t *testing.T) {
	svc := newRegistry(t, 100, 102)

	n, err := svc.NextAvailable("cb-1")
	require.NoError(t, err)
	assert.Equal(t, 100, n)

	// Preview again: still 100.
	n, err = svc.NextAvailable("cb-1")
	require.NoError(t, err)
	assert.Equal(t, 100, n)
}

func TestNextAvailable_Exhausted(t *testing.T) {
	svc := newRegistry(t, 100, 100)
	_, err := svc.Allocate("cb-1")
	require.NoError(t, err)

	_, err = svc.NextAvailable("cb-1")
	assert.ErrorIs(t, err, model.ErrExhausted)
}

func TestAllocateManual_OutOfRange(t *testing.T) {
	svc := newRegistry(t, 100, 102)

	_, err := svc.AllocateManual("cb-1", 105, mockNumbers{})
	assert.ErrorIs(t, err, model.ErrOutOfRange)
}

func TestAllocateManual_Duplicate(t *testing.T) {
	svc := newRegistry(t, 100, 102)
	used := mockNumbers{}
	used.use("cb-1", 101)

	_, err := svc.AllocateManual("cb-1", 101, used)
	assert.ErrorIs(t, err, model.ErrDuplicateNumber)
}

func TestAllocateManual_VoidedNumberNeverReused(t *testing.T) {
	svc := newRegistry(t, 100, 102)
	used := mockNumbers{}
	used.use("cb-1", 100) // voided check still occupies its number

	_, err := svc.AllocateManual("cb-1", 100, used)
	assert.ErrorIs(t, err, model.ErrDuplicateNumber)
}

func TestAllocateManual_AdvancesCursorOnlyAtCursor(t *testing.T) {
	svc := newRegistry(t, 100, 105)

	// Manual allocation ahead of the cursor does not move it.
	n, err := svc.AllocateManual("cb-1", 103, mockNumbers{})
	require.NoError(t, err)
	assert.Equal(t, 103, n)

	next, err := svc.NextAvailable("cb-1")
	require.NoError(t, err)
	assert.Equal(t, 100, next)

	// Manual allocation at the cursor advances it past the number.
	_, err = svc.AllocateManual("cb-1", 100, mockNumbers{})
	require.NoError(t, err)

	next, err = svc.NextAvailable("cb-1")
	require.NoError(t, err)
	assert.Equal(t, 101, next)
}

func TestRollback_OnlyWhenNoLaterAllocation(t *testing.T) {
	svc := newRegistry(t, 100, 105)

	first, err := svc.Allocate("cb-1")
	require.NoError(t, err)

	// No allocation since: rollback restores the cursor.
	require.NoError(t, svc.Rollback("cb-1", first))
	next, err := svc.NextAvailable("cb-1")
	require.NoError(t, err)
	assert.Equal(t, first, next)

	// Another allocation happened since: rollback leaves a gap instead.
	a, err := svc.Allocate("cb-1")
	require.NoError(t, err)
	_, err = svc.Allocate("cb-1")
	require.NoError(t, err)
	require.NoError(t, svc.Rollback("cb-1", a))

	next, err = svc.NextAvailable("cb-1")
	require.NoError(t, err)
	assert.Equal(t, 102, next)
}

func TestAllocate_ConcurrentNeverDuplicates(t *testing.T) {
	svc := newRegistry(t, 1, 200)

	const n = 100
	var wg sync.WaitGroup
	results := make(chan int, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			num, err := svc.Allocate("cb-1")
			require.NoError(t, err)
			results <- num
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	for num := range results {
		assert.False(t, seen[num], "number %d allocated twice", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestAllocate_ConcurrentLastNumber(t *testing.T) {
	svc := newRegistry(t, 100, 100)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Allocate("cb-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, exhausted int
	for err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, model.ErrExhausted)
			exhausted++
		}
	}
	assert.Equal(t, 1, ok, "exactly one caller wins the last number")
	assert.Equal(t, 1, exhausted)
}

func TestAdd_InvalidRange(t *testing.T) {
	svc, err := Load(t.TempDir())
	require.NoError(t, err)

	err = svc.Add(model.Checkbook{ID: "cb-x", AccountID: "a", Start: 10, End: 5})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestLoad_RestoresCursor(t *testing.T) {
	dir := t.TempDir()
	svc, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, svc.Add(model.Checkbook{ID: "cb-1", AccountID: "a", Start: 100, End: 110, Active: true}))
	_, err = svc.Allocate("cb-1")
	require.NoError(t, err)

	reloaded, err := Load(dir)
	require.NoError(t, err)
	next, err := reloaded.NextAvailable("cb-1")
	require.NoError(t, err)
	assert.Equal(t, 101, next)
}

func TestAllocate_ConcurrentAcrossCheckbooks(t *testing.T) {
	svc := newRegistry(t, 100, 199)
	require.NoError(t, svc.Add(model.Checkbook{
		ID: "cb-2", AccountID: "acct-1", Start: 500, End: 599, Active: true,
	}))

	// Each allocation snapshots every checkbook while saving, so cursor
	// writes on one book must never tear a concurrent snapshot of the other.
	const n = 30
	var wg sync.WaitGroup
	wg.Add(2 * n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Allocate("cb-1")
			require.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Allocate("cb-2")
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	cb1, err := svc.Get("cb-1")
	require.NoError(t, err)
	assert.Equal(t, 100+n, cb1.NextNumber)
	cb2, err := svc.Get("cb-2")
	require.NoError(t, err)
	assert.Equal(t, 500+n, cb2.NextNumber)
}
