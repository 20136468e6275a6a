package movements

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chequera-dev/chequera/internal/model"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func check(id string, number int, amount string, status model.CheckStatus) model.Check {
	return model.Check{
		ID:          id,
		CheckbookID: "cb-1",
		AccountID:   "acct-1",
		Number:      number,
		Date:        date(2025, 3, 10),
		Beneficiary: "Proveedor SA",
		Amount:      dec(amount),
		Concept:     "supplies",
		Status:      status,
	}
}

func deposit(id, amount string) model.Deposit {
	return model.Deposit{
		ID:        id,
		AccountID: "acct-1",
		Date:      date(2025, 3, 12),
		Amount:    dec(amount),
		Type:      model.DepositTransfer,
		Reference: "TRF-9001",
		Concept:   "client payment",
	}
}

func newStore(t *testing.T) *Service {
	t.Helper()
	svc, err := Load(t.TempDir())
	require.NoError(t, err)
	return svc
}

func TestAppendAndReload(t *testing.T) {
	dir := t.TempDir()
	svc, err := Load(dir)
	require.NoError(t, err)

	require.NoError(t, svc.AppendCheck(check("chk-1", 100, "150.00", model.StatusPending)))
	require.NoError(t, svc.AppendDeposit(deposit("dep-1", "200.00")))

	reloaded, err := Load(dir)
	require.NoError(t, err)

	c, err := reloaded.GetCheck("chk-1")
	require.NoError(t, err)
	assert.Equal(t, 100, c.Number)
	assert.True(t, c.Amount.Equal(dec("150.00")))

	d, err := reloaded.GetDeposit("dep-1")
	require.NoError(t, err)
	assert.Equal(t, model.DepositTransfer, d.Type)
	assert.False(t, d.Reconciled)
}

func TestNumberUsed_AnyStatus(t *testing.T) {
	svc := newStore(t)
	require.NoError(t, svc.AppendCheck(check("chk-1", 100, "10.00", model.StatusPending)))
	require.NoError(t, svc.AppendCheck(check("chk-2", 101, "10.00", model.StatusVoided)))

	assert.True(t, svc.NumberUsed("cb-1", 100))
	assert.True(t, svc.NumberUsed("cb-1", 101), "voided numbers stay used")
	assert.False(t, svc.NumberUsed("cb-1", 102))
	assert.False(t, svc.NumberUsed("cb-other", 100))
}

func TestPending_SignedView(t *testing.T) {
	svc := newStore(t)
	require.NoError(t, svc.AppendCheck(check("chk-1", 100, "150.00", model.StatusPending)))
	require.NoError(t, svc.AppendCheck(check("chk-2", 101, "75.00", model.StatusCleared)))
	require.NoError(t, svc.AppendDeposit(deposit("dep-1", "200.00")))

	pending := svc.Pending("acct-1")
	require.Len(t, pending, 2, "cleared check excluded")

	byID := make(map[string]model.Movement)
	for _, m := range pending {
		byID[m.ID] = m
	}
	assert.True(t, byID["chk-1"].Amount.Equal(dec("-150.00")), "checks are negative")
	assert.Equal(t, "100", byID["chk-1"].Reference)
	assert.True(t, byID["dep-1"].Amount.Equal(dec("200.00")), "deposits are positive")
	assert.Equal(t, "TRF-9001", byID["dep-1"].Reference)
}

func TestSetCheckStatus(t *testing.T) {
	dir := t.TempDir()
	svc, err := Load(dir)
	require.NoError(t, err)
	require.NoError(t, svc.AppendCheck(check("chk-1", 100, "150.00", model.StatusPending)))

	require.NoError(t, svc.SetCheckStatus("chk-1", model.StatusCleared))

	// Terminal state: no further transition.
	err = svc.SetCheckStatus("chk-1", model.StatusVoided)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	// Durable across reload.
	reloaded, err := Load(dir)
	require.NoError(t, err)
	c, err := reloaded.GetCheck("chk-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCleared, c.Status)
}

func TestSetCheckStatus_Unknown(t *testing.T) {
	svc := newStore(t)
	err := svc.SetCheckStatus("nope", model.StatusCleared)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMarkDepositReconciled_Idempotent(t *testing.T) {
	svc := newStore(t)
	require.NoError(t, svc.AppendDeposit(deposit("dep-1", "200.00")))

	require.NoError(t, svc.MarkDepositReconciled("dep-1"))
	require.NoError(t, svc.MarkDepositReconciled("dep-1"))

	d, err := svc.GetDeposit("dep-1")
	require.NoError(t, err)
	assert.True(t, d.Reconciled)

	assert.Empty(t, svc.Pending("acct-1"), "reconciled deposit is no longer outstanding")
}

func TestList_Filters(t *testing.T) {
	svc := newStore(t)
	early := check("chk-1", 100, "10.00", model.StatusPending)
	early.Date = date(2025, 1, 5)
	require.NoError(t, svc.AppendCheck(early))
	require.NoError(t, svc.AppendCheck(check("chk-2", 101, "20.00", model.StatusVoided)))
	require.NoError(t, svc.AppendDeposit(deposit("dep-1", "200.00")))

	all := svc.List("acct-1", Filter{})
	assert.Len(t, all, 3)

	checksOnly := svc.List("acct-1", Filter{Kind: model.KindCheck})
	assert.Len(t, checksOnly, 2)

	voided := svc.List("acct-1", Filter{Status: model.StatusVoided})
	require.Len(t, voided, 1)
	assert.Equal(t, "chk-2", voided[0].ID)

	march := svc.List("acct-1", Filter{From: date(2025, 3, 1), To: date(2025, 3, 31)})
	assert.Len(t, march, 2, "january check excluded")
}

func TestList_SortedByDateThenID(t *testing.T) {
	svc := newStore(t)
	b := check("chk-b", 101, "10.00", model.StatusPending)
	a := check("chk-a", 100, "10.00", model.StatusPending)
	require.NoError(t, svc.AppendCheck(b))
	require.NoError(t, svc.AppendCheck(a))

	out := svc.List("acct-1", Filter{})
	require.Len(t, out, 2)
	assert.Equal(t, "chk-a", out[0].ID)
	assert.Equal(t, "chk-b", out[1].ID)
}

func TestAppendCheck_RejectsDuplicateNumber(t *testing.T) {
	svc := newStore(t)

	require.NoError(t, svc.AppendCheck(check("chk-1", 100, "150.00", model.StatusVoided)))

	err := svc.AppendCheck(check("chk-2", 100, "75.00", model.StatusPending))
	assert.ErrorIs(t, err, model.ErrDuplicateNumber)

	_, err = svc.GetCheck("chk-2")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
