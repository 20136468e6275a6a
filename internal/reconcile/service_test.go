package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chequera-dev/chequera/internal/id"
	"github.com/chequera-dev/chequera/internal/importer"
	"github.com/chequera-dev/chequera/internal/ledger"
	"github.com/chequera-dev/chequera/internal/model"
	"github.com/chequera-dev/chequera/internal/movements"
)

type serviceFixture struct {
	dir    string
	ledger *ledger.Service
	store  *movements.Service
	svc    *Service
}

func newServiceFixture(t *testing.T, balance string) *serviceFixture {
	t.Helper()
	dir := t.TempDir()

	led, err := ledger.Load(dir)
	require.NoError(t, err)
	require.NoError(t, led.Add(model.Account{ID: "acct-1", Name: "Operating", Currency: "MXN", Balance: dec(balance)}))

	store, err := movements.Load(dir)
	require.NoError(t, err)

	return &serviceFixture{
		dir:    dir,
		ledger: led,
		store:  store,
		svc:    NewService(dir, store, led, 2),
	}
}

func (fx *serviceFixture) addCheck(t *testing.T, checkID string, number int, amount string, d time.Time) {
	t.Helper()
	require.NoError(t, fx.store.AppendCheck(model.Check{
		ID: checkID, CheckbookID: "cb-1", AccountID: "acct-1",
		Number: number, Date: d, Beneficiary: "Proveedor SA",
		Amount: dec(amount), Concept: "supplies", Status: model.StatusPending,
	}))
}

func (fx *serviceFixture) addDeposit(t *testing.T, depositID, ref, amount string, d time.Time) {
	t.Helper()
	require.NoError(t, fx.store.AppendDeposit(model.Deposit{
		ID: depositID, AccountID: "acct-1", Date: d,
		Amount: dec(amount), Type: model.DepositTransfer, Reference: ref, Concept: "payment",
	}))
}

func TestReconcile_ClearsMatchedCheck(t *testing.T) {
	fx := newServiceFixture(t, "350.00")
	d := date(2025, 3, 10)
	fx.addCheck(t, "chk-1", 101, "150.00", d)

	lines := []model.BankStatementLine{
		{Date: d, Description: "CHQ 000101 PROVEEDOR", Amount: dec("-150.00"), Reference: "101"},
	}

	result, err := fx.svc.Reconcile("acct-1", lines, nil, dec("500.00"))
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "chk-1", result.Records[0].MovementID)
	assert.Equal(t, model.BasisExactReference, result.Records[0].Basis)
	assert.Equal(t, model.StatusCleared, result.Records[0].Applied)

	chk, err := fx.store.GetCheck("chk-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCleared, chk.Status)

	// Difference = bank balance - book balance; the matcher never touches
	// the ledger.
	assert.True(t, result.BookBalance.Equal(dec("350.00")))
	assert.True(t, result.Difference.Equal(dec("150.00")))
}

func TestReconcile_MarksDepositReconciled(t *testing.T) {
	fx := newServiceFixture(t, "700.00")
	d := date(2025, 3, 12)
	fx.addDeposit(t, "dep-1", "TRF-9001", "200.00", d)

	lines := []model.BankStatementLine{
		{Date: d, Description: "TRANSFERENCIA 9001", Amount: dec("200.00"), Reference: "9001"},
	}

	result, err := fx.svc.Reconcile("acct-1", lines, nil, dec("700.00"))
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, model.KindDeposit, result.Records[0].Kind)

	dep, err := fx.store.GetDeposit("dep-1")
	require.NoError(t, err)
	assert.True(t, dep.Reconciled)

	// Balance untouched: deposits post at record time.
	balance, err := fx.ledger.Balance("acct-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("700.00")))
}

func TestReconcile_Idempotent(t *testing.T) {
	fx := newServiceFixture(t, "350.00")
	d := date(2025, 3, 10)
	fx.addCheck(t, "chk-1", 101, "150.00", d)

	lines := []model.BankStatementLine{
		{Date: d, Description: "CHQ 000101", Amount: dec("-150.00"), Reference: "101"},
	}

	first, err := fx.svc.Reconcile("acct-1", lines, nil, dec("500.00"))
	require.NoError(t, err)
	require.Len(t, first.Records, 1)

	// Same statement again: the cleared check is no longer outstanding, so
	// nothing matches and no records are duplicated.
	second, err := fx.svc.Reconcile("acct-1", lines, nil, dec("500.00"))
	require.NoError(t, err)
	assert.Empty(t, second.Records)

	all, err := fx.svc.Records()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReconcile_UnmatchedStayPending(t *testing.T) {
	fx := newServiceFixture(t, "0.00")
	d := date(2025, 3, 10)
	fx.addCheck(t, "chk-1", 101, "150.00", d)
	fx.addCheck(t, "chk-2", 102, "80.00", d)

	lines := []model.BankStatementLine{
		{Date: d, Description: "CHQ 000101", Amount: dec("-150.00"), Reference: "101"},
	}

	result, err := fx.svc.Reconcile("acct-1", lines, nil, dec("0.00"))
	require.NoError(t, err)
	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "chk-2", result.Unmatched[0].ID)

	chk, err := fx.store.GetCheck("chk-2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, chk.Status)
}

func TestReconcile_CarriesSkippedLines(t *testing.T) {
	fx := newServiceFixture(t, "0.00")

	skipped := []importer.SkippedLine{{Row: 4, Reason: "parsing date \"NOTADATE\""}}
	result, err := fx.svc.Reconcile("acct-1", nil, skipped, dec("0.00"))
	require.NoError(t, err)
	assert.Equal(t, skipped, result.Skipped)
}

func TestReconcile_BatchIDsSequence(t *testing.T) {
	fx := newServiceFixture(t, "0.00")
	fx.svc.now = func() time.Time { return date(2025, 3, 20) }
	d := date(2025, 3, 10)
	fx.addCheck(t, "chk-1", 101, "150.00", d)
	fx.addCheck(t, "chk-2", 102, "80.00", d)

	lines1 := []model.BankStatementLine{{Date: d, Description: "CHQ 0101", Amount: dec("-150.00"), Reference: "101"}}
	first, err := fx.svc.Reconcile("acct-1", lines1, nil, dec("0.00"))
	require.NoError(t, err)
	assert.Equal(t, id.FormatBatchID(2025, 3, 1), first.BatchID)

	lines2 := []model.BankStatementLine{{Date: d, Description: "CHQ 0102", Amount: dec("-80.00"), Reference: "102"}}
	second, err := fx.svc.Reconcile("acct-1", lines2, nil, dec("0.00"))
	require.NoError(t, err)
	assert.Equal(t, id.FormatBatchID(2025, 3, 2), second.BatchID)
}

func TestClearManual(t *testing.T) {
	fx := newServiceFixture(t, "350.00")
	d := date(2025, 3, 10)
	fx.addCheck(t, "chk-1", 101, "150.00", d)

	result, err := fx.svc.ClearManual("acct-1", []string{"chk-1"})
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, model.BasisManual, result.Records[0].Basis)
	assert.True(t, result.Records[0].LineDate.IsZero(), "manual clearing has no statement line")

	chk, err := fx.store.GetCheck("chk-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCleared, chk.Status)

	// Balance untouched: clearing only changes status.
	balance, err := fx.ledger.Balance("acct-1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("350.00")))
}

func TestClearManual_RejectsNonPending(t *testing.T) {
	fx := newServiceFixture(t, "0.00")
	d := date(2025, 3, 10)
	fx.addCheck(t, "chk-1", 101, "150.00", d)
	require.NoError(t, fx.store.SetCheckStatus("chk-1", model.StatusVoided))

	_, err := fx.svc.ClearManual("acct-1", []string{"chk-1"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestClearManual_RejectsUnknownCheck(t *testing.T) {
	fx := newServiceFixture(t, "0.00")
	_, err := fx.svc.ClearManual("acct-1", []string{"nope"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRecords_PersistsAcrossServices(t *testing.T) {
	fx := newServiceFixture(t, "0.00")
	d := date(2025, 3, 10)
	fx.addCheck(t, "chk-1", 101, "150.00", d)

	_, err := fx.svc.ClearManual("acct-1", []string{"chk-1"})
	require.NoError(t, err)

	other := NewService(fx.dir, fx.store, fx.ledger, 2)
	records, err := other.Records()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "chk-1", records[0].MovementID)
	assert.Equal(t, model.BasisManual, records[0].Basis)
}

func TestClearManual_RejectsDuplicateSelection(t *testing.T) {
	fx := newServiceFixture(t, "500.00")
	fx.addCheck(t, "chk-1", 101, "150.00", date(2025, 3, 10))

	_, err := fx.svc.ClearManual("acct-1", []string{"chk-1", "chk-1"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	// Nothing changed: the check stays pending and no record was appended.
	chk, err := fx.store.GetCheck("chk-1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, chk.Status)

	records, err := fx.svc.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}
