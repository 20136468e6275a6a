package reconcile

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

func checkMov(id, ref, amount string, d time.Time) model.Movement {
	return model.Movement{
		ID: id, Kind: model.KindCheck, AccountID: "acct-1",
		Date: d, Amount: dec(amount), Reference: ref, Status: model.StatusPending,
	}
}

func depositMov(id, ref, amount string, d time.Time) model.Movement {
	return model.Movement{
		ID: id, Kind: model.KindDeposit, AccountID: "acct-1",
		Date: d, Amount: dec(amount), Reference: ref, Status: model.StatusPending,
	}
}

func line(desc, ref, amount string, d time.Time) model.BankStatementLine {
	return model.BankStatementLine{Date: d, Description: desc, Amount: dec(amount), Reference: ref}
}

func TestFindMatches_ExactReference(t *testing.T) {
	m := NewMatcher(2)
	d := date(2025, 3, 10)

	movs := []model.Movement{checkMov("chk-1", "101", "-150.00", d)}
	lines := []model.BankStatementLine{line("CHQ 000101 PAGO", "101", "-150.00", d.AddDate(0, 0, 5))}

	matches := m.FindMatches(movs, lines)
	require.Len(t, matches, 1)
	assert.Equal(t, model.BasisExactReference, matches[0].Basis)
	assert.Equal(t, "chk-1", matches[0].Movement.ID)
}

func TestFindMatches_ExactRequiresAmount(t *testing.T) {
	m := NewMatcher(2)
	d := date(2025, 3, 10)

	movs := []model.Movement{checkMov("chk-1", "101", "-150.00", d)}
	lines := []model.BankStatementLine{line("CHQ 000101", "101", "-151.00", d)}

	assert.Empty(t, m.FindMatches(movs, lines))
}

func TestFindMatches_DepositReferenceToken(t *testing.T) {
	m := NewMatcher(2)
	d := date(2025, 3, 12)

	// The bank prints only the digit token of the deposit reference.
	movs := []model.Movement{depositMov("dep-1", "TRF-9001", "200.00", d)}
	lines := []model.BankStatementLine{line("TRANSFERENCIA 9001", "9001", "200.00", d)}

	matches := m.FindMatches(movs, lines)
	require.Len(t, matches, 1)
	assert.Equal(t, model.BasisExactReference, matches[0].Basis)
}

func TestFindMatches_HeuristicWithinBuffer(t *testing.T) {
	m := NewMatcher(2)
	d := date(2025, 3, 10)

	movs := []model.Movement{checkMov("chk-1", "101", "-150.00", d)}
	lines := []model.BankStatementLine{line("CARGO SIN REF", "", "-150.00", d.AddDate(0, 0, 2))}

	matches := m.FindMatches(movs, lines)
	require.Len(t, matches, 1)
	assert.Equal(t, model.BasisAmountDate, matches[0].Basis)
}

func TestFindMatches_HeuristicOutsideBuffer(t *testing.T) {
	m := NewMatcher(2)
	d := date(2025, 3, 10)

	movs := []model.Movement{checkMov("chk-1", "101", "-150.00", d)}
	lines := []model.BankStatementLine{line("CARGO SIN REF", "", "-150.00", d.AddDate(0, 0, 3))}

	assert.Empty(t, m.FindMatches(movs, lines))
}

func TestFindMatches_HeuristicClosestDateWins(t *testing.T) {
	m := NewMatcher(2)
	d := date(2025, 3, 10)

	movs := []model.Movement{checkMov("chk-1", "101", "-150.00", d)}
	lines := []model.BankStatementLine{
		line("FAR", "", "-150.00", d.AddDate(0, 0, 2)),
		line("NEAR", "", "-150.00", d.AddDate(0, 0, 1)),
	}

	matches := m.FindMatches(movs, lines)
	require.Len(t, matches, 1)
	assert.Equal(t, "NEAR", matches[0].Line.Description)
}

func TestFindMatches_ExactPassBeforeHeuristic(t *testing.T) {
	m := NewMatcher(2)
	d := date(2025, 3, 10)

	// chk-1 has no reference match; chk-2 matches the referenced line
	// exactly. The heuristic must not steal the referenced line for chk-1.
	movs := []model.Movement{
		checkMov("chk-1", "100", "-150.00", d),
		checkMov("chk-2", "101", "-150.00", d),
	}
	lines := []model.BankStatementLine{line("CHQ 000101", "101", "-150.00", d)}

	matches := m.FindMatches(movs, lines)
	require.Len(t, matches, 1)
	assert.Equal(t, "chk-2", matches[0].Movement.ID)
	assert.Equal(t, model.BasisExactReference, matches[0].Basis)
}

func TestFindMatches_LineSettlesOneMovement(t *testing.T) {
	m := NewMatcher(2)
	d := date(2025, 3, 10)

	movs := []model.Movement{
		checkMov("chk-1", "100", "-150.00", d),
		checkMov("chk-2", "101", "-150.00", d),
	}
	lines := []model.BankStatementLine{line("CARGO", "", "-150.00", d)}

	matches := m.FindMatches(movs, lines)
	require.Len(t, matches, 1)
}

func TestFindMatches_OrderIndependent(t *testing.T) {
	d := date(2025, 3, 10)
	movA := checkMov("chk-a", "100", "-50.00", d)
	movB := checkMov("chk-b", "101", "-150.00", d)
	lines := []model.BankStatementLine{
		line("CHQ 0101", "101", "-150.00", d),
		line("CHQ 0100", "100", "-50.00", d),
	}

	forward := NewMatcher(2).FindMatches([]model.Movement{movA, movB}, lines)
	reversed := NewMatcher(2).FindMatches([]model.Movement{movB, movA}, lines)

	key := func(ms []Match) map[string]string {
		out := make(map[string]string)
		for _, m := range ms {
			out[m.Movement.ID] = m.Line.Description
		}
		return out
	}
	assert.Equal(t, key(forward), key(reversed))
}

func TestUnmatched(t *testing.T) {
	d := date(2025, 3, 10)
	movs := []model.Movement{
		checkMov("chk-1", "100", "-50.00", d),
		checkMov("chk-2", "101", "-150.00", d),
	}
	matches := []Match{{Movement: movs[1]}}

	left := Unmatched(movs, matches)
	require.Len(t, left, 1)
	assert.Equal(t, "chk-1", left[0].ID)
}
