package reconcile

import (
	"time"

	"github.com/chequera-dev/chequera/internal/importer"
	"github.com/chequera-dev/chequera/internal/model"
)

// MatchingStrategy finds the statement line that settles a movement.
// candidates maps line index to the line; the strategy returns the index of
// its pick.
type MatchingStrategy interface {
	Match(mov model.Movement, lines []model.BankStatementLine, available func(i int) bool) (int, bool)
	Basis() model.MatchBasis
}

// ExactReferenceStrategy matches on the extracted reference token equalling
// the movement's check number or deposit reference, with equal signed
// amounts.
type ExactReferenceStrategy struct{}

// Basis implements MatchingStrategy.
func (s ExactReferenceStrategy) Basis() model.MatchBasis { return model.BasisExactReference }

// Match implements MatchingStrategy.
func (s ExactReferenceStrategy) Match(mov model.Movement, lines []model.BankStatementLine, available func(i int) bool) (int, bool) {
	for i, line := range lines {
		if !available(i) {
			continue
		}
		if line.Reference == "" {
			continue
		}
		if !referenceMatches(line.Reference, mov.Reference) {
			continue
		}
		if !line.Amount.Equal(mov.Amount) {
			continue
		}
		return i, true
	}
	return 0, false
}

// referenceMatches compares an extracted statement reference against a
// movement reference. Deposit references may embed their digit token in a
// longer string ("TRF-9001"), so the movement side is reduced the same way
// the statement side was.
func referenceMatches(lineRef, movRef string) bool {
	if movRef == "" {
		return false
	}
	if lineRef == movRef {
		return true
	}
	return importer.ExtractReference(movRef) == lineRef
}

// AmountDateStrategy matches an unreferenced line on equal signed amount
// and a date within the buffer window; the closest date wins ties.
type AmountDateStrategy struct {
	BufferDays int
}

// Basis implements MatchingStrategy.
func (s AmountDateStrategy) Basis() model.MatchBasis { return model.BasisAmountDate }

// Match implements MatchingStrategy.
func (s AmountDateStrategy) Match(mov model.Movement, lines []model.BankStatementLine, available func(i int) bool) (int, bool) {
	best := -1
	var bestDist int
	for i, line := range lines {
		if !available(i) {
			continue
		}
		if !line.Amount.Equal(mov.Amount) {
			continue
		}
		dist := daysApart(mov.Date, line.Date)
		if dist > s.BufferDays {
			continue
		}
		if best < 0 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

func daysApart(a, b time.Time) int {
	aDay := a.Truncate(24 * time.Hour)
	bDay := b.Truncate(24 * time.Hour)
	d := int(aDay.Sub(bDay).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}
