package reconcile

import (
	"sort"

	"github.com/chequera-dev/chequera/internal/model"
)

// Match pairs a movement with the statement line that settles it.
type Match struct {
	Movement model.Movement
	Line     model.BankStatementLine
	Basis    model.MatchBasis
}

// Matcher runs strategies in order over a set of pending movements. Each
// statement line settles at most one movement.
type Matcher struct {
	strategies []MatchingStrategy
}

// NewMatcher creates a Matcher. With no explicit strategies it uses exact
// reference matching followed by the amount+date heuristic.
func NewMatcher(bufferDays int, strategies ...MatchingStrategy) *Matcher {
	if len(strategies) == 0 {
		strategies = []MatchingStrategy{
			ExactReferenceStrategy{},
			AmountDateStrategy{BufferDays: bufferDays},
		}
	}
	return &Matcher{strategies: strategies}
}

// FindMatches matches movements against statement lines. Movements are
// processed in (date, ID) order and strategies run as full passes, so the
// output does not depend on input order: every exact match is taken before
// any heuristic one.
func (m *Matcher) FindMatches(movs []model.Movement, lines []model.BankStatementLine) []Match {
	ordered := make([]model.Movement, len(movs))
	copy(ordered, movs)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].ID < ordered[j].ID
	})

	lineTaken := make([]bool, len(lines))
	movMatched := make([]bool, len(ordered))
	available := func(i int) bool { return !lineTaken[i] }

	var matches []Match
	for _, strategy := range m.strategies {
		for mi, mov := range ordered {
			if movMatched[mi] {
				continue
			}
			li, ok := strategy.Match(mov, lines, available)
			if !ok {
				continue
			}
			lineTaken[li] = true
			movMatched[mi] = true
			matches = append(matches, Match{Movement: mov, Line: lines[li], Basis: strategy.Basis()})
		}
	}
	return matches
}

// Unmatched returns the movements left pending after matching.
func Unmatched(movs []model.Movement, matches []Match) []model.Movement {
	matched := make(map[string]bool, len(matches))
	for _, m := range matches {
		matched[m.Movement.ID] = true
	}
	var out []model.Movement
	for _, mov := range movs {
		if !matched[mov.ID] {
			out = append(out, mov)
		}
	}
	return out
}
