package model

// Checkbook is a contiguous range of check numbers bound to one account.
// Invariant: Start <= NextNumber <= End+1; when NextNumber > End the checkbook
// is exhausted and refuses automatic allocation.
type Checkbook struct {
	ID        string
	AccountID string
	Start     int
	End       int
	NextNumber int
	Active    bool
}

// Exhausted reports whether automatic allocation has run past the range.
func (cb Checkbook) Exhausted() bool {
	return cb.NextNumber > cb.End
}

// InRange reports whether n lies within [Start, End].
func (cb Checkbook) InRange(n int) bool {
	return n >= cb.Start && n <= cb.End
}
