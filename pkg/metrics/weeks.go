package metrics

import (
	"time"

	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

// Kinds of the calendar-week metrics.
const (
	KindWeeksWithCommits        Kind = "weeks_with_commits"
	KindRangeOfWeeksWithCommits Kind = "range_of_weeks_with_commits"
)

const (
	secondsPerDay = 24 * 60 * 60
	daysPerWeek   = 7
	// epochWeekdayShift aligns week boundaries on Mondays: 1970-01-01 was a Thursday.
	epochWeekdayShift = 3
)

// weekIndex returns a Monday-based week number for t, using t's own wall clock.
func weekIndex(t time.Time) int64 {
	_, offset := t.Zone()
	days := floorDiv(t.Unix()+int64(offset), secondsPerDay)

	return floorDiv(days+epochWeekdayShift, daysPerWeek)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

// WeeksWithCommits counts the distinct calendar weeks in which a file was modified.
// Modifications without a timestamp are ignored.
type WeeksWithCommits struct {
	weeks map[int64]struct{}
}

// NewWeeksWithCommits creates a week counter starting at zero.
func NewWeeksWithCommits() Metric {
	return &WeeksWithCommits{weeks: make(map[int64]struct{})}
}

// Value returns the number of distinct weeks.
func (m *WeeksWithCommits) Value() int64 { return int64(len(m.weeks)) }

// RegisterModification records the week of the modification.
func (m *WeeksWithCommits) RegisterModification(mod scm.Modification) {
	if mod.When.IsZero() {
		return
	}

	m.weeks[weekIndex(mod.When)] = struct{}{}
}

// RangeOfWeeksWithCommits is the number of calendar weeks spanned from the first to
// the last modification of a file, both included. Zero until a timestamped
// modification is registered.
type RangeOfWeeksWithCommits struct {
	first, last int64
	seen        bool
}

// NewRangeOfWeeksWithCommits creates a week range starting at zero.
func NewRangeOfWeeksWithCommits() Metric {
	return &RangeOfWeeksWithCommits{}
}

// Value returns the week span.
func (m *RangeOfWeeksWithCommits) Value() int64 {
	if !m.seen {
		return 0
	}

	return m.last - m.first + 1
}

// RegisterModification widens the range to include the modification's week.
func (m *RangeOfWeeksWithCommits) RegisterModification(mod scm.Modification) {
	if mod.When.IsZero() {
		return
	}

	week := weekIndex(mod.When)

	if !m.seen {
		m.first, m.last, m.seen = week, week, true

		return
	}

	m.first = min(m.first, week)
	m.last = max(m.last, week)
}
