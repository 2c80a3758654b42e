package domain

import (
	"fmt"
	"time"
)

// DateRange is the half-open interval [From, To). A zero bound is open.
type DateRange struct {
	From time.Time `json:"from,omitempty"`
	To   time.Time `json:"to,omitempty"`
}

// Bounded reports whether both ends are set.
func (r DateRange) Bounded() bool {
	return !r.From.IsZero() && !r.To.IsZero()
}

// Validate rejects ranges whose end is not after their start.
func (r DateRange) Validate() error {
	if r.Bounded() && !r.To.After(r.From) {
		return fmt.Errorf("%w: range end %s is not after start %s",
			ErrInvalidDateRange, r.To.Format(time.DateOnly), r.From.Format(time.DateOnly))
	}
	return nil
}

// Contains reports whether t falls in the range. The zero time is never
// contained in a range with a lower bound.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// Previous returns the window of equal length ending where r starts. It
// reports false for unbounded ranges.
func (r DateRange) Previous() (DateRange, bool) {
	if !r.Bounded() {
		return DateRange{}, false
	}
	length := r.To.Sub(r.From)
	return DateRange{From: r.From.Add(-length), To: r.From}, true
}

// YearAgo shifts both bounds back one calendar year. It reports false for
// unbounded ranges.
func (r DateRange) YearAgo() (DateRange, bool) {
	if !r.Bounded() {
		return DateRange{}, false
	}
	return DateRange{From: r.From.AddDate(-1, 0, 0), To: r.To.AddDate(-1, 0, 0)}, true
}

// TrailingDays returns [now-days, now) truncated to whole UTC days.
func TrailingDays(now time.Time, days int) DateRange {
	end := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	return DateRange{From: end.AddDate(0, 0, -days), To: end}
}

// String renders the range for logs and cache keys.
func (r DateRange) String() string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "*"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return format(r.From) + ".." + format(r.To)
}

// ReviewQuery is the read contract of the review store: reviews for one
// business (or all) whose publication date falls in Range. Reviews without
// a date are returned only when Range has no lower bound.
type ReviewQuery struct {
	Business BusinessFilter
	Range    DateRange
}
