// Package interval provides half-open time range arithmetic for the
// reservation domain. A range covers [Start, End): the end instant is
// excluded, so back-to-back bookings do not overlap.
package interval

import "time"

// Business hours bound reservable time within a day, in the organization's
// local time zone.
const (
	BusinessOpenHour  = 7
	BusinessCloseHour = 19
)

// Range represents a half-open time interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// New returns a range covering [start, end).
func New(start, end time.Time) Range {
	return Range{Start: start, End: end}
}

// Valid reports whether the range is well formed: both bounds set and the
// end strictly after the start.
func (r Range) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.End.After(r.Start)
}

// Overlaps reports whether two half-open ranges share any instant.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// WithinBusinessHours reports whether the range falls inside business hours
// in the given location. The comparison is hour-granular: a range ending at
// 19:30 still passes because its end hour is 19. This mirrors the
// organization's established policy and must not be tightened without
// product confirmation.
func (r Range) WithinBusinessHours(loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	return r.Start.In(loc).Hour() >= BusinessOpenHour && r.End.In(loc).Hour() <= BusinessCloseHour
}

// IsWeekday reports whether the range starts on a weekday in the given
// location.
func (r Range) IsWeekday(loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	day := r.Start.In(loc).Weekday()
	return day != time.Saturday && day != time.Sunday
}

// DurationHours returns the length of the range in hours. Fractions are
// preserved.
func (r Range) DurationHours() float64 {
	return r.End.Sub(r.Start).Hours()
}
