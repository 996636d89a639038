package date

import "fmt"

// Range represents a range of dates, both boundaries included.
type Range struct{ From, To Date }

// NewRange returns the well known period containing d.
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// ToDate returns the range from the start of the period containing d up to d.
func ToDate(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Days returns the number of days in the range, 0 for an inverted range.
func (r Range) Days() int {
	n := DaysBetween(r.From, r.To) + 1
	if n < 0 {
		return 0
	}
	return n
}

func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }
