package gpstime

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSpan is returned when a span's end precedes its start.
var ErrInvalidSpan = errors.New("invalid span: end is before start")

// ErrNotMonday is returned when a week span does not begin on a Monday.
// Weekly reports are aligned to ISO weeks, so any other weekday is a
// calendar mismatch, not a usable span.
var ErrNotMonday = errors.New("week must start on a Monday")

// Span is a half-open GPS interval [Start, End).
type Span struct {
	Start float64
	End   float64
}

// NewSpan builds a span, rejecting End < Start. A zero-length span is
// allowed; it simply contains nothing.
func NewSpan(start, end float64) (Span, error) {
	if end < start {
		return Span{}, fmt.Errorf("%w: [%v, %v)", ErrInvalidSpan, start, end)
	}
	return Span{Start: start, End: end}, nil
}

// Duration returns the span length in seconds.
func (s Span) Duration() float64 {
	return s.End - s.Start
}

// Contains reports whether t lies inside the half-open interval.
func (s Span) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// Intersects reports whether the two spans overlap.
func (s Span) Intersects(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// String renders the span as "[start, end)".
func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", int64(s.Start), int64(s.End))
}

// DaySpan returns the span covering one UTC day.
func DaySpan(date time.Time) Span {
	y, m, d := date.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Span{
		Start: float64(ToGPS(start)),
		End:   float64(ToGPS(start.AddDate(0, 0, 1))),
	}
}

// WeekSpan returns the span covering one ISO week starting at the given
// Monday. Any other weekday returns ErrNotMonday.
func WeekSpan(monday time.Time) (Span, error) {
	if monday.UTC().Weekday() != time.Monday {
		return Span{}, fmt.Errorf("%w: %s is a %s",
			ErrNotMonday, monday.Format("2006-01-02"), monday.Weekday())
	}
	y, m, d := monday.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Span{
		Start: float64(ToGPS(start)),
		End:   float64(ToGPS(start.AddDate(0, 0, 7))),
	}, nil
}

// MonthSpan returns the span covering one calendar month.
func MonthSpan(year int, month time.Month) Span {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Span{
		Start: float64(ToGPS(start)),
		End:   float64(ToGPS(start.AddDate(0, 1, 0))),
	}
}

// Days splits the span at UTC day boundaries, for daily incremental
// archives. Partial leading/trailing days are kept.
func (s Span) Days() []Span {
	var out []Span
	cur := s.Start
	for cur < s.End {
		t := FromGPS(int64(cur))
		y, m, d := t.Date()
		next := float64(ToGPS(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)))
		if next > s.End {
			next = s.End
		}
		out = append(out, Span{Start: cur, End: next})
		cur = next
	}
	return out
}
