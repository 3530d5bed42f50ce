package analytics

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	maxWindowDays = 366
	maxReportDays = 24 * 31
)

// Date is a calendar day with no zone attached. It is comparable and used as
// the day-bucket key.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, err
	}
	return DateOf(t, time.UTC), nil
}

// Midnight is 00:00 of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC), time.UTC)
}

// AddMonths moves by whole months, clamping to the last day of the target
// month (Mar 31 minus one month is Feb 28/29).
func (d Date) AddMonths(n int) Date {
	first := time.Date(d.Year, d.Month+time.Month(n), 1, 12, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := d.Day
	if day > lastDay {
		day = lastDay
	}
	return Date{Year: first.Year(), Month: first.Month(), Day: day}
}

func (d Date) Before(other Date) bool {
	return d.Midnight(time.UTC).Before(other.Midnight(time.UTC))
}

func (d Date) After(other Date) bool {
	return other.Before(d)
}

// DaysUntil counts calendar days from d to other (negative when other is earlier).
func (d Date) DaysUntil(other Date) int {
	return int(other.Midnight(time.UTC).Sub(d.Midnight(time.UTC)).Hours() / 24)
}

func (d Date) String() string {
	return d.Midnight(time.UTC).Format(dateLayout)
}

// Label is the short trend-axis label, e.g. "Jan 2".
func (d Date) Label() string {
	return d.Midnight(time.UTC).Format("Jan 2")
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Window is an inclusive calendar-date range.
type Window struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Bounds converts the inclusive day range to the half-open timestamp range
// [Start 00:00, End+1 00:00) used for store queries.
func (w Window) Bounds(loc *time.Location) (time.Time, time.Time) {
	return w.Start.Midnight(loc), w.End.AddDays(1).Midnight(loc)
}

func (w Window) Days() int {
	return w.Start.DaysUntil(w.End) + 1
}

// Dates lists every day of the window, oldest first.
func (w Window) Dates() []Date {
	n := w.Days()
	if n <= 0 {
		return nil
	}
	dates := make([]Date, 0, n)
	for d := w.Start; !d.After(w.End); d = d.AddDays(1) {
		dates = append(dates, d)
	}
	return dates
}

func (w Window) Contains(d Date) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// ResolveWindow fills missing bounds: end defaults to today and start to
// end-(defaultSpanDays-1).
func ResolveWindow(explicitStart, explicitEnd string, defaultSpanDays int, today Date) (Window, error) {
	if defaultSpanDays < 1 {
		defaultSpanDays = 1
	}
	return resolve(explicitStart, explicitEnd, today, maxWindowDays, func(end Date) Date {
		return end.AddDays(-(defaultSpanDays - 1))
	})
}

// ResolveMonthWindow is ResolveWindow for report periods: start defaults to
// end minus months plus one day.
func ResolveMonthWindow(explicitStart, explicitEnd string, months int, today Date) (Window, error) {
	return resolve(explicitStart, explicitEnd, today, maxReportDays, func(end Date) Date {
		return end.AddMonths(-months).AddDays(1)
	})
}

func resolve(explicitStart, explicitEnd string, today Date, maxDays int, defaultStart func(Date) Date) (Window, error) {
	end := today
	if strings.TrimSpace(explicitEnd) != "" {
		parsed, err := ParseDate(explicitEnd)
		if err != nil {
			return Window{}, fmt.Errorf("%w: end date must be YYYY-MM-DD", ErrInvalidWindow)
		}
		end = parsed
	}
	start := defaultStart(end)
	if strings.TrimSpace(explicitStart) != "" {
		parsed, err := ParseDate(explicitStart)
		if err != nil {
			return Window{}, fmt.Errorf("%w: start date must be YYYY-MM-DD", ErrInvalidWindow)
		}
		start = parsed
	}
	if start.After(end) {
		return Window{}, fmt.Errorf("%w: start date %s is after end date %s", ErrInvalidWindow, start, end)
	}
	w := Window{Start: start, End: end}
	if w.Days() > maxDays {
		return Window{}, fmt.Errorf("%w: window spans %d days", ErrInvalidWindow, w.Days())
	}
	return w, nil
}

// LastNDays returns n dates ending with today, oldest first.
func LastNDays(n int, today Date) []Date {
	if n <= 0 {
		return nil
	}
	return Window{Start: today.AddDays(-(n - 1)), End: today}.Dates()
}
