package calendar

import (
	"time"

	"github.com/username/listing-calendar/pkg/dateutil"
)

// Window is the month currently shown by the calendar.
// Month is 0-based: 0 = January, 11 = December.
type Window struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// WindowOf returns the window containing the given date
func WindowOf(date time.Time) Window {
	return Window{Year: date.Year(), Month: int(date.Month()) - 1}
}

// Normalize folds an out-of-range month into 0..11, carrying into the year.
// {2024, 12} becomes {2025, 0}; {2024, -1} becomes {2023, 11}.
func (w Window) Normalize() Window {
	return WindowOf(w.First())
}

// Next returns the following month
func (w Window) Next() Window {
	return Window{Year: w.Year, Month: w.Month + 1}.Normalize()
}

// Previous returns the preceding month
func (w Window) Previous() Window {
	return Window{Year: w.Year, Month: w.Month - 1}.Normalize()
}

// First returns the first calendar day of the window (local midnight)
func (w Window) First() time.Time {
	return time.Date(w.Year, time.Month(w.Month+1), 1, 0, 0, 0, 0, time.Local)
}

// Last returns the last calendar day of the window (local midnight)
func (w Window) Last() time.Time {
	return dateutil.EndOfMonth(w.First())
}

// Range returns the inclusive query range as YYYY-MM-DD strings
func (w Window) Range() (start, end string) {
	return dateutil.FormatDate(w.First()), dateutil.FormatDate(w.Last())
}

// Days returns every calendar date of the window in order
func (w Window) Days() []time.Time {
	first := w.First()
	n := dateutil.DaysInMonth(first.Year(), first.Month())

	days := make([]time.Time, 0, n)
	for day := 1; day <= n; day++ {
		days = append(days, time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.Local))
	}
	return days
}

// LeadingBlanks returns the number of empty cells before day 1
// in a grid whose weeks start on Sunday
func (w Window) LeadingBlanks() int {
	return int(w.First().Weekday())
}

// Contains reports whether date falls inside the window
func (w Window) Contains(date time.Time) bool {
	return WindowOf(date) == w.Normalize()
}

// String returns e.g. "February 2024"
func (w Window) String() string {
	return w.First().Format("January 2006")
}
