package utils

import (
	"math"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	WeekLabelLayout = "Jan 2"
)

// StartOfWeek returns Monday 00:00 of the week containing t, in loc.
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, loc)
}

// CalendarDate formats the calendar date of t as seen in loc.
func CalendarDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

func ParseDate(date string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, loc)
}

func WeekLabel(weekStart time.Time) string {
	return weekStart.Format(WeekLabelLayout)
}

// LoadLocation falls back to UTC when name is empty.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// DaysUntil counts calendar days from the date of now in loc to date.
// Past dates give negative numbers.
func DaysUntil(date string, now time.Time, loc *time.Location) (int, error) {
	target, err := ParseDate(date, loc)
	if err != nil {
		return 0, err
	}
	n := now.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(target.Sub(today).Hours() / 24)), nil
}
