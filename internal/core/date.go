package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used on every boundary.
const DateLayout = "2006-01-02"

// Date is a calendar date without time-of-day, held at midnight UTC.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string into a field-level validation error on failure.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, NewValidationError("date", ErrInvalidDate)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, NewValidationError("date", ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n days later (negative n goes back).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// OnOrAfter reports whether d is the same day as o or later.
func (d Date) OnOrAfter(o Date) bool {
	return !d.Time.Before(o.Time)
}

// SameMonth reports whether d falls in the given year and month.
func (d Date) SameMonth(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}
