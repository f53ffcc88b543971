// Package status derives a machine's next service date and status tier.
package status

import (
	"time"

	"maintenance-tracker/internal/model"
)

// Status is the derived maintenance tier of a machine. It is never persisted.
type Status string

const (
	OK      Status = "OK"
	DueSoon Status = "Due Soon"
	Overdue Status = "Overdue"
)

// DueSoonWindow is the number of remaining days (inclusive) reported as DueSoon.
const DueSoonWindow = 7

// NextServiceDate returns lastServiced plus interval calendar days.
func NextServiceDate(lastServiced model.Date, interval int) model.Date {
	return lastServiced.AddDays(interval)
}

// DaysRemaining returns the days from today until next; negative when next has passed.
func DaysRemaining(next, today model.Date) int {
	return today.DaysUntil(next)
}

// Derive classifies a record against today.
// The due date itself is not overdue: it falls in the DueSoon window with 0 days left.
func Derive(lastServiced model.Date, interval int, today model.Date) Status {
	next := NextServiceDate(lastServiced, interval)
	if today.After(next) {
		return Overdue
	}
	if DaysRemaining(next, today) <= DueSoonWindow {
		return DueSoon
	}
	return OK
}

// Of derives the status of m.
func Of(m model.Machine, today model.Date) Status {
	return Derive(m.LastServiced, m.Interval, today)
}

// Today returns the current calendar date in loc. A nil loc means time.Local.
func Today(now time.Time, loc *time.Location) model.Date {
	if loc == nil {
		loc = time.Local
	}
	return model.DateOf(now.In(loc))
}

// Clock yields the current time; tests swap it for a fixed instant.
type Clock func() time.Time
