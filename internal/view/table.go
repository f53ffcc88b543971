// Package view builds the derived rows shown in the machine table.
package view

import (
	"strings"

	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/status"
)

// Row is a machine with its derived fields for a given day.
type Row struct {
	model.Machine
	NextServiceDate model.Date    `json:"nextServiceDate"`
	DaysRemaining   int           `json:"daysRemaining"`
	Status          status.Status `json:"status"`
}

// Rows derives one row per record, keeping the input order.
func Rows(machines []model.Machine, today model.Date) []Row {
	rows := make([]Row, 0, len(machines))
	for _, m := range machines {
		rows = append(rows, NewRow(m, today))
	}
	return rows
}

// NewRow derives the row for a single record.
func NewRow(m model.Machine, today model.Date) Row {
	next := status.NextServiceDate(m.LastServiced, m.Interval)
	return Row{
		Machine:         m,
		NextServiceDate: next,
		DaysRemaining:   status.DaysRemaining(next, today),
		Status:          status.Derive(m.LastServiced, m.Interval, today),
	}
}

// Filter keeps rows whose type or status label contains query, ignoring case.
// An empty query keeps every row.
func Filter(rows []Row, query string) []Row {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Type), q) ||
			strings.Contains(strings.ToLower(string(r.Status)), q) {
			out = append(out, r)
		}
	}
	return out
}

// Counts tallies rows per status tier. Every tier is present in the result.
func Counts(rows []Row) map[status.Status]int {
	counts := map[status.Status]int{status.OK: 0, status.DueSoon: 0, status.Overdue: 0}
	for _, r := range rows {
		counts[r.Status]++
	}
	return counts
}
