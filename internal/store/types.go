package store

import (
	"fmt"
	"strings"

	"maintenance-tracker/internal/model"
)

// MaxInterval is the longest accepted service interval, one hundred years of days.
const MaxInterval = 36500

// lastDate is the latest next-service date a record may reach; dates are
// written with a four-digit year.
var lastDate = model.NewDate(9999, 12, 31)

// IntervalReason describes the accepted interval range.
var IntervalReason = fmt.Sprintf("must be a whole number of days from 1 to %d", MaxInterval)

// NewMachine carries the fields of a record to create.
type NewMachine struct {
	Name         string
	Type         string
	LastServiced model.Date
	Interval     int
}

// Patch replaces only the non-nil fields of a record.
type Patch struct {
	Name         *string
	Type         *string
	LastServiced *model.Date
	Interval     *int
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.LastServiced == nil && p.Interval == nil
}

// ImportResult summarises an Import call.
type ImportResult struct {
	Added      int     `json:"added"`
	Duplicates int     `json:"duplicates"`
	Invalid    int     `json:"invalid"`
	AddedIDs   []int64 `json:"addedIds"`
}

func (n NewMachine) validate() error {
	switch {
	case strings.TrimSpace(n.Name) == "":
		return invalid("name", "is required")
	case strings.TrimSpace(n.Type) == "":
		return invalid("type", "is required")
	case n.LastServiced.IsZero():
		return invalid("lastServiced", "is required")
	case n.Interval <= 0 || n.Interval > MaxInterval:
		return invalid("interval", IntervalReason)
	}
	return checkNextService(n.LastServiced, n.Interval)
}

func (p Patch) validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return invalid("name", "is required")
	}
	if p.Type != nil && strings.TrimSpace(*p.Type) == "" {
		return invalid("type", "is required")
	}
	if p.LastServiced != nil && p.LastServiced.IsZero() {
		return invalid("lastServiced", "is required")
	}
	if p.Interval != nil && (*p.Interval <= 0 || *p.Interval > MaxInterval) {
		return invalid("interval", IntervalReason)
	}
	return nil
}

// checkNextService rejects records whose next service date falls past lastDate.
func checkNextService(last model.Date, interval int) error {
	if last.AddDays(interval).After(lastDate) {
		return invalid("interval", "puts the next service date past 9999-12-31")
	}
	return nil
}

func (p Patch) apply(m *model.Machine) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.LastServiced != nil {
		m.LastServiced = *p.LastServiced
	}
	if p.Interval != nil {
		m.Interval = *p.Interval
	}
}
