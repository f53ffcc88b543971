package parse

import (
	"fmt"
	"strconv"
	"strings"

	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/store"
)

// RawMachine holds the four form fields exactly as the user typed them.
type RawMachine struct {
	Name         string `json:"name" form:"name"`
	Type         string `json:"type" form:"type"`
	LastServiced string `json:"lastServiced" form:"lastServiced"`
	Interval     string `json:"interval" form:"interval"`
}

// Interval parses a service interval in days. Surrounding spaces are ignored.
func Interval(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("interval is empty")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("interval %q is not a whole number of days", raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("interval %d must be positive", n)
	}
	if n > store.MaxInterval {
		return 0, fmt.Errorf("interval %d exceeds %d days", n, store.MaxInterval)
	}
	return n, nil
}

// Machine validates all four fields and converts them for store.Create.
// The first missing or malformed field is reported as a *store.ValidationError.
func Machine(raw RawMachine) (store.NewMachine, error) {
	if strings.TrimSpace(raw.Name) == "" {
		return store.NewMachine{}, &store.ValidationError{Field: "name", Reason: "is required"}
	}
	if strings.TrimSpace(raw.Type) == "" {
		return store.NewMachine{}, &store.ValidationError{Field: "type", Reason: "is required"}
	}
	if strings.TrimSpace(raw.LastServiced) == "" {
		return store.NewMachine{}, &store.ValidationError{Field: "lastServiced", Reason: "is required"}
	}
	last, err := model.ParseDate(raw.LastServiced)
	if err != nil {
		return store.NewMachine{}, &store.ValidationError{Field: "lastServiced", Reason: "must be a YYYY-MM-DD date"}
	}
	if strings.TrimSpace(raw.Interval) == "" {
		return store.NewMachine{}, &store.ValidationError{Field: "interval", Reason: "is required"}
	}
	interval, err := Interval(raw.Interval)
	if err != nil {
		return store.NewMachine{}, &store.ValidationError{Field: "interval", Reason: store.IntervalReason}
	}

	return store.NewMachine{
		Name:         raw.Name,
		Type:         raw.Type,
		LastServiced: last,
		Interval:     interval,
	}, nil
}

// Patch converts optional raw fields into a store.Patch. Nil inputs stay unset.
func Patch(name, typ, lastServiced, interval *string) (store.Patch, error) {
	var p store.Patch
	p.Name = name
	p.Type = typ
	if lastServiced != nil {
		d, err := model.ParseDate(*lastServiced)
		if err != nil {
			return store.Patch{}, &store.ValidationError{Field: "lastServiced", Reason: "must be a YYYY-MM-DD date"}
		}
		p.LastServiced = &d
	}
	if interval != nil {
		n, err := Interval(*interval)
		if err != nil {
			return store.Patch{}, &store.ValidationError{Field: "interval", Reason: store.IntervalReason}
		}
		p.Interval = &n
	}
	return p, nil
}
