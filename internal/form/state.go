// Package form drives the create-or-update submit flow with an explicit edit state.
package form

import (
	"context"
	"errors"
	"strconv"

	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/parse"
	"maintenance-tracker/internal/store"
)

// Mode says whether a submit creates a record or updates one.
type Mode int

const (
	Idle Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "idle"
}

// State is the form's edit state. ID is meaningful only while Editing.
type State struct {
	Mode Mode
	ID   int64
}

// Cancel leaves edit mode.
func Cancel() State { return State{Mode: Idle} }

// StartEdit loads the record id and returns an Editing state keyed by it.
// An unknown id keeps the form Idle and returns store.ErrNotFound.
func StartEdit(ctx context.Context, s store.Store, id int64) (State, model.Machine, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return State{Mode: Idle}, model.Machine{}, err
	}
	return State{Mode: Editing, ID: id}, m, nil
}

// Submit validates the raw fields, then creates (Idle) or updates every field of
// the edited record (Editing). On validation failure the state is returned
// unchanged and nothing is written. An edited record that has disappeared is
// a silent no-op. Any completed submit returns to Idle.
func Submit(ctx context.Context, s store.Store, st State, raw parse.RawMachine) (State, error) {
	in, err := parse.Machine(raw)
	if err != nil {
		return st, err
	}

	if st.Mode != Editing {
		if _, err := s.Create(ctx, in); err != nil {
			return st, err
		}
		return Cancel(), nil
	}

	_, err = s.Update(ctx, st.ID, store.Patch{
		Name:         &in.Name,
		Type:         &in.Type,
		LastServiced: &in.LastServiced,
		Interval:     &in.Interval,
	})
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return st, err
	}
	return Cancel(), nil
}

// Values returns the raw form fields for m, as loaded into the form on edit.
func Values(m model.Machine) parse.RawMachine {
	return parse.RawMachine{
		Name:         m.Name,
		Type:         m.Type,
		LastServiced: m.LastServiced.String(),
		Interval:     strconv.Itoa(m.Interval),
	}
}
