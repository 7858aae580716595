// Package statemachine provides the workflow dispatcher shared by all
// corseg documents (movimientos, pagos, liquidaciones, ajustes, reclamos).
//
// Each document declares an explicit transition table: action name to the
// set of allowed source states and the resulting state. Fire is the single
// dispatcher; a document never mutates its workflow state directly.
package statemachine

import (
	"corseg/internal/core/apperror"
)

// State is a workflow state name (e.g. "borrador", "procesado").
type State string

// Action is a workflow action name (e.g. "procesar", "confirmar").
type Action string

// Transition describes one row of the transition table.
type Transition struct {
	Action Action
	From   []State
	To     State
}

// Machine is an immutable transition table for one entity type.
type Machine struct {
	entity      string
	transitions []Transition
}

// New creates a Machine for the named entity type.
func New(entity string, transitions []Transition) *Machine {
	return &Machine{entity: entity, transitions: transitions}
}

// Fire validates that action is allowed from current and returns the
// resulting state. A disallowed pair returns an INVALID_TRANSITION
// business error naming the entity, action and current state.
func (m *Machine) Fire(current State, action Action) (State, error) {
	for _, t := range m.transitions {
		if t.Action != action {
			continue
		}
		for _, from := range t.From {
			if from == current {
				return t.To, nil
			}
		}
	}
	return current, apperror.NewInvalidTransition(m.entity, string(action), string(current))
}

// Can reports whether action is allowed from current.
func (m *Machine) Can(current State, action Action) bool {
	_, err := m.Fire(current, action)
	return err == nil
}

// Actions returns the actions allowed from current, in table order.
// Used by the UI layer to decide which buttons to enable.
func (m *Machine) Actions(current State) []Action {
	var out []Action
	for _, t := range m.transitions {
		for _, from := range t.From {
			if from == current {
				out = append(out, t.Action)
				break
			}
		}
	}
	return out
}
