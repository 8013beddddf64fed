package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides whether a configured transition may fire
type GuardFunc func(ctx context.Context) bool

// Machine tracks the current stage of one invoicing run and validates
// transitions. Transitions are configured up front with Permit/PermitIf;
// firing an unconfigured trigger fails without changing state. A Machine is
// built per run and is not safe for concurrent use.
type Machine struct {
	current     State
	transitions map[State]map[Trigger][]transition
}

type transition struct {
	to    State
	guard GuardFunc
}

// NewMachine creates a machine at the given initial state with no
// transitions configured
func NewMachine(initial State) *Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}
	return &Machine{
		current:     initial,
		transitions: make(map[State]map[Trigger][]transition),
	}
}

// Permit allows trigger to move the machine from one state to another
func (m *Machine) Permit(from State, trigger Trigger, to State) *Machine {
	return m.PermitIf(from, trigger, to, nil)
}

// PermitIf is Permit with a guard; the transition only fires when the guard
// passes at fire time
func (m *Machine) PermitIf(from State, trigger Trigger, to State, guard GuardFunc) *Machine {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid source state: %s", from))
	}
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}

	byTrigger, ok := m.transitions[from]
	if !ok {
		byTrigger = make(map[Trigger][]transition)
		m.transitions[from] = byTrigger
	}
	byTrigger[trigger] = append(byTrigger[trigger], transition{to: to, guard: guard})

	return m
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// CanFire returns true if the trigger has at least one transition configured
// from the current state. Guards are not evaluated here.
func (m *Machine) CanFire(trigger Trigger) bool {
	return len(m.transitions[m.current][trigger]) > 0
}

// Fire executes the trigger, moving to the first configured target whose
// guard passes
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	candidates := m.transitions[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers returns all triggers with transitions configured from the
// current state
func (m *Machine) PermittedTriggers() []Trigger {
	triggers := make([]Trigger, 0, len(m.transitions[m.current]))
	for trigger := range m.transitions[m.current] {
		triggers = append(triggers, trigger)
	}
	return triggers
}
