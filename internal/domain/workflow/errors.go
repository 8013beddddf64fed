package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the trigger has no transition
	// configured from the current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when every candidate transition was blocked
	// by its guard
	ErrGuardFailed = errors.New("guard condition failed")
)
