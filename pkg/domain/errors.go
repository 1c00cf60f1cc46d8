package domain

import (
	"errors"
	"fmt"
)

// ErrIllegalAction is returned when an action's preconditions are not met.
// It rejects a single branch and is never fatal.
var ErrIllegalAction = errors.New("illegal action")

// ErrTerminalState is returned when an action is applied to a completed or
// failed process.
var ErrTerminalState = errors.New("process already finished")

// ErrRecipeInfeasible is returned when the progress target cannot be reached
// within the configured budgets.
var ErrRecipeInfeasible = errors.New("recipe infeasible")

// ErrInvalidSettings wraps every configuration validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// ErrUnknownAction is returned when an action name is not in the catalog.
var ErrUnknownAction = errors.New("unknown action")

// ErrUnknownStrategy is returned when a search strategy name is not registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ErrMacroNotFound is returned when a cache key cannot be found in the store.
var ErrMacroNotFound = errors.New("macro not found")

// IllegalActionError explains why an action was rejected.
type IllegalActionError struct {
	Action string
	Reason string
	// Cause is an optional sentinel refining the rejection.
	Cause error
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("illegal action %s: %s", e.Action, e.Reason)
}

func (e *IllegalActionError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrIllegalAction, e.Cause}
	}
	return []error{ErrIllegalAction}
}

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Key    string // Field name
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %v)", e.Key, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap lets errors.Is match ErrInvalidSettings and the individual failures.
func (e *AggregateError) Unwrap() []error {
	return append([]error{ErrInvalidSettings}, e.Errors...)
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
