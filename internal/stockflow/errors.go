package stockflow

import (
	"errors"
	"fmt"
)

// Domain errors for model configuration and runs.
var (
	// ErrStateIndex indicates a reference to a state index that does not exist.
	ErrStateIndex = errors.New("stockflow: state index out of range")

	// ErrUnknownParameter indicates a dependency on an undefined parameter.
	ErrUnknownParameter = errors.New("stockflow: unknown parameter")

	// ErrRunOrder indicates a run order that is not a permutation of transition indices.
	ErrRunOrder = errors.New("stockflow: run order is not a permutation of transitions")

	// ErrNegativeSteps indicates a run was requested with steps < 0.
	ErrNegativeSteps = errors.New("stockflow: steps must be non-negative")

	// ErrNilRule indicates a transition without a rule.
	ErrNilRule = errors.New("stockflow: transition has no rule")

	// ErrArity indicates a rule was called with the wrong number of arguments.
	ErrArity = errors.New("stockflow: rule argument count mismatch")

	// ErrRulePanic indicates a rule panicked for a reason other than arity.
	ErrRulePanic = errors.New("stockflow: rule panicked")

	// ErrNonFinite indicates a rule produced NaN or Inf.
	ErrNonFinite = errors.New("stockflow: rule produced a non-finite flow")
)

// ConfigError reports an invalid transition or run order.
type ConfigError struct {
	Transition int
	Wrapped    error
}

func (e *ConfigError) Error() string {
	if e.Transition < 0 {
		return e.Wrapped.Error()
	}
	return fmt.Sprintf("transition %d: %v", e.Transition, e.Wrapped)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

// StepError wraps a failed flow computation with its position in the run.
type StepError struct {
	Step       int
	Transition int
	Wrapped    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d, transition %d: %v", e.Step, e.Transition, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

// CallbackError wraps an error returned by a callback.
type CallbackError struct {
	Step    int
	Key     CallbackKey
	Wrapped error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("step %d, callback %s: %v", e.Step, e.Key, e.Wrapped)
}

func (e *CallbackError) Unwrap() error {
	return e.Wrapped
}
