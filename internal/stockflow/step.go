package stockflow

import (
	"fmt"
	"math"
	"runtime"
	"strings"
)

// Step executes one ordered pass over transitions, mutating states in place.
// Each transition resolves its dependencies against the values left by the
// transitions before it, so execution order matters. order must be a
// permutation of transition indices; nil means natural index order. It returns
// the post-step state values by state index and the flows by transition index.
// On error, the index of the failing transition is reported through *StepError
// with Step set to -1 (Transition is -1 for a bad order).
func Step(states []State, transitions []Transition, params Parameters, order []int) ([]float64, []float64, error) {
	if order == nil {
		order = identity(len(transitions))
	} else if err := checkOrder(order, len(transitions)); err != nil {
		return nil, nil, &StepError{Step: -1, Transition: -1, Wrapped: err}
	}

	flows := make([]float64, len(transitions))
	args := make([]float64, 0, 4)

	for _, id := range order {
		t := transitions[id]

		args = args[:0]
		for _, d := range t.Deps {
			v, err := resolve(d, states, params)
			if err != nil {
				return nil, nil, &StepError{Step: -1, Transition: id, Wrapped: err}
			}
			args = append(args, v)
		}

		if t.Rule == nil {
			return nil, nil, &StepError{Step: -1, Transition: id, Wrapped: ErrNilRule}
		}
		delta, err := call(t.Rule, args)
		if err != nil {
			return nil, nil, &StepError{Step: -1, Transition: id, Wrapped: err}
		}
		if math.IsNaN(delta) || math.IsInf(delta, 0) {
			return nil, nil, &StepError{Step: -1, Transition: id, Wrapped: ErrNonFinite}
		}
		if t.Source < 0 || t.Source >= len(states) || t.Destination < 0 || t.Destination >= len(states) {
			return nil, nil, &StepError{Step: -1, Transition: id, Wrapped: ErrStateIndex}
		}

		states[t.Source].Value -= delta
		states[t.Destination].Value += delta
		flows[id] = delta
	}

	values := make([]float64, len(states))
	for i, s := range states {
		values[i] = s.Value
	}
	return values, flows, nil
}

// call runs a rule, turning a panic into an error. A rule indexing past its
// arguments was given fewer dependencies than it reads.
func call(rule Rule, args []float64) (delta float64, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if re, ok := r.(runtime.Error); ok && strings.Contains(re.Error(), "index out of range") {
			err = fmt.Errorf("%w: %v", ErrArity, re)
			return
		}
		err = fmt.Errorf("%w: %v", ErrRulePanic, r)
	}()
	return rule(args...)
}

func resolve(d Dependency, states []State, params Parameters) (float64, error) {
	switch d.kind {
	case depParam:
		v, ok := params[d.name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, d.name)
		}
		return v, nil
	case depState:
		if d.index < 0 || d.index >= len(states) {
			return 0, fmt.Errorf("dependency %s: %w", d, ErrStateIndex)
		}
		return states[d.index].Value, nil
	default:
		return 0, fmt.Errorf("unknown dependency kind %d", d.kind)
	}
}
