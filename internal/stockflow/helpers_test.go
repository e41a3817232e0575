package stockflow

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func scale(c float64) Rule {
	return func(args ...float64) (float64, error) {
		if len(args) != 1 {
			return 0, ErrArity
		}
		return c * args[0], nil
	}
}

func constant(v float64) Rule {
	return func(args ...float64) (float64, error) { return v, nil }
}

func failing(err error) Rule {
	return func(args ...float64) (float64, error) { return 0, err }
}

// decayModel is A=100 -> B=0 at 10% of A per step.
func decayModel(t *testing.T) *Model {
	t.Helper()
	m := New("decay")
	a := m.AddState("A", 100, "red")
	b := m.AddState("B", 0, "blue")
	if _, err := m.AddTransition(a, b, scale(0.1), StateRef(a)); err != nil {
		t.Fatalf("add transition: %v", err)
	}
	return m
}

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func assertNear(t *testing.T, label string, got, want float64) {
	t.Helper()
	if !near(got, want) {
		t.Errorf("%s = %v, want %v", label, got, want)
	}
}

var errBoom = errors.New("boom")
