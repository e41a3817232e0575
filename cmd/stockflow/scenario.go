package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/stockflow/internal/stockflow"
)

// parseAssign splits "name=value".
func parseAssign(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", 0, fmt.Errorf("expected name=value, got %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("%q: %w", s, err)
	}
	return name, v, nil
}

// applySet overrides a parameter, or the initial value of a state.
func applySet(m *stockflow.Model, s string) error {
	name, v, err := parseAssign(s)
	if err != nil {
		return err
	}
	if _, ok := m.Parameter(name); ok {
		m.SetParameter(name, v)
		return nil
	}
	if i := m.StateIndex(name); i >= 0 {
		return m.SetValue(i, v)
	}
	return fmt.Errorf("--set %s: no parameter or state named %q", s, name)
}

// parseFork turns "name:step:param=value" into a scenario that changes param
// after step.
func parseFork(s string) (stockflow.Scenario, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" {
		return stockflow.Scenario{}, fmt.Errorf("fork %q: expected name:step:param=value", s)
	}
	step, err := strconv.Atoi(parts[1])
	if err != nil || step < 0 {
		return stockflow.Scenario{}, fmt.Errorf("fork %q: bad step %q", s, parts[1])
	}
	param, v, err := parseAssign(parts[2])
	if err != nil {
		return stockflow.Scenario{}, fmt.Errorf("fork %q: %w", s, err)
	}

	return stockflow.Scenario{
		Name: parts[0],
		Variant: func(m *stockflow.Model) error {
			if _, ok := m.Parameter(param); !ok {
				return fmt.Errorf("fork %s: %w: %q", parts[0], stockflow.ErrUnknownParameter, param)
			}
			m.On(stockflow.AtStep(step), func(m *stockflow.Model, _ int) error {
				m.SetParameter(param, v)
				return nil
			})
			return nil
		},
	}, nil
}
