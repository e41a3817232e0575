package stockflow

import (
	"errors"
	"fmt"
)

// Run executes steps steps and returns the trajectory. After every step k the
// record is appended, then callbacks registered at AtStep(k) run, then those
// registered at EveryStep. State values and parameters are restored to their
// pre-run values on return, whatever the callbacks did and whether or not the
// run failed. The previous log is discarded.
func (m *Model) Run(steps int) (Trajectory, error) {
	if steps < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrNegativeSteps, steps)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	baseline := m.Values()
	params := m.params.Clone()
	defer m.restore(baseline, params)

	m.log = make(Trajectory, 0, steps)
	m.logger.Debug("run started", "model", m.name, "steps", steps,
		"states", len(m.states), "transitions", len(m.transitions))

	for k := 0; k < steps; k++ {
		values, flows, err := Step(m.states, m.transitions, m.params, m.order)
		if err != nil {
			var se *StepError
			if errors.As(err, &se) {
				se.Step = k
			}
			m.logger.Debug("run aborted", "model", m.name, "step", k, "err", err)
			return m.log, err
		}
		m.log = append(m.log, Record{States: values, Flows: flows})

		if err := m.dispatch(k); err != nil {
			m.logger.Debug("run aborted", "model", m.name, "step", k, "err", err)
			return m.log, err
		}
	}

	m.logger.Debug("run finished", "model", m.name, "steps", len(m.log))
	return m.log, nil
}

// RunTable runs the model and returns the labelled table.
func (m *Model) RunTable(steps int) (*Table, error) {
	traj, err := m.Run(steps)
	if err != nil {
		return nil, err
	}
	return &Table{Columns: m.Columns(), Rows: traj.Rows()}, nil
}

func (m *Model) dispatch(k int) error {
	for _, key := range []CallbackKey{AtStep(k), EveryStep} {
		cbs := m.callbacks[key]
		for _, cb := range cbs {
			m.logger.Debug("callback", "model", m.name, "step", k, "key", key.String())
			if err := cb(m, k); err != nil {
				return &CallbackError{Step: k, Key: key, Wrapped: err}
			}
		}
	}
	return nil
}

func (m *Model) restore(baseline []float64, params Parameters) {
	for i := range m.states {
		if i < len(baseline) {
			m.states[i].Value = baseline[i]
		}
	}
	m.params = params
}
