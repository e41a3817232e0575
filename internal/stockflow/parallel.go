package stockflow

import (
	"context"
	"sync"
)

// Scenario is one branch of an ensemble: a variant is applied to a fresh clone
// of the base model before it runs.
type Scenario struct {
	Name    string
	Variant func(m *Model) error
}

// Outcome is the result of one scenario.
type Outcome struct {
	Name    string
	Model   *Model
	Table   *Table
	Markers []int
}

// Ensemble runs scenarios of a base model concurrently, one clone per
// scenario. The base model is never run or mutated.
type Ensemble struct {
	base  *Model
	steps int
}

func NewEnsemble(base *Model, steps int) *Ensemble {
	return &Ensemble{base: base, steps: steps}
}

// Run returns one outcome per scenario, in input order. The context is checked
// before each scenario starts; a started run always completes.
func (e *Ensemble) Run(ctx context.Context, scenarios []Scenario) ([]*Outcome, error) {
	clones := make([]*Model, len(scenarios))
	for i, sc := range scenarios {
		clones[i] = e.base.Copy(sc.Name)
	}

	outcomes := make([]*Outcome, len(scenarios))
	errs := make([]error, len(scenarios))

	var wg sync.WaitGroup
	for i := range scenarios {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return
			}

			m := clones[idx]
			if v := scenarios[idx].Variant; v != nil {
				if err := v(m); err != nil {
					errs[idx] = err
					return
				}
			}

			table, err := m.RunTable(e.steps)
			if err != nil {
				errs[idx] = err
				return
			}
			outcomes[idx] = &Outcome{Name: m.Name(), Model: m, Table: table, Markers: m.ScheduledSteps()}
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return outcomes, nil
}
