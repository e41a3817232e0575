package stockflow

import (
	"fmt"
	"io"
	"log/slog"
)

// Model is a fully configured stock-and-flow system.
type Model struct {
	name        string
	states      []State
	transitions []Transition
	params      Parameters
	order       []int
	layout      []Point
	callbacks   callbackTable
	log         Trajectory
	logger      *slog.Logger
}

type Option func(*Model)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

func New(name string, opts ...Option) *Model {
	m := &Model{
		name:        name,
		states:      make([]State, 0),
		transitions: make([]Transition, 0),
		params:      make(Parameters),
		callbacks:   make(callbackTable),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) Name() string { return m.name }

// AddState appends a state and returns its index.
func (m *Model) AddState(name string, value float64, color string) int {
	m.states = append(m.states, State{Name: name, Value: value, Color: color})
	return len(m.states) - 1
}

// AddTransition appends a transition and returns its index. Endpoints and state
// dependencies must refer to states already added; parameter dependencies are
// checked by Validate.
func (m *Model) AddTransition(src, dst int, rule Rule, deps ...Dependency) (int, error) {
	idx := len(m.transitions)
	t := Transition{Source: src, Destination: dst, Rule: rule, Deps: append([]Dependency(nil), deps...)}
	if err := m.checkEndpoints(t); err != nil {
		return -1, &ConfigError{Transition: idx, Wrapped: err}
	}
	m.transitions = append(m.transitions, t)
	return idx, nil
}

func (m *Model) checkEndpoints(t Transition) error {
	if t.Rule == nil {
		return ErrNilRule
	}
	if !m.validState(t.Source) {
		return fmt.Errorf("source %d: %w", t.Source, ErrStateIndex)
	}
	if !m.validState(t.Destination) {
		return fmt.Errorf("destination %d: %w", t.Destination, ErrStateIndex)
	}
	for _, d := range t.Deps {
		if !d.IsParam() && !m.validState(d.index) {
			return fmt.Errorf("dependency %s: %w", d, ErrStateIndex)
		}
	}
	return nil
}

func (m *Model) validState(i int) bool { return i >= 0 && i < len(m.states) }

func (m *Model) NumStates() int      { return len(m.states) }
func (m *Model) NumTransitions() int { return len(m.transitions) }

// States returns a copy of the state registry.
func (m *Model) States() []State { return append([]State(nil), m.states...) }

// Transitions returns a copy of the transition set. Dependency slices are copied.
func (m *Model) Transitions() []Transition {
	out := make([]Transition, len(m.transitions))
	for i, t := range m.transitions {
		t.Deps = append([]Dependency(nil), t.Deps...)
		out[i] = t
	}
	return out
}

// StateIndex returns the index of the first state with the given name, or -1.
func (m *Model) StateIndex(name string) int {
	for i, s := range m.states {
		if s.Name == name {
			return i
		}
	}
	return -1
}

func (m *Model) Value(i int) float64 { return m.states[i].Value }

// SetValue overwrites state i. Intended for building and for callbacks.
func (m *Model) SetValue(i int, v float64) error {
	if !m.validState(i) {
		return fmt.Errorf("state %d: %w", i, ErrStateIndex)
	}
	m.states[i].Value = v
	return nil
}

// Values returns the current state values in index order.
func (m *Model) Values() []float64 {
	out := make([]float64, len(m.states))
	for i, s := range m.states {
		out[i] = s.Value
	}
	return out
}

func (m *Model) SetParameter(name string, v float64) { m.params[name] = v }

func (m *Model) Parameter(name string) (float64, bool) {
	v, ok := m.params[name]
	return v, ok
}

// Parameters returns a copy of the parameter table.
func (m *Model) Parameters() Parameters { return m.params.Clone() }

// SetRunOrder installs an explicit transition execution order. nil restores the
// natural index order.
func (m *Model) SetRunOrder(order []int) error {
	if order == nil {
		m.order = nil
		return nil
	}
	if err := checkOrder(order, len(m.transitions)); err != nil {
		return &ConfigError{Transition: -1, Wrapped: err}
	}
	m.order = append([]int(nil), order...)
	return nil
}

// RunOrder returns the effective execution order.
func (m *Model) RunOrder() []int {
	if m.order != nil {
		return append([]int(nil), m.order...)
	}
	return identity(len(m.transitions))
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func checkOrder(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("%w: got %d entries for %d transitions", ErrRunOrder, len(order), n)
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return fmt.Errorf("%w: bad entry %d", ErrRunOrder, idx)
		}
		seen[idx] = true
	}
	return nil
}

// SetLayout installs placement hints, one per state by index. Missing entries
// are left to the renderer.
func (m *Model) SetLayout(points []Point) { m.layout = append([]Point(nil), points...) }

// On registers a callback. Callbacks sharing a key run in registration order.
func (m *Model) On(key CallbackKey, cb Callback) {
	m.callbacks[key] = append(m.callbacks[key], cb)
}

// ScheduledSteps returns the steps with step-specific callbacks, ascending.
func (m *Model) ScheduledSteps() []int { return m.callbacks.steps() }

// Log returns the trajectory of the most recent run.
func (m *Model) Log() Trajectory { return m.log }

// Columns returns the table labels: state names then "<src> to <dst>".
func (m *Model) Columns() []string {
	cols := make([]string, 0, len(m.states)+len(m.transitions))
	for _, s := range m.states {
		cols = append(cols, s.Name)
	}
	for _, t := range m.transitions {
		cols = append(cols, m.states[t.Source].Name+" to "+m.states[t.Destination].Name)
	}
	return cols
}

// Validate checks every transition and the run order against the current
// registry and parameter table.
func (m *Model) Validate() error {
	for i, t := range m.transitions {
		if err := m.checkEndpoints(t); err != nil {
			return &ConfigError{Transition: i, Wrapped: err}
		}
		for _, d := range t.Deps {
			if !d.IsParam() {
				continue
			}
			if _, ok := m.params[d.name]; !ok {
				return &ConfigError{Transition: i, Wrapped: fmt.Errorf("%w: %q", ErrUnknownParameter, d.name)}
			}
		}
	}
	if m.order != nil {
		if err := checkOrder(m.order, len(m.transitions)); err != nil {
			return &ConfigError{Transition: -1, Wrapped: err}
		}
	}
	return nil
}
