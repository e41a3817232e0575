package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/stockflow/internal/rules"
	"github.com/san-kum/stockflow/internal/stockflow"
)

const DefaultSteps = 60

var (
	ErrUnknownName   = errors.New("config: unknown state or parameter")
	ErrAmbiguousName = errors.New("config: name is both a state and a parameter")
	ErrDuplicate     = errors.New("config: duplicate state name")
	ErrEmptyExpr     = errors.New("config: transition has no expression")
	ErrBadEvent      = errors.New("config: event needs exactly one of step or every")
)

type ModelConfig struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description,omitempty"`
	Steps       int                `yaml:"steps"`
	Parameters  map[string]float64 `yaml:"parameters,omitempty"`
	States      []StateConfig      `yaml:"states"`
	Transitions []TransitionConfig `yaml:"transitions"`
	RunOrder    []int              `yaml:"run_order,omitempty"`
	Events      []EventConfig      `yaml:"events,omitempty"`
}

type StateConfig struct {
	Name     string    `yaml:"name"`
	Value    float64   `yaml:"value"`
	Color    string    `yaml:"color,omitempty"`
	Position []float64 `yaml:"position,omitempty,flow"`
}

// TransitionConfig moves Expr, a Lua expression over Deps, from From to To.
type TransitionConfig struct {
	From string   `yaml:"from"`
	To   string   `yaml:"to"`
	Expr string   `yaml:"expr"`
	Deps []string `yaml:"deps,flow"`
}

// EventConfig overwrites parameters or states after a step (or every step).
type EventConfig struct {
	Step          *int               `yaml:"step,omitempty"`
	Every         bool               `yaml:"every,omitempty"`
	SetParameters map[string]float64 `yaml:"set_parameters,omitempty"`
	SetStates     map[string]float64 `yaml:"set_states,omitempty"`
}

func Load(path string) (*ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ModelConfig, error) {
	cfg := &ModelConfig{Steps: DefaultSteps}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *ModelConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Resolve returns a preset by name, or loads arg as a YAML file.
func Resolve(arg string) (*ModelConfig, error) {
	if cfg := GetPreset(arg); cfg != nil {
		return cfg, nil
	}
	if strings.HasSuffix(arg, ".yaml") || strings.HasSuffix(arg, ".yml") {
		return Load(arg)
	}
	return nil, fmt.Errorf("unknown model: %s (available: %v)", arg, ListPresets())
}

// Build assembles a validated model from the configuration.
func (c *ModelConfig) Build(logger *slog.Logger) (*stockflow.Model, error) {
	m := stockflow.New(c.Name, stockflow.WithLogger(logger))

	index := make(map[string]int, len(c.States))
	layout := make([]stockflow.Point, 0, len(c.States))
	positioned := true
	for _, s := range c.States {
		if _, dup := index[s.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicate, s.Name)
		}
		index[s.Name] = m.AddState(s.Name, s.Value, s.Color)
		if len(s.Position) != 2 {
			positioned = false
			continue
		}
		layout = append(layout, stockflow.Point{X: s.Position[0], Y: s.Position[1]})
	}
	if positioned {
		m.SetLayout(layout)
	}

	for name, v := range c.Parameters {
		if _, clash := index[name]; clash {
			return nil, fmt.Errorf("%w: %q", ErrAmbiguousName, name)
		}
		m.SetParameter(name, v)
	}

	for ti, t := range c.Transitions {
		if err := c.addTransition(m, index, t); err != nil {
			return nil, fmt.Errorf("transition %d (%s to %s): %w", ti, t.From, t.To, err)
		}
	}

	if c.RunOrder != nil {
		if err := m.SetRunOrder(c.RunOrder); err != nil {
			return nil, err
		}
	}

	for ei, e := range c.Events {
		if err := c.addEvent(m, index, e); err != nil {
			return nil, fmt.Errorf("event %d: %w", ei, err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *ModelConfig) addTransition(m *stockflow.Model, index map[string]int, t TransitionConfig) error {
	src, ok := index[t.From]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownName, t.From)
	}
	dst, ok := index[t.To]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownName, t.To)
	}
	if strings.TrimSpace(t.Expr) == "" {
		return ErrEmptyExpr
	}

	deps := make([]stockflow.Dependency, len(t.Deps))
	for i, name := range t.Deps {
		if si, ok := index[name]; ok {
			deps[i] = stockflow.StateRef(si)
			continue
		}
		if _, ok := c.Parameters[name]; ok {
			deps[i] = stockflow.ParamRef(name)
			continue
		}
		return fmt.Errorf("%w: %q", ErrUnknownName, name)
	}

	rule, err := rules.Lua(t.Expr, t.Deps...)
	if err != nil {
		return err
	}
	_, err = m.AddTransition(src, dst, rule, deps...)
	return err
}

func (c *ModelConfig) addEvent(m *stockflow.Model, index map[string]int, e EventConfig) error {
	if (e.Step == nil) == !e.Every {
		return ErrBadEvent
	}

	key := stockflow.EveryStep
	if e.Step != nil {
		key = stockflow.AtStep(*e.Step)
	}

	states := make(map[int]float64, len(e.SetStates))
	for name, v := range e.SetStates {
		i, ok := index[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownName, name)
		}
		states[i] = v
	}
	for name := range e.SetParameters {
		if _, ok := c.Parameters[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownName, name)
		}
	}

	params := make(map[string]float64, len(e.SetParameters))
	for k, v := range e.SetParameters {
		params[k] = v
	}
	m.On(key, func(m *stockflow.Model, step int) error {
		for k, v := range params {
			m.SetParameter(k, v)
		}
		for i, v := range states {
			if err := m.SetValue(i, v); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}
