package config

import "sort"

func at(k int) *int { return &k }

var Presets = map[string]*ModelConfig{
	"decay": {
		Name:        "decay",
		Description: "first-order transfer from A to B",
		Steps:       30,
		Parameters:  map[string]float64{"k": 0.1},
		States: []StateConfig{
			{Name: "A", Value: 100, Color: "#e15759", Position: []float64{0, 0}},
			{Name: "B", Value: 0, Color: "#4e79a7", Position: []float64{1, 0}},
		},
		Transitions: []TransitionConfig{
			{From: "A", To: "B", Expr: "k * A", Deps: []string{"A", "k"}},
		},
	},
	"sir": {
		Name:        "sir",
		Description: "susceptible, infected, recovered",
		Steps:       120,
		Parameters:  map[string]float64{"beta": 0.3, "gamma": 0.1, "n": 1000},
		States: []StateConfig{
			{Name: "S", Value: 990, Color: "#4e79a7", Position: []float64{0, 0}},
			{Name: "I", Value: 10, Color: "#e15759", Position: []float64{1, 0}},
			{Name: "R", Value: 0, Color: "#59a14f", Position: []float64{2, 0}},
		},
		Transitions: []TransitionConfig{
			{From: "S", To: "I", Expr: "beta * S * I / n", Deps: []string{"S", "I", "beta", "n"}},
			{From: "I", To: "R", Expr: "gamma * I", Deps: []string{"gamma", "I"}},
		},
	},
	"sir_lockdown": {
		Name:        "sir_lockdown",
		Description: "sir with contact reduction at step 20 and release at step 60",
		Steps:       120,
		Parameters:  map[string]float64{"beta": 0.3, "gamma": 0.1, "n": 1000},
		States: []StateConfig{
			{Name: "S", Value: 990, Color: "#4e79a7", Position: []float64{0, 0}},
			{Name: "I", Value: 10, Color: "#e15759", Position: []float64{1, 0}},
			{Name: "R", Value: 0, Color: "#59a14f", Position: []float64{2, 0}},
		},
		Transitions: []TransitionConfig{
			{From: "S", To: "I", Expr: "beta * S * I / n", Deps: []string{"S", "I", "beta", "n"}},
			{From: "I", To: "R", Expr: "gamma * I", Deps: []string{"gamma", "I"}},
		},
		Events: []EventConfig{
			{Step: at(20), SetParameters: map[string]float64{"beta": 0.08}},
			{Step: at(60), SetParameters: map[string]float64{"beta": 0.3}},
		},
	},
	"seir": {
		Name:        "seir",
		Description: "sir with a latent exposed compartment",
		Steps:       160,
		Parameters:  map[string]float64{"beta": 0.4, "sigma": 0.2, "gamma": 0.1, "n": 1000},
		States: []StateConfig{
			{Name: "S", Value: 995, Color: "#4e79a7"},
			{Name: "E", Value: 0, Color: "#f28e2b"},
			{Name: "I", Value: 5, Color: "#e15759"},
			{Name: "R", Value: 0, Color: "#59a14f"},
		},
		Transitions: []TransitionConfig{
			{From: "S", To: "E", Expr: "beta * S * I / n", Deps: []string{"S", "I", "beta", "n"}},
			{From: "E", To: "I", Expr: "sigma * E", Deps: []string{"sigma", "E"}},
			{From: "I", To: "R", Expr: "gamma * I", Deps: []string{"gamma", "I"}},
		},
	},
	"predator_prey": {
		Name:        "predator_prey",
		Description: "discrete lotka-volterra with untracked source and sink",
		Steps:       200,
		Parameters:  map[string]float64{"alpha": 0.1, "beta": 0.002, "delta": 0.001, "gamma": 0.1},
		States: []StateConfig{
			{Name: "Source", Value: 0, Color: "#bab0ac"},
			{Name: "Prey", Value: 100, Color: "#59a14f"},
			{Name: "Predators", Value: 20, Color: "#e15759"},
			{Name: "Sink", Value: 0, Color: "#bab0ac"},
		},
		Transitions: []TransitionConfig{
			{From: "Source", To: "Prey", Expr: "alpha * Prey", Deps: []string{"alpha", "Prey"}},
			{From: "Prey", To: "Sink", Expr: "beta * Prey * Predators", Deps: []string{"beta", "Prey", "Predators"}},
			{From: "Source", To: "Predators", Expr: "delta * Prey * Predators", Deps: []string{"delta", "Prey", "Predators"}},
			{From: "Predators", To: "Sink", Expr: "gamma * Predators", Deps: []string{"gamma", "Predators"}},
		},
	},
	"bathtub": {
		Name:        "bathtub",
		Description: "tap fills a tub that drains proportionally; tap closes at step 30",
		Steps:       60,
		Parameters:  map[string]float64{"inflow": 5, "drain": 0.1},
		States: []StateConfig{
			{Name: "Tap", Value: 0, Color: "#76b7b2", Position: []float64{0, 0}},
			{Name: "Tub", Value: 0, Color: "#4e79a7", Position: []float64{1, 0}},
			{Name: "Drain", Value: 0, Color: "#bab0ac", Position: []float64{2, 0}},
		},
		Transitions: []TransitionConfig{
			{From: "Tap", To: "Tub", Expr: "inflow", Deps: []string{"inflow"}},
			{From: "Tub", To: "Drain", Expr: "drain * Tub", Deps: []string{"drain", "Tub"}},
		},
		Events: []EventConfig{
			{Step: at(30), SetParameters: map[string]float64{"inflow": 0}},
		},
	},
}

// GetPreset returns a shallow copy of the named preset, or nil.
func GetPreset(name string) *ModelConfig {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
