package stockflow

import (
	"sort"
	"strconv"
)

// Callback runs between steps with exclusive write access to the model. step is
// the index of the step that has just been recorded.
type Callback func(m *Model, step int) error

// CallbackKey selects when a callback fires: at one step or at every step.
type CallbackKey struct {
	step  int
	every bool
}

// EveryStep fires after every step, following any step-specific callbacks.
var EveryStep = CallbackKey{every: true}

// AtStep fires once, after step k.
func AtStep(k int) CallbackKey { return CallbackKey{step: k} }

// Every reports whether the key is the every-step sentinel.
func (k CallbackKey) Every() bool { return k.every }

// Step returns the step index; meaningless for EveryStep.
func (k CallbackKey) Step() int { return k.step }

func (k CallbackKey) String() string {
	if k.every {
		return "every"
	}
	return "@" + strconv.Itoa(k.step)
}

type callbackTable map[CallbackKey][]Callback

func (t callbackTable) clone() callbackTable {
	c := make(callbackTable, len(t))
	for k, cbs := range t {
		c[k] = append([]Callback(nil), cbs...)
	}
	return c
}

// steps returns the step-specific keys in ascending order.
func (t callbackTable) steps() []int {
	steps := make([]int, 0, len(t))
	for k := range t {
		if !k.every {
			steps = append(steps, k.step)
		}
	}
	sort.Ints(steps)
	return steps
}
