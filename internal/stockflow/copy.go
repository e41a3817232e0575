package stockflow

// Copy returns an independent model named name. States, transitions,
// dependency lists, parameters, run order, layout and the callback table are
// copied; rule and callback functions are shared. The run log is not carried
// over.
func (m *Model) Copy(name string) *Model {
	c := &Model{
		name:        name,
		states:      append(make([]State, 0, len(m.states)), m.states...),
		transitions: m.Transitions(),
		params:      m.params.Clone(),
		callbacks:   m.callbacks.clone(),
		logger:      m.logger,
	}
	if m.order != nil {
		c.order = append([]int(nil), m.order...)
	}
	if m.layout != nil {
		c.layout = append([]Point(nil), m.layout...)
	}
	return c
}
