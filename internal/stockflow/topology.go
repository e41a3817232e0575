package stockflow

// Node is a state as seen by renderers.
type Node struct {
	Name     string
	Color    string
	Position *Point
}

// Edge is a transition as seen by renderers.
type Edge struct {
	Source      int
	Destination int
	Label       string
}

// Topology is a read-only snapshot of the model graph.
type Topology struct {
	Name  string
	Nodes []Node
	Edges []Edge
}

func (m *Model) Topology() Topology {
	topo := Topology{
		Name:  m.name,
		Nodes: make([]Node, len(m.states)),
		Edges: make([]Edge, len(m.transitions)),
	}
	for i, s := range m.states {
		n := Node{Name: s.Name, Color: s.Color}
		if i < len(m.layout) {
			p := m.layout[i]
			n.Position = &p
		}
		topo.Nodes[i] = n
	}
	cols := m.Columns()
	for i, t := range m.transitions {
		topo.Edges[i] = Edge{Source: t.Source, Destination: t.Destination, Label: cols[len(m.states)+i]}
	}
	return topo
}

// HasLayout reports whether every node carries a position.
func (t Topology) HasLayout() bool {
	if len(t.Nodes) == 0 {
		return false
	}
	for _, n := range t.Nodes {
		if n.Position == nil {
			return false
		}
	}
	return true
}
