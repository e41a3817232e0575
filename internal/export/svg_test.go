package export

import (
	"strings"
	"testing"

	"github.com/san-kum/stockflow/internal/stockflow"
)

func sirTopology(withLayout bool) stockflow.Topology {
	m := stockflow.New("sir")
	s := m.AddState("S", 990, "#4e79a7")
	i := m.AddState("I", 10, "")
	r := m.AddState("R<x>", 0, "#59a14f")
	zero := func(args ...float64) (float64, error) { return 0, nil }
	m.AddTransition(s, i, zero)
	m.AddTransition(i, r, zero)
	if withLayout {
		m.SetLayout([]stockflow.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}})
	}
	return m.Topology()
}

func TestTopologyToSVG(t *testing.T) {
	for _, layout := range []bool{true, false} {
		svg := TopologyToSVG(sirTopology(layout), 400, 200)

		if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
			t.Fatalf("malformed svg:\n%s", svg)
		}
		if got := strings.Count(svg, "<rect x="); got != 3 {
			t.Errorf("layout=%v: %d node rects, want 3", layout, got)
		}
		if got := strings.Count(svg, "<line "); got != 2 {
			t.Errorf("layout=%v: %d edges, want 2", layout, got)
		}
		if !strings.Contains(svg, "R&lt;x&gt;") {
			t.Error("node name not escaped")
		}
		if !strings.Contains(svg, "<title>S to I</title>") {
			t.Error("edge label missing")
		}
	}
}

func TestPlaceNodesUsesHints(t *testing.T) {
	pos := placeNodes(sirTopology(true), 400, 200)
	if pos[0].X != margin || pos[2].X != 400-margin {
		t.Errorf("x positions not fitted: %+v", pos)
	}
	if pos[1].Y != 100 {
		t.Errorf("flat layout should be vertically centred, got %v", pos[1].Y)
	}
}

func TestTrajectoryToSVG(t *testing.T) {
	if TrajectoryToSVG([]float64{1}, nil, 100, 50, "#fff") != "" {
		t.Error("expected empty output for a single point")
	}

	svg := TrajectoryToSVG([]float64{90, 81, 72.9, 65.6}, []int{1, 99}, 300, 100, "#00ff00")
	if strings.Count(svg, "stroke-dasharray") != 1 {
		t.Errorf("expected one in-range marker:\n%s", svg)
	}
	if strings.Count(svg, " L") != 3 {
		t.Errorf("expected 3 segments:\n%s", svg)
	}
}
