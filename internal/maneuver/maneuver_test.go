package maneuver

import (
	"testing"

	"transitline/internal/geo"
	"transitline/internal/osm"
	"transitline/internal/routeline"
	"transitline/internal/stitch"
	"transitline/internal/stopindex"
)

// denseLShapedRoute builds an S2-like L-shaped route but with enough
// vertices along each leg for turn detection's lookback/lookahead windows
// to find the corner (the literal S2 scenario's 2-vertex ways are too
// sparse for the windowed detector; this densifies them while preserving
// the same corner geometry and total length).
func denseLShapedRoute(t *testing.T) *routeline.Route {
	t.Helper()
	const n = 40
	var legA, legB []geo.Coordinate
	for i := 0; i <= n; i++ {
		frac := float64(i) / float64(n)
		legA = append(legA, geo.Coordinate{Lon: 0, Lat: frac * 0.001})
	}
	for i := 0; i <= n; i++ {
		frac := float64(i) / float64(n)
		legB = append(legB, geo.Coordinate{Lon: frac * 0.001, Lat: 0.001})
	}
	idsA := make([]osm.NodeID, len(legA))
	for i := range idsA {
		idsA[i] = osm.NodeID("a")
	}
	idsB := make([]osm.NodeID, len(legB))
	for i := range idsB {
		idsB[i] = osm.NodeID("b")
	}
	a := osm.Way{ID: "A", NodeIDs: idsA, Nodes: legA, StartNode: "n0", EndNode: "n1"}
	b := osm.Way{ID: "B", NodeIDs: idsB, Nodes: legB, StartNode: "n1", EndNode: "n2"}

	r, err := routeline.Build([]stitch.Segment{{Way: a}, {Way: b}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return r
}

func TestExtract_DetectsTurn(t *testing.T) {
	route := denseLShapedRoute(t)
	result := Extract(route, nil, DefaultParams())

	var turns int
	for _, m := range result.Maneuvers {
		if m.Kind == KindTurn {
			turns++
			if m.Side != SideRight {
				t.Errorf("turn side = %s, want right", m.Side)
			}
		}
	}
	if turns == 0 {
		t.Fatal("no turn detected in L-shaped route")
	}
}

func TestExtract_Monotonicity(t *testing.T) {
	route := denseLShapedRoute(t)
	stops := stopindex.Build([]osm.Stop{
		{ID: "s1", Position: geo.Coordinate{Lon: 0, Lat: 0.0005}},
	}, route).Stops()
	result := Extract(route, stops, DefaultParams())

	for i := 0; i+1 < len(result.Maneuvers); i++ {
		if result.Maneuvers[i].DistanceFromStart > result.Maneuvers[i+1].DistanceFromStart {
			t.Fatalf("maneuvers not monotone at %d", i)
		}
	}
}

func TestExtract_NonDuplication(t *testing.T) {
	route := denseLShapedRoute(t)
	params := DefaultParams()
	result := Extract(route, nil, params)

	var turnPositions []float64
	for _, m := range result.Maneuvers {
		if m.Kind == KindTurn {
			turnPositions = append(turnPositions, m.DistanceFromStart)
		}
	}
	for i := 0; i+1 < len(turnPositions); i++ {
		gapVertices := (turnPositions[i+1] - turnPositions[i])
		if gapVertices == 0 {
			t.Errorf("two turns at identical position %v", turnPositions[i])
		}
	}
}

func TestExtract_TerminalStopsConsumedAsMarkers(t *testing.T) {
	route := denseLShapedRoute(t)
	stops := stopindex.Build([]osm.Stop{
		{ID: "start", Position: geo.Coordinate{Lon: 0, Lat: 0}},
		{ID: "end", Position: geo.Coordinate{Lon: 0.001, Lat: 0.001}},
	}, route).Stops()
	result := Extract(route, stops, DefaultParams())

	if result.StartingStop == nil || result.StartingStop.ID != "start" {
		t.Errorf("StartingStop = %v, want start", result.StartingStop)
	}
	if result.DestinationStop == nil || result.DestinationStop.ID != "end" {
		t.Errorf("DestinationStop = %v, want end", result.DestinationStop)
	}
	for _, m := range result.Maneuvers {
		if m.Kind == KindStop && (m.Stop.ID == "start" || m.Stop.ID == "end") {
			t.Errorf("terminal stop %s leaked into Maneuvers", m.Stop.ID)
		}
	}
}

func TestRenderSteps_DistanceFormatting(t *testing.T) {
	result := Result{
		Maneuvers: []Maneuver{
			{Kind: KindTurn, DistanceFromPrevStep: 240, Instruction: "turn normalright, heading E"},
			{Kind: KindStop, DistanceFromPrevStep: 1500, Stop: osm.Stop{Name: "Main St"}},
		},
	}
	lines := RenderSteps(result, 2000)
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}
	if want := "ok. 240 m, then turn normalright, heading E"; lines[0] != want {
		t.Errorf("lines[0] = %q, want %q", lines[0], want)
	}
	if want := "1.5 km, stop at Main St"; lines[1] != want {
		t.Errorf("lines[1] = %q, want %q", lines[1], want)
	}
}

func TestRenderSteps_PreambleAndArrival(t *testing.T) {
	result := Result{
		Maneuvers: []Maneuver{
			{Kind: KindTurn, DistanceFromPrevStep: 240, Instruction: "turn normalright, heading E"},
		},
		StartingStop:    &osm.Stop{ID: "start", Name: "First St"},
		DestinationStop: &osm.Stop{ID: "end", Name: "Last Ave"},
	}
	lines := RenderSteps(result, 1000)
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3: %v", len(lines), lines)
	}
	if want := "start at First St"; lines[0] != want {
		t.Errorf("lines[0] = %q, want %q", lines[0], want)
	}
	if want := "ok. 760 m, arrive at Last Ave"; lines[2] != want {
		t.Errorf("lines[2] = %q, want %q", lines[2], want)
	}
}
