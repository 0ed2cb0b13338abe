package osm

import (
	"testing"

	"transitline/internal/geo"
)

func mkWay(id string, start, end NodeID, pts ...geo.Coordinate) Way {
	ids := make([]NodeID, len(pts))
	ids[0] = start
	ids[len(ids)-1] = end
	for i := 1; i < len(ids)-1; i++ {
		ids[i] = NodeID(id + "-mid")
	}
	return Way{ID: id, NodeIDs: ids, Nodes: pts, StartNode: start, EndNode: end}
}

func TestNewWaySet_RejectsShortWays(t *testing.T) {
	ways := []Way{
		{ID: "short", NodeIDs: []NodeID{"a"}, Nodes: []geo.Coordinate{{Lon: 0, Lat: 0}}, StartNode: "a", EndNode: "a"},
		mkWay("ok", "a", "b", geo.Coordinate{Lon: 0, Lat: 0}, geo.Coordinate{Lon: 0, Lat: 1}),
	}
	ws := NewWaySet(ways)
	if len(ws.Ways()) != 1 {
		t.Fatalf("len(Ways()) = %d, want 1", len(ws.Ways()))
	}
	if ws.Ways()[0].ID != "ok" {
		t.Errorf("kept way = %s, want ok", ws.Ways()[0].ID)
	}
}

func TestWaySet_EndpointsAndJunctions(t *testing.T) {
	// A chain a-b-c plus a spur b-d: b has degree 3 (junction), a/c/d degree 1.
	ways := []Way{
		mkWay("ab", "a", "b", geo.Coordinate{Lon: 0, Lat: 0}, geo.Coordinate{Lon: 0, Lat: 1}),
		mkWay("bc", "b", "c", geo.Coordinate{Lon: 0, Lat: 1}, geo.Coordinate{Lon: 0, Lat: 2}),
		mkWay("bd", "b", "d", geo.Coordinate{Lon: 0, Lat: 1}, geo.Coordinate{Lon: 1, Lat: 1}),
	}
	ws := NewWaySet(ways)

	endpoints := ws.Endpoints()
	if len(endpoints) != 3 {
		t.Fatalf("Endpoints() = %v, want 3 nodes", endpoints)
	}
	junctions := ws.Junctions()
	if len(junctions) != 1 || junctions[0] != "b" {
		t.Fatalf("Junctions() = %v, want [b]", junctions)
	}
	if ws.Degree("b") != 3 {
		t.Errorf("Degree(b) = %d, want 3", ws.Degree("b"))
	}
}

func TestWaySet_Analyze_Descriptive(t *testing.T) {
	ways := []Way{
		mkWay("ab", "a", "b", geo.Coordinate{Lon: 0, Lat: 0}, geo.Coordinate{Lon: 0, Lat: 1}),
	}
	ws := NewWaySet(ways)
	report := ws.Analyze()
	if report == "" {
		t.Fatal("Analyze() returned empty report")
	}
}
