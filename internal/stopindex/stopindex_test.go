package stopindex

import (
	"math"
	"testing"

	"transitline/internal/geo"
	"transitline/internal/osm"
	"transitline/internal/routeline"
	"transitline/internal/stitch"
)

func buildS2Route(t *testing.T) *routeline.Route {
	t.Helper()
	a := osm.Way{
		ID: "A", NodeIDs: []osm.NodeID{"n0", "n1"},
		Nodes:     []geo.Coordinate{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 0.001}},
		StartNode: "n0", EndNode: "n1",
	}
	b := osm.Way{
		ID: "B", NodeIDs: []osm.NodeID{"n1", "n2"},
		Nodes:     []geo.Coordinate{{Lon: 0, Lat: 0.001}, {Lon: 0.001, Lat: 0.001}},
		StartNode: "n1", EndNode: "n2",
	}
	r, err := routeline.Build([]stitch.Segment{{Way: a}, {Way: b}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return r
}

// TestBuild_S4_StopIndexing mirrors scenario S4.
func TestBuild_S4_StopIndexing(t *testing.T) {
	route := buildS2Route(t)
	stops := []osm.Stop{
		{ID: "s1", Position: geo.Coordinate{Lon: 0, Lat: 0.0005}},
		{ID: "s2", Position: geo.Coordinate{Lon: 0.0005, Lat: 0.001}},
	}
	si := Build(stops, route)

	if si.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", si.Len())
	}
	got := si.Stops()
	if math.Abs(got[0].DistFromStart-55.597) > 0.5 {
		t.Errorf("stops[0].DistFromStart = %v, want ~55.597", got[0].DistFromStart)
	}
	if math.Abs(got[1].DistFromStart-166.792) > 1.0 {
		t.Errorf("stops[1].DistFromStart = %v, want ~166.792", got[1].DistFromStart)
	}

	prev, ok := si.Previous(120)
	if !ok || prev.ID != "s1" {
		t.Errorf("Previous(120) = %+v, ok=%v, want s1", prev, ok)
	}
	next, ok := si.Next(120)
	if !ok || next.ID != "s2" {
		t.Errorf("Next(120) = %+v, ok=%v, want s2", next, ok)
	}
}

func TestStopIndex_OrderedAndNeighbourArithmetic(t *testing.T) {
	route := buildS2Route(t)
	stops := []osm.Stop{
		{ID: "s2", Position: geo.Coordinate{Lon: 0.0005, Lat: 0.001}},
		{ID: "s1", Position: geo.Coordinate{Lon: 0, Lat: 0.0005}},
	}
	si := Build(stops, route)
	got := si.Stops()

	for i := 0; i < len(got)-1; i++ {
		if got[i].DistFromStart > got[i+1].DistFromStart {
			t.Fatalf("stops not ordered: %v > %v", got[i].DistFromStart, got[i+1].DistFromStart)
		}
		gap := got[i+1].DistFromStart - got[i].DistFromStart
		if math.Abs(gap-got[i+1].DistanceFromPrev) > 1e-6 {
			t.Errorf("DistanceFromPrev mismatch at %d: %v vs gap %v", i+1, got[i+1].DistanceFromPrev, gap)
		}
		if math.Abs(gap-got[i].DistanceToNext) > 1e-6 {
			t.Errorf("DistanceToNext mismatch at %d: %v vs gap %v", i, got[i].DistanceToNext, gap)
		}
	}
}

func TestStopIndex_RejectsInvalidPositionEvenIfIndexed(t *testing.T) {
	route := buildS2Route(t)
	stops := []osm.Stop{
		{ID: "s1", Position: geo.Coordinate{Lon: 999, Lat: 999}, DistFromStart: 42, Indexed: true},
	}
	si := Build(stops, route)
	if si.Len() != 0 {
		// invalid position still rejected even if Indexed is trusted
		t.Fatalf("Len() = %d, want 0 (invalid position must be rejected)", si.Len())
	}
}

func TestStopIndex_QueryAtRouteEnds(t *testing.T) {
	route := buildS2Route(t)
	stops := []osm.Stop{
		{ID: "s1", Position: geo.Coordinate{Lon: 0, Lat: 0.0005}},
	}
	si := Build(stops, route)
	if _, ok := si.Next(1_000_000); ok {
		t.Error("Next(huge) ok = true, want false (no stop after route end)")
	}
	if _, ok := si.Previous(-1000); ok {
		t.Error("Previous(-1000) ok = true, want false (no stop before route start)")
	}
}
