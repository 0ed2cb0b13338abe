package artifact

import (
	"strings"
	"testing"

	"transitline/internal/geo"
	"transitline/internal/osm"
	"transitline/internal/stitch"
)

func sampleSegments() []stitch.Segment {
	return []stitch.Segment{
		{Way: osm.Way{
			ID:        "A",
			NodeIDs:   []osm.NodeID{"n0", "n1"},
			Nodes:     []geo.Coordinate{{Lon: 0, Lat: 0}, {Lon: 0, Lat: 0.001}},
			StartNode: "n0", EndNode: "n1",
		}},
	}
}

func sampleStops() []osm.Stop {
	return []osm.Stop{
		{ID: "s1", Role: osm.RoleStop, Position: geo.Coordinate{Lon: 0, Lat: 0.0005}, Name: "Main St",
			DistFromStart: 55.6, DistanceFromPrev: 0, DistanceToNext: 100},
	}
}

func TestMarshalWaysOrdered_RoundTrip(t *testing.T) {
	out, err := MarshalWaysOrdered(sampleSegments())
	if err != nil {
		t.Fatalf("MarshalWaysOrdered() error = %v", err)
	}
	if !strings.Contains(string(out), `"id": "A"`) {
		t.Errorf("output missing way id: %s", out)
	}
}

func TestMarshalWaysOrdered_ReversedFlag(t *testing.T) {
	segs := []stitch.Segment{{Way: sampleSegments()[0].Way, Reversed: true}}
	out, err := MarshalWaysOrdered(segs)
	if err != nil {
		t.Fatalf("MarshalWaysOrdered() error = %v", err)
	}
	if !strings.Contains(string(out), `"reversed": true`) {
		t.Errorf("output missing reversed flag: %s", out)
	}
}

func TestStops_RoundTrip(t *testing.T) {
	stops := sampleStops()
	data, err := MarshalStops(stops)
	if err != nil {
		t.Fatalf("MarshalStops() error = %v", err)
	}
	decoded, err := UnmarshalStops(data)
	if err != nil {
		t.Fatalf("UnmarshalStops() error = %v", err)
	}
	if len(decoded) != 1 || decoded[0].ID != "s1" || decoded[0].Name != "Main St" {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded[0].DistFromStart != 55.6 {
		t.Errorf("DistFromStart = %v, want 55.6", decoded[0].DistFromStart)
	}
}

func TestMarshalRouteGeoJSON_FeatureCollection(t *testing.T) {
	out, err := MarshalRouteGeoJSON(sampleSegments(), sampleStops())
	if err != nil {
		t.Fatalf("MarshalRouteGeoJSON() error = %v", err)
	}
	s := string(out)
	if !strings.Contains(s, "FeatureCollection") {
		t.Errorf("output missing FeatureCollection: %s", s)
	}
	if !strings.Contains(s, "LineString") || !strings.Contains(s, "Point") {
		t.Errorf("output missing LineString/Point geometries: %s", s)
	}
}

func TestSummary_ContainsExpectedFields(t *testing.T) {
	text := Summary("123", sampleSegments(), sampleStops(), 111.2)
	if !strings.Contains(text, "Relation: 123") {
		t.Errorf("summary missing relation id: %s", text)
	}
	if !strings.Contains(text, "Stop ID: s1") {
		t.Errorf("summary missing stop record: %s", text)
	}
}

func TestParseSummaryStops_TolerantExtraction(t *testing.T) {
	text := `Relation: 123
Segment count: 1
Total route length: 111.20 m (0.11 km)

Route segments (order):
1. Way ID: A (from node n0 to n1)

Stops (from route start):
1. Stop ID: s1 (role="stop") - Name: Main St
   Distance from route start: 55.60 m (0.06 km)
   Distance from previous stop: 0.00 m (0.00 km)
   Distance to next stop: 100.00 m (0.10 km)
`
	stops := ParseSummaryStops(text)
	if len(stops) != 1 {
		t.Fatalf("len(stops) = %d, want 1", len(stops))
	}
	if stops[0].ID != "s1" {
		t.Errorf("ID = %s, want s1", stops[0].ID)
	}
	if stops[0].DistFromStart != 55.60 {
		t.Errorf("DistFromStart = %v, want 55.60", stops[0].DistFromStart)
	}
}

func TestParseSummaryTotalLength_ExtractsValue(t *testing.T) {
	text := "Total route length: 222.39 m (0.22 km)\n"
	v, ok := ParseSummaryTotalLength(text)
	if !ok {
		t.Fatal("ParseSummaryTotalLength() ok = false, want true")
	}
	if v != 222.39 {
		t.Errorf("v = %v, want 222.39", v)
	}
}
