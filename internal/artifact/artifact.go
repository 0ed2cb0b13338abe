// Package artifact (de)serializes the persisted formats the linearization
// pipeline produces: ways_ordered.json, stops.json, route.geojson, and the
// plain-text summary.txt, including its tolerant fallback parsing when used
// in place of stops.json, per §6.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	geojson "github.com/paulmach/go.geojson"
	"github.com/gotidy/ptr"

	"transitline/internal/geo"
	"transitline/internal/osm"
	"transitline/internal/stitch"
)

// WayRecord is one entry of ways_ordered.json.
type WayRecord struct {
	ID        string       `json:"id"`
	Nodes     [][2]float64 `json:"nodes"`
	NodeIDs   []string     `json:"node_ids"`
	StartNode string       `json:"start_node"`
	EndNode   string       `json:"end_node"`
	Reversed  *bool        `json:"reversed,omitempty"`
}

// MarshalWaysOrdered renders the stitched chain as ways_ordered.json.
func MarshalWaysOrdered(segments []stitch.Segment) ([]byte, error) {
	records := make([]WayRecord, 0, len(segments))
	for _, seg := range segments {
		w := seg.Oriented()
		nodes := make([][2]float64, len(w.Nodes))
		for i, p := range w.Nodes {
			nodes[i] = [2]float64{p.Lon, p.Lat}
		}
		ids := make([]string, len(w.NodeIDs))
		for i, id := range w.NodeIDs {
			ids[i] = string(id)
		}
		rec := WayRecord{
			ID:        w.ID,
			Nodes:     nodes,
			NodeIDs:   ids,
			StartNode: string(w.StartNode),
			EndNode:   string(w.EndNode),
		}
		if seg.Reversed {
			rec.Reversed = ptr.Bool(true)
		}
		records = append(records, rec)
	}
	return json.MarshalIndent(records, "", "  ")
}

// StopRecord is one entry of stops.json.
type StopRecord struct {
	ID               string     `json:"id"`
	Role             string     `json:"role"`
	Position         [2]float64 `json:"position"`
	Name             *string    `json:"name,omitempty"`
	DistFromStart    float64    `json:"dist_from_start"`
	DistanceFromPrev float64    `json:"distance_from_prev"`
	DistanceToNext   float64    `json:"distance_to_next"`
}

// MarshalStops renders indexed stops as stops.json.
func MarshalStops(stops []osm.Stop) ([]byte, error) {
	records := make([]StopRecord, len(stops))
	for i, s := range stops {
		rec := StopRecord{
			ID:               string(s.ID),
			Role:             string(s.Role),
			Position:         [2]float64{s.Position.Lon, s.Position.Lat},
			DistFromStart:    s.DistFromStart,
			DistanceFromPrev: s.DistanceFromPrev,
			DistanceToNext:   s.DistanceToNext,
		}
		if s.Name != "" {
			rec.Name = ptr.String(s.Name)
		}
		records[i] = rec
	}
	return json.MarshalIndent(records, "", "  ")
}

// UnmarshalStops parses a stops.json document.
func UnmarshalStops(data []byte) ([]osm.Stop, error) {
	var records []StopRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("artifact: decode stops.json: %w", err)
	}
	out := make([]osm.Stop, len(records))
	for i, r := range records {
		name := ""
		if r.Name != nil {
			name = *r.Name
		}
		out[i] = osm.Stop{
			ID:               osm.NodeID(r.ID),
			Role:             osm.Role(r.Role),
			Position:         geo.Coordinate{Lon: r.Position[0], Lat: r.Position[1]},
			Name:             name,
			DistFromStart:    r.DistFromStart,
			DistanceFromPrev: r.DistanceFromPrev,
			DistanceToNext:   r.DistanceToNext,
			Indexed:          true,
		}
	}
	return out, nil
}

// MarshalRouteGeoJSON renders the stitched chain plus stops as a
// FeatureCollection: LineString features per way, Point features per stop.
func MarshalRouteGeoJSON(segments []stitch.Segment, stops []osm.Stop) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	for order, seg := range segments {
		w := seg.Oriented()
		coords := make([][]float64, len(w.Nodes))
		for i, p := range w.Nodes {
			coords[i] = []float64{p.Lon, p.Lat}
		}
		feature := geojson.NewLineStringFeature(coords)
		feature.SetProperty("id", w.ID)
		feature.SetProperty("type", "route_segment")
		feature.SetProperty("order", order)
		feature.SetProperty("start_node", string(w.StartNode))
		feature.SetProperty("end_node", string(w.EndNode))
		fc.AddFeature(feature)
	}

	for order, s := range stops {
		feature := geojson.NewPointFeature([]float64{s.Position.Lon, s.Position.Lat})
		feature.SetProperty("id", string(s.ID))
		feature.SetProperty("type", "stop")
		feature.SetProperty("order", order)
		feature.SetProperty("role", string(s.Role))
		feature.SetProperty("name", s.Name)
		feature.SetProperty("dist_from_start", s.DistFromStart)
		feature.SetProperty("distance_from_prev", s.DistanceFromPrev)
		feature.SetProperty("distance_to_next", s.DistanceToNext)
		fc.AddFeature(feature)
	}

	return fc.MarshalJSON()
}

// Summary renders summary.txt, grounded on save_files' plain-text report.
func Summary(relationID string, segments []stitch.Segment, stops []osm.Stop, routeLength float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Relation: %s\n", relationID)
	fmt.Fprintf(&b, "Segment count: %d\n", len(segments))
	fmt.Fprintf(&b, "Total route length: %.2f m (%.2f km)\n\n", routeLength, routeLength/1000)

	fmt.Fprintf(&b, "Route segments (order):\n")
	for i, seg := range segments {
		w := seg.Oriented()
		fmt.Fprintf(&b, "%d. Way ID: %s (from node %s to %s)\n", i+1, w.ID, w.StartNode, w.EndNode)
	}

	if len(stops) > 0 {
		fmt.Fprintf(&b, "\nStops (from route start):\n")
		for i, s := range stops {
			name := s.Name
			if name == "" {
				name = "Unnamed"
			}
			fmt.Fprintf(&b, "%d. Stop ID: %s (role=%q) - Name: %s\n", i+1, s.ID, s.Role, name)
			fmt.Fprintf(&b, "   Distance from route start: %.2f m (%.2f km)\n", s.DistFromStart, s.DistFromStart/1000)
			fmt.Fprintf(&b, "   Distance from previous stop: %.2f m (%.2f km)\n", s.DistanceFromPrev, s.DistanceFromPrev/1000)
			fmt.Fprintf(&b, "   Distance to next stop: %.2f m (%.2f km)\n", s.DistanceToNext, s.DistanceToNext/1000)
		}
	}

	return b.String()
}

// ParseSummaryStops tolerantly extracts stop id/dist_from_start pairs from a
// summary.txt document, for use in lieu of stops.json. Lines recognized:
// "Stop ID: <id>" (optionally preceded by a list number such as "1. ")
// starting a new record after a "Stops" section header, and
// "Distance from route start: <number> m" setting its dist_from_start.
func ParseSummaryStops(text string) []osm.Stop {
	var out []osm.Stop
	var current *osm.Stop
	inStopsSection := false

	flush := func() {
		if current != nil {
			out = append(out, *current)
			current = nil
		}
	}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if strings.Contains(line, "Stops") {
			inStopsSection = true
			continue
		}
		if !inStopsSection {
			continue
		}
		if _, after, ok := strings.Cut(line, "Stop ID:"); ok {
			flush()
			id := strings.TrimSpace(after)
			id, _, _ = strings.Cut(id, " ")
			current = &osm.Stop{ID: osm.NodeID(id), Indexed: true}
			continue
		}
		if current != nil && strings.Contains(line, "Distance from route start:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) < 2 {
				continue
			}
			fields := strings.Fields(strings.TrimSpace(parts[1]))
			if len(fields) == 0 {
				continue
			}
			if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
				current.DistFromStart = v
			}
		}
	}
	flush()
	return out
}

// ParseSummaryTotalLength extracts "Total route length: <number> m" from a
// summary.txt document. It only returns the value; nothing in this module
// substitutes it for a Route's locally computed Length.
func ParseSummaryTotalLength(text string) (float64, bool) {
	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if !strings.Contains(line, "Total route length:") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) < 2 {
			continue
		}
		fields := strings.Fields(strings.TrimSpace(parts[1]))
		if len(fields) == 0 {
			continue
		}
		if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// WriteWaysOrdered renders and writes ways_ordered.json under dir.
func WriteWaysOrdered(dir string, segments []stitch.Segment) error {
	data, err := MarshalWaysOrdered(segments)
	if err != nil {
		return err
	}
	return writeFile(dir, "ways_ordered.json", data)
}

// WriteStops renders and writes stops.json under dir.
func WriteStops(dir string, stops []osm.Stop) error {
	data, err := MarshalStops(stops)
	if err != nil {
		return err
	}
	return writeFile(dir, "stops.json", data)
}

// WriteGeoJSON renders and writes route.geojson under dir.
func WriteGeoJSON(dir string, segments []stitch.Segment, stops []osm.Stop) error {
	data, err := MarshalRouteGeoJSON(segments, stops)
	if err != nil {
		return err
	}
	return writeFile(dir, "route.geojson", data)
}

// WriteSummary renders and writes summary.txt under dir.
func WriteSummary(dir, relationID string, segments []stitch.Segment, stops []osm.Stop, routeLength float64) error {
	text := Summary(relationID, segments, stops, routeLength)
	return writeFile(dir, "summary.txt", []byte(text))
}

func writeFile(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("artifact: write %s: %w", path, err)
	}
	return nil
}

// ReadWaysOrdered reads and decodes ways_ordered.json from dir.
func ReadWaysOrdered(dir string) ([]WayRecord, error) {
	data, err := os.ReadFile(filepath.Join(dir, "ways_ordered.json"))
	if err != nil {
		return nil, fmt.Errorf("artifact: read ways_ordered.json: %w", err)
	}
	return DecodeWaysOrdered(data)
}

// DecodeWaysOrdered decodes an already-read ways_ordered.json payload, e.g.
// one retrieved from routestore rather than the filesystem.
func DecodeWaysOrdered(data []byte) ([]WayRecord, error) {
	var records []WayRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("artifact: decode ways_ordered.json: %w", err)
	}
	return records, nil
}

// ReadStopsOrSummary reads stops.json from dir, falling back to the
// tolerant summary.txt parser when stops.json is absent, per §6.
func ReadStopsOrSummary(dir string) ([]osm.Stop, error) {
	data, err := os.ReadFile(filepath.Join(dir, "stops.json"))
	if err == nil {
		return UnmarshalStops(data)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("artifact: read stops.json: %w", err)
	}
	text, err := os.ReadFile(filepath.Join(dir, "summary.txt"))
	if err != nil {
		return nil, fmt.Errorf("artifact: read summary.txt fallback: %w", err)
	}
	return ParseSummaryStops(string(text)), nil
}

// SegmentsFromWayRecords rebuilds stitched Segments from a decoded
// ways_ordered.json, for reconstructing a Route from persisted artifacts
// without re-running the Stitcher. Each record's nodes are already in their
// final oriented order, so the rebuilt segment is never itself Reversed.
func SegmentsFromWayRecords(records []WayRecord) []stitch.Segment {
	segments := make([]stitch.Segment, len(records))
	for i, r := range records {
		nodes := make([]geo.Coordinate, len(r.Nodes))
		for j, p := range r.Nodes {
			nodes[j] = geo.Coordinate{Lon: p[0], Lat: p[1]}
		}
		nodeIDs := make([]osm.NodeID, len(r.NodeIDs))
		for j, id := range r.NodeIDs {
			nodeIDs[j] = osm.NodeID(id)
		}
		segments[i] = stitch.Segment{
			Index: i,
			Way: osm.Way{
				ID:        r.ID,
				NodeIDs:   nodeIDs,
				Nodes:     nodes,
				StartNode: osm.NodeID(r.StartNode),
				EndNode:   osm.NodeID(r.EndNode),
			},
		}
	}
	return segments
}
