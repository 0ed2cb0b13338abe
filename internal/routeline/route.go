// Package routeline builds the immutable, arc-length-parameterized polyline
// (Route) from a stitched way chain, and answers projection and
// segment-lookup queries against it.
package routeline

import (
	"errors"
	"fmt"
	"math"

	"transitline/internal/geo"
	"transitline/internal/stitch"
)

var (
	// ErrEmptyRoute is returned when fewer than 2 valid vertices survive
	// filtering; fatal to construction or to Project.
	ErrEmptyRoute = errors.New("routeline: empty route")
	// ErrInvalidGeometry is returned when Project cannot find any segment
	// against a non-empty Route; treated as a fatal internal error.
	ErrInvalidGeometry = errors.New("routeline: invalid geometry")
)

const degreeToMeters = 111_000.0

// wayBound records which vertex range of the flattened polyline a stitched
// way occupies, so segment_at can map an arc-length distance back to a way.
type wayBound struct {
	wayID      string
	reversed   bool
	startNode  string
	endNode    string
	firstIndex int // index of way's first vertex in points
	lastIndex  int // index of way's last vertex in points
}

// Route is the immutable stitched polyline with its cumulative arc-length
// table. Safe to share by read-only reference across goroutines.
type Route struct {
	points []geo.Coordinate
	cum    []float64 // cum[i] = arc length from points[0] to points[i]
	ways   []wayBound
}

// Build constructs a Route from a stitched chain of oriented way segments,
// per §4.4: join-point dedup between consecutive ways, NaN/non-finite vertex
// filtering, consecutive-equal-vertex collapsing, and a haversine-based
// cumulative arc-length table.
func Build(segments []stitch.Segment) (*Route, error) {
	var points []geo.Coordinate
	var ways []wayBound

	for _, seg := range segments {
		w := seg.Oriented()
		start := len(points)
		for i, p := range w.Nodes {
			if !p.Valid() {
				continue // BadCoordinate: filtered, not fatal
			}
			if i == 0 && len(points) > 0 && points[len(points)-1].Equal(p) {
				continue // join-point dedup with previous way's last point
			}
			if len(points) > 0 && points[len(points)-1].Equal(p) {
				continue // consecutive-equal collapse
			}
			points = append(points, p)
		}
		end := len(points) - 1
		if end < start {
			continue // way contributed no new vertices
		}
		ways = append(ways, wayBound{
			wayID:      w.ID,
			reversed:   seg.Reversed,
			startNode:  string(w.StartNode),
			endNode:    string(w.EndNode),
			firstIndex: start,
			lastIndex:  end,
		})
	}

	if len(points) < 2 {
		return nil, ErrEmptyRoute
	}

	cum := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		d, err := geo.Haversine(points[i-1], points[i])
		if err != nil {
			return nil, fmt.Errorf("routeline: build cumulative length: %w", err)
		}
		cum[i] = cum[i-1] + d
	}

	return &Route{points: points, cum: cum, ways: ways}, nil
}

// Length returns the route's total arc length in meters.
func (r *Route) Length() float64 {
	if len(r.cum) == 0 {
		return 0
	}
	return r.cum[len(r.cum)-1]
}

// Points returns the route's flattened vertex list. Callers must not mutate
// the returned slice.
func (r *Route) Points() []geo.Coordinate { return r.points }

// ProjectionResult is the outcome of projecting a fix onto the Route.
type ProjectionResult struct {
	Nearest           geo.Coordinate
	DistanceFromStart float64
	LateralDeviationM float64
	SegmentIndex      int
}

// Project finds the closest point on the route's polyline to p, per §4.4:
// planar closest-point-on-segment for every segment, keeping the
// minimum-distance result with ties broken toward the smaller segment index.
func (r *Route) Project(p geo.Coordinate) (ProjectionResult, error) {
	if len(r.points) < 2 {
		return ProjectionResult{}, ErrEmptyRoute
	}

	best := ProjectionResult{SegmentIndex: -1}
	bestD := math.Inf(1)

	for i := 0; i < len(r.points)-1; i++ {
		a, b := r.points[i], r.points[i+1]
		nearest, t, d := closestPointOnSegment(a, b, p)
		if d < bestD {
			bestD = d
			best = ProjectionResult{
				Nearest:           nearest,
				DistanceFromStart: r.cum[i] + t*(r.cum[i+1]-r.cum[i]),
				LateralDeviationM: d * degreeToMeters,
				SegmentIndex:      i,
			}
		}
	}

	if best.SegmentIndex == -1 {
		return ProjectionResult{}, ErrInvalidGeometry
	}
	return best, nil
}

// closestPointOnSegment returns the closest point to p on segment a-b in
// planar (lon, lat) space, the normalized projection parameter t in [0,1],
// and the planar Euclidean distance from p to that point.
func closestPointOnSegment(a, b, p geo.Coordinate) (geo.Coordinate, float64, float64) {
	dx := b.Lon - a.Lon
	dy := b.Lat - a.Lat
	lenSq := dx*dx + dy*dy

	var t float64
	if lenSq > 0 {
		t = ((p.Lon-a.Lon)*dx + (p.Lat-a.Lat)*dy) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	nearest := geo.Coordinate{Lon: a.Lon + t*dx, Lat: a.Lat + t*dy}
	ddx := p.Lon - nearest.Lon
	ddy := p.Lat - nearest.Lat
	d := math.Sqrt(ddx*ddx + ddy*ddy)
	return nearest, t, d
}

// SegmentLocation is the result of segment_at(distance): the stitched way
// whose arc-length span contains distance, plus position within it.
type SegmentLocation struct {
	WayIndex    int
	WayID       string
	OffsetInWay float64
	Pct         float64
	WayLength   float64
	StartNode   string
	EndNode     string
	Clamped     bool
}

// SegmentAt walks ways in stitched order, summing each way's internal
// length, and returns the way whose span contains distance. Out-of-range
// distances are clamped to the first/last way with a Clamped warning flag,
// per §4.4 and scenario S6.
func (r *Route) SegmentAt(distance float64) SegmentLocation {
	if len(r.ways) == 0 {
		return SegmentLocation{}
	}

	if distance < 0 {
		loc := r.wayLocation(0, r.cum[r.ways[0].firstIndex])
		loc.OffsetInWay = 0
		loc.Pct = 0
		loc.Clamped = true
		return loc
	}
	total := r.Length()
	if distance > total {
		last := len(r.ways) - 1
		loc := r.wayLocation(last, r.cum[r.ways[last].lastIndex])
		loc.Pct = 100
		loc.Clamped = true
		return loc
	}

	for i, w := range r.ways {
		wayStart := r.cum[w.firstIndex]
		wayEnd := r.cum[w.lastIndex]
		if distance >= wayStart-1e-9 && distance <= wayEnd+1e-9 {
			loc := r.wayLocation(i, distance)
			return loc
		}
	}

	last := len(r.ways) - 1
	loc := r.wayLocation(last, r.cum[r.ways[last].lastIndex])
	loc.Pct = 100
	loc.Clamped = true
	return loc
}

func (r *Route) wayLocation(wayIdx int, distance float64) SegmentLocation {
	w := r.ways[wayIdx]
	wayStart := r.cum[w.firstIndex]
	wayEnd := r.cum[w.lastIndex]
	length := wayEnd - wayStart
	offset := distance - wayStart

	pct := 100.0
	if length > 0 {
		pct = 100 * offset / length
	}
	startNode, endNode := w.startNode, w.endNode
	return SegmentLocation{
		WayIndex:    wayIdx,
		WayID:       w.wayID,
		OffsetInWay: offset,
		Pct:         pct,
		WayLength:   length,
		StartNode:   startNode,
		EndNode:     endNode,
	}
}
