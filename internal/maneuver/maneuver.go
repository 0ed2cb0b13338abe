// Package maneuver extracts the sparse, monotonically increasing sequence
// of turn and stop waypoints along a Route (C6), and renders them to
// human-readable navigation steps.
package maneuver

import (
	"fmt"
	"sort"

	"transitline/internal/geo"
	"transitline/internal/osm"
	"transitline/internal/routeline"
)

// Kind distinguishes a Turn maneuver from a Stop waypoint. Turn and Stop
// carry payload-specific fields on the same struct rather than an
// inheritance hierarchy, per the tagged-variant convention used throughout
// this module.
type Kind int

const (
	KindTurn Kind = iota
	KindStop
)

// Severity classifies how sharp a Turn is.
type Severity string

const (
	SeveritySlight Severity = "slight"
	SeverityNormal Severity = "normal"
	SeveritySharp  Severity = "sharp"
)

// Side classifies which side a Turn bends toward.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Maneuver is one waypoint along the route: a detected turn or a stop.
type Maneuver struct {
	Kind                 Kind
	DistanceFromStart    float64
	DistanceFromPrevStep float64
	Instruction          string
	Severity             Severity
	Side                 Side
	Cardinal             string
	Stop                 osm.Stop
}

// Params tunes turn detection. Defaults match §4.6: Step 10, Lookback 10,
// Lookahead 20, MinTurnDeg 40.
type Params struct {
	Step       int
	Lookback   int
	Lookahead  int
	MinTurnDeg float64
}

// DefaultParams returns the spec-mandated defaults.
func DefaultParams() Params {
	return Params{Step: 10, Lookback: 10, Lookahead: 20, MinTurnDeg: 40}
}

// Result is the extracted maneuver list plus terminal stop markers consumed
// out of the Maneuver sequence.
type Result struct {
	Maneuvers       []Maneuver
	StartingStop    *osm.Stop
	DestinationStop *osm.Stop
}

// terminalRadiusM is how close the first/last stop must be to the route
// ends to be treated as a preamble/destination marker instead of a Maneuver.
const terminalRadiusM = 50.0

// Extract walks route vertices detecting bearing-change turns, merges in
// stops as Maneuvers, marks terminal stops, and sorts the result by
// arc-length position.
func Extract(route *routeline.Route, stops []osm.Stop, params Params) Result {
	turns := detectTurns(route, params)

	startingStop, destinationStop, stopManeuvers := classifyStops(route, stops)

	all := make([]Maneuver, 0, len(turns)+len(stopManeuvers))
	all = append(all, turns...)
	all = append(all, stopManeuvers...)

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].DistanceFromStart < all[j].DistanceFromStart
	})

	prev := 0.0
	for i := range all {
		all[i].DistanceFromPrevStep = all[i].DistanceFromStart - prev
		prev = all[i].DistanceFromStart
	}

	return Result{Maneuvers: all, StartingStop: startingStop, DestinationStop: destinationStop}
}

func detectTurns(route *routeline.Route, p Params) []Maneuver {
	points := route.Points()
	var turns []Maneuver

	i := p.Lookback
	for i+p.Lookahead < len(points) {
		pre, err := geo.InitialBearing(points[i-p.Lookback], points[i])
		if err != nil {
			i += p.Step
			continue
		}
		post, err := geo.InitialBearing(points[i], points[i+p.Lookahead])
		if err != nil {
			i += p.Step
			continue
		}
		delta := signedDelta(post, pre)
		if abs(delta) < p.MinTurnDeg {
			i += p.Step
			continue
		}

		severity := classifySeverity(delta)
		side := classifySide(delta)
		cardinal := geo.Cardinal(post)

		turns = append(turns, Maneuver{
			Kind:              KindTurn,
			DistanceFromStart: cumAt(route, i),
			Instruction:       fmt.Sprintf("turn %s%s, heading %s", severity, side, cardinal),
			Severity:          severity,
			Side:              side,
			Cardinal:          cardinal,
		})

		i += p.Lookahead // jump past the detected curve to avoid re-detecting it
	}
	return turns
}

// cumAt returns the arc-length position of vertex index i. Route doesn't
// expose its cum table directly; projecting the vertex itself onto the
// route recovers the same value within floating-point tolerance since the
// vertex lies exactly on the polyline.
func cumAt(route *routeline.Route, i int) float64 {
	points := route.Points()
	proj, err := route.Project(points[i])
	if err != nil {
		return 0
	}
	return proj.DistanceFromStart
}

func signedDelta(post, pre float64) float64 {
	d := post - pre
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	return d
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func classifySeverity(delta float64) Severity {
	d := abs(delta)
	switch {
	case d > 100:
		return SeveritySharp
	case d > 60:
		return SeverityNormal
	default:
		return SeveritySlight
	}
}

func classifySide(delta float64) Side {
	if delta > 0 {
		return SideRight
	}
	return SideLeft
}

// classifyStops appends every stop as a Maneuver, except a first/last stop
// within terminalRadiusM of the route ends, which is returned separately as
// a preamble/destination marker per §4.6.
func classifyStops(route *routeline.Route, stops []osm.Stop) (starting, destination *osm.Stop, out []Maneuver) {
	total := route.Length()
	out = make([]Maneuver, 0, len(stops))

	for idx, s := range stops {
		isFirst := idx == 0
		isLast := idx == len(stops)-1

		if isFirst && s.DistFromStart <= terminalRadiusM {
			st := s
			starting = &st
			continue
		}
		if isLast && total-s.DistFromStart <= terminalRadiusM {
			st := s
			destination = &st
			continue
		}

		out = append(out, Maneuver{
			Kind:              KindStop,
			DistanceFromStart: s.DistFromStart,
			Instruction:       fmt.Sprintf("stop %s", s.Name),
			Stop:              s,
		})
	}
	return starting, destination, out
}
