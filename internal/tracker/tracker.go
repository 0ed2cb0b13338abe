// Package tracker consumes live vehicle position fixes and produces
// NavigationState per fix (C7), by projecting onto a prebuilt Route,
// StopIndex, and ManeuverExtractor sequence. Pure with respect to those
// three; the only state it owns is its own last fix/state cache.
package tracker

import (
	"time"

	"transitline/internal/geo"
	"transitline/internal/maneuver"
	"transitline/internal/osm"
	"transitline/internal/routeline"
	"transitline/internal/stopindex"
)

// ErrBadCoordinate is returned when a Fix's coordinates are non-finite or
// out of range.
var ErrBadCoordinate = geo.ErrBadCoordinate

// Fix is a single vehicle position reading. Heading, Speed, Timestamp,
// Line, and Brigade are optional and carried through unexamined.
type Fix struct {
	Lat       float64
	Lon       float64
	Heading   *float64
	Speed     *float64
	Timestamp *time.Time
	Line      string
	Brigade   string
}

func (f Fix) coordinate() geo.Coordinate {
	return geo.Coordinate{Lon: f.Lon, Lat: f.Lat}
}

// NavigationState is the composite snapshot Tracker produces for each Fix.
type NavigationState struct {
	Fix                     Fix
	Projection              routeline.ProjectionResult
	Segment                 routeline.SegmentLocation
	PreviousStop            *osm.Stop
	NextStop                *osm.Stop
	ManeuverHint            *maneuver.Maneuver
	DistanceToHint          float64
	ProgressPct             float64
	ProgressBetweenStopsPct float64
}

// Tracker binds an immutable Route/StopIndex/maneuver.Sequence triple and
// tracks the last fix/state it produced.
type Tracker struct {
	route     *routeline.Route
	stops     *stopindex.StopIndex
	maneuvers maneuver.Sequence

	lastFix   *Fix
	lastState *NavigationState
}

// New binds a Tracker to an immutable Route/StopIndex/Maneuver sequence.
func New(route *routeline.Route, stops *stopindex.StopIndex, maneuvers maneuver.Sequence) *Tracker {
	return &Tracker{route: route, stops: stops, maneuvers: maneuvers}
}

// Track validates fix, projects it onto the route, and produces a
// NavigationState, per §4.7 steps 1-6.
func (t *Tracker) Track(fix Fix) (NavigationState, error) {
	coord := fix.coordinate()
	if !coord.Valid() {
		return NavigationState{}, ErrBadCoordinate
	}

	proj, err := t.route.Project(coord)
	if err != nil {
		return NavigationState{}, err
	}
	seg := t.route.SegmentAt(proj.DistanceFromStart)

	var prevStop, nextStop *osm.Stop
	if s, ok := t.stops.Previous(proj.DistanceFromStart); ok {
		prevStop = &s
	}
	if s, ok := t.stops.Next(proj.DistanceFromStart); ok {
		nextStop = &s
	}

	var hint *maneuver.Maneuver
	var distanceToHint float64
	if m, ok := t.maneuvers.NextAfter(proj.DistanceFromStart); ok {
		hint = &m
		distanceToHint = m.DistanceFromStart - proj.DistanceFromStart
		if distanceToHint < 0 {
			distanceToHint = 0
		}
	}

	total := t.route.Length()
	progressPct := 0.0
	if total > 0 {
		progressPct = 100 * proj.DistanceFromStart / total
	}

	state := NavigationState{
		Fix:                     fix,
		Projection:              proj,
		Segment:                 seg,
		PreviousStop:            prevStop,
		NextStop:                nextStop,
		ManeuverHint:            hint,
		DistanceToHint:          distanceToHint,
		ProgressPct:             progressPct,
		ProgressBetweenStopsPct: progressBetweenStops(prevStop, nextStop, proj.DistanceFromStart),
	}

	t.lastFix = &fix
	t.lastState = &state
	return state, nil
}

// progressBetweenStops is a supplemented convenience field: how far the
// vehicle is between its bracketing stops, as a percentage. 0 when either
// bracketing stop is absent or the gap between them is zero.
func progressBetweenStops(prev, next *osm.Stop, d float64) float64 {
	if prev == nil || next == nil {
		return 0
	}
	span := next.DistFromStart - prev.DistFromStart
	if span <= 0 {
		return 0
	}
	pct := 100 * (d - prev.DistFromStart) / span
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	return pct
}

// LastFix returns the most recent fix Track was called with, if any.
func (t *Tracker) LastFix() (Fix, bool) {
	if t.lastFix == nil {
		return Fix{}, false
	}
	return *t.lastFix, true
}

// LastState returns the most recent NavigationState Track produced, if any.
func (t *Tracker) LastState() (NavigationState, bool) {
	if t.lastState == nil {
		return NavigationState{}, false
	}
	return *t.lastState, true
}
