// Package stopindex builds and queries the ordered set of stops keyed by
// distance-from-start along a Route (C5).
package stopindex

import (
	"sort"

	"transitline/internal/osm"
	"transitline/internal/routeline"
)

// epsilon is the tolerance previous/next queries use at the cursor boundary,
// per §4.5.
const epsilon = 1.0

// StopIndex is the ordered, distance-from-start-keyed set of stops along a
// Route. Immutable after construction and safe to share by read-only
// reference.
type StopIndex struct {
	stops []osm.Stop
}

// Build projects every stop onto route (unless it already carries a trusted
// dist_from_start, e.g. read from a persisted artifact), sorts stably by
// that key, and fills in neighbour distances. Stops whose position fails
// validation are skipped rather than failing the whole index.
func Build(stops []osm.Stop, route *routeline.Route) *StopIndex {
	kept := make([]osm.Stop, 0, len(stops))
	for _, s := range stops {
		if !s.Position.Valid() {
			continue
		}
		if !s.Indexed {
			proj, err := route.Project(s.Position)
			if err != nil {
				continue
			}
			s.DistFromStart = proj.DistanceFromStart
			s.Indexed = true
		}
		kept = append(kept, s)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].DistFromStart < kept[j].DistFromStart
	})

	for i := range kept {
		switch {
		case len(kept) == 1:
			kept[i].DistanceFromPrev = 0
			kept[i].DistanceToNext = 0
		case i == 0:
			kept[i].DistanceFromPrev = 0
			kept[i].DistanceToNext = kept[i+1].DistFromStart - kept[i].DistFromStart
		case i == len(kept)-1:
			kept[i].DistanceFromPrev = kept[i].DistFromStart - kept[i-1].DistFromStart
			kept[i].DistanceToNext = 0
		default:
			kept[i].DistanceFromPrev = kept[i].DistFromStart - kept[i-1].DistFromStart
			kept[i].DistanceToNext = kept[i+1].DistFromStart - kept[i].DistFromStart
		}
	}

	return &StopIndex{stops: kept}
}

// Stops returns the ordered stop list. Callers must not mutate it.
func (si *StopIndex) Stops() []osm.Stop { return si.stops }

// Len returns the number of indexed stops.
func (si *StopIndex) Len() int { return len(si.stops) }

// Previous returns the last stop whose dist_from_start <= d + epsilon, by
// linear reverse scan. The second return is false if the route has no stop
// at or before d.
func (si *StopIndex) Previous(d float64) (osm.Stop, bool) {
	for i := len(si.stops) - 1; i >= 0; i-- {
		if si.stops[i].DistFromStart <= d+epsilon {
			return si.stops[i], true
		}
	}
	return osm.Stop{}, false
}

// Next returns the first stop whose dist_from_start > d. The second return
// is false if the route has no stop after d.
func (si *StopIndex) Next(d float64) (osm.Stop, bool) {
	for _, s := range si.stops {
		if s.DistFromStart > d {
			return s, true
		}
	}
	return osm.Stop{}, false
}
