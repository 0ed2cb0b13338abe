package maneuver

import (
	"fmt"

	"transitline/internal/geo"
	"transitline/internal/osm"
)

// RenderSteps is the pure-function text renderer: given an extracted Result
// and the route's total length, it emits one human-readable line per
// maneuver, preceded by a preamble line for the starting stop (if any) and
// followed by an arrival line giving the remaining distance to the
// destination stop (if any), matching generate_navigation_directions'
// preamble/remaining-distance framing around the turn-by-turn body.
func RenderSteps(result Result, routeLength float64) []string {
	var lines []string

	if result.StartingStop != nil {
		lines = append(lines, fmt.Sprintf("start at %s", stopLabel(*result.StartingStop)))
	}

	traveled := 0.0
	for _, m := range result.Maneuvers {
		lines = append(lines, renderStep(m))
		traveled += m.DistanceFromPrevStep
	}

	if result.DestinationStop != nil {
		remaining := routeLength - traveled
		if remaining < 0 {
			remaining = 0
		}
		lines = append(lines, fmt.Sprintf("%s, arrive at %s", renderDistance(remaining), stopLabel(*result.DestinationStop)))
	}

	return lines
}

func stopLabel(s osm.Stop) string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.ID)
}

func renderStep(m Maneuver) string {
	dist := renderDistance(m.DistanceFromPrevStep)
	switch m.Kind {
	case KindTurn:
		return fmt.Sprintf("%s, then %s", dist, m.Instruction)
	case KindStop:
		return fmt.Sprintf("%s, stop at %s", dist, stopLabel(m.Stop))
	default:
		return dist
	}
}

func renderDistance(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("ok. %d m", geo.RoundToTens(m))
	}
	return fmt.Sprintf("%.1f km", m/1000)
}
