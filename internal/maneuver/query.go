package maneuver

// Sequence wraps an extracted, sorted Maneuver list to answer cursor-based
// lookahead queries, the same shape StopIndex uses for stop queries.
type Sequence struct {
	maneuvers []Maneuver
}

// NewSequence wraps an already sorted (per Extract) Maneuver list.
func NewSequence(maneuvers []Maneuver) Sequence {
	return Sequence{maneuvers: maneuvers}
}

// NextAfter returns the first maneuver whose distance_from_start exceeds d,
// used by Tracker to compute the upcoming maneuver hint.
func (s Sequence) NextAfter(d float64) (Maneuver, bool) {
	for _, m := range s.maneuvers {
		if m.DistanceFromStart > d {
			return m, true
		}
	}
	return Maneuver{}, false
}
