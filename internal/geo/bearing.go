package geo

import "math"

// cardinals is the closed set of 8-point compass labels, indexed by
// round(bearing/45) mod 8.
var cardinals = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// InitialBearing returns the initial great-circle bearing from a to b, in
// degrees clockwise from true north, normalized to [0, 360). It is undefined
// when a and b are the same point; callers must avoid this by construction.
func InitialBearing(a, b Coordinate) (float64, error) {
	if !a.Valid() || !b.Valid() {
		return 0, ErrBadCoordinate
	}
	if a.Equal(b) {
		return 0, ErrDegenerateSegment
	}
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLon := toRad(b.Lon - a.Lon)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := math.Atan2(y, x)
	deg := bearing * 180 / math.Pi
	return math.Mod(deg+360, 360), nil
}

// Cardinal returns the 8-point compass label closest to the given bearing.
func Cardinal(bearingDeg float64) string {
	idx := int(math.Round(bearingDeg/45)) % 8
	if idx < 0 {
		idx += 8
	}
	return cardinals[idx]
}

// RoundToTens rounds v to the nearest multiple of 10 as an integer. Used
// only for user-visible distance text.
func RoundToTens(v float64) int {
	return int(math.Round(v/10) * 10)
}
