package routing

import (
	"github.com/paulmach/orb"

	"github.com/janusz-anue/valhalla/geom"
)

// Measurement is one noisy positional observation of the trace: a lon/lat,
// an epoch time in seconds, and the search radius in meters used both for
// candidate snapping and to relax the route search heuristic around the
// destinations.
// Immutable once produced
type Measurement struct {
	Point        orb.Point
	EpochTime    float64
	SearchRadius float64
}

// GreatCircleDistance returns the spherical distance in meters between two
// measurements
func GreatCircleDistance(a, b Measurement) float64 {
	return geom.GreatCircleDistance(a.Point[0], a.Point[1], b.Point[0], b.Point[1])
}

// ClockDistance returns the elapsed seconds from a to b. Measurements are
// time ordered so this is non-negative in practice
func ClockDistance(a, b Measurement) float64 {
	return b.EpochTime - a.EpochTime
}
