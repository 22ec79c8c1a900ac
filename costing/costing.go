// Package costing provides per-travel-mode routing costs over graph edges.
package costing

import (
	"github.com/janusz-anue/valhalla/osm"
)

// TravelMode selects one of the costing models
type TravelMode uint8

const (
	ModeAuto TravelMode = iota
	ModePedestrian
)

// Cost is an accumulated routing cost: a unitless cost value, monotonic in
// path length, and elapsed seconds
type Cost struct {
	Cost float64
	Secs float64
}

// Add returns c grown by the other cost
func (c Cost) Add(o Cost) Cost {
	return Cost{Cost: c.Cost + o.Cost, Secs: c.Secs + o.Secs}
}

// Scale returns c scaled by a fraction, used for partial edge traversals
func (c Cost) Scale(f float64) Cost {
	return Cost{Cost: c.Cost * f, Secs: c.Secs * f}
}

// Costing scores edges and junction turns for a travel mode
type Costing interface {
	Mode() TravelMode

	// Allowed reports whether the mode may traverse the edge
	Allowed(e *osm.Edge) bool

	// EdgeCost returns the cost of traversing the whole edge
	EdgeCost(e *osm.Edge) Cost

	// TurnCost returns the extra cost for turning from one edge onto the
	// next, given the folded turn angle in degrees. Route searches add it to
	// the accumulated cost, not to the elapsed seconds
	TurnCost(from, to *osm.Edge, angleDegrees float64) float64
}

// ModeCosting returns the costing objects indexed by TravelMode
func ModeCosting() []Costing {
	return []Costing{
		ModeAuto:       AutoCosting{},
		ModePedestrian: PedestrianCosting{},
	}
}

// AutoCosting routes a car: any loaded highway class is driveable and edge
// cost equals metres travelled
type AutoCosting struct{}

func (AutoCosting) Mode() TravelMode { return ModeAuto }

func (AutoCosting) Allowed(e *osm.Edge) bool {
	return e != nil && e.SpeedKph > 0
}

func (AutoCosting) EdgeCost(e *osm.Edge) Cost {
	return Cost{
		Cost: e.LengthMeters,
		Secs: e.LengthMeters / (e.SpeedKph / 3.6),
	}
}

// TurnCost charges sharper turns more, up to 5 for a U-turn; turns of 10
// degrees or less are free
func (AutoCosting) TurnCost(from, to *osm.Edge, angleDegrees float64) float64 {
	if angleDegrees <= 10 {
		return 0
	}
	return 5.0 * angleDegrees / 180.0
}

const pedestrianSpeedKph = 5.1

// PedestrianCosting routes on foot: motorways are off limits, speed is a
// constant walking pace, and turns are free
type PedestrianCosting struct{}

func (PedestrianCosting) Mode() TravelMode { return ModePedestrian }

func (PedestrianCosting) Allowed(e *osm.Edge) bool {
	if e == nil {
		return false
	}
	switch e.Highway {
	case "motorway", "motorway_link":
		return false
	}
	return true
}

func (PedestrianCosting) EdgeCost(e *osm.Edge) Cost {
	return Cost{
		Cost: e.LengthMeters,
		Secs: e.LengthMeters / (pedestrianSpeedKph / 3.6),
	}
}

func (PedestrianCosting) TurnCost(from, to *osm.Edge, angleDegrees float64) float64 {
	return 0
}
