package osm

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/janusz-anue/valhalla/geom"
)

// SideOfRoad records which side of a directed edge a point projects from
type SideOfRoad uint8

const (
	SideNone SideOfRoad = iota
	SideLeft
	SideRight
)

// PathEdge is a single edge correlation of a projected point: the directed
// edge, how far along it the projection lands, and how far away the original
// point was
type PathEdge struct {
	ID           EdgeId
	PercentAlong float64
	Point        orb.Point
	Distance     float64
	Side         SideOfRoad
}

// PathLocation is a point snapped onto the road graph, possibly correlated
// to several nearby directed edges. Route searches take these as origins and
// destinations
type PathLocation struct {
	Point orb.Point
	Edges []PathEdge
}

// Project snaps a lon/lat onto every directed edge within radius meters,
// correlations ordered by edge id
func (g *Graph) Project(lon, lat, radius float64) PathLocation {
	loc := PathLocation{Point: orb.Point{lon, lat}}
	for _, raw := range g.RTree.SearchNearPoint(lon, lat, radius) {
		e := g.GetEdge(EdgeId(raw))
		if e == nil || len(e.Geometry) < 2 {
			continue
		}
		if pe, ok := projectOntoEdge(e, lon, lat, radius); ok {
			loc.Edges = append(loc.Edges, pe)
		}
	}
	// spatial index hits come back in no particular order
	sort.Slice(loc.Edges, func(i, j int) bool { return loc.Edges[i].ID < loc.Edges[j].ID })
	return loc
}

func projectOntoEdge(e *Edge, lon, lat, radius float64) (PathEdge, bool) {
	best := PathEdge{ID: e.ID, Distance: -1}
	lenBefore := 0.0
	bestSeg := -1
	bestLenBefore := 0.0
	bestT := 0.0
	for i := 0; i < len(e.Geometry)-1; i++ {
		a, b := e.Geometry[i], e.Geometry[i+1]
		d, t, projLon, projLat := geom.ProjectPoint(lon, lat, a[0], a[1], b[0], b[1])
		if best.Distance < 0 || d < best.Distance {
			best.Distance = d
			best.Point = orb.Point{projLon, projLat}
			bestSeg = i
			bestLenBefore = lenBefore
			bestT = t
		}
		lenBefore += geom.GreatCircleDistance(a[0], a[1], b[0], b[1])
	}
	if best.Distance < 0 || best.Distance > radius {
		return PathEdge{}, false
	}
	if e.LengthMeters > 0 {
		a, b := e.Geometry[bestSeg], e.Geometry[bestSeg+1]
		segLen := geom.GreatCircleDistance(a[0], a[1], b[0], b[1])
		best.PercentAlong = (bestLenBefore + bestT*segLen) / e.LengthMeters
		switch geom.CrossTrackSide(lon, lat, a[0], a[1], b[0], b[1]) {
		case 1:
			best.Side = SideLeft
		case -1:
			best.Side = SideRight
		}
	}
	return best, true
}
