package geom

import (
	"math"

	"github.com/tidwall/rtree"
)

// edgeRef is the payload stored per indexed bounding box
type edgeRef struct {
	id int64
}

// RTree is a spatial index of road edges keyed by their bounding boxes
type RTree struct {
	tree rtree.RTreeG[edgeRef]
}

// NewRTree creates an empty index
func NewRTree() *RTree {
	return &RTree{}
}

// Insert adds an edge with the given bounding box
func (r *RTree) Insert(id int64, minLon, minLat, maxLon, maxLat float64) {
	r.tree.Insert(
		[2]float64{minLon, minLat},
		[2]float64{maxLon, maxLat},
		edgeRef{id: id},
	)
}

// SearchNearPoint returns the ids of all edges whose bounding boxes come
// within distanceMeters of a point. The radius is converted to degrees at
// the query latitude
func (r *RTree) SearchNearPoint(lon, lat, distanceMeters float64) []int64 {
	latRad := lat * math.Pi / 180.0
	deltaLon := distanceMeters / (EarthRadiusMeters * math.Pi / 180.0 * math.Cos(latRad))
	deltaLat := distanceMeters / (EarthRadiusMeters * math.Pi / 180.0)

	ids := make([]int64, 0)
	r.tree.Search(
		[2]float64{lon - deltaLon, lat - deltaLat},
		[2]float64{lon + deltaLon, lat + deltaLat},
		func(min, max [2]float64, ref edgeRef) bool {
			ids = append(ids, ref.id)
			return true
		},
	)
	return ids
}

// Size returns the number of indexed edges
func (r *RTree) Size() int {
	return r.tree.Len()
}
