package osm

import (
	"github.com/paulmach/orb"

	"github.com/janusz-anue/valhalla/geom"
)

type NodeId int64

type EdgeId int32

// InvalidEdgeId marks the absence of an edge
const InvalidEdgeId = EdgeId(-1)

// Node is a graph vertex at a road intersection
type Node struct {
	ID       NodeId
	Lon      float64
	Lat      float64
	Outgoing []EdgeId
}

// Edge is a directed road segment between two intersection nodes. Geometry
// is oriented From -> To; bearings are in degrees
type Edge struct {
	ID           EdgeId
	From         NodeId
	To           NodeId
	Highway      string
	Geometry     orb.LineString
	LengthMeters float64
	SpeedKph     float64
	StartBearing float64
	EndBearing   float64
}

// Graph is the routable road network: intersection nodes joined by directed
// edges, with a spatial index over edge bounding boxes
type Graph struct {
	Nodes map[NodeId]*Node
	Edges []*Edge
	RTree *geom.RTree
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[NodeId]*Node),
		Edges: make([]*Edge, 0),
		RTree: geom.NewRTree(),
	}
}

// GraphReader is the read-only surface a route search walks
type GraphReader interface {
	GetEdge(id EdgeId) *Edge
	GetNode(id NodeId) *Node
	Outgoing(id NodeId) []EdgeId
}

// AddNode inserts a node, replacing any node with the same id
func (g *Graph) AddNode(id NodeId, lon, lat float64) *Node {
	n := &Node{ID: id, Lon: lon, Lat: lat}
	g.Nodes[id] = n
	return n
}

// AddEdge appends a directed edge between two existing nodes, derives its
// length and bearings from the geometry, wires it into the from-node's
// outgoing list, and indexes it spatially
func (g *Graph) AddEdge(from, to NodeId, highway string, speedKph float64, geometry orb.LineString) *Edge {
	e := &Edge{
		ID:       EdgeId(len(g.Edges)),
		From:     from,
		To:       to,
		Highway:  highway,
		Geometry: geometry,
		SpeedKph: speedKph,
	}
	for i := 0; i < len(geometry)-1; i++ {
		e.LengthMeters += geom.GreatCircleDistance(
			geometry[i][0], geometry[i][1],
			geometry[i+1][0], geometry[i+1][1])
	}
	if len(geometry) >= 2 {
		e.StartBearing = geom.Bearing(geometry[0][0], geometry[0][1], geometry[1][0], geometry[1][1])
		last := len(geometry) - 1
		e.EndBearing = geom.Bearing(geometry[last-1][0], geometry[last-1][1], geometry[last][0], geometry[last][1])
	}
	g.Edges = append(g.Edges, e)
	if n := g.Nodes[from]; n != nil {
		n.Outgoing = append(n.Outgoing, e.ID)
	}
	g.indexEdge(e)
	return e
}

func (g *Graph) indexEdge(e *Edge) {
	if len(e.Geometry) == 0 {
		return
	}
	minLon, minLat := e.Geometry[0][0], e.Geometry[0][1]
	maxLon, maxLat := minLon, minLat
	for _, pt := range e.Geometry {
		if pt[0] < minLon {
			minLon = pt[0]
		}
		if pt[0] > maxLon {
			maxLon = pt[0]
		}
		if pt[1] < minLat {
			minLat = pt[1]
		}
		if pt[1] > maxLat {
			maxLat = pt[1]
		}
	}
	g.RTree.Insert(int64(e.ID), minLon, minLat, maxLon, maxLat)
}

// GetEdge returns the edge with the given id, or nil
func (g *Graph) GetEdge(id EdgeId) *Edge {
	if id < 0 || int(id) >= len(g.Edges) {
		return nil
	}
	return g.Edges[id]
}

// GetNode returns the node with the given id, or nil
func (g *Graph) GetNode(id NodeId) *Node {
	return g.Nodes[id]
}

// Outgoing returns the edges leaving the given node
func (g *Graph) Outgoing(id NodeId) []EdgeId {
	if n := g.Nodes[id]; n != nil {
		return n.Outgoing
	}
	return nil
}
