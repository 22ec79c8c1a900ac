package routing

import (
	"github.com/paulmach/orb"

	"github.com/janusz-anue/valhalla/costing"
	"github.com/janusz-anue/valhalla/osm"
)

// 1 degree of longitude at the equator in meters
const metersPerDegree = 111194.92664455873

func deg(meters float64) float64 { return meters / metersPerDegree }

// lineGraph builds an equatorial west-to-east chain of n nodes spacing
// meters apart, joined by residential edge pairs in both directions
func lineGraph(n int, spacingMeters float64) *osm.Graph {
	g := osm.NewGraph()
	for i := 0; i < n; i++ {
		g.AddNode(osm.NodeId(i+1), deg(float64(i)*spacingMeters), 0)
	}
	for i := 0; i < n-1; i++ {
		a, b := g.Nodes[osm.NodeId(i+1)], g.Nodes[osm.NodeId(i+2)]
		fwd := orb.LineString{{a.Lon, a.Lat}, {b.Lon, b.Lat}}
		rev := orb.LineString{{b.Lon, b.Lat}, {a.Lon, a.Lat}}
		g.AddEdge(a.ID, b.ID, "residential", 36, fwd)
		g.AddEdge(b.ID, a.ID, "residential", 36, rev)
	}
	return g
}

// makeColumn projects one measurement onto the graph and builds one state
// per correlated directed edge, candidates ordered by edge id
func makeColumn(g *osm.Graph, time int, lon, lat, radius float64) Column {
	loc := g.Project(lon, lat, radius)
	column := make(Column, 0, len(loc.Edges))
	for i, pe := range loc.Edges {
		candidate := osm.PathLocation{Point: loc.Point, Edges: []osm.PathEdge{pe}}
		column = append(column, NewState(NewStateId(time, i), candidate))
	}
	return column
}

// stubViterbi is a canned predecessor lookup
type stubViterbi struct {
	preds map[StateId]StateId
}

func (s *stubViterbi) Predecessor(id StateId) StateId {
	if p, ok := s.preds[id]; ok {
		return p
	}
	return InvalidStateId
}

// countingReader wraps a GraphReader and counts node expansions, so tests
// can prove a cached transition triggers no new route search
type countingReader struct {
	osm.GraphReader
	outgoingCalls int
}

func (c *countingReader) Outgoing(id osm.NodeId) []osm.EdgeId {
	c.outgoingCalls++
	return c.GraphReader.Outgoing(id)
}

// fixture wires a TransitionCostModel over explicit columns and measurements
type fixture struct {
	columns      []Column
	measurements []Measurement
	vs           *stubViterbi
	reader       *countingReader
	model        *TransitionCostModel
}

func newFixture(g *osm.Graph, columns []Column, measurements []Measurement, cfg Config) (*fixture, error) {
	f := &fixture{
		columns:      columns,
		measurements: measurements,
		vs:           &stubViterbi{preds: map[StateId]StateId{}},
		reader:       &countingReader{GraphReader: g},
	}
	model, err := NewTransitionCostModel(
		f.reader,
		f.vs,
		func(t int) Column { return f.columns[t] },
		func(t int) Measurement { return f.measurements[t] },
		costing.ModeCosting(),
		costing.ModeAuto,
		cfg,
	)
	if err != nil {
		return nil, err
	}
	f.model = model
	return f, nil
}
