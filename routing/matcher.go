package routing

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/janusz-anue/valhalla/costing"
	"github.com/janusz-anue/valhalla/osm"
)

// MatchPoint is the matched road position for one measurement
type MatchPoint struct {
	// EdgeID is the matched directed edge; InvalidEdgeId when the
	// measurement could not be matched
	EdgeID osm.EdgeId

	// Point is the snapped position on the edge
	Point orb.Point

	// PercentAlong is how far along the edge the snap landed
	PercentAlong float64

	// Distance is meters from the raw measurement to the snap
	Distance float64

	Matched bool
}

// MatchResult is the outcome of matching one trace
type MatchResult struct {
	Points []MatchPoint

	// Breaks lists the time indices where the trace could not be connected
	// within budget and a new segment was started
	Breaks []int

	// Confidence is the fraction of measurements that matched
	Confidence float64
}

// Matcher matches measurement traces onto a road graph for one travel mode
type Matcher struct {
	graph    *osm.Graph
	costings []costing.Costing
	mode     costing.TravelMode
	cfg      Config
	emission *EmissionCostModel
}

// NewMatcher validates the configuration and builds a matcher
func NewMatcher(graph *osm.Graph, mode costing.TravelMode, cfg Config) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	emission, err := NewEmissionCostModel(cfg.SigmaZ)
	if err != nil {
		return nil, err
	}
	return &Matcher{
		graph:    graph,
		costings: costing.ModeCosting(),
		mode:     mode,
		cfg:      cfg,
		emission: emission,
	}, nil
}

// buildColumns projects every measurement onto nearby directed edges, one
// state per correlated edge
func (m *Matcher) buildColumns(measurements []Measurement) []Column {
	columns := make([]Column, len(measurements))
	for t, meas := range measurements {
		radius := meas.SearchRadius
		if radius <= 0 {
			radius = m.cfg.SearchRadius
		}
		loc := m.graph.Project(meas.Point[0], meas.Point[1], radius)
		column := make(Column, 0, len(loc.Edges))
		for i, pe := range loc.Edges {
			candidate := osm.PathLocation{Point: loc.Point, Edges: []osm.PathEdge{pe}}
			column = append(column, NewState(NewStateId(t, i), candidate))
		}
		columns[t] = column
	}
	return columns
}

// Match runs the full pipeline over a time-ordered trace: candidate search,
// the Viterbi program with on-demand transition routing, and backtracking
func (m *Matcher) Match(measurements []Measurement) (MatchResult, error) {
	n := len(measurements)
	if n == 0 {
		return MatchResult{}, nil
	}
	for t := 1; t < n; t++ {
		if measurements[t].EpochTime < measurements[t-1].EpochTime {
			return MatchResult{}, fmt.Errorf("measurements out of time order at index %d", t)
		}
	}

	columns := m.buildColumns(measurements)
	vs := newViterbiSearch(columns, measurements)

	transition, err := NewTransitionCostModel(m.graph, vs, vs.column, vs.measurement, m.costings, m.mode, m.cfg)
	if err != nil {
		return MatchResult{}, err
	}

	winners, breaks := vs.run(transition, m.emission)

	// Backtrack each segment from its winning end state
	path := make([]StateId, n)
	cur := InvalidStateId
	for t := n - 1; t >= 0; t-- {
		if !cur.IsValid() {
			cur = winners[t]
		}
		path[t] = cur
		if cur.IsValid() {
			cur = vs.Predecessor(cur)
		}
	}

	result := MatchResult{
		Points: make([]MatchPoint, n),
		Breaks: breaks,
	}
	matched := 0
	for t, sid := range path {
		if !sid.IsValid() {
			result.Points[t] = MatchPoint{EdgeID: osm.InvalidEdgeId}
			continue
		}
		pe := columns[t][sid.ID].Candidate().Edges[0]
		result.Points[t] = MatchPoint{
			EdgeID:       pe.ID,
			Point:        pe.Point,
			PercentAlong: pe.PercentAlong,
			Distance:     pe.Distance,
			Matched:      true,
		}
		matched++
	}
	result.Confidence = float64(matched) / float64(n)
	return result, nil
}
