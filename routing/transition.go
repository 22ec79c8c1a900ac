package routing

import (
	"math"

	"github.com/janusz-anue/valhalla/costing"
	"github.com/janusz-anue/valhalla/geom"
	"github.com/janusz-anue/valhalla/osm"
)

// ColumnGetter resolves the candidate column for a time index in O(1)
type ColumnGetter func(time int) Column

// MeasurementGetter resolves the measurement for a time index in O(1)
type MeasurementGetter func(time int) Measurement

// ViterbiSearch is the slice of the Viterbi driver the transition model
// consumes: the predecessor chosen so far for a state, or InvalidStateId
type ViterbiSearch interface {
	Predecessor(id StateId) StateId
}

// TransitionCostModel computes the cost of moving between two candidate
// states in adjacent columns. The first request against a left state routes
// it to every still-unreached right candidate in one bounded expansion and
// caches all reached labels on the left state; every later request is a
// cache lookup
type TransitionCostModel struct {
	reader         osm.GraphReader
	vs             ViterbiSearch
	getColumn      ColumnGetter
	getMeasurement MeasurementGetter
	mode           costing.Costing

	beta              float64
	invBeta           float64
	breakageDistance  float64
	maxDistanceFactor float64
	maxTimeFactor     float64
	turnPenaltyFactor float64
	turnCostTable     [181]float64
}

// NewTransitionCostModel builds the model for one travel mode. Beta and the
// turn penalty factor are validated here; a bad value is a construction error
func NewTransitionCostModel(
	reader osm.GraphReader,
	vs ViterbiSearch,
	getColumn ColumnGetter,
	getMeasurement MeasurementGetter,
	modeCosting []costing.Costing,
	mode costing.TravelMode,
	cfg Config,
) (*TransitionCostModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &TransitionCostModel{
		reader:            reader,
		vs:                vs,
		getColumn:         getColumn,
		getMeasurement:    getMeasurement,
		mode:              modeCosting[mode],
		beta:              cfg.Beta,
		invBeta:           1 / cfg.Beta,
		breakageDistance:  cfg.BreakageDistance,
		maxDistanceFactor: cfg.MaxRouteDistanceFactor,
		maxTimeFactor:     cfg.MaxRouteTimeFactor,
		turnPenaltyFactor: cfg.TurnPenaltyFactor,
	}
	m.turnCostTable = buildTurnCostTable(cfg.TurnPenaltyFactor)
	return m, nil
}

// buildTurnCostTable fills the 181-entry table indexed by integer turn angle
// in degrees: factor * exp(-angle/45). A zero factor leaves the table zeroed
func buildTurnCostTable(factor float64) [181]float64 {
	var table [181]float64
	if factor > 0 {
		for i := 0; i <= 180; i++ {
			table[i] = factor * math.Exp(-float64(i)/45)
		}
	}
	return table
}

// TurnCost returns the table penalty for an arbitrary turn angle in degrees;
// angles outside [0, 180] are folded before indexing
func (m *TransitionCostModel) TurnCost(angleDegrees float64) float64 {
	return m.turnCostTable[geom.FoldTurnDegrees(angleDegrees)]
}

// Cost returns the transition cost from the state at lhs to the state at
// rhs, routing lhs first if this is its first transition request. Returns
// the NoTransition sentinel when rhs was unreachable within budget
func (m *TransitionCostModel) Cost(lhs, rhs StateId) float64 {
	left := m.getColumn(lhs.Time)[lhs.ID]
	right := m.getColumn(rhs.Time)[rhs.ID]

	if !left.Routed() {
		m.UpdateRoute(lhs, rhs)
	}

	label := left.LastLabel(right.ID())
	if label == nil {
		return NoTransition
	}

	leftMeasurement := m.getMeasurement(lhs.Time)
	rightMeasurement := m.getMeasurement(rhs.Time)
	return m.CalculateTransitionCost(
		label.TurnCost,
		label.Cost.Cost,
		GreatCircleDistance(leftMeasurement, rightMeasurement),
		label.Cost.Secs,
		ClockDistance(leftMeasurement, rightMeasurement),
	)
}

// NoTransition is the sentinel Cost returns when the right candidate could
// not be reached within the distance and time budgets. Callers must treat it
// as "no transition", never as a large cost
const NoTransition = -1.0

// CalculateTransitionCost combines the final-edge turn cost with the
// Laplace detour terms: how much longer and slower the route was than the
// straight line between the measurements
func (m *TransitionCostModel) CalculateTransitionCost(turnCost, routeDistance, gcDist, routeTime, clkDist float64) float64 {
	return turnCost + m.invBeta*(math.Abs(routeDistance-gcDist)+math.Abs(routeTime-clkDist))
}

// routeBudgets derives the expansion ceilings for one transition: the
// distance budget is the great-circle distance scaled by the distance
// factor, clamped to the breakage distance; the time budget is the clock
// distance scaled by the time factor
func (m *TransitionCostModel) routeBudgets(gcDist, clkDist float64) (maxDistance, maxTime float64) {
	maxDistance = math.Min(gcDist*m.maxDistanceFactor, m.breakageDistance)
	maxTime = clkDist * m.maxTimeFactor
	return maxDistance, maxTime
}

// UpdateRoute runs the one route expansion of the state at lhs: from its
// candidate to every right-column candidate that has no Viterbi predecessor
// yet, seeded with the label that reached lhs so turn angles at the origin
// are right. The caller must not have routed lhs before, and lhs's own
// predecessor, if any, must already be routed. Either violation is caller
// misuse: an unrouted predecessor panics with ErrPredecessorNotRouted, and
// routing lhs a second time panics with ErrAlreadyRouted
func (m *TransitionCostModel) UpdateRoute(lhs, rhs StateId) {
	left := m.getColumn(lhs.Time)[lhs.ID]

	// Seed the inbound edge label from the routed predecessor
	var edgelabel *Label
	if prev := m.vs.Predecessor(lhs); prev.IsValid() {
		prevState := m.getColumn(prev.Time)[prev.ID]
		if !prevState.Routed() {
			// When the Viterbi search asks for this transition the left state
			// is optimal, so its predecessor must already be expanded and
			// routed; anything else is caller misuse
			panic(ErrPredecessorNotRouted)
		}
		edgelabel = prevState.LastLabel(lhs)
	}

	// Destination set: every right candidate not yet reached from any left state
	rightColumn := m.getColumn(rhs.Time)
	locations := make([]osm.PathLocation, 0, 1+len(rightColumn))
	locations = append(locations, left.Candidate())
	unreached := make([]StateId, 0, len(rightColumn))
	for _, state := range rightColumn {
		if !m.vs.Predecessor(state.ID()).IsValid() {
			locations = append(locations, state.Candidate())
			unreached = append(unreached, state.ID())
		}
	}

	leftMeasurement := m.getMeasurement(lhs.Time)
	rightMeasurement := m.getMeasurement(rhs.Time)
	gcDist := GreatCircleDistance(leftMeasurement, rightMeasurement)
	clkDist := ClockDistance(leftMeasurement, rightMeasurement)
	maxDistance, maxTime := m.routeBudgets(gcDist, clkDist)

	approximator := geom.NewDistanceApproximator(rightMeasurement.Point[0], rightMeasurement.Point[1])

	// Coincident measurements would give a zero ceiling and an always-empty
	// label set; keep at least one meter of headroom
	labelset := NewLabelSet(math.Max(math.Ceil(maxDistance), 1))

	results := findShortestPath(
		m.reader,
		locations,
		0,
		labelset,
		approximator,
		rightMeasurement.SearchRadius,
		m.mode,
		edgelabel,
		&m.turnCostTable,
		math.Ceil(maxDistance),
		math.Ceil(maxTime),
	)

	left.SetRoute(unreached, results, labelset)
}
