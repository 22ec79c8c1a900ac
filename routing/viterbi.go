package routing

import "math"

// viterbiSearch is the column-ordered dynamic program that drives the
// matcher: it combines emission and transition costs, picks the cheapest
// predecessor for each state, and restarts a fresh segment wherever no
// transition in a column pair survives the breakage budget
type viterbiSearch struct {
	columns      []Column
	measurements []Measurement
	predecessors map[StateId]StateId
	costs        map[StateId]float64
}

func newViterbiSearch(columns []Column, measurements []Measurement) *viterbiSearch {
	return &viterbiSearch{
		columns:      columns,
		measurements: measurements,
		predecessors: make(map[StateId]StateId),
		costs:        make(map[StateId]float64),
	}
}

// Predecessor returns the chosen predecessor of a state, or InvalidStateId
// while none has been committed
func (v *viterbiSearch) Predecessor(id StateId) StateId {
	if p, ok := v.predecessors[id]; ok {
		return p
	}
	return InvalidStateId
}

func (v *viterbiSearch) column(t int) Column {
	return v.columns[t]
}

func (v *viterbiSearch) measurement(t int) Measurement {
	return v.measurements[t]
}

func candidateDistance(s *State) float64 {
	if edges := s.Candidate().Edges; len(edges) > 0 {
		return edges[0].Distance
	}
	return math.Inf(1)
}

// seed starts a fresh segment at column t: emission costs only, no predecessors
func (v *viterbiSearch) seed(t int, emission *EmissionCostModel) {
	for _, s := range v.columns[t] {
		v.costs[s.ID()] = emission.Cost(candidateDistance(s))
	}
}

// run executes the dynamic program over all columns. It returns the winning
// state per column (invalid where a column had no reachable candidate) and
// the time indices where breakage forced a new segment.
//
// Transition costs for a column pair are computed for every (left, right)
// combination before any predecessor of the right column is committed, so
// each left state routes against the full unreached right column exactly once
func (v *viterbiSearch) run(transition *TransitionCostModel, emission *EmissionCostModel) (winners []StateId, breaks []int) {
	n := len(v.columns)
	winners = make([]StateId, n)
	if n == 0 {
		return winners, nil
	}
	v.seed(0, emission)

	for t := 1; t < n; t++ {
		prevColumn, col := v.columns[t-1], v.columns[t]

		transCosts := make([][]float64, len(prevColumn))
		for i, lhs := range prevColumn {
			if math.IsInf(v.costs[lhs.ID()], 1) {
				continue
			}
			transCosts[i] = make([]float64, len(col))
			for j, rhs := range col {
				transCosts[i][j] = transition.Cost(lhs.ID(), rhs.ID())
			}
		}

		connected := false
		for j, rhs := range col {
			bestCost := math.Inf(1)
			bestPred := InvalidStateId
			for i, lhs := range prevColumn {
				if transCosts[i] == nil {
					continue
				}
				tc := transCosts[i][j]
				if tc == NoTransition {
					continue
				}
				if total := v.costs[lhs.ID()] + tc; total < bestCost {
					bestCost = total
					bestPred = lhs.ID()
				}
			}
			if bestPred.IsValid() {
				connected = true
				v.costs[rhs.ID()] = bestCost + emission.Cost(candidateDistance(rhs))
				v.predecessors[rhs.ID()] = bestPred
			} else {
				v.costs[rhs.ID()] = math.Inf(1)
			}
		}

		if !connected {
			breaks = append(breaks, t)
			v.seed(t, emission)
		}
	}

	for t := range v.columns {
		best := math.Inf(1)
		winners[t] = InvalidStateId
		for _, s := range v.columns[t] {
			if c := v.costs[s.ID()]; c < best {
				best = c
				winners[t] = s.ID()
			}
		}
	}
	return winners, breaks
}
