package routing

import (
	"errors"

	"github.com/janusz-anue/valhalla/osm"
)

// Contract violations are programmer errors and surface as panics carrying
// these sentinel values
var (
	// ErrAlreadyRouted means SetRoute ran twice on one state
	ErrAlreadyRouted = errors.New("routing: state was already routed")

	// ErrPredecessorNotRouted means TransitionCostModel.Cost was asked about a state
	// whose Viterbi predecessor has not been routed yet
	ErrPredecessorNotRouted = errors.New("routing: the predecessor of the current state must have been routed; check TransitionCost call order")
)

// State is one candidate at one time step. It owns the candidate's snapped
// location and, once routed, a shared reference to the label set produced by
// its route expansion plus the best label index for each right-column state
// that expansion reached
type State struct {
	id        StateId
	candidate osm.PathLocation
	routed    bool
	labelset  *LabelSet
	labelIdx  map[StateId]uint32
}

// NewState creates an unrouted state for the given candidate
func NewState(id StateId, candidate osm.PathLocation) *State {
	return &State{id: id, candidate: candidate}
}

// ID returns the state's identity
func (s *State) ID() StateId { return s.id }

// Candidate returns the snapped road location of this state
func (s *State) Candidate() osm.PathLocation { return s.candidate }

// Routed reports whether this state's route expansion has run
func (s *State) Routed() bool { return s.routed }

// SetRoute records the outcome of this state's one route expansion: the
// right-column states that were searched for, the per-destination label
// indices (destination i corresponds to location index i+1 of the search),
// and the label set the indices point into. Flips routed exactly once;
// calling it on a routed state panics with ErrAlreadyRouted
func (s *State) SetRoute(stateids []StateId, results map[uint16]uint32, labelset *LabelSet) {
	if s.routed {
		panic(ErrAlreadyRouted)
	}
	s.labelIdx = make(map[StateId]uint32, len(stateids))
	for k, sid := range stateids {
		if idx, ok := results[uint16(k+1)]; ok && idx != InvalidLabelIndex {
			s.labelIdx[sid] = idx
		}
	}
	s.labelset = labelset
	s.routed = true
}

// LastLabel returns the best label that reached the given right state from
// this state's expansion, or nil when it was not reached within budget
func (s *State) LastLabel(rhs StateId) *Label {
	if idx, ok := s.labelIdx[rhs]; ok {
		return s.labelset.Label(idx)
	}
	return nil
}

// Column is the ordered set of candidate states at a single time step
type Column []*State
