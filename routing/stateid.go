package routing

// StateId identifies a candidate state: the column time index and the
// candidate's position within that column. Ordered lexicographically
type StateId struct {
	Time int
	ID   int
}

// InvalidStateId is the "no state" sentinel, e.g. a missing Viterbi predecessor
var InvalidStateId = StateId{Time: -1, ID: -1}

// NewStateId builds a StateId for candidate id at column time
func NewStateId(time, id int) StateId {
	return StateId{Time: time, ID: id}
}

// IsValid reports whether the id names a real state
func (s StateId) IsValid() bool {
	return s.Time >= 0 && s.ID >= 0
}

// Less orders StateIds lexicographically by (time, id)
func (s StateId) Less(o StateId) bool {
	if s.Time != o.Time {
		return s.Time < o.Time
	}
	return s.ID < o.ID
}
