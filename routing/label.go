package routing

import (
	"container/heap"

	"github.com/janusz-anue/valhalla/costing"
	"github.com/janusz-anue/valhalla/osm"
)

// InvalidLabelIndex marks "no label" in route results and predecessor links
const InvalidLabelIndex = ^uint32(0)

// invalidDestIndex marks an interior label that did not land on a destination
const invalidDestIndex = ^uint16(0)

const invalidNodeId = osm.NodeId(-1)

// Label is one node of the shortest-path tree: the directed edge it arrived
// on, a predecessor index into the owning LabelSet, the accumulated cost,
// seconds and meters, and the turn cost paid at this edge's origin. Interior
// labels settle a graph node; destination labels settle a destination index.
// Immutable once inserted
type Label struct {
	NodeID      osm.NodeId
	Dest        uint16
	EdgeID      osm.EdgeId
	Predecessor uint32
	Cost        costing.Cost
	SortCost    float64
	Distance    float64
	TurnCost    float64
}

// IsDestination reports whether the label settles a destination rather than
// an interior node
func (l *Label) IsDestination() bool {
	return l.Dest != invalidDestIndex
}

type labelStatus struct {
	label     uint32
	permanent bool
}

// LabelSet is the label arena and best-first frontier of one route
// expansion. Labels whose path distance exceeds the ceiling are never
// inserted. During expansion it behaves as a min-priority queue keyed by
// sort cost with ties broken by insertion index; afterwards it is an
// append-only log that route results index into
type LabelSet struct {
	maxDistance float64
	labels      []Label
	queue       labelHeap
	nodeStatus  map[osm.NodeId]labelStatus
	destStatus  map[uint16]labelStatus
}

// NewLabelSet creates a label set with the given path-distance ceiling in
// meters
func NewLabelSet(maxDistance float64) *LabelSet {
	ls := &LabelSet{
		maxDistance: maxDistance,
		nodeStatus:  make(map[osm.NodeId]labelStatus),
		destStatus:  make(map[uint16]labelStatus),
	}
	ls.queue.set = ls
	return ls
}

// PutNode offers a label settling a graph node. It is dropped if it exceeds
// the distance ceiling or does not improve on the node's best known label
func (ls *LabelSet) PutNode(node osm.NodeId, l Label) {
	l.NodeID = node
	l.Dest = invalidDestIndex
	if st, ok := ls.nodeStatus[node]; ok {
		if st.permanent || ls.labels[st.label].SortCost <= l.SortCost {
			return
		}
	}
	if idx, ok := ls.insert(l); ok {
		ls.nodeStatus[node] = labelStatus{label: idx}
	}
}

// PutDest offers a label settling the destination with the given index
func (ls *LabelSet) PutDest(dest uint16, l Label) {
	l.NodeID = invalidNodeId
	l.Dest = dest
	if st, ok := ls.destStatus[dest]; ok {
		if st.permanent || ls.labels[st.label].SortCost <= l.SortCost {
			return
		}
	}
	if idx, ok := ls.insert(l); ok {
		ls.destStatus[dest] = labelStatus{label: idx}
	}
}

func (ls *LabelSet) insert(l Label) (uint32, bool) {
	if l.Distance > ls.maxDistance {
		return InvalidLabelIndex, false
	}
	idx := uint32(len(ls.labels))
	ls.labels = append(ls.labels, l)
	heap.Push(&ls.queue, idx)
	return idx, true
}

// Pop removes and returns the index of the cheapest non-stale label, marking
// it permanent. Returns false when the frontier is exhausted
func (ls *LabelSet) Pop() (uint32, bool) {
	for ls.queue.Len() > 0 {
		idx := heap.Pop(&ls.queue).(uint32)
		l := &ls.labels[idx]
		if l.IsDestination() {
			st := ls.destStatus[l.Dest]
			if st.permanent || st.label != idx {
				continue
			}
			st.permanent = true
			ls.destStatus[l.Dest] = st
		} else {
			st := ls.nodeStatus[l.NodeID]
			if st.permanent || st.label != idx {
				continue
			}
			st.permanent = true
			ls.nodeStatus[l.NodeID] = st
		}
		return idx, true
	}
	return 0, false
}

// Label returns the label at the given insertion index
func (ls *LabelSet) Label(idx uint32) *Label {
	return &ls.labels[idx]
}

// Len returns the number of labels inserted so far
func (ls *LabelSet) Len() int {
	return len(ls.labels)
}

// labelHeap orders label indices by sort cost, breaking ties by lower
// insertion index for deterministic expansion
type labelHeap struct {
	set     *LabelSet
	indices []uint32
}

func (h *labelHeap) Len() int { return len(h.indices) }

func (h *labelHeap) Less(i, j int) bool {
	a, b := h.indices[i], h.indices[j]
	ca, cb := h.set.labels[a].SortCost, h.set.labels[b].SortCost
	if ca != cb {
		return ca < cb
	}
	return a < b
}

func (h *labelHeap) Swap(i, j int) {
	h.indices[i], h.indices[j] = h.indices[j], h.indices[i]
}

func (h *labelHeap) Push(x any) {
	h.indices = append(h.indices, x.(uint32))
}

func (h *labelHeap) Pop() any {
	n := len(h.indices)
	x := h.indices[n-1]
	h.indices = h.indices[:n-1]
	return x
}
