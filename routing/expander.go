package routing

import (
	"github.com/janusz-anue/valhalla/costing"
	"github.com/janusz-anue/valhalla/geom"
	"github.com/janusz-anue/valhalla/osm"
)

type destOnEdge struct {
	index   uint16
	percent float64
}

// findShortestPath runs a bounded best-first expansion from the origin
// location to every other location, relaxing edges the costing allows and
// charging turn-table plus mode turn costs at each junction. Partial paths
// are pruned once their meters exceed maxDistance or their seconds exceed
// maxTime (a zero maxTime means no time bound). The inbound edgelabel, when
// present, seeds the turn angle at the origin. The approximator, anchored at
// the target measurement, orders the frontier A*-style; searchRadius relaxes
// the heuristic around the destinations.
//
// Returns destination location index -> index of the best reached label in
// labelset; unreached destinations are absent from the map
func findShortestPath(
	reader osm.GraphReader,
	locations []osm.PathLocation,
	origin int,
	labelset *LabelSet,
	approximator *geom.DistanceApproximator,
	searchRadius float64,
	mode costing.Costing,
	edgelabel *Label,
	turnCostTable *[181]float64,
	maxDistance float64,
	maxTime float64,
) map[uint16]uint32 {
	destEdges := make(map[osm.EdgeId][]destOnEdge)
	remaining := 0
	for i, loc := range locations {
		if i == origin {
			continue
		}
		if len(loc.Edges) == 0 {
			continue
		}
		remaining++
		for _, pe := range loc.Edges {
			destEdges[pe.ID] = append(destEdges[pe.ID], destOnEdge{index: uint16(i), percent: pe.PercentAlong})
		}
	}

	turnCost := func(pred, next *osm.Edge) float64 {
		if pred == nil || pred.ID == next.ID {
			return 0
		}
		angle := geom.TurnAngle(pred.EndBearing, next.StartBearing)
		return turnCostTable[geom.FoldTurnDegrees(angle)] + mode.TurnCost(pred, next, angle)
	}

	heuristic := func(lon, lat float64) float64 {
		h := approximator.Distance(lon, lat) - searchRadius
		if h < 0 {
			h = 0
		}
		return h
	}

	withinBudget := func(dist float64, c costing.Cost) bool {
		if dist > maxDistance {
			return false
		}
		return maxTime <= 0 || c.Secs <= maxTime
	}

	// Seed from the origin's correlated edges
	var inboundEdge *osm.Edge
	if edgelabel != nil {
		inboundEdge = reader.GetEdge(edgelabel.EdgeID)
	}
	for _, oe := range locations[origin].Edges {
		e := reader.GetEdge(oe.ID)
		if e == nil || !mode.Allowed(e) {
			continue
		}
		tc := turnCost(inboundEdge, e)
		ec := mode.EdgeCost(e)

		// Destinations further along the same edge are reachable directly
		for _, d := range destEdges[e.ID] {
			if d.percent < oe.PercentAlong {
				continue
			}
			frac := d.percent - oe.PercentAlong
			c := ec.Scale(frac)
			c.Cost += tc
			dist := e.LengthMeters * frac
			if !withinBudget(dist, c) {
				continue
			}
			labelset.PutDest(d.index, Label{
				EdgeID:      e.ID,
				Predecessor: InvalidLabelIndex,
				Cost:        c,
				SortCost:    c.Cost,
				Distance:    dist,
				TurnCost:    tc,
			})
		}

		// The rest of the edge carries the search to its end node
		frac := 1 - oe.PercentAlong
		c := ec.Scale(frac)
		c.Cost += tc
		dist := e.LengthMeters * frac
		if !withinBudget(dist, c) {
			continue
		}
		to := reader.GetNode(e.To)
		if to == nil {
			continue
		}
		labelset.PutNode(e.To, Label{
			EdgeID:      e.ID,
			Predecessor: InvalidLabelIndex,
			Cost:        c,
			SortCost:    c.Cost + heuristic(to.Lon, to.Lat),
			Distance:    dist,
			TurnCost:    tc,
		})
	}

	results := make(map[uint16]uint32)
	for remaining > 0 {
		idx, ok := labelset.Pop()
		if !ok {
			break
		}
		l := labelset.Label(idx)
		if l.IsDestination() {
			if _, seen := results[l.Dest]; !seen {
				results[l.Dest] = idx
				remaining--
			}
			continue
		}

		node := l.NodeID
		predEdge := reader.GetEdge(l.EdgeID)
		pred := *l
		for _, eid := range reader.Outgoing(node) {
			e := reader.GetEdge(eid)
			if e == nil || !mode.Allowed(e) {
				continue
			}
			tc := turnCost(predEdge, e)
			ec := mode.EdgeCost(e)

			for _, d := range destEdges[eid] {
				c := pred.Cost.Add(ec.Scale(d.percent))
				c.Cost += tc
				dist := pred.Distance + e.LengthMeters*d.percent
				if !withinBudget(dist, c) {
					continue
				}
				labelset.PutDest(d.index, Label{
					EdgeID:      eid,
					Predecessor: idx,
					Cost:        c,
					SortCost:    c.Cost,
					Distance:    dist,
					TurnCost:    tc,
				})
			}

			c := pred.Cost.Add(ec)
			c.Cost += tc
			dist := pred.Distance + e.LengthMeters
			if !withinBudget(dist, c) {
				continue
			}
			to := reader.GetNode(e.To)
			if to == nil {
				continue
			}
			labelset.PutNode(e.To, Label{
				EdgeID:      eid,
				Predecessor: idx,
				Cost:        c,
				SortCost:    c.Cost + heuristic(to.Lon, to.Lat),
				Distance:    dist,
				TurnCost:    tc,
			})
		}
	}
	return results
}
