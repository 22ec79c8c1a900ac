package osm

import (
	"io"
	"log"
	"os"
	"runtime"

	"github.com/paulmach/orb"
	"github.com/qedus/osmpbf"
)

type rawNode struct {
	Lat float64
	Lon float64
}

type rawWay struct {
	Nodes   []NodeId
	Highway string
	Oneway  bool
}

// defaultSpeedsKph maps the routable highway classes to assumed speeds
var defaultSpeedsKph = map[string]float64{
	"motorway":       100,
	"motorway_link":  60,
	"trunk":          90,
	"trunk_link":     50,
	"primary":        65,
	"primary_link":   45,
	"secondary":      50,
	"secondary_link": 40,
	"tertiary":       40,
	"tertiary_link":  30,
	"residential":    30,
	"service":        20,
	"living_street":  10,
}

// LoadOsmFile reads an OSM PBF extract and builds the directed road graph:
// ways are filtered to routable highway classes, split at intersections, and
// each split segment becomes a directed edge pair (a single forward edge for
// oneway ways)
func LoadOsmFile(filePath string) (*Graph, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := osmpbf.NewDecoder(f)

	// use more memory from the start, it is faster
	d.SetBufferSize(osmpbf.MaxBlobSize)

	// start decoding with several goroutines, it is faster
	if err := d.Start(runtime.GOMAXPROCS(-1)); err != nil {
		return nil, err
	}

	nodes := make(map[NodeId]rawNode)
	ways := make([]rawWay, 0)

	for {
		v, err := d.Decode()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case *osmpbf.Node:
			nodes[NodeId(v.ID)] = rawNode{Lat: v.Lat, Lon: v.Lon}
		case *osmpbf.Way:
			if _, ok := defaultSpeedsKph[v.Tags["highway"]]; !ok {
				continue
			}
			ids := make([]NodeId, len(v.NodeIDs))
			for i, id := range v.NodeIDs {
				ids[i] = NodeId(id)
			}
			ways = append(ways, rawWay{
				Nodes:   ids,
				Highway: v.Tags["highway"],
				Oneway:  v.Tags["oneway"] == "yes" || v.Tags["oneway"] == "1",
			})
		case *osmpbf.Relation:
			// relations are not routed over
		default:
			log.Printf("unknown OSM element type %T", v)
		}
	}
	log.Printf("Decoded %d nodes, kept %d routable ways", len(nodes), len(ways))

	// Identify intersection nodes: shared by more than one way, plus way endpoints
	nodeWayCount := make(map[NodeId]int)
	for _, way := range ways {
		for _, nid := range way.Nodes {
			nodeWayCount[nid]++
		}
	}
	isIntersection := func(way rawWay, i int) bool {
		return i == 0 || i == len(way.Nodes)-1 || nodeWayCount[way.Nodes[i]] > 1
	}

	g := NewGraph()
	addIntersection := func(nid NodeId) bool {
		if _, ok := g.Nodes[nid]; ok {
			return true
		}
		raw, ok := nodes[nid]
		if !ok {
			return false
		}
		g.AddNode(nid, raw.Lon, raw.Lat)
		return true
	}

	// Split each way into segments between intersections; each segment becomes
	// a directed edge pair
	for _, way := range ways {
		segStart := -1
		for i := range way.Nodes {
			if !isIntersection(way, i) {
				continue
			}
			if segStart >= 0 {
				from, to := way.Nodes[segStart], way.Nodes[i]
				geometry := buildLineString(way.Nodes[segStart:i+1], nodes)
				if len(geometry) >= 2 && addIntersection(from) && addIntersection(to) {
					speed := defaultSpeedsKph[way.Highway]
					g.AddEdge(from, to, way.Highway, speed, geometry)
					if !way.Oneway {
						g.AddEdge(to, from, way.Highway, speed, reverseLineString(geometry))
					}
				}
			}
			segStart = i
		}
	}

	log.Printf("Built graph: %d nodes, %d directed edges, %d indexed", len(g.Nodes), len(g.Edges), g.RTree.Size())
	return g, nil
}

// buildLineString creates a LineString geometry from a slice of node IDs
func buildLineString(nodeIDs []NodeId, nodes map[NodeId]rawNode) orb.LineString {
	ls := make(orb.LineString, 0, len(nodeIDs))
	for _, nid := range nodeIDs {
		if node, ok := nodes[nid]; ok {
			ls = append(ls, orb.Point{node.Lon, node.Lat})
		}
	}
	return ls
}

func reverseLineString(ls orb.LineString) orb.LineString {
	out := make(orb.LineString, len(ls))
	for i, pt := range ls {
		out[len(ls)-1-i] = pt
	}
	return out
}
