package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/janusz-anue/valhalla/costing"
	"github.com/janusz-anue/valhalla/geom"
	"github.com/janusz-anue/valhalla/osm"
	"github.com/janusz-anue/valhalla/routing"
)

// Server holds the graph and matcher for handling requests
type Server struct {
	graph   *osm.Graph
	matcher *routing.Matcher
}

// RuntimeMetrics holds memory and goroutine statistics
type RuntimeMetrics struct {
	Goroutines   int     `json:"goroutines"`
	AllocMB      float64 `json:"alloc_mb"`       // currently allocated heap
	TotalAllocMB float64 `json:"total_alloc_mb"` // cumulative allocated (includes freed)
	SysMB        float64 `json:"sys_mb"`         // total memory from OS
	HeapAllocMB  float64 `json:"heap_alloc_mb"`
	HeapSysMB    float64 `json:"heap_sys_mb"`
	HeapObjects  uint64  `json:"heap_objects"`
	NumGC        uint32  `json:"num_gc"`
}

// getRuntimeMetrics collects current runtime statistics
func getRuntimeMetrics() RuntimeMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return RuntimeMetrics{
		Goroutines:   runtime.NumGoroutine(),
		AllocMB:      float64(m.Alloc) / 1024 / 1024,
		TotalAllocMB: float64(m.TotalAlloc) / 1024 / 1024,
		SysMB:        float64(m.Sys) / 1024 / 1024,
		HeapAllocMB:  float64(m.HeapAlloc) / 1024 / 1024,
		HeapSysMB:    float64(m.HeapSys) / 1024 / 1024,
		HeapObjects:  m.HeapObjects,
		NumGC:        m.NumGC,
	}
}

// startMetricsLogger starts a background goroutine that logs metrics periodically
func startMetricsLogger(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			m := getRuntimeMetrics()
			log.Printf("[metrics] goroutines=%d alloc=%.2fMB sys=%.2fMB heap_objects=%d gc_cycles=%d",
				m.Goroutines, m.AllocMB, m.SysMB, m.HeapObjects, m.NumGC)
		}
	}()
}

// matchProperties are the optional per-feature inputs of a match request
type matchProperties struct {
	Timestamps   []float64 `json:"timestamps"`
	SearchRadius float64   `json:"search_radius"`
}

// handleMatch processes a GeoJSON request and returns matched positions
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	requestID := uuid.NewString()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var fc geom.GeoJSONFeatureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		http.Error(w, "Invalid GeoJSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Extract coordinates plus optional timestamps and search radius. When
	// no timestamps are given, fixes are assumed one second apart
	var measurements []routing.Measurement
	for _, feature := range fc.Features {
		var props matchProperties
		if len(feature.Properties) > 0 {
			if err := json.Unmarshal(feature.Properties, &props); err != nil {
				http.Error(w, "Invalid properties: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		coords, err := feature.Geometry.LineCoordinates()
		if err != nil {
			http.Error(w, "Invalid geometry: "+err.Error(), http.StatusBadRequest)
			return
		}
		for i, coord := range coords {
			if len(coord) < 2 {
				continue
			}
			meas := routing.Measurement{
				Point:        [2]float64{coord[0], coord[1]},
				EpochTime:    float64(len(measurements)),
				SearchRadius: props.SearchRadius,
			}
			if i < len(props.Timestamps) {
				meas.EpochTime = props.Timestamps[i]
			}
			measurements = append(measurements, meas)
		}
	}

	if len(measurements) == 0 {
		http.Error(w, "No coordinates found in GeoJSON", http.StatusBadRequest)
		return
	}

	log.Printf("[%s] matching %d measurements", requestID, len(measurements))

	match, err := s.matcher.Match(measurements)
	if err != nil {
		http.Error(w, "Match failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	features := make([]geom.GeoJSONFeature, 0, len(match.Points))
	for t, pt := range match.Points {
		if !pt.Matched {
			continue
		}
		edge := s.graph.GetEdge(pt.EdgeID)
		props, _ := json.Marshal(map[string]interface{}{
			"matched":       true,
			"time_index":    t,
			"edge_id":       pt.EdgeID,
			"percent_along": pt.PercentAlong,
			"highway":       edge.Highway,
		})
		features = append(features, geom.GeoJSONFeature{
			Type:       "Feature",
			Properties: props,
			Geometry:   geom.NewPointGeometry(pt.Point[0], pt.Point[1]),
		})
	}

	response := map[string]interface{}{
		"type":       "FeatureCollection",
		"features":   features,
		"breaks":     match.Breaks,
		"confidence": match.Confidence,
		"request_id": requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("[%s] failed to encode response: %v", requestID, err)
	}
}

func main() {
	pbfFile := flag.String("pbf", "./data/example.osm.pbf", "Path to an OSM PBF extract")
	addr := flag.String("addr", ":8080", "Listen address")
	configPath := flag.String("config", "", "Path to a JSON tuning config")
	mode := flag.String("mode", "auto", "Travel mode: auto or pedestrian")
	flag.Parse()

	log.Println("matcher starting...")

	cfg := routing.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = routing.LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	travelMode := costing.ModeAuto
	if *mode == "pedestrian" {
		travelMode = costing.ModePedestrian
	}

	log.Printf("Loading graph from %s", *pbfFile)
	graph, err := osm.LoadOsmFile(*pbfFile)
	if err != nil {
		log.Fatal(err)
	}

	matcher, err := routing.NewMatcher(graph, travelMode, cfg)
	if err != nil {
		log.Fatal(err)
	}

	server := &Server{
		graph:   graph,
		matcher: matcher,
	}

	http.HandleFunc("/match", server.handleMatch)

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Metrics endpoint
	http.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		metrics := getRuntimeMetrics()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(metrics)
	})

	// Start background metrics logging (every 30 seconds)
	startMetricsLogger(30 * time.Second)

	log.Printf("Listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
