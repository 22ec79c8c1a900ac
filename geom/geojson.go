package geom

import "encoding/json"

// GeoJSONFeatureCollection represents a GeoJSON FeatureCollection
type GeoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []GeoJSONFeature `json:"features"`
}

// GeoJSONFeature represents a GeoJSON Feature
type GeoJSONFeature struct {
	Type       string          `json:"type"`
	Properties json.RawMessage `json:"properties,omitempty"`
	Geometry   GeoJSONGeometry `json:"geometry"`
}

// GeoJSONGeometry keeps its coordinates raw so the one type can carry both
// the LineString traces of requests and the Point snaps of responses
type GeoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// LineCoordinates decodes the coordinate array of a LineString or MultiPoint
func (g GeoJSONGeometry) LineCoordinates() ([][]float64, error) {
	var coords [][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, err
	}
	return coords, nil
}

// NewPointGeometry builds a Point geometry
func NewPointGeometry(lon, lat float64) GeoJSONGeometry {
	raw, _ := json.Marshal([]float64{lon, lat})
	return GeoJSONGeometry{Type: "Point", Coordinates: raw}
}
