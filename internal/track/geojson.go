package track

// Persisted track shape: a GeoJSON FeatureCollection of LineString
// features whose properties carry per-vertex timestamp text and telemetry
// states in arrays parallel to the coordinate list. This is the format the
// aggregator writes and the loader consumes.

// FeatureCollection is the root of a persisted device track.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one track segment as persisted.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry holds LineString coordinates as [lon, lat] pairs.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// Properties carries the per-vertex arrays parallel to the coordinates.
type Properties struct {
	Time   []string   `json:"time"`
	States []AuxState `json:"states"`
}
