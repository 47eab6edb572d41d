package aggregate

import (
	"hoardermap/internal/config"
	"hoardermap/internal/geo"
	"hoardermap/internal/track"
)

// SplitAtJumps breaks a point sequence into segments wherever two
// consecutive points are further apart than maxJumpMeters. Segments
// shorter than three points are dropped.
func SplitAtJumps(points []TrackPoint, maxJumpMeters float64) [][]TrackPoint {
	var segments [][]TrackPoint
	var current []TrackPoint
	flush := func() {
		if len(current) > 2 {
			segments = append(segments, current)
		}
		current = nil
	}
	for i, p := range points {
		if i > 0 && geo.Haversine(points[i-1].Pos, p.Pos) > maxJumpMeters {
			flush()
		}
		current = append(current, p)
	}
	flush()
	return segments
}

// Pipeline holds the shaping parameters applied to a merged point
// sequence before it is persisted.
type Pipeline struct {
	MaxJumpMeters     float64
	Epsilon           float64
	ChaikinIterations int
}

// PipelineFromTuning builds a Pipeline from tuning config.
func PipelineFromTuning(cfg *config.TuningConfig) Pipeline {
	return Pipeline{
		MaxJumpMeters:     cfg.GetMaxJumpKm() * 1000,
		Epsilon:           cfg.GetRDPEpsilon(),
		ChaikinIterations: cfg.GetChaikinIterations(),
	}
}

// Features runs the full shaping pipeline over a merged point sequence
// and returns one GeoJSON feature per surviving segment, with pruned
// per-vertex states.
func (p Pipeline) Features(points []TrackPoint) []track.Feature {
	var features []track.Feature
	for _, segment := range SplitAtJumps(points, p.MaxJumpMeters) {
		shaped := Smooth(Simplify(segment, p.Epsilon), p.ChaikinIterations)
		coords := make([][]float64, 0, len(shaped))
		times := make([]string, 0, len(shaped))
		states := make([]track.AuxState, 0, len(shaped))
		for _, pt := range shaped {
			coords = append(coords, []float64{pt.Pos.Lon, pt.Pos.Lat})
			times = append(times, pt.At.Canonical())
			states = append(states, PruneState(pt.State))
		}
		features = append(features, track.Feature{
			Type: "Feature",
			Geometry: track.Geometry{
				Type:        "LineString",
				Coordinates: coords,
			},
			Properties: track.Properties{
				Time:   times,
				States: states,
			},
		})
	}
	return features
}
