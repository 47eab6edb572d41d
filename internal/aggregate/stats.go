package aggregate

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"hoardermap/internal/geo"
)

// SpeedStats summarizes implied speeds between consecutive points of a
// merged sequence, before any segmentation or smoothing.
type SpeedStats struct {
	Count    int     `json:"count"`
	MeanMPS  float64 `json:"mean_mps"`
	P50MPS   float64 `json:"p50_mps"`
	P95MPS   float64 `json:"p95_mps"`
	MaxMPS   float64 `json:"max_mps"`
	Distance float64 `json:"distance_meters"`
}

// ComputeSpeedStats walks consecutive point pairs and summarizes their
// implied speeds. Pairs with non-positive elapsed time are skipped.
func ComputeSpeedStats(points []TrackPoint) SpeedStats {
	var speeds []float64
	var distance float64
	for i := 1; i < len(points); i++ {
		distance += geo.Haversine(points[i-1].Pos, points[i].Pos)
		elapsed := points[i].At.Sub(points[i-1].At).Seconds()
		if elapsed <= 0 {
			continue
		}
		speeds = append(speeds, geo.Haversine(points[i-1].Pos, points[i].Pos)/elapsed)
	}
	stats := SpeedStats{Count: len(speeds), Distance: distance}
	if len(speeds) == 0 {
		return stats
	}
	sort.Float64s(speeds)
	stats.MeanMPS = stat.Mean(speeds, nil)
	stats.P50MPS = stat.Quantile(0.5, stat.Empirical, speeds, nil)
	stats.P95MPS = stat.Quantile(0.95, stat.Empirical, speeds, nil)
	stats.MaxMPS = speeds[len(speeds)-1]
	return stats
}
