package aggregate

import "hoardermap/internal/geo"

// Simplify applies Ramer-Douglas-Peucker simplification in degree space.
// Points within epsilon of the chord between retained endpoints are
// dropped. The input slice is not modified.
func Simplify(points []TrackPoint, epsilon float64) []TrackPoint {
	if len(points) < 3 || epsilon <= 0 {
		out := make([]TrackPoint, len(points))
		copy(out, points)
		return out
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true
	rdpMark(points, 0, len(points)-1, epsilon, keep)

	out := make([]TrackPoint, 0, len(points))
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

func rdpMark(points []TrackPoint, first, last int, epsilon float64, keep []bool) {
	if last-first < 2 {
		return
	}
	maxDist := 0.0
	maxIdx := first
	for i := first + 1; i < last; i++ {
		d := geo.PerpendicularDistance(points[i].Pos, points[first].Pos, points[last].Pos)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist > epsilon {
		keep[maxIdx] = true
		rdpMark(points, first, maxIdx, epsilon, keep)
		rdpMark(points, maxIdx, last, epsilon, keep)
	}
}
