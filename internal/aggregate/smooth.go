package aggregate

import (
	"time"

	"hoardermap/internal/geo"
	"hoardermap/internal/track"
)

// Smooth rounds corners with Chaikin's algorithm. Each iteration replaces
// every segment with two points at its 1/4 and 3/4 marks, keeping the
// original endpoints. Timestamps are interpolated proportionally and each
// new point carries the state of the nearer source point. Straight pairs
// densify too, which keeps scrub instants spaced like curved runs.
func Smooth(points []TrackPoint, iterations int) []TrackPoint {
	out := make([]TrackPoint, len(points))
	copy(out, points)
	if len(points) < 2 {
		return out
	}
	for iter := 0; iter < iterations; iter++ {
		smoothed := make([]TrackPoint, 0, 2*len(out))
		smoothed = append(smoothed, out[0])
		for i := 0; i < len(out)-1; i++ {
			a, b := out[i], out[i+1]
			gap := b.At.Sub(a.At)
			smoothed = append(smoothed, TrackPoint{
				Pos: geo.Point{
					Lat: 0.75*a.Pos.Lat + 0.25*b.Pos.Lat,
					Lon: 0.75*a.Pos.Lon + 0.25*b.Pos.Lon,
				},
				At:    quarterInstant(a.At, gap, 1),
				State: a.State,
			})
			smoothed = append(smoothed, TrackPoint{
				Pos: geo.Point{
					Lat: 0.25*a.Pos.Lat + 0.75*b.Pos.Lat,
					Lon: 0.25*a.Pos.Lon + 0.75*b.Pos.Lon,
				},
				At:    quarterInstant(a.At, gap, 3),
				State: b.State,
			})
		}
		smoothed = append(smoothed, out[len(out)-1])
		out = smoothed
	}
	return out
}

func quarterInstant(start track.Instant, gap time.Duration, quarters time.Duration) track.Instant {
	return track.NewInstant(start.Time().Add(gap * quarters / 4))
}
